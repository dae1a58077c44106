package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Fatal("Error loading .env file")
	}

	// Database connection
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_SSLMODE"),
		os.Getenv("DB_TIMEZONE"),
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	fmt.Println("✅ Connected to database")
	fmt.Println()

	// Check if the comments timeline index exists
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM pg_indexes
			WHERE tablename = 'comments'
			AND indexname = 'idx_project_timestamp'
		)
	`
	if err := db.Raw(query).Scan(&exists).Error; err != nil {
		log.Fatal("Failed to check timeline index:", err)
	}

	fmt.Printf("📊 Timeline index exists: %v\n", exists)
	fmt.Println()

	if !exists {
		fmt.Println("❌ idx_project_timestamp does NOT exist!")
		fmt.Println("⚠️  Need to run migration; comment listing will seq-scan")
		return
	}

	// Get project status statistics
	type StatusStats struct {
		Total      int64
		Processing int64
		Ready      int64
	}
	var stats StatusStats
	query = `
		SELECT
			COUNT(*) as total,
			COUNT(CASE WHEN status = 'PROCESSING' THEN 1 END) as processing,
			COUNT(CASE WHEN status = 'READY' THEN 1 END) as ready
		FROM projects
	`
	if err := db.Raw(query).Scan(&stats).Error; err != nil {
		log.Fatal("Failed to get statistics:", err)
	}

	fmt.Println("📈 Project Status Statistics:")
	fmt.Printf("  - Total projects: %d\n", stats.Total)
	fmt.Printf("  - PROCESSING: %d\n", stats.Processing)
	fmt.Printf("  - READY: %d\n", stats.Ready)
	fmt.Println()

	// Get recent projects with comment counts
	type ProjectInfo struct {
		ID           int64
		PublicID     string
		Title        string
		Status       string
		Duration     float64
		CommentCount int64
	}
	var projects []ProjectInfo
	query = `
		SELECT p.id, p.public_id, p.title, p.status, p.duration,
			(SELECT COUNT(*) FROM comments c WHERE c.project_id = p.id) as comment_count
		FROM projects p
		ORDER BY p.id DESC
		LIMIT 10
	`
	if err := db.Raw(query).Scan(&projects).Error; err != nil {
		log.Fatal("Failed to get recent projects:", err)
	}

	fmt.Println("🎬 Recent Projects (last 10):")
	for _, p := range projects {
		fmt.Printf("  - ID: %d, PublicID: %s, Status: %s, Duration: %.1fs, Comments: %d, Title: %s\n",
			p.ID, p.PublicID, p.Status, p.Duration, p.CommentCount, p.Title)
	}
}
