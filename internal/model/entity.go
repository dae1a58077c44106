package model

import (
	"time"
)

// User reviewer or editor account
type User struct {
	ID          int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	Email       string  `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	DisplayName string  `gorm:"type:varchar(100);not null" json:"display_name"`
	ProfileImg  *string `gorm:"type:text" json:"profile_img,omitempty"`
	Provider    *string `gorm:"type:varchar(50)" json:"provider,omitempty"`
	ProviderID  *string `gorm:"type:varchar(255)" json:"provider_id,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Projects []Project `gorm:"foreignKey:EditorID" json:"projects,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// Project one reviewable video
type Project struct {
	ID       int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	PublicID string `gorm:"type:varchar(12);uniqueIndex;not null" json:"public_id"` // short shareable id
	EditorID int64  `gorm:"not null;index" json:"editor_id"`
	Title    string `gorm:"type:varchar(200);not null" json:"title"`
	VideoURL string `gorm:"type:text" json:"video_url"`
	Status   string `gorm:"type:varchar(20);default:'PROCESSING'" json:"status"` // PROCESSING, READY
	Duration float64 `gorm:"default:0" json:"duration"` // seconds

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Editor   User      `gorm:"foreignKey:EditorID" json:"editor,omitempty"`
	Comments []Comment `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"comments,omitempty"`
}

func (Project) TableName() string {
	return "projects"
}

// Comment one timestamped annotation, optionally carrying a drawing.
// Created once, then mutated only on the Resolved flag.
type Comment struct {
	ID         string  `gorm:"type:varchar(36);primaryKey" json:"id"` // uuid, never reused
	ProjectID  int64   `gorm:"not null;index:idx_project_timestamp" json:"project_id"`
	AuthorID   int64   `gorm:"not null" json:"author_id"`
	AuthorName string  `gorm:"type:varchar(100);not null" json:"author_name"`
	Text       string  `gorm:"type:text;not null" json:"text"`
	Timestamp  float64 `gorm:"not null;index:idx_project_timestamp" json:"timestamp"` // seconds, video-relative
	Resolved   bool    `gorm:"default:false" json:"resolved"`

	// JSON array of strokes; NULL when the comment carries no drawing
	DrawingData *string `gorm:"type:jsonb" json:"drawing_data,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Project Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Author  User    `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}

func (Comment) TableName() string {
	return "comments"
}
