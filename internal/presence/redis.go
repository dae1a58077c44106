package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// presenceTTL reviewers heartbeat every 30s; the key outlives two
	// missed beats before the reviewer is considered gone.
	presenceTTL       = 60 * time.Second
	HeartbeatInterval = 30 * time.Second
)

// ReviewerData who is currently reviewing a project
type ReviewerData struct {
	UserID        int64  `json:"user_id"`
	DisplayName   string `json:"display_name"`
	ProjectID     int64  `json:"project_id"`
	LastHeartbeat int64  `json:"last_heartbeat"`
}

// Manager Redis-backed per-project reviewer presence
type Manager struct {
	client *redis.Client
	ctx    context.Context
}

// NewManager creates a presence manager
func NewManager(addr string, password string, db int) *Manager {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &Manager{
		client: rdb,
		ctx:    context.Background(),
	}
}

func (m *Manager) reviewerKey(projectID, userID int64) string {
	return fmt.Sprintf("presence:project:%d:user:%d", projectID, userID)
}

func (m *Manager) projectPattern(projectID int64) string {
	return fmt.Sprintf("presence:project:%d:user:*", projectID)
}

// Join marks a reviewer as present on a project
func (m *Manager) Join(projectID, userID int64, displayName string) error {
	data := ReviewerData{
		UserID:        userID,
		DisplayName:   displayName,
		ProjectID:     projectID,
		LastHeartbeat: time.Now().Unix(),
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	return m.client.Set(m.ctx, m.reviewerKey(projectID, userID), jsonData, presenceTTL).Err()
}

// Heartbeat extends a reviewer's TTL without rewriting the value
func (m *Manager) Heartbeat(projectID, userID int64) error {
	result, err := m.client.Expire(m.ctx, m.reviewerKey(projectID, userID), presenceTTL).Result()
	if err != nil {
		return err
	}
	if !result {
		return fmt.Errorf("reviewer %d not present on project %d", userID, projectID)
	}
	return nil
}

// Leave removes a reviewer from a project
func (m *Manager) Leave(projectID, userID int64) error {
	return m.client.Del(m.ctx, m.reviewerKey(projectID, userID)).Err()
}

// Reviewers lists everyone currently reviewing a project
func (m *Manager) Reviewers(projectID int64) ([]ReviewerData, error) {
	var keys []string
	iter := m.client.Scan(m.ctx, 0, m.projectPattern(projectID), 100).Iterator()
	for iter.Next(m.ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return []ReviewerData{}, nil
	}

	results, err := m.client.MGet(m.ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	reviewers := make([]ReviewerData, 0, len(results))
	for _, result := range results {
		if result == nil {
			continue // expired between SCAN and MGET
		}
		strVal, ok := result.(string)
		if !ok {
			continue
		}
		var data ReviewerData
		if err := json.Unmarshal([]byte(strVal), &data); err == nil {
			reviewers = append(reviewers, data)
		}
	}
	return reviewers, nil
}

// Close releases the Redis connection
func (m *Manager) Close() error {
	return m.client.Close()
}
