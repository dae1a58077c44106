package annotation

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"framenote-backend/internal/model"
	"framenote-backend/pkg/logger"
)

// GormStore Postgres-backed Store. Write serialization per project comes
// from the database itself; each Add is an independent INSERT with a fresh
// uuid, so concurrent reviewers never clobber each other.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a Store over the given connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Add validates and inserts a new comment under the project.
func (s *GormStore) Add(ctx context.Context, projectID int64, draft Draft) (*model.Comment, error) {
	var project model.Project
	if err := s.db.WithContext(ctx).Select("id", "duration").First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "project", ID: strconv.FormatInt(projectID, 10)}
		}
		return nil, err
	}

	text, drawing, ts, err := validateDraft(draft, project.Duration)
	if err != nil {
		return nil, err
	}

	comment := model.Comment{
		ID:          uuid.New().String(),
		ProjectID:   projectID,
		AuthorID:    draft.AuthorID,
		AuthorName:  draft.AuthorName,
		Text:        text,
		Timestamp:   ts,
		DrawingData: drawing,
	}

	if err := s.db.WithContext(ctx).Create(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// SetResolved updates the resolved flag in place. Setting the current value
// again is a plain no-op UPDATE.
func (s *GormStore) SetResolved(ctx context.Context, projectID int64, commentID string, resolved bool) error {
	result := s.db.WithContext(ctx).
		Model(&model.Comment{}).
		Where("project_id = ? AND id = ?", projectID, commentID).
		Update("resolved", resolved)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// UPDATE matches the row even when the value is unchanged, so zero
		// rows means the comment does not exist under this project.
		var count int64
		s.db.WithContext(ctx).Model(&model.Comment{}).
			Where("project_id = ? AND id = ?", projectID, commentID).
			Count(&count)
		if count == 0 {
			return &NotFoundError{Resource: "comment", ID: commentID}
		}
	}
	return nil
}

// List returns comments in marker order.
func (s *GormStore) List(ctx context.Context, projectID int64) ([]model.Comment, error) {
	var comments []model.Comment
	if err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("timestamp ASC, created_at ASC").
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// DeleteProject removes the project and all of its comments in one
// transaction so comments are never orphaned.
func (s *GormStore) DeleteProject(ctx context.Context, projectID int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", projectID).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&model.Project{}, projectID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return &NotFoundError{Resource: "project", ID: strconv.FormatInt(projectID, 10)}
		}
		logger.Sugar.Infow("project deleted", "project_id", projectID)
		return nil
	})
}
