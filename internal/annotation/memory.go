package annotation

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"framenote-backend/internal/model"
)

// MemoryStore mutex-serialized in-memory Store. Used as the test double and
// for DB-less local runs; owned explicitly by the process root and injected,
// never a package-level global.
type MemoryStore struct {
	mu       sync.Mutex
	projects map[int64]*memProject
}

type memProject struct {
	duration float64
	comments []model.Comment
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{projects: make(map[int64]*memProject)}
}

// SeedProject registers a project so comments can attach to it.
func (s *MemoryStore) SeedProject(projectID int64, duration float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[projectID]; !ok {
		s.projects[projectID] = &memProject{duration: duration}
	}
}

// Add validates and appends a new comment under the project.
func (s *MemoryStore) Add(_ context.Context, projectID int64, draft Draft) (*model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok {
		return nil, &NotFoundError{Resource: "project", ID: strconv.FormatInt(projectID, 10)}
	}

	text, drawing, ts, err := validateDraft(draft, p.duration)
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
		CreatedAt:   time.Now(),
	}
	p.comments = append(p.comments, comment)
	return &comment, nil
}

// SetResolved toggles the resolved flag, idempotently.
func (s *MemoryStore) SetResolved(_ context.Context, projectID int64, commentID string, resolved bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok {
		return &NotFoundError{Resource: "project", ID: strconv.FormatInt(projectID, 10)}
	}
	for i := range p.comments {
		if p.comments[i].ID == commentID {
			p.comments[i].Resolved = resolved
			return nil
		}
	}
	return &NotFoundError{Resource: "comment", ID: commentID}
}

// List returns a sorted copy; callers may mutate the slice freely.
func (s *MemoryStore) List(_ context.Context, projectID int64) ([]model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok {
		return nil, &NotFoundError{Resource: "project", ID: strconv.FormatInt(projectID, 10)}
	}

	out := append([]model.Comment(nil), p.comments...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp < out[j].Timestamp
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// DeleteProject drops the project and its comments together.
func (s *MemoryStore) DeleteProject(_ context.Context, projectID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[projectID]; !ok {
		return &NotFoundError{Resource: "project", ID: strconv.FormatInt(projectID, 10)}
	}
	delete(s.projects, projectID)
	return nil
}
