package annotation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"framenote-backend/internal/geometry"
	"framenote-backend/internal/model"
)

// ValidationError malformed comment/stroke input. The operation is rejected
// and store state is unchanged; callers surface it inline and keep the draft.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// NotFoundError the referenced project or comment does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// Draft incoming comment submission, before id/createdAt assignment.
type Draft struct {
	AuthorID   int64
	AuthorName string
	Text       string
	Timestamp  float64 // seconds, video-relative
	Drawing    geometry.Drawing
}

// Store append-mostly ordered comment collection keyed by owning project.
// Comments come back sorted by timestamp ascending, createdAt breaking ties,
// so scrubber markers render left-to-right deterministically.
//
// Implementations must serialize writes to one project's collection:
// concurrent Adds from different reviewers must both land (no lost updates);
// last-write-wins applies only to SetResolved on the same comment.
type Store interface {
	// Add validates the draft, assigns id and createdAt, and appends.
	Add(ctx context.Context, projectID int64, draft Draft) (*model.Comment, error)
	// SetResolved toggles the resolved flag. Idempotent on repeated calls.
	SetResolved(ctx context.Context, projectID int64, commentID string, resolved bool) error
	// List returns the project's comments in marker order.
	List(ctx context.Context, projectID int64) ([]model.Comment, error)
	// DeleteProject removes a project and cascades to its comments.
	DeleteProject(ctx context.Context, projectID int64) error
}

// validateDraft shared input checks; returns the cleaned text and the
// serialized drawing payload (nil when the drawing is absent).
func validateDraft(draft Draft, duration float64) (string, *string, float64, error) {
	text := strings.TrimSpace(draft.Text)
	if text == "" {
		return "", nil, 0, &ValidationError{Reason: "comment text is empty"}
	}

	payload, err := draft.Drawing.Marshal()
	if err != nil {
		return "", nil, 0, &ValidationError{Reason: "drawing contains a stroke with fewer than 2 points"}
	}

	var drawing *string
	if payload != nil {
		s := string(payload)
		drawing = &s
	}

	// Clock drift on the client can push timestamps past the edges.
	ts := draft.Timestamp
	if ts < 0 {
		ts = 0
	}
	if duration > 0 && ts > duration {
		ts = duration
	}

	return text, drawing, ts, nil
}
