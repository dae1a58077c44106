package session

import (
	"time"

	"github.com/google/uuid"

	"framenote-backend/internal/capture"
	"framenote-backend/internal/geometry"
	"framenote-backend/internal/model"
	"framenote-backend/internal/timeline"
)

// Mode review UI mode
type Mode int

const (
	ModeViewing Mode = iota // watching playback, annotations read-only
	ModeDrawing             // pen active, playback forced paused
)

// String returns the mode as a string
func (m Mode) String() string {
	switch m {
	case ModeViewing:
		return "viewing"
	case ModeDrawing:
		return "drawing"
	default:
		return "unknown"
	}
}

// Playback transport state, orthogonal to Mode except that entering
// ModeDrawing forces Paused.
type Playback int

const (
	PlaybackPaused Playback = iota
	PlaybackPlaying
)

// Default annotation pen settings
const (
	DefaultPenColor = "#ff3b30"
	DefaultPenWidth = 4.0
)

// Session one reviewer's live review of one project. Owns the capture
// engine and the explicit comment selection. Driven synchronously by a
// single event stream; not safe for concurrent use.
type Session struct {
	ID        string
	ProjectID int64
	StartedAt time.Time

	mode     Mode
	playback Playback
	engine   *capture.Engine

	selectedID  string
	currentTime float64
	duration    float64
}

// New creates a viewing session for the project.
func New(projectID int64, duration float64) *Session {
	return &Session{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		StartedAt: time.Now(),
		mode:      ModeViewing,
		playback:  PlaybackPaused,
		engine:    capture.NewEngine(DefaultPenColor, DefaultPenWidth),
		duration:  duration,
	}
}

// Mode returns the current UI mode.
func (s *Session) Mode() Mode { return s.mode }

// Playback returns the current transport state.
func (s *Session) Playback() Playback { return s.playback }

// Engine exposes the capture engine for pointer-event wiring.
func (s *Session) Engine() *capture.Engine { return s.engine }

// EnterDrawing switches to drawing mode. Forces playback paused before the
// pen activates.
func (s *Session) EnterDrawing() {
	s.playback = PlaybackPaused
	s.mode = ModeDrawing
	s.engine.SetEnabled(true)
}

// ExitDrawing returns to viewing mode, discarding any in-progress stroke.
func (s *Session) ExitDrawing() {
	s.engine.SetEnabled(false)
	s.mode = ModeViewing
}

// Play resumes playback. Rejected while drawing.
func (s *Session) Play() bool {
	if s.mode == ModeDrawing {
		return false
	}
	s.playback = PlaybackPlaying
	return true
}

// Pause pauses playback.
func (s *Session) Pause() {
	s.playback = PlaybackPaused
}

// Seek updates the session's playback position, clamped into the video.
func (s *Session) Seek(t float64) {
	if t < 0 {
		t = 0
	}
	if s.duration > 0 && t > s.duration {
		t = s.duration
	}
	s.currentTime = t
}

// CurrentTime last known playback position.
func (s *Session) CurrentTime() float64 { return s.currentTime }

// Select marks a comment as the active one and seeks to its timestamp.
// A nil comment clears the selection.
func (s *Session) Select(c *model.Comment) {
	if c == nil {
		s.selectedID = ""
		return
	}
	s.selectedID = c.ID
	s.Seek(c.Timestamp)
}

// SelectedID currently selected comment id, empty when none.
func (s *Session) SelectedID() string { return s.selectedID }

// Overlay builds the stroke stack to render for the given comment set:
// the selected comment's committed drawing underneath, the live
// in-progress stroke on top.
func (s *Session) Overlay(comments []model.Comment) []geometry.Stroke {
	active := timeline.ActiveDrawing(timeline.ActiveComment(comments, s.selectedID))

	var live *geometry.Stroke
	if stroke, ok := s.engine.InProgress(); ok {
		live = &stroke
	}
	return timeline.CompositeOverlay(active, live)
}

// Close tears the session down, discarding any in-progress stroke.
// Navigating away mid-gesture lands here.
func (s *Session) Close() {
	s.engine.SetEnabled(false)
	s.mode = ModeViewing
	s.playback = PlaybackPaused
}
