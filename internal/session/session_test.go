package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"framenote-backend/internal/geometry"
	"framenote-backend/internal/model"
)

var videoRect = geometry.Rect{Left: 0, Top: 0, Width: 1280, Height: 720}

func TestNewSessionDefaults(t *testing.T) {
	s := New(1, 600)

	assert.NotEmpty(t, s.ID)
	assert.Equal(t, ModeViewing, s.Mode())
	assert.Equal(t, PlaybackPaused, s.Playback())
	assert.False(t, s.Engine().Enabled())
	assert.Empty(t, s.SelectedID())
}

func TestEnterDrawingForcesPause(t *testing.T) {
	s := New(1, 600)
	require.True(t, s.Play())
	require.Equal(t, PlaybackPlaying, s.Playback())

	s.EnterDrawing()

	assert.Equal(t, ModeDrawing, s.Mode())
	assert.Equal(t, PlaybackPaused, s.Playback())
	assert.True(t, s.Engine().Enabled())
}

func TestPlayRejectedWhileDrawing(t *testing.T) {
	s := New(1, 600)
	s.EnterDrawing()

	assert.False(t, s.Play())
	assert.Equal(t, PlaybackPaused, s.Playback())

	s.ExitDrawing()
	assert.True(t, s.Play())
	assert.Equal(t, PlaybackPlaying, s.Playback())
}

func TestExitDrawingDiscardsInProgressStroke(t *testing.T) {
	s := New(1, 600)
	s.EnterDrawing()

	s.Engine().Begin(100, 100, videoRect)
	s.Engine().Move(200, 200, videoRect)

	s.ExitDrawing()

	assert.Equal(t, ModeViewing, s.Mode())
	_, ok := s.Engine().InProgress()
	assert.False(t, ok)
}

func TestSeekClampedToDuration(t *testing.T) {
	s := New(1, 600)

	s.Seek(700)
	assert.Equal(t, 600.0, s.CurrentTime())

	s.Seek(-10)
	assert.Equal(t, 0.0, s.CurrentTime())

	s.Seek(42.5)
	assert.Equal(t, 42.5, s.CurrentTime())
}

func TestSelectSeeksToCommentTimestamp(t *testing.T) {
	s := New(1, 600)

	s.Select(&model.Comment{ID: "c1", Timestamp: 123.4})
	assert.Equal(t, "c1", s.SelectedID())
	assert.Equal(t, 123.4, s.CurrentTime())

	s.Select(nil)
	assert.Empty(t, s.SelectedID())
	// Clearing the selection does not move the playhead.
	assert.Equal(t, 123.4, s.CurrentTime())
}

func TestOverlayCompositesSelectionAndLiveStroke(t *testing.T) {
	s := New(1, 600)

	committed := geometry.Drawing{
		{Color: "#007aff", Width: 2, Points: []geometry.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}},
	}
	payload, err := committed.Marshal()
	require.NoError(t, err)
	data := string(payload)
	comments := []model.Comment{
		{ID: "c1", Timestamp: 10, DrawingData: &data},
	}

	// Nothing selected, nothing live.
	assert.Empty(t, s.Overlay(comments))

	s.Select(&comments[0])
	out := s.Overlay(comments)
	require.Len(t, out, 1)
	assert.Equal(t, committed[0], out[0])

	// Start a live stroke on top of the selection.
	s.EnterDrawing()
	s.Engine().Begin(100, 100, videoRect)
	s.Engine().Move(200, 200, videoRect)

	out = s.Overlay(comments)
	require.Len(t, out, 2)
	assert.Equal(t, committed[0], out[0])
	assert.Equal(t, DefaultPenColor, out[1].Color)
}

func TestCaptureToReplayRoundTrip(t *testing.T) {
	s := New(1, 600)
	s.EnterDrawing()

	s.Engine().Begin(0, 0, videoRect)
	s.Engine().Move(640, 360, videoRect)
	s.Engine().Move(1280, 720, videoRect)

	stroke, ok := s.Engine().End()
	require.True(t, ok)
	require.Len(t, stroke.Points, 3)

	// Replay on a phone-sized surface lands at the same relative spots.
	x, y := geometry.Denormalize(stroke.Points[1], 390, 219)
	assert.InDelta(t, 195, x, 1e-9)
	assert.InDelta(t, 109.5, y, 1e-9)
}

func TestCloseDiscardsGestureAndResetsState(t *testing.T) {
	s := New(1, 600)
	s.EnterDrawing()
	s.Engine().Begin(100, 100, videoRect)
	s.Engine().Move(200, 200, videoRect)

	s.Close()

	assert.Equal(t, ModeViewing, s.Mode())
	assert.Equal(t, PlaybackPaused, s.Playback())
	assert.False(t, s.Engine().Enabled())
	_, ok := s.Engine().InProgress()
	assert.False(t, ok)
}
