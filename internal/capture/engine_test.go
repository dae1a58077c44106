package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"framenote-backend/internal/geometry"
)

var testRect = geometry.Rect{Left: 0, Top: 0, Width: 1000, Height: 500}

func enabledEngine() *Engine {
	e := NewEngine("#ff3b30", 4)
	e.SetEnabled(true)
	return e
}

func TestBeginIgnoredWhileDisabled(t *testing.T) {
	e := NewEngine("#ff3b30", 4)

	e.Begin(10, 10, testRect)
	assert.Equal(t, StateIdle, e.State())

	_, ok := e.End()
	assert.False(t, ok)
}

func TestBeginIgnoredOnDegenerateRect(t *testing.T) {
	e := enabledEngine()

	e.Begin(10, 10, geometry.Rect{Width: 0, Height: 0})
	assert.Equal(t, StateIdle, e.State())
}

func TestSinglePointGestureDiscarded(t *testing.T) {
	e := enabledEngine()

	// A click with no movement must not produce a dot-stroke.
	e.Begin(500, 250, testRect)
	stroke, ok := e.End()
	assert.False(t, ok)
	assert.Empty(t, stroke.Points)
	assert.Equal(t, StateIdle, e.State())
}

func TestGestureCommitsNormalizedPointsInOrder(t *testing.T) {
	e := enabledEngine()

	e.Begin(0, 0, testRect)
	e.Move(500, 250, testRect)
	e.Move(1000, 500, testRect)

	stroke, ok := e.End()
	require.True(t, ok)
	assert.Equal(t, "#ff3b30", stroke.Color)
	assert.Equal(t, 4.0, stroke.Width)
	require.Len(t, stroke.Points, 3)
	assert.Equal(t, geometry.Point{X: 0, Y: 0}, stroke.Points[0])
	assert.Equal(t, geometry.Point{X: 0.5, Y: 0.5}, stroke.Points[1])
	assert.Equal(t, geometry.Point{X: 1, Y: 1}, stroke.Points[2])

	// Engine is reusable for the next gesture.
	assert.Equal(t, StateIdle, e.State())
}

func TestDisableMidGestureDiscards(t *testing.T) {
	e := enabledEngine()

	e.Begin(100, 100, testRect)
	e.Move(200, 200, testRect)
	e.SetEnabled(false)

	assert.Equal(t, StateIdle, e.State())
	_, ok := e.End()
	assert.False(t, ok)
}

func TestCancelDiscardsWithoutEmitting(t *testing.T) {
	e := enabledEngine()

	e.Begin(100, 100, testRect)
	e.Move(200, 200, testRect)
	e.Cancel()

	_, ok := e.End()
	assert.False(t, ok)
}

func TestSetPenIgnoredWhileCapturing(t *testing.T) {
	e := enabledEngine()

	e.Begin(100, 100, testRect)
	e.SetPen("#007aff", 8)
	e.Move(200, 200, testRect)

	stroke, ok := e.End()
	require.True(t, ok)
	assert.Equal(t, "#ff3b30", stroke.Color)
	assert.Equal(t, 4.0, stroke.Width)

	// Takes effect once the gesture is over.
	e.SetPen("#007aff", 8)
	e.Begin(100, 100, testRect)
	e.Move(200, 200, testRect)
	stroke, ok = e.End()
	require.True(t, ok)
	assert.Equal(t, "#007aff", stroke.Color)
	assert.Equal(t, 8.0, stroke.Width)
}

func TestInProgressReturnsCopy(t *testing.T) {
	e := enabledEngine()

	_, ok := e.InProgress()
	assert.False(t, ok)

	e.Begin(100, 100, testRect)
	e.Move(200, 200, testRect)

	live, ok := e.InProgress()
	require.True(t, ok)
	require.Len(t, live.Points, 2)

	// Mutating the copy must not leak into the committed stroke.
	live.Points[0] = geometry.Point{X: 0.9, Y: 0.9}

	stroke, ok := e.End()
	require.True(t, ok)
	assert.Equal(t, geometry.Point{X: 0.1, Y: 0.2}, stroke.Points[0])
}

func TestBeginTwiceDiscardsFirstGesture(t *testing.T) {
	e := enabledEngine()

	e.Begin(100, 100, testRect)
	e.Move(200, 200, testRect)
	e.Move(300, 300, testRect)

	// New gesture before the first one ended.
	e.Begin(500, 250, testRect)
	e.Move(600, 300, testRect)

	stroke, ok := e.End()
	require.True(t, ok)
	require.Len(t, stroke.Points, 2)
	assert.Equal(t, geometry.Point{X: 0.5, Y: 0.5}, stroke.Points[0])
}
