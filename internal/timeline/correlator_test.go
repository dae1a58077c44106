package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"framenote-backend/internal/geometry"
	"framenote-backend/internal/model"
)

func TestMarkerPositions(t *testing.T) {
	comments := []model.Comment{
		{ID: "a", Timestamp: 5.2},
		{ID: "b", Timestamp: 298},
		{ID: "c", Timestamp: 596, Resolved: true},
	}

	markers := MarkerPositions(comments, 596)
	require.Len(t, markers, 3)
	assert.InDelta(t, 5.2/596, markers[0].Position, 1e-9)
	assert.InDelta(t, 0.5, markers[1].Position, 1e-9)
	assert.Equal(t, 1.0, markers[2].Position)
	assert.True(t, markers[2].Resolved)
}

func TestMarkerPositionsClamped(t *testing.T) {
	comments := []model.Comment{
		{ID: "a", Timestamp: -3},
		{ID: "b", Timestamp: 700},
	}

	markers := MarkerPositions(comments, 600)
	assert.Equal(t, 0.0, markers[0].Position)
	assert.Equal(t, 1.0, markers[1].Position)
}

func TestMarkerPositionsZeroDuration(t *testing.T) {
	comments := []model.Comment{{ID: "a", Timestamp: 12}}

	// Metadata not loaded yet: never divide by zero, still clamp into [0,1].
	markers := MarkerPositions(comments, 0)
	require.Len(t, markers, 1)
	assert.Equal(t, 1.0, markers[0].Position)
}

func TestMarkerPositionsEmpty(t *testing.T) {
	markers := MarkerPositions(nil, 600)
	assert.Empty(t, markers)
}

func TestActiveCommentExplicitSelectionOnly(t *testing.T) {
	comments := []model.Comment{
		{ID: "a", Timestamp: 10},
		{ID: "b", Timestamp: 20},
	}

	// No selection: playback position never implicitly activates a comment.
	assert.Nil(t, ActiveComment(comments, ""))
	assert.Nil(t, ActiveComment(comments, "missing"))

	active := ActiveComment(comments, "b")
	require.NotNil(t, active)
	assert.Equal(t, "b", active.ID)
}

func TestActiveDrawing(t *testing.T) {
	assert.Nil(t, ActiveDrawing(nil))
	assert.Nil(t, ActiveDrawing(&model.Comment{ID: "a"}))

	drawing := geometry.Drawing{
		{Color: "#ff3b30", Width: 4, Points: []geometry.Point{{X: 0.1, Y: 0.2}, {X: 0.3, Y: 0.4}}},
	}
	payload, err := drawing.Marshal()
	require.NoError(t, err)
	data := string(payload)

	got := ActiveDrawing(&model.Comment{ID: "a", DrawingData: &data})
	assert.Equal(t, drawing, got)

	corrupt := "{broken"
	assert.Nil(t, ActiveDrawing(&model.Comment{ID: "a", DrawingData: &corrupt}))
}

func TestCompositeOverlayOrdering(t *testing.T) {
	committed := geometry.Drawing{
		{Color: "#ff3b30", Width: 4, Points: []geometry.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}},
		{Color: "#007aff", Width: 2, Points: []geometry.Point{{X: 0, Y: 1}, {X: 1, Y: 0}}},
	}
	live := geometry.Stroke{Color: "#34c759", Width: 6, Points: []geometry.Point{{X: 0.5, Y: 0.5}, {X: 0.6, Y: 0.6}}}

	out := CompositeOverlay(committed, &live)
	require.Len(t, out, 3)
	// Live stroke always renders on top.
	assert.Equal(t, live, out[2])
	assert.Equal(t, committed[0], out[0])
	assert.Equal(t, committed[1], out[1])
}

func TestCompositeOverlayNilLayers(t *testing.T) {
	assert.Empty(t, CompositeOverlay(nil, nil))

	live := geometry.Stroke{Color: "#ff3b30", Width: 4, Points: []geometry.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}}
	out := CompositeOverlay(nil, &live)
	require.Len(t, out, 1)
	assert.Equal(t, live, out[0])
}
