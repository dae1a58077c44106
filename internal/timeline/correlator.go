package timeline

import (
	"framenote-backend/internal/geometry"
	"framenote-backend/internal/model"
)

// Marker one scrubber indicator: a comment and its fractional position
// along the timeline.
type Marker struct {
	CommentID string  `json:"comment_id"`
	Position  float64 `json:"position"` // [0,1]
	Resolved  bool    `json:"resolved"`
}

// MarkerPositions maps each comment to a clamped fractional position.
// A zero/unknown duration is treated as 1 so the division never blows up;
// the timestamp itself then collapses into [0,1].
func MarkerPositions(comments []model.Comment, duration float64) []Marker {
	if duration <= 0 {
		duration = 1
	}

	markers := make([]Marker, 0, len(comments))
	for _, c := range comments {
		markers = append(markers, Marker{
			CommentID: c.ID,
			Position:  geometry.Clamp01(c.Timestamp / duration),
			Resolved:  c.Resolved,
		})
	}
	return markers
}

// ActiveComment returns the explicitly selected comment, or nil when none is
// selected. Selection only happens via marker/list click; playback time never
// implicitly activates a nearest comment.
func ActiveComment(comments []model.Comment, selectedID string) *model.Comment {
	if selectedID == "" {
		return nil
	}
	for i := range comments {
		if comments[i].ID == selectedID {
			return &comments[i]
		}
	}
	return nil
}

// ActiveDrawing returns the selected comment's drawing, or nil when the
// comment is nil or carries none.
func ActiveDrawing(active *model.Comment) geometry.Drawing {
	if active == nil || active.DrawingData == nil {
		return nil
	}
	drawing, err := geometry.UnmarshalDrawing([]byte(*active.DrawingData))
	if err != nil {
		return nil
	}
	return drawing
}

// CompositeOverlay orders overlay strokes back to front: the active
// comment's committed strokes first, then the live in-progress stroke so
// the reviewer's own pen always draws on top. Historical and live strokes
// stay separate layers composited here, never merged in storage.
func CompositeOverlay(active geometry.Drawing, inProgress *geometry.Stroke) []geometry.Stroke {
	out := make([]geometry.Stroke, 0, len(active)+1)
	out = append(out, active...)
	if inProgress != nil {
		out = append(out, *inProgress)
	}
	return out
}
