package geometry

import (
	"encoding/json"
	"errors"
)

// MinStrokePoints a stroke below this is a click, not a drawing
const MinStrokePoints = 2

var ErrDegenerateStroke = errors.New("stroke has fewer than 2 points")

// Point normalized coordinate, each axis in [0,1] of the displayed video rect
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect display rectangle in device pixels
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// IsDegenerate reports whether the rect cannot be normalized against.
// Callers must check this before Normalize; a zero-size rect is a caller bug.
func (r Rect) IsDegenerate() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Normalize converts a device-pixel position into a resolution-independent Point.
func Normalize(deviceX, deviceY float64, rect Rect) Point {
	return Point{
		X: (deviceX - rect.Left) / rect.Width,
		Y: (deviceY - rect.Top) / rect.Height,
	}
}

// Denormalize is the exact inverse of Normalize for a rect of the given size,
// up to floating-point rounding.
func Denormalize(p Point, targetWidth, targetHeight float64) (float64, float64) {
	return p.X * targetWidth, p.Y * targetHeight
}

// Stroke one continuous freehand gesture. Points are append-only during
// capture and immutable once the stroke is committed.
type Stroke struct {
	Color  string  `json:"color"`
	Width  float64 `json:"width"`
	Points []Point `json:"points"`
}

// Renderable reports whether the stroke has enough points to draw.
func (s Stroke) Renderable() bool {
	return len(s.Points) >= MinStrokePoints
}

// Drawing an ordered set of committed strokes attached to one comment.
type Drawing []Stroke

// Validate rejects drawings containing any non-renderable stroke.
func (d Drawing) Validate() error {
	for _, s := range d {
		if !s.Renderable() {
			return ErrDegenerateStroke
		}
	}
	return nil
}

// Marshal serializes the drawing for jsonb storage. Empty drawings collapse
// to nil so a comment never persists an empty stroke list.
func (d Drawing) Marshal() ([]byte, error) {
	if len(d) == 0 {
		return nil, nil
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(d)
}

// UnmarshalDrawing parses a jsonb drawing payload. nil/empty input yields nil.
func UnmarshalDrawing(data []byte) (Drawing, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var d Drawing
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	if len(d) == 0 {
		return nil, nil
	}
	return d, nil
}

// Clamp01 clamps v into [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
