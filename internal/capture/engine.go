package capture

import (
	"framenote-backend/internal/geometry"
)

// State capture engine state
type State int

const (
	StateIdle      State = iota // no gesture in progress
	StateCapturing              // accumulating points for one gesture
)

// String returns the state as a string
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	default:
		return "unknown"
	}
}

// Engine converts raw pointer input into committed normalized strokes.
// One gesture at a time; the engine is driven synchronously by the input
// stream and must not be shared across goroutines.
type Engine struct {
	state   State
	enabled bool

	color  string
	width  float64
	points []geometry.Point
}

// NewEngine creates an engine with the given pen settings, drawing disabled.
func NewEngine(color string, width float64) *Engine {
	return &Engine{
		state: StateIdle,
		color: color,
		width: width,
	}
}

// State returns the current engine state.
func (e *Engine) State() State {
	return e.state
}

// Enabled reports whether drawing mode is on.
func (e *Engine) Enabled() bool {
	return e.enabled
}

// SetEnabled toggles drawing mode. Disabling mid-gesture discards the
// in-progress stroke without emitting it.
func (e *Engine) SetEnabled(enabled bool) {
	if !enabled && e.state == StateCapturing {
		e.reset()
	}
	e.enabled = enabled
}

// SetPen updates color/width for subsequent gestures. Ignored while a
// gesture is in progress so a committed stroke stays uniform.
func (e *Engine) SetPen(color string, width float64) {
	if e.state == StateCapturing {
		return
	}
	e.color = color
	e.width = width
}

// Begin starts a gesture at the given device position. A gesture already in
// progress is discarded first. No-op unless drawing mode is enabled and the
// rect is usable.
func (e *Engine) Begin(deviceX, deviceY float64, rect geometry.Rect) {
	if !e.enabled || rect.IsDegenerate() {
		return
	}
	e.points = e.points[:0]
	e.points = append(e.points, geometry.Normalize(deviceX, deviceY, rect))
	e.state = StateCapturing
}

// Move appends one normalized point to the in-progress gesture. The engine
// enforces no upper bound; callers throttle the sampling rate.
func (e *Engine) Move(deviceX, deviceY float64, rect geometry.Rect) {
	if e.state != StateCapturing || rect.IsDegenerate() {
		return
	}
	e.points = append(e.points, geometry.Normalize(deviceX, deviceY, rect))
}

// End commits the gesture. Pointer release and pointer-leave both map here.
// Gestures with fewer than 2 points are discarded: a single click never
// produces a dot-stroke. Returns the committed stroke and true on commit.
func (e *Engine) End() (geometry.Stroke, bool) {
	if e.state != StateCapturing {
		return geometry.Stroke{}, false
	}
	if len(e.points) < geometry.MinStrokePoints {
		e.reset()
		return geometry.Stroke{}, false
	}

	stroke := geometry.Stroke{
		Color:  e.color,
		Width:  e.width,
		Points: append([]geometry.Point(nil), e.points...),
	}
	e.reset()
	return stroke, true
}

// Cancel discards any in-progress gesture without emitting.
func (e *Engine) Cancel() {
	e.reset()
}

// InProgress returns a copy of the live stroke for overlay rendering,
// or false when idle.
func (e *Engine) InProgress() (geometry.Stroke, bool) {
	if e.state != StateCapturing {
		return geometry.Stroke{}, false
	}
	return geometry.Stroke{
		Color:  e.color,
		Width:  e.width,
		Points: append([]geometry.Point(nil), e.points...),
	}, true
}

func (e *Engine) reset() {
	e.state = StateIdle
	e.points = nil
}
