// Package smoothing implements the cursor filter chain: exponential
// moving average, a constant-velocity Kalman filter, and a velocity/
// dead-zone stage, applied in fixed order every frame.
package smoothing

import "github.com/Hitanshparikh/Eyegle-Software/pkg/gaze"

// EMA is an exponential moving average over 2D positions.
// Lower alpha is smoother but slower.
type EMA struct {
	alpha       float64
	value       gaze.ScreenPoint
	initialized bool
}

// NewEMA creates an EMA filter with the given factor in (0,1].
func NewEMA(alpha float64) *EMA {
	return &EMA{alpha: alpha}
}

// Update blends the new position into the accumulator. The first call
// initializes the accumulator to the input.
func (e *EMA) Update(p gaze.ScreenPoint) gaze.ScreenPoint {
	if !e.initialized {
		e.value = p
		e.initialized = true
		return p
	}
	e.value = gaze.ScreenPoint{
		X: e.alpha*p.X + (1-e.alpha)*e.value.X,
		Y: e.alpha*p.Y + (1-e.alpha)*e.value.Y,
	}
	return e.value
}

// Reset clears the accumulator; the next update reinitializes.
func (e *EMA) Reset() {
	e.value = gaze.ScreenPoint{}
	e.initialized = false
}
