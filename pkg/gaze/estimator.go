// Package gaze turns eye observations into screen coordinates: iris
// normalization, the calibration transform and its solver, and persisted
// calibration profiles.
package gaze

import (
	"github.com/Hitanshparikh/Eyegle-Software/internal/config"
	"github.com/Hitanshparikh/Eyegle-Software/pkg/tracking"
)

// Vector is a normalized gaze direction, each component in [-1, 1].
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Estimator normalizes iris positions into gaze vectors according to a
// configured eye-dominance policy.
type Estimator struct {
	dominance config.Dominance
}

// NewEstimator creates an estimator with the given dominance policy.
func NewEstimator(dominance config.Dominance) *Estimator {
	return &Estimator{dominance: dominance}
}

// Estimate derives a gaze vector from the observation. Returns false if
// neither iris is present; absence is a first-class result, never a
// panic or a zero vector masquerading as data.
func (e *Estimator) Estimate(obs tracking.EyeObservation, frameW, frameH int) (Vector, bool) {
	if !obs.HasIris() || frameW <= 0 || frameH <= 0 {
		return Vector{}, false
	}

	var left, right *Vector
	if obs.LeftIris != nil {
		v := normalize(*obs.LeftIris, frameW, frameH)
		left = &v
	}
	if obs.RightIris != nil {
		v := normalize(*obs.RightIris, frameW, frameH)
		right = &v
	}

	// Single-eye frames use whichever eye is present regardless of the
	// dominance policy.
	if left == nil {
		return *right, true
	}
	if right == nil {
		return *left, true
	}

	switch e.dominance {
	case config.DominanceLeft:
		return *left, true
	case config.DominanceRight:
		return *right, true
	default:
		return Vector{
			X: (left.X + right.X) / 2,
			Y: (left.Y + right.Y) / 2,
		}, true
	}
}

// normalize maps a frame pixel position into [-1, 1] per axis.
func normalize(p tracking.Point, frameW, frameH int) Vector {
	return Vector{
		X: clamp(2*(p.X/float64(frameW))-1, -1, 1),
		Y: clamp(2*(p.Y/float64(frameH))-1, -1, 1),
	}
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
