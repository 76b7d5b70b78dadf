package smoothing

import (
	"math"

	"github.com/Hitanshparikh/Eyegle-Software/pkg/gaze"
)

// Velocity is the dead-zone and acceleration stage. It anchors at the
// screen center: displacement below the dead-zone radius is absorbed
// entirely, and displacement beyond it is amplified by a power curve of
// the distance relative to half the screen diagonal. Anchoring at the
// center rather than at the cursor's last stable position is a
// deliberate carryover from the reference behavior.
type Velocity struct {
	deadZone float64
	exponent float64

	anchor   gaze.ScreenPoint
	history  []gaze.ScreenPoint
	maxHist  int
	anchored bool
}

// NewVelocity creates the stage with the given dead-zone radius in
// pixels and acceleration exponent.
func NewVelocity(deadZone, exponent float64) *Velocity {
	return &Velocity{
		deadZone: deadZone,
		exponent: exponent,
		maxHist:  5,
	}
}

// Apply processes one position against the current screen size.
func (v *Velocity) Apply(p gaze.ScreenPoint, screenW, screenH int) gaze.ScreenPoint {
	if !v.anchored {
		v.anchor = gaze.ScreenPoint{X: float64(screenW) / 2, Y: float64(screenH) / 2}
		v.anchored = true
	}

	dx := p.X - v.anchor.X
	dy := p.Y - v.anchor.Y
	dist := math.Hypot(dx, dy)

	if dist < v.deadZone {
		return v.anchor
	}

	v.history = append(v.history, p)
	if len(v.history) > v.maxHist {
		v.history = v.history[1:]
	}

	halfDiag := math.Hypot(float64(screenW), float64(screenH)) / 2
	accel := 1.0 + math.Pow(dist/halfDiag, v.exponent)

	out := gaze.ScreenPoint{
		X: v.anchor.X + dx*accel,
		Y: v.anchor.Y + dy*accel,
	}
	out.X = clampf(out.X, 0, float64(screenW))
	out.Y = clampf(out.Y, 0, float64(screenH))
	return out
}

// Speed reports the distance between the two most recent accepted
// positions, zero until enough history exists.
func (v *Velocity) Speed() float64 {
	n := len(v.history)
	if n < 2 {
		return 0
	}
	return math.Hypot(
		v.history[n-1].X-v.history[n-2].X,
		v.history[n-1].Y-v.history[n-2].Y,
	)
}

// Reset clears the anchor and history.
func (v *Velocity) Reset() {
	v.anchored = false
	v.history = v.history[:0]
}

func clampf(x, min, max float64) float64 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
