package gaze

import "sync/atomic"

// ScreenPoint is a position in screen pixel coordinates.
type ScreenPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Transform is a 2x3 affine matrix mapping homogeneous gaze coordinates
// to screen pixels: screen = M * [gx, gy, 1]. A Transform is immutable
// once built; replacement happens by publishing a new snapshot.
type Transform struct {
	M [2][3]float64
}

// DefaultTransform maps the gaze range [-1,1] linearly onto the full
// screen, so an uncalibrated system still produces a usable (if coarse)
// cursor.
func DefaultTransform(screenW, screenH int) Transform {
	w, h := float64(screenW), float64(screenH)
	return Transform{M: [2][3]float64{
		{w / 2, 0, w / 2},
		{0, h / 2, h / 2},
	}}
}

// Apply maps a gaze vector to screen coordinates, clamped to the screen.
func (t Transform) Apply(g Vector, screenW, screenH int) ScreenPoint {
	x := t.M[0][0]*g.X + t.M[0][1]*g.Y + t.M[0][2]
	y := t.M[1][0]*g.X + t.M[1][1]*g.Y + t.M[1][2]
	return ScreenPoint{
		X: clamp(x, 0, float64(screenW)),
		Y: clamp(y, 0, float64(screenH)),
	}
}

// Holder publishes the current calibration transform to concurrent
// readers. Single writer, many readers: the processing loop loads the
// snapshot every frame, and a successful calibration stores a new one
// atomically. Readers never observe a partially written transform.
type Holder struct {
	current atomic.Pointer[Transform]
}

// NewHolder creates a holder seeded with the given transform.
func NewHolder(t Transform) *Holder {
	h := &Holder{}
	h.current.Store(&t)
	return h
}

// Load returns the current transform snapshot.
func (h *Holder) Load() Transform {
	return *h.current.Load()
}

// Publish atomically replaces the current transform.
func (h *Holder) Publish(t Transform) {
	h.current.Store(&t)
}
