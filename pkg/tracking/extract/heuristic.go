package extract

import (
	"github.com/Hitanshparikh/Eyegle-Software/pkg/camera"
	"github.com/Hitanshparikh/Eyegle-Software/pkg/tracking"
)

// Heuristic is the last-resort backend. It assumes a centered face and
// places the eyes at typical facial proportions. Useful when no detector
// is available; accuracy is poor and the confidence reflects that.
type Heuristic struct{}

// NewHeuristic creates the heuristic estimator.
func NewHeuristic() *Heuristic { return &Heuristic{} }

// Name identifies the backend.
func (h *Heuristic) Name() string { return "heuristic" }

// Extract places the eyes at fixed proportional positions in the frame.
func (h *Heuristic) Extract(frame camera.Frame) (tracking.EyeObservation, error) {
	w := float64(frame.Width)
	ht := float64(frame.Height)

	left := tracking.Point{X: w * 0.35, Y: ht * 0.45}
	right := tracking.Point{X: w * 0.65, Y: ht * 0.45}

	return tracking.EyeObservation{
		LeftIris:       &left,
		RightIris:      &right,
		LeftOpenRatio:  tracking.NominalOpenRatio,
		RightOpenRatio: tracking.NominalOpenRatio,
		FaceDetected:   true,
		Confidence:     0.3,
	}, nil
}

// Close is a no-op.
func (h *Heuristic) Close() error { return nil }
