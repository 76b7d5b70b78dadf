// Package tracking defines the shared observation model produced by the
// landmark extractors and consumed by the gaze and expression pipelines.
package tracking

// Point is a 2D position in frame pixel coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NominalOpenRatio is the typical eye-opening ratio of an open eye.
// Backends that cannot measure eye opening report this value.
const NominalOpenRatio = 0.3

// EyeObservation is one frame's worth of eye tracking data. Either iris
// may be absent (nil); a missing face is a valid observation with
// FaceDetected false, never an error. Values are immutable once created.
type EyeObservation struct {
	LeftIris  *Point // Left iris center, or nil if not visible
	RightIris *Point // Right iris center, or nil if not visible

	LeftOpenRatio  float64 // Vertical/horizontal eye opening, ~0.2-0.4 open
	RightOpenRatio float64

	FaceDetected bool
	Confidence   float64 // Extractor confidence in [0,1]
}

// NoFace returns the observation for a frame with no detectable face.
func NoFace() EyeObservation {
	return EyeObservation{}
}

// HasIris reports whether at least one iris center is present.
func (o EyeObservation) HasIris() bool {
	return o.LeftIris != nil || o.RightIris != nil
}

// HasBothIrises reports whether both iris centers are present.
func (o EyeObservation) HasBothIrises() bool {
	return o.LeftIris != nil && o.RightIris != nil
}
