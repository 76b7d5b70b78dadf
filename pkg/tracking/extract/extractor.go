// Package extract provides interchangeable landmark-extraction backends.
// Each backend turns a captured frame into an EyeObservation; which
// backend is live is decided once at startup, not per frame.
package extract

import (
	"github.com/Hitanshparikh/Eyegle-Software/internal/log"
	"github.com/Hitanshparikh/Eyegle-Software/pkg/camera"
	"github.com/Hitanshparikh/Eyegle-Software/pkg/tracking"
)

// Extractor is the interface for landmark extraction backends.
// A frame with no detectable face yields an observation with
// FaceDetected false and a nil error; errors are reserved for backend
// failures (bad image data, inference errors).
type Extractor interface {
	// Extract finds eye landmarks in the frame.
	Extract(frame camera.Frame) (tracking.EyeObservation, error)

	// Name identifies the backend for logging and status reporting.
	Name() string

	// Close releases resources.
	Close() error
}

// Config holds extractor configuration.
type Config struct {
	Backend          string  // "auto", "yunet", "haar", or "heuristic"
	ModelPath        string  // Path to the YuNet ONNX model
	ConfidenceThresh float64 // Minimum face confidence (default 0.5)
	InputWidth       int     // YuNet model input width
	InputHeight      int     // YuNet model input height
}

// DefaultConfig returns production defaults for the YuNet backend.
func DefaultConfig() Config {
	return Config{
		Backend:          "auto",
		ModelPath:        "models/face_detection_yunet.onnx",
		ConfidenceThresh: 0.5,
		InputWidth:       320,
		InputHeight:      320,
	}
}

// New selects and initializes a backend. With Backend "auto" it tries
// YuNet first, falls back to Haar cascades, and finally to the heuristic
// estimator, mirroring the configured-once selection the rest of the
// pipeline relies on.
func New(cfg Config) (Extractor, error) {
	switch cfg.Backend {
	case "yunet":
		return NewYuNet(cfg)
	case "haar":
		return NewHaar()
	case "heuristic":
		return NewHeuristic(), nil
	}

	if ex, err := NewYuNet(cfg); err == nil {
		log.Info("landmark extractor selected", "backend", ex.Name())
		return ex, nil
	} else {
		log.Warn("yunet unavailable, falling back", "error", err)
	}

	if ex, err := NewHaar(); err == nil {
		log.Info("landmark extractor selected", "backend", ex.Name())
		return ex, nil
	} else {
		log.Warn("haar cascades unavailable, falling back", "error", err)
	}

	ex := NewHeuristic()
	log.Info("landmark extractor selected", "backend", ex.Name())
	return ex, nil
}

// face is a detected face region, normalized to [0,1].
type face struct {
	x, y, w, h float64
	confidence float64
}

func (f face) area() float64 {
	return f.w * f.h
}

// selectBest picks the best face from multiple detections, weighting
// confidence over size.
func selectBest(faces []face) *face {
	if len(faces) == 0 {
		return nil
	}
	if len(faces) == 1 {
		return &faces[0]
	}

	maxArea := 0.0
	for _, f := range faces {
		if f.area() > maxArea {
			maxArea = f.area()
		}
	}

	bestScore := -1.0
	var best *face
	for i := range faces {
		score := faces[i].confidence*0.7 + (faces[i].area()/maxArea)*0.3
		if score > bestScore {
			bestScore = score
			best = &faces[i]
		}
	}
	return best
}
