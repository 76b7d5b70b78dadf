package gaze

import (
	"math"
	"testing"

	"github.com/Hitanshparikh/Eyegle-Software/internal/config"
	"github.com/Hitanshparikh/Eyegle-Software/pkg/tracking"
)

func TestEstimate_Normalization(t *testing.T) {
	e := NewEstimator(config.DominanceBoth)

	tests := []struct {
		name     string
		iris     tracking.Point
		wantX    float64
		wantY    float64
	}{
		{"center", tracking.Point{X: 320, Y: 240}, 0, 0},
		{"top left", tracking.Point{X: 0, Y: 0}, -1, -1},
		{"bottom right", tracking.Point{X: 640, Y: 480}, 1, 1},
		{"quarter", tracking.Point{X: 160, Y: 120}, -0.5, -0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := tracking.EyeObservation{LeftIris: &tt.iris, FaceDetected: true}
			v, ok := e.Estimate(obs, 640, 480)
			if !ok {
				t.Fatal("expected a gaze estimate")
			}
			if math.Abs(v.X-tt.wantX) > 1e-9 || math.Abs(v.Y-tt.wantY) > 1e-9 {
				t.Errorf("gaze = (%v,%v), want (%v,%v)", v.X, v.Y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestEstimate_OutputAlwaysBounded(t *testing.T) {
	e := NewEstimator(config.DominanceBoth)

	// Iris positions outside the frame must still clamp into [-1,1].
	iris := tracking.Point{X: 900, Y: -50}
	obs := tracking.EyeObservation{RightIris: &iris, FaceDetected: true}
	v, ok := e.Estimate(obs, 640, 480)
	if !ok {
		t.Fatal("expected a gaze estimate")
	}
	if v.X < -1 || v.X > 1 || v.Y < -1 || v.Y > 1 {
		t.Errorf("gaze (%v,%v) out of [-1,1]", v.X, v.Y)
	}
}

func TestEstimate_AbsentIsAbsent(t *testing.T) {
	e := NewEstimator(config.DominanceBoth)

	_, ok := e.Estimate(tracking.NoFace(), 640, 480)
	if ok {
		t.Error("no iris data must yield no estimate, not a default vector")
	}
}

func TestEstimate_Dominance(t *testing.T) {
	left := tracking.Point{X: 160, Y: 240}  // gaze x -0.5
	right := tracking.Point{X: 480, Y: 240} // gaze x +0.5
	obs := tracking.EyeObservation{LeftIris: &left, RightIris: &right, FaceDetected: true}

	tests := []struct {
		dominance config.Dominance
		wantX     float64
	}{
		{config.DominanceLeft, -0.5},
		{config.DominanceRight, 0.5},
		{config.DominanceBoth, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.dominance), func(t *testing.T) {
			v, ok := NewEstimator(tt.dominance).Estimate(obs, 640, 480)
			if !ok {
				t.Fatal("expected a gaze estimate")
			}
			if math.Abs(v.X-tt.wantX) > 1e-9 {
				t.Errorf("gaze x = %v, want %v", v.X, tt.wantX)
			}
		})
	}
}

func TestEstimate_SingleEyeIgnoresDominance(t *testing.T) {
	right := tracking.Point{X: 480, Y: 240}
	obs := tracking.EyeObservation{RightIris: &right, FaceDetected: true}

	// Left-dominant with only the right eye visible still estimates.
	v, ok := NewEstimator(config.DominanceLeft).Estimate(obs, 640, 480)
	if !ok {
		t.Fatal("expected a gaze estimate from the only visible eye")
	}
	if math.Abs(v.X-0.5) > 1e-9 {
		t.Errorf("gaze x = %v, want 0.5", v.X)
	}
}
