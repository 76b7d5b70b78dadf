package gaze

import (
	"errors"
	"math"
	"testing"
)

// applyAffine maps a gaze vector through a known ground-truth matrix.
func applyAffine(m [2][3]float64, g Vector) ScreenPoint {
	return ScreenPoint{
		X: m[0][0]*g.X + m[0][1]*g.Y + m[0][2],
		Y: m[1][0]*g.X + m[1][1]*g.Y + m[1][2],
	}
}

func TestSolve_InsufficientPoints(t *testing.T) {
	samples := []Sample{
		{Screen: ScreenPoint{X: 0, Y: 0}, Gaze: Vector{X: -1, Y: -1}},
		{Screen: ScreenPoint{X: 100, Y: 0}, Gaze: Vector{X: 1, Y: -1}},
		{Screen: ScreenPoint{X: 0, Y: 100}, Gaze: Vector{X: -1, Y: 1}},
	}

	_, err := Solve(samples)
	if !errors.Is(err, ErrInsufficientPoints) {
		t.Errorf("expected ErrInsufficientPoints, got %v", err)
	}
}

func TestSolve_SingularSystem(t *testing.T) {
	// All gaze points collinear on x = y: the fit is degenerate.
	var samples []Sample
	for i := 0; i < 6; i++ {
		v := float64(i) / 5
		samples = append(samples, Sample{
			Screen: ScreenPoint{X: v * 100, Y: v * 100},
			Gaze:   Vector{X: v, Y: v},
		})
	}

	_, err := Solve(samples)
	if !errors.Is(err, ErrSingularSystem) {
		t.Errorf("expected ErrSingularSystem, got %v", err)
	}
}

func TestSolve_ExactRecovery(t *testing.T) {
	truth := [2][3]float64{
		{800, 30, 960},
		{-20, 500, 540},
	}

	gazes := []Vector{
		{X: -0.8, Y: -0.8}, {X: 0.8, Y: -0.8},
		{X: -0.8, Y: 0.8}, {X: 0.8, Y: 0.8},
	}
	var samples []Sample
	for _, g := range gazes {
		samples = append(samples, Sample{Screen: applyAffine(truth, g), Gaze: g})
	}

	tf, err := Solve(samples)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}

	// Re-evaluating each training point must land within 1e-3 relative.
	for _, s := range samples {
		got := tf.Apply(s.Gaze, 1920, 1080)
		if relErr(got.X, s.Screen.X) > 1e-3 || relErr(got.Y, s.Screen.Y) > 1e-3 {
			t.Errorf("gaze %+v -> (%v,%v), want (%v,%v)", s.Gaze, got.X, got.Y, s.Screen.X, s.Screen.Y)
		}
	}
}

func TestSolve_NinePointGrid(t *testing.T) {
	truth := [2][3]float64{
		{700, 0, 960},
		{0, 400, 540},
	}

	var samples []Sample
	for _, gy := range []float64{-0.7, 0, 0.7} {
		for _, gx := range []float64{-0.7, 0, 0.7} {
			g := Vector{X: gx, Y: gy}
			samples = append(samples, Sample{Screen: applyAffine(truth, g), Gaze: g})
		}
	}

	tf, err := Solve(samples)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(tf.M[i][j]-truth[i][j]) > 1e-6 {
				t.Errorf("M[%d][%d] = %v, want %v", i, j, tf.M[i][j], truth[i][j])
			}
		}
	}
}

func TestDefaultTransform_MapsCenterAndCorners(t *testing.T) {
	tf := DefaultTransform(1920, 1080)

	center := tf.Apply(Vector{}, 1920, 1080)
	if center.X != 960 || center.Y != 540 {
		t.Errorf("gaze (0,0) -> (%v,%v), want screen center", center.X, center.Y)
	}

	corner := tf.Apply(Vector{X: -1, Y: -1}, 1920, 1080)
	if corner.X != 0 || corner.Y != 0 {
		t.Errorf("gaze (-1,-1) -> (%v,%v), want origin", corner.X, corner.Y)
	}
}

func TestApply_ClampsToScreen(t *testing.T) {
	// A transform can overshoot; the output must stay on screen.
	wild := Transform{M: [2][3]float64{{5000, 0, 0}, {0, 5000, 0}}}
	p := wild.Apply(Vector{X: 1, Y: 1}, 1920, 1080)
	if p.X != 1920 || p.Y != 1080 {
		t.Errorf("expected clamp to (1920,1080), got (%v,%v)", p.X, p.Y)
	}
}

func TestQuality(t *testing.T) {
	if q := Quality(0); q != 0 {
		t.Errorf("Quality(0) = %v", q)
	}
	if q := Quality(9); q != 1 {
		t.Errorf("Quality(9) = %v", q)
	}
	if q := Quality(5); math.Abs(q-5.0/9.0) > 1e-9 {
		t.Errorf("Quality(5) = %v", q)
	}
}

func relErr(got, want float64) float64 {
	if math.Abs(want) < 1e-9 {
		return math.Abs(got - want)
	}
	return math.Abs(got-want) / math.Abs(want)
}
