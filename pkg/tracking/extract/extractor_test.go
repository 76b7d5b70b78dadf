package extract

import (
	"testing"

	"github.com/Hitanshparikh/Eyegle-Software/pkg/camera"
)

func TestSelectBest_Empty(t *testing.T) {
	if selectBest(nil) != nil {
		t.Error("expected nil for no faces")
	}
}

func TestSelectBest_Single(t *testing.T) {
	faces := []face{{x: 0.1, y: 0.1, w: 0.2, h: 0.2, confidence: 0.5}}
	best := selectBest(faces)
	if best == nil || best.confidence != 0.5 {
		t.Errorf("expected the only face, got %+v", best)
	}
}

func TestSelectBest_PrefersConfidence(t *testing.T) {
	faces := []face{
		{w: 0.5, h: 0.5, confidence: 0.4}, // Big but uncertain
		{w: 0.2, h: 0.2, confidence: 0.95},
	}
	best := selectBest(faces)
	if best == nil || best.confidence != 0.95 {
		t.Errorf("expected the high-confidence face, got %+v", best)
	}
}

func TestHeuristic_ProportionalPlacement(t *testing.T) {
	h := NewHeuristic()
	obs, err := h.Extract(camera.Frame{Width: 640, Height: 480})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if !obs.FaceDetected {
		t.Error("heuristic must always report a face")
	}
	if !obs.HasBothIrises() {
		t.Fatal("heuristic must report both irises")
	}
	if obs.LeftIris.X != 640*0.35 || obs.LeftIris.Y != 480*0.45 {
		t.Errorf("left iris at (%v,%v)", obs.LeftIris.X, obs.LeftIris.Y)
	}
	if obs.RightIris.X != 640*0.65 {
		t.Errorf("right iris X = %v", obs.RightIris.X)
	}
	if obs.Confidence >= 0.5 {
		t.Errorf("heuristic confidence should be low, got %v", obs.Confidence)
	}
}

func TestNew_HeuristicBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = "heuristic"
	ex, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer ex.Close()

	if ex.Name() != "heuristic" {
		t.Errorf("backend = %q, want heuristic", ex.Name())
	}
}

func TestNew_AutoFallsBackWithoutModels(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ModelPath = "does/not/exist.onnx"
	t.Setenv("EYEGLE_CASCADE_DIR", t.TempDir())

	ex, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer ex.Close()

	// With no model and no cascades, auto must land on the heuristic.
	if ex.Name() == "yunet" {
		t.Errorf("expected fallback away from yunet")
	}
}
