package engine

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/Hitanshparikh/Eyegle-Software/internal/config"
	"github.com/Hitanshparikh/Eyegle-Software/pkg/calibration"
	"github.com/Hitanshparikh/Eyegle-Software/pkg/camera"
	"github.com/Hitanshparikh/Eyegle-Software/pkg/gaze"
	"github.com/Hitanshparikh/Eyegle-Software/pkg/tracking"
)

const (
	testFrameW = 640
	testFrameH = 480
)

// scriptedExtractor replays a fixed sequence of observations, one per
// frame, then falls back to a steady observation (or no face at all).
type scriptedExtractor struct {
	mu     sync.Mutex
	script []tracking.EyeObservation
	steady *tracking.EyeObservation
}

func (s *scriptedExtractor) Extract(camera.Frame) (tracking.EyeObservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.script) > 0 {
		obs := s.script[0]
		s.script = s.script[1:]
		return obs, nil
	}
	if s.steady != nil {
		return *s.steady, nil
	}
	return tracking.NoFace(), nil
}

func (s *scriptedExtractor) Name() string { return "scripted" }

func (s *scriptedExtractor) Close() error { return nil }

func (s *scriptedExtractor) setScript(obs []tracking.EyeObservation) {
	s.mu.Lock()
	s.script = obs
	s.mu.Unlock()
}

func (s *scriptedExtractor) setSteady(obs tracking.EyeObservation) {
	s.mu.Lock()
	s.steady = &obs
	s.mu.Unlock()
}

// obsForGaze builds an observation whose normalized gaze comes out to
// the given vector, by placing both irises at the matching frame pixel.
func obsForGaze(gx, gy float64) tracking.EyeObservation {
	p := tracking.Point{
		X: (gx + 1) / 2 * testFrameW,
		Y: (gy + 1) / 2 * testFrameH,
	}
	return tracking.EyeObservation{
		LeftIris:       &p,
		RightIris:      &p,
		LeftOpenRatio:  tracking.NominalOpenRatio,
		RightOpenRatio: tracking.NominalOpenRatio,
		FaceDetected:   true,
		Confidence:     0.9,
	}
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.ScreenWidth = 1000
	cfg.ScreenHeight = 800
	cfg.CameraFPS = 250
	cfg.DwellPerTarget = 0 // One valid observation completes a target.
	cfg.EMAAlpha = 1
	cfg.KalmanEnabled = false
	cfg.DeadZoneRadius = 0
	return cfg
}

func newTestEngine(t *testing.T, cfg config.Config) (*Engine, *scriptedExtractor) {
	t.Helper()

	source := camera.NewMockSource(camera.Frame{
		JPEG:      []byte{0xff, 0xd8},
		Width:     testFrameW,
		Height:    testFrameH,
		Timestamp: time.Now(),
	})
	extractor := &scriptedExtractor{}

	profiles, err := gaze.NewProfileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewProfileStore: %v", err)
	}

	e := New(cfg, source, extractor, profiles, nil)
	if err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(e.Stop)
	return e, extractor
}

// waitFor polls until the condition holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestEngine_UncalibratedCursorUsesDefaultTransform(t *testing.T) {
	cfg := testConfig()
	e, extractor := newTestEngine(t, cfg)

	// Gaze straight ahead maps to the screen center pre-calibration.
	extractor.setSteady(obsForGaze(0, 0))

	waitFor(t, "cursor update", func() bool {
		return e.Status().Cursor != nil
	})

	s := e.Status()
	if s.Calibrated {
		t.Fatal("engine must start uncalibrated")
	}
	if math.Abs(s.Cursor.X-500) > 1 || math.Abs(s.Cursor.Y-400) > 1 {
		t.Fatalf("cursor = (%.1f, %.1f), want near (500, 400)", s.Cursor.X, s.Cursor.Y)
	}
}

func TestEngine_EndToEndCalibration(t *testing.T) {
	cfg := testConfig()
	e, extractor := newTestEngine(t, cfg)

	if err := e.StartCalibration(); err != nil {
		t.Fatalf("StartCalibration: %v", err)
	}
	waitFor(t, "calibration to leave idle", func() bool {
		return e.Status().CalibrationState != calibration.StateIdle
	})

	// Script one observation per target, in target order, each with the
	// gaze a perfectly proportional eye would produce for that point.
	targets := calibration.GenerateTargets(cfg.CalibrationPoints,
		cfg.ScreenWidth, cfg.ScreenHeight, cfg.GridMargin, cfg.DwellPerTarget)
	script := make([]tracking.EyeObservation, 0, len(targets))
	for _, target := range targets {
		gx := 2*target.Position.X/float64(cfg.ScreenWidth) - 1
		gy := 2*target.Position.Y/float64(cfg.ScreenHeight) - 1
		script = append(script, obsForGaze(gx, gy))
	}
	extractor.setScript(script)

	waitFor(t, "calibration to complete", func() bool {
		return e.Status().Calibrated
	})

	s := e.Status()
	if s.CalibrationState != calibration.StateComplete {
		t.Fatalf("CalibrationState = %q, want %q", s.CalibrationState, calibration.StateComplete)
	}
	if s.TargetsComplete != len(targets) {
		t.Fatalf("TargetsComplete = %d, want %d", s.TargetsComplete, len(targets))
	}
	if s.Quality != 1 {
		t.Fatalf("Quality = %v, want 1", s.Quality)
	}

	// The recovered transform still maps straight-ahead gaze to the
	// screen center.
	extractor.setSteady(obsForGaze(0, 0))
	waitFor(t, "post-calibration cursor", func() bool {
		c := e.Status().Cursor
		return c != nil && c.Calibrated
	})

	c := e.Status().Cursor
	if math.Abs(c.X-500) > 2 || math.Abs(c.Y-400) > 2 {
		t.Fatalf("cursor = (%.1f, %.1f), want near (500, 400)", c.X, c.Y)
	}

	// A completed run persists a profile.
	names, err := e.Profiles().List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 1 {
		t.Fatalf("profiles = %v, want exactly one", names)
	}
}

func TestEngine_StartCalibrationRejectsConcurrentRuns(t *testing.T) {
	cfg := testConfig()
	e, _ := newTestEngine(t, cfg)

	if err := e.StartCalibration(); err != nil {
		t.Fatalf("StartCalibration: %v", err)
	}
	waitFor(t, "calibration to leave idle", func() bool {
		return e.Status().CalibrationState != calibration.StateIdle
	})

	if err := e.StartCalibration(); err == nil {
		t.Fatal("second StartCalibration should fail while one is active")
	}
}

func TestEngine_ResetAbandonsCalibration(t *testing.T) {
	cfg := testConfig()
	e, extractor := newTestEngine(t, cfg)

	if err := e.StartCalibration(); err != nil {
		t.Fatalf("StartCalibration: %v", err)
	}
	waitFor(t, "calibration to leave idle", func() bool {
		return e.Status().CalibrationState != calibration.StateIdle
	})

	e.ResetCalibration()
	// Frames must keep flowing for the processing loop to pick the
	// request up alongside them.
	extractor.setSteady(obsForGaze(0, 0))

	waitFor(t, "calibration to reset", func() bool {
		return e.Status().CalibrationState == calibration.StateIdle
	})
	if e.Status().Calibrated {
		t.Fatal("an abandoned run must not calibrate the engine")
	}
}

func TestEngine_SaveAndLoadProfile(t *testing.T) {
	cfg := testConfig()
	e, extractor := newTestEngine(t, cfg)

	if err := e.SaveProfile("alice"); err == nil {
		t.Fatal("SaveProfile should fail before calibration")
	}

	if err := e.StartCalibration(); err != nil {
		t.Fatalf("StartCalibration: %v", err)
	}
	waitFor(t, "calibration to leave idle", func() bool {
		return e.Status().CalibrationState != calibration.StateIdle
	})

	targets := calibration.GenerateTargets(cfg.CalibrationPoints,
		cfg.ScreenWidth, cfg.ScreenHeight, cfg.GridMargin, cfg.DwellPerTarget)
	script := make([]tracking.EyeObservation, 0, len(targets))
	for _, target := range targets {
		gx := 2*target.Position.X/float64(cfg.ScreenWidth) - 1
		gy := 2*target.Position.Y/float64(cfg.ScreenHeight) - 1
		script = append(script, obsForGaze(gx, gy))
	}
	extractor.setScript(script)
	waitFor(t, "calibration to complete", func() bool {
		return e.Status().Calibrated
	})

	if err := e.SaveProfile("alice"); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	if err := e.LoadProfile("alice"); err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if err := e.LoadProfile("nobody"); err == nil {
		t.Fatal("LoadProfile of a missing profile should fail")
	}
}
