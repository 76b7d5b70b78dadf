// Package config provides the validated runtime configuration for Eyegle.
// All values are typed fields with documented defaults; overrides come from
// EYEGLE_* environment variables, optionally seeded from a .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Dominance selects which eye drives the gaze estimate.
type Dominance string

const (
	DominanceLeft  Dominance = "left"
	DominanceRight Dominance = "right"
	DominanceBoth  Dominance = "both"
)

// Config holds all tunable parameters for the Eyegle pipeline.
type Config struct {
	// Screen
	ScreenWidth  int // Screen width in pixels (required)
	ScreenHeight int // Screen height in pixels (required)

	// Calibration
	CalibrationPoints int           // 5 or 9
	DwellPerTarget    time.Duration // How long each target must be gazed at
	GridMargin        float64       // Target margin as a fraction of screen size

	// Smoothing
	EMAAlpha       float64 // EMA factor in (0,1]; lower = smoother
	KalmanEnabled  bool    // Enable the Kalman stage
	DeadZoneRadius float64 // Dead zone radius in pixels
	AccelExponent  float64 // Acceleration curve exponent

	// Expression detection
	BlinkThresholdFraction float64       // Closed when ratio < baseline * fraction
	LongBlinkDuration      time.Duration // Combined blink held this long is "long"
	BlinkCooldown          time.Duration // Suppress new classifications after an event
	ShortBlinkCutoff       time.Duration // Single-eye closures longer than this are noise
	BaselineSamples        int           // Valid observations used to establish the baseline

	// Safety
	MaxClicksPerSecond int           // Sliding 1-second click window size
	ClickCooldown      time.Duration // Minimum interval between clicks
	ScrollCooldown     time.Duration // Minimum interval between scrolls
	KeyCooldown        time.Duration // Minimum interval between key actions
	AutoPauseNoFace    time.Duration // Auto-pause after no face for this long

	// Gaze
	EyeDominance Dominance

	// Camera
	CameraDevice int // Capture device ID
	CameraWidth  int // Requested frame width
	CameraHeight int // Requested frame height
	CameraFPS    int // Target capture rate

	// Extraction
	Extractor      string // "auto", "yunet", "haar", or "heuristic"
	YuNetModelPath string // Path to the YuNet ONNX model

	// Persistence
	ProfilesDir string // Directory for calibration profiles

	// Telemetry
	WebPort  string // Dashboard/API port
	LogLevel string // debug, info, warn, error
}

// Default returns the recommended configuration. ScreenWidth and
// ScreenHeight have no sensible default and must be set by the caller
// or the environment.
func Default() Config {
	return Config{
		CalibrationPoints: 9,
		DwellPerTarget:    2 * time.Second,
		GridMargin:        0.1,

		EMAAlpha:       0.3,
		KalmanEnabled:  true,
		DeadZoneRadius: 15,
		AccelExponent:  1.5,

		BlinkThresholdFraction: 0.2,
		LongBlinkDuration:      500 * time.Millisecond,
		BlinkCooldown:          200 * time.Millisecond,
		ShortBlinkCutoff:       300 * time.Millisecond,
		BaselineSamples:        30,

		MaxClicksPerSecond: 3,
		ClickCooldown:      200 * time.Millisecond,
		ScrollCooldown:     100 * time.Millisecond,
		KeyCooldown:        300 * time.Millisecond,
		AutoPauseNoFace:    2 * time.Second,

		EyeDominance: DominanceBoth,

		CameraDevice: 0,
		CameraWidth:  640,
		CameraHeight: 480,
		CameraFPS:    30,

		Extractor:      "auto",
		YuNetModelPath: "models/face_detection_yunet.onnx",

		ProfilesDir: "profiles",
		WebPort:     "8742",
		LogLevel:    "info",
	}
}

// Load builds a Config from defaults overlaid with EYEGLE_* environment
// variables and validates the result.
func Load() (Config, error) {
	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv builds a Config from defaults overlaid with EYEGLE_* environment
// variables, without validating. Callers that layer further overrides on
// top (command-line flags) call Validate once everything is applied.
// A .env file in the working directory is loaded first if present,
// without overriding variables already set in the environment.
func FromEnv() Config {
	// Missing .env is fine; real env vars win either way.
	_ = godotenv.Load()

	cfg := Default()

	intVar(&cfg.ScreenWidth, "EYEGLE_SCREEN_WIDTH")
	intVar(&cfg.ScreenHeight, "EYEGLE_SCREEN_HEIGHT")
	intVar(&cfg.CalibrationPoints, "EYEGLE_CALIBRATION_POINTS")
	durationVar(&cfg.DwellPerTarget, "EYEGLE_DWELL_PER_TARGET")
	floatVar(&cfg.GridMargin, "EYEGLE_GRID_MARGIN")

	floatVar(&cfg.EMAAlpha, "EYEGLE_EMA_ALPHA")
	boolVar(&cfg.KalmanEnabled, "EYEGLE_KALMAN_ENABLED")
	floatVar(&cfg.DeadZoneRadius, "EYEGLE_DEAD_ZONE_RADIUS")
	floatVar(&cfg.AccelExponent, "EYEGLE_ACCEL_EXPONENT")

	floatVar(&cfg.BlinkThresholdFraction, "EYEGLE_BLINK_THRESHOLD")
	durationVar(&cfg.LongBlinkDuration, "EYEGLE_LONG_BLINK_DURATION")
	durationVar(&cfg.BlinkCooldown, "EYEGLE_BLINK_COOLDOWN")
	durationVar(&cfg.ShortBlinkCutoff, "EYEGLE_SHORT_BLINK_CUTOFF")
	intVar(&cfg.BaselineSamples, "EYEGLE_BASELINE_SAMPLES")

	intVar(&cfg.MaxClicksPerSecond, "EYEGLE_MAX_CLICKS_PER_SECOND")
	durationVar(&cfg.ClickCooldown, "EYEGLE_CLICK_COOLDOWN")
	durationVar(&cfg.ScrollCooldown, "EYEGLE_SCROLL_COOLDOWN")
	durationVar(&cfg.KeyCooldown, "EYEGLE_KEY_COOLDOWN")
	durationVar(&cfg.AutoPauseNoFace, "EYEGLE_AUTO_PAUSE_NO_FACE")

	if v := os.Getenv("EYEGLE_EYE_DOMINANCE"); v != "" {
		cfg.EyeDominance = Dominance(v)
	}

	intVar(&cfg.CameraDevice, "EYEGLE_CAMERA_DEVICE")
	intVar(&cfg.CameraWidth, "EYEGLE_CAMERA_WIDTH")
	intVar(&cfg.CameraHeight, "EYEGLE_CAMERA_HEIGHT")
	intVar(&cfg.CameraFPS, "EYEGLE_CAMERA_FPS")

	stringVar(&cfg.Extractor, "EYEGLE_EXTRACTOR")
	stringVar(&cfg.YuNetModelPath, "EYEGLE_YUNET_MODEL")
	stringVar(&cfg.ProfilesDir, "EYEGLE_PROFILES_DIR")
	stringVar(&cfg.WebPort, "EYEGLE_WEB_PORT")
	stringVar(&cfg.LogLevel, "EYEGLE_LOG_LEVEL")

	return cfg
}

// Validate checks that the configuration is internally consistent.
func (c Config) Validate() error {
	if c.ScreenWidth <= 0 || c.ScreenHeight <= 0 {
		return fmt.Errorf("config: screen dimensions are required (got %dx%d)", c.ScreenWidth, c.ScreenHeight)
	}
	if c.CalibrationPoints != 5 && c.CalibrationPoints != 9 {
		return fmt.Errorf("config: calibration points must be 5 or 9, got %d", c.CalibrationPoints)
	}
	if c.DwellPerTarget <= 0 {
		return fmt.Errorf("config: dwell per target must be positive, got %v", c.DwellPerTarget)
	}
	if c.EMAAlpha <= 0 || c.EMAAlpha > 1 {
		return fmt.Errorf("config: EMA alpha must be in (0,1], got %v", c.EMAAlpha)
	}
	if c.DeadZoneRadius < 0 {
		return fmt.Errorf("config: dead zone radius must be non-negative, got %v", c.DeadZoneRadius)
	}
	if c.BlinkThresholdFraction <= 0 || c.BlinkThresholdFraction >= 1 {
		return fmt.Errorf("config: blink threshold fraction must be in (0,1), got %v", c.BlinkThresholdFraction)
	}
	if c.BaselineSamples <= 0 {
		return fmt.Errorf("config: baseline samples must be positive, got %d", c.BaselineSamples)
	}
	if c.MaxClicksPerSecond <= 0 {
		return fmt.Errorf("config: max clicks per second must be positive, got %d", c.MaxClicksPerSecond)
	}
	switch c.EyeDominance {
	case DominanceLeft, DominanceRight, DominanceBoth:
	default:
		return fmt.Errorf("config: unknown eye dominance %q", c.EyeDominance)
	}
	switch c.Extractor {
	case "auto", "yunet", "haar", "heuristic":
	default:
		return fmt.Errorf("config: unknown extractor %q", c.Extractor)
	}
	return nil
}

func stringVar(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func intVar(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func floatVar(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func boolVar(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func durationVar(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
