// Eyegle - hands-free gaze-controlled cursor engine.
// Captures webcam frames, maps gaze to screen coordinates through a
// calibrated affine transform, and serves the control API plus a live
// telemetry stream.
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/Hitanshparikh/Eyegle-Software/internal/config"
	"github.com/Hitanshparikh/Eyegle-Software/internal/log"
	"github.com/Hitanshparikh/Eyegle-Software/pkg/camera"
	"github.com/Hitanshparikh/Eyegle-Software/pkg/engine"
	"github.com/Hitanshparikh/Eyegle-Software/pkg/gaze"
	"github.com/Hitanshparikh/Eyegle-Software/pkg/hub"
	"github.com/Hitanshparikh/Eyegle-Software/pkg/tracking/extract"
	"github.com/Hitanshparikh/Eyegle-Software/pkg/web"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Init("info")
		log.Error("configuration error", "error", err)
		os.Exit(1)
	}
	log.Init(cfg.LogLevel)

	source, err := camera.OpenWebcam(camera.Config{
		Device: cfg.CameraDevice,
		Width:  cfg.CameraWidth,
		Height: cfg.CameraHeight,
		FPS:    cfg.CameraFPS,
		Mirror: true,
	})
	if err != nil {
		log.Error("camera open failed", "device", cfg.CameraDevice, "error", err)
		os.Exit(1)
	}

	extractor, err := extract.New(extract.Config{
		Backend:          cfg.Extractor,
		ModelPath:        cfg.YuNetModelPath,
		ConfidenceThresh: 0.5,
		InputWidth:       320,
		InputHeight:      320,
	})
	if err != nil {
		log.Error("extractor init failed", "backend", cfg.Extractor, "error", err)
		source.Close()
		os.Exit(1)
	}

	profiles, err := gaze.NewProfileStore(cfg.ProfilesDir)
	if err != nil {
		log.Error("profile store init failed", "dir", cfg.ProfilesDir, "error", err)
		source.Close()
		os.Exit(1)
	}

	events := hub.New("events")
	eng := engine.New(cfg, source, extractor, profiles, events)
	if err := eng.Start(); err != nil {
		log.Error("engine start failed", "error", err)
		os.Exit(1)
	}

	server := web.NewServer(cfg.WebPort, eng, events)
	server.StartAsync()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Info("shutting down", "signal", s.String())
	case err := <-eng.AcquisitionDone():
		if err != nil {
			log.Error("camera acquisition failed", "error", err)
		}
	}

	if err := server.Shutdown(); err != nil {
		log.Warn("web shutdown error", "error", err)
	}
	eng.Stop()
}

// loadConfig builds the configuration from the environment with flag
// overrides for the values most often changed at the command line.
// Validation runs only after both layers are applied, so the flags can
// supply values (screen dimensions in particular) the environment omits.
func loadConfig() (config.Config, error) {
	cfg := config.FromEnv()

	screenW := flag.Int("screen-width", cfg.ScreenWidth, "Screen width in pixels")
	screenH := flag.Int("screen-height", cfg.ScreenHeight, "Screen height in pixels")
	device := flag.Int("camera", cfg.CameraDevice, "Capture device ID")
	backend := flag.String("extractor", cfg.Extractor, "Landmark backend: auto, yunet, haar, heuristic")
	points := flag.Int("points", cfg.CalibrationPoints, "Calibration points: 5 or 9")
	port := flag.String("port", cfg.WebPort, "Control API port")
	level := flag.String("log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	flag.Parse()

	cfg.ScreenWidth = *screenW
	cfg.ScreenHeight = *screenH
	cfg.CameraDevice = *device
	cfg.Extractor = *backend
	cfg.CalibrationPoints = *points
	cfg.WebPort = *port
	cfg.LogLevel = *level

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
