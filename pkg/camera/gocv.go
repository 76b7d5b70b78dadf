package camera

import (
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/Hitanshparikh/Eyegle-Software/internal/log"
)

// Config holds capture device settings.
type Config struct {
	Device int  // Capture device ID
	Width  int  // Requested frame width
	Height int  // Requested frame height
	FPS    int  // Target capture rate
	Mirror bool // Flip horizontally for a mirror view
}

// DefaultConfig returns the recommended capture settings.
func DefaultConfig() Config {
	return Config{
		Device: 0,
		Width:  640,
		Height: 480,
		FPS:    30,
		Mirror: true,
	}
}

// Webcam is a FrameSource backed by a gocv VideoCapture device.
type Webcam struct {
	cap    *gocv.VideoCapture
	config Config

	mu     sync.Mutex
	mat    gocv.Mat
	closed bool
}

// OpenWebcam opens the capture device and applies the requested settings.
// The device may negotiate different values; the actual dimensions are
// reported on each frame.
func OpenWebcam(cfg Config) (*Webcam, error) {
	cap, err := gocv.OpenVideoCapture(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("open capture device %d: %w", cfg.Device, err)
	}

	cap.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	cap.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	cap.Set(gocv.VideoCaptureFPS, float64(cfg.FPS))
	cap.Set(gocv.VideoCaptureBufferSize, 1)

	log.Info("camera opened",
		"device", cfg.Device,
		"width", cap.Get(gocv.VideoCaptureFrameWidth),
		"height", cap.Get(gocv.VideoCaptureFrameHeight),
		"fps", cap.Get(gocv.VideoCaptureFPS))

	return &Webcam{
		cap:    cap,
		config: cfg,
		mat:    gocv.NewMat(),
	}, nil
}

// Read captures and JPEG-encodes the next frame.
func (w *Webcam) Read() (Frame, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return Frame{}, fmt.Errorf("camera: device closed")
	}

	if ok := w.cap.Read(&w.mat); !ok || w.mat.Empty() {
		return Frame{}, fmt.Errorf("camera: frame read failed")
	}

	if w.config.Mirror {
		gocv.Flip(w.mat, &w.mat, 1)
	}

	buf, err := gocv.IMEncode(".jpg", w.mat)
	if err != nil {
		return Frame{}, fmt.Errorf("camera: encode frame: %w", err)
	}
	defer buf.Close()

	jpeg := make([]byte, len(buf.GetBytes()))
	copy(jpeg, buf.GetBytes())

	return Frame{
		JPEG:      jpeg,
		Width:     w.mat.Cols(),
		Height:    w.mat.Rows(),
		Timestamp: time.Now(),
	}, nil
}

// Close releases the capture device. Safe to call more than once.
func (w *Webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	w.mat.Close()
	return w.cap.Close()
}
