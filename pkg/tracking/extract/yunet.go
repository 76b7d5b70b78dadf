package extract

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/Hitanshparikh/Eyegle-Software/pkg/camera"
	"github.com/Hitanshparikh/Eyegle-Software/pkg/tracking"
)

// YuNet extracts eye landmarks using OpenCV's FaceDetectorYN. The model
// reports five facial landmarks per face; the two eye-center landmarks
// serve as iris positions. YuNet does not expose eye contours, so the
// opening ratio is reported as the nominal open value.
type YuNet struct {
	detector gocv.FaceDetectorYN
	config   Config
	mu       sync.Mutex // Protects inference
}

// NewYuNet creates the YuNet backend. Fails if the model file is missing.
func NewYuNet(cfg Config) (*YuNet, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}

	detector := gocv.NewFaceDetectorYNWithParams(
		cfg.ModelPath,
		"", // No config file needed for ONNX
		image.Pt(cfg.InputWidth, cfg.InputHeight),
		float32(cfg.ConfidenceThresh),
		0.3,  // NMS threshold
		5000, // Top K
		int(gocv.NetBackendDefault),
		int(gocv.NetTargetCPU),
	)

	return &YuNet{detector: detector, config: cfg}, nil
}

// Name identifies the backend.
func (y *YuNet) Name() string { return "yunet" }

// Extract runs face detection and maps the best face's eye landmarks to
// an observation.
func (y *YuNet) Extract(frame camera.Frame) (tracking.EyeObservation, error) {
	y.mu.Lock()
	defer y.mu.Unlock()

	img, err := gocv.IMDecode(frame.JPEG, gocv.IMReadColor)
	if err != nil {
		return tracking.EyeObservation{}, fmt.Errorf("decode image: %w", err)
	}
	defer img.Close()

	if img.Empty() {
		return tracking.EyeObservation{}, fmt.Errorf("empty image")
	}

	y.detector.SetInputSize(image.Pt(img.Cols(), img.Rows()))

	faces := gocv.NewMat()
	defer faces.Close()
	y.detector.Detect(img, &faces)

	if faces.Rows() == 0 {
		return tracking.NoFace(), nil
	}

	// Pick the row with the highest score.
	best := 0
	bestScore := float32(0)
	for r := 0; r < faces.Rows(); r++ {
		// YuNet output (15 columns): 0-3 bbox, 4-13 five landmarks as
		// x,y pairs (right eye, left eye, nose, mouth corners), 14 score.
		if s := faces.GetFloatAt(r, 14); s > bestScore {
			bestScore = s
			best = r
		}
	}

	// Landmark columns 4,5 are the subject's right eye; 6,7 the left.
	rightIris := tracking.Point{
		X: float64(faces.GetFloatAt(best, 4)),
		Y: float64(faces.GetFloatAt(best, 5)),
	}
	leftIris := tracking.Point{
		X: float64(faces.GetFloatAt(best, 6)),
		Y: float64(faces.GetFloatAt(best, 7)),
	}

	return tracking.EyeObservation{
		LeftIris:       &leftIris,
		RightIris:      &rightIris,
		LeftOpenRatio:  tracking.NominalOpenRatio,
		RightOpenRatio: tracking.NominalOpenRatio,
		FaceDetected:   true,
		Confidence:     float64(bestScore),
	}, nil
}

// Close releases the detector resources.
func (y *YuNet) Close() error {
	y.mu.Lock()
	defer y.mu.Unlock()
	y.detector.Close()
	return nil
}
