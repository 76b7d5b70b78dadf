package extract

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gocv.io/x/gocv"

	"github.com/Hitanshparikh/Eyegle-Software/pkg/camera"
	"github.com/Hitanshparikh/Eyegle-Software/pkg/tracking"
)

// Standard locations for the OpenCV haarcascade data files, searched in
// order. EYEGLE_CASCADE_DIR overrides the search.
var cascadeDirs = []string{
	"models",
	"/usr/share/opencv4/haarcascades",
	"/usr/local/share/opencv4/haarcascades",
}

const (
	faceCascadeFile = "haarcascade_frontalface_default.xml"
	eyeCascadeFile  = "haarcascade_eye.xml"
)

// Haar is the cascade-classifier fallback backend. It finds a face, then
// searches the upper half of the face region for eyes. Cascades report
// no eye contours, so the opening ratio is the nominal open value.
type Haar struct {
	faceCascade gocv.CascadeClassifier
	eyeCascade  gocv.CascadeClassifier
	mu          sync.Mutex
}

// NewHaar loads the face and eye cascades, failing if neither data file
// can be located.
func NewHaar() (*Haar, error) {
	dir, err := findCascadeDir()
	if err != nil {
		return nil, err
	}

	h := &Haar{
		faceCascade: gocv.NewCascadeClassifier(),
		eyeCascade:  gocv.NewCascadeClassifier(),
	}
	if !h.faceCascade.Load(filepath.Join(dir, faceCascadeFile)) {
		h.Close()
		return nil, fmt.Errorf("load face cascade from %s", dir)
	}
	if !h.eyeCascade.Load(filepath.Join(dir, eyeCascadeFile)) {
		h.Close()
		return nil, fmt.Errorf("load eye cascade from %s", dir)
	}
	return h, nil
}

func findCascadeDir() (string, error) {
	dirs := cascadeDirs
	if env := os.Getenv("EYEGLE_CASCADE_DIR"); env != "" {
		dirs = append([]string{env}, dirs...)
	}
	for _, dir := range dirs {
		if _, err := os.Stat(filepath.Join(dir, faceCascadeFile)); err == nil {
			return dir, nil
		}
	}
	return "", fmt.Errorf("no cascade data found in %v", dirs)
}

// Name identifies the backend.
func (h *Haar) Name() string { return "haar" }

// Extract detects a face and locates eyes within it.
func (h *Haar) Extract(frame camera.Frame) (tracking.EyeObservation, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	img, err := gocv.IMDecode(frame.JPEG, gocv.IMReadGrayScale)
	if err != nil {
		return tracking.EyeObservation{}, fmt.Errorf("decode image: %w", err)
	}
	defer img.Close()

	if img.Empty() {
		return tracking.EyeObservation{}, fmt.Errorf("empty image")
	}

	rects := h.faceCascade.DetectMultiScale(img)
	if len(rects) == 0 {
		return tracking.NoFace(), nil
	}

	// Cascades report no score, so selection is driven by area.
	imgW, imgH := float64(img.Cols()), float64(img.Rows())
	candidates := make([]face, 0, len(rects))
	for _, r := range rects {
		candidates = append(candidates, face{
			x:          float64(r.Min.X) / imgW,
			y:          float64(r.Min.Y) / imgH,
			w:          float64(r.Dx()) / imgW,
			h:          float64(r.Dy()) / imgH,
			confidence: 0.6,
		})
	}
	best := selectBest(candidates)
	faceRect := image.Rect(
		int(best.x*imgW), int(best.y*imgH),
		int((best.x+best.w)*imgW), int((best.y+best.h)*imgH),
	)

	obs := tracking.EyeObservation{
		LeftOpenRatio:  tracking.NominalOpenRatio,
		RightOpenRatio: tracking.NominalOpenRatio,
		FaceDetected:   true,
		Confidence:     0.6,
	}

	// Eyes live in the upper half of the face region.
	upper := img.Region(image.Rect(faceRect.Min.X, faceRect.Min.Y, faceRect.Max.X, faceRect.Min.Y+faceRect.Dy()/2))
	defer upper.Close()

	eyes := h.eyeCascade.DetectMultiScale(upper)
	sort.Slice(eyes, func(i, j int) bool { return eyes[i].Min.X < eyes[j].Min.X })

	switch {
	case len(eyes) >= 2:
		left := eyes[0]
		right := eyes[len(eyes)-1]
		obs.LeftIris = &tracking.Point{
			X: float64(faceRect.Min.X + left.Min.X + left.Dx()/2),
			Y: float64(faceRect.Min.Y + left.Min.Y + left.Dy()/2),
		}
		obs.RightIris = &tracking.Point{
			X: float64(faceRect.Min.X + right.Min.X + right.Dx()/2),
			Y: float64(faceRect.Min.Y + right.Min.Y + right.Dy()/2),
		}
	case len(eyes) == 1:
		// One eye found; estimate the other a third of a face away.
		eye := eyes[0]
		cx := float64(faceRect.Min.X + eye.Min.X + eye.Dx()/2)
		cy := float64(faceRect.Min.Y + eye.Min.Y + eye.Dy()/2)
		obs.LeftIris = &tracking.Point{X: cx, Y: cy}
		obs.RightIris = &tracking.Point{X: cx + float64(faceRect.Dx())/3, Y: cy}
	}

	return obs, nil
}

// Close releases the cascade classifiers.
func (h *Haar) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.faceCascade.Close()
	h.eyeCascade.Close()
	return nil
}
