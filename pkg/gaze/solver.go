package gaze

import (
	"errors"
	"fmt"
	"math"

	"github.com/Hitanshparikh/Eyegle-Software/pkg/tracking"
)

// Calibration error taxonomy. A failed solve never mutates any
// externally visible transform; the caller keeps whatever it had.
var (
	ErrInsufficientPoints = errors.New("gaze: calibration requires at least 4 samples")
	ErrSingularSystem     = errors.New("gaze: calibration system is singular")
	ErrDimensionMismatch  = errors.New("gaze: profile screen dimensions do not match")
	ErrInvalidProfileName = errors.New("gaze: invalid profile name")
)

// MinCalibrationSamples is the smallest correspondence set an affine fit
// accepts.
const MinCalibrationSamples = 4

// Sample is one calibration correspondence: where the user was told to
// look, the gaze vector measured at that moment, and the source iris
// positions for diagnostics.
type Sample struct {
	Screen    ScreenPoint
	Gaze      Vector
	LeftIris  *tracking.Point
	RightIris *tracking.Point
}

// Solve fits the 2x3 affine transform minimizing the squared residual
// between predicted and true screen coordinates, independently per
// screen axis. The design matrix rows are [gx, gy, 1].
func Solve(samples []Sample) (Transform, error) {
	if len(samples) < MinCalibrationSamples {
		return Transform{}, fmt.Errorf("%w: got %d", ErrInsufficientPoints, len(samples))
	}

	// Normal equations: (GᵀG) m = Gᵀs, with G the n x 3 design matrix.
	// GᵀG is 3x3 and shared between the two axes.
	var gtg [3][3]float64
	var gtx, gty [3]float64

	for _, s := range samples {
		row := [3]float64{s.Gaze.X, s.Gaze.Y, 1}
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				gtg[i][j] += row[i] * row[j]
			}
			gtx[i] += row[i] * s.Screen.X
			gty[i] += row[i] * s.Screen.Y
		}
	}

	mx, err := solve3(gtg, gtx)
	if err != nil {
		return Transform{}, err
	}
	my, err := solve3(gtg, gty)
	if err != nil {
		return Transform{}, err
	}

	return Transform{M: [2][3]float64{mx, my}}, nil
}

// solve3 solves a 3x3 linear system by Gaussian elimination with partial
// pivoting. A vanishing pivot means the samples are degenerate
// (collinear or coincident gaze points).
func solve3(a [3][3]float64, b [3]float64) ([3]float64, error) {
	const eps = 1e-10

	for col := 0; col < 3; col++ {
		// Pivot on the largest remaining entry in this column.
		pivot := col
		for r := col + 1; r < 3; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < eps {
			return [3]float64{}, ErrSingularSystem
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for r := col + 1; r < 3; r++ {
			factor := a[r][col] / a[col][col]
			for c := col; c < 3; c++ {
				a[r][c] -= factor * a[col][c]
			}
			b[r] -= factor * b[col]
		}
	}

	var x [3]float64
	for r := 2; r >= 0; r-- {
		x[r] = b[r]
		for c := r + 1; c < 3; c++ {
			x[r] -= a[r][c] * x[c]
		}
		x[r] /= a[r][r]
	}
	return x, nil
}

// Quality estimates calibration quality in [0,1] from the number of
// samples used, saturating at a full 9-point grid.
func Quality(points int) float64 {
	if points <= 0 {
		return 0
	}
	return math.Min(float64(points)/9.0, 1.0)
}
