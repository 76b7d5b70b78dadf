package smoothing

import "github.com/Hitanshparikh/Eyegle-Software/pkg/gaze"

// Kalman default noise parameters.
const (
	defaultProcessNoise     = 0.01
	defaultMeasurementNoise = 0.1
	initialUncertainty      = 1000
)

// Kalman is a constant-velocity Kalman filter over cursor position.
// State is [x, y, vx, vy]; only position is measured. Time is counted
// in frames, so the transition matrix uses a unit timestep.
type Kalman struct {
	state [4]float64
	p     [4][4]float64 // State covariance
	q     float64       // Process noise (diagonal)
	r     float64       // Measurement noise (diagonal)

	initialized bool
}

// NewKalman creates a filter with the given noise covariances; zero
// values select the defaults.
func NewKalman(processNoise, measurementNoise float64) *Kalman {
	if processNoise <= 0 {
		processNoise = defaultProcessNoise
	}
	if measurementNoise <= 0 {
		measurementNoise = defaultMeasurementNoise
	}
	k := &Kalman{q: processNoise, r: measurementNoise}
	k.Reset()
	return k
}

// Update runs one predict/update cycle against the measured position.
// The first measurement initializes position directly with zero velocity
// and high uncertainty, and is returned unfiltered.
func (k *Kalman) Update(m gaze.ScreenPoint) gaze.ScreenPoint {
	if !k.initialized {
		k.state = [4]float64{m.X, m.Y, 0, 0}
		k.initialized = true
		return m
	}

	k.predict()

	// Innovation: measurement minus predicted position.
	yx := m.X - k.state[0]
	yy := m.Y - k.state[1]

	// With H = [I2 0], the innovation covariance S = P[0:2,0:2] + R.
	s00 := k.p[0][0] + k.r
	s01 := k.p[0][1]
	s10 := k.p[1][0]
	s11 := k.p[1][1] + k.r

	det := s00*s11 - s01*s10
	if det == 0 {
		return gaze.ScreenPoint{X: k.state[0], Y: k.state[1]}
	}
	inv00 := s11 / det
	inv01 := -s01 / det
	inv10 := -s10 / det
	inv11 := s00 / det

	// Kalman gain K = P Hᵀ S⁻¹, a 4x2 matrix built from the first two
	// columns of P.
	var gain [4][2]float64
	for i := 0; i < 4; i++ {
		gain[i][0] = k.p[i][0]*inv00 + k.p[i][1]*inv10
		gain[i][1] = k.p[i][0]*inv01 + k.p[i][1]*inv11
	}

	for i := 0; i < 4; i++ {
		k.state[i] += gain[i][0]*yx + gain[i][1]*yy
	}

	// Covariance update P = (I - K H) P. With H selecting position this
	// reduces to subtracting K times the first two rows of P.
	var next [4][4]float64
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			next[i][j] = k.p[i][j] - gain[i][0]*k.p[0][j] - gain[i][1]*k.p[1][j]
		}
	}
	k.p = next

	return gaze.ScreenPoint{X: k.state[0], Y: k.state[1]}
}

// predict advances the state one frame under the constant-velocity
// model: position += velocity, covariance grows by the process noise.
func (k *Kalman) predict() {
	k.state[0] += k.state[2]
	k.state[1] += k.state[3]

	// P = F P Fᵀ + Q with F = [[1,0,1,0],[0,1,0,1],[0,0,1,0],[0,0,0,1]].
	var fp [4][4]float64
	for j := 0; j < 4; j++ {
		fp[0][j] = k.p[0][j] + k.p[2][j]
		fp[1][j] = k.p[1][j] + k.p[3][j]
		fp[2][j] = k.p[2][j]
		fp[3][j] = k.p[3][j]
	}
	var next [4][4]float64
	for i := 0; i < 4; i++ {
		next[i][0] = fp[i][0] + fp[i][2]
		next[i][1] = fp[i][1] + fp[i][3]
		next[i][2] = fp[i][2]
		next[i][3] = fp[i][3]
	}
	for i := 0; i < 4; i++ {
		next[i][i] += k.q
	}
	k.p = next
}

// Reset returns the filter to uninitialized with high uncertainty.
func (k *Kalman) Reset() {
	k.state = [4]float64{}
	k.p = [4][4]float64{}
	for i := 0; i < 4; i++ {
		k.p[i][i] = initialUncertainty
	}
	k.initialized = false
}
