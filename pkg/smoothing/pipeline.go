package smoothing

import "github.com/Hitanshparikh/Eyegle-Software/pkg/gaze"

// Config holds the filter chain parameters.
type Config struct {
	EMAAlpha       float64 // EMA factor in (0,1]
	KalmanEnabled  bool    // Toggle the Kalman stage
	DeadZoneRadius float64 // Dead zone radius in pixels
	AccelExponent  float64 // Acceleration curve exponent
	ScreenWidth    int
	ScreenHeight   int
}

// Pipeline chains the three smoothing stages in fixed order:
// EMA, then Kalman (if enabled), then velocity/dead-zone, with a final
// clamp to screen bounds. State is owned exclusively by one caller.
type Pipeline struct {
	config   Config
	ema      *EMA
	kalman   *Kalman
	velocity *Velocity

	last    gaze.ScreenPoint
	hasLast bool
}

// NewPipeline builds the chain from the config.
func NewPipeline(cfg Config) *Pipeline {
	return &Pipeline{
		config:   cfg,
		ema:      NewEMA(cfg.EMAAlpha),
		kalman:   NewKalman(0, 0),
		velocity: NewVelocity(cfg.DeadZoneRadius, cfg.AccelExponent),
	}
}

// Smooth runs one raw screen estimate through the full chain.
func (p *Pipeline) Smooth(raw gaze.ScreenPoint) gaze.ScreenPoint {
	pos := p.ema.Update(raw)

	if p.config.KalmanEnabled {
		pos = p.kalman.Update(pos)
	}

	pos = p.velocity.Apply(pos, p.config.ScreenWidth, p.config.ScreenHeight)

	// Final safety net regardless of stage behavior.
	pos.X = clampf(pos.X, 0, float64(p.config.ScreenWidth))
	pos.Y = clampf(pos.Y, 0, float64(p.config.ScreenHeight))

	p.last = pos
	p.hasLast = true
	return pos
}

// Last returns the most recent output, if any.
func (p *Pipeline) Last() (gaze.ScreenPoint, bool) {
	return p.last, p.hasLast
}

// Speed reports the cursor's recent travel in pixels per frame, from
// the velocity stage's history. Zero while the cursor rests inside the
// dead zone.
func (p *Pipeline) Speed() float64 {
	return p.velocity.Speed()
}

// Reset clears all three stages; the next input reinitializes instead of
// blending from stale state.
func (p *Pipeline) Reset() {
	p.ema.Reset()
	p.kalman.Reset()
	p.velocity.Reset()
	p.hasLast = false
}
