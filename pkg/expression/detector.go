package expression

import (
	"time"

	"github.com/Hitanshparikh/Eyegle-Software/internal/log"
	"github.com/Hitanshparikh/Eyegle-Software/pkg/tracking"
)

// Config holds the detector thresholds.
type Config struct {
	ThresholdFraction float64       // Closed when ratio < baseline * fraction
	LongBlinkDuration time.Duration // Combined closures at least this long are "long"
	Cooldown          time.Duration // Suppress classification after any event
	ShortBlinkCutoff  time.Duration // Single-eye closures at or past this are noise
	BaselineSamples   int           // Valid observations used for the baseline
}

// DefaultConfig returns the recommended thresholds.
func DefaultConfig() Config {
	return Config{
		ThresholdFraction: 0.2,
		LongBlinkDuration: 500 * time.Millisecond,
		Cooldown:          200 * time.Millisecond,
		ShortBlinkCutoff:  300 * time.Millisecond,
		BaselineSamples:   30,
	}
}

// Detector is the blink state machine. Eye closure is judged relative to
// a baseline of each eye's open ratio collected over the first valid
// observations; until the baseline exists, detection is suppressed.
// Owned by the processing loop; not safe for concurrent use.
type Detector struct {
	config Config

	// Baseline accumulation
	baselineLeft  float64
	baselineRight float64
	sumLeft       float64
	sumRight      float64
	sampleCount   int
	baselineReady bool

	// Closure latches. A combined closure takes precedence over the
	// per-eye latches: a single-eye closure only starts when the other
	// eye is open at onset.
	leftClosed  bool
	rightClosed bool
	bothClosed  bool
	closeStart  time.Time

	lastEvent time.Time
	current   State

	now func() time.Time
}

// NewDetector creates a detector with the given thresholds.
func NewDetector(cfg Config) *Detector {
	return &Detector{config: cfg, now: time.Now}
}

// BaselineReady reports whether the warm-up baseline is established.
func (d *Detector) BaselineReady() bool {
	return d.baselineReady
}

// Current returns the most recently classified state.
func (d *Detector) Current() State {
	return d.current
}

// Observe processes one frame and returns a classified event, if any.
// No face or no baseline means no expression and no state transitions.
func (d *Detector) Observe(obs tracking.EyeObservation) (State, bool) {
	if !obs.FaceDetected {
		d.current = State{Kind: None}
		return d.current, false
	}

	if !d.baselineReady {
		d.accumulateBaseline(obs)
		return State{Kind: None}, false
	}

	nowT := d.now()

	// Cooldown after any classified event suppresses re-triggering on
	// sensor jitter.
	if nowT.Sub(d.lastEvent) < d.config.Cooldown {
		return d.current, false
	}

	kind, duration := d.step(obs, nowT)
	if kind == None {
		return d.current, false
	}

	d.current = State{
		Kind:       kind,
		Confidence: obs.Confidence,
		Duration:   duration,
		StartTime:  nowT,
	}
	d.lastEvent = nowT
	log.Debug("expression classified", "kind", kind, "duration", duration)
	return d.current, true
}

// step runs the transition rules for one frame and returns the
// classification and the closure duration, if the frame produced one.
func (d *Detector) step(obs tracking.EyeObservation, nowT time.Time) (Kind, time.Duration) {
	leftClosed := obs.LeftOpenRatio < d.baselineLeft*d.config.ThresholdFraction
	rightClosed := obs.RightOpenRatio < d.baselineRight*d.config.ThresholdFraction
	bothClosed := leftClosed && rightClosed

	// Combined closure onset.
	if bothClosed && !d.bothClosed {
		d.bothClosed = true
		d.closeStart = nowT
	}

	// Combined closure release: classify by duration.
	if d.bothClosed && !bothClosed {
		duration := nowT.Sub(d.closeStart)
		d.bothClosed = false
		d.clearTimer()

		if duration >= d.config.LongBlinkDuration {
			return BlinkBothLong, duration
		}
		return BlinkBoth, duration
	}

	// Single-eye onset requires the other eye open at that moment, so
	// combined closures never arm the per-eye latches.
	if leftClosed && !d.leftClosed && !rightClosed {
		d.leftClosed = true
		d.closeStart = nowT
	}
	if d.leftClosed && !leftClosed {
		d.leftClosed = false
		duration := nowT.Sub(d.closeStart)
		d.clearTimer()
		if duration < d.config.ShortBlinkCutoff {
			return BlinkLeft, duration
		}
		// Long single-eye closures are noise or something intentional
		// but unclassified.
	}

	if rightClosed && !d.rightClosed && !leftClosed {
		d.rightClosed = true
		d.closeStart = nowT
	}
	if d.rightClosed && !rightClosed {
		d.rightClosed = false
		duration := nowT.Sub(d.closeStart)
		d.clearTimer()
		if duration < d.config.ShortBlinkCutoff {
			return BlinkRight, duration
		}
	}

	return None, 0
}

// accumulateBaseline folds one valid observation into the warm-up mean.
func (d *Detector) accumulateBaseline(obs tracking.EyeObservation) {
	d.sumLeft += obs.LeftOpenRatio
	d.sumRight += obs.RightOpenRatio
	d.sampleCount++

	if d.sampleCount >= d.config.BaselineSamples {
		d.baselineLeft = d.sumLeft / float64(d.sampleCount)
		d.baselineRight = d.sumRight / float64(d.sampleCount)
		d.baselineReady = true
		log.Info("blink baseline established",
			"left", d.baselineLeft, "right", d.baselineRight, "samples", d.sampleCount)
	}
}

func (d *Detector) clearTimer() {
	d.closeStart = time.Time{}
}

// Reset clears all latches, timers, and the baseline accumulator.
func (d *Detector) Reset() {
	d.baselineLeft = 0
	d.baselineRight = 0
	d.sumLeft = 0
	d.sumRight = 0
	d.sampleCount = 0
	d.baselineReady = false
	d.leftClosed = false
	d.rightClosed = false
	d.bothClosed = false
	d.closeStart = time.Time{}
	d.lastEvent = time.Time{}
	d.current = State{Kind: None}
}
