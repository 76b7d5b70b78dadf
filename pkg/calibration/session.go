package calibration

import (
	"fmt"
	"time"

	"github.com/Hitanshparikh/Eyegle-Software/internal/log"
	"github.com/Hitanshparikh/Eyegle-Software/pkg/gaze"
	"github.com/Hitanshparikh/Eyegle-Software/pkg/tracking"
)

// State is a calibration session state. The set is closed; transitions
// happen only through Session methods.
type State string

const (
	StateIdle        State = "idle"
	StateIntro       State = "intro"
	StatePositioning State = "positioning"
	StateCollecting  State = "collecting"
	StateComputing   State = "computing"
	StateComplete    State = "complete"
	StateFailed      State = "failed"
)

// EventKind identifies a session event.
type EventKind string

const (
	EventTargetComplete EventKind = "target_complete"
	EventComplete       EventKind = "complete"
	EventFailed         EventKind = "failed"
)

// Event is emitted on the session's event channel so the orchestration
// layer can react without the session calling upward.
type Event struct {
	Kind        EventKind
	TargetIndex int // Completed target, for EventTargetComplete
	Samples     int // Total samples collected, for EventComplete
	Completed   int // Targets completed, for EventFailed
	Total       int // Targets generated, for EventFailed
}

// Config holds the session parameters.
type Config struct {
	Points       int           // 5 or 9
	ScreenWidth  int
	ScreenHeight int
	Margin       float64       // Edge margin as a fraction of screen size
	Dwell        time.Duration // Required gaze time per target
}

// Session is the calibration workflow state machine. It owns the
// collected samples exclusively until they are taken by the caller after
// completion. Not safe for concurrent use; the processing loop is the
// sole driver.
type Session struct {
	config    Config
	estimator *gaze.Estimator

	state       State
	targets     []Target
	current     int
	targetStart time.Time
	samples     []gaze.Sample

	events chan Event
	now    func() time.Time
}

// NewSession creates an idle session.
func NewSession(cfg Config, estimator *gaze.Estimator) *Session {
	return &Session{
		config:    cfg,
		estimator: estimator,
		state:     StateIdle,
		events:    make(chan Event, 16),
		now:       time.Now,
	}
}

// Events returns the channel session events are emitted on. Events are
// dropped, not blocked on, if the consumer falls behind.
func (s *Session) Events() <-chan Event {
	return s.events
}

// State returns the current state.
func (s *Session) State() State {
	return s.state
}

// Start generates the targets and moves Idle to Intro.
func (s *Session) Start() error {
	if s.state != StateIdle {
		return fmt.Errorf("calibration: cannot start from state %q", s.state)
	}

	s.targets = GenerateTargets(s.config.Points, s.config.ScreenWidth, s.config.ScreenHeight,
		s.config.Margin, s.config.Dwell)
	s.current = 0
	s.samples = s.samples[:0]
	s.state = StateIntro

	log.Info("calibration started", "targets", len(s.targets))
	return nil
}

// NextTarget activates the next target and records its start timestamp.
// The session waits in Positioning until the first valid observation
// arrives for the target.
func (s *Session) NextTarget() (*Target, bool) {
	if s.state != StateIntro && s.state != StatePositioning {
		return nil, false
	}
	if s.current >= len(s.targets) {
		s.finish()
		return nil, false
	}

	s.state = StatePositioning
	s.targetStart = s.now()
	return &s.targets[s.current], true
}

// CurrentTarget returns the active target, if any.
func (s *Session) CurrentTarget() (*Target, bool) {
	if s.current >= len(s.targets) {
		return nil, false
	}
	if s.state != StatePositioning && s.state != StateCollecting {
		return nil, false
	}
	return &s.targets[s.current], true
}

// Observe feeds one frame's observation into the active target. Frames
// without iris data are ignored. Once the elapsed dwell time reaches the
// target's requirement the target completes, a completion event fires,
// and the session auto-advances to the next target or to computing.
func (s *Session) Observe(obs tracking.EyeObservation, frameW, frameH int) {
	if s.state != StatePositioning && s.state != StateCollecting {
		return
	}
	if !obs.HasIris() {
		return
	}

	g, ok := s.estimator.Estimate(obs, frameW, frameH)
	if !ok {
		return
	}

	s.state = StateCollecting
	target := &s.targets[s.current]
	target.SamplesCollected++
	s.samples = append(s.samples, gaze.Sample{
		Screen:    target.Position,
		Gaze:      g,
		LeftIris:  obs.LeftIris,
		RightIris: obs.RightIris,
	})

	if s.now().Sub(s.targetStart) < target.Dwell {
		return
	}

	target.Completed = true
	s.emit(Event{Kind: EventTargetComplete, TargetIndex: s.current})
	log.Info("calibration target complete",
		"target", s.current+1, "of", len(s.targets), "samples", target.SamplesCollected)

	s.current++
	if s.current >= len(s.targets) {
		s.finish()
		return
	}

	// Auto-advance: next target starts its dwell clock now.
	s.state = StatePositioning
	s.targetStart = s.now()
}

// finish moves to Computing and resolves to Complete or Failed. Every
// generated target must carry the completed flag; otherwise the session
// fails and reports how many of the total finished.
func (s *Session) finish() {
	s.state = StateComputing

	completed := 0
	for _, t := range s.targets {
		if t.Completed {
			completed++
		}
	}

	if completed < len(s.targets) {
		s.state = StateFailed
		s.emit(Event{Kind: EventFailed, Completed: completed, Total: len(s.targets)})
		log.Warn("calibration failed", "completed", completed, "total", len(s.targets))
		return
	}

	s.state = StateComplete
	s.emit(Event{Kind: EventComplete, Samples: len(s.samples)})
	log.Info("calibration complete", "samples", len(s.samples))
}

// Fail forces the session into Failed: on pipeline shutdown mid-session,
// or from Complete when the solver rejects the collected samples. No-op
// when already Failed or Idle.
func (s *Session) Fail() {
	if s.state == StateFailed || s.state == StateIdle {
		return
	}
	completed := 0
	for _, t := range s.targets {
		if t.Completed {
			completed++
		}
	}
	s.state = StateFailed
	s.emit(Event{Kind: EventFailed, Completed: completed, Total: len(s.targets)})
}

// TakeSamples hands the collected sample set to the caller exactly once.
// Only valid in Complete.
func (s *Session) TakeSamples() ([]gaze.Sample, error) {
	if s.state != StateComplete {
		return nil, fmt.Errorf("calibration: samples unavailable in state %q", s.state)
	}
	out := s.samples
	s.samples = nil
	return out, nil
}

// Progress reports completed and total target counts.
func (s *Session) Progress() (completed, total int) {
	for _, t := range s.targets {
		if t.Completed {
			completed++
		}
	}
	return completed, len(s.targets)
}

// TargetProgress reports the active target's dwell progress in [0,1].
func (s *Session) TargetProgress() float64 {
	if s.state != StateCollecting {
		return 0
	}
	target := s.targets[s.current]
	if target.Dwell <= 0 {
		return 1
	}
	p := float64(s.now().Sub(s.targetStart)) / float64(target.Dwell)
	if p > 1 {
		p = 1
	}
	return p
}

// Reset clears targets and samples and returns to Idle. Required before
// restarting from a terminal state.
func (s *Session) Reset() {
	s.state = StateIdle
	s.targets = nil
	s.samples = nil
	s.current = 0
}

// Active reports whether the session is in a non-terminal, non-idle state.
func (s *Session) Active() bool {
	switch s.state {
	case StateIntro, StatePositioning, StateCollecting, StateComputing:
		return true
	}
	return false
}

func (s *Session) emit(e Event) {
	select {
	case s.events <- e:
	default:
		// Consumer fell behind; drop rather than stall the pipeline.
	}
}
