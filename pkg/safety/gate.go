// Package safety gates cursor actions behind rate limits, an automatic
// pause when the user's face leaves the frame, and a manual emergency
// stop. The gate never performs actions itself; callers ask it whether
// an action may run and report the actions they ran.
package safety

import (
	"sync"
	"time"

	"github.com/Hitanshparikh/Eyegle-Software/internal/log"
)

// Action is a category of cursor action with its own cooldown.
type Action string

const (
	ActionClick  Action = "click"
	ActionScroll Action = "scroll"
	ActionKey    Action = "key"
)

// Config holds the gate's limits.
type Config struct {
	ClickCooldown  time.Duration
	ScrollCooldown time.Duration
	KeyCooldown    time.Duration

	// Clicks are additionally capped to MaxClicksPerWindow within any
	// sliding ClickWindow, independent of the per-click cooldown.
	MaxClicksPerWindow int
	ClickWindow        time.Duration

	// AutoPauseNoFace is how long the face may be absent before the
	// gate pauses all actions. The pause lifts on its own when the
	// face returns.
	AutoPauseNoFace time.Duration
}

// DefaultConfig returns the recommended limits.
func DefaultConfig() Config {
	return Config{
		ClickCooldown:      200 * time.Millisecond,
		ScrollCooldown:     100 * time.Millisecond,
		KeyCooldown:        300 * time.Millisecond,
		MaxClicksPerWindow: 3,
		ClickWindow:        time.Second,
		AutoPauseNoFace:    2 * time.Second,
	}
}

// Status is a snapshot of the gate for status queries.
type Status struct {
	Stopped        bool    `json:"stopped"`
	Paused         bool    `json:"paused"`
	ClicksInWindow int     `json:"clicks_in_window"`
	SinceFace      float64 `json:"since_face_seconds"`
}

// Gate tracks action history and pause state. Safe for concurrent use;
// the processing loop and the web handlers share one gate.
type Gate struct {
	mu     sync.Mutex
	config Config

	lastAction map[Action]time.Time
	clicks     []time.Time

	stopped bool // manual emergency stop, lifted only by Resume
	paused  bool // automatic no-face pause, lifts when the face returns

	faceSeen bool
	lastFace time.Time

	now func() time.Time
}

// NewGate creates a gate with the given limits.
func NewGate(cfg Config) *Gate {
	return &Gate{
		config:     cfg,
		lastAction: make(map[Action]time.Time),
		now:        time.Now,
	}
}

// CanPerform reports whether the action may run right now. It never
// mutates the gate; a permitted action the caller actually runs must be
// reported with Register.
func (g *Gate) CanPerform(action Action) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.stopped || g.paused {
		return false
	}

	nowT := g.now()
	if last, ok := g.lastAction[action]; ok {
		if nowT.Sub(last) < g.cooldown(action) {
			return false
		}
	}

	if action == ActionClick {
		if g.recentClicks(nowT) >= g.config.MaxClicksPerWindow {
			return false
		}
	}
	return true
}

// Register records that the action ran, starting its cooldown.
func (g *Gate) Register(action Action) {
	g.mu.Lock()
	defer g.mu.Unlock()

	nowT := g.now()
	g.lastAction[action] = nowT
	if action == ActionClick {
		g.pruneClicks(nowT)
		g.clicks = append(g.clicks, nowT)
	}
}

// ObserveFace feeds face presence from the processing loop. A sustained
// absence pauses the gate; the next sighting lifts the pause. A manual
// stop is never lifted here.
func (g *Gate) ObserveFace(detected bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	nowT := g.now()
	if detected {
		g.faceSeen = true
		g.lastFace = nowT
		// A returning face lifts only the automatic pause; the manual
		// stop stays engaged until Resume.
		if g.paused && !g.stopped {
			g.paused = false
			log.Info("face returned, actions resumed")
		}
		return
	}

	if g.paused || g.stopped || !g.faceSeen {
		return
	}
	if nowT.Sub(g.lastFace) >= g.config.AutoPauseNoFace {
		g.paused = true
		log.Warn("face lost, actions paused", "absence", nowT.Sub(g.lastFace))
	}
}

// Pause suspends actions until the next face sighting lifts it. Unlike
// Stop, a pause clears on its own.
func (g *Gate) Pause() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.paused {
		g.paused = true
		log.Info("actions paused")
	}
}

// Stop engages the emergency stop. All actions are refused until Resume.
func (g *Gate) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.stopped {
		g.stopped = true
		log.Warn("emergency stop engaged")
	}
}

// Resume lifts the emergency stop and clears rate and cooldown history,
// so the user gets a clean slate rather than inheriting pre-stop limits.
func (g *Gate) Resume() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stopped {
		g.stopped = false
		g.lastAction = make(map[Action]time.Time)
		g.clicks = g.clicks[:0]
		log.Info("emergency stop lifted")
	}
}

// Stopped reports whether the emergency stop is engaged.
func (g *Gate) Stopped() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stopped
}

// Paused reports whether the no-face pause is active.
func (g *Gate) Paused() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paused
}

// Snapshot returns the gate state for status queries.
func (g *Gate) Snapshot() Status {
	g.mu.Lock()
	defer g.mu.Unlock()

	nowT := g.now()
	s := Status{
		Stopped:        g.stopped,
		Paused:         g.paused,
		ClicksInWindow: g.recentClicks(nowT),
	}
	if g.faceSeen {
		s.SinceFace = nowT.Sub(g.lastFace).Seconds()
	}
	return s
}

func (g *Gate) cooldown(action Action) time.Duration {
	switch action {
	case ActionClick:
		return g.config.ClickCooldown
	case ActionScroll:
		return g.config.ScrollCooldown
	case ActionKey:
		return g.config.KeyCooldown
	}
	return 0
}

// recentClicks counts clicks inside the sliding window without pruning,
// keeping CanPerform read-only.
func (g *Gate) recentClicks(nowT time.Time) int {
	n := 0
	for _, t := range g.clicks {
		if nowT.Sub(t) < g.config.ClickWindow {
			n++
		}
	}
	return n
}

func (g *Gate) pruneClicks(nowT time.Time) {
	kept := g.clicks[:0]
	for _, t := range g.clicks {
		if nowT.Sub(t) < g.config.ClickWindow {
			kept = append(kept, t)
		}
	}
	g.clicks = kept
}
