// Package engine wires the capture, extraction, mapping, smoothing, and
// expression stages into the two-goroutine pipeline: a dedicated
// acquisition loop feeding a bounded buffer, and a processing loop that
// always works on the newest frame.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Hitanshparikh/Eyegle-Software/internal/config"
	"github.com/Hitanshparikh/Eyegle-Software/internal/log"
	"github.com/Hitanshparikh/Eyegle-Software/pkg/calibration"
	"github.com/Hitanshparikh/Eyegle-Software/pkg/camera"
	"github.com/Hitanshparikh/Eyegle-Software/pkg/expression"
	"github.com/Hitanshparikh/Eyegle-Software/pkg/gaze"
	"github.com/Hitanshparikh/Eyegle-Software/pkg/hub"
	"github.com/Hitanshparikh/Eyegle-Software/pkg/safety"
	"github.com/Hitanshparikh/Eyegle-Software/pkg/smoothing"
	"github.com/Hitanshparikh/Eyegle-Software/pkg/tracking"
	"github.com/Hitanshparikh/Eyegle-Software/pkg/tracking/extract"
)

// stopTimeout is how long Stop waits for the pipeline goroutines before
// force-closing the frame source to unblock them.
const stopTimeout = 3 * time.Second

// bufferCapacity bounds the frame buffer between acquisition and
// processing. Two frames is enough to decouple the loops while keeping
// latency at most one frame behind the camera.
const bufferCapacity = 2

// defaultProfileName is where a fresh calibration is persisted. Named
// saves go through SaveProfile.
const defaultProfileName = "default"

// CursorUpdate is one smoothed cursor position, published per processed
// frame while a face is visible.
type CursorUpdate struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Speed      float64 `json:"speed"`
	Confidence float64 `json:"confidence"`
	Calibrated bool    `json:"calibrated"`
}

// ExpressionEvent is a classified expression together with the verdicts
// the safety gate gave for the actions it could drive.
type ExpressionEvent struct {
	Kind      expression.Kind `json:"kind"`
	Duration  time.Duration   `json:"duration"`
	Permitted bool            `json:"permitted"`
}

// Status is an engine state snapshot for the status API.
type Status struct {
	Running          bool              `json:"running"`
	Extractor        string            `json:"extractor"`
	Calibrated       bool              `json:"calibrated"`
	Quality          float64           `json:"calibration_quality"`
	CalibrationState calibration.State `json:"calibration_state"`
	TargetsComplete  int               `json:"targets_complete"`
	TargetsTotal     int               `json:"targets_total"`
	FramesProcessed  uint64            `json:"frames_processed"`
	FPS              float64           `json:"fps"`
	FaceVisible      bool              `json:"face_visible"`
	Safety           safety.Status     `json:"safety"`
	Cursor           *CursorUpdate     `json:"cursor,omitempty"`
}

// Engine owns the full per-frame pipeline. All mutable pipeline state
// (smoothing filters, detector, session) is touched only by the
// processing goroutine; cross-goroutine reads go through the transform
// holder, the safety gate, or the snapshot mutex.
type Engine struct {
	cfg       config.Config
	source    camera.FrameSource
	extractor extract.Extractor

	buffer   *camera.Buffer
	acquirer *camera.Acquirer

	estimator *gaze.Estimator
	holder    *gaze.Holder
	pipeline  *smoothing.Pipeline
	detector  *expression.Detector
	gate      *safety.Gate
	profiles  *gaze.ProfileStore
	events    *hub.Hub

	// Calibration requests cross from the web layer into the
	// processing goroutine through this channel.
	sessionReq chan sessionRequest

	// The session itself is owned by the processing goroutine; the
	// mutex guards only these snapshot fields read by Status.
	mu         sync.Mutex
	session    *calibration.Session
	calState   calibration.State
	calDone    int
	calTotal   int
	calibrated bool
	quality    float64
	frames     uint64
	fps        float64
	faceSeen   bool
	cursor     *CursorUpdate
	running    bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type sessionRequest struct {
	reset bool
}

// New assembles an engine from its dependencies. The hub may be nil when
// no telemetry consumers exist (tests, headless runs).
func New(cfg config.Config, source camera.FrameSource, extractor extract.Extractor,
	profiles *gaze.ProfileStore, events *hub.Hub) *Engine {

	buffer := camera.NewBuffer(bufferCapacity)
	return &Engine{
		cfg:       cfg,
		source:    source,
		extractor: extractor,
		buffer:    buffer,
		acquirer:  camera.NewAcquirer(source, buffer, cfg.CameraFPS),
		estimator: gaze.NewEstimator(cfg.EyeDominance),
		holder:    gaze.NewHolder(gaze.DefaultTransform(cfg.ScreenWidth, cfg.ScreenHeight)),
		pipeline: smoothing.NewPipeline(smoothing.Config{
			EMAAlpha:       cfg.EMAAlpha,
			KalmanEnabled:  cfg.KalmanEnabled,
			DeadZoneRadius: cfg.DeadZoneRadius,
			AccelExponent:  cfg.AccelExponent,
			ScreenWidth:    cfg.ScreenWidth,
			ScreenHeight:   cfg.ScreenHeight,
		}),
		detector: expression.NewDetector(expression.Config{
			ThresholdFraction: cfg.BlinkThresholdFraction,
			LongBlinkDuration: cfg.LongBlinkDuration,
			Cooldown:          cfg.BlinkCooldown,
			ShortBlinkCutoff:  cfg.ShortBlinkCutoff,
			BaselineSamples:   cfg.BaselineSamples,
		}),
		gate: safety.NewGate(safety.Config{
			ClickCooldown:      cfg.ClickCooldown,
			ScrollCooldown:     cfg.ScrollCooldown,
			KeyCooldown:        cfg.KeyCooldown,
			MaxClicksPerWindow: cfg.MaxClicksPerSecond,
			ClickWindow:        time.Second,
			AutoPauseNoFace:    cfg.AutoPauseNoFace,
		}),
		profiles:   profiles,
		events:     events,
		sessionReq: make(chan sessionRequest, 4),
	}
}

// Gate exposes the safety gate for the web layer's stop and resume
// endpoints.
func (e *Engine) Gate() *safety.Gate {
	return e.gate
}

// Start launches the acquisition and processing goroutines.
func (e *Engine) Start() error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return errors.New("engine: already running")
	}
	e.running = true
	e.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel

	e.wg.Add(2)
	go func() {
		defer e.wg.Done()
		e.acquirer.Run(ctx)
	}()
	go func() {
		defer e.wg.Done()
		e.process(ctx)
	}()

	log.Info("engine started",
		"extractor", e.extractor.Name(),
		"screen", fmt.Sprintf("%dx%d", e.cfg.ScreenWidth, e.cfg.ScreenHeight))
	return nil
}

// Stop cancels the pipeline, fails any calibration still in flight, and
// joins the goroutines. If they don't stop in time the frame source is
// force-closed; a blocked Read then errors out and the loops unwind.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	e.mu.Unlock()

	e.cancel()

	joined := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(joined)
	}()

	select {
	case <-joined:
	case <-time.After(stopTimeout):
		log.Warn("pipeline join timed out, force-closing source")
		e.source.Close()
		<-joined
	}

	e.source.Close()
	e.extractor.Close()
	log.Info("engine stopped")
}

// StartCalibration asks the processing goroutine to begin a calibration
// session. Fails if one is already active.
func (e *Engine) StartCalibration() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return errors.New("engine: not running")
	}
	switch e.calState {
	case calibration.StateIntro, calibration.StatePositioning,
		calibration.StateCollecting, calibration.StateComputing:
		return errors.New("engine: calibration already in progress")
	}
	select {
	case e.sessionReq <- sessionRequest{}:
		return nil
	default:
		return errors.New("engine: calibration request pending")
	}
}

// ResetCalibration abandons any active session.
func (e *Engine) ResetCalibration() {
	select {
	case e.sessionReq <- sessionRequest{reset: true}:
	default:
	}
}

// LoadProfile installs a saved calibration profile as the live
// transform. The store rejects profiles recorded for other screen
// dimensions.
func (e *Engine) LoadProfile(name string) error {
	p, err := e.profiles.Load(name, e.cfg.ScreenWidth, e.cfg.ScreenHeight)
	if err != nil {
		return err
	}
	if p.Transform == nil {
		return fmt.Errorf("engine: profile %q has no calibration", name)
	}

	e.holder.Publish(*p.Transform)
	e.mu.Lock()
	e.calibrated = true
	e.quality = gaze.Quality(p.PointCount)
	e.mu.Unlock()

	log.Info("profile loaded", "name", name, "points", p.PointCount)
	return nil
}

// SaveProfile persists the live transform under the given name.
func (e *Engine) SaveProfile(name string) error {
	e.mu.Lock()
	calibrated := e.calibrated
	e.mu.Unlock()
	if !calibrated {
		return errors.New("engine: no calibration to save")
	}

	t := e.holder.Load()
	p := gaze.NewProfile(e.cfg.ScreenWidth, e.cfg.ScreenHeight,
		e.cfg.EyeDominance, t, e.cfg.CalibrationPoints)
	return e.profiles.Save(name, p)
}

// Profiles exposes the profile store for the web layer's list and
// delete endpoints.
func (e *Engine) Profiles() *gaze.ProfileStore {
	return e.profiles
}

// Status returns a snapshot for the status API.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	state := e.calState
	if state == "" {
		state = calibration.StateIdle
	}
	return Status{
		Running:          e.running,
		Extractor:        e.extractor.Name(),
		Calibrated:       e.calibrated,
		Quality:          e.quality,
		CalibrationState: state,
		TargetsComplete:  e.calDone,
		TargetsTotal:     e.calTotal,
		FramesProcessed:  e.frames,
		FPS:              e.fps,
		FaceVisible:      e.faceSeen,
		Safety:           e.gate.Snapshot(),
		Cursor:           e.cursor,
	}
}

// AcquisitionDone surfaces a fatal acquisition error, such as the
// consecutive read failure threshold being crossed.
func (e *Engine) AcquisitionDone() <-chan error {
	return e.acquirer.Done()
}

// process is the synchronous per-frame loop. One frame at a time flows
// through extraction, the gaze estimate, the calibration session or the
// cursor path, and expression detection.
func (e *Engine) process(ctx context.Context) {
	fpsWindowStart := time.Now()
	fpsWindowFrames := 0

	for {
		select {
		case <-ctx.Done():
			e.abandonSession()
			return

		case req := <-e.sessionReq:
			e.handleSessionRequest(req)

		case <-e.buffer.Wait():
			frame, ok := e.buffer.Latest()
			if !ok {
				continue
			}
			e.processFrame(frame)

			fpsWindowFrames++
			if elapsed := time.Since(fpsWindowStart); elapsed >= time.Second {
				e.mu.Lock()
				e.fps = float64(fpsWindowFrames) / elapsed.Seconds()
				e.mu.Unlock()
				fpsWindowStart = time.Now()
				fpsWindowFrames = 0

				// Once per window, push the full status to listeners.
				// Skipped when nobody is connected.
				if e.events != nil && e.events.ClientCount() > 0 {
					e.events.BroadcastEvent(hub.EventStatus, e.Status())
				}
			}
		}
	}
}

func (e *Engine) processFrame(frame camera.Frame) {
	obs, err := e.extractor.Extract(frame)
	if err != nil {
		log.Debug("extraction failed", "error", err)
		return
	}

	e.gate.ObserveFace(obs.FaceDetected)

	e.mu.Lock()
	e.frames++
	e.faceSeen = obs.FaceDetected
	session := e.session
	e.mu.Unlock()

	if session != nil && session.Active() {
		e.driveCalibration(session, obs, frame.Width, frame.Height)
	} else {
		e.driveCursor(obs, frame.Width, frame.Height)
	}
	e.snapshotSession(session)

	if state, classified := e.detector.Observe(obs); classified {
		e.publishExpression(state)
	}
}

// snapshotSession caches the session's externally visible state so
// Status never touches the session from another goroutine.
func (e *Engine) snapshotSession(session *calibration.Session) {
	if session == nil {
		return
	}
	state := session.State()
	done, total := session.Progress()

	e.mu.Lock()
	e.calState = state
	e.calDone = done
	e.calTotal = total
	e.mu.Unlock()
}

// driveCursor maps one observation to a smoothed cursor update and
// publishes it. Frames without iris data clear the live cursor but keep
// the smoothing state, so a momentary dropout doesn't cause a jump.
func (e *Engine) driveCursor(obs tracking.EyeObservation, frameW, frameH int) {
	g, ok := e.estimator.Estimate(obs, frameW, frameH)
	if !ok {
		e.mu.Lock()
		e.cursor = nil
		e.mu.Unlock()
		return
	}

	raw := e.holder.Load().Apply(g, e.cfg.ScreenWidth, e.cfg.ScreenHeight)
	pos := e.pipeline.Smooth(raw)

	e.mu.Lock()
	update := CursorUpdate{
		X:          pos.X,
		Y:          pos.Y,
		Speed:      e.pipeline.Speed(),
		Confidence: obs.Confidence,
		Calibrated: e.calibrated,
	}
	e.cursor = &update
	e.mu.Unlock()

	if e.events != nil {
		e.events.BroadcastEvent(hub.EventCursor, update)
	}
}

// driveCalibration feeds the session and reacts to its events. On
// completion the collected samples go to the solver and, only on a
// successful fit, the new transform replaces the live one.
func (e *Engine) driveCalibration(session *calibration.Session,
	obs tracking.EyeObservation, frameW, frameH int) {

	if session.State() == calibration.StateIntro {
		session.NextTarget()
	}
	session.Observe(obs, frameW, frameH)

	for {
		select {
		case ev := <-session.Events():
			e.handleCalibrationEvent(session, ev)
		default:
			return
		}
	}
}

func (e *Engine) handleCalibrationEvent(session *calibration.Session, ev calibration.Event) {
	if e.events != nil {
		completed, total := session.Progress()
		e.events.BroadcastEvent(hub.EventCalibration, map[string]interface{}{
			"event":     string(ev.Kind),
			"state":     string(session.State()),
			"completed": completed,
			"total":     total,
		})
	}

	switch ev.Kind {
	case calibration.EventComplete:
		e.completeCalibration(session)
	case calibration.EventFailed:
		// A failed run never touches the live transform.
		log.Warn("calibration abandoned",
			"completed", ev.Completed, "total", ev.Total)
	}
}

func (e *Engine) completeCalibration(session *calibration.Session) {
	samples, err := session.TakeSamples()
	if err != nil {
		log.Error("calibration samples unavailable", "error", err)
		return
	}

	t, err := gaze.Solve(samples)
	if err != nil {
		// The live transform stays untouched on a failed fit.
		session.Fail()
		log.Error("calibration solve failed", "error", err, "samples", len(samples))
		return
	}

	e.holder.Publish(t)
	e.pipeline.Reset()

	e.mu.Lock()
	e.calibrated = true
	e.quality = gaze.Quality(e.cfg.CalibrationPoints)
	e.mu.Unlock()

	if e.profiles != nil {
		p := gaze.NewProfile(e.cfg.ScreenWidth, e.cfg.ScreenHeight,
			e.cfg.EyeDominance, t, e.cfg.CalibrationPoints)
		if err := e.profiles.Save(defaultProfileName, p); err != nil {
			log.Warn("profile save failed", "error", err)
		}
	}

	log.Info("calibration applied", "samples", len(samples))
}

func (e *Engine) handleSessionRequest(req sessionRequest) {
	e.mu.Lock()
	session := e.session
	e.mu.Unlock()

	if req.reset {
		if session != nil {
			session.Fail()
			session.Reset()
			e.snapshotSession(session)
		}
		return
	}

	if session != nil && session.Active() {
		return
	}

	session = calibration.NewSession(calibration.Config{
		Points:       e.cfg.CalibrationPoints,
		ScreenWidth:  e.cfg.ScreenWidth,
		ScreenHeight: e.cfg.ScreenHeight,
		Margin:       e.cfg.GridMargin,
		Dwell:        e.cfg.DwellPerTarget,
	}, e.estimator)

	if err := session.Start(); err != nil {
		log.Error("calibration start failed", "error", err)
		return
	}

	e.mu.Lock()
	e.session = session
	e.mu.Unlock()
	e.snapshotSession(session)
}

// abandonSession fails an in-flight session on shutdown.
func (e *Engine) abandonSession() {
	e.mu.Lock()
	session := e.session
	e.mu.Unlock()
	if session != nil && session.Active() {
		session.Fail()
	}
}

// publishExpression runs the classified expression past the safety gate
// and broadcasts the outcome. Long combined blinks toggle the emergency
// stop; the remaining kinds map to gated click actions.
func (e *Engine) publishExpression(state expression.State) {
	permitted := false

	switch state.Kind {
	case expression.BlinkBothLong:
		// The kill switch works regardless of gate state.
		if e.gate.Stopped() {
			e.gate.Resume()
		} else {
			e.gate.Stop()
		}
		permitted = true

	case expression.BlinkLeft, expression.BlinkRight, expression.BlinkBoth:
		if e.gate.CanPerform(safety.ActionClick) {
			e.gate.Register(safety.ActionClick)
			permitted = true
		}
	}

	if e.events != nil {
		e.events.BroadcastEvent(hub.EventExpression, ExpressionEvent{
			Kind:      state.Kind,
			Duration:  state.Duration,
			Permitted: permitted,
		})
	}
	log.Debug("expression event", "kind", state.Kind, "permitted", permitted)
}
