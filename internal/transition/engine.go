package transition

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/alireza787b/mavsdk-vtol-transition/internal/link"
	"github.com/alireza787b/mavsdk-vtol-transition/internal/monitor"
	"github.com/alireza787b/mavsdk-vtol-transition/pkg/consts"
	"github.com/alireza787b/mavsdk-vtol-transition/pkg/fsm"
	"github.com/alireza787b/mavsdk-vtol-transition/pkg/logger"
	"github.com/alireza787b/mavsdk-vtol-transition/pkg/protocol"
)

const (
	evLaunch      fsm.Event = "launch"
	evSkipTakeoff fsm.Event = "skip_takeoff"
	evClimb       fsm.Event = "climb"
	evSecondary   fsm.Event = "secondary_climb"
	evRamp        fsm.Event = "ramp"
	evOverTilt    fsm.Event = "over_tilt"
	evAirspeed    fsm.Event = "airspeed"
	evPost        fsm.Event = "post_action"
	evComplete    fsm.Event = "complete"
	evAbort       fsm.Event = "abort"
	evFail        fsm.Event = "fail"
)

// Snapshot is the read-only run view served on /status.
type Snapshot struct {
	Phase             consts.Phase       `json:"phase"`
	AbortReason       consts.AbortReason `json:"abort_reason,omitempty"`
	AltitudeM         float64            `json:"altitude_m"`
	AirspeedMS        float64            `json:"airspeed_m_s"`
	CommandedThrottle float64            `json:"commanded_throttle"`
	CommandedTiltDeg  float64            `json:"commanded_tilt_deg"`
}

// Engine owns the phase state machine and drives one transition run: every
// cycle it reads the latest telemetry, lets the failsafe monitor preempt,
// advances the phase, and sends the generated setpoint. It is single-threaded;
// the run context is never touched outside the loop.
type Engine struct {
	cfg  *protocol.Config
	tele link.TelemetryLink
	cmds link.CommandLink

	machine *fsm.Machine
	tc      *Context
	post    *Executor

	safetyLock  func() bool
	yawOverride float64
	stop        atomic.Bool
	snapshot    atomic.Value

	lastStamp  time.Time
	lastFresh  time.Time
	lastSample protocol.TelemetrySample

	setpointRejects int
	engageRejects   int
	postRejects     int

	status consts.TerminalStatus
}

func NewEngine(cfg *protocol.Config, tele link.TelemetryLink, cmds link.CommandLink) *Engine {
	e := &Engine{
		cfg:         cfg,
		tele:        tele,
		cmds:        cmds,
		machine:     fsm.New(fsm.State(consts.PhaseIdle)),
		post:        NewExecutor(cmds),
		yawOverride: -1,
	}
	e.safetyLock = func() bool { return cfg.Transition.SafetyLock }
	e.setupFSM()
	return e
}

// SetYawOverride applies the CLI yaw override. Negative keeps the configured
// transition yaw.
func (e *Engine) SetYawOverride(deg float64) {
	e.yawOverride = deg
}

// SetSafetyLockPoll replaces the safety-lock source. The poll runs once per
// cycle; a false->true edge aborts the run.
func (e *Engine) SetSafetyLockPoll(fn func() bool) {
	e.safetyLock = fn
}

func (e *Engine) setupFSM() {
	st := func(p consts.Phase) fsm.State { return fsm.State(p) }
	m := e.machine

	m.Add(st(consts.PhaseIdle), st(consts.PhaseArmingTakeoff), evLaunch)
	m.Add(st(consts.PhaseIdle), st(consts.PhaseInitialClimb), evSkipTakeoff)
	m.Add(st(consts.PhaseArmingTakeoff), st(consts.PhaseInitialClimb), evClimb)
	m.Add(st(consts.PhaseInitialClimb), st(consts.PhaseSecondaryClimb), evSecondary)
	m.Add(st(consts.PhaseSecondaryClimb), st(consts.PhaseTransitionRamp), evRamp)
	m.AddGuarded(st(consts.PhaseTransitionRamp), st(consts.PhaseOverTilt), evOverTilt,
		func() bool { return e.cfg.Ramp.OverTiltEnabled })
	m.Add(st(consts.PhaseTransitionRamp), st(consts.PhaseAirspeedReached), evAirspeed)
	m.Add(st(consts.PhaseOverTilt), st(consts.PhaseAirspeedReached), evAirspeed)
	m.Add(st(consts.PhaseAirspeedReached), st(consts.PhasePostAction), evPost)
	m.Add(st(consts.PhasePostAction), st(consts.PhaseCompleted), evComplete)

	for _, p := range []consts.Phase{
		consts.PhaseIdle, consts.PhaseArmingTakeoff, consts.PhaseInitialClimb,
		consts.PhaseSecondaryClimb, consts.PhaseTransitionRamp, consts.PhaseOverTilt,
		consts.PhaseAirspeedReached, consts.PhasePostAction,
	} {
		m.Add(st(p), st(consts.PhaseAborting), evAbort)
	}
	m.Add(st(consts.PhaseAborting), st(consts.PhaseFailed), evFail)
}

// Run drives the control loop at the configured cadence until a terminal
// phase is reached. Cancelling ctx requests a cooperative stop, which takes
// effect at the next cycle through the abort path.
func (e *Engine) Run(ctx context.Context) consts.TerminalStatus {
	interval := e.cfg.Transition.Interval()
	staleAfter := time.Duration(consts.TelemetryStaleCycles) * interval

	now := time.Now()
	sample, ok := e.tele.Latest()
	if !ok {
		sample = protocol.TelemetrySample{Timestamp: now}
	}
	e.begin(now, sample)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	done := ctx.Done()

	for !e.terminal() {
		select {
		case <-done:
			e.stop.Store(true)
			done = nil
		case t := <-ticker.C:
			e.cycle(t, staleAfter)
		}
	}
	return e.status
}

// Status reports the terminal outcome; valid once Run has returned.
func (e *Engine) Status() consts.TerminalStatus {
	return e.status
}

// FailReason reports the recorded abort reason for a FAILED run.
func (e *Engine) FailReason() consts.AbortReason {
	if e.tc == nil {
		return ""
	}
	return e.tc.AbortReason
}

// Snapshot returns the latest published run view. Safe for concurrent use by
// the monitor server.
func (e *Engine) Snapshot() Snapshot {
	if v := e.snapshot.Load(); v != nil {
		return v.(Snapshot)
	}
	return Snapshot{Phase: consts.PhaseIdle}
}

// begin creates the run context and leaves IDLE: arm and take off when
// enabled, otherwise engage offboard and start the initial climb directly.
func (e *Engine) begin(now time.Time, sample protocol.TelemetrySample) {
	e.tc = NewContext(now, sample.AltitudeM, e.yawOverride)
	e.lastStamp = sample.Timestamp
	e.lastFresh = now
	e.lastSample = sample

	if e.cfg.Transition.EnableTakeoff {
		if err := e.cmds.Arm(); err != nil {
			logger.Log.Error("arming rejected", "err", err)
			e.abort(consts.AbortCommandRejected, now, sample)
			return
		}
		if err := e.cmds.Takeoff(); err != nil {
			logger.Log.Error("takeoff rejected", "err", err)
			e.abort(consts.AbortCommandRejected, now, sample)
			return
		}
		e.advance(evLaunch, now, sample)
		return
	}

	if err := e.engageOffboard(); err != nil {
		logger.Log.Error("offboard engage rejected", "err", err)
		e.abort(consts.AbortCommandRejected, now, sample)
		return
	}
	e.advance(evSkipTakeoff, now, sample)
}

// cycle runs one control iteration: refresh telemetry, detect staleness, then
// step the state machine with the freshest sample available.
func (e *Engine) cycle(now time.Time, staleAfter time.Duration) {
	start := time.Now()

	sample, ok := e.tele.Latest()
	if ok && sample.Timestamp.After(e.lastStamp) {
		e.lastStamp = sample.Timestamp
		e.lastFresh = now
		e.lastSample = sample
	} else if now.Sub(e.lastFresh) > staleAfter {
		// the loop must not proceed blind
		e.abort(consts.AbortTelemetryTimeout, now, e.lastSample)
	}

	e.step(now, e.lastSample)
	e.publishSnapshot()
	monitor.CycleDuration.Observe(time.Since(start).Seconds())
}

// step evaluates one cycle: failsafe first (it preempts every forward rule),
// then the forward-progress rules of the current phase, then the generated
// command for whatever phase the cycle ended on.
func (e *Engine) step(now time.Time, sample protocol.TelemetrySample) {
	tc := e.tc
	if tc == nil || tc.Phase.Terminal() {
		return
	}

	if tc.Phase.TransitionGroup() && sample.AltitudeM > tc.PeakAltitude {
		tc.PeakAltitude = sample.AltitudeM
	}

	locked := e.safetyLock()
	if tc.Phase != consts.PhaseAborting {
		if e.stop.Load() {
			e.abort(consts.AbortOperatorStop, now, sample)
		} else if reason, hit := CheckFailsafe(tc, e.cfg, sample, now, locked); hit {
			e.abort(reason, now, sample)
		}
	}
	tc.SafetyLockSeen = locked

	switch tc.Phase {
	case consts.PhaseArmingTakeoff:
		if sample.AltitudeM >= e.cfg.Climb.InitialTakeoffHeight {
			if err := e.engageOffboard(); err != nil {
				e.noteRejection("engage offboard", &e.engageRejects, now, sample)
			} else {
				e.advance(evClimb, now, sample)
			}
		}

	case consts.PhaseInitialClimb:
		if sample.AltitudeM >= e.cfg.Climb.InitialClimbHeight {
			e.advance(evSecondary, now, sample)
		}

	case consts.PhaseSecondaryClimb:
		if sample.AltitudeM >= e.cfg.Climb.TransitionBaseAltitude {
			e.advance(evRamp, now, sample)
		}

	case consts.PhaseTransitionRamp:
		if sample.AirspeedMS >= e.cfg.Ramp.TransitionAirSpeed {
			e.advance(evAirspeed, now, sample)
		} else if now.Sub(tc.TransitionStart) >= protocol.Seconds(e.cfg.Ramp.ForwardTransitionTime) && e.machine.Can(evOverTilt) {
			e.advance(evOverTilt, now, sample)
		}

	case consts.PhaseOverTilt:
		if sample.AirspeedMS >= e.cfg.Ramp.TransitionAirSpeed {
			e.advance(evAirspeed, now, sample)
		}

	case consts.PhaseAirspeedReached:
		dur := protocol.Seconds(e.cfg.PostTransition.AccelerationDuration)
		if dur == 0 || now.Sub(tc.PhaseEnteredAt) >= dur {
			e.advance(evPost, now, sample)
		}

	case consts.PhasePostAction:
		if err := e.post.Execute(e.cfg.PostTransition.Action); err != nil {
			e.noteRejection("post-transition action", &e.postRejects, now, sample)
		} else {
			e.advance(evComplete, now, sample)
		}
	}

	// If dispatch itself escalates to an abort, the phase flips to ABORTING
	// mid-dispatch and the response commands go out on the next cycle; only a
	// dispatch that entered as ABORTING has already issued them.
	dispatchedAs := tc.Phase
	e.dispatch(GenerateCommand(tc.Phase, tc, e.cfg, now), now, sample)

	if dispatchedAs == consts.PhaseAborting && tc.Phase == consts.PhaseAborting {
		e.advance(evFail, now, sample)
	}

	if e.cfg.Transition.VerboseMode {
		logger.Log.Debug("telemetry",
			"phase", tc.Phase,
			"alt_m", sample.AltitudeM,
			"climb_m_s", sample.ClimbRateMS(),
			"airspeed_m_s", sample.AirspeedMS,
			"pitch_deg", sample.PitchDeg,
			"roll_deg", sample.RollDeg,
			"yaw_deg", sample.YawDeg,
			"throttle", tc.CommandedThrottle)
	}
}

func (e *Engine) dispatch(cmd Command, now time.Time, sample protocol.TelemetrySample) {
	for _, mode := range cmd.Modes {
		if err := e.cmds.SwitchMode(mode); err != nil {
			// abort responses are best-effort, never retried
			monitor.CommandRejections.Inc()
			logger.Log.Warn("mode switch rejected", "mode", mode, "err", err)
		} else {
			logger.Log.Info("mode switch issued", "mode", mode)
		}
	}

	if cmd.Setpoint == nil {
		return
	}
	sp := *cmd.Setpoint
	if err := e.cmds.SendSetpoint(sp); err != nil {
		e.noteRejection("setpoint", &e.setpointRejects, now, sample)
		return
	}
	e.setpointRejects = 0
	if sp.Kind == protocol.SetpointAttitude {
		e.tc.CommandedThrottle = sp.Thrust
		e.tc.CommandedTiltDeg = sp.PitchDeg
	}
}

// noteRejection counts a refused command. The command is regenerated and
// retried on the next cycle; a second refusal escalates to a failsafe abort.
func (e *Engine) noteRejection(op string, attempts *int, now time.Time, sample protocol.TelemetrySample) {
	monitor.CommandRejections.Inc()
	*attempts++
	logger.Log.Warn("command rejected", "op", op, "attempt", *attempts)
	if *attempts >= 2 {
		e.abort(consts.AbortCommandRejected, now, sample)
	}
}

func (e *Engine) abort(reason consts.AbortReason, now time.Time, sample protocol.TelemetrySample) {
	if e.tc.Phase == consts.PhaseAborting || e.tc.Phase.Terminal() {
		return
	}
	if e.tc.RecordAbort(reason) {
		monitor.FailsafeAborts.WithLabelValues(string(reason)).Inc()
		logger.Log.Warn("aborting transition", "reason", reason, "phase", e.tc.Phase)
	}
	e.advance(evAbort, now, sample)
}

func (e *Engine) advance(event fsm.Event, now time.Time, sample protocol.TelemetrySample) {
	from := e.tc.Phase
	next, err := e.machine.Fire(event)
	if err != nil {
		logger.Log.Error("illegal phase transition", "from", from, "event", event, "err", err)
		return
	}
	e.tc.Phase = consts.Phase(next)
	e.enterPhase(consts.Phase(next), now, sample)
	monitor.PhaseTransitions.WithLabelValues(string(from), string(next)).Inc()
	logger.Log.Info("phase transition", "from", from, "to", next)
}

func (e *Engine) enterPhase(p consts.Phase, now time.Time, sample protocol.TelemetrySample) {
	tc := e.tc
	tc.PhaseEnteredAt = now
	tc.PhaseEntryAltitude = sample.AltitudeM

	switch p {
	case consts.PhaseTransitionRamp:
		tc.TransitionStart = now
		tc.PeakAltitude = sample.AltitudeM
		tc.RampEntryThrottle = tc.CommandedThrottle
	case consts.PhaseAirspeedReached:
		tc.AccelNorthMS = sample.VelocityNorthMS
		tc.AccelEastMS = sample.VelocityEastMS
	case consts.PhaseCompleted:
		e.status = consts.StatusCompleted
	case consts.PhaseFailed:
		e.status = consts.StatusFailed
	}
}

// engageOffboard primes the stream with a neutral setpoint before requesting
// offboard mode, as the autopilot requires.
func (e *Engine) engageOffboard() error {
	if err := e.cmds.SendSetpoint(protocol.Setpoint{Kind: protocol.SetpointVelocity}); err != nil {
		return err
	}
	return e.cmds.SwitchMode(protocol.ModeOffboard)
}

func (e *Engine) terminal() bool {
	return e.tc != nil && e.tc.Phase.Terminal()
}

func (e *Engine) publishSnapshot() {
	e.snapshot.Store(Snapshot{
		Phase:             e.tc.Phase,
		AbortReason:       e.tc.AbortReason,
		AltitudeM:         e.lastSample.AltitudeM,
		AirspeedMS:        e.lastSample.AirspeedMS,
		CommandedThrottle: e.tc.CommandedThrottle,
		CommandedTiltDeg:  e.tc.CommandedTiltDeg,
	})
}
