package consts

import "time"

// TransitionKind selects the transition program driving a run.
type TransitionKind string

const (
	// KindTailsitterPitchProgram pitches the whole airframe forward on a
	// scripted throttle/tilt ramp until airspeed confirms fixed-wing flight.
	KindTailsitterPitchProgram TransitionKind = "tailsitter_pitch_program"
)

// Phase is the lifecycle state of one transition run.
type Phase string

const (
	PhaseIdle            Phase = "IDLE"
	PhaseArmingTakeoff   Phase = "ARMING_TAKEOFF"
	PhaseInitialClimb    Phase = "INITIAL_CLIMB"
	PhaseSecondaryClimb  Phase = "SECONDARY_CLIMB"
	PhaseTransitionRamp  Phase = "TRANSITION_RAMP"
	PhaseOverTilt        Phase = "OVER_TILT"
	PhaseAirspeedReached Phase = "AIRSPEED_REACHED"
	PhasePostAction      Phase = "POST_ACTION"
	PhaseCompleted       Phase = "COMPLETED"
	PhaseAborting        Phase = "ABORTING"
	PhaseFailed          Phase = "FAILED"
)

// Terminal reports whether the run is over in this phase.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseFailed
}

// TransitionGroup reports whether the phase belongs to the throttle/tilt ramp
// group. Altitude-loss tracking and the transition timeout apply only here.
func (p Phase) TransitionGroup() bool {
	return p == PhaseTransitionRamp || p == PhaseOverTilt
}

// AbortReason identifies which failsafe condition forced the run into ABORTING.
type AbortReason string

const (
	AbortAltitudeTooLow        AbortReason = "ALTITUDE_TOO_LOW"
	AbortClimbRateTooLow       AbortReason = "CLIMB_RATE_TOO_LOW"
	AbortExcessiveAltitudeLoss AbortReason = "EXCESSIVE_ALTITUDE_LOSS"
	AbortAttitudeExceeded      AbortReason = "ATTITUDE_EXCEEDED"
	AbortAltitudeTooHigh       AbortReason = "ALTITUDE_TOO_HIGH"
	AbortTransitionTimeout     AbortReason = "TRANSITION_TIMEOUT"
	AbortSafetyLockEngaged     AbortReason = "SAFETY_LOCK_ENGAGED"
	AbortTelemetryTimeout      AbortReason = "TELEMETRY_TIMEOUT"
	AbortCommandRejected       AbortReason = "COMMAND_REJECTED"
	AbortOperatorStop          AbortReason = "OPERATOR_STOP"
)

// PostTransitionAction is the terminal maneuver issued once fixed-wing flight
// is confirmed. Values match the original configuration vocabulary.
type PostTransitionAction string

const (
	ActionReturnToLaunch  PostTransitionAction = "return_to_launch"
	ActionStartMission    PostTransitionAction = "start_mission_from_waypoint"
	ActionHold            PostTransitionAction = "hold"
	ActionContinueHeading PostTransitionAction = "continue_current_heading"
)

// TerminalStatus is the run outcome reported to the CLI layer.
type TerminalStatus string

const (
	StatusCompleted       TerminalStatus = "COMPLETED"
	StatusFailed          TerminalStatus = "FAILED"
	StatusConfigError     TerminalStatus = "CONFIG_ERROR"
	StatusConnectionError TerminalStatus = "CONNECTION_ERROR"
)

const (
	// TelemetryStaleCycles is the bounded multiple of the cycle interval a
	// telemetry wait may span before the run aborts with TELEMETRY_TIMEOUT.
	TelemetryStaleCycles = 3

	DefaultConnectAttempts = 5
	DefaultConnectBackoff  = 1 * time.Second
)
