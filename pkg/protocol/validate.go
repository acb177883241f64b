package protocol

import (
	"fmt"
	"math"

	"github.com/alireza787b/mavsdk-vtol-transition/pkg/consts"
	"github.com/alireza787b/mavsdk-vtol-transition/pkg/errors"
)

// Validate checks every invariant of the parameter set. It must pass before
// the state machine starts; a failure maps to the CONFIG_ERROR terminal
// status and no command is ever issued.
func (c *Config) Validate() error {
	var problems []string

	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	switch c.Transition.Type {
	case consts.KindTailsitterPitchProgram:
	case "":
		add("transition.type is required")
	default:
		add("transition.type %q is not a known transition kind", c.Transition.Type)
	}

	if c.Transition.CycleInterval <= 0 {
		add("transition.cycle_interval must be > 0, got %v", c.Transition.CycleInterval)
	}
	if c.Transition.SafetyLock {
		add("transition.safety_lock is engaged; refusing to start a run")
	}

	if c.Climb.InitialTakeoffHeight <= 0 {
		add("climb.initial_takeoff_height must be > 0, got %v", c.Climb.InitialTakeoffHeight)
	}
	if c.Climb.InitialClimbRate <= 0 {
		add("climb.initial_climb_rate must be > 0, got %v", c.Climb.InitialClimbRate)
	}
	if c.Climb.SecondaryClimbRate <= 0 {
		add("climb.secondary_climb_rate must be > 0, got %v", c.Climb.SecondaryClimbRate)
	}
	if c.Climb.InitialClimbHeight < c.Climb.InitialTakeoffHeight {
		add("climb.initial_climb_height %v is below climb.initial_takeoff_height %v",
			c.Climb.InitialClimbHeight, c.Climb.InitialTakeoffHeight)
	}
	if c.Climb.TransitionBaseAltitude < c.Climb.InitialClimbHeight {
		add("climb.transition_base_altitude %v is below climb.initial_climb_height %v",
			c.Climb.TransitionBaseAltitude, c.Climb.InitialClimbHeight)
	}

	if c.Ramp.ThrottleRampTime <= 0 {
		add("ramp.throttle_ramp_time must be > 0, got %v", c.Ramp.ThrottleRampTime)
	}
	if c.Ramp.ForwardTransitionTime <= 0 {
		add("ramp.forward_transition_time must be > 0, got %v", c.Ramp.ForwardTransitionTime)
	}
	if c.Ramp.MaxThrottle < 0 || c.Ramp.MaxThrottle > 1 {
		add("ramp.max_throttle must be within [0,1], got %v", c.Ramp.MaxThrottle)
	}
	if c.Ramp.TransitionAirSpeed <= 0 {
		add("ramp.transition_air_speed must be > 0, got %v", c.Ramp.TransitionAirSpeed)
	}
	if c.Ramp.OverTiltEnabled && math.Abs(c.Ramp.MaxAllowedTilt) < math.Abs(c.Ramp.MaxTiltPitch) {
		add("ramp.max_allowed_tilt magnitude %v must be >= ramp.max_tilt_pitch magnitude %v when over-tilt is enabled",
			math.Abs(c.Ramp.MaxAllowedTilt), math.Abs(c.Ramp.MaxTiltPitch))
	}

	if c.PostTransition.AccelerationDuration < 0 {
		add("post_transition.acceleration_duration must be >= 0, got %v", c.PostTransition.AccelerationDuration)
	}
	if c.PostTransition.AccelerationDuration > 0 && c.PostTransition.AccelerationFactor <= 0 {
		add("post_transition.acceleration_factor must be > 0 when a duration is set, got %v", c.PostTransition.AccelerationFactor)
	}
	switch c.PostTransition.Action {
	case consts.ActionReturnToLaunch, consts.ActionStartMission, consts.ActionHold, consts.ActionContinueHeading:
	case "":
		add("post_transition.action is required")
	default:
		add("post_transition.action %q is not one of the four supported actions", c.PostTransition.Action)
	}

	if c.Failsafe.TransitionTimeout <= 0 {
		add("failsafe.transition_timeout must be > 0, got %v", c.Failsafe.TransitionTimeout)
	}
	if c.Failsafe.AltitudeLossLimit <= 0 {
		add("failsafe.altitude_loss_limit must be > 0, got %v", c.Failsafe.AltitudeLossLimit)
	}
	if c.Failsafe.MaxPitch <= 0 {
		add("failsafe.max_pitch_failsafe must be > 0, got %v", c.Failsafe.MaxPitch)
	}
	if c.Failsafe.MaxRoll <= 0 {
		add("failsafe.max_roll_failsafe must be > 0, got %v", c.Failsafe.MaxRoll)
	}
	if c.Failsafe.MaxAltitude <= c.Climb.TransitionBaseAltitude {
		add("failsafe.max_altitude_failsafe %v must be above climb.transition_base_altitude %v",
			c.Failsafe.MaxAltitude, c.Climb.TransitionBaseAltitude)
	}

	if c.Connection.Attempts < 0 {
		add("connection.attempts must be >= 0, got %d", c.Connection.Attempts)
	}
	if c.Connection.Backoff < 0 {
		add("connection.backoff must be >= 0, got %v", c.Connection.Backoff)
	}

	if len(problems) > 0 {
		msg := problems[0]
		if len(problems) > 1 {
			msg = fmt.Sprintf("%s (and %d more problems)", problems[0], len(problems)-1)
		}
		return errors.New(errors.ErrCodeConfigInvalid, "Validate", msg, nil)
	}
	return nil
}
