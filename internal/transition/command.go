package transition

import (
	"math"
	"time"

	"github.com/alireza787b/mavsdk-vtol-transition/pkg/consts"
	"github.com/alireza787b/mavsdk-vtol-transition/pkg/protocol"
)

// Command is the per-cycle output of the generator: at most one setpoint plus
// any discrete mode switches, issued in order.
type Command struct {
	Setpoint *protocol.Setpoint
	Modes    []protocol.FlightMode
}

// GenerateCommand maps (phase, context, config, now) to one outbound command.
// It is deterministic and idempotent: identical inputs yield identical
// output, so the loop can safely resend after a transient rejection.
func GenerateCommand(phase consts.Phase, tc *Context, cfg *protocol.Config, now time.Time) Command {
	switch phase {
	case consts.PhaseInitialClimb:
		return velocityCommand(0, 0, -cfg.Climb.InitialClimbRate)

	case consts.PhaseSecondaryClimb:
		return velocityCommand(0, 0, -cfg.Climb.SecondaryClimbRate)

	case consts.PhaseTransitionRamp, consts.PhaseOverTilt:
		return Command{Setpoint: &protocol.Setpoint{
			Kind:     protocol.SetpointAttitude,
			PitchDeg: RampTilt(phase, tc, cfg, now),
			YawDeg:   tc.YawDeg(cfg),
			Thrust:   RampThrottle(tc, cfg, now),
		}}

	case consts.PhaseAirspeedReached:
		if cfg.PostTransition.AccelerationDuration == 0 {
			return Command{}
		}
		f := cfg.PostTransition.AccelerationFactor
		return velocityCommand(tc.AccelNorthMS*f, tc.AccelEastMS*f, 0)

	case consts.PhaseAborting:
		var modes []protocol.FlightMode
		if cfg.Failsafe.MulticopterOnAbort {
			modes = append(modes, protocol.ModeMulticopter)
		}
		if cfg.Failsafe.ReturnToLaunchOnAbort {
			modes = append(modes, protocol.ModeReturnToLaunch)
		}
		return Command{Modes: modes}
	}

	// IDLE, ARMING_TAKEOFF (autopilot takeoff), POST_ACTION (executor owns
	// the discrete command) and terminal phases issue nothing.
	return Command{}
}

// RampThrottle interpolates linearly from the ramp entry throttle to
// max_throttle over throttle_ramp_time, clamped at the end value. Progress is
// computed from absolute elapsed time since ramp entry, so a delayed cycle
// never overshoots.
func RampThrottle(tc *Context, cfg *protocol.Config, now time.Time) float64 {
	p := rampProgress(now.Sub(tc.TransitionStart), protocol.Seconds(cfg.Ramp.ThrottleRampTime))
	return tc.RampEntryThrottle + (cfg.Ramp.MaxThrottle-tc.RampEntryThrottle)*p
}

// RampTilt interpolates tilt from 0 to max_tilt_pitch over
// forward_transition_time. In OVER_TILT the tilt keeps growing at the same
// angular rate past max_tilt_pitch, clamped at max_allowed_tilt.
func RampTilt(phase consts.Phase, tc *Context, cfg *protocol.Config, now time.Time) float64 {
	sign := 1.0
	if cfg.Ramp.MaxTiltPitch < 0 {
		sign = -1.0
	}
	maxTilt := math.Abs(cfg.Ramp.MaxTiltPitch)

	if phase == consts.PhaseOverTilt {
		rate := maxTilt / cfg.Ramp.ForwardTransitionTime
		tilt := maxTilt + rate*now.Sub(tc.PhaseEnteredAt).Seconds()
		return sign * math.Min(tilt, math.Abs(cfg.Ramp.MaxAllowedTilt))
	}

	p := rampProgress(now.Sub(tc.TransitionStart), protocol.Seconds(cfg.Ramp.ForwardTransitionTime))
	return sign * maxTilt * p
}

func rampProgress(elapsed, total time.Duration) float64 {
	if total <= 0 {
		return 1
	}
	p := float64(elapsed) / float64(total)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

func velocityCommand(north, east, down float64) Command {
	return Command{Setpoint: &protocol.Setpoint{
		Kind:    protocol.SetpointVelocity,
		NorthMS: north,
		EastMS:  east,
		DownMS:  down,
	}}
}
