package transition

import (
	"time"

	"github.com/alireza787b/mavsdk-vtol-transition/pkg/consts"
	"github.com/alireza787b/mavsdk-vtol-transition/pkg/protocol"
)

// Context is the run's only mutable state. It is owned exclusively by the
// engine's control loop: created at run start, mutated once per cycle, and
// discarded when a terminal phase is reached. No locking is needed because no
// other component may touch it.
type Context struct {
	Phase consts.Phase

	RunStart         time.Time
	RunStartAltitude float64

	PhaseEnteredAt     time.Time
	PhaseEntryAltitude float64

	// TransitionStart is set when the ramp phase group is entered and stays
	// fixed through OVER_TILT. Zero until then.
	TransitionStart time.Time
	// PeakAltitude tracks the highest altitude seen since TransitionStart,
	// for the altitude-loss failsafe.
	PeakAltitude float64

	// RampEntryThrottle is the commanded throttle at ramp entry; the ramp
	// interpolates from it to max_throttle.
	RampEntryThrottle float64
	CommandedThrottle float64
	CommandedTiltDeg  float64

	// Horizontal velocity captured on AIRSPEED_REACHED entry; the
	// acceleration sub-step scales it by the configured factor.
	AccelNorthMS float64
	AccelEastMS  float64

	// AbortReason is recorded once; later abort causes never overwrite it.
	AbortReason consts.AbortReason

	// YawOverrideDeg overrides transition_yaw_angle for this run. A negative
	// value keeps the configured yaw (the original CLI's -1 convention).
	YawOverrideDeg float64

	// SafetyLockSeen is the lock value observed on the previous cycle, for
	// false->true edge detection.
	SafetyLockSeen bool
}

func NewContext(now time.Time, altitude, yawOverride float64) *Context {
	return &Context{
		Phase:            consts.PhaseIdle,
		RunStart:         now,
		RunStartAltitude: altitude,
		PhaseEnteredAt:   now,
		YawOverrideDeg:   yawOverride,
	}
}

// RecordAbort stores the first abort reason and reports whether it was
// recorded. Subsequent reasons are dropped for diagnostics stability.
func (tc *Context) RecordAbort(reason consts.AbortReason) bool {
	if tc.AbortReason != "" {
		return false
	}
	tc.AbortReason = reason
	return true
}

// YawDeg resolves the yaw setpoint for the ramp: the CLI override when one
// was given, otherwise the configured transition yaw.
func (tc *Context) YawDeg(cfg *protocol.Config) float64 {
	if tc.YawOverrideDeg >= 0 {
		return tc.YawOverrideDeg
	}
	return cfg.Ramp.TransitionYawAngle
}
