package transition

import (
	"math"
	"time"

	"github.com/alireza787b/mavsdk-vtol-transition/pkg/consts"
	"github.com/alireza787b/mavsdk-vtol-transition/pkg/protocol"
)

// CheckFailsafe evaluates the latest telemetry sample against every configured
// threshold. It is a pure function; the engine calls it once per cycle before
// any forward-progress rule, so a triggered reason preempts the cycle's phase
// advance. Checks are independent and evaluated in a fixed order; the first
// hit is returned.
func CheckFailsafe(tc *Context, cfg *protocol.Config, s protocol.TelemetrySample, now time.Time, lockEngaged bool) (consts.AbortReason, bool) {
	fs := &cfg.Failsafe

	if s.AltitudeM < fs.AltitudeThreshold {
		return consts.AbortAltitudeTooLow, true
	}

	// The threshold sign is data: negative tolerates an intentional dive,
	// a small positive value enforces a minimum climb.
	if s.ClimbRateMS() < fs.ClimbRateThreshold {
		return consts.AbortClimbRateTooLow, true
	}

	if !tc.TransitionStart.IsZero() && tc.PeakAltitude-s.AltitudeM > fs.AltitudeLossLimit {
		return consts.AbortExcessiveAltitudeLoss, true
	}

	if math.Abs(s.PitchDeg) > fs.MaxPitch || math.Abs(s.RollDeg) > fs.MaxRoll {
		return consts.AbortAttitudeExceeded, true
	}

	if s.AltitudeM > fs.MaxAltitude {
		return consts.AbortAltitudeTooHigh, true
	}

	if tc.Phase.TransitionGroup() && now.Sub(tc.TransitionStart) > protocol.Seconds(fs.TransitionTimeout) {
		return consts.AbortTransitionTimeout, true
	}

	if lockEngaged && !tc.SafetyLockSeen {
		return consts.AbortSafetyLockEngaged, true
	}

	return "", false
}
