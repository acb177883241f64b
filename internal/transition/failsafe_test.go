package transition

import (
	"testing"
	"time"

	"github.com/alireza787b/mavsdk-vtol-transition/pkg/consts"
	"github.com/alireza787b/mavsdk-vtol-transition/pkg/protocol"
)

func failsafeConfig() *protocol.Config {
	return &protocol.Config{
		Failsafe: protocol.FailsafeSettings{
			AltitudeThreshold:  8.0,
			ClimbRateThreshold: -15.0,
			AltitudeLossLimit:  10.0,
			MaxPitch:           130.0,
			MaxRoll:            25.0,
			MaxAltitude:        80.0,
			TransitionTimeout:  120.0,
		},
	}
}

func safeSample() protocol.TelemetrySample {
	return protocol.TelemetrySample{AltitudeM: 50.0}
}

func TestCheckFailsafe_NoTrigger(t *testing.T) {
	tc := NewContext(time.Now(), 0, -1)
	if reason, hit := CheckFailsafe(tc, failsafeConfig(), safeSample(), time.Now(), false); hit {
		t.Fatalf("unexpected trigger: %v", reason)
	}
}

func TestCheckFailsafe_AltitudeTooLow_IndependentOfPhase(t *testing.T) {
	cfg := failsafeConfig()
	s := safeSample()
	s.AltitudeM = 7.9

	for _, phase := range []consts.Phase{consts.PhaseIdle, consts.PhaseSecondaryClimb, consts.PhaseOverTilt} {
		tc := NewContext(time.Now(), 0, -1)
		tc.Phase = phase
		reason, hit := CheckFailsafe(tc, cfg, s, time.Now(), false)
		if !hit || reason != consts.AbortAltitudeTooLow {
			t.Errorf("phase %s: got (%v,%v), want AltitudeTooLow", phase, reason, hit)
		}
	}

	// exactly at the threshold is not below it
	s.AltitudeM = 8.0
	tc := NewContext(time.Now(), 0, -1)
	if reason, hit := CheckFailsafe(tc, cfg, s, time.Now(), false); hit {
		t.Errorf("altitude == threshold triggered %v", reason)
	}
}

func TestCheckFailsafe_ClimbRateTooLow(t *testing.T) {
	cfg := failsafeConfig()
	tc := NewContext(time.Now(), 0, -1)

	s := safeSample()
	s.VelocityDownMS = 16.0 // climb rate -16 m/s
	reason, hit := CheckFailsafe(tc, cfg, s, time.Now(), false)
	if !hit || reason != consts.AbortClimbRateTooLow {
		t.Fatalf("got (%v,%v), want ClimbRateTooLow", reason, hit)
	}

	s.VelocityDownMS = 14.0 // -14 m/s is within the intentional dive budget
	if reason, hit := CheckFailsafe(tc, cfg, s, time.Now(), false); hit {
		t.Errorf("dive within threshold triggered %v", reason)
	}
}

func TestCheckFailsafe_PositiveClimbThreshold(t *testing.T) {
	// climb-pitch-program configs demand a minimum climb; the sign is data
	cfg := failsafeConfig()
	cfg.Failsafe.ClimbRateThreshold = 0.1
	tc := NewContext(time.Now(), 0, -1)

	s := safeSample()
	s.VelocityDownMS = 0 // hovering: climb rate 0 < 0.1
	reason, hit := CheckFailsafe(tc, cfg, s, time.Now(), false)
	if !hit || reason != consts.AbortClimbRateTooLow {
		t.Fatalf("got (%v,%v), want ClimbRateTooLow", reason, hit)
	}
}

func TestCheckFailsafe_ExcessiveAltitudeLoss(t *testing.T) {
	cfg := failsafeConfig()
	now := time.Now()

	tc := NewContext(now, 0, -1)
	tc.Phase = consts.PhaseOverTilt
	tc.TransitionStart = now.Add(-10 * time.Second)
	tc.PeakAltitude = 60.0

	s := safeSample()
	s.AltitudeM = 49.5 // 10.5 m below peak
	reason, hit := CheckFailsafe(tc, cfg, s, now, false)
	if !hit || reason != consts.AbortExcessiveAltitudeLoss {
		t.Fatalf("got (%v,%v), want ExcessiveAltitudeLoss", reason, hit)
	}

	// loss is only tracked from ramp entry
	tc2 := NewContext(now, 0, -1)
	tc2.PeakAltitude = 60.0
	if reason, hit := CheckFailsafe(tc2, cfg, s, now, false); hit {
		t.Errorf("loss triggered before ramp entry: %v", reason)
	}
}

func TestCheckFailsafe_AttitudeExceeded(t *testing.T) {
	cfg := failsafeConfig()
	tc := NewContext(time.Now(), 0, -1)

	s := safeSample()
	s.PitchDeg = -131.0
	reason, hit := CheckFailsafe(tc, cfg, s, time.Now(), false)
	if !hit || reason != consts.AbortAttitudeExceeded {
		t.Fatalf("pitch: got (%v,%v), want AttitudeExceeded", reason, hit)
	}

	s = safeSample()
	s.RollDeg = 26.0
	reason, hit = CheckFailsafe(tc, cfg, s, time.Now(), false)
	if !hit || reason != consts.AbortAttitudeExceeded {
		t.Fatalf("roll: got (%v,%v), want AttitudeExceeded", reason, hit)
	}
}

func TestCheckFailsafe_AltitudeTooHigh(t *testing.T) {
	cfg := failsafeConfig()
	tc := NewContext(time.Now(), 0, -1)

	s := safeSample()
	s.AltitudeM = 80.5
	reason, hit := CheckFailsafe(tc, cfg, s, time.Now(), false)
	if !hit || reason != consts.AbortAltitudeTooHigh {
		t.Fatalf("got (%v,%v), want AltitudeTooHigh", reason, hit)
	}
}

func TestCheckFailsafe_TransitionTimeout_ExactBoundary(t *testing.T) {
	cfg := failsafeConfig()
	start := time.Now()

	tc := NewContext(start, 0, -1)
	tc.Phase = consts.PhaseTransitionRamp
	tc.TransitionStart = start
	tc.PeakAltitude = 50.0

	at := start.Add(protocol.Seconds(cfg.Failsafe.TransitionTimeout))
	if reason, hit := CheckFailsafe(tc, cfg, safeSample(), at, false); hit {
		t.Errorf("timeout fired at exactly the deadline: %v", reason)
	}

	reason, hit := CheckFailsafe(tc, cfg, safeSample(), at.Add(time.Millisecond), false)
	if !hit || reason != consts.AbortTransitionTimeout {
		t.Fatalf("got (%v,%v), want TransitionTimeout", reason, hit)
	}

	// the clock only runs against the ramp phase group
	tc.Phase = consts.PhasePostAction
	if reason, hit := CheckFailsafe(tc, cfg, safeSample(), at.Add(time.Hour), false); hit {
		t.Errorf("timeout fired outside the transition group: %v", reason)
	}
}

func TestCheckFailsafe_SafetyLockEdge(t *testing.T) {
	cfg := failsafeConfig()
	tc := NewContext(time.Now(), 0, -1)

	reason, hit := CheckFailsafe(tc, cfg, safeSample(), time.Now(), true)
	if !hit || reason != consts.AbortSafetyLockEngaged {
		t.Fatalf("got (%v,%v), want SafetyLockEngaged", reason, hit)
	}

	// already-seen lock is not an edge
	tc.SafetyLockSeen = true
	if reason, hit := CheckFailsafe(tc, cfg, safeSample(), time.Now(), true); hit {
		t.Errorf("steady lock re-triggered: %v", reason)
	}
}

func TestCheckFailsafe_FirstCheckWinsWithinCycle(t *testing.T) {
	cfg := failsafeConfig()
	tc := NewContext(time.Now(), 0, -1)

	s := safeSample()
	s.AltitudeM = 5.0   // below minimum
	s.PitchDeg = 140.0  // and over max pitch
	reason, _ := CheckFailsafe(tc, cfg, s, time.Now(), false)
	if reason != consts.AbortAltitudeTooLow {
		t.Errorf("got %v, want the first check in order (AltitudeTooLow)", reason)
	}
}
