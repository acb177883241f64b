package protocol

import (
	"time"

	"github.com/alireza787b/mavsdk-vtol-transition/pkg/consts"
)

// Config represents the root transition parameter set. It is loaded from YAML
// once, validated, and treated as immutable for the whole run.
type Config struct {
	Version        string                 `yaml:"version"`
	Transition     TransitionSettings     `yaml:"transition"`
	Climb          ClimbSettings          `yaml:"climb"`
	Ramp           RampSettings           `yaml:"ramp"`
	PostTransition PostTransitionSettings `yaml:"post_transition"`
	Failsafe       FailsafeSettings       `yaml:"failsafe"`
	Connection     ConnectionSettings     `yaml:"connection"`
	Observability  ObservabilitySettings  `yaml:"observability"`
}

type TransitionSettings struct {
	Type          consts.TransitionKind `yaml:"type"`
	CycleInterval float64               `yaml:"cycle_interval"` // seconds
	EnableTakeoff bool                  `yaml:"enable_takeoff"`
	SafetyLock    bool                  `yaml:"safety_lock"`
	VerboseMode   bool                  `yaml:"verbose_mode"`
}

// Interval returns the control loop cadence as a duration.
func (t TransitionSettings) Interval() time.Duration {
	return Seconds(t.CycleInterval)
}

type ClimbSettings struct {
	InitialTakeoffHeight   float64 `yaml:"initial_takeoff_height"`   // m
	InitialClimbRate       float64 `yaml:"initial_climb_rate"`       // m/s
	InitialClimbHeight     float64 `yaml:"initial_climb_height"`     // m
	SecondaryClimbRate     float64 `yaml:"secondary_climb_rate"`     // m/s
	TransitionBaseAltitude float64 `yaml:"transition_base_altitude"` // m
}

type RampSettings struct {
	TransitionYawAngle    float64 `yaml:"transition_yaw_angle"`    // deg
	ThrottleRampTime      float64 `yaml:"throttle_ramp_time"`      // s
	MaxThrottle           float64 `yaml:"max_throttle"`            // 0..1
	MaxTiltPitch          float64 `yaml:"max_tilt_pitch"`          // deg
	ForwardTransitionTime float64 `yaml:"forward_transition_time"` // s
	OverTiltEnabled       bool    `yaml:"over_tilt_enabled"`
	MaxAllowedTilt        float64 `yaml:"max_allowed_tilt"`   // deg
	TransitionAirSpeed    float64 `yaml:"transition_air_speed"` // m/s
}

type PostTransitionSettings struct {
	AccelerationFactor   float64                     `yaml:"acceleration_factor"`
	AccelerationDuration float64                     `yaml:"acceleration_duration"` // s, 0 skips
	Action               consts.PostTransitionAction `yaml:"action"`
}

type FailsafeSettings struct {
	AltitudeThreshold  float64 `yaml:"altitude_failsafe_threshold"`   // m
	ClimbRateThreshold float64 `yaml:"climb_rate_failsafe_threshold"` // m/s, may be negative
	AltitudeLossLimit  float64 `yaml:"altitude_loss_limit"`           // m, since ramp entry
	MaxPitch           float64 `yaml:"max_pitch_failsafe"`            // deg
	MaxRoll            float64 `yaml:"max_roll_failsafe"`             // deg
	MaxAltitude        float64 `yaml:"max_altitude_failsafe"`         // m
	TransitionTimeout  float64 `yaml:"transition_timeout"`            // s

	ReturnToLaunchOnAbort bool `yaml:"return_to_launch_on_abort"`
	MulticopterOnAbort    bool `yaml:"multicopter_transition_on_abort"`
}

type ConnectionSettings struct {
	Endpoint string  `yaml:"endpoint"` // e.g. sim://
	Attempts int     `yaml:"attempts"`
	Backoff  float64 `yaml:"backoff"` // seconds, doubled per attempt
}

type ObservabilitySettings struct {
	LogLevel    string `yaml:"log_level"`
	LogFile     string `yaml:"log_file"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// Seconds converts a fractional-seconds config value to a duration.
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// TelemetrySample is one timestamped snapshot of vehicle state, consumed
// read-only by the control loop once per cycle.
type TelemetrySample struct {
	AltitudeM float64

	// NED velocity, m/s
	VelocityNorthMS float64
	VelocityEastMS  float64
	VelocityDownMS  float64

	// attitude, deg
	PitchDeg float64
	RollDeg  float64
	YawDeg   float64

	AirspeedMS float64

	// Timestamp must be monotonic across samples from one link.
	Timestamp time.Time
}

// ClimbRateMS derives the climb rate from the NED down velocity.
func (s TelemetrySample) ClimbRateMS() float64 {
	return -s.VelocityDownMS
}

// SetpointKind selects which fields of a Setpoint are meaningful.
type SetpointKind string

const (
	SetpointVelocity SetpointKind = "velocity"
	SetpointAttitude SetpointKind = "attitude"
)

// Setpoint is one outbound offboard command: either an NED velocity or an
// attitude with normalized thrust.
type Setpoint struct {
	Kind SetpointKind

	// velocity kind, m/s NED
	NorthMS float64
	EastMS  float64
	DownMS  float64

	// attitude kind, deg + thrust 0..1
	RollDeg  float64
	PitchDeg float64
	YawDeg   float64
	Thrust   float64
}

// FlightMode is a discrete mode-switch request.
type FlightMode string

const (
	ModeOffboard       FlightMode = "offboard"
	ModeReturnToLaunch FlightMode = "return_to_launch"
	ModeMulticopter    FlightMode = "multicopter"
	ModeMission        FlightMode = "mission"
	ModeHold           FlightMode = "hold"
)
