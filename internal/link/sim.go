package link

import (
	"math"
	"sync"
	"time"

	"github.com/alireza787b/mavsdk-vtol-transition/pkg/protocol"
)

const (
	simTakeoffClimbMS = 2.0  // autopilot climb between Takeoff and offboard
	simThrustAccel    = 10.0 // airspeed gain, m/s^2 per unit of tilted thrust
	simLiftGain       = 6.0  // vertical speed per unit of upright thrust, m/s
	simSinkRate       = 2.0  // constant sink opposing lift, m/s
)

// Sim is a loopback vehicle for the sim:// endpoint. Each Latest poll advances
// simple kinematics by one fixed step using the most recent commanded
// setpoint, so the full control loop can run and be tested without a live
// vehicle or network connection.
type Sim struct {
	mu sync.Mutex

	step   time.Duration
	now    time.Time
	sample protocol.TelemetrySample

	armed    bool
	airborne bool
	offboard bool
	setpoint *protocol.Setpoint

	modes      []protocol.FlightMode
	rejectNext int
}

func NewSim(step time.Duration) *Sim {
	return &Sim{
		step: step,
		now:  time.Now(),
	}
}

// Latest advances the simulation one step and returns the resulting sample.
// Timestamps are strictly monotonic.
func (s *Sim) Latest() (protocol.TelemetrySample, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.advance()
	return s.sample, true
}

func (s *Sim) SendSetpoint(sp protocol.Setpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rejectNext > 0 {
		s.rejectNext--
		return ErrRejected
	}
	cp := sp
	s.setpoint = &cp
	return nil
}

func (s *Sim) SwitchMode(mode protocol.FlightMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rejectNext > 0 {
		s.rejectNext--
		return ErrRejected
	}
	s.modes = append(s.modes, mode)
	s.offboard = mode == protocol.ModeOffboard
	return nil
}

func (s *Sim) Arm() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.armed = true
	return nil
}

func (s *Sim) Takeoff() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.armed {
		s.airborne = true
	}
	return nil
}

// Modes returns every mode switch accepted so far, in order.
func (s *Sim) Modes() []protocol.FlightMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]protocol.FlightMode, len(s.modes))
	copy(out, s.modes)
	return out
}

// RejectNext makes the next n commands report ErrRejected.
func (s *Sim) RejectNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectNext = n
}

func (s *Sim) advance() {
	dt := s.step.Seconds()
	s.now = s.now.Add(s.step)

	switch {
	case s.offboard && s.setpoint != nil && s.setpoint.Kind == protocol.SetpointVelocity:
		sp := s.setpoint
		s.sample.VelocityNorthMS = sp.NorthMS
		s.sample.VelocityEastMS = sp.EastMS
		s.sample.VelocityDownMS = sp.DownMS
		s.sample.AltitudeM -= sp.DownMS * dt
		// hover attitude while under velocity control
		s.sample.PitchDeg = 0
		s.sample.RollDeg = 0
		s.sample.AirspeedMS = math.Hypot(sp.NorthMS, sp.EastMS)

	case s.offboard && s.setpoint != nil && s.setpoint.Kind == protocol.SetpointAttitude:
		sp := s.setpoint
		s.sample.PitchDeg = sp.PitchDeg
		s.sample.RollDeg = sp.RollDeg
		s.sample.YawDeg = sp.YawDeg

		rad := sp.PitchDeg * math.Pi / 180
		s.sample.AirspeedMS += sp.Thrust * math.Sin(rad) * simThrustAccel * dt
		if s.sample.AirspeedMS < 0 {
			s.sample.AirspeedMS = 0
		}
		climb := sp.Thrust*math.Cos(rad)*simLiftGain - simSinkRate
		s.sample.VelocityDownMS = -climb
		s.sample.VelocityNorthMS = s.sample.AirspeedMS
		s.sample.AltitudeM += climb * dt

	case s.airborne:
		// autopilot takeoff climb until offboard control takes over
		s.sample.VelocityDownMS = -simTakeoffClimbMS
		s.sample.AltitudeM += simTakeoffClimbMS * dt

	default:
		s.sample.VelocityDownMS = 0
	}

	if s.sample.AltitudeM < 0 {
		s.sample.AltitudeM = 0
	}
	s.sample.Timestamp = s.now
}
