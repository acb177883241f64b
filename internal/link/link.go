package link

import (
	"errors"

	"github.com/alireza787b/mavsdk-vtol-transition/pkg/protocol"
)

// ErrRejected is returned by a CommandLink when the vehicle refuses a command.
// The control loop retries a rejected setpoint at most once before escalating
// to a failsafe abort.
var ErrRejected = errors.New("command rejected by vehicle")

// TelemetryLink supplies the latest timestamped vehicle state sample. Latest
// never blocks; ok is false while no sample has been received yet.
type TelemetryLink interface {
	Latest() (sample protocol.TelemetrySample, ok bool)
}

// CommandLink accepts setpoint commands and discrete requests. All methods
// report acceptance synchronously; a rejection surfaces as ErrRejected.
type CommandLink interface {
	SendSetpoint(sp protocol.Setpoint) error
	SwitchMode(mode protocol.FlightMode) error
	Arm() error
	Takeoff() error
}
