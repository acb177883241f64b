package transition

import (
	"github.com/alireza787b/mavsdk-vtol-transition/internal/link"
	"github.com/alireza787b/mavsdk-vtol-transition/pkg/consts"
	"github.com/alireza787b/mavsdk-vtol-transition/pkg/protocol"
)

// Executor issues the terminal post-transition action. Each action maps to a
// single discrete command; the executor only waits for acceptance, never for
// the maneuver itself to finish.
type Executor struct {
	cmds link.CommandLink
}

func NewExecutor(cmds link.CommandLink) *Executor {
	return &Executor{cmds: cmds}
}

func (x *Executor) Execute(action consts.PostTransitionAction) error {
	return x.cmds.SwitchMode(ActionMode(action))
}

// ActionMode maps a post-transition action to the mode switch that realizes
// it. Continuing on the current heading re-asserts offboard so the vehicle
// keeps flying the last commanded track.
func ActionMode(action consts.PostTransitionAction) protocol.FlightMode {
	switch action {
	case consts.ActionReturnToLaunch:
		return protocol.ModeReturnToLaunch
	case consts.ActionStartMission:
		return protocol.ModeMission
	case consts.ActionHold:
		return protocol.ModeHold
	default:
		return protocol.ModeOffboard
	}
}
