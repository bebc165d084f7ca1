package command

import (
	"context"
	"fmt"
	"time"

	"github.com/skyward-ai/skyward/internal/device"
	"github.com/skyward-ai/skyward/internal/graph"
)

// Simulator executes node operations locally with plausible, deterministic
// state deltas. It stands in for the command channel whenever the channel is
// unavailable or a node kind has no remote mapping, trading fidelity for
// availability: simulated execution always succeeds.
type Simulator struct {
	delay time.Duration
}

// NewSimulator creates a simulator applying the given artificial delay per
// operation. A zero delay is valid and used in tests.
func NewSimulator(delay time.Duration) *Simulator {
	return &Simulator{delay: delay}
}

// Execute applies the node's state delta to a copy of state and returns the
// updated snapshot with a descriptive message. The artificial delay is
// interruptible through ctx; on cancellation the unmodified state is
// returned with an empty message and the context error.
func (s *Simulator) Execute(ctx context.Context, node *graph.Node, state device.State) (device.State, string, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return state, "", ctx.Err()
		}
	}

	switch node.Kind {
	case graph.NodeKindStart:
		state.Connected = true
		state.Status = device.StatusIdle
		return state, "connected to device", nil

	case graph.NodeKindEnd:
		state.Connected = false
		state.Status = device.StatusIdle
		return state, "mission teardown complete", nil

	case graph.NodeKindTakeoff:
		altitude := node.ParamFloat("altitude", 10)
		state.Altitude = altitude
		state.Status = device.StatusFlying
		state.DrainBattery(2)
		return state, fmt.Sprintf("took off to %.0fm", altitude), nil

	case graph.NodeKindLand:
		state.Altitude = 0
		state.Status = device.StatusIdle
		state.DrainBattery(1)
		return state, "landed", nil

	case graph.NodeKindHover:
		duration := node.ParamFloat("duration", 5)
		state.Status = device.StatusHovering
		cost := int(duration / 10)
		if cost < 1 {
			cost = 1
		}
		state.DrainBattery(cost)
		return state, fmt.Sprintf("hovered for %.0fs", duration), nil

	case graph.NodeKindFlyTo:
		lat := node.ParamFloat("lat", state.Position.Lat)
		lng := node.ParamFloat("lng", state.Position.Lng)
		state.Position = device.Position{Lat: lat, Lng: lng}
		state.Altitude = node.ParamFloat("altitude", state.Altitude)
		state.Status = device.StatusFlying
		state.DrainBattery(2)
		return state, fmt.Sprintf("flew to %.4f,%.4f", lat, lng), nil

	case graph.NodeKindPhoto:
		count := node.ParamInt("count", 1)
		state.DrainBattery(1)
		return state, fmt.Sprintf("captured %d photo(s)", count), nil

	case graph.NodeKindVideo:
		action := node.ParamString("action", "start")
		state.Recording = action != "stop"
		state.DrainBattery(1)
		return state, fmt.Sprintf("video recording %s", action), nil

	case graph.NodeKindBatteryCheck:
		// Battery checks read telemetry without consuming it; the dispatcher
		// assembles the {battery, threshold, isLow} triple from the result.
		threshold := node.ParamInt("threshold", 20)
		return state, fmt.Sprintf("battery at %d%% (threshold %d%%)", state.Battery, threshold), nil

	case graph.NodeKindReturnHome:
		state.Position = state.Home
		state.Altitude = 0
		state.Status = device.StatusIdle
		state.DrainBattery(2)
		return state, "returned to home position", nil

	case graph.NodeKindAreaInspection:
		state.Status = device.StatusFlying
		state.DrainBattery(3)
		return state, "area inspection sweep complete", nil

	case graph.NodeKindCondition, graph.NodeKindParallelFork, graph.NodeKindParallelJoin:
		return state, "branch point evaluated", nil

	default:
		return state, fmt.Sprintf("no handler for node type %q, skipped", node.Kind), nil
	}
}
