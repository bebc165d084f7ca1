package command

import (
	"context"
	"log/slog"
	"time"

	"github.com/skyward-ai/skyward/internal/device"
	"github.com/skyward-ai/skyward/internal/graph"
)

// Result is the outcome of dispatching one node.
type Result struct {
	// Success reports whether the node executed successfully. A false value
	// is fatal to the mission.
	Success bool

	// Message describes the outcome for the mission log.
	Message string

	// State is the device snapshot after execution. The engine adopts it
	// regardless of Success so partial state changes survive failures.
	State device.State

	// Simulated is true when the fallback simulator produced the result.
	Simulated bool

	// BatteryCheck carries the explicit triple for battery_check nodes and
	// is nil for every other kind.
	BatteryCheck *BatteryCheckResult
}

// BatteryCheckResult is the explicit reply shape of a battery_check
// dispatch, independent of the generic success flag.
type BatteryCheckResult struct {
	Battery   int  `json:"battery"`
	Threshold int  `json:"threshold"`
	IsLow     bool `json:"isLow"`
}

// commandSpec binds a node kind to its remote tool name and parameter
// construction. Parameter builders read node params with defaults sourced
// from the current device state.
type commandSpec struct {
	tool      string
	buildArgs func(n *graph.Node, s device.State) map[string]any
}

// commandTable is the dispatch table from node kind to remote command.
// Kinds absent from the table (start, end, structural markers, anything the
// editor invents later) never reach the channel; they execute locally.
var commandTable = map[graph.NodeKind]commandSpec{
	graph.NodeKindTakeoff: {
		tool: "takeoff",
		buildArgs: func(n *graph.Node, s device.State) map[string]any {
			return map[string]any{"altitude": n.ParamFloat("altitude", 10)}
		},
	},
	graph.NodeKindLand: {
		tool: "land",
		buildArgs: func(n *graph.Node, s device.State) map[string]any {
			return map[string]any{}
		},
	},
	graph.NodeKindHover: {
		tool: "hover",
		buildArgs: func(n *graph.Node, s device.State) map[string]any {
			return map[string]any{"duration": n.ParamFloat("duration", 5)}
		},
	},
	graph.NodeKindFlyTo: {
		tool: "fly_to",
		buildArgs: func(n *graph.Node, s device.State) map[string]any {
			return map[string]any{
				"lat":      n.ParamFloat("lat", s.Position.Lat),
				"lng":      n.ParamFloat("lng", s.Position.Lng),
				"altitude": n.ParamFloat("altitude", s.Altitude),
			}
		},
	},
	graph.NodeKindPhoto: {
		tool: "take_photo",
		buildArgs: func(n *graph.Node, s device.State) map[string]any {
			return map[string]any{"count": n.ParamInt("count", 1)}
		},
	},
	graph.NodeKindVideo: {
		tool: "record_video",
		buildArgs: func(n *graph.Node, s device.State) map[string]any {
			return map[string]any{"action": n.ParamString("action", "start")}
		},
	},
	graph.NodeKindBatteryCheck: {
		tool: "check_battery",
		buildArgs: func(n *graph.Node, s device.State) map[string]any {
			return map[string]any{"threshold": n.ParamInt("threshold", 20)}
		},
	},
	graph.NodeKindReturnHome: {
		tool: "return_home",
		buildArgs: func(n *graph.Node, s device.State) map[string]any {
			return map[string]any{}
		},
	},
	graph.NodeKindAreaInspection: {
		tool: "area_inspection",
		buildArgs: func(n *graph.Node, s device.State) map[string]any {
			return map[string]any{
				"radius":   n.ParamFloat("radius", 50),
				"altitude": n.ParamFloat("altitude", s.Altitude),
			}
		},
	},
}

// Dispatcher sends node operations to the command channel and falls back to
// the simulator on any channel failure.
type Dispatcher struct {
	channel Channel
	sim     *Simulator
	timeout time.Duration
	logger  *slog.Logger
}

// DispatcherOption is a functional option for configuring Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithChannel sets the external command channel. Without one, every node is
// simulated.
func WithChannel(ch Channel) DispatcherOption {
	return func(d *Dispatcher) {
		d.channel = ch
	}
}

// WithTimeout bounds each channel call. Default: 10s.
func WithTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// WithSimulatorDelay sets the artificial delay of the fallback simulator.
// Default: 300ms.
func WithSimulatorDelay(delay time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		d.sim = NewSimulator(delay)
	}
}

// WithDispatcherLogger sets the structured logger. Default: slog.Default().
func WithDispatcherLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDispatcher creates a Dispatcher with the given options.
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		sim:     NewSimulator(300 * time.Millisecond),
		timeout: 10 * time.Second,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch executes one node against the current device state and returns
// the outcome. Channel errors are absorbed by the simulator; only a
// device-reported failure produces Success=false.
func (d *Dispatcher) Dispatch(ctx context.Context, node *graph.Node, state device.State) *Result {
	spec, mapped := commandTable[node.Kind]

	// Connection setup/teardown and structural markers never go remote.
	local := node.Kind == graph.NodeKindStart ||
		node.Kind == graph.NodeKindEnd ||
		node.Kind.IsStructural()

	if !mapped || local {
		return d.simulate(ctx, node, state, false)
	}
	if d.channel == nil {
		return d.simulate(ctx, node, state, true)
	}

	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	reply, err := d.channel.CallTool(callCtx, spec.tool, spec.buildArgs(node, state))
	if err != nil {
		d.logger.Warn("command channel call failed, falling back to simulator",
			"tool", spec.tool,
			"node_id", node.ID,
			"error", err,
		)
		return d.simulate(ctx, node, state, true)
	}

	return d.fromReply(node, state, reply)
}

// simulate runs the node through the local simulator. Simulated execution
// reports success unless the caller's context is cancelled. fallback marks
// results produced in place of a remote call; their messages carry the
// "(simulated)" suffix so observers can tell the paths apart.
func (d *Dispatcher) simulate(ctx context.Context, node *graph.Node, state device.State, fallback bool) *Result {
	next, msg, err := d.sim.Execute(ctx, node, state)
	if err != nil {
		return &Result{
			Success:   false,
			Message:   "execution interrupted: " + err.Error(),
			State:     state,
			Simulated: true,
		}
	}

	if fallback {
		msg += " (simulated)"
	}

	result := &Result{
		Success:   true,
		Message:   msg,
		State:     next,
		Simulated: true,
	}

	if node.Kind == graph.NodeKindBatteryCheck {
		threshold := node.ParamInt("threshold", 20)
		result.BatteryCheck = &BatteryCheckResult{
			Battery:   next.Battery,
			Threshold: threshold,
			IsLow:     next.Battery < threshold,
		}
	}

	return result
}

// fromReply converts a channel reply into a Result, merging any telemetry
// the device reported into the state snapshot.
func (d *Dispatcher) fromReply(node *graph.Node, state device.State, reply *ToolResult) *Result {
	next := state
	applyRemoteState(&next, reply.DroneState)

	message := reply.Message
	if !reply.Succeeded() && message == "" {
		message = reply.Error
	}
	if message == "" {
		message = string(node.Kind) + " executed"
	}

	result := &Result{
		Success: reply.Succeeded(),
		Message: message,
		State:   next,
	}

	if node.Kind == graph.NodeKindBatteryCheck {
		check := &BatteryCheckResult{
			Battery:   next.Battery,
			Threshold: node.ParamInt("threshold", 20),
			IsLow:     false,
		}
		if reply.Battery != nil {
			check.Battery = *reply.Battery
		}
		if reply.Threshold != nil {
			check.Threshold = *reply.Threshold
		}
		if reply.IsLow != nil {
			check.IsLow = *reply.IsLow
		} else {
			check.IsLow = check.Battery < check.Threshold
		}
		result.BatteryCheck = check
	}

	return result
}

// applyRemoteState merges device-reported telemetry into the snapshot.
func applyRemoteState(state *device.State, m map[string]any) {
	if len(m) == 0 {
		return
	}

	if v, ok := m["connected"].(bool); ok {
		state.Connected = v
	}
	if v, ok := m["battery"].(float64); ok {
		state.Battery = int(v)
	}
	if v, ok := m["altitude"].(float64); ok {
		state.Altitude = v
	}
	if v, ok := m["status"].(string); ok {
		state.Status = device.Status(v)
	}
	if v, ok := m["recording"].(bool); ok {
		state.Recording = v
	}
	if pos, ok := m["position"].(map[string]any); ok {
		if lat, ok := pos["lat"].(float64); ok {
			state.Position.Lat = lat
		}
		if lng, ok := pos["lng"].(float64); ok {
			state.Position.Lng = lng
		}
	}

	state.Clamp()
}
