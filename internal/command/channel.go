// Package command translates graph nodes into device commands. The
// Dispatcher maps node kinds to named tool calls on an external command
// channel, and falls back to a local deterministic simulator whenever the
// channel is absent, slow, or erroring. A mission is never failed merely
// because the remote side is down.
package command

import "context"

// Channel is the external command channel exposing drone actions. The
// concrete implementation is caller-supplied and possibly remote; the
// dispatcher tolerates it being slow, erroring, or entirely absent.
type Channel interface {
	// CallTool invokes a named operation with parameters and returns the
	// device's reply. Implementations must honor ctx deadlines.
	CallTool(ctx context.Context, name string, args map[string]any) (*ToolResult, error)
}

// ToolResult is the reply shape of the command channel. All fields are
// optional; pointer fields distinguish absent from zero.
type ToolResult struct {
	// Success reports command outcome. When nil, the call is treated as
	// successful unless Error is set.
	Success *bool `json:"success,omitempty"`

	// Message is a human-readable result description.
	Message string `json:"message,omitempty"`

	// DroneState carries telemetry updates to merge into the mission's
	// device snapshot (battery, altitude, position, status, recording).
	DroneState map[string]any `json:"droneState,omitempty"`

	// Battery, Threshold, and IsLow form the explicit battery-check triple
	// returned by check_battery dispatches.
	Battery   *int  `json:"battery,omitempty"`
	Threshold *int  `json:"threshold,omitempty"`
	IsLow     *bool `json:"isLow,omitempty"`

	// Error is a device-reported failure description.
	Error string `json:"error,omitempty"`
}

// Succeeded reports whether the reply indicates success.
func (r *ToolResult) Succeeded() bool {
	if r.Error != "" {
		return false
	}
	if r.Success != nil {
		return *r.Success
	}
	return true
}
