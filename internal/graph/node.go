package graph

// NodeKind defines the type of operation a node performs.
type NodeKind string

const (
	NodeKindStart          NodeKind = "start"
	NodeKindEnd            NodeKind = "end"
	NodeKindTakeoff        NodeKind = "takeoff"
	NodeKindLand           NodeKind = "land"
	NodeKindHover          NodeKind = "hover"
	NodeKindFlyTo          NodeKind = "fly_to"
	NodeKindPhoto          NodeKind = "photo"
	NodeKindVideo          NodeKind = "video"
	NodeKindBatteryCheck   NodeKind = "battery_check"
	NodeKindReturnHome     NodeKind = "return_home"
	NodeKindAreaInspection NodeKind = "area_inspection"
	NodeKindCondition      NodeKind = "condition"

	// Fork and join nodes are structural markers for the upstream editor's
	// layout. The engine does not execute their branches concurrently; they
	// pass through like condition nodes.
	NodeKindParallelFork NodeKind = "parallel_fork"
	NodeKindParallelJoin NodeKind = "parallel_join"
)

// String returns the string representation of the node kind.
func (k NodeKind) String() string {
	return string(k)
}

// IsStructural reports whether the kind only affects traversal and never
// produces a device command (start/end perform connect/teardown instead).
func (k NodeKind) IsStructural() bool {
	switch k {
	case NodeKindCondition, NodeKindParallelFork, NodeKindParallelJoin:
		return true
	default:
		return false
	}
}

// Node is a single typed operation in a mission graph.
type Node struct {
	// ID is unique within the graph.
	ID string `json:"id" yaml:"id"`

	// Kind selects the operation this node performs.
	Kind NodeKind `json:"type" yaml:"type"`

	// Label is the human-readable name shown in logs and the editor.
	Label string `json:"label" yaml:"label"`

	// Params holds operation parameters (altitude, duration, threshold, ...).
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// DisplayName returns the label if set, otherwise the node ID.
func (n *Node) DisplayName() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// ParamFloat reads a numeric parameter, tolerating the numeric types JSON and
// YAML decoders produce. Returns def when the parameter is absent or not a
// number.
func (n *Node) ParamFloat(key string, def float64) float64 {
	v, ok := n.Params[key]
	if !ok {
		return def
	}
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	default:
		return def
	}
}

// ParamInt reads an integer parameter with the same tolerance as ParamFloat.
func (n *Node) ParamInt(key string, def int) int {
	return int(n.ParamFloat(key, float64(def)))
}

// ParamString reads a string parameter, returning def when absent or not a
// string.
func (n *Node) ParamString(key, def string) string {
	if v, ok := n.Params[key].(string); ok {
		return v
	}
	return def
}
