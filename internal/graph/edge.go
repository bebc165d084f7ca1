package graph

// Edge represents a directed transition between two nodes.
type Edge struct {
	// ID is the edge identifier assigned by the editor.
	ID string `json:"id,omitempty" yaml:"id,omitempty"`
	// From is the source node ID.
	From string `json:"from" yaml:"from"`
	// To is the destination node ID.
	To string `json:"to" yaml:"to"`
	// Condition is an optional telemetry predicate guarding the edge. Empty
	// means unconditional. Outgoing edges of a node are tried in declaration
	// order and at most one is followed.
	Condition string `json:"condition,omitempty" yaml:"condition,omitempty"`
}

// IsConditional reports whether the edge carries a non-empty condition.
func (e Edge) IsConditional() bool {
	return e.Condition != ""
}
