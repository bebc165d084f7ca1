// Package graph defines the immutable mission plan model: typed operation
// nodes connected by optionally-conditioned directed edges, plus loading,
// validation, and condition evaluation over device telemetry.
package graph

// Graph represents a complete mission plan. It is immutable once execution
// starts; the engine never mutates nodes or edges.
type Graph struct {
	// Name is the workflow name assigned by the upstream editor.
	Name string `json:"name" yaml:"name"`

	// Nodes contains the graph's nodes in declaration order.
	Nodes []*Node `json:"nodes" yaml:"nodes"`

	// Edges contains the directed edges in declaration order. Declaration
	// order is significant: it is the order branch conditions are tried.
	Edges []Edge `json:"edges" yaml:"edges"`
}

// GetNode retrieves a node by ID. Returns nil if not found.
func (g *Graph) GetNode(id string) *Node {
	for _, n := range g.Nodes {
		if n != nil && n.ID == id {
			return n
		}
	}
	return nil
}

// StartNode returns the graph's start node, or nil if there is none.
// Validation guarantees exactly one for graphs that reach the engine.
func (g *Graph) StartNode() *Node {
	for _, n := range g.Nodes {
		if n != nil && n.Kind == NodeKindStart {
			return n
		}
	}
	return nil
}

// OutgoingEdges returns the edges leaving the given node in declaration order.
func (g *Graph) OutgoingEdges(nodeID string) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.From == nodeID {
			out = append(out, e)
		}
	}
	return out
}
