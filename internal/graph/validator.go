package graph

import (
	"fmt"

	"github.com/skyward-ai/skyward/internal/types"
)

// Validator checks mission graphs before execution. It is stateless; a single
// instance can validate any number of graphs concurrently.
type Validator struct{}

// NewValidator creates a new Validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate runs all validation checks and returns the first error found:
//   - the graph must be non-nil and non-empty
//   - node IDs must be unique
//   - exactly one start node must exist
//   - every edge endpoint must reference an existing node
//   - every edge condition must parse (fail-closed: a graph with an
//     unparseable condition is rejected at submission, not silently
//     traversed at runtime)
func (v *Validator) Validate(g *Graph) error {
	if g == nil {
		return types.NewError(types.GRAPH_VALIDATION_FAILED, "graph cannot be nil")
	}
	if len(g.Nodes) == 0 {
		return types.NewError(types.GRAPH_VALIDATION_FAILED, "graph must contain at least one node")
	}

	seen := make(map[string]bool, len(g.Nodes))
	startCount := 0
	for _, n := range g.Nodes {
		if n == nil || n.ID == "" {
			return types.NewError(types.GRAPH_VALIDATION_FAILED, "graph contains a node without an ID")
		}
		if seen[n.ID] {
			return types.NewError(types.GRAPH_VALIDATION_FAILED,
				fmt.Sprintf("duplicate node ID %q", n.ID))
		}
		seen[n.ID] = true

		if n.Kind == NodeKindStart {
			startCount++
		}
	}

	if startCount == 0 {
		return types.NewError(types.GRAPH_NO_START_NODE, "graph has no start node")
	}
	if startCount > 1 {
		return types.NewError(types.GRAPH_NO_START_NODE,
			fmt.Sprintf("graph has %d start nodes, expected exactly one", startCount))
	}

	for _, e := range g.Edges {
		if !seen[e.From] {
			return types.NewError(types.GRAPH_DANGLING_EDGE,
				fmt.Sprintf("edge references non-existent source node %q", e.From))
		}
		if !seen[e.To] {
			return types.NewError(types.GRAPH_DANGLING_EDGE,
				fmt.Sprintf("edge references non-existent destination node %q", e.To))
		}
		if _, err := ParseCondition(e.Condition); err != nil {
			return err
		}
	}

	return nil
}
