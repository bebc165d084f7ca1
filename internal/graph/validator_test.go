package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyward-ai/skyward/internal/types"
)

func validGraph() *Graph {
	return &Graph{
		Name: "valid",
		Nodes: []*Node{
			{ID: "start", Kind: NodeKindStart},
			{ID: "takeoff", Kind: NodeKindTakeoff},
			{ID: "end", Kind: NodeKindEnd},
		},
		Edges: []Edge{
			{From: "start", To: "takeoff"},
			{From: "takeoff", To: "end", Condition: "battery > 20"},
		},
	}
}

func TestValidator_Validate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Graph) *Graph
		wantCode types.ErrorCode
	}{
		{
			name:   "valid graph",
			mutate: func(g *Graph) *Graph { return g },
		},
		{
			name:     "nil graph",
			mutate:   func(g *Graph) *Graph { return nil },
			wantCode: types.GRAPH_VALIDATION_FAILED,
		},
		{
			name:     "empty graph",
			mutate:   func(g *Graph) *Graph { g.Nodes = nil; return g },
			wantCode: types.GRAPH_VALIDATION_FAILED,
		},
		{
			name: "node without ID",
			mutate: func(g *Graph) *Graph {
				g.Nodes = append(g.Nodes, &Node{Kind: NodeKindLand})
				return g
			},
			wantCode: types.GRAPH_VALIDATION_FAILED,
		},
		{
			name: "duplicate node IDs",
			mutate: func(g *Graph) *Graph {
				g.Nodes = append(g.Nodes, &Node{ID: "takeoff", Kind: NodeKindLand})
				return g
			},
			wantCode: types.GRAPH_VALIDATION_FAILED,
		},
		{
			name: "no start node",
			mutate: func(g *Graph) *Graph {
				g.Nodes[0].Kind = NodeKindHover
				return g
			},
			wantCode: types.GRAPH_NO_START_NODE,
		},
		{
			name: "two start nodes",
			mutate: func(g *Graph) *Graph {
				g.Nodes = append(g.Nodes, &Node{ID: "start2", Kind: NodeKindStart})
				return g
			},
			wantCode: types.GRAPH_NO_START_NODE,
		},
		{
			name: "dangling edge source",
			mutate: func(g *Graph) *Graph {
				g.Edges = append(g.Edges, Edge{From: "ghost", To: "end"})
				return g
			},
			wantCode: types.GRAPH_DANGLING_EDGE,
		},
		{
			name: "dangling edge destination",
			mutate: func(g *Graph) *Graph {
				g.Edges = append(g.Edges, Edge{From: "end", To: "ghost"})
				return g
			},
			wantCode: types.GRAPH_DANGLING_EDGE,
		},
		{
			name: "unparseable edge condition",
			mutate: func(g *Graph) *Graph {
				g.Edges[1].Condition = "wind_speed < 5"
				return g
			},
			wantCode: types.GRAPH_BAD_CONDITION,
		},
	}

	v := NewValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.mutate(validGraph()))
			if tt.wantCode == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			var serr *types.SkywardError
			require.True(t, errors.As(err, &serr))
			assert.Equal(t, tt.wantCode, serr.Code)
		})
	}
}

func TestGraph_Accessors(t *testing.T) {
	g := validGraph()

	require.NotNil(t, g.StartNode())
	assert.Equal(t, "start", g.StartNode().ID)

	assert.Equal(t, "takeoff", g.GetNode("takeoff").ID)
	assert.Nil(t, g.GetNode("ghost"))

	edges := g.OutgoingEdges("takeoff")
	require.Len(t, edges, 1)
	assert.Equal(t, "end", edges[0].To)
	assert.True(t, edges[0].IsConditional())
	assert.Empty(t, g.OutgoingEdges("end"))
}
