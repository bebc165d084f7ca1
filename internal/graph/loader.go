package graph

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/skyward-ai/skyward/internal/types"
)

// Loader decodes mission graphs from the upstream editor's wire format
// ({workflow_name|name, nodes[], edges[]}) and validates them before handing
// them to the engine.
type Loader struct {
	validator *Validator
}

// NewLoader creates a Loader with a fresh validator.
func NewLoader() *Loader {
	return &Loader{validator: NewValidator()}
}

// rawGraph mirrors the editor payload, accepting both the legacy
// workflow_name key and the plain name key.
type rawGraph struct {
	Name         string  `json:"name" yaml:"name"`
	WorkflowName string  `json:"workflow_name" yaml:"workflow_name"`
	Nodes        []*Node `json:"nodes" yaml:"nodes"`
	Edges        []Edge  `json:"edges" yaml:"edges"`
}

func (r *rawGraph) toGraph() *Graph {
	name := r.Name
	if name == "" {
		name = r.WorkflowName
	}
	return &Graph{
		Name:  name,
		Nodes: r.Nodes,
		Edges: r.Edges,
	}
}

// LoadJSON decodes and validates a JSON graph payload.
func (l *Loader) LoadJSON(data []byte) (*Graph, error) {
	var raw rawGraph
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, types.WrapError(types.GRAPH_PARSE_FAILED, "failed to decode graph JSON", err)
	}
	return l.finish(raw.toGraph())
}

// LoadYAML decodes and validates a YAML graph payload.
func (l *Loader) LoadYAML(data []byte) (*Graph, error) {
	var raw rawGraph
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, types.WrapError(types.GRAPH_PARSE_FAILED, "failed to decode graph YAML", err)
	}
	return l.finish(raw.toGraph())
}

// LoadFile loads a graph from disk, selecting the decoder by file extension.
// .yaml/.yml files are decoded as YAML, everything else as JSON.
func (l *Loader) LoadFile(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.WrapError(types.GRAPH_PARSE_FAILED,
			fmt.Sprintf("failed to read graph file %q", path), err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return l.LoadYAML(data)
	default:
		return l.LoadJSON(data)
	}
}

func (l *Loader) finish(g *Graph) (*Graph, error) {
	if err := l.validator.Validate(g); err != nil {
		return nil, err
	}
	return g, nil
}
