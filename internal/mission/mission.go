// Package mission holds the live record of one graph execution: its
// definition, status, progress, and log history. Records are written only by
// the engine goroutine that owns the mission and read by status queries and
// event transports through the store.
package mission

import (
	"time"

	"github.com/skyward-ai/skyward/internal/graph"
	"github.com/skyward-ai/skyward/internal/types"
)

// Status represents the lifecycle state of a mission.
type Status string

const (
	// StatusPending indicates the mission record exists but execution has
	// not started.
	StatusPending Status = "pending"

	// StatusRunning indicates the mission is currently executing.
	StatusRunning Status = "running"

	// StatusCompleted indicates the mission finished successfully.
	StatusCompleted Status = "completed"

	// StatusFailed indicates the mission stopped on a validation error or a
	// node-reported failure.
	StatusFailed Status = "failed"

	// StatusCancelled indicates the mission was cancelled mid-flight.
	StatusCancelled Status = "cancelled"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true for completed, failed, and cancelled. Terminal
// states never transition again.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransitionTo validates a state transition. Status only ever moves
// forward: pending -> running -> {completed|failed|cancelled}.
func (s Status) CanTransitionTo(target Status) bool {
	if s.IsTerminal() {
		return false
	}

	switch s {
	case StatusPending:
		return target == StatusRunning || target == StatusFailed || target == StatusCancelled
	case StatusRunning:
		return target == StatusCompleted || target == StatusFailed || target == StatusCancelled
	default:
		return false
	}
}

// Mission is the live record of one execution run of a graph.
type Mission struct {
	// ID is the unique identifier for this mission.
	ID types.ID `json:"id"`

	// Name is the workflow name from the graph definition.
	Name string `json:"name"`

	// Definition is the graph being executed. Immutable once running.
	Definition *graph.Graph `json:"definition,omitempty"`

	// Status is the current lifecycle state.
	Status Status `json:"status"`

	// Progress is the completion percentage, 0..100, monotonically
	// non-decreasing while the mission runs.
	Progress int `json:"progress"`

	// CurrentNode is the ID of the node being executed, empty before the
	// first node and after a terminal state.
	CurrentNode string `json:"current_node,omitempty"`

	// Logs is the append-only log history in emission order.
	Logs []LogEvent `json:"logs"`

	// Error holds the failure message for failed missions.
	Error string `json:"error,omitempty"`

	// CreatedAt is when the record was created.
	CreatedAt time.Time `json:"created_at"`

	// StartedAt is when execution began.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// CompletedAt is when the mission reached a terminal state.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// New creates a pending mission record for the given graph.
func New(id types.ID, def *graph.Graph) *Mission {
	return &Mission{
		ID:         id,
		Name:       def.Name,
		Definition: def,
		Status:     StatusPending,
		CreatedAt:  time.Now(),
		Logs:       []LogEvent{},
	}
}

// Clone returns a deep-enough copy safe to hand to readers: the log slice is
// copied, the immutable graph definition is shared.
func (m *Mission) Clone() *Mission {
	c := *m
	c.Logs = make([]LogEvent, len(m.Logs))
	copy(c.Logs, m.Logs)
	return &c
}

// Snapshot builds the final snapshot handed to the archive when the mission
// reaches a terminal state.
func (m *Mission) Snapshot() *Snapshot {
	return &Snapshot{
		MissionID:    m.ID,
		WorkflowName: m.Name,
		Definition:   m.Definition,
		Status:       m.Status,
		Progress:     m.Progress,
		Logs:         append([]LogEvent(nil), m.Logs...),
		CreatedAt:    m.CreatedAt,
		StartedAt:    m.StartedAt,
		CompletedAt:  m.CompletedAt,
	}
}

// Snapshot is the terminal-state record persisted by the archive. Archiving
// is best-effort; the in-memory mission record stays authoritative for the
// process lifetime regardless of archive outcome.
type Snapshot struct {
	MissionID    types.ID     `json:"mission_id"`
	WorkflowName string       `json:"workflow_name"`
	Definition   *graph.Graph `json:"workflow_snapshot"`
	Status       Status       `json:"status"`
	Progress     int          `json:"progress"`
	Logs         []LogEvent   `json:"logs"`
	CreatedAt    time.Time    `json:"created_at"`
	StartedAt    *time.Time   `json:"started_at,omitempty"`
	CompletedAt  *time.Time   `json:"completed_at,omitempty"`
}
