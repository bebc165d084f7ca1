package mission

import (
	"fmt"
	"sync"
	"time"

	"github.com/skyward-ai/skyward/internal/types"
)

// Store is the process-wide registry of mission records. It is constructed
// explicitly and injected into the engine and any API layer; there is no
// package-level instance.
//
// Writer discipline: all mutation for a given mission happens on the
// goroutine owning that mission's execution. The store serializes access so
// concurrent readers (status queries, transports) always observe a
// consistent record. Records are retained until Delete; the store applies no
// eviction of its own.
type Store interface {
	// Upsert inserts or replaces the record for m.ID.
	Upsert(m *Mission) error

	// Get returns a copy of the mission record, or MISSION_NOT_FOUND.
	Get(id types.ID) (*Mission, error)

	// List returns copies of all mission records in unspecified order.
	List() []*Mission

	// AppendLog appends one log event to the mission's history.
	AppendLog(id types.ID, event LogEvent) error

	// SetProgress updates progress. Regressions are rejected: progress is
	// monotonically non-decreasing for the lifetime of a mission.
	SetProgress(id types.ID, progress int) error

	// SetStatus transitions the mission's status, rejecting transitions the
	// lifecycle does not allow. Timestamps are maintained as a side effect.
	SetStatus(id types.ID, status Status) error

	// SetCurrentNode records the node currently being executed.
	SetCurrentNode(id types.ID, nodeID string) error

	// SetError records the failure message for a failed mission.
	SetError(id types.ID, message string) error

	// Delete removes a mission record. Deleting an unknown ID is a no-op.
	Delete(id types.ID)
}

// MemoryStore is the in-memory Store implementation.
type MemoryStore struct {
	mu       sync.RWMutex
	missions map[types.ID]*Mission
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		missions: make(map[types.ID]*Mission),
	}
}

// Upsert inserts or replaces the record for m.ID.
func (s *MemoryStore) Upsert(m *Mission) error {
	if m == nil {
		return fmt.Errorf("mission cannot be nil")
	}
	if m.ID.IsZero() {
		return fmt.Errorf("mission ID cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.missions[m.ID] = m.Clone()
	return nil
}

// Get returns a copy of the mission record.
func (s *MemoryStore) Get(id types.ID) (*Mission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.missions[id]
	if !ok {
		return nil, types.NewError(types.MISSION_NOT_FOUND,
			fmt.Sprintf("mission %s not found", id))
	}
	return m.Clone(), nil
}

// List returns copies of all mission records.
func (s *MemoryStore) List() []*Mission {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Mission, 0, len(s.missions))
	for _, m := range s.missions {
		out = append(out, m.Clone())
	}
	return out
}

// AppendLog appends one log event to the mission's history.
func (s *MemoryStore) AppendLog(id types.ID, event LogEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.missions[id]
	if !ok {
		return types.NewError(types.MISSION_NOT_FOUND,
			fmt.Sprintf("mission %s not found", id))
	}
	m.Logs = append(m.Logs, event)
	return nil
}

// SetProgress updates progress, rejecting regressions.
func (s *MemoryStore) SetProgress(id types.ID, progress int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.missions[id]
	if !ok {
		return types.NewError(types.MISSION_NOT_FOUND,
			fmt.Sprintf("mission %s not found", id))
	}
	if progress < m.Progress {
		return types.NewError(types.MISSION_PROGRESS_REGRESSED,
			fmt.Sprintf("progress %d would regress below %d", progress, m.Progress))
	}
	if progress > 100 {
		progress = 100
	}
	m.Progress = progress
	return nil
}

// SetStatus transitions the mission's status and maintains timestamps.
func (s *MemoryStore) SetStatus(id types.ID, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.missions[id]
	if !ok {
		return types.NewError(types.MISSION_NOT_FOUND,
			fmt.Sprintf("mission %s not found", id))
	}
	if !m.Status.CanTransitionTo(status) {
		return types.NewError(types.MISSION_INVALID_TRANSITION,
			fmt.Sprintf("cannot transition mission %s from %s to %s", id, m.Status, status))
	}

	m.Status = status
	now := time.Now()
	switch {
	case status == StatusRunning:
		m.StartedAt = &now
	case status.IsTerminal():
		m.CompletedAt = &now
	}
	return nil
}

// SetCurrentNode records the node currently being executed.
func (s *MemoryStore) SetCurrentNode(id types.ID, nodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.missions[id]
	if !ok {
		return types.NewError(types.MISSION_NOT_FOUND,
			fmt.Sprintf("mission %s not found", id))
	}
	m.CurrentNode = nodeID
	return nil
}

// SetError records the failure message for a failed mission.
func (s *MemoryStore) SetError(id types.ID, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.missions[id]
	if !ok {
		return types.NewError(types.MISSION_NOT_FOUND,
			fmt.Sprintf("mission %s not found", id))
	}
	m.Error = message
	return nil
}

// Delete removes a mission record.
func (s *MemoryStore) Delete(id types.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.missions, id)
}

// Ensure MemoryStore implements Store at compile time.
var _ Store = (*MemoryStore)(nil)
