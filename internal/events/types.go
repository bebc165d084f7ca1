// Package events distributes mission observability events to subscribers.
// Delivery is best-effort, at-most-once: subscribers that fall behind have
// events dropped rather than slowing the publishing mission. A subscriber
// that joins late must resynchronize from the mission store; the bus keeps
// no history.
package events

import (
	"time"

	"github.com/skyward-ai/skyward/internal/types"
)

// EventType identifies the category of a mission event.
type EventType string

const (
	// EventMissionLog carries one log line emitted by the engine.
	EventMissionLog EventType = "mission.log"

	// EventMissionState carries a status/progress transition.
	EventMissionState EventType = "mission.state"
)

// String returns the string representation of the event type.
func (t EventType) String() string {
	return string(t)
}

// Event is a single observability event for one mission.
type Event struct {
	// Type identifies the category of the event.
	Type EventType `json:"type"`

	// Timestamp records when the event was published.
	Timestamp time.Time `json:"timestamp"`

	// MissionID associates the event with a mission.
	MissionID types.ID `json:"mission_id"`

	// Payload contains event-specific data: LogPayload for mission.log,
	// StatePayload for mission.state.
	Payload any `json:"payload,omitempty"`
}

// LogPayload contains data for mission.log events.
type LogPayload struct {
	Timestamp time.Time `json:"ts"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	NodeID    string    `json:"node_id,omitempty"`
}

// StatePayload contains data for mission.state events.
type StatePayload struct {
	Status      string `json:"status"`
	Progress    int    `json:"progress"`
	CurrentNode string `json:"current_node,omitempty"`
}

// Filter defines subscription criteria. All fields use AND logic; empty
// fields act as wildcards.
type Filter struct {
	// Types filters by event types (empty = all types).
	Types []EventType `json:"types,omitempty"`

	// MissionID filters to a single mission's topic (empty = all missions).
	MissionID types.ID `json:"mission_id,omitempty"`
}

// Matches reports whether the event satisfies all non-empty filter criteria.
func (f *Filter) Matches(event Event) bool {
	if len(f.Types) > 0 {
		matched := false
		for _, t := range f.Types {
			if event.Type == t {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if f.MissionID != "" && event.MissionID != f.MissionID {
		return false
	}

	return true
}
