package mission

import "time"

// LogLevel classifies a mission log event.
type LogLevel string

const (
	LogLevelInfo    LogLevel = "info"
	LogLevelSuccess LogLevel = "success"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
	LogLevelDebug   LogLevel = "debug"
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	return string(l)
}

// LogEvent is one entry in a mission's append-only log. Ordering equals
// emission order; the engine is the only producer for a given mission.
type LogEvent struct {
	// Timestamp records when the engine emitted the event.
	Timestamp time.Time `json:"ts"`

	// Level classifies the event.
	Level LogLevel `json:"level"`

	// Message is the human-readable log line.
	Message string `json:"message"`

	// NodeID references the node the event concerns, if any.
	NodeID string `json:"node_id,omitempty"`
}

// NewLogEvent creates a log event stamped now.
func NewLogEvent(level LogLevel, message, nodeID string) LogEvent {
	return LogEvent{
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
		NodeID:    nodeID,
	}
}
