package models

// Event is one append-only entry in the per-request event log.
type Event struct {
	Timestamp string                 `json:"timestamp"`
	Agent     string                 `json:"agent"`
	Level     string                 `json:"level"` // INFO, SUCCESS, WARNING, ERROR, CRITICAL
	Message   string                 `json:"message"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Event log levels.
const (
	LevelInfo     = "INFO"
	LevelSuccess  = "SUCCESS"
	LevelWarning  = "WARNING"
	LevelError    = "ERROR"
	LevelCritical = "CRITICAL"
)
