package colors

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

var (
	structuredMu             sync.Mutex
	structuredLoggingEnabled atomic.Bool
)

func init() {
	structuredLoggingEnabled.Store(true)
}

// StructuredLogLevel represents log level for structured logs.
type StructuredLogLevel string

const (
	LevelDebug StructuredLogLevel = "debug"
	LevelWarn  StructuredLogLevel = "warn"
)

// StructuredLogEntry is one JSON line on stderr. NotificationID carries the
// toast tag when the event concerns a single notification.
type StructuredLogEntry struct {
	Timestamp      string             `json:"timestamp"`
	Level          StructuredLogLevel `json:"level"`
	Component      string             `json:"component"`
	Action         string             `json:"action"`
	Status         string             `json:"status"`
	Error          string             `json:"error,omitempty"`
	NotificationID string             `json:"notification_id,omitempty"`
	Fields         map[string]any     `json:"fields,omitempty"`
}

// DisableStructuredLogging turns structured entries off until the returned
// func is called. The listen command uses it so its terminal shows only the
// payloads it prints.
func DisableStructuredLogging() (restore func()) {
	prev := structuredLoggingEnabled.Swap(false)
	return func() { structuredLoggingEnabled.Store(prev) }
}

// StructuredLog writes a structured log entry to stderr when debug mode is on.
// Redaction of sensitive fields should be applied before calling this function.
func StructuredLog(level StructuredLogLevel, component, action, status string, err error, notificationID string, fields map[string]any) {
	if !debugEnabled.Load() || !structuredLoggingEnabled.Load() {
		return
	}

	entry := StructuredLogEntry{
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		Level:          level,
		Component:      component,
		Action:         action,
		Status:         status,
		NotificationID: notificationID,
		Fields:         fields,
	}
	if err != nil {
		entry.Error = err.Error()
	}

	data, marshalErr := json.Marshal(entry)
	if marshalErr != nil {
		fmt.Fprintf(os.Stderr, "failed to marshal structured log: %v\n", marshalErr)
		return
	}

	structuredMu.Lock()
	defer structuredMu.Unlock()
	if _, writeErr := fmt.Fprintf(os.Stderr, "%s\n", data); writeErr != nil {
		fmt.Fprintf(os.Stderr, "failed to write structured log: %v\n", writeErr)
	}
}

// StructuredDebug logs a structured debug entry.
func StructuredDebug(component, action, status string, err error, notificationID string, fields map[string]any) {
	StructuredLog(LevelDebug, component, action, status, err, notificationID, fields)
}

// StructuredWarn logs a structured warning entry.
func StructuredWarn(component, action, status string, err error, notificationID string, fields map[string]any) {
	StructuredLog(LevelWarn, component, action, status, err, notificationID, fields)
}
