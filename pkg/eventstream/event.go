// Package eventstream publishes parley events to external consumers.
package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/parley/pkg/memory"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeMemoryRecorded is emitted after a memory record is persisted.
	EventTypeMemoryRecorded = "parley.memory.recorded"
)

// MemoryRecordedEvent is a transport-neutral event payload for a persisted
// question/answer record.
type MemoryRecordedEvent struct {
	SchemaVersion int           `json:"schema_version"`
	EventType     string        `json:"event_type"`
	EventID       string        `json:"event_id"`
	EmittedAt     time.Time     `json:"emitted_at"`
	Source        EventSource   `json:"source"`
	Turn          TurnMeta      `json:"turn"`
	Record        memory.Record `json:"record"`
}

// EventSource identifies the model that produced the answer.
type EventSource struct {
	Model    string `json:"model"`
	Endpoint string `json:"endpoint,omitempty"`
}

// TurnMeta captures the turn that produced the record.
type TurnMeta struct {
	SessionID   string    `json:"session_id"`
	TurnID      string    `json:"turn_id"`
	LookupTopic string    `json:"lookup_topic,omitempty"`
	HasDocument bool      `json:"has_document"`
	StartedAt   time.Time `json:"started_at"`
	DurationMs  int64     `json:"duration_ms"`
}

// NewMemoryRecordedEvent builds a v1 event with a fresh ID.
func NewMemoryRecordedEvent(source EventSource, turn TurnMeta, rec memory.Record) *MemoryRecordedEvent {
	return &MemoryRecordedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeMemoryRecorded,
		EventID:       "evt_" + uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source:        source,
		Turn:          turn,
		Record:        rec,
	}
}
