package events

import (
	"encoding/json"
	"time"
)

// Envelope is the canonical event shape carried through the outbox and the
// message bus. Consumers key ordering off PartitionKey.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	SourceService string          `json:"source_service"`
	OccurredAt    time.Time       `json:"occurred_at"`
	SchemaVersion int             `json:"schema_version"`
	PartitionKey  string          `json:"partition_key"`
	Data          json.RawMessage `json:"data"`
}
