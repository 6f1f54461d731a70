package commands

import (
	"encoding/json"
	"time"

	"collegium/internal/shared/events"
)

// newNominationEnvelope builds canonical envelopes for command-side events.
// Events are partitioned by nomination for stable ordering on
// nomination-scoped consumers.
func newNominationEnvelope(
	eventID string,
	eventType string,
	nominationID string,
	occurredAt time.Time,
	data map[string]any,
) (events.Envelope, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return events.Envelope{}, err
	}
	return events.Envelope{
		EventID:       eventID,
		EventType:     eventType,
		SourceService: "nomination-engine",
		OccurredAt:    occurredAt.UTC(),
		SchemaVersion: 1,
		PartitionKey:  nominationID,
		Data:          payload,
	}, nil
}
