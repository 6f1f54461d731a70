package commands

import (
	"encoding/json"
	"time"

	"collegium/internal/shared/events"
)

// newEligibilityEnvelope builds canonical envelopes for command-side events.
// Events are partitioned by college for stable ordering on college-scoped
// consumers.
func newEligibilityEnvelope(
	eventID string,
	eventType string,
	collegeID string,
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
		SourceService: "eligibility-service",
		OccurredAt:    occurredAt.UTC(),
		SchemaVersion: 1,
		PartitionKey:  collegeID,
		Data:          payload,
	}, nil
}
