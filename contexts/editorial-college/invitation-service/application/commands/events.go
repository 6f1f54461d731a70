package commands

import (
	"encoding/json"
	"time"

	"collegium/internal/shared/events"
)

// newInvitationEnvelope builds canonical envelopes for command-side events.
// Invitations partition by nomination so per-candidate ordering holds on the
// bus.
func newInvitationEnvelope(
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
		SourceService: "invitation-service",
		OccurredAt:    occurredAt.UTC(),
		SchemaVersion: 1,
		PartitionKey:  nominationID,
		Data:          payload,
	}, nil
}
