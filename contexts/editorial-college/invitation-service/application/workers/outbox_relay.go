package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "collegium/contexts/editorial-college/invitation-service/application"
	"collegium/contexts/editorial-college/invitation-service/ports"
	"collegium/internal/shared/events"
)

// OutboxRelay publishes persisted outbox records to the event bus.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

// RunOnce publishes a bounded batch of pending outbox rows and marks each row
// published only after broker publish succeeds.
func (r OutboxRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("invitation outbox list failed",
			"event", "invitation_outbox_list_failed",
			"module", "editorial-college/invitation-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	for _, row := range pending {
		var event events.Envelope
		if err := json.Unmarshal(row.Payload, &event); err != nil {
			logger.Error("invitation outbox decode failed",
				"event", "invitation_outbox_decode_failed",
				"module", "editorial-college/invitation-service",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
		topic := event.EventType
		if topic == "" {
			topic = row.EventType
		}
		if err := r.Publisher.Publish(ctx, topic, event); err != nil {
			logger.Error("invitation outbox publish failed",
				"event", "invitation_outbox_publish_failed",
				"module", "editorial-college/invitation-service",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"event_type", event.EventType,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, now); err != nil {
			return err
		}
	}

	logger.Info("invitation outbox relay cycle completed",
		"event", "invitation_outbox_relay_completed",
		"module", "editorial-college/invitation-service",
		"layer", "worker",
		"published_count", len(pending),
	)
	return nil
}
