package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	application "collegium/contexts/editorial-college/nomination-engine/application"
	"collegium/contexts/editorial-college/nomination-engine/application/commands"
	"collegium/contexts/editorial-college/nomination-engine/ports"
	"collegium/internal/shared/events"
)

const (
	invitationOpenedTopic = "invitation.opened"
	defaultInvitationCG   = "nomination-engine-invitation-cg"
)

// InvitationConsumer closes the election loop: once the invitation service
// opens the formal offer, the nomination advances from elected to invited.
type InvitationConsumer struct {
	Subscriber    ports.EventSubscriber
	Nominations   commands.NominationUseCase
	ConsumerGroup string
	Logger        *slog.Logger
}

func (c InvitationConsumer) Start(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	group := strings.TrimSpace(c.ConsumerGroup)
	if group == "" {
		group = defaultInvitationCG
	}
	if err := c.Subscriber.Subscribe(ctx, invitationOpenedTopic, group, c.handleInvitationOpened); err != nil {
		logger.Error("invitation consumer subscribe failed",
			"event", "nomination_invitation_consumer_subscribe_failed",
			"module", "editorial-college/nomination-engine",
			"layer", "worker",
			"topic", invitationOpenedTopic,
			"consumer_group", group,
			"error", err.Error(),
		)
		return err
	}
	logger.Info("invitation consumer subscription active",
		"event", "nomination_invitation_consumer_started",
		"module", "editorial-college/nomination-engine",
		"layer", "worker",
		"consumer_group", group,
	)
	return nil
}

func (c InvitationConsumer) handleInvitationOpened(ctx context.Context, event events.Envelope) error {
	logger := application.ResolveLogger(c.Logger)
	var payload struct {
		NominationID string `json:"nomination_id"`
	}
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		logger.Error("invitation.opened payload decode failed",
			"event", "nomination_invitation_decode_failed",
			"module", "editorial-college/nomination-engine",
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}
	if err := c.Nominations.MarkInvited(ctx, commands.MarkInvitedCommand{
		NominationID: payload.NominationID,
	}); err != nil {
		logger.Error("nomination invited transition failed",
			"event", "nomination_mark_invited_failed",
			"module", "editorial-college/nomination-engine",
			"layer", "worker",
			"event_id", event.EventID,
			"nomination_id", payload.NominationID,
			"error", err.Error(),
		)
		return err
	}
	return nil
}
