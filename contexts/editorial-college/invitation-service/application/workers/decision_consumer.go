package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	application "collegium/contexts/editorial-college/invitation-service/application"
	"collegium/contexts/editorial-college/invitation-service/application/commands"
	"collegium/contexts/editorial-college/invitation-service/ports"
	"collegium/internal/shared/events"
)

const (
	decisionFixedTopic = "decision.fixed"
	defaultDecisionCG  = "invitation-service-decision-cg"
)

// DecisionConsumer reacts to fixed round decisions: an elected outcome opens
// the formal invitation for the candidate. Invitation creation is idempotent
// per nomination, so replays are safe.
type DecisionConsumer struct {
	Subscriber    ports.EventSubscriber
	Invitations   commands.InvitationUseCase
	ConsumerGroup string
	Logger        *slog.Logger
}

func (c DecisionConsumer) Start(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	group := strings.TrimSpace(c.ConsumerGroup)
	if group == "" {
		group = defaultDecisionCG
	}
	if err := c.Subscriber.Subscribe(ctx, decisionFixedTopic, group, c.handleDecisionFixed); err != nil {
		logger.Error("decision consumer subscribe failed",
			"event", "invitation_decision_consumer_subscribe_failed",
			"module", "editorial-college/invitation-service",
			"layer", "worker",
			"topic", decisionFixedTopic,
			"consumer_group", group,
			"error", err.Error(),
		)
		return err
	}
	logger.Info("decision consumer subscription active",
		"event", "invitation_decision_consumer_started",
		"module", "editorial-college/invitation-service",
		"layer", "worker",
		"consumer_group", group,
	)
	return nil
}

func (c DecisionConsumer) handleDecisionFixed(ctx context.Context, event events.Envelope) error {
	logger := application.ResolveLogger(c.Logger)
	var payload struct {
		NominationID      string `json:"nomination_id"`
		CollegeID         string `json:"college_id"`
		CandidatePersonID string `json:"candidate_person_id"`
		Outcome           string `json:"outcome"`
	}
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		logger.Error("decision.fixed payload decode failed",
			"event", "invitation_decision_decode_failed",
			"module", "editorial-college/invitation-service",
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}
	if payload.Outcome != "elected" {
		return nil
	}
	result, err := c.Invitations.CreateInvitation(ctx, commands.CreateInvitationCommand{
		NominationID:      payload.NominationID,
		CollegeID:         payload.CollegeID,
		CandidatePersonID: payload.CandidatePersonID,
	})
	if err != nil {
		logger.Error("invitation create from decision failed",
			"event", "invitation_decision_create_failed",
			"module", "editorial-college/invitation-service",
			"layer", "worker",
			"event_id", event.EventID,
			"nomination_id", payload.NominationID,
			"error", err.Error(),
		)
		return err
	}
	if result.Created {
		logger.Info("invitation opened for elected candidate",
			"event", "invitation_opened_from_decision",
			"module", "editorial-college/invitation-service",
			"layer", "worker",
			"invitation_id", result.Invitation.InvitationID,
			"nomination_id", payload.NominationID,
		)
	}
	return nil
}
