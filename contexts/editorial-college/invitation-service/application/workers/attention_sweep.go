package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "collegium/contexts/editorial-college/invitation-service/application"
	"collegium/contexts/editorial-college/invitation-service/domain/entities"
	"collegium/contexts/editorial-college/invitation-service/ports"
	"collegium/internal/shared/events"
)

// AttentionSweep flags open invitations that need editorial follow-up and
// emits one attention event per newly flagged invitation. The set-once flag
// in storage keeps repeated runs from re-emitting.
type AttentionSweep struct {
	Invitations        ports.InvitationRepository
	Outbox             ports.OutboxWriter
	Clock              ports.Clock
	IDGen              ports.IDGenerator
	StaleAfter         time.Duration
	PostponementNotice time.Duration
	Logger             *slog.Logger
}

func (s AttentionSweep) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(s.Logger)
	open, err := s.Invitations.ListOpenInvitations(ctx)
	if err != nil {
		logger.Error("open invitation listing failed",
			"event", "invitation_attention_sweep_list_failed",
			"module", "editorial-college/invitation-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	now := s.now()
	flagged := 0
	for _, invitation := range open {
		if !invitation.NeedsAttention(now, s.StaleAfter, s.PostponementNotice) {
			continue
		}
		wasFlagged, err := s.Invitations.MarkAttentionFlagged(ctx, invitation.InvitationID, now)
		if err != nil {
			return err
		}
		if !wasFlagged {
			continue
		}
		if err := s.emitAttentionRequired(ctx, invitation, now); err != nil {
			return err
		}
		flagged++
		logger.Warn("invitation needs attention",
			"event", "invitation_attention_required",
			"module", "editorial-college/invitation-service",
			"layer", "worker",
			"invitation_id", invitation.InvitationID,
			"nomination_id", invitation.NominationID,
			"response", string(invitation.Response),
		)
	}

	logger.Info("attention sweep completed",
		"event", "invitation_attention_sweep_completed",
		"module", "editorial-college/invitation-service",
		"layer", "worker",
		"open_count", len(open),
		"flagged_count", flagged,
	)
	return nil
}

func (s AttentionSweep) emitAttentionRequired(
	ctx context.Context,
	invitation entities.Invitation,
	occurredAt time.Time,
) error {
	if s.Outbox == nil {
		return nil
	}
	eventID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(map[string]any{
		"invitation_id":       invitation.InvitationID,
		"nomination_id":       invitation.NominationID,
		"college_id":          invitation.CollegeID,
		"candidate_person_id": invitation.CandidatePersonID,
		"response":            string(invitation.Response),
	})
	if err != nil {
		return err
	}
	return s.Outbox.AppendOutbox(ctx, events.Envelope{
		EventID:       eventID,
		EventType:     "invitation.attention_required",
		SourceService: "invitation-service",
		OccurredAt:    occurredAt,
		SchemaVersion: 1,
		PartitionKey:  invitation.NominationID,
		Data:          payload,
	})
}

func (s AttentionSweep) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
