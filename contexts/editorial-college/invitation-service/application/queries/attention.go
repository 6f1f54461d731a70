package queries

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "collegium/contexts/editorial-college/invitation-service/application"
	"collegium/contexts/editorial-college/invitation-service/domain/entities"
	domainerrors "collegium/contexts/editorial-college/invitation-service/domain/errors"
	"collegium/contexts/editorial-college/invitation-service/ports"
)

// AttentionUseCase answers the follow-up questions of the editorial admin
// surface: which invitations went stale and which postponements are coming
// up.
type AttentionUseCase struct {
	Invitations        ports.InvitationRepository
	Clock              ports.Clock
	StaleAfter         time.Duration
	PostponementNotice time.Duration
	Logger             *slog.Logger
}

func (uc AttentionUseCase) Invitation(ctx context.Context, invitationID string) (entities.Invitation, error) {
	invitationID = strings.TrimSpace(invitationID)
	if invitationID == "" {
		return entities.Invitation{}, domainerrors.ErrInvalidInvitationInput
	}
	return uc.Invitations.GetInvitation(ctx, invitationID)
}

// NeedsAttention lists every open invitation the follow-up rules flag at the
// current instant.
func (uc AttentionUseCase) NeedsAttention(ctx context.Context) ([]entities.Invitation, error) {
	logger := application.ResolveLogger(uc.Logger)
	open, err := uc.Invitations.ListOpenInvitations(ctx)
	if err != nil {
		return nil, err
	}
	now := uc.Clock.Now().UTC()
	flagged := make([]entities.Invitation, 0)
	for _, invitation := range open {
		if invitation.NeedsAttention(now, uc.StaleAfter, uc.PostponementNotice) {
			flagged = append(flagged, invitation)
		}
	}
	logger.Debug("attention scan completed",
		"event", "invitation_attention_scanned",
		"module", "editorial-college/invitation-service",
		"layer", "application",
		"open_count", len(open),
		"flagged_count", len(flagged),
	)
	return flagged, nil
}
