package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"collegium/contexts/editorial-college/invitation-service/application/commands"
	"collegium/contexts/editorial-college/invitation-service/application/queries"
	"collegium/contexts/editorial-college/invitation-service/domain/entities"
	domainerrors "collegium/contexts/editorial-college/invitation-service/domain/errors"
	httptransport "collegium/contexts/editorial-college/invitation-service/transport/http"
)

type Handler struct {
	Invitations commands.InvitationUseCase
	Attention   queries.AttentionUseCase
	Logger      *slog.Logger
}

func (h Handler) CreateInvitationHandler(
	ctx context.Context,
	req httptransport.CreateInvitationRequest,
) (httptransport.InvitationResponse, error) {
	result, err := h.Invitations.CreateInvitation(ctx, commands.CreateInvitationCommand{
		NominationID:      req.NominationID,
		CollegeID:         req.CollegeID,
		CandidatePersonID: req.CandidatePersonID,
	})
	if err != nil {
		return httptransport.InvitationResponse{}, err
	}
	return mapInvitation(result.Invitation, result.Created), nil
}

func (h Handler) GetInvitationHandler(
	ctx context.Context,
	invitationID string,
) (httptransport.InvitationResponse, error) {
	invitation, err := h.Attention.Invitation(ctx, invitationID)
	if err != nil {
		return httptransport.InvitationResponse{}, err
	}
	return mapInvitation(invitation, false), nil
}

func (h Handler) RecordResponseHandler(
	ctx context.Context,
	invitationID string,
	req httptransport.RecordResponseRequest,
) (httptransport.InvitationResponse, error) {
	postponedUntil, err := parseOptionalTime(req.PostponedUntil)
	if err != nil {
		return httptransport.InvitationResponse{}, domainerrors.ErrInvalidInvitationInput
	}
	invitation, err := h.Invitations.RecordResponse(ctx, commands.RecordResponseCommand{
		InvitationID:   invitationID,
		Response:       entities.ResponseState(req.Response),
		PostponedUntil: postponedUntil,
		Comments:       req.Comments,
	})
	if err != nil {
		return httptransport.InvitationResponse{}, err
	}
	return mapInvitation(invitation, false), nil
}

func (h Handler) SendReminderHandler(
	ctx context.Context,
	invitationID string,
) (httptransport.InvitationResponse, error) {
	invitation, err := h.Invitations.SendReminder(ctx, commands.SendReminderCommand{
		InvitationID: invitationID,
	})
	if err != nil {
		return httptransport.InvitationResponse{}, err
	}
	return mapInvitation(invitation, false), nil
}

func (h Handler) NeedsAttentionHandler(ctx context.Context) (httptransport.AttentionListResponse, error) {
	flagged, err := h.Attention.NeedsAttention(ctx)
	if err != nil {
		return httptransport.AttentionListResponse{}, err
	}
	items := make([]httptransport.InvitationResponse, 0, len(flagged))
	for _, invitation := range flagged {
		items = append(items, mapInvitation(invitation, false))
	}
	return httptransport.AttentionListResponse{Invitations: items}, nil
}

func mapInvitation(invitation entities.Invitation, created bool) httptransport.InvitationResponse {
	return httptransport.InvitationResponse{
		InvitationID:      invitation.InvitationID,
		NominationID:      invitation.NominationID,
		CollegeID:         invitation.CollegeID,
		CandidatePersonID: invitation.CandidatePersonID,
		Response:          string(invitation.Response),
		InvitedAt:         formatOptionalTime(invitation.InvitedAt),
		LastContactAt:     formatOptionalTime(invitation.LastContactAt),
		RespondedAt:       formatOptionalTime(invitation.RespondedAt),
		PostponedUntil:    formatOptionalTime(invitation.PostponedUntil),
		Comments:          invitation.Comments,
		Created:           created,
	}
}

func parseOptionalTime(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, *value)
	if err != nil {
		return nil, err
	}
	utc := parsed.UTC()
	return &utc, nil
}

func formatOptionalTime(value *time.Time) *string {
	if value == nil {
		return nil
	}
	formatted := value.UTC().Format(time.RFC3339)
	return &formatted
}
