package commands

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

// CreateInvitationCommand opens the formal offer for an elected nomination.
type CreateInvitationCommand struct {
	NominationID      string
	CollegeID         string
	CandidatePersonID string
}

// RecordResponseCommand registers the candidate's reply. PostponedUntil is
// required when the response is postponed.
type RecordResponseCommand struct {
	InvitationID   string
	Response       entities.ResponseState
	PostponedUntil *time.Time
	Comments       string
}

type SendReminderCommand struct {
	InvitationID string
}

// CreateInvitationResult carries the invitation and whether this call
// created it; replays return the existing one.
type CreateInvitationResult struct {
	Invitation entities.Invitation
	Created    bool
}

// InvitationUseCase drives the invitation contact cycle. An accepted reply
// from a candidate with a registered account immediately becomes a
// Fellowship through the eligibility service.
type InvitationUseCase struct {
	Invitations ports.InvitationRepository
	Directory   ports.DirectoryReader
	Fellowships ports.FellowshipCreator
	Outbox      ports.OutboxWriter
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	Logger      *slog.Logger
}

func (uc InvitationUseCase) CreateInvitation(
	ctx context.Context,
	cmd CreateInvitationCommand,
) (CreateInvitationResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	nominationID := strings.TrimSpace(cmd.NominationID)
	collegeID := strings.TrimSpace(cmd.CollegeID)
	candidateID := strings.TrimSpace(cmd.CandidatePersonID)
	if nominationID == "" || collegeID == "" || candidateID == "" {
		return CreateInvitationResult{}, domainerrors.ErrInvalidInvitationInput
	}
	if existing, found, err := uc.Invitations.GetInvitationByNomination(ctx, nominationID); err != nil {
		return CreateInvitationResult{}, err
	} else if found {
		return CreateInvitationResult{Invitation: existing}, nil
	}

	now := uc.now()
	invitationID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return CreateInvitationResult{}, err
	}
	invitation := entities.Invitation{
		InvitationID:      invitationID,
		NominationID:      nominationID,
		CollegeID:         collegeID,
		CandidatePersonID: candidateID,
		Response:          entities.ResponseNotYetInvited,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := uc.Invitations.SaveInvitation(ctx, invitation); err != nil {
		return CreateInvitationResult{}, err
	}
	if err := uc.appendInvitationEvent(ctx, "invitation.opened", invitation, now, nil); err != nil {
		return CreateInvitationResult{}, err
	}
	logger.Info("invitation created",
		"event", "invitation_created",
		"module", "editorial-college/invitation-service",
		"layer", "application",
		"invitation_id", invitationID,
		"nomination_id", nominationID,
		"candidate_person_id", candidateID,
	)
	return CreateInvitationResult{Invitation: invitation, Created: true}, nil
}

func (uc InvitationUseCase) RecordResponse(
	ctx context.Context,
	cmd RecordResponseCommand,
) (entities.Invitation, error) {
	logger := application.ResolveLogger(uc.Logger)
	invitationID := strings.TrimSpace(cmd.InvitationID)
	if invitationID == "" {
		return entities.Invitation{}, domainerrors.ErrInvalidInvitationInput
	}
	if !cmd.Response.Valid() || !isResponse(cmd.Response) {
		return entities.Invitation{}, domainerrors.ErrInvalidResponseState
	}
	if cmd.Response == entities.ResponsePostponed && cmd.PostponedUntil == nil {
		return entities.Invitation{}, domainerrors.ErrInvalidInvitationInput
	}
	invitation, err := uc.Invitations.GetInvitation(ctx, invitationID)
	if err != nil {
		return entities.Invitation{}, err
	}
	if invitation.Response.Final() {
		return entities.Invitation{}, domainerrors.ErrInvitationFinal
	}

	now := uc.now()
	previousResumeDate := invitation.PostponedUntil
	invitation.Response = cmd.Response
	invitation.RespondedAt = &now
	invitation.PostponedUntil = nil
	invitation.AttentionFlaggedAt = nil
	invitation.UpdatedAt = now
	if cmd.Comments != "" {
		invitation.Comments = strings.TrimSpace(cmd.Comments)
	}
	switch cmd.Response {
	case entities.ResponsePostponed:
		postponedUntil := cmd.PostponedUntil.UTC()
		invitation.PostponedUntil = &postponedUntil
	case entities.ResponseReinviteLater:
		// A reinvite_later reply keeps a previously agreed resume date
		// unless the candidate names a new one.
		invitation.PostponedUntil = previousResumeDate
		if cmd.PostponedUntil != nil {
			resumeAt := cmd.PostponedUntil.UTC()
			invitation.PostponedUntil = &resumeAt
		}
	}
	if err := uc.Invitations.SaveInvitation(ctx, invitation); err != nil {
		return entities.Invitation{}, err
	}
	if err := uc.materializeFellowship(ctx, invitation, logger); err != nil {
		return entities.Invitation{}, err
	}
	if err := uc.appendInvitationEvent(ctx, "invitation.response_changed", invitation, now, map[string]any{
		"response": string(invitation.Response),
	}); err != nil {
		return entities.Invitation{}, err
	}

	logger.Info("invitation response recorded",
		"event", "invitation_response_recorded",
		"module", "editorial-college/invitation-service",
		"layer", "application",
		"invitation_id", invitationID,
		"nomination_id", invitation.NominationID,
		"response", string(invitation.Response),
	)
	return invitation, nil
}

func (uc InvitationUseCase) SendReminder(
	ctx context.Context,
	cmd SendReminderCommand,
) (entities.Invitation, error) {
	logger := application.ResolveLogger(uc.Logger)
	invitationID := strings.TrimSpace(cmd.InvitationID)
	if invitationID == "" {
		return entities.Invitation{}, domainerrors.ErrInvalidInvitationInput
	}
	invitation, err := uc.Invitations.GetInvitation(ctx, invitationID)
	if err != nil {
		return entities.Invitation{}, err
	}
	next, ok := invitation.NextReminderState()
	if !ok {
		return entities.Invitation{}, domainerrors.ErrInvitationFinal
	}

	now := uc.now()
	invitation.Response = next
	invitation.LastContactAt = &now
	invitation.AttentionFlaggedAt = nil
	invitation.UpdatedAt = now
	if invitation.InvitedAt == nil {
		invitation.InvitedAt = &now
	}
	if err := uc.Invitations.SaveInvitation(ctx, invitation); err != nil {
		return entities.Invitation{}, err
	}
	if err := uc.appendInvitationEvent(ctx, "invitation.response_changed", invitation, now, map[string]any{
		"response": string(invitation.Response),
		"reminder": true,
	}); err != nil {
		return entities.Invitation{}, err
	}

	logger.Info("invitation reminder sent",
		"event", "invitation_reminder_sent",
		"module", "editorial-college/invitation-service",
		"layer", "application",
		"invitation_id", invitationID,
		"nomination_id", invitation.NominationID,
		"response", string(invitation.Response),
	)
	return invitation, nil
}

// materializeFellowship creates the Fellowship for an accepted invitation,
// or a future-dated one for a postponement, provided the candidate has a
// registered account. Candidates without one are surfaced by the attention
// query instead.
func (uc InvitationUseCase) materializeFellowship(
	ctx context.Context,
	invitation entities.Invitation,
	logger *slog.Logger,
) error {
	if uc.Fellowships == nil || !invitation.Accepted() {
		return nil
	}
	var startDate *time.Time
	if invitation.Response == entities.ResponsePostponed {
		startDate = invitation.PostponedUntil
	}
	profile, err := uc.Directory.GetPerson(ctx, invitation.CandidatePersonID)
	if err != nil {
		return err
	}
	if !profile.HasAccount {
		logger.Warn("fellowship deferred for missing account",
			"event", "invitation_fellowship_deferred",
			"module", "editorial-college/invitation-service",
			"layer", "application",
			"invitation_id", invitation.InvitationID,
			"candidate_person_id", invitation.CandidatePersonID,
		)
		return nil
	}
	return uc.Fellowships.CreateFellowship(ctx, invitation.CollegeID, invitation.CandidatePersonID, startDate)
}

func (uc InvitationUseCase) appendInvitationEvent(
	ctx context.Context,
	eventType string,
	invitation entities.Invitation,
	occurredAt time.Time,
	metadata map[string]any,
) error {
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	data := map[string]any{
		"invitation_id":       invitation.InvitationID,
		"nomination_id":       invitation.NominationID,
		"college_id":          invitation.CollegeID,
		"candidate_person_id": invitation.CandidatePersonID,
	}
	for key, value := range metadata {
		data[key] = value
	}
	envelope, err := newInvitationEnvelope(eventID, eventType, invitation.NominationID, occurredAt, data)
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, envelope)
}

func isResponse(state entities.ResponseState) bool {
	switch state {
	case entities.ResponseAccepted, entities.ResponsePostponed, entities.ResponseDeclined,
		entities.ResponseUnresponsive, entities.ResponseReinviteLater:
		return true
	}
	return false
}

func (uc InvitationUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
