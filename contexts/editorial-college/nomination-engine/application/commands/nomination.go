package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "collegium/contexts/editorial-college/nomination-engine/application"
	"collegium/contexts/editorial-college/nomination-engine/domain/entities"
	domainerrors "collegium/contexts/editorial-college/nomination-engine/domain/errors"
	"collegium/contexts/editorial-college/nomination-engine/ports"
)

// CreateNominationCommand proposes a candidate to a college. NominatorIsFellow
// marks the self-nomination path: the nomination starts at NOMINATED and the
// nominator is recorded as an agree voter-in-waiting.
type CreateNominationCommand struct {
	CollegeID         string
	CandidatePersonID string
	NominatorPersonID string
	Comments          string
	NominatorIsFellow bool
}

// MarkInvitedCommand records that the formal invitation for an elected
// candidate has been opened.
type MarkInvitedCommand struct {
	NominationID string
}

// RecordVetoCommand blocks a nomination. Idempotent per (nomination, fellow).
type RecordVetoCommand struct {
	NominationID string
	FellowID     string
	Reason       string
}

// NominationUseCase drives the nomination lifecycle up to the point a round
// opens. The re-nomination cool-down consumes both prior not-elected
// decisions and declined invitations.
type NominationUseCase struct {
	Nominations ports.NominationRepository
	Decisions   ports.DecisionRepository
	Declines    ports.DeclineHistory
	Outbox      ports.OutboxWriter
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	Cooldown    time.Duration
	Logger      *slog.Logger
}

func (uc NominationUseCase) CreateNomination(
	ctx context.Context,
	cmd CreateNominationCommand,
) (entities.Nomination, error) {
	logger := application.ResolveLogger(uc.Logger)
	collegeID := strings.TrimSpace(cmd.CollegeID)
	candidateID := strings.TrimSpace(cmd.CandidatePersonID)
	nominatorID := strings.TrimSpace(cmd.NominatorPersonID)
	logger.Info("nomination create processing started",
		"event", "nomination_create_started",
		"module", "editorial-college/nomination-engine",
		"layer", "application",
		"college_id", collegeID,
		"candidate_person_id", candidateID,
		"nominator_person_id", nominatorID,
	)
	if collegeID == "" || candidateID == "" || nominatorID == "" {
		logger.Warn("nomination create validation failed",
			"event", "nomination_create_validation_failed",
			"module", "editorial-college/nomination-engine",
			"layer", "application",
			"college_id", collegeID,
			"candidate_person_id", candidateID,
		)
		return entities.Nomination{}, domainerrors.ErrInvalidNominationInput
	}

	now := uc.now()
	if err := uc.checkCooldown(ctx, collegeID, candidateID, now); err != nil {
		return entities.Nomination{}, err
	}

	nominationID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Nomination{}, err
	}
	status := entities.NominationStatusIdentified
	if cmd.NominatorIsFellow {
		status = entities.NominationStatusNominated
	}
	nomination := entities.Nomination{
		NominationID:          nominationID,
		CollegeID:             collegeID,
		CandidatePersonID:     candidateID,
		NominatorPersonID:     nominatorID,
		Comments:              strings.TrimSpace(cmd.Comments),
		Status:                status,
		NominatorAgreesOnOpen: cmd.NominatorIsFellow,
		NominatedAt:           now,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := uc.Nominations.SaveNomination(ctx, nomination); err != nil {
		return entities.Nomination{}, err
	}
	if err := uc.appendNominationEvent(ctx, "nomination.opened", nomination, now, nil); err != nil {
		return entities.Nomination{}, err
	}

	logger.Info("nomination created",
		"event", "nomination_created",
		"module", "editorial-college/nomination-engine",
		"layer", "application",
		"nomination_id", nomination.NominationID,
		"college_id", collegeID,
		"candidate_person_id", candidateID,
		"status", string(status),
	)
	return nomination, nil
}

func (uc NominationUseCase) RecordVeto(ctx context.Context, cmd RecordVetoCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	nominationID := strings.TrimSpace(cmd.NominationID)
	fellowID := strings.TrimSpace(cmd.FellowID)
	if nominationID == "" || fellowID == "" {
		return domainerrors.ErrInvalidNominationInput
	}
	nomination, err := uc.Nominations.GetNomination(ctx, nominationID)
	if err != nil {
		return err
	}

	now := uc.now()
	created, err := uc.Nominations.InsertVeto(ctx, entities.Veto{
		NominationID: nominationID,
		FellowID:     fellowID,
		Reason:       strings.TrimSpace(cmd.Reason),
		VetoedAt:     now,
	})
	if err != nil {
		return err
	}
	if !created {
		logger.Debug("veto replayed",
			"event", "nomination_veto_replayed",
			"module", "editorial-college/nomination-engine",
			"layer", "application",
			"nomination_id", nominationID,
			"fellow_id", fellowID,
		)
		return nil
	}
	if err := uc.appendNominationEvent(ctx, "nomination.vetoed", nomination, now, map[string]any{
		"fellow_id": fellowID,
	}); err != nil {
		return err
	}
	logger.Info("nomination vetoed",
		"event", "nomination_vetoed",
		"module", "editorial-college/nomination-engine",
		"layer", "application",
		"nomination_id", nominationID,
		"fellow_id", fellowID,
	)
	return nil
}

// MarkInvited advances an elected nomination to invited once its invitation
// is opened. Replays are no-ops; notifications arriving for a nomination in
// any other state are logged and dropped rather than failed, so a delayed
// event cannot wedge the consumer.
func (uc NominationUseCase) MarkInvited(ctx context.Context, cmd MarkInvitedCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	nominationID := strings.TrimSpace(cmd.NominationID)
	if nominationID == "" {
		return domainerrors.ErrInvalidNominationInput
	}
	nomination, err := uc.Nominations.GetNomination(ctx, nominationID)
	if err != nil {
		return err
	}
	switch nomination.Status {
	case entities.NominationStatusInvited:
		return nil
	case entities.NominationStatusElected:
	default:
		logger.Warn("invitation notice ignored for non-elected nomination",
			"event", "nomination_mark_invited_skipped",
			"module", "editorial-college/nomination-engine",
			"layer", "application",
			"nomination_id", nominationID,
			"status", string(nomination.Status),
		)
		return nil
	}

	nomination.Status = entities.NominationStatusInvited
	nomination.UpdatedAt = uc.now()
	if err := uc.Nominations.SaveNomination(ctx, nomination); err != nil {
		return err
	}
	logger.Info("nomination marked invited",
		"event", "nomination_marked_invited",
		"module", "editorial-college/nomination-engine",
		"layer", "application",
		"nomination_id", nominationID,
		"candidate_person_id", nomination.CandidatePersonID,
	)
	return nil
}

// checkCooldown rejects a candidate still inside the cool-down window after a
// not-elected decision or a declined invitation, naming the lift date.
func (uc NominationUseCase) checkCooldown(
	ctx context.Context,
	collegeID string,
	candidateID string,
	now time.Time,
) error {
	if rejectedAt, found, err := uc.Decisions.LatestRejection(ctx, collegeID, candidateID); err != nil {
		return err
	} else if found {
		liftsAt := rejectedAt.UTC().Add(uc.Cooldown)
		if now.Before(liftsAt) {
			return &domainerrors.CooldownActiveError{
				CandidatePersonID: candidateID,
				Cause:             "not_elected",
				LiftsAt:           liftsAt,
			}
		}
	}
	if uc.Declines == nil {
		return nil
	}
	if declinedAt, found, err := uc.Declines.LatestDecline(ctx, collegeID, candidateID); err != nil {
		return err
	} else if found {
		liftsAt := declinedAt.UTC().Add(uc.Cooldown)
		if now.Before(liftsAt) {
			return &domainerrors.CooldownActiveError{
				CandidatePersonID: candidateID,
				Cause:             "invitation_declined",
				LiftsAt:           liftsAt,
			}
		}
	}
	return nil
}

func (uc NominationUseCase) appendNominationEvent(
	ctx context.Context,
	eventType string,
	nomination entities.Nomination,
	occurredAt time.Time,
	metadata map[string]any,
) error {
	// Outbox is optional for pure read/test wiring, so nil is treated as no-op.
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	data := map[string]any{
		"nomination_id":       nomination.NominationID,
		"college_id":          nomination.CollegeID,
		"candidate_person_id": nomination.CandidatePersonID,
		"status":              string(nomination.Status),
		"occurred_at":         occurredAt.Format(time.RFC3339),
	}
	for key, value := range metadata {
		data[key] = value
	}
	envelope, err := newNominationEnvelope(eventID, eventType, nomination.NominationID, occurredAt, data)
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, envelope)
}

func (uc NominationUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
