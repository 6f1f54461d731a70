package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "collegium/contexts/editorial-college/eligibility-service/application"
	"collegium/contexts/editorial-college/eligibility-service/domain/entities"
	domainerrors "collegium/contexts/editorial-college/eligibility-service/domain/errors"
	"collegium/contexts/editorial-college/eligibility-service/ports"
)

// CreateFellowshipCommand records a new Fellowship, typically when an elected
// candidate's invitation is accepted.
type CreateFellowshipCommand struct {
	CollegeID string
	PersonID  string
	Tier      entities.FellowTier
	StartDate *time.Time
	UntilDate *time.Time
}

type CreateFellowshipResult struct {
	Fellow  entities.Fellow
	Created bool
}

// EditFellowWindowCommand adjusts the active window of an existing
// Fellowship. Windows are the only mutable part of a fellowship record.
type EditFellowWindowCommand struct {
	FellowID  string
	StartDate *time.Time
	UntilDate *time.Time
}

type FellowshipUseCase struct {
	Fellows ports.FellowRepository
	Outbox  ports.OutboxWriter
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Logger  *slog.Logger
}

// CreateFellowship is idempotent per (college, person): if an active
// fellowship already covers "now", it is returned unchanged so the
// invitation handoff can be retried safely.
func (uc FellowshipUseCase) CreateFellowship(
	ctx context.Context,
	cmd CreateFellowshipCommand,
) (CreateFellowshipResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	collegeID := strings.TrimSpace(cmd.CollegeID)
	personID := strings.TrimSpace(cmd.PersonID)
	if collegeID == "" || personID == "" {
		return CreateFellowshipResult{}, domainerrors.ErrInvalidFellowInput
	}
	tier := cmd.Tier
	if tier == "" {
		tier = entities.FellowTierRegular
	}
	switch tier {
	case entities.FellowTierRegular, entities.FellowTierSenior, entities.FellowTierGuest:
	default:
		return CreateFellowshipResult{}, domainerrors.ErrInvalidFellowInput
	}
	if cmd.StartDate != nil && cmd.UntilDate != nil && cmd.UntilDate.Before(*cmd.StartDate) {
		return CreateFellowshipResult{}, domainerrors.ErrInvalidActiveWindow
	}

	now := uc.now()
	if existing, found, err := uc.Fellows.FindFellowship(ctx, collegeID, personID, now); err != nil {
		return CreateFellowshipResult{}, err
	} else if found {
		logger.Info("fellowship creation replayed",
			"event", "eligibility_fellowship_replayed",
			"module", "editorial-college/eligibility-service",
			"layer", "application",
			"fellow_id", existing.FellowID,
			"college_id", collegeID,
			"person_id", personID,
		)
		return CreateFellowshipResult{Fellow: existing}, nil
	}

	fellowID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return CreateFellowshipResult{}, err
	}
	fellow := entities.Fellow{
		FellowID:  fellowID,
		PersonID:  personID,
		CollegeID: collegeID,
		Tier:      tier,
		StartDate: cmd.StartDate,
		UntilDate: cmd.UntilDate,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.Fellows.SaveFellow(ctx, fellow); err != nil {
		return CreateFellowshipResult{}, err
	}
	if err := uc.appendFellowshipEvent(ctx, "fellowship.created", fellow, now); err != nil {
		return CreateFellowshipResult{}, err
	}

	logger.Info("fellowship created",
		"event", "eligibility_fellowship_created",
		"module", "editorial-college/eligibility-service",
		"layer", "application",
		"fellow_id", fellow.FellowID,
		"college_id", collegeID,
		"person_id", personID,
		"tier", string(tier),
	)
	return CreateFellowshipResult{Fellow: fellow, Created: true}, nil
}

func (uc FellowshipUseCase) EditFellowWindow(ctx context.Context, cmd EditFellowWindowCommand) (entities.Fellow, error) {
	logger := application.ResolveLogger(uc.Logger)
	fellow, err := uc.Fellows.GetFellow(ctx, strings.TrimSpace(cmd.FellowID))
	if err != nil {
		return entities.Fellow{}, err
	}
	if cmd.StartDate != nil && cmd.UntilDate != nil && cmd.UntilDate.Before(*cmd.StartDate) {
		return entities.Fellow{}, domainerrors.ErrInvalidActiveWindow
	}

	fellow.StartDate = cmd.StartDate
	fellow.UntilDate = cmd.UntilDate
	fellow.UpdatedAt = uc.now()
	if err := uc.Fellows.SaveFellow(ctx, fellow); err != nil {
		return entities.Fellow{}, err
	}
	logger.Info("fellowship window edited",
		"event", "eligibility_fellowship_window_edited",
		"module", "editorial-college/eligibility-service",
		"layer", "application",
		"fellow_id", fellow.FellowID,
	)
	return fellow, nil
}

func (uc FellowshipUseCase) appendFellowshipEvent(
	ctx context.Context,
	eventType string,
	fellow entities.Fellow,
	occurredAt time.Time,
) error {
	// Outbox is optional for pure read/test wiring, so nil is treated as no-op.
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newEligibilityEnvelope(eventID, eventType, fellow.CollegeID, occurredAt, map[string]any{
		"fellow_id":  fellow.FellowID,
		"college_id": fellow.CollegeID,
		"person_id":  fellow.PersonID,
		"tier":       string(fellow.Tier),
	})
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, envelope)
}

func (uc FellowshipUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
