package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "collegium/contexts/editorial-college/nomination-engine/application"
	"collegium/contexts/editorial-college/nomination-engine/domain/entities"
	domainerrors "collegium/contexts/editorial-college/nomination-engine/domain/errors"
	"collegium/contexts/editorial-college/nomination-engine/ports"
)

// OpenRoundCommand starts voting on a nomination. OpensAt may be scheduled in
// the future; when nil the round opens immediately.
type OpenRoundCommand struct {
	NominationID string
	Kind         entities.RoundKind
	OpensAt      *time.Time
}

// EditRosterCommand adds or removes a single roster slot before the round
// opens for voting.
type EditRosterCommand struct {
	RoundID  string
	FellowID string
}

// OpenRoundResult reports the unresolved round for the nomination and whether
// this call created it. Created is false on replays, which keeps the sweep
// and retried requests idempotent.
type OpenRoundResult struct {
	Round   entities.VotingRound
	Created bool
}

// RoundUseCase opens voting rounds and manages their rosters. The roster is
// frozen once voting opens; changes after that fail with ErrRosterLocked.
type RoundUseCase struct {
	Nominations   ports.NominationRepository
	Rounds        ports.RoundRepository
	Votes         ports.VoteRepository
	Eligibility   ports.EligibilityProvider
	Outbox        ports.OutboxWriter
	Clock         ports.Clock
	IDGen         ports.IDGenerator
	MinRosterSize int
	RoundDuration time.Duration
	Logger        *slog.Logger
}

func (uc RoundUseCase) OpenRound(ctx context.Context, cmd OpenRoundCommand) (OpenRoundResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	nominationID := strings.TrimSpace(cmd.NominationID)
	if nominationID == "" {
		return OpenRoundResult{}, domainerrors.ErrInvalidNominationInput
	}
	nomination, err := uc.Nominations.GetNomination(ctx, nominationID)
	if err != nil {
		return OpenRoundResult{}, err
	}
	switch nomination.Status {
	case entities.NominationStatusIdentified, entities.NominationStatusNominated:
	case entities.NominationStatusVoteOngoing:
		if existing, found, err := uc.Rounds.GetUnresolvedRound(ctx, nominationID); err != nil {
			return OpenRoundResult{}, err
		} else if found {
			return OpenRoundResult{Round: existing}, nil
		}
		return OpenRoundResult{}, domainerrors.ErrInternalInconsistency
	default:
		return OpenRoundResult{}, domainerrors.ErrNominationClosed
	}

	roster, err := uc.Eligibility.NominationVoterRoster(ctx, nomination.CollegeID, nomination.CandidatePersonID)
	if err != nil {
		return OpenRoundResult{}, err
	}
	if len(roster.Members) < uc.MinRosterSize {
		logger.Warn("round refused for thin roster",
			"event", "round_open_refused",
			"module", "editorial-college/nomination-engine",
			"layer", "application",
			"nomination_id", nominationID,
			"eligible", len(roster.Members),
			"required", uc.MinRosterSize,
			"fallback_applied", roster.FallbackApplied,
		)
		return OpenRoundResult{}, &domainerrors.InsufficientEligibleVotersError{
			Eligible:        len(roster.Members),
			Required:        uc.MinRosterSize,
			FallbackApplied: roster.FallbackApplied,
		}
	}

	now := uc.now()
	opensAt := now
	if cmd.OpensAt != nil {
		opensAt = cmd.OpensAt.UTC()
	}
	kind := cmd.Kind
	if kind == "" {
		kind = entities.RoundKindSenior
	}
	roundID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return OpenRoundResult{}, err
	}
	memberIDs := make([]string, 0, len(roster.Members))
	for _, member := range roster.Members {
		memberIDs = append(memberIDs, member.FellowID)
	}
	round := entities.VotingRound{
		RoundID:      roundID,
		NominationID: nominationID,
		Kind:         kind,
		Roster:       memberIDs,
		OpensAt:      opensAt,
		Deadline:     opensAt.Add(uc.RoundDuration),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.Rounds.CreateRound(ctx, round); err != nil {
		if errors.Is(err, domainerrors.ErrOpenRoundExists) {
			// Lost the create race: report the winner's round instead.
			existing, found, lookupErr := uc.Rounds.GetUnresolvedRound(ctx, nominationID)
			if lookupErr != nil {
				return OpenRoundResult{}, lookupErr
			}
			if !found {
				return OpenRoundResult{}, domainerrors.ErrInternalInconsistency
			}
			return OpenRoundResult{Round: existing}, nil
		}
		return OpenRoundResult{}, err
	}

	nomination.Status = entities.NominationStatusVoteOngoing
	nomination.UpdatedAt = now
	if err := uc.Nominations.SaveNomination(ctx, nomination); err != nil {
		return OpenRoundResult{}, err
	}
	if err := uc.materializeNominatorAgreement(ctx, nomination, round, roster.Members); err != nil {
		return OpenRoundResult{}, err
	}
	if err := uc.appendRoundEvent(ctx, "round.opened", nomination, round, now); err != nil {
		return OpenRoundResult{}, err
	}

	logger.Info("voting round opened",
		"event", "round_opened",
		"module", "editorial-college/nomination-engine",
		"layer", "application",
		"nomination_id", nominationID,
		"round_id", round.RoundID,
		"roster_size", len(round.Roster),
		"deadline", round.Deadline.Format(time.RFC3339),
	)
	return OpenRoundResult{Round: round, Created: true}, nil
}

func (uc RoundUseCase) AddRosterFellow(ctx context.Context, cmd EditRosterCommand) (entities.VotingRound, error) {
	return uc.editRoster(ctx, cmd, true)
}

func (uc RoundUseCase) RemoveRosterFellow(ctx context.Context, cmd EditRosterCommand) (entities.VotingRound, error) {
	return uc.editRoster(ctx, cmd, false)
}

func (uc RoundUseCase) editRoster(ctx context.Context, cmd EditRosterCommand, add bool) (entities.VotingRound, error) {
	logger := application.ResolveLogger(uc.Logger)
	roundID := strings.TrimSpace(cmd.RoundID)
	fellowID := strings.TrimSpace(cmd.FellowID)
	if roundID == "" || fellowID == "" {
		return entities.VotingRound{}, domainerrors.ErrInvalidNominationInput
	}
	round, err := uc.Rounds.GetRound(ctx, roundID)
	if err != nil {
		return entities.VotingRound{}, err
	}
	now := uc.now()
	if round.Resolved {
		return entities.VotingRound{}, domainerrors.ErrRoundClosed
	}
	if !now.Before(round.OpensAt) {
		return entities.VotingRound{}, domainerrors.ErrRosterLocked
	}

	roster := make([]string, 0, len(round.Roster)+1)
	for _, member := range round.Roster {
		if member != fellowID {
			roster = append(roster, member)
		}
	}
	if add {
		roster = append(roster, fellowID)
	}
	if len(roster) < uc.MinRosterSize {
		return entities.VotingRound{}, &domainerrors.InsufficientEligibleVotersError{
			Eligible: len(roster),
			Required: uc.MinRosterSize,
		}
	}
	if err := uc.Rounds.UpdateRoster(ctx, roundID, roster, now); err != nil {
		return entities.VotingRound{}, err
	}
	round.Roster = roster
	round.UpdatedAt = now
	logger.Info("round roster edited",
		"event", "round_roster_edited",
		"module", "editorial-college/nomination-engine",
		"layer", "application",
		"round_id", roundID,
		"fellow_id", fellowID,
		"added", add,
		"roster_size", len(roster),
	)
	return round, nil
}

// materializeNominatorAgreement converts the self-nomination flag into a real
// agree vote once the roster is known. A duplicate insert means the nominator
// already voted through the regular path, which is fine.
func (uc RoundUseCase) materializeNominatorAgreement(
	ctx context.Context,
	nomination entities.Nomination,
	round entities.VotingRound,
	members []ports.RosterMember,
) error {
	if !nomination.NominatorAgreesOnOpen {
		return nil
	}
	var nominatorFellowID string
	for _, member := range members {
		if member.PersonID == nomination.NominatorPersonID {
			nominatorFellowID = member.FellowID
			break
		}
	}
	if nominatorFellowID == "" {
		return nil
	}
	err := uc.Votes.InsertVote(ctx, entities.Vote{
		RoundID:  round.RoundID,
		FellowID: nominatorFellowID,
		Value:    entities.VoteValueAgree,
		CastAt:   round.OpensAt,
	})
	if err != nil && !errors.Is(err, domainerrors.ErrDuplicateVote) {
		return err
	}
	return nil
}

func (uc RoundUseCase) appendRoundEvent(
	ctx context.Context,
	eventType string,
	nomination entities.Nomination,
	round entities.VotingRound,
	occurredAt time.Time,
) error {
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newNominationEnvelope(eventID, eventType, nomination.NominationID, occurredAt, map[string]any{
		"nomination_id":       nomination.NominationID,
		"round_id":            round.RoundID,
		"college_id":          nomination.CollegeID,
		"candidate_person_id": nomination.CandidatePersonID,
		"roster_size":         len(round.Roster),
		"opens_at":            round.OpensAt.Format(time.RFC3339),
		"deadline":            round.Deadline.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, envelope)
}

func (uc RoundUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
