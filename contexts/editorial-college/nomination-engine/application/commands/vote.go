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

type CastVoteCommand struct {
	RoundID  string
	FellowID string
	Value    entities.VoteValue
}

type RetractVoteCommand struct {
	RoundID  string
	FellowID string
}

// VoteUseCase records and retracts ballots. Uniqueness per (round, fellow) is
// enforced by the repository insert, not by a read-then-write here, so two
// concurrent casts cannot both land.
type VoteUseCase struct {
	Rounds ports.RoundRepository
	Votes  ports.VoteRepository
	Outbox ports.OutboxWriter
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

func (uc VoteUseCase) CastVote(ctx context.Context, cmd CastVoteCommand) (entities.Vote, error) {
	logger := application.ResolveLogger(uc.Logger)
	roundID := strings.TrimSpace(cmd.RoundID)
	fellowID := strings.TrimSpace(cmd.FellowID)
	if roundID == "" || fellowID == "" || !cmd.Value.Valid() {
		return entities.Vote{}, domainerrors.ErrInvalidVoteInput
	}
	round, now, err := uc.openRoundFor(ctx, roundID, fellowID)
	if err != nil {
		return entities.Vote{}, err
	}

	vote := entities.Vote{
		RoundID:  round.RoundID,
		FellowID: fellowID,
		Value:    cmd.Value,
		CastAt:   now,
	}
	if err := uc.Votes.InsertVote(ctx, vote); err != nil {
		if errors.Is(err, domainerrors.ErrDuplicateVote) {
			logger.Warn("duplicate ballot rejected",
				"event", "vote_duplicate_rejected",
				"module", "editorial-college/nomination-engine",
				"layer", "application",
				"round_id", roundID,
				"fellow_id", fellowID,
			)
		}
		return entities.Vote{}, err
	}
	if err := uc.appendVoteEvent(ctx, "vote.cast", round, fellowID, now); err != nil {
		return entities.Vote{}, err
	}

	logger.Info("ballot recorded",
		"event", "vote_cast",
		"module", "editorial-college/nomination-engine",
		"layer", "application",
		"round_id", roundID,
		"fellow_id", fellowID,
	)
	return vote, nil
}

// RetractVote withdraws a ballot while the round is still open; the fellow
// may cast again afterwards.
func (uc VoteUseCase) RetractVote(ctx context.Context, cmd RetractVoteCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	roundID := strings.TrimSpace(cmd.RoundID)
	fellowID := strings.TrimSpace(cmd.FellowID)
	if roundID == "" || fellowID == "" {
		return domainerrors.ErrInvalidVoteInput
	}
	round, now, err := uc.openRoundFor(ctx, roundID, fellowID)
	if err != nil {
		return err
	}
	if err := uc.Votes.DeleteVote(ctx, roundID, fellowID); err != nil {
		return err
	}
	if err := uc.appendVoteEvent(ctx, "vote.retracted", round, fellowID, now); err != nil {
		return err
	}
	logger.Info("ballot retracted",
		"event", "vote_retracted",
		"module", "editorial-college/nomination-engine",
		"layer", "application",
		"round_id", roundID,
		"fellow_id", fellowID,
	)
	return nil
}

func (uc VoteUseCase) openRoundFor(
	ctx context.Context,
	roundID string,
	fellowID string,
) (entities.VotingRound, time.Time, error) {
	round, err := uc.Rounds.GetRound(ctx, roundID)
	if err != nil {
		return entities.VotingRound{}, time.Time{}, err
	}
	if !round.InRoster(fellowID) {
		return entities.VotingRound{}, time.Time{}, domainerrors.ErrNotInRoster
	}
	now := uc.now()
	if now.Before(round.OpensAt) {
		return entities.VotingRound{}, time.Time{}, domainerrors.ErrRoundNotOpenYet
	}
	if round.Resolved || now.After(round.Deadline) {
		return entities.VotingRound{}, time.Time{}, domainerrors.ErrRoundClosed
	}
	return round, now, nil
}

func (uc VoteUseCase) appendVoteEvent(
	ctx context.Context,
	eventType string,
	round entities.VotingRound,
	fellowID string,
	occurredAt time.Time,
) error {
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newNominationEnvelope(eventID, eventType, round.NominationID, occurredAt, map[string]any{
		"round_id":      round.RoundID,
		"nomination_id": round.NominationID,
		"fellow_id":     fellowID,
	})
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, envelope)
}

func (uc VoteUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
