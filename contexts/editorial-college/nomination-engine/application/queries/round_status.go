package queries

import (
	"context"
	"log/slog"
	"strings"

	application "collegium/contexts/editorial-college/nomination-engine/application"
	"collegium/contexts/editorial-college/nomination-engine/domain/entities"
	domainerrors "collegium/contexts/editorial-college/nomination-engine/domain/errors"
	"collegium/contexts/editorial-college/nomination-engine/ports"
)

// RoundStatusView bundles the live state of a round: the running tally, the
// advisory decision gate, and the decision once one exists.
type RoundStatusView struct {
	Round          entities.VotingRound
	Tally          entities.Tally
	EligibleCount  int
	VotesCast      int
	HasVeto        bool
	CanFixDecision bool
	NotReadyReason string
	Decision       *entities.Decision
}

// RoundStatusUseCase answers read-side questions about rounds and
// nominations. It never mutates state, so handlers may call it concurrently.
type RoundStatusUseCase struct {
	Nominations ports.NominationRepository
	Rounds      ports.RoundRepository
	Votes       ports.VoteRepository
	Decisions   ports.DecisionRepository
	Clock       ports.Clock
	Quorum      int
	Logger      *slog.Logger
}

func (uc RoundStatusUseCase) RoundStatus(ctx context.Context, roundID string) (RoundStatusView, error) {
	logger := application.ResolveLogger(uc.Logger)
	roundID = strings.TrimSpace(roundID)
	if roundID == "" {
		return RoundStatusView{}, domainerrors.ErrInvalidNominationInput
	}
	round, err := uc.Rounds.GetRound(ctx, roundID)
	if err != nil {
		return RoundStatusView{}, err
	}
	votes, err := uc.Votes.ListVotesByRound(ctx, roundID)
	if err != nil {
		return RoundStatusView{}, err
	}
	vetoes, err := uc.Nominations.ListVetoes(ctx, round.NominationID)
	if err != nil {
		return RoundStatusView{}, err
	}

	view := RoundStatusView{
		Round:         round,
		Tally:         entities.TallyVotes(votes),
		EligibleCount: len(round.Roster),
		VotesCast:     len(votes),
		HasVeto:       len(vetoes) > 0,
	}
	view.CanFixDecision, view.NotReadyReason = round.ReadyForDecision(len(votes), uc.Quorum, uc.Clock.Now().UTC())
	if decision, found, err := uc.Decisions.GetDecision(ctx, roundID); err != nil {
		return RoundStatusView{}, err
	} else if found {
		view.Decision = &decision
		view.CanFixDecision = false
		view.NotReadyReason = ""
	}

	logger.Debug("round status resolved",
		"event", "round_status_resolved",
		"module", "editorial-college/nomination-engine",
		"layer", "application",
		"round_id", roundID,
		"votes_cast", view.VotesCast,
		"can_fix_decision", view.CanFixDecision,
	)
	return view, nil
}

// NominationsByStatus lists nominations in one lifecycle state, chiefly for
// the admin dashboard and the sweep.
func (uc RoundStatusUseCase) NominationsByStatus(
	ctx context.Context,
	status entities.NominationStatus,
) ([]entities.Nomination, error) {
	return uc.Nominations.ListNominationsByStatus(ctx, status)
}

// NominationRounds returns the full round history of a nomination, oldest
// first.
func (uc RoundStatusUseCase) NominationRounds(
	ctx context.Context,
	nominationID string,
) ([]entities.VotingRound, error) {
	nominationID = strings.TrimSpace(nominationID)
	if nominationID == "" {
		return nil, domainerrors.ErrInvalidNominationInput
	}
	if _, err := uc.Nominations.GetNomination(ctx, nominationID); err != nil {
		return nil, err
	}
	return uc.Rounds.ListRoundsByNomination(ctx, nominationID)
}
