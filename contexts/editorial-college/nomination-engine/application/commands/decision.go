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

// FixDecisionCommand closes a round. AdminOverride skips the readiness gate;
// OverrideOutcome, when set alongside it, replaces the tallied outcome.
type FixDecisionCommand struct {
	RoundID         string
	Comments        string
	AdminOverride   bool
	OverrideOutcome *entities.Outcome
}

// FixDecisionResult reports the decision for the round and whether this call
// fixed it. Fixed is false when another writer won the race.
type FixDecisionResult struct {
	Decision entities.Decision
	Fixed    bool
}

// DecisionUseCase fixes round outcomes. The decision write is a
// compare-and-swap on round identity, so concurrent fixations converge on a
// single decision row.
type DecisionUseCase struct {
	Nominations ports.NominationRepository
	Rounds      ports.RoundRepository
	Votes       ports.VoteRepository
	Decisions   ports.DecisionRepository
	Outbox      ports.OutboxWriter
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	Quorum      int
	Logger      *slog.Logger
}

func (uc DecisionUseCase) FixDecision(ctx context.Context, cmd FixDecisionCommand) (FixDecisionResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	roundID := strings.TrimSpace(cmd.RoundID)
	if roundID == "" {
		return FixDecisionResult{}, domainerrors.ErrInvalidNominationInput
	}
	round, err := uc.Rounds.GetRound(ctx, roundID)
	if err != nil {
		return FixDecisionResult{}, err
	}
	if round.Resolved {
		existing, found, err := uc.Decisions.GetDecision(ctx, roundID)
		if err != nil {
			return FixDecisionResult{}, err
		}
		if !found {
			return FixDecisionResult{}, domainerrors.ErrInternalInconsistency
		}
		return FixDecisionResult{Decision: existing}, nil
	}
	nomination, err := uc.Nominations.GetNomination(ctx, round.NominationID)
	if err != nil {
		return FixDecisionResult{}, err
	}
	votes, err := uc.Votes.ListVotesByRound(ctx, roundID)
	if err != nil {
		return FixDecisionResult{}, err
	}

	now := uc.now()
	if !cmd.AdminOverride {
		if ready, reason := round.ReadyForDecision(len(votes), uc.Quorum, now); !ready {
			return FixDecisionResult{}, &domainerrors.DecisionNotReadyError{
				Reason:        reason,
				EligibleCount: len(round.Roster),
				VotesCast:     len(votes),
				Deadline:      round.Deadline,
			}
		}
	}

	vetoes, err := uc.Nominations.ListVetoes(ctx, round.NominationID)
	if err != nil {
		return FixDecisionResult{}, err
	}
	tally := entities.TallyVotes(votes)
	outcome := tally.Outcome(len(vetoes) > 0)
	if cmd.AdminOverride && cmd.OverrideOutcome != nil {
		outcome = *cmd.OverrideOutcome
	}

	decision := entities.Decision{
		RoundID:       roundID,
		NominationID:  round.NominationID,
		Outcome:       outcome,
		Comments:      strings.TrimSpace(cmd.Comments),
		FixedAt:       now,
		AdminOverride: cmd.AdminOverride,
	}
	if err := uc.Decisions.CreateDecision(ctx, decision); err != nil {
		if errors.Is(err, domainerrors.ErrRoundDecided) {
			existing, found, lookupErr := uc.Decisions.GetDecision(ctx, roundID)
			if lookupErr != nil {
				return FixDecisionResult{}, lookupErr
			}
			if !found {
				return FixDecisionResult{}, domainerrors.ErrInternalInconsistency
			}
			return FixDecisionResult{Decision: existing}, nil
		}
		return FixDecisionResult{}, err
	}
	if err := uc.Rounds.MarkRoundResolved(ctx, roundID, now); err != nil {
		return FixDecisionResult{}, err
	}

	switch outcome {
	case entities.OutcomeElected:
		nomination.Status = entities.NominationStatusElected
	case entities.OutcomeNotElected:
		nomination.Status = entities.NominationStatusNotElected
	default:
		// Inconclusive leaves the nomination open for a follow-up round.
		nomination.Status = entities.NominationStatusNominated
	}
	nomination.UpdatedAt = now
	if err := uc.Nominations.SaveNomination(ctx, nomination); err != nil {
		return FixDecisionResult{}, err
	}
	if err := uc.appendDecisionEvent(ctx, nomination, decision, tally); err != nil {
		return FixDecisionResult{}, err
	}

	logger.Info("round decision fixed",
		"event", "decision_fixed",
		"module", "editorial-college/nomination-engine",
		"layer", "application",
		"round_id", roundID,
		"nomination_id", round.NominationID,
		"outcome", string(outcome),
		"agree", tally.Agree,
		"abstain", tally.Abstain,
		"disagree", tally.Disagree,
		"admin_override", cmd.AdminOverride,
	)
	return FixDecisionResult{Decision: decision, Fixed: true}, nil
}

func (uc DecisionUseCase) appendDecisionEvent(
	ctx context.Context,
	nomination entities.Nomination,
	decision entities.Decision,
	tally entities.Tally,
) error {
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newNominationEnvelope(eventID, "decision.fixed", nomination.NominationID, decision.FixedAt, map[string]any{
		"round_id":            decision.RoundID,
		"nomination_id":       decision.NominationID,
		"college_id":          nomination.CollegeID,
		"candidate_person_id": nomination.CandidatePersonID,
		"outcome":             string(decision.Outcome),
		"agree":               tally.Agree,
		"abstain":             tally.Abstain,
		"disagree":            tally.Disagree,
		"admin_override":      decision.AdminOverride,
	})
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, envelope)
}

func (uc DecisionUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
