package workers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	application "collegium/contexts/editorial-college/nomination-engine/application"
	"collegium/contexts/editorial-college/nomination-engine/application/commands"
	"collegium/contexts/editorial-college/nomination-engine/domain/entities"
	domainerrors "collegium/contexts/editorial-college/nomination-engine/domain/errors"
	"collegium/contexts/editorial-college/nomination-engine/ports"
)

// RoundOpener is the slice of the round command surface the sweep needs.
type RoundOpener interface {
	OpenRound(ctx context.Context, cmd commands.OpenRoundCommand) (commands.OpenRoundResult, error)
}

// GovernanceSweep is the periodic maintenance pass: it flags rounds whose
// deadline passed without a decision and opens rounds for nominations that
// are ready to be voted on. Every step is idempotent, so overlapping or
// repeated runs converge on the same state.
type GovernanceSweep struct {
	Nominations ports.NominationRepository
	Rounds      ports.RoundRepository
	Opener      RoundOpener
	Clock       ports.Clock
	Logger      *slog.Logger
}

func (s GovernanceSweep) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(s.Logger)
	now := s.now()

	flagged, err := s.flagOverdueRounds(ctx, now, logger)
	if err != nil {
		return err
	}
	opened, err := s.openPendingRounds(ctx, logger)
	if err != nil {
		return err
	}

	logger.Info("governance sweep completed",
		"event", "governance_sweep_completed",
		"module", "editorial-college/nomination-engine",
		"layer", "worker",
		"overdue_flagged", flagged,
		"rounds_opened", opened,
	)
	return nil
}

func (s GovernanceSweep) flagOverdueRounds(ctx context.Context, now time.Time, logger *slog.Logger) (int, error) {
	overdue, err := s.Rounds.ListOverdueRounds(ctx, now)
	if err != nil {
		logger.Error("overdue round listing failed",
			"event", "governance_sweep_list_overdue_failed",
			"module", "editorial-college/nomination-engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return 0, err
	}
	flagged := 0
	for _, round := range overdue {
		// MarkRoundOverdue is set-once; a false return means another sweep
		// run already flagged the round.
		wasFlagged, err := s.Rounds.MarkRoundOverdue(ctx, round.RoundID, now)
		if err != nil {
			return flagged, err
		}
		if !wasFlagged {
			continue
		}
		flagged++
		logger.Warn("voting round overdue",
			"event", "governance_sweep_round_overdue",
			"module", "editorial-college/nomination-engine",
			"layer", "worker",
			"round_id", round.RoundID,
			"nomination_id", round.NominationID,
			"deadline", round.Deadline.Format(time.RFC3339),
		)
	}
	return flagged, nil
}

func (s GovernanceSweep) openPendingRounds(ctx context.Context, logger *slog.Logger) (int, error) {
	nominated, err := s.Nominations.ListNominationsByStatus(ctx, entities.NominationStatusNominated)
	if err != nil {
		logger.Error("nominated listing failed",
			"event", "governance_sweep_list_nominated_failed",
			"module", "editorial-college/nomination-engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return 0, err
	}
	opened := 0
	for _, nomination := range nominated {
		result, err := s.Opener.OpenRound(ctx, commands.OpenRoundCommand{NominationID: nomination.NominationID})
		if err != nil {
			var thin *domainerrors.InsufficientEligibleVotersError
			if errors.As(err, &thin) {
				logger.Debug("round deferred for thin roster",
					"event", "governance_sweep_round_deferred",
					"module", "editorial-college/nomination-engine",
					"layer", "worker",
					"nomination_id", nomination.NominationID,
					"eligible", thin.Eligible,
					"required", thin.Required,
				)
				continue
			}
			logger.Error("sweep round open failed",
				"event", "governance_sweep_round_open_failed",
				"module", "editorial-college/nomination-engine",
				"layer", "worker",
				"nomination_id", nomination.NominationID,
				"error", err.Error(),
			)
			continue
		}
		if result.Created {
			opened++
		}
	}
	return opened, nil
}

func (s GovernanceSweep) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
