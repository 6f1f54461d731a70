package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "collegium/contexts/editorial-college/eligibility-service/application"
	"collegium/contexts/editorial-college/eligibility-service/application/queries"
	"collegium/contexts/editorial-college/eligibility-service/domain/entities"
	domainerrors "collegium/contexts/editorial-college/eligibility-service/domain/errors"
	"collegium/contexts/editorial-college/eligibility-service/ports"
)

// AssignPoolCommand rebuilds a manuscript's candidate pool. It is re-invoked
// whenever submission specialties or the author list change.
type AssignPoolCommand struct {
	SubmissionID string
}

type AssignPoolResult struct {
	PoolSize        int
	FallbackApplied bool
}

// AdminPoolEditCommand records an editorial administrator's manual add or
// removal of a Fellow for a submission.
type AdminPoolEditCommand struct {
	SubmissionID string
	FellowID     string
	Remove       bool
}

// PoolUseCase maintains manuscript reviewer/voter pools on top of the
// eligibility computation. All writes are upserts so repeated invocation is
// safe: newly-eligible Fellows are added, admin-placed entries are never
// silently dropped.
type PoolUseCase struct {
	Eligibility queries.EligibilityUseCase
	Pools       ports.PoolRepository
	Fellows     ports.FellowRepository
	Clock       ports.Clock
	Logger      *slog.Logger
}

func (uc PoolUseCase) AssignPool(ctx context.Context, cmd AssignPoolCommand) (AssignPoolResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	submissionID := strings.TrimSpace(cmd.SubmissionID)
	if submissionID == "" {
		return AssignPoolResult{}, domainerrors.ErrManuscriptNotFound
	}

	roster, err := uc.Eligibility.ManuscriptReferees(ctx, submissionID)
	if err != nil {
		return AssignPoolResult{}, err
	}
	now := uc.now()
	for _, member := range roster.Members {
		entry := entities.PoolEntry{
			SubmissionID: submissionID,
			FellowID:     member.FellowID,
			Source:       entities.PoolSourceAutomatic,
			AddedAt:      now,
			UpdatedAt:    now,
		}
		if err := uc.Pools.UpsertPoolEntry(ctx, entry); err != nil {
			return AssignPoolResult{}, err
		}
	}

	logger.Info("candidate pool assigned",
		"event", "eligibility_pool_assigned",
		"module", "editorial-college/eligibility-service",
		"layer", "application",
		"submission_id", submissionID,
		"pool_size", roster.Size(),
		"fallback_applied", roster.FallbackApplied,
	)
	return AssignPoolResult{
		PoolSize:        roster.Size(),
		FallbackApplied: roster.FallbackApplied,
	}, nil
}

// EditPool applies an administrator override. Adds survive later AssignPool
// runs; removals keep the entry recorded but exclude it from the voting
// subset.
func (uc PoolUseCase) EditPool(ctx context.Context, cmd AdminPoolEditCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	submissionID := strings.TrimSpace(cmd.SubmissionID)
	fellowID := strings.TrimSpace(cmd.FellowID)
	if submissionID == "" || fellowID == "" {
		return domainerrors.ErrInvalidFellowInput
	}
	if _, err := uc.Fellows.GetFellow(ctx, fellowID); err != nil {
		return err
	}

	now := uc.now()
	if cmd.Remove {
		if err := uc.Pools.SetAdminRemoved(ctx, submissionID, fellowID, true, now); err != nil {
			return err
		}
	} else {
		entry := entities.PoolEntry{
			SubmissionID: submissionID,
			FellowID:     fellowID,
			Source:       entities.PoolSourceAdminOverride,
			AddedAt:      now,
			UpdatedAt:    now,
		}
		if err := uc.Pools.UpsertPoolEntry(ctx, entry); err != nil {
			return err
		}
	}

	logger.Info("candidate pool edited by administrator",
		"event", "eligibility_pool_admin_edit",
		"module", "editorial-college/eligibility-service",
		"layer", "application",
		"submission_id", submissionID,
		"fellow_id", fellowID,
		"removed", cmd.Remove,
	)
	return nil
}

// VotingSubset returns the pool entries usable for voting: everything in the
// candidate pool minus fellows an administrator removed.
func (uc PoolUseCase) VotingSubset(ctx context.Context, submissionID string) ([]entities.PoolEntry, error) {
	entries, err := uc.Pools.ListPool(ctx, strings.TrimSpace(submissionID))
	if err != nil {
		return nil, err
	}
	subset := make([]entities.PoolEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.RemovedByAdmin {
			continue
		}
		subset = append(subset, entry)
	}
	return subset, nil
}

func (uc PoolUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
