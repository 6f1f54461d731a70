package queries

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "collegium/contexts/editorial-college/eligibility-service/application"
	"collegium/contexts/editorial-college/eligibility-service/domain/entities"
	"collegium/contexts/editorial-college/eligibility-service/ports"
)

// RosterMember pairs a fellowship with the person holding it so callers can
// match people (nominators, authors) against roster slots.
type RosterMember struct {
	FellowID string
	PersonID string
}

// Roster is the result of an eligibility computation: a point-in-time
// snapshot, side-effect free and reproducible with identical inputs.
type Roster struct {
	Members         []RosterMember
	FallbackApplied bool
}

func (r Roster) Size() int {
	return len(r.Members)
}

func (r Roster) FellowIDs() []string {
	ids := make([]string, 0, len(r.Members))
	for _, member := range r.Members {
		ids = append(ids, member.FellowID)
	}
	return ids
}

// EligibilityUseCase computes which Fellows may act on a target. Each stage
// only removes candidates; re-running with identical inputs and identical
// directory/conflict state yields an identical roster.
type EligibilityUseCase struct {
	Fellows           ports.FellowRepository
	Directory         ports.DirectoryReader
	Conflicts         ports.ConflictRegistry
	Manuscripts       ports.ManuscriptReader
	Clock             ports.Clock
	FallbackThreshold int
	Logger            *slog.Logger
}

// NominationVoters returns the senior Fellows of the college eligible to vote
// on a candidate, matched against the candidate profile's specialties.
func (uc EligibilityUseCase) NominationVoters(
	ctx context.Context,
	collegeID string,
	candidatePersonID string,
) (Roster, error) {
	logger := application.ResolveLogger(uc.Logger)
	now := uc.now()

	candidates, err := uc.Fellows.ListFellowsByCollege(ctx, strings.TrimSpace(collegeID))
	if err != nil {
		return Roster{}, err
	}
	profile, err := uc.Directory.GetPerson(ctx, strings.TrimSpace(candidatePersonID))
	if err != nil {
		return Roster{}, err
	}

	pool := filterActive(candidates, now)
	pool = filterTier(pool, entities.FellowTierSenior)
	pool, fallback, err := uc.applySpecialtyMatch(ctx, pool, profile.Specialties)
	if err != nil {
		return Roster{}, err
	}

	roster := toRoster(pool, fallback)
	logger.Info("nomination voter roster computed",
		"event", "eligibility_nomination_roster_computed",
		"module", "editorial-college/eligibility-service",
		"layer", "application",
		"college_id", strings.TrimSpace(collegeID),
		"candidate_person_id", strings.TrimSpace(candidatePersonID),
		"eligible_count", roster.Size(),
		"fallback_applied", roster.FallbackApplied,
	)
	return roster, nil
}

// ManuscriptReferees returns the Fellows eligible to referee a manuscript:
// active, regular or senior tier, specialty-matched (with the college-wide
// fallback), and free of conflicts of interest with the author list.
func (uc EligibilityUseCase) ManuscriptReferees(
	ctx context.Context,
	submissionID string,
) (Roster, error) {
	logger := application.ResolveLogger(uc.Logger)
	now := uc.now()

	target, err := uc.Manuscripts.GetManuscript(ctx, strings.TrimSpace(submissionID))
	if err != nil {
		return Roster{}, err
	}
	candidates, err := uc.Fellows.ListFellowsByCollege(ctx, target.CollegeID)
	if err != nil {
		return Roster{}, err
	}

	pool := filterActive(candidates, now)
	pool = filterTier(pool, entities.FellowTierRegular, entities.FellowTierSenior)
	pool, fallback, err := uc.applySpecialtyMatch(ctx, pool, target.SpecialtyIDs)
	if err != nil {
		return Roster{}, err
	}
	pool, err = uc.excludeConflicted(ctx, pool, target)
	if err != nil {
		return Roster{}, err
	}

	roster := toRoster(pool, fallback)
	logger.Info("manuscript referee roster computed",
		"event", "eligibility_referee_roster_computed",
		"module", "editorial-college/eligibility-service",
		"layer", "application",
		"submission_id", target.SubmissionID,
		"college_id", target.CollegeID,
		"eligible_count", roster.Size(),
		"fallback_applied", roster.FallbackApplied,
	)
	return roster, nil
}

// applySpecialtyMatch keeps Fellows whose person shares at least one
// specialty with the target set. When the match starves the pool at or below
// the threshold, it broadens back to every active college Fellow so narrow
// specialties cannot leave a round without voters.
func (uc EligibilityUseCase) applySpecialtyMatch(
	ctx context.Context,
	pool []entities.Fellow,
	targetSpecialties []string,
) ([]entities.Fellow, bool, error) {
	wanted := make(map[string]struct{}, len(targetSpecialties))
	for _, specialty := range targetSpecialties {
		specialty = strings.TrimSpace(specialty)
		if specialty != "" {
			wanted[specialty] = struct{}{}
		}
	}

	matched := make([]entities.Fellow, 0, len(pool))
	for _, fellow := range pool {
		profile, err := uc.Directory.GetPerson(ctx, fellow.PersonID)
		if err != nil {
			return nil, false, err
		}
		if overlaps(profile.Specialties, wanted) {
			matched = append(matched, fellow)
		}
	}

	if len(matched) <= uc.fallbackThreshold() {
		return pool, true, nil
	}
	return matched, false, nil
}

// excludeConflicted removes Fellows who author the manuscript, carry a
// declared competing interest with any author, or hold an unrefuted personal
// authorship claim on it.
func (uc EligibilityUseCase) excludeConflicted(
	ctx context.Context,
	pool []entities.Fellow,
	target ports.ManuscriptTarget,
) ([]entities.Fellow, error) {
	authors := make(map[string]struct{}, len(target.AuthorPersonIDs))
	for _, author := range target.AuthorPersonIDs {
		authors[strings.TrimSpace(author)] = struct{}{}
	}
	claimants := make(map[string]struct{}, len(target.ClaimantPersonIDs))
	for _, claimant := range target.ClaimantPersonIDs {
		claimants[strings.TrimSpace(claimant)] = struct{}{}
	}

	kept := make([]entities.Fellow, 0, len(pool))
	for _, fellow := range pool {
		if _, isAuthor := authors[fellow.PersonID]; isAuthor {
			continue
		}
		if _, hasClaim := claimants[fellow.PersonID]; hasClaim {
			continue
		}
		conflicted := false
		for author := range authors {
			has, err := uc.Conflicts.HasConflict(ctx, fellow.PersonID, author)
			if err != nil {
				return nil, err
			}
			if has {
				conflicted = true
				break
			}
		}
		if !conflicted {
			kept = append(kept, fellow)
		}
	}
	return kept, nil
}

func toRoster(pool []entities.Fellow, fallback bool) Roster {
	members := make([]RosterMember, 0, len(pool))
	for _, fellow := range pool {
		members = append(members, RosterMember{
			FellowID: fellow.FellowID,
			PersonID: fellow.PersonID,
		})
	}
	return Roster{Members: members, FallbackApplied: fallback}
}

func (uc EligibilityUseCase) fallbackThreshold() int {
	if uc.FallbackThreshold <= 0 {
		return 5
	}
	return uc.FallbackThreshold
}

func (uc EligibilityUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func filterActive(pool []entities.Fellow, at time.Time) []entities.Fellow {
	kept := make([]entities.Fellow, 0, len(pool))
	for _, fellow := range pool {
		if fellow.ActiveAt(at) {
			kept = append(kept, fellow)
		}
	}
	return kept
}

func filterTier(pool []entities.Fellow, tiers ...entities.FellowTier) []entities.Fellow {
	allowed := make(map[entities.FellowTier]struct{}, len(tiers))
	for _, tier := range tiers {
		allowed[tier] = struct{}{}
	}
	kept := make([]entities.Fellow, 0, len(pool))
	for _, fellow := range pool {
		if _, ok := allowed[fellow.Tier]; ok {
			kept = append(kept, fellow)
		}
	}
	return kept
}

func overlaps(specialties []string, wanted map[string]struct{}) bool {
	for _, specialty := range specialties {
		if _, ok := wanted[strings.TrimSpace(specialty)]; ok {
			return true
		}
	}
	return false
}
