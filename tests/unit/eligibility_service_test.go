package unit

import (
	"context"
	"errors"
	"testing"
	"time"

	eligibilityservice "collegium/contexts/editorial-college/eligibility-service"
	eligibilitycommands "collegium/contexts/editorial-college/eligibility-service/application/commands"
	"collegium/contexts/editorial-college/eligibility-service/domain/entities"
	eligibilityerrors "collegium/contexts/editorial-college/eligibility-service/domain/errors"
	"collegium/contexts/editorial-college/eligibility-service/ports"
)

func seniorFellow(id, personID, collegeID string) entities.Fellow {
	return entities.Fellow{
		FellowID:  id,
		PersonID:  personID,
		CollegeID: collegeID,
		Tier:      entities.FellowTierSenior,
	}
}

func TestManuscriptRefereeFilterStages(t *testing.T) {
	now := time.Now().UTC()
	expired := now.Add(-24 * time.Hour)
	seed := []entities.Fellow{
		seniorFellow("fellow-1", "person-1", "college-phys"),
		{FellowID: "fellow-2", PersonID: "person-2", CollegeID: "college-phys", Tier: entities.FellowTierRegular},
		seniorFellow("fellow-3", "person-3", "college-phys"),
		seniorFellow("fellow-4", "person-4", "college-phys"),
		{FellowID: "fellow-5", PersonID: "person-5", CollegeID: "college-phys", Tier: entities.FellowTierRegular},
		seniorFellow("fellow-6", "person-6", "college-phys"),
		{FellowID: "fellow-7", PersonID: "person-7", CollegeID: "college-phys", Tier: entities.FellowTierGuest},
		{FellowID: "fellow-8", PersonID: "person-8", CollegeID: "college-phys", Tier: entities.FellowTierRegular, UntilDate: &expired},
	}
	module := eligibilityservice.NewInMemoryModule(seed, 5, nil)
	for _, personID := range []string{"person-1", "person-2", "person-3", "person-4", "person-5", "person-6", "person-7", "person-8"} {
		module.Store.SetPerson(ports.PersonProfile{
			PersonID:    personID,
			Specialties: []string{"hep-th"},
			HasAccount:  true,
		})
	}
	module.Store.SetManuscript(ports.ManuscriptTarget{
		SubmissionID:      "submission-1",
		CollegeID:         "college-phys",
		SpecialtyIDs:      []string{"hep-th"},
		AuthorPersonIDs:   []string{"person-2", "author-outside"},
		ClaimantPersonIDs: []string{"person-4"},
	})
	module.Store.SetConflict("person-3", "author-outside")

	roster, err := module.Eligibility.ManuscriptReferees(context.Background(), "submission-1")
	if err != nil {
		t.Fatalf("manuscript referees failed: %v", err)
	}
	if roster.FallbackApplied {
		t.Fatalf("expected specialty match without fallback")
	}
	want := map[string]bool{"fellow-1": true, "fellow-5": true, "fellow-6": true}
	if len(roster.Members) != len(want) {
		t.Fatalf("expected %d referees, got %d (%v)", len(want), len(roster.Members), roster.FellowIDs())
	}
	for _, member := range roster.Members {
		if !want[member.FellowID] {
			t.Fatalf("unexpected referee %s", member.FellowID)
		}
	}
}

func TestNominationVotersSeniorTierWithFallback(t *testing.T) {
	seed := []entities.Fellow{
		seniorFellow("fellow-1", "person-1", "college-chem"),
		seniorFellow("fellow-2", "person-2", "college-chem"),
		seniorFellow("fellow-3", "person-3", "college-chem"),
		seniorFellow("fellow-4", "person-4", "college-chem"),
		seniorFellow("fellow-5", "person-5", "college-chem"),
		seniorFellow("fellow-6", "person-6", "college-chem"),
		seniorFellow("fellow-7", "person-7", "college-chem"),
		{FellowID: "fellow-8", PersonID: "person-8", CollegeID: "college-chem", Tier: entities.FellowTierRegular},
	}
	module := eligibilityservice.NewInMemoryModule(seed, 5, nil)
	// Only two senior fellows share the candidate's narrow specialty.
	for i, personID := range []string{"person-1", "person-2", "person-3", "person-4", "person-5", "person-6", "person-7", "person-8"} {
		specialty := "phys-gen"
		if i < 2 {
			specialty = "quantum-chem"
		}
		module.Store.SetPerson(ports.PersonProfile{
			PersonID:    personID,
			Specialties: []string{specialty},
			HasAccount:  true,
		})
	}
	module.Store.SetPerson(ports.PersonProfile{
		PersonID:    "candidate-1",
		Specialties: []string{"quantum-chem"},
		HasAccount:  true,
	})

	roster, err := module.Eligibility.NominationVoters(context.Background(), "college-chem", "candidate-1")
	if err != nil {
		t.Fatalf("nomination voters failed: %v", err)
	}
	if !roster.FallbackApplied {
		t.Fatalf("expected college-wide fallback for narrow specialty")
	}
	if len(roster.Members) != 7 {
		t.Fatalf("expected 7 senior voters after fallback, got %d", len(roster.Members))
	}
	for _, member := range roster.Members {
		if member.FellowID == "fellow-8" {
			t.Fatalf("regular-tier fellow must not appear in a nomination roster")
		}
	}
}

func TestPoolUpsertKeepsAdminOverrides(t *testing.T) {
	seed := []entities.Fellow{
		seniorFellow("fellow-1", "person-1", "college-phys"),
		seniorFellow("fellow-2", "person-2", "college-phys"),
		seniorFellow("fellow-3", "person-3", "college-phys"),
		seniorFellow("fellow-4", "person-4", "college-phys"),
		seniorFellow("fellow-5", "person-5", "college-phys"),
		seniorFellow("fellow-6", "person-6", "college-phys"),
		seniorFellow("fellow-extra", "person-extra", "college-phys"),
	}
	module := eligibilityservice.NewInMemoryModule(seed, 3, nil)
	for _, personID := range []string{"person-1", "person-2", "person-3", "person-4", "person-5", "person-6"} {
		module.Store.SetPerson(ports.PersonProfile{PersonID: personID, Specialties: []string{"astro"}, HasAccount: true})
	}
	module.Store.SetPerson(ports.PersonProfile{PersonID: "person-extra", Specialties: []string{"cond-mat"}, HasAccount: true})
	module.Store.SetManuscript(ports.ManuscriptTarget{
		SubmissionID: "submission-9",
		CollegeID:    "college-phys",
		SpecialtyIDs: []string{"astro"},
	})

	ctx := context.Background()
	first, err := module.Pools.AssignPool(ctx, eligibilitycommands.AssignPoolCommand{SubmissionID: "submission-9"})
	if err != nil {
		t.Fatalf("assign pool failed: %v", err)
	}
	if first.PoolSize != 6 {
		t.Fatalf("expected 6 automatic entries, got %d", first.PoolSize)
	}

	if err := module.Pools.EditPool(ctx, eligibilitycommands.AdminPoolEditCommand{
		SubmissionID: "submission-9",
		FellowID:     "fellow-extra",
	}); err != nil {
		t.Fatalf("admin add failed: %v", err)
	}
	if err := module.Pools.EditPool(ctx, eligibilitycommands.AdminPoolEditCommand{
		SubmissionID: "submission-9",
		FellowID:     "fellow-1",
		Remove:       true,
	}); err != nil {
		t.Fatalf("admin remove failed: %v", err)
	}

	// Re-running assignment must not undo either override.
	if _, err := module.Pools.AssignPool(ctx, eligibilitycommands.AssignPoolCommand{SubmissionID: "submission-9"}); err != nil {
		t.Fatalf("re-assign pool failed: %v", err)
	}

	subset, err := module.Pools.VotingSubset(ctx, "submission-9")
	if err != nil {
		t.Fatalf("voting subset failed: %v", err)
	}
	seen := map[string]entities.PoolEntry{}
	for _, entry := range subset {
		seen[entry.FellowID] = entry
	}
	if _, ok := seen["fellow-1"]; ok {
		t.Fatalf("admin-removed fellow must stay out of the voting subset")
	}
	extra, ok := seen["fellow-extra"]
	if !ok {
		t.Fatalf("admin-added fellow missing from voting subset")
	}
	if extra.Source != entities.PoolSourceAdminOverride {
		t.Fatalf("admin-added entry downgraded to %s", extra.Source)
	}
	if len(subset) != 6 {
		t.Fatalf("expected 6 entries in voting subset, got %d", len(subset))
	}

	// The removed entry stays recorded in the full pool.
	pool, err := module.Store.ListPool(ctx, "submission-9")
	if err != nil {
		t.Fatalf("list pool failed: %v", err)
	}
	if len(pool) != 7 {
		t.Fatalf("expected 7 recorded entries, got %d", len(pool))
	}
}

func TestAddingConflictsOnlyShrinksTheRoster(t *testing.T) {
	seed := []entities.Fellow{
		seniorFellow("fellow-1", "person-1", "college-phys"),
		seniorFellow("fellow-2", "person-2", "college-phys"),
		seniorFellow("fellow-3", "person-3", "college-phys"),
		seniorFellow("fellow-4", "person-4", "college-phys"),
		seniorFellow("fellow-5", "person-5", "college-phys"),
		seniorFellow("fellow-6", "person-6", "college-phys"),
		seniorFellow("fellow-7", "person-7", "college-phys"),
	}
	module := eligibilityservice.NewInMemoryModule(seed, 3, nil)
	for _, personID := range []string{"person-1", "person-2", "person-3", "person-4", "person-5", "person-6", "person-7"} {
		module.Store.SetPerson(ports.PersonProfile{PersonID: personID, Specialties: []string{"gravitation"}, HasAccount: true})
	}
	module.Store.SetManuscript(ports.ManuscriptTarget{
		SubmissionID:    "submission-3",
		CollegeID:       "college-phys",
		SpecialtyIDs:    []string{"gravitation"},
		AuthorPersonIDs: []string{"author-1"},
	})

	ctx := context.Background()
	before, err := module.Eligibility.ManuscriptReferees(ctx, "submission-3")
	if err != nil {
		t.Fatalf("manuscript referees failed: %v", err)
	}

	module.Store.SetConflict("person-2", "author-1")
	module.Store.SetConflict("person-5", "author-1")

	after, err := module.Eligibility.ManuscriptReferees(ctx, "submission-3")
	if err != nil {
		t.Fatalf("manuscript referees failed: %v", err)
	}
	if len(after.Members) != len(before.Members)-2 {
		t.Fatalf("expected roster to shrink by 2, got %d -> %d", len(before.Members), len(after.Members))
	}
	allowed := map[string]bool{}
	for _, member := range before.Members {
		allowed[member.FellowID] = true
	}
	for _, member := range after.Members {
		if !allowed[member.FellowID] {
			t.Fatalf("declaring a conflict must never add fellow %s", member.FellowID)
		}
		if member.FellowID == "fellow-2" || member.FellowID == "fellow-5" {
			t.Fatalf("conflicted fellow %s survived the filter", member.FellowID)
		}
	}
}

func TestFellowshipCreateReplayAndWindowEdit(t *testing.T) {
	module := eligibilityservice.NewInMemoryModule(nil, 5, nil)
	ctx := context.Background()

	first, err := module.Fellowships.CreateFellowship(ctx, eligibilitycommands.CreateFellowshipCommand{
		CollegeID: "college-math",
		PersonID:  "person-42",
		Tier:      entities.FellowTierSenior,
	})
	if err != nil {
		t.Fatalf("create fellowship failed: %v", err)
	}
	if !first.Created {
		t.Fatalf("expected first create to report created")
	}
	second, err := module.Fellowships.CreateFellowship(ctx, eligibilitycommands.CreateFellowshipCommand{
		CollegeID: "college-math",
		PersonID:  "person-42",
	})
	if err != nil {
		t.Fatalf("replay create failed: %v", err)
	}
	if second.Created {
		t.Fatalf("expected replay to return the existing fellowship")
	}
	if second.Fellow.FellowID != first.Fellow.FellowID {
		t.Fatalf("replay returned a different fellowship: %s vs %s", second.Fellow.FellowID, first.Fellow.FellowID)
	}

	start := time.Now().UTC()
	badEnd := start.Add(-time.Hour)
	if _, err := module.Fellowships.EditFellowWindow(ctx, eligibilitycommands.EditFellowWindowCommand{
		FellowID:  first.Fellow.FellowID,
		StartDate: &start,
		UntilDate: &badEnd,
	}); !errors.Is(err, eligibilityerrors.ErrInvalidActiveWindow) {
		t.Fatalf("expected invalid window error, got %v", err)
	}

	until := start.Add(365 * 24 * time.Hour)
	edited, err := module.Fellowships.EditFellowWindow(ctx, eligibilitycommands.EditFellowWindowCommand{
		FellowID:  first.Fellow.FellowID,
		StartDate: &start,
		UntilDate: &until,
	})
	if err != nil {
		t.Fatalf("edit window failed: %v", err)
	}
	if edited.UntilDate == nil || !edited.UntilDate.Equal(until) {
		t.Fatalf("window edit did not persist until date")
	}

	outbox := module.Store.ListOutbox()
	if len(outbox) != 1 {
		t.Fatalf("expected one fellowship event, got %d", len(outbox))
	}
	if outbox[0].EventType != "fellowship.created" {
		t.Fatalf("unexpected event type %s", outbox[0].EventType)
	}
}
