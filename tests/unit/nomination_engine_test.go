package unit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	nominationengine "collegium/contexts/editorial-college/nomination-engine"
	nominationcommands "collegium/contexts/editorial-college/nomination-engine/application/commands"
	nominationworkers "collegium/contexts/editorial-college/nomination-engine/application/workers"
	"collegium/contexts/editorial-college/nomination-engine/domain/entities"
	nominationerrors "collegium/contexts/editorial-college/nomination-engine/domain/errors"
	nominationports "collegium/contexts/editorial-college/nomination-engine/ports"
	"collegium/internal/shared/events"
)

const (
	testQuorum        = 3
	testMinRoster     = 6
	testCooldown      = 730 * 24 * time.Hour
	testRoundDuration = 14 * 24 * time.Hour
)

type rosterStub struct {
	members  []nominationports.RosterMember
	fallback bool
}

func (s rosterStub) NominationVoterRoster(
	_ context.Context,
	_ string,
	_ string,
) (nominationports.Roster, error) {
	return nominationports.Roster{Members: s.members, FallbackApplied: s.fallback}, nil
}

type declineStub struct {
	declinedAt time.Time
	found      bool
}

func (s declineStub) LatestDecline(_ context.Context, _ string, _ string) (time.Time, bool, error) {
	return s.declinedAt, s.found, nil
}

func sixFellowRoster() rosterStub {
	members := make([]nominationports.RosterMember, 0, 6)
	for i := 1; i <= 6; i++ {
		members = append(members, nominationports.RosterMember{
			FellowID: fmt.Sprintf("fellow-%d", i),
			PersonID: fmt.Sprintf("person-%d", i),
		})
	}
	return rosterStub{members: members}
}

func newNominationModule(eligibility nominationports.EligibilityProvider, declines nominationports.DeclineHistory) nominationengine.Module {
	return nominationengine.NewInMemoryModule(
		eligibility,
		declines,
		testQuorum,
		testMinRoster,
		testCooldown,
		testRoundDuration,
		nil,
	)
}

func TestNominationElectedLifecycle(t *testing.T) {
	module := newNominationModule(sixFellowRoster(), nil)
	ctx := context.Background()

	nomination, err := module.Nominations.CreateNomination(ctx, nominationcommands.CreateNominationCommand{
		CollegeID:         "college-phys",
		CandidatePersonID: "candidate-1",
		NominatorPersonID: "person-1",
		NominatorIsFellow: true,
	})
	if err != nil {
		t.Fatalf("create nomination failed: %v", err)
	}
	if nomination.Status != entities.NominationStatusNominated {
		t.Fatalf("expected nominated status for a fellow nominator, got %s", nomination.Status)
	}

	opened, err := module.Rounds.OpenRound(ctx, nominationcommands.OpenRoundCommand{NominationID: nomination.NominationID})
	if err != nil {
		t.Fatalf("open round failed: %v", err)
	}
	if !opened.Created {
		t.Fatalf("expected a freshly created round")
	}
	if len(opened.Round.Roster) != 6 {
		t.Fatalf("expected roster of 6, got %d", len(opened.Round.Roster))
	}

	after, err := module.Status.NominationRounds(ctx, nomination.NominationID)
	if err != nil {
		t.Fatalf("list rounds failed: %v", err)
	}
	if len(after) != 1 {
		t.Fatalf("expected one round, got %d", len(after))
	}

	// The nominating fellow's agreement is already on the books.
	status, err := module.Status.RoundStatus(ctx, opened.Round.RoundID)
	if err != nil {
		t.Fatalf("round status failed: %v", err)
	}
	if status.VotesCast != 1 || status.Tally.Agree != 1 {
		t.Fatalf("expected materialized nominator agreement, got %d votes (%+v)", status.VotesCast, status.Tally)
	}
	if status.CanFixDecision {
		t.Fatalf("decision must not be fixable with votes outstanding")
	}
	if status.NotReadyReason != entities.NotReadyVotesOutstanding {
		t.Fatalf("unexpected readiness reason %q", status.NotReadyReason)
	}

	if _, err := module.Decisions.FixDecision(ctx, nominationcommands.FixDecisionCommand{RoundID: opened.Round.RoundID}); err == nil {
		t.Fatalf("expected early fixation to be refused")
	} else {
		var notReady *nominationerrors.DecisionNotReadyError
		if !errors.As(err, &notReady) {
			t.Fatalf("expected decision-not-ready error, got %v", err)
		}
		if notReady.Reason != entities.NotReadyVotesOutstanding {
			t.Fatalf("unexpected not-ready reason %q", notReady.Reason)
		}
	}

	ballots := map[string]entities.VoteValue{
		"fellow-2": entities.VoteValueAgree,
		"fellow-3": entities.VoteValueAgree,
		"fellow-4": entities.VoteValueAgree,
		"fellow-5": entities.VoteValueDisagree,
		"fellow-6": entities.VoteValueAbstain,
	}
	for fellowID, value := range ballots {
		if _, err := module.Votes.CastVote(ctx, nominationcommands.CastVoteCommand{
			RoundID:  opened.Round.RoundID,
			FellowID: fellowID,
			Value:    value,
		}); err != nil {
			t.Fatalf("cast vote for %s failed: %v", fellowID, err)
		}
	}

	status, err = module.Status.RoundStatus(ctx, opened.Round.RoundID)
	if err != nil {
		t.Fatalf("round status failed: %v", err)
	}
	if !status.CanFixDecision {
		t.Fatalf("expected decision fixable once every roster member voted")
	}

	fixed, err := module.Decisions.FixDecision(ctx, nominationcommands.FixDecisionCommand{RoundID: opened.Round.RoundID})
	if err != nil {
		t.Fatalf("fix decision failed: %v", err)
	}
	if !fixed.Fixed {
		t.Fatalf("expected first fixation to report fixed")
	}
	// agree 4, disagree 1: margin 3/5 clears the one-half bar.
	if fixed.Decision.Outcome != entities.OutcomeElected {
		t.Fatalf("expected elected outcome, got %s", fixed.Decision.Outcome)
	}

	replay, err := module.Decisions.FixDecision(ctx, nominationcommands.FixDecisionCommand{RoundID: opened.Round.RoundID})
	if err != nil {
		t.Fatalf("replay fixation failed: %v", err)
	}
	if replay.Fixed {
		t.Fatalf("replay must not report a fresh fixation")
	}
	if replay.Decision.Outcome != entities.OutcomeElected {
		t.Fatalf("replay returned a different outcome: %s", replay.Decision.Outcome)
	}

	final, err := module.Store.GetNomination(ctx, nomination.NominationID)
	if err != nil {
		t.Fatalf("load nomination failed: %v", err)
	}
	if final.Status != entities.NominationStatusElected {
		t.Fatalf("expected elected nomination, got %s", final.Status)
	}
}

func TestOpenRoundRefusesThinRoster(t *testing.T) {
	thin := rosterStub{
		members: []nominationports.RosterMember{
			{FellowID: "fellow-1", PersonID: "person-1"},
			{FellowID: "fellow-2", PersonID: "person-2"},
		},
		fallback: true,
	}
	module := newNominationModule(thin, nil)
	ctx := context.Background()

	nomination, err := module.Nominations.CreateNomination(ctx, nominationcommands.CreateNominationCommand{
		CollegeID:         "college-phys",
		CandidatePersonID: "candidate-2",
		NominatorPersonID: "admin-1",
	})
	if err != nil {
		t.Fatalf("create nomination failed: %v", err)
	}

	_, err = module.Rounds.OpenRound(ctx, nominationcommands.OpenRoundCommand{NominationID: nomination.NominationID})
	var insufficient *nominationerrors.InsufficientEligibleVotersError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected insufficient-voters error, got %v", err)
	}
	if insufficient.Eligible != 2 || insufficient.Required != testMinRoster {
		t.Fatalf("unexpected counts in refusal: %+v", insufficient)
	}
	if !insufficient.FallbackApplied {
		t.Fatalf("refusal should report that the fallback was already applied")
	}
}

func TestOpenRoundReplayReturnsExistingRound(t *testing.T) {
	module := newNominationModule(sixFellowRoster(), nil)
	ctx := context.Background()

	nomination, err := module.Nominations.CreateNomination(ctx, nominationcommands.CreateNominationCommand{
		CollegeID:         "college-phys",
		CandidatePersonID: "candidate-3",
		NominatorPersonID: "admin-1",
	})
	if err != nil {
		t.Fatalf("create nomination failed: %v", err)
	}
	first, err := module.Rounds.OpenRound(ctx, nominationcommands.OpenRoundCommand{NominationID: nomination.NominationID})
	if err != nil {
		t.Fatalf("open round failed: %v", err)
	}
	second, err := module.Rounds.OpenRound(ctx, nominationcommands.OpenRoundCommand{NominationID: nomination.NominationID})
	if err != nil {
		t.Fatalf("replayed open failed: %v", err)
	}
	if second.Created {
		t.Fatalf("replay must not create a second unresolved round")
	}
	if second.Round.RoundID != first.Round.RoundID {
		t.Fatalf("replay returned a different round: %s vs %s", second.Round.RoundID, first.Round.RoundID)
	}
}

func TestVetoForcesNotElected(t *testing.T) {
	module := newNominationModule(sixFellowRoster(), nil)
	ctx := context.Background()

	nomination, err := module.Nominations.CreateNomination(ctx, nominationcommands.CreateNominationCommand{
		CollegeID:         "college-phys",
		CandidatePersonID: "candidate-4",
		NominatorPersonID: "admin-1",
	})
	if err != nil {
		t.Fatalf("create nomination failed: %v", err)
	}
	if err := module.Nominations.RecordVeto(ctx, nominationcommands.RecordVetoCommand{
		NominationID: nomination.NominationID,
		FellowID:     "fellow-1",
		Reason:       "past editorial misconduct concerns",
	}); err != nil {
		t.Fatalf("record veto failed: %v", err)
	}
	// Replaying the same veto is a no-op.
	if err := module.Nominations.RecordVeto(ctx, nominationcommands.RecordVetoCommand{
		NominationID: nomination.NominationID,
		FellowID:     "fellow-1",
	}); err != nil {
		t.Fatalf("veto replay failed: %v", err)
	}

	opened, err := module.Rounds.OpenRound(ctx, nominationcommands.OpenRoundCommand{NominationID: nomination.NominationID})
	if err != nil {
		t.Fatalf("open round failed: %v", err)
	}
	for i := 1; i <= 6; i++ {
		if _, err := module.Votes.CastVote(ctx, nominationcommands.CastVoteCommand{
			RoundID:  opened.Round.RoundID,
			FellowID: fmt.Sprintf("fellow-%d", i),
			Value:    entities.VoteValueAgree,
		}); err != nil {
			t.Fatalf("cast vote failed: %v", err)
		}
	}

	fixed, err := module.Decisions.FixDecision(ctx, nominationcommands.FixDecisionCommand{RoundID: opened.Round.RoundID})
	if err != nil {
		t.Fatalf("fix decision failed: %v", err)
	}
	if fixed.Decision.Outcome != entities.OutcomeNotElected {
		t.Fatalf("a vetoed nomination must not be elected, got %s", fixed.Decision.Outcome)
	}
}

func TestDuplicateVoteAndRetraction(t *testing.T) {
	module := newNominationModule(sixFellowRoster(), nil)
	ctx := context.Background()

	nomination, err := module.Nominations.CreateNomination(ctx, nominationcommands.CreateNominationCommand{
		CollegeID:         "college-phys",
		CandidatePersonID: "candidate-5",
		NominatorPersonID: "admin-1",
	})
	if err != nil {
		t.Fatalf("create nomination failed: %v", err)
	}
	opened, err := module.Rounds.OpenRound(ctx, nominationcommands.OpenRoundCommand{NominationID: nomination.NominationID})
	if err != nil {
		t.Fatalf("open round failed: %v", err)
	}

	if _, err := module.Votes.CastVote(ctx, nominationcommands.CastVoteCommand{
		RoundID:  opened.Round.RoundID,
		FellowID: "fellow-2",
		Value:    entities.VoteValueDisagree,
	}); err != nil {
		t.Fatalf("cast vote failed: %v", err)
	}
	if _, err := module.Votes.CastVote(ctx, nominationcommands.CastVoteCommand{
		RoundID:  opened.Round.RoundID,
		FellowID: "fellow-2",
		Value:    entities.VoteValueAgree,
	}); !errors.Is(err, nominationerrors.ErrDuplicateVote) {
		t.Fatalf("expected duplicate vote rejection, got %v", err)
	}
	if _, err := module.Votes.CastVote(ctx, nominationcommands.CastVoteCommand{
		RoundID:  opened.Round.RoundID,
		FellowID: "fellow-outsider",
		Value:    entities.VoteValueAgree,
	}); !errors.Is(err, nominationerrors.ErrNotInRoster) {
		t.Fatalf("expected roster rejection, got %v", err)
	}

	if err := module.Votes.RetractVote(ctx, nominationcommands.RetractVoteCommand{
		RoundID:  opened.Round.RoundID,
		FellowID: "fellow-2",
	}); err != nil {
		t.Fatalf("retract vote failed: %v", err)
	}
	// Retract-and-recast is the supported way to change a ballot.
	if _, err := module.Votes.CastVote(ctx, nominationcommands.CastVoteCommand{
		RoundID:  opened.Round.RoundID,
		FellowID: "fellow-2",
		Value:    entities.VoteValueAgree,
	}); err != nil {
		t.Fatalf("recast vote failed: %v", err)
	}

	status, err := module.Status.RoundStatus(ctx, opened.Round.RoundID)
	if err != nil {
		t.Fatalf("round status failed: %v", err)
	}
	if status.Tally.Agree != 1 || status.Tally.Disagree != 0 {
		t.Fatalf("unexpected tally after recast: %+v", status.Tally)
	}
}

func TestRosterEditsOnlyBeforeVotingOpens(t *testing.T) {
	module := newNominationModule(sixFellowRoster(), nil)
	ctx := context.Background()

	nomination, err := module.Nominations.CreateNomination(ctx, nominationcommands.CreateNominationCommand{
		CollegeID:         "college-phys",
		CandidatePersonID: "candidate-6",
		NominatorPersonID: "admin-1",
	})
	if err != nil {
		t.Fatalf("create nomination failed: %v", err)
	}
	opensAt := time.Now().UTC().Add(time.Hour)
	scheduled, err := module.Rounds.OpenRound(ctx, nominationcommands.OpenRoundCommand{
		NominationID: nomination.NominationID,
		OpensAt:      &opensAt,
	})
	if err != nil {
		t.Fatalf("schedule round failed: %v", err)
	}

	round, err := module.Rounds.AddRosterFellow(ctx, nominationcommands.EditRosterCommand{
		RoundID:  scheduled.Round.RoundID,
		FellowID: "fellow-7",
	})
	if err != nil {
		t.Fatalf("roster add failed: %v", err)
	}
	if !round.InRoster("fellow-7") {
		t.Fatalf("added fellow missing from roster")
	}
	if _, err := module.Rounds.RemoveRosterFellow(ctx, nominationcommands.EditRosterCommand{
		RoundID:  scheduled.Round.RoundID,
		FellowID: "fellow-7",
	}); err != nil {
		t.Fatalf("roster remove failed: %v", err)
	}

	// Dropping below the minimum roster size is refused.
	_, err = module.Rounds.RemoveRosterFellow(ctx, nominationcommands.EditRosterCommand{
		RoundID:  scheduled.Round.RoundID,
		FellowID: "fellow-6",
	})
	var insufficient *nominationerrors.InsufficientEligibleVotersError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected insufficient-voters refusal, got %v", err)
	}

	// No votes before the round opens.
	if _, err := module.Votes.CastVote(ctx, nominationcommands.CastVoteCommand{
		RoundID:  scheduled.Round.RoundID,
		FellowID: "fellow-1",
		Value:    entities.VoteValueAgree,
	}); !errors.Is(err, nominationerrors.ErrRoundNotOpenYet) {
		t.Fatalf("expected not-open-yet rejection, got %v", err)
	}

	// An already-open round locks its roster.
	other, err := module.Nominations.CreateNomination(ctx, nominationcommands.CreateNominationCommand{
		CollegeID:         "college-phys",
		CandidatePersonID: "candidate-7",
		NominatorPersonID: "admin-1",
	})
	if err != nil {
		t.Fatalf("create nomination failed: %v", err)
	}
	open, err := module.Rounds.OpenRound(ctx, nominationcommands.OpenRoundCommand{NominationID: other.NominationID})
	if err != nil {
		t.Fatalf("open round failed: %v", err)
	}
	if _, err := module.Rounds.AddRosterFellow(ctx, nominationcommands.EditRosterCommand{
		RoundID:  open.Round.RoundID,
		FellowID: "fellow-7",
	}); !errors.Is(err, nominationerrors.ErrRosterLocked) {
		t.Fatalf("expected locked roster, got %v", err)
	}
}

func TestCooldownBlocksRenomination(t *testing.T) {
	module := newNominationModule(sixFellowRoster(), nil)
	ctx := context.Background()

	nomination, err := module.Nominations.CreateNomination(ctx, nominationcommands.CreateNominationCommand{
		CollegeID:         "college-phys",
		CandidatePersonID: "candidate-8",
		NominatorPersonID: "admin-1",
	})
	if err != nil {
		t.Fatalf("create nomination failed: %v", err)
	}
	// Open a round whose deadline already lies in the past: with zero
	// ballots the decision comes out not elected.
	opensAt := time.Now().UTC().Add(-15 * 24 * time.Hour)
	opened, err := module.Rounds.OpenRound(ctx, nominationcommands.OpenRoundCommand{
		NominationID: nomination.NominationID,
		OpensAt:      &opensAt,
	})
	if err != nil {
		t.Fatalf("open round failed: %v", err)
	}
	fixed, err := module.Decisions.FixDecision(ctx, nominationcommands.FixDecisionCommand{RoundID: opened.Round.RoundID})
	if err != nil {
		t.Fatalf("fix decision failed: %v", err)
	}
	if fixed.Decision.Outcome != entities.OutcomeNotElected {
		t.Fatalf("expected not elected with an empty ballot box, got %s", fixed.Decision.Outcome)
	}

	_, err = module.Nominations.CreateNomination(ctx, nominationcommands.CreateNominationCommand{
		CollegeID:         "college-phys",
		CandidatePersonID: "candidate-8",
		NominatorPersonID: "admin-2",
	})
	var cooldown *nominationerrors.CooldownActiveError
	if !errors.As(err, &cooldown) {
		t.Fatalf("expected cooldown rejection, got %v", err)
	}
	if cooldown.Cause != "not_elected" {
		t.Fatalf("unexpected cooldown cause %q", cooldown.Cause)
	}
	wantLift := fixed.Decision.FixedAt.Add(testCooldown)
	if !cooldown.LiftsAt.Equal(wantLift) {
		t.Fatalf("cooldown lifts at %s, want %s", cooldown.LiftsAt, wantLift)
	}
}

func TestCooldownAfterDeclinedInvitation(t *testing.T) {
	declinedAt := time.Now().UTC().Add(-100 * 24 * time.Hour)
	module := newNominationModule(sixFellowRoster(), declineStub{declinedAt: declinedAt, found: true})
	ctx := context.Background()

	_, err := module.Nominations.CreateNomination(ctx, nominationcommands.CreateNominationCommand{
		CollegeID:         "college-phys",
		CandidatePersonID: "candidate-9",
		NominatorPersonID: "admin-1",
	})
	var cooldown *nominationerrors.CooldownActiveError
	if !errors.As(err, &cooldown) {
		t.Fatalf("expected cooldown rejection, got %v", err)
	}
	if cooldown.Cause != "invitation_declined" {
		t.Fatalf("unexpected cooldown cause %q", cooldown.Cause)
	}
	if !cooldown.LiftsAt.Equal(declinedAt.Add(testCooldown)) {
		t.Fatalf("unexpected lift date %s", cooldown.LiftsAt)
	}
}

func TestAdminOverrideFixesDecisionEarly(t *testing.T) {
	module := newNominationModule(sixFellowRoster(), nil)
	ctx := context.Background()

	nomination, err := module.Nominations.CreateNomination(ctx, nominationcommands.CreateNominationCommand{
		CollegeID:         "college-phys",
		CandidatePersonID: "candidate-10",
		NominatorPersonID: "admin-1",
	})
	if err != nil {
		t.Fatalf("create nomination failed: %v", err)
	}
	opened, err := module.Rounds.OpenRound(ctx, nominationcommands.OpenRoundCommand{NominationID: nomination.NominationID})
	if err != nil {
		t.Fatalf("open round failed: %v", err)
	}

	override := entities.OutcomeElected
	fixed, err := module.Decisions.FixDecision(ctx, nominationcommands.FixDecisionCommand{
		RoundID:         opened.Round.RoundID,
		Comments:        "college board ruling",
		AdminOverride:   true,
		OverrideOutcome: &override,
	})
	if err != nil {
		t.Fatalf("admin override fixation failed: %v", err)
	}
	if fixed.Decision.Outcome != entities.OutcomeElected || !fixed.Decision.AdminOverride {
		t.Fatalf("unexpected override decision: %+v", fixed.Decision)
	}

	// The round is terminal; further ballots bounce.
	if _, err := module.Votes.CastVote(ctx, nominationcommands.CastVoteCommand{
		RoundID:  opened.Round.RoundID,
		FellowID: "fellow-1",
		Value:    entities.VoteValueAgree,
	}); !errors.Is(err, nominationerrors.ErrRoundClosed) {
		t.Fatalf("expected closed-round rejection, got %v", err)
	}
}

func TestGovernanceSweepFlagsOverdueAndOpensRounds(t *testing.T) {
	module := newNominationModule(sixFellowRoster(), nil)
	ctx := context.Background()

	pending, err := module.Nominations.CreateNomination(ctx, nominationcommands.CreateNominationCommand{
		CollegeID:         "college-phys",
		CandidatePersonID: "candidate-11",
		NominatorPersonID: "person-1",
		NominatorIsFellow: true,
	})
	if err != nil {
		t.Fatalf("create nomination failed: %v", err)
	}

	overdueNomination, err := module.Nominations.CreateNomination(ctx, nominationcommands.CreateNominationCommand{
		CollegeID:         "college-phys",
		CandidatePersonID: "candidate-12",
		NominatorPersonID: "admin-1",
	})
	if err != nil {
		t.Fatalf("create nomination failed: %v", err)
	}
	opensAt := time.Now().UTC().Add(-20 * 24 * time.Hour)
	overdue, err := module.Rounds.OpenRound(ctx, nominationcommands.OpenRoundCommand{
		NominationID: overdueNomination.NominationID,
		OpensAt:      &opensAt,
	})
	if err != nil {
		t.Fatalf("open overdue round failed: %v", err)
	}

	if err := module.Sweep.RunOnce(ctx); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	flagged, err := module.Store.GetRound(ctx, overdue.Round.RoundID)
	if err != nil {
		t.Fatalf("load round failed: %v", err)
	}
	if flagged.OverdueFlaggedAt == nil {
		t.Fatalf("expected overdue flag after sweep")
	}
	firstFlag := *flagged.OverdueFlaggedAt

	rounds, err := module.Store.ListRoundsByNomination(ctx, pending.NominationID)
	if err != nil {
		t.Fatalf("list rounds failed: %v", err)
	}
	if len(rounds) != 1 {
		t.Fatalf("expected sweep to open one round for the pending nomination, got %d", len(rounds))
	}

	// A second pass must not re-flag or double-open.
	if err := module.Sweep.RunOnce(ctx); err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}
	flagged, err = module.Store.GetRound(ctx, overdue.Round.RoundID)
	if err != nil {
		t.Fatalf("reload round failed: %v", err)
	}
	if !flagged.OverdueFlaggedAt.Equal(firstFlag) {
		t.Fatalf("overdue flag must be set once")
	}
	rounds, err = module.Store.ListRoundsByNomination(ctx, pending.NominationID)
	if err != nil {
		t.Fatalf("list rounds failed: %v", err)
	}
	if len(rounds) != 1 {
		t.Fatalf("second sweep opened extra rounds: %d", len(rounds))
	}
}

func TestInvitationOpeningMarksNominationInvited(t *testing.T) {
	module := newNominationModule(sixFellowRoster(), nil)
	ctx := context.Background()

	if err := module.Store.SaveNomination(ctx, entities.Nomination{
		NominationID:      "nomination-elected",
		CollegeID:         "college-phys",
		CandidatePersonID: "candidate-9",
		NominatorPersonID: "person-1",
		Status:            entities.NominationStatusElected,
	}); err != nil {
		t.Fatalf("seed elected nomination failed: %v", err)
	}
	if err := module.Store.SaveNomination(ctx, entities.Nomination{
		NominationID:      "nomination-voting",
		CollegeID:         "college-phys",
		CandidatePersonID: "candidate-10",
		NominatorPersonID: "person-1",
		Status:            entities.NominationStatusVoteOngoing,
	}); err != nil {
		t.Fatalf("seed voting nomination failed: %v", err)
	}

	sub := &invitationStubSubscriber{}
	consumer := nominationworkers.InvitationConsumer{
		Subscriber:  sub,
		Nominations: module.Nominations,
	}
	if err := consumer.Start(ctx); err != nil {
		t.Fatalf("start invitation consumer failed: %v", err)
	}
	handler := sub.handlers["invitation.opened"]
	if handler == nil {
		t.Fatalf("expected invitation.opened handler registration")
	}

	opened, _ := json.Marshal(map[string]any{"nomination_id": "nomination-elected"})
	envelope := events.Envelope{EventID: "event-20", EventType: "invitation.opened", Data: opened}
	if err := handler(ctx, envelope); err != nil {
		t.Fatalf("invitation.opened handling failed: %v", err)
	}
	updated, err := module.Store.GetNomination(ctx, "nomination-elected")
	if err != nil {
		t.Fatalf("reload nomination failed: %v", err)
	}
	if updated.Status != entities.NominationStatusInvited {
		t.Fatalf("elected nomination must advance to invited, got %s", updated.Status)
	}

	// Replays keep the state.
	if err := handler(ctx, envelope); err != nil {
		t.Fatalf("replayed invitation.opened failed: %v", err)
	}
	updated, err = module.Store.GetNomination(ctx, "nomination-elected")
	if err != nil {
		t.Fatalf("reload nomination failed: %v", err)
	}
	if updated.Status != entities.NominationStatusInvited {
		t.Fatalf("replay changed the status to %s", updated.Status)
	}

	// A notice for a nomination still in voting is dropped, not applied.
	stray, _ := json.Marshal(map[string]any{"nomination_id": "nomination-voting"})
	if err := handler(ctx, events.Envelope{EventID: "event-21", EventType: "invitation.opened", Data: stray}); err != nil {
		t.Fatalf("out-of-order invitation.opened must not fail: %v", err)
	}
	voting, err := module.Store.GetNomination(ctx, "nomination-voting")
	if err != nil {
		t.Fatalf("reload nomination failed: %v", err)
	}
	if voting.Status != entities.NominationStatusVoteOngoing {
		t.Fatalf("voting nomination must stay put, got %s", voting.Status)
	}
}
