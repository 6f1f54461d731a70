package entities

import (
	"testing"
	"time"
)

func TestTallyOutcomeMarginRule(t *testing.T) {
	cases := []struct {
		name    string
		tally   Tally
		hasVeto bool
		want    Outcome
	}{
		{name: "unanimous agreement", tally: Tally{Agree: 6}, want: OutcomeElected},
		{name: "exact half margin", tally: Tally{Agree: 3, Disagree: 1}, want: OutcomeElected},
		{name: "below half margin", tally: Tally{Agree: 2, Disagree: 1}, want: OutcomeNotElected},
		{name: "tie", tally: Tally{Agree: 2, Disagree: 2}, want: OutcomeNotElected},
		{name: "abstentions only", tally: Tally{Abstain: 5}, want: OutcomeNotElected},
		{name: "no votes at all", tally: Tally{}, want: OutcomeNotElected},
		{name: "veto overrides unanimity", tally: Tally{Agree: 6}, hasVeto: true, want: OutcomeNotElected},
		{name: "abstentions do not dilute", tally: Tally{Agree: 3, Disagree: 1, Abstain: 10}, want: OutcomeElected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.tally.Outcome(tc.hasVeto); got != tc.want {
				t.Fatalf("outcome = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestReadyForDecision(t *testing.T) {
	deadline := time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC)
	round := VotingRound{
		Roster:   []string{"f1", "f2", "f3", "f4", "f5", "f6"},
		OpensAt:  deadline.Add(-14 * 24 * time.Hour),
		Deadline: deadline,
	}
	before := deadline.Add(-time.Hour)
	after := deadline.Add(time.Hour)

	if ready, reason := round.ReadyForDecision(3, 3, before); ready || reason != NotReadyVotesOutstanding {
		t.Fatalf("partial ballots before deadline: ready=%t reason=%q", ready, reason)
	}
	if ready, _ := round.ReadyForDecision(6, 3, before); !ready {
		t.Fatalf("expected readiness once every roster member voted")
	}
	if ready, _ := round.ReadyForDecision(0, 3, after); !ready {
		t.Fatalf("expected readiness once the deadline passed")
	}
	if ready, _ := round.ReadyForDecision(0, 3, deadline); !ready {
		t.Fatalf("the deadline instant itself counts as passed")
	}

	thin := VotingRound{Roster: []string{"f1", "f2"}, Deadline: deadline}
	if ready, reason := thin.ReadyForDecision(2, 3, after); ready || reason != NotReadyInsufficientEligible {
		t.Fatalf("sub-quorum roster: ready=%t reason=%q", ready, reason)
	}
}

func TestVotingOpenAt(t *testing.T) {
	opens := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	round := VotingRound{
		OpensAt:  opens,
		Deadline: opens.Add(14 * 24 * time.Hour),
	}
	if round.VotingOpenAt(opens.Add(-time.Second)) {
		t.Fatalf("votes must not land before opening")
	}
	if !round.VotingOpenAt(opens) {
		t.Fatalf("the opening instant accepts votes")
	}
	if !round.VotingOpenAt(round.Deadline) {
		t.Fatalf("the deadline instant still accepts votes")
	}
	if round.VotingOpenAt(round.Deadline.Add(time.Second)) {
		t.Fatalf("votes must not land after the deadline")
	}
	round.Resolved = true
	if round.VotingOpenAt(opens.Add(time.Hour)) {
		t.Fatalf("a resolved round accepts no votes")
	}
}
