package entities

import "time"

type NominationStatus string

const (
	NominationStatusIdentified  NominationStatus = "identified"
	NominationStatusNominated   NominationStatus = "nominated"
	NominationStatusVoteOngoing NominationStatus = "vote_ongoing"
	NominationStatusElected     NominationStatus = "elected"
	NominationStatusNotElected  NominationStatus = "not_elected"
	NominationStatusInvited     NominationStatus = "invited"
)

// Nomination proposes a candidate for Fellowship in a college. It owns an
// ordered sequence of voting rounds and at most one invitation.
type Nomination struct {
	NominationID      string
	CollegeID         string
	CandidatePersonID string
	NominatorPersonID string
	Comments          string
	Status            NominationStatus
	// NominatorAgreesOnOpen marks the self-nomination path: the nominating
	// Fellow is recorded as an agree voter-in-waiting, materialized as a
	// regular vote when a round opens with them in the roster.
	NominatorAgreesOnOpen bool
	NominatedAt           time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Veto is a senior Fellow's block on a nomination. A nomination carrying any
// veto can never reach an elected decision.
type Veto struct {
	NominationID string
	FellowID     string
	Reason       string
	VetoedAt     time.Time
}

type RoundKind string

const (
	RoundKindSenior  RoundKind = "senior"
	RoundKindRegular RoundKind = "regular"
)

// VotingRound is one bounded-time election event. The roster is fixed once
// voting opens; administrative edits are only accepted before OpensAt.
// A round stays unresolved (blocking new rounds for its nomination) until a
// decision references it.
type VotingRound struct {
	RoundID      string
	NominationID string
	Kind         RoundKind
	Roster       []string
	OpensAt      time.Time
	Deadline     time.Time
	Resolved     bool
	// OverdueFlaggedAt is set once by the sweep when the deadline passes with
	// no decision; re-flagging is a no-op.
	OverdueFlaggedAt *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// VotingOpenAt reports whether votes are accepted at the given instant. The
// window is closed on both ends: a ballot cast exactly at the deadline still
// counts.
func (r VotingRound) VotingOpenAt(at time.Time) bool {
	if r.Resolved {
		return false
	}
	if at.Before(r.OpensAt) {
		return false
	}
	return !at.After(r.Deadline)
}

func (r VotingRound) InRoster(fellowID string) bool {
	for _, member := range r.Roster {
		if member == fellowID {
			return true
		}
	}
	return false
}

// Readiness reasons for refusing to fix a decision early.
const (
	NotReadyInsufficientEligible = "insufficient_eligible"
	NotReadyVotesOutstanding     = "votes_outstanding"
)

// ReadyForDecision is the advisory gate for fixing a decision: the roster
// must reach quorum, and either every roster member has voted or the
// deadline has passed. The empty reason means ready.
func (r VotingRound) ReadyForDecision(votesCast int, quorum int, at time.Time) (bool, string) {
	if len(r.Roster) < quorum {
		return false, NotReadyInsufficientEligible
	}
	if votesCast >= len(r.Roster) {
		return true, ""
	}
	if !at.Before(r.Deadline) {
		return true, ""
	}
	return false, NotReadyVotesOutstanding
}

type VoteValue string

const (
	VoteValueAgree    VoteValue = "agree"
	VoteValueAbstain  VoteValue = "abstain"
	VoteValueDisagree VoteValue = "disagree"
)

func (v VoteValue) Valid() bool {
	switch v {
	case VoteValueAgree, VoteValueAbstain, VoteValueDisagree:
		return true
	}
	return false
}

// Vote is one Fellow's choice in a round. Votes are immutable once cast;
// changing a vote means retracting and recasting.
type Vote struct {
	RoundID  string
	FellowID string
	Value    VoteValue
	CastAt   time.Time
}

type Outcome string

const (
	OutcomeElected      Outcome = "elected"
	OutcomeNotElected   Outcome = "not_elected"
	OutcomeInconclusive Outcome = "inconclusive"
)

// Decision fixes the outcome of a voting round. One-to-one with the round;
// once it exists the round is terminal and accepts no further votes.
type Decision struct {
	RoundID       string
	NominationID  string
	Outcome       Outcome
	Comments      string
	FixedAt       time.Time
	AdminOverride bool
}

// Tally aggregates the votes of a round.
type Tally struct {
	Agree    int
	Abstain  int
	Disagree int
}

func TallyVotes(votes []Vote) Tally {
	var tally Tally
	for _, vote := range votes {
		switch vote.Value {
		case VoteValueAgree:
			tally.Agree++
		case VoteValueAbstain:
			tally.Abstain++
		case VoteValueDisagree:
			tally.Disagree++
		}
	}
	return tally
}

// Outcome applies the super-majority-by-margin rule: among non-abstaining
// votes, the net-favorable margin (agree-disagree)/(agree+disagree) must
// reach one half. A tie is not elected, an empty denominator is not elected,
// and any veto overrides the votes entirely.
func (t Tally) Outcome(hasVeto bool) Outcome {
	if hasVeto {
		return OutcomeNotElected
	}
	denom := t.Agree + t.Disagree
	if denom == 0 {
		return OutcomeNotElected
	}
	ratio := float64(t.Agree-t.Disagree) / float64(denom)
	if ratio >= 0.5 {
		return OutcomeElected
	}
	return OutcomeNotElected
}
