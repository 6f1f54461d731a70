package errors

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidNominationInput = errors.New("invalid nomination input")
	ErrInvalidVoteInput       = errors.New("invalid vote input")
	ErrNominationNotFound     = errors.New("nomination not found")
	ErrRoundNotFound          = errors.New("voting round not found")
	ErrVoteNotFound           = errors.New("vote not found")
	ErrRoundClosed            = errors.New("voting round is closed")
	ErrRoundNotOpenYet        = errors.New("voting round has not opened yet")
	ErrDuplicateVote          = errors.New("vote already cast for this round and fellow")
	ErrNotInRoster            = errors.New("fellow is not in the round roster")
	ErrOpenRoundExists        = errors.New("an unresolved voting round already exists for this nomination")
	ErrRoundDecided           = errors.New("a decision is already fixed for this round")
	ErrRosterLocked           = errors.New("roster is immutable once voting has opened")
	ErrNominationClosed       = errors.New("nomination is not in a votable state")

	ErrInsufficientEligibleVoters = errors.New("insufficient eligible voters")
	ErrCooldownActive             = errors.New("re-nomination cooldown is active")
	ErrDecisionNotReady           = errors.New("decision readiness conditions not met")

	// ErrInternalInconsistency marks a violated uniqueness/atomicity
	// invariant (e.g. two unresolved rounds for one nomination). Unlike the
	// conditions above it is not recoverable by the caller.
	ErrInternalInconsistency = errors.New("internal consistency violation")
)

// InsufficientEligibleVotersError carries the counts behind a refused round
// opening.
type InsufficientEligibleVotersError struct {
	Eligible        int
	Required        int
	FallbackApplied bool
}

func (e *InsufficientEligibleVotersError) Error() string {
	return fmt.Sprintf(
		"insufficient eligible voters: %d eligible (fallback applied: %t), %d required",
		e.Eligible, e.FallbackApplied, e.Required,
	)
}

func (e *InsufficientEligibleVotersError) Unwrap() error {
	return ErrInsufficientEligibleVoters
}

// CooldownActiveError reports a re-nomination inside the cool-down window and
// the date the cool-down lifts.
type CooldownActiveError struct {
	CandidatePersonID string
	Cause             string // "not_elected" or "invitation_declined"
	LiftsAt           time.Time
}

func (e *CooldownActiveError) Error() string {
	return fmt.Sprintf(
		"re-nomination of %s blocked (%s): cooldown lifts at %s",
		e.CandidatePersonID, e.Cause, e.LiftsAt.UTC().Format(time.RFC3339),
	)
}

func (e *CooldownActiveError) Unwrap() error {
	return ErrCooldownActive
}

// DecisionNotReadyError names the specific advisory block: quorum not reached
// or votes still outstanding before the deadline.
type DecisionNotReadyError struct {
	Reason        string
	EligibleCount int
	VotesCast     int
	Deadline      time.Time
}

func (e *DecisionNotReadyError) Error() string {
	return fmt.Sprintf(
		"decision not ready: %s (%d of %d votes cast, deadline %s)",
		e.Reason, e.VotesCast, e.EligibleCount, e.Deadline.UTC().Format(time.RFC3339),
	)
}

func (e *DecisionNotReadyError) Unwrap() error {
	return ErrDecisionNotReady
}
