package ports

import (
	"context"
	"time"

	"collegium/contexts/editorial-college/nomination-engine/domain/entities"
	"collegium/internal/shared/events"
	"collegium/internal/shared/outbox"
)

type NominationRepository interface {
	SaveNomination(ctx context.Context, nomination entities.Nomination) error
	GetNomination(ctx context.Context, nominationID string) (entities.Nomination, error)
	ListNominationsByStatus(ctx context.Context, status entities.NominationStatus) ([]entities.Nomination, error)
	// InsertVeto is insert-if-absent per (nomination, fellow); it reports
	// whether a new veto was recorded.
	InsertVeto(ctx context.Context, veto entities.Veto) (bool, error)
	ListVetoes(ctx context.Context, nominationID string) ([]entities.Veto, error)
}

type RoundRepository interface {
	// CreateRound is an atomic check-then-write: it fails with
	// ErrOpenRoundExists when an unresolved round already exists for the
	// nomination.
	CreateRound(ctx context.Context, round entities.VotingRound) error
	GetRound(ctx context.Context, roundID string) (entities.VotingRound, error)
	// GetUnresolvedRound must surface ErrInternalInconsistency if storage
	// holds more than one unresolved round for the nomination.
	GetUnresolvedRound(ctx context.Context, nominationID string) (entities.VotingRound, bool, error)
	UpdateRoster(ctx context.Context, roundID string, roster []string, at time.Time) error
	MarkRoundResolved(ctx context.Context, roundID string, at time.Time) error
	MarkRoundOverdue(ctx context.Context, roundID string, at time.Time) (bool, error)
	// ListOverdueRounds returns unresolved, not-yet-flagged rounds whose
	// deadline lies at or before the given instant.
	ListOverdueRounds(ctx context.Context, before time.Time) ([]entities.VotingRound, error)
	ListRoundsByNomination(ctx context.Context, nominationID string) ([]entities.VotingRound, error)
}

type VoteRepository interface {
	// InsertVote is a single atomic insert-if-absent on (round_id,
	// fellow_id); a concurrent duplicate surfaces as ErrDuplicateVote.
	InsertVote(ctx context.Context, vote entities.Vote) error
	DeleteVote(ctx context.Context, roundID string, fellowID string) error
	ListVotesByRound(ctx context.Context, roundID string) ([]entities.Vote, error)
}

type DecisionRepository interface {
	// CreateDecision is a compare-and-swap on "no decision exists for this
	// round"; a concurrent duplicate surfaces as ErrRoundDecided.
	CreateDecision(ctx context.Context, decision entities.Decision) error
	GetDecision(ctx context.Context, roundID string) (entities.Decision, bool, error)
	// LatestRejection returns the fixed-on time of the most recent
	// not-elected decision for the candidate in the college.
	LatestRejection(ctx context.Context, collegeID string, candidatePersonID string) (time.Time, bool, error)
}

// RosterMember pairs a roster slot with the person holding it.
type RosterMember struct {
	FellowID string
	PersonID string
}

type Roster struct {
	Members         []RosterMember
	FallbackApplied bool
}

// EligibilityProvider yields the eligible-voter roster for a nomination
// (senior tier, college match, specialty overlap with the candidate profile,
// with the narrow-specialty fallback).
type EligibilityProvider interface {
	NominationVoterRoster(ctx context.Context, collegeID string, candidatePersonID string) (Roster, error)
}

// DeclineHistory reports the most recent declined invitation for a candidate;
// it feeds the re-nomination cool-down alongside rejection decisions.
type DeclineHistory interface {
	LatestDecline(ctx context.Context, collegeID string, candidatePersonID string) (time.Time, bool, error)
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope events.Envelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]outbox.Message, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, at time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event events.Envelope) error
}

type EventSubscriber interface {
	Subscribe(ctx context.Context, topic string, consumerGroup string, handler func(context.Context, events.Envelope) error) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
