package ports

import (
	"context"
	"time"

	"collegium/contexts/editorial-college/invitation-service/domain/entities"
	"collegium/internal/shared/events"
	"collegium/internal/shared/outbox"
)

type InvitationRepository interface {
	SaveInvitation(ctx context.Context, invitation entities.Invitation) error
	GetInvitation(ctx context.Context, invitationID string) (entities.Invitation, error)
	GetInvitationByNomination(ctx context.Context, nominationID string) (entities.Invitation, bool, error)
	ListOpenInvitations(ctx context.Context) ([]entities.Invitation, error)
	// MarkAttentionFlagged is set-once; it reports whether this call set the
	// flag.
	MarkAttentionFlagged(ctx context.Context, invitationID string, at time.Time) (bool, error)
	// LatestDecline returns the responded-at time of the most recent
	// declined invitation for the candidate in the college.
	LatestDecline(ctx context.Context, collegeID string, candidatePersonID string) (time.Time, bool, error)
}

// PersonProfile is the projection of a person the invitation flow needs.
type PersonProfile struct {
	PersonID      string
	Specialties   []string
	AcademicField string
	HasAccount    bool
}

type DirectoryReader interface {
	GetPerson(ctx context.Context, personID string) (PersonProfile, error)
}

// FellowshipCreator turns an accepted invitation into a Fellowship record.
// The eligibility service provides the production implementation.
type FellowshipCreator interface {
	CreateFellowship(ctx context.Context, collegeID string, personID string, startDate *time.Time) error
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
