package ports

import (
	"context"
	"time"

	"collegium/contexts/editorial-college/eligibility-service/domain/entities"
	"collegium/internal/shared/events"
)

// PersonProfile is the read-only projection consumed from the person/profile
// directory. Specialties carry the topical classification used for matching.
type PersonProfile struct {
	PersonID      string
	Specialties   []string
	AcademicField string
	HasAccount    bool
}

type DirectoryReader interface {
	GetPerson(ctx context.Context, personID string) (PersonProfile, error)
}

// ConflictRegistry exposes pairwise competing-interest declarations.
// Declarations are unordered pairs; implementations answer both directions.
type ConflictRegistry interface {
	HasConflict(ctx context.Context, personA string, personB string) (bool, error)
}

// ManuscriptTarget is the manuscript metadata slice the filter needs.
// ClaimantPersonIDs holds unverified, unrefuted personal authorship claims.
type ManuscriptTarget struct {
	SubmissionID      string
	CollegeID         string
	SpecialtyIDs      []string
	AuthorPersonIDs   []string
	ClaimantPersonIDs []string
}

type ManuscriptReader interface {
	GetManuscript(ctx context.Context, submissionID string) (ManuscriptTarget, error)
}

type FellowRepository interface {
	SaveFellow(ctx context.Context, fellow entities.Fellow) error
	GetFellow(ctx context.Context, fellowID string) (entities.Fellow, error)
	ListFellowsByCollege(ctx context.Context, collegeID string) ([]entities.Fellow, error)
	// FindFellowship returns the fellowship for a person in a college whose
	// window contains the given instant, if one exists.
	FindFellowship(ctx context.Context, collegeID string, personID string, at time.Time) (entities.Fellow, bool, error)
}

type PoolRepository interface {
	// UpsertPoolEntry adds newly-eligible fellows; it never downgrades an
	// admin-override entry back to automatic and never flips RemovedByAdmin.
	UpsertPoolEntry(ctx context.Context, entry entities.PoolEntry) error
	ListPool(ctx context.Context, submissionID string) ([]entities.PoolEntry, error)
	SetAdminRemoved(ctx context.Context, submissionID string, fellowID string, removed bool, at time.Time) error
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope events.Envelope) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
