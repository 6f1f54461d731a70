package entities

import "time"

type FellowTier string

const (
	FellowTierRegular FellowTier = "regular"
	FellowTierSenior  FellowTier = "senior"
	FellowTierGuest   FellowTier = "guest"
)

// Fellow is a person holding a Fellowship in an Editorial College for a
// bounded time window. Fellowships are historical records: they are created
// once, window-edited at most, and never hard-deleted.
type Fellow struct {
	FellowID  string
	PersonID  string
	CollegeID string
	Tier      FellowTier
	StartDate *time.Time
	UntilDate *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ActiveAt reports whether the fellowship window contains the given instant.
// Open-ended bounds are treated as unbounded.
func (f Fellow) ActiveAt(at time.Time) bool {
	if f.StartDate != nil && at.Before(f.StartDate.UTC()) {
		return false
	}
	if f.UntilDate != nil && !at.Before(f.UntilDate.UTC()) {
		return false
	}
	return true
}

type PoolSource string

const (
	PoolSourceAutomatic     PoolSource = "automatic"
	PoolSourceAdminOverride PoolSource = "admin_override"
)

// PoolEntry links a Fellow into a submission's candidate pool. Entries added
// by an editorial administrator survive re-assignment; entries an
// administrator removed stay out of the voting subset but remain recorded.
type PoolEntry struct {
	SubmissionID   string
	FellowID       string
	Source         PoolSource
	RemovedByAdmin bool
	AddedAt        time.Time
	UpdatedAt      time.Time
}
