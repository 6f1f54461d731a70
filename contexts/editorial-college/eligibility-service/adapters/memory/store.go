package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"collegium/contexts/editorial-college/eligibility-service/domain/entities"
	domainerrors "collegium/contexts/editorial-college/eligibility-service/domain/errors"
	"collegium/contexts/editorial-college/eligibility-service/ports"
	"collegium/internal/shared/events"

	"github.com/google/uuid"
)

type poolKey struct {
	submissionID string
	fellowID     string
}

type conflictKey struct {
	personA string
	personB string
}

type Store struct {
	mu sync.RWMutex

	fellows     map[string]entities.Fellow
	pools       map[poolKey]entities.PoolEntry
	persons     map[string]ports.PersonProfile
	manuscripts map[string]ports.ManuscriptTarget
	conflicts   map[conflictKey]struct{}
	outbox      []events.Envelope
}

func NewStore(seed []entities.Fellow) *Store {
	fellows := make(map[string]entities.Fellow, len(seed))
	for _, fellow := range seed {
		fellows[fellow.FellowID] = fellow
	}
	return &Store{
		fellows:     fellows,
		pools:       make(map[poolKey]entities.PoolEntry),
		persons:     make(map[string]ports.PersonProfile),
		manuscripts: make(map[string]ports.ManuscriptTarget),
		conflicts:   make(map[conflictKey]struct{}),
	}
}

func (s *Store) SetPerson(profile ports.PersonProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persons[strings.TrimSpace(profile.PersonID)] = profile
}

func (s *Store) SetManuscript(target ports.ManuscriptTarget) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manuscripts[strings.TrimSpace(target.SubmissionID)] = target
}

func (s *Store) SetConflict(personA string, personB string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conflicts[normalizeConflictKey(personA, personB)] = struct{}{}
}

func (s *Store) ClearConflict(personA string, personB string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conflicts, normalizeConflictKey(personA, personB))
}

func (s *Store) SaveFellow(_ context.Context, fellow entities.Fellow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fellows[strings.TrimSpace(fellow.FellowID)] = fellow
	return nil
}

func (s *Store) GetFellow(_ context.Context, fellowID string) (entities.Fellow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fellow, ok := s.fellows[strings.TrimSpace(fellowID)]
	if !ok {
		return entities.Fellow{}, domainerrors.ErrFellowNotFound
	}
	return fellow, nil
}

func (s *Store) ListFellowsByCollege(_ context.Context, collegeID string) ([]entities.Fellow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Fellow, 0)
	for _, fellow := range s.fellows {
		if fellow.CollegeID == strings.TrimSpace(collegeID) {
			items = append(items, fellow)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].FellowID < items[j].FellowID
	})
	return items, nil
}

func (s *Store) FindFellowship(
	_ context.Context,
	collegeID string,
	personID string,
	at time.Time,
) (entities.Fellow, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, fellow := range s.fellows {
		if fellow.CollegeID != strings.TrimSpace(collegeID) {
			continue
		}
		if fellow.PersonID != strings.TrimSpace(personID) {
			continue
		}
		if fellow.ActiveAt(at.UTC()) {
			return fellow, true, nil
		}
	}
	return entities.Fellow{}, false, nil
}

func (s *Store) UpsertPoolEntry(_ context.Context, entry entities.PoolEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := poolKey{
		submissionID: strings.TrimSpace(entry.SubmissionID),
		fellowID:     strings.TrimSpace(entry.FellowID),
	}
	existing, ok := s.pools[key]
	if !ok {
		s.pools[key] = entry
		return nil
	}
	// Admin overrides and removals stick across automatic re-assignment.
	if existing.Source == entities.PoolSourceAdminOverride {
		entry.Source = entities.PoolSourceAdminOverride
	}
	entry.RemovedByAdmin = existing.RemovedByAdmin
	entry.AddedAt = existing.AddedAt
	s.pools[key] = entry
	return nil
}

func (s *Store) ListPool(_ context.Context, submissionID string) ([]entities.PoolEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.PoolEntry, 0)
	for key, entry := range s.pools {
		if key.submissionID == strings.TrimSpace(submissionID) {
			items = append(items, entry)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].FellowID < items[j].FellowID
	})
	return items, nil
}

func (s *Store) SetAdminRemoved(
	_ context.Context,
	submissionID string,
	fellowID string,
	removed bool,
	at time.Time,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := poolKey{
		submissionID: strings.TrimSpace(submissionID),
		fellowID:     strings.TrimSpace(fellowID),
	}
	entry, ok := s.pools[key]
	if !ok {
		return domainerrors.ErrPoolEntryNotFound
	}
	entry.RemovedByAdmin = removed
	entry.UpdatedAt = at.UTC()
	s.pools[key] = entry
	return nil
}

func (s *Store) GetPerson(_ context.Context, personID string) (ports.PersonProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.persons[strings.TrimSpace(personID)]
	if !ok {
		return ports.PersonProfile{}, domainerrors.ErrPersonNotFound
	}
	return profile, nil
}

func (s *Store) GetManuscript(_ context.Context, submissionID string) (ports.ManuscriptTarget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	target, ok := s.manuscripts[strings.TrimSpace(submissionID)]
	if !ok {
		return ports.ManuscriptTarget{}, domainerrors.ErrManuscriptNotFound
	}
	return target, nil
}

func (s *Store) HasConflict(_ context.Context, personA string, personB string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.conflicts[normalizeConflictKey(personA, personB)]
	return ok, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope events.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outbox = append(s.outbox, envelope)
	return nil
}

func (s *Store) ListOutbox() []events.Envelope {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]events.Envelope(nil), s.outbox...)
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func normalizeConflictKey(personA string, personB string) conflictKey {
	a := strings.TrimSpace(personA)
	b := strings.TrimSpace(personB)
	if b < a {
		a, b = b, a
	}
	return conflictKey{personA: a, personB: b}
}

var _ ports.FellowRepository = (*Store)(nil)
var _ ports.PoolRepository = (*Store)(nil)
var _ ports.DirectoryReader = (*Store)(nil)
var _ ports.ConflictRegistry = (*Store)(nil)
var _ ports.ManuscriptReader = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
