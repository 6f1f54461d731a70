// Package memory provides an in-memory, mutex-guarded implementation of the
// nomination-engine ports for tests and local development.
package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"collegium/contexts/editorial-college/nomination-engine/domain/entities"
	domainerrors "collegium/contexts/editorial-college/nomination-engine/domain/errors"
	"collegium/contexts/editorial-college/nomination-engine/ports"
	"collegium/internal/shared/events"
	"collegium/internal/shared/outbox"
)

type vetoKey struct {
	nominationID string
	fellowID     string
}

type voteKey struct {
	roundID  string
	fellowID string
}

type outboxRow struct {
	message   outbox.Message
	envelope  events.Envelope
	published bool
}

type Store struct {
	mu          sync.RWMutex
	nominations map[string]entities.Nomination
	vetoes      map[vetoKey]entities.Veto
	rounds      map[string]entities.VotingRound
	votes       map[voteKey]entities.Vote
	decisions   map[string]entities.Decision
	outbox      []outboxRow
}

func NewStore() *Store {
	return &Store{
		nominations: make(map[string]entities.Nomination),
		vetoes:      make(map[vetoKey]entities.Veto),
		rounds:      make(map[string]entities.VotingRound),
		votes:       make(map[voteKey]entities.Vote),
		decisions:   make(map[string]entities.Decision),
	}
}

func (s *Store) SaveNomination(_ context.Context, nomination entities.Nomination) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nominations[nomination.NominationID] = nomination
	return nil
}

func (s *Store) GetNomination(_ context.Context, nominationID string) (entities.Nomination, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	nomination, ok := s.nominations[nominationID]
	if !ok {
		return entities.Nomination{}, domainerrors.ErrNominationNotFound
	}
	return nomination, nil
}

func (s *Store) ListNominationsByStatus(
	_ context.Context,
	status entities.NominationStatus,
) ([]entities.Nomination, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matches := make([]entities.Nomination, 0)
	for _, nomination := range s.nominations {
		if nomination.Status == status {
			matches = append(matches, nomination)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].NominatedAt.Equal(matches[j].NominatedAt) {
			return matches[i].NominatedAt.Before(matches[j].NominatedAt)
		}
		return matches[i].NominationID < matches[j].NominationID
	})
	return matches, nil
}

func (s *Store) InsertVeto(_ context.Context, veto entities.Veto) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := vetoKey{nominationID: veto.NominationID, fellowID: veto.FellowID}
	if _, exists := s.vetoes[key]; exists {
		return false, nil
	}
	s.vetoes[key] = veto
	return true, nil
}

func (s *Store) ListVetoes(_ context.Context, nominationID string) ([]entities.Veto, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matches := make([]entities.Veto, 0)
	for key, veto := range s.vetoes {
		if key.nominationID == nominationID {
			matches = append(matches, veto)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].VetoedAt.Equal(matches[j].VetoedAt) {
			return matches[i].VetoedAt.Before(matches[j].VetoedAt)
		}
		return matches[i].FellowID < matches[j].FellowID
	})
	return matches, nil
}

func (s *Store) CreateRound(_ context.Context, round entities.VotingRound) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.rounds {
		if existing.NominationID == round.NominationID && !existing.Resolved {
			return domainerrors.ErrOpenRoundExists
		}
	}
	round.Roster = append([]string(nil), round.Roster...)
	s.rounds[round.RoundID] = round
	return nil
}

func (s *Store) GetRound(_ context.Context, roundID string) (entities.VotingRound, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	round, ok := s.rounds[roundID]
	if !ok {
		return entities.VotingRound{}, domainerrors.ErrRoundNotFound
	}
	return round, nil
}

func (s *Store) GetUnresolvedRound(
	_ context.Context,
	nominationID string,
) (entities.VotingRound, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var (
		match entities.VotingRound
		count int
	)
	for _, round := range s.rounds {
		if round.NominationID == nominationID && !round.Resolved {
			match = round
			count++
		}
	}
	if count > 1 {
		return entities.VotingRound{}, false, domainerrors.ErrInternalInconsistency
	}
	return match, count == 1, nil
}

func (s *Store) UpdateRoster(_ context.Context, roundID string, roster []string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	round, ok := s.rounds[roundID]
	if !ok {
		return domainerrors.ErrRoundNotFound
	}
	round.Roster = append([]string(nil), roster...)
	round.UpdatedAt = at
	s.rounds[roundID] = round
	return nil
}

func (s *Store) MarkRoundResolved(_ context.Context, roundID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	round, ok := s.rounds[roundID]
	if !ok {
		return domainerrors.ErrRoundNotFound
	}
	round.Resolved = true
	round.UpdatedAt = at
	s.rounds[roundID] = round
	return nil
}

func (s *Store) MarkRoundOverdue(_ context.Context, roundID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	round, ok := s.rounds[roundID]
	if !ok {
		return false, domainerrors.ErrRoundNotFound
	}
	if round.OverdueFlaggedAt != nil {
		return false, nil
	}
	flaggedAt := at
	round.OverdueFlaggedAt = &flaggedAt
	round.UpdatedAt = at
	s.rounds[roundID] = round
	return true, nil
}

func (s *Store) ListOverdueRounds(_ context.Context, before time.Time) ([]entities.VotingRound, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matches := make([]entities.VotingRound, 0)
	for _, round := range s.rounds {
		if round.Resolved || round.OverdueFlaggedAt != nil {
			continue
		}
		if round.Deadline.After(before) {
			continue
		}
		matches = append(matches, round)
	}
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].Deadline.Equal(matches[j].Deadline) {
			return matches[i].Deadline.Before(matches[j].Deadline)
		}
		return matches[i].RoundID < matches[j].RoundID
	})
	return matches, nil
}

func (s *Store) ListRoundsByNomination(
	_ context.Context,
	nominationID string,
) ([]entities.VotingRound, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matches := make([]entities.VotingRound, 0)
	for _, round := range s.rounds {
		if round.NominationID == nominationID {
			matches = append(matches, round)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].OpensAt.Equal(matches[j].OpensAt) {
			return matches[i].OpensAt.Before(matches[j].OpensAt)
		}
		return matches[i].RoundID < matches[j].RoundID
	})
	return matches, nil
}

func (s *Store) InsertVote(_ context.Context, vote entities.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := voteKey{roundID: vote.RoundID, fellowID: vote.FellowID}
	if _, exists := s.votes[key]; exists {
		return domainerrors.ErrDuplicateVote
	}
	s.votes[key] = vote
	return nil
}

func (s *Store) DeleteVote(_ context.Context, roundID string, fellowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := voteKey{roundID: roundID, fellowID: fellowID}
	if _, exists := s.votes[key]; !exists {
		return domainerrors.ErrVoteNotFound
	}
	delete(s.votes, key)
	return nil
}

func (s *Store) ListVotesByRound(_ context.Context, roundID string) ([]entities.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matches := make([]entities.Vote, 0)
	for key, vote := range s.votes {
		if key.roundID == roundID {
			matches = append(matches, vote)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].CastAt.Equal(matches[j].CastAt) {
			return matches[i].CastAt.Before(matches[j].CastAt)
		}
		return matches[i].FellowID < matches[j].FellowID
	})
	return matches, nil
}

func (s *Store) CreateDecision(_ context.Context, decision entities.Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.decisions[decision.RoundID]; exists {
		return domainerrors.ErrRoundDecided
	}
	s.decisions[decision.RoundID] = decision
	return nil
}

func (s *Store) GetDecision(_ context.Context, roundID string) (entities.Decision, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	decision, ok := s.decisions[roundID]
	return decision, ok, nil
}

func (s *Store) LatestRejection(
	_ context.Context,
	collegeID string,
	candidatePersonID string,
) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var (
		latest time.Time
		found  bool
	)
	for _, decision := range s.decisions {
		if decision.Outcome != entities.OutcomeNotElected {
			continue
		}
		nomination, ok := s.nominations[decision.NominationID]
		if !ok {
			continue
		}
		if nomination.CollegeID != collegeID || nomination.CandidatePersonID != candidatePersonID {
			continue
		}
		if !found || decision.FixedAt.After(latest) {
			latest = decision.FixedAt
			found = true
		}
	}
	return latest, found, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope events.Envelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outbox = append(s.outbox, outboxRow{
		message: outbox.Message{
			OutboxID:     envelope.EventID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    envelope.OccurredAt,
		},
		envelope: envelope,
	})
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]outbox.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pending := make([]outbox.Message, 0)
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		pending = append(pending, row.message)
		if limit > 0 && len(pending) >= limit {
			break
		}
	}
	return pending, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.outbox {
		if s.outbox[i].message.OutboxID == outboxID {
			s.outbox[i].published = true
			return nil
		}
	}
	return nil
}

// ListOutbox returns every appended envelope in append order for tests.
func (s *Store) ListOutbox() []events.Envelope {
	s.mu.RLock()
	defer s.mu.RUnlock()
	envelopes := make([]events.Envelope, 0, len(s.outbox))
	for _, row := range s.outbox {
		envelopes = append(envelopes, row.envelope)
	}
	return envelopes
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var _ ports.NominationRepository = (*Store)(nil)
var _ ports.RoundRepository = (*Store)(nil)
var _ ports.VoteRepository = (*Store)(nil)
var _ ports.DecisionRepository = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
