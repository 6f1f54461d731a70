// Package memory provides an in-memory, mutex-guarded implementation of the
// invitation-service ports for tests and local development.
package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"collegium/contexts/editorial-college/invitation-service/domain/entities"
	domainerrors "collegium/contexts/editorial-college/invitation-service/domain/errors"
	"collegium/contexts/editorial-college/invitation-service/ports"
	"collegium/internal/shared/events"
	"collegium/internal/shared/outbox"
)

type outboxRow struct {
	message   outbox.Message
	envelope  events.Envelope
	published bool
}

type Store struct {
	mu          sync.RWMutex
	invitations map[string]entities.Invitation
	persons     map[string]ports.PersonProfile
	outbox      []outboxRow
}

func NewStore() *Store {
	return &Store{
		invitations: make(map[string]entities.Invitation),
		persons:     make(map[string]ports.PersonProfile),
	}
}

func (s *Store) SetPerson(profile ports.PersonProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persons[profile.PersonID] = profile
}

func (s *Store) SaveInvitation(_ context.Context, invitation entities.Invitation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invitations[invitation.InvitationID] = invitation
	return nil
}

func (s *Store) GetInvitation(_ context.Context, invitationID string) (entities.Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	invitation, ok := s.invitations[invitationID]
	if !ok {
		return entities.Invitation{}, domainerrors.ErrInvitationNotFound
	}
	return invitation, nil
}

func (s *Store) GetInvitationByNomination(
	_ context.Context,
	nominationID string,
) (entities.Invitation, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, invitation := range s.invitations {
		if invitation.NominationID == nominationID {
			return invitation, true, nil
		}
	}
	return entities.Invitation{}, false, nil
}

func (s *Store) ListOpenInvitations(_ context.Context) ([]entities.Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	open := make([]entities.Invitation, 0)
	for _, invitation := range s.invitations {
		if invitation.Response.Final() {
			continue
		}
		open = append(open, invitation)
	}
	sort.Slice(open, func(i, j int) bool {
		if !open[i].CreatedAt.Equal(open[j].CreatedAt) {
			return open[i].CreatedAt.Before(open[j].CreatedAt)
		}
		return open[i].InvitationID < open[j].InvitationID
	})
	return open, nil
}

func (s *Store) MarkAttentionFlagged(_ context.Context, invitationID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	invitation, ok := s.invitations[invitationID]
	if !ok {
		return false, domainerrors.ErrInvitationNotFound
	}
	if invitation.AttentionFlaggedAt != nil {
		return false, nil
	}
	flaggedAt := at
	invitation.AttentionFlaggedAt = &flaggedAt
	invitation.UpdatedAt = at
	s.invitations[invitationID] = invitation
	return true, nil
}

func (s *Store) LatestDecline(
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
	for _, invitation := range s.invitations {
		if invitation.Response != entities.ResponseDeclined || invitation.RespondedAt == nil {
			continue
		}
		if invitation.CollegeID != collegeID || invitation.CandidatePersonID != candidatePersonID {
			continue
		}
		if !found || invitation.RespondedAt.After(latest) {
			latest = *invitation.RespondedAt
			found = true
		}
	}
	return latest, found, nil
}

func (s *Store) GetPerson(_ context.Context, personID string) (ports.PersonProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.persons[personID]
	if !ok {
		return ports.PersonProfile{}, domainerrors.ErrInvalidInvitationInput
	}
	return profile, nil
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

var _ ports.InvitationRepository = (*Store)(nil)
var _ ports.DirectoryReader = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
