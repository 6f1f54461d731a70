package unit

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	invitationservice "collegium/contexts/editorial-college/invitation-service"
	invitationcommands "collegium/contexts/editorial-college/invitation-service/application/commands"
	invitationworkers "collegium/contexts/editorial-college/invitation-service/application/workers"
	"collegium/contexts/editorial-college/invitation-service/domain/entities"
	invitationerrors "collegium/contexts/editorial-college/invitation-service/domain/errors"
	"collegium/contexts/editorial-college/invitation-service/ports"
	"collegium/internal/shared/events"
)

const (
	testStaleAfter         = 14 * 24 * time.Hour
	testPostponementNotice = 7 * 24 * time.Hour
)

type fellowshipRecorder struct {
	mu    sync.Mutex
	calls []fellowshipCall
}

type fellowshipCall struct {
	collegeID string
	personID  string
	startDate *time.Time
}

func (r *fellowshipRecorder) CreateFellowship(
	_ context.Context,
	collegeID string,
	personID string,
	startDate *time.Time,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, fellowshipCall{collegeID: collegeID, personID: personID, startDate: startDate})
	return nil
}

func (r *fellowshipRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

type invitationStubSubscriber struct {
	handlers map[string]func(context.Context, events.Envelope) error
}

func (s *invitationStubSubscriber) Subscribe(
	_ context.Context,
	topic string,
	_ string,
	handler func(context.Context, events.Envelope) error,
) error {
	if s.handlers == nil {
		s.handlers = map[string]func(context.Context, events.Envelope) error{}
	}
	s.handlers[topic] = handler
	return nil
}

func newInvitation(t *testing.T, module invitationservice.Module, nominationID string) entities.Invitation {
	t.Helper()
	result, err := module.Invitations.CreateInvitation(context.Background(), invitationcommands.CreateInvitationCommand{
		NominationID:      nominationID,
		CollegeID:         "college-phys",
		CandidatePersonID: "candidate-1",
	})
	if err != nil {
		t.Fatalf("create invitation failed: %v", err)
	}
	return result.Invitation
}

func TestInvitationCreateReplayAndReminderLadder(t *testing.T) {
	module := invitationservice.NewInMemoryModule(&fellowshipRecorder{}, testStaleAfter, testPostponementNotice, nil)
	ctx := context.Background()

	invitation := newInvitation(t, module, "nomination-1")
	if invitation.Response != entities.ResponseNotYetInvited {
		t.Fatalf("fresh invitation must start not yet invited, got %s", invitation.Response)
	}
	replay, err := module.Invitations.CreateInvitation(ctx, invitationcommands.CreateInvitationCommand{
		NominationID:      "nomination-1",
		CollegeID:         "college-phys",
		CandidatePersonID: "candidate-1",
	})
	if err != nil {
		t.Fatalf("replay create failed: %v", err)
	}
	if replay.Created {
		t.Fatalf("replay must return the existing invitation")
	}
	if replay.Invitation.InvitationID != invitation.InvitationID {
		t.Fatalf("replay returned a different invitation")
	}
	opened := module.Store.ListOutbox()
	if len(opened) != 1 || opened[0].EventType != "invitation.opened" {
		t.Fatalf("expected exactly one invitation.opened event, got %+v", opened)
	}
	if opened[0].SchemaVersion != 1 {
		t.Fatalf("envelope schema version = %d, want 1", opened[0].SchemaVersion)
	}

	ladder := []entities.ResponseState{
		entities.ResponseInvited,
		entities.ResponseReinvited,
		entities.ResponseMultiplyReinvited,
		entities.ResponseMultiplyReinvited, // saturates
	}
	for i, want := range ladder {
		updated, err := module.Invitations.SendReminder(ctx, invitationcommands.SendReminderCommand{
			InvitationID: invitation.InvitationID,
		})
		if err != nil {
			t.Fatalf("reminder %d failed: %v", i+1, err)
		}
		if updated.Response != want {
			t.Fatalf("reminder %d: expected %s, got %s", i+1, want, updated.Response)
		}
		if updated.LastContactAt == nil || updated.InvitedAt == nil {
			t.Fatalf("reminder %d left contact timestamps unset", i+1)
		}
	}
}

func TestAcceptedResponseCreatesFellowship(t *testing.T) {
	recorder := &fellowshipRecorder{}
	module := invitationservice.NewInMemoryModule(recorder, testStaleAfter, testPostponementNotice, nil)
	module.Store.SetPerson(ports.PersonProfile{PersonID: "candidate-1", HasAccount: true})
	ctx := context.Background()

	invitation := newInvitation(t, module, "nomination-2")
	accepted, err := module.Invitations.RecordResponse(ctx, invitationcommands.RecordResponseCommand{
		InvitationID: invitation.InvitationID,
		Response:     entities.ResponseAccepted,
	})
	if err != nil {
		t.Fatalf("record accepted failed: %v", err)
	}
	if accepted.RespondedAt == nil {
		t.Fatalf("accepted response left responded_at unset")
	}
	if recorder.count() != 1 {
		t.Fatalf("expected one fellowship creation, got %d", recorder.count())
	}
	if recorder.calls[0].startDate != nil {
		t.Fatalf("accepted fellowship must start immediately")
	}
	if recorder.calls[0].personID != "candidate-1" || recorder.calls[0].collegeID != "college-phys" {
		t.Fatalf("fellowship created for the wrong person: %+v", recorder.calls[0])
	}

	// A final state shuts the door on further responses and reminders.
	if _, err := module.Invitations.RecordResponse(ctx, invitationcommands.RecordResponseCommand{
		InvitationID: invitation.InvitationID,
		Response:     entities.ResponseDeclined,
	}); !errors.Is(err, invitationerrors.ErrInvitationFinal) {
		t.Fatalf("expected final-state rejection, got %v", err)
	}
	if _, err := module.Invitations.SendReminder(ctx, invitationcommands.SendReminderCommand{
		InvitationID: invitation.InvitationID,
	}); !errors.Is(err, invitationerrors.ErrInvitationFinal) {
		t.Fatalf("expected final-state reminder rejection, got %v", err)
	}
}

func TestAcceptedWithoutAccountDefersFellowship(t *testing.T) {
	recorder := &fellowshipRecorder{}
	module := invitationservice.NewInMemoryModule(recorder, testStaleAfter, testPostponementNotice, nil)
	module.Store.SetPerson(ports.PersonProfile{PersonID: "candidate-1", HasAccount: false})
	ctx := context.Background()

	invitation := newInvitation(t, module, "nomination-3")
	if _, err := module.Invitations.RecordResponse(ctx, invitationcommands.RecordResponseCommand{
		InvitationID: invitation.InvitationID,
		Response:     entities.ResponseAccepted,
	}); err != nil {
		t.Fatalf("record accepted failed: %v", err)
	}
	if recorder.count() != 0 {
		t.Fatalf("fellowship must wait for an account, got %d creations", recorder.count())
	}
}

func TestPostponedResponseSchedulesFutureFellowship(t *testing.T) {
	recorder := &fellowshipRecorder{}
	module := invitationservice.NewInMemoryModule(recorder, testStaleAfter, testPostponementNotice, nil)
	module.Store.SetPerson(ports.PersonProfile{PersonID: "candidate-1", HasAccount: true})
	ctx := context.Background()

	invitation := newInvitation(t, module, "nomination-4")
	if _, err := module.Invitations.RecordResponse(ctx, invitationcommands.RecordResponseCommand{
		InvitationID: invitation.InvitationID,
		Response:     entities.ResponsePostponed,
	}); !errors.Is(err, invitationerrors.ErrInvalidInvitationInput) {
		t.Fatalf("postponement without a date must be rejected, got %v", err)
	}

	resume := time.Now().UTC().Add(90 * 24 * time.Hour)
	postponed, err := module.Invitations.RecordResponse(ctx, invitationcommands.RecordResponseCommand{
		InvitationID:   invitation.InvitationID,
		Response:       entities.ResponsePostponed,
		PostponedUntil: &resume,
	})
	if err != nil {
		t.Fatalf("record postponed failed: %v", err)
	}
	if postponed.PostponedUntil == nil || !postponed.PostponedUntil.Equal(resume) {
		t.Fatalf("postponement date not persisted")
	}
	if recorder.count() != 1 {
		t.Fatalf("expected a future-dated fellowship, got %d creations", recorder.count())
	}
	if recorder.calls[0].startDate == nil || !recorder.calls[0].startDate.Equal(resume) {
		t.Fatalf("fellowship start must match the postponement date")
	}

	// Postponed is not final: the candidate may still accept outright.
	if _, err := module.Invitations.RecordResponse(ctx, invitationcommands.RecordResponseCommand{
		InvitationID: invitation.InvitationID,
		Response:     entities.ResponseAccepted,
	}); err != nil {
		t.Fatalf("accept after postponement failed: %v", err)
	}
}

func TestReinviteLaterCarriesResumeDateIntoAttention(t *testing.T) {
	recorder := &fellowshipRecorder{}
	module := invitationservice.NewInMemoryModule(recorder, testStaleAfter, testPostponementNotice, nil)
	module.Store.SetPerson(ports.PersonProfile{PersonID: "candidate-1", HasAccount: true})
	ctx := context.Background()

	invitation := newInvitation(t, module, "nomination-11")
	resume := time.Now().UTC().Add(3 * 24 * time.Hour)
	parked, err := module.Invitations.RecordResponse(ctx, invitationcommands.RecordResponseCommand{
		InvitationID:   invitation.InvitationID,
		Response:       entities.ResponseReinviteLater,
		PostponedUntil: &resume,
	})
	if err != nil {
		t.Fatalf("record reinvite_later failed: %v", err)
	}
	if parked.PostponedUntil == nil || !parked.PostponedUntil.Equal(resume) {
		t.Fatalf("resume date not persisted for reinvite_later")
	}
	if recorder.count() != 0 {
		t.Fatalf("reinvite_later must not create a fellowship, got %d creations", recorder.count())
	}

	needy, err := module.Attention.NeedsAttention(ctx)
	if err != nil {
		t.Fatalf("attention query failed: %v", err)
	}
	if len(needy) != 1 || needy[0].InvitationID != invitation.InvitationID {
		t.Fatalf("a reinvite_later resume date inside the notice window must surface, got %+v", needy)
	}

	// Repeating the reply without a date keeps the agreed resume date.
	again, err := module.Invitations.RecordResponse(ctx, invitationcommands.RecordResponseCommand{
		InvitationID: invitation.InvitationID,
		Response:     entities.ResponseReinviteLater,
	})
	if err != nil {
		t.Fatalf("second reinvite_later failed: %v", err)
	}
	if again.PostponedUntil == nil || !again.PostponedUntil.Equal(resume) {
		t.Fatalf("resume date lost on repeated reinvite_later")
	}
}

func TestAttentionSweepFlagsStaleAndImminentPostponements(t *testing.T) {
	module := invitationservice.NewInMemoryModule(&fellowshipRecorder{}, testStaleAfter, testPostponementNotice, nil)
	ctx := context.Background()
	now := time.Now().UTC()

	// Stale: last contact 15 days back, past the reminder window.
	staleContact := now.Add(-15 * 24 * time.Hour)
	stale := entities.Invitation{
		InvitationID:      "invitation-stale",
		NominationID:      "nomination-5",
		CollegeID:         "college-phys",
		CandidatePersonID: "candidate-2",
		Response:          entities.ResponseInvited,
		InvitedAt:         &staleContact,
		LastContactAt:     &staleContact,
		CreatedAt:         staleContact,
		UpdatedAt:         staleContact,
	}
	if err := module.Store.SaveInvitation(ctx, stale); err != nil {
		t.Fatalf("seed stale invitation failed: %v", err)
	}

	// Postponed with the resume date inside the notice window.
	imminent := now.Add(3 * 24 * time.Hour)
	postponed := entities.Invitation{
		InvitationID:      "invitation-postponed",
		NominationID:      "nomination-6",
		CollegeID:         "college-phys",
		CandidatePersonID: "candidate-3",
		Response:          entities.ResponsePostponed,
		PostponedUntil:    &imminent,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := module.Store.SaveInvitation(ctx, postponed); err != nil {
		t.Fatalf("seed postponed invitation failed: %v", err)
	}

	// Fresh contact: needs nothing.
	recentContact := now.Add(-2 * 24 * time.Hour)
	fresh := entities.Invitation{
		InvitationID:      "invitation-fresh",
		NominationID:      "nomination-7",
		CollegeID:         "college-phys",
		CandidatePersonID: "candidate-4",
		Response:          entities.ResponseInvited,
		InvitedAt:         &recentContact,
		LastContactAt:     &recentContact,
		CreatedAt:         recentContact,
		UpdatedAt:         recentContact,
	}
	if err := module.Store.SaveInvitation(ctx, fresh); err != nil {
		t.Fatalf("seed fresh invitation failed: %v", err)
	}

	needy, err := module.Attention.NeedsAttention(ctx)
	if err != nil {
		t.Fatalf("attention query failed: %v", err)
	}
	if len(needy) != 2 {
		t.Fatalf("expected 2 invitations needing attention, got %d", len(needy))
	}

	if err := module.Sweep.RunOnce(ctx); err != nil {
		t.Fatalf("attention sweep failed: %v", err)
	}
	flagged, err := module.Store.GetInvitation(ctx, "invitation-stale")
	if err != nil {
		t.Fatalf("load invitation failed: %v", err)
	}
	if flagged.AttentionFlaggedAt == nil {
		t.Fatalf("expected attention flag after sweep")
	}
	emitted := module.Store.ListOutbox()
	if len(emitted) != 2 {
		t.Fatalf("expected 2 attention events, got %d", len(emitted))
	}
	for _, envelope := range emitted {
		if envelope.EventType != "invitation.attention_required" {
			t.Fatalf("unexpected event type %s", envelope.EventType)
		}
	}

	// The flag is set once; a second pass emits nothing new.
	if err := module.Sweep.RunOnce(ctx); err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}
	if got := len(module.Store.ListOutbox()); got != 2 {
		t.Fatalf("second sweep re-emitted events: %d", got)
	}
}

func TestDeclinedResponseFeedsCooldownHistory(t *testing.T) {
	module := invitationservice.NewInMemoryModule(&fellowshipRecorder{}, testStaleAfter, testPostponementNotice, nil)
	ctx := context.Background()

	invitation := newInvitation(t, module, "nomination-8")
	declined, err := module.Invitations.RecordResponse(ctx, invitationcommands.RecordResponseCommand{
		InvitationID: invitation.InvitationID,
		Response:     entities.ResponseDeclined,
		Comments:     "accepted a competing editorship",
	})
	if err != nil {
		t.Fatalf("record declined failed: %v", err)
	}

	at, found, err := module.Store.LatestDecline(ctx, "college-phys", "candidate-1")
	if err != nil {
		t.Fatalf("latest decline lookup failed: %v", err)
	}
	if !found {
		t.Fatalf("expected a recorded decline")
	}
	if declined.RespondedAt == nil || !at.Equal(*declined.RespondedAt) {
		t.Fatalf("decline timestamp mismatch: %s vs %v", at, declined.RespondedAt)
	}
}

func TestDecisionConsumerOpensInvitationForElectedOutcome(t *testing.T) {
	module := invitationservice.NewInMemoryModule(&fellowshipRecorder{}, testStaleAfter, testPostponementNotice, nil)
	sub := &invitationStubSubscriber{}
	consumer := invitationworkers.DecisionConsumer{
		Subscriber:  sub,
		Invitations: module.Invitations,
	}
	ctx := context.Background()

	if err := consumer.Start(ctx); err != nil {
		t.Fatalf("start decision consumer failed: %v", err)
	}
	handler := sub.handlers["decision.fixed"]
	if handler == nil {
		t.Fatalf("expected decision.fixed handler registration")
	}

	elected, _ := json.Marshal(map[string]any{
		"nomination_id":       "nomination-9",
		"college_id":          "college-phys",
		"candidate_person_id": "candidate-5",
		"outcome":             "elected",
	})
	if err := handler(ctx, events.Envelope{
		EventID:   "event-1",
		EventType: "decision.fixed",
		Data:      elected,
	}); err != nil {
		t.Fatalf("elected decision handling failed: %v", err)
	}
	if _, found, err := module.Store.GetInvitationByNomination(ctx, "nomination-9"); err != nil || !found {
		t.Fatalf("expected an invitation for the elected nomination (found=%t, err=%v)", found, err)
	}

	rejected, _ := json.Marshal(map[string]any{
		"nomination_id":       "nomination-10",
		"college_id":          "college-phys",
		"candidate_person_id": "candidate-6",
		"outcome":             "not_elected",
	})
	if err := handler(ctx, events.Envelope{
		EventID:   "event-2",
		EventType: "decision.fixed",
		Data:      rejected,
	}); err != nil {
		t.Fatalf("rejected decision handling failed: %v", err)
	}
	if _, found, _ := module.Store.GetInvitationByNomination(ctx, "nomination-10"); found {
		t.Fatalf("no invitation may exist for a rejected nomination")
	}
}
