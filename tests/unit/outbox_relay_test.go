package unit

import (
	"context"
	"testing"

	nominationcommands "collegium/contexts/editorial-college/nomination-engine/application/commands"
	nominationworkers "collegium/contexts/editorial-college/nomination-engine/application/workers"
	"collegium/internal/shared/events"
)

type publishRecorder struct {
	published []publishedEvent
}

type publishedEvent struct {
	topic string
	event events.Envelope
}

func (p *publishRecorder) Publish(_ context.Context, topic string, event events.Envelope) error {
	p.published = append(p.published, publishedEvent{topic: topic, event: event})
	return nil
}

func TestOutboxRelayPublishesPendingOnce(t *testing.T) {
	module := newNominationModule(sixFellowRoster(), nil)
	ctx := context.Background()

	nomination, err := module.Nominations.CreateNomination(ctx, nominationcommands.CreateNominationCommand{
		CollegeID:         "college-phys",
		CandidatePersonID: "candidate-relay",
		NominatorPersonID: "admin-1",
	})
	if err != nil {
		t.Fatalf("create nomination failed: %v", err)
	}
	if _, err := module.Rounds.OpenRound(ctx, nominationcommands.OpenRoundCommand{
		NominationID: nomination.NominationID,
	}); err != nil {
		t.Fatalf("open round failed: %v", err)
	}

	publisher := &publishRecorder{}
	relay := nominationworkers.OutboxRelay{
		Outbox:    module.Store,
		Publisher: publisher,
	}
	if err := relay.RunOnce(ctx); err != nil {
		t.Fatalf("relay run failed: %v", err)
	}

	topics := map[string]bool{}
	for _, item := range publisher.published {
		topics[item.topic] = true
	}
	if len(publisher.published) != 2 || !topics["nomination.opened"] || !topics["round.opened"] {
		t.Fatalf("unexpected relayed events: %+v", topics)
	}

	// Everything is marked published; a second run moves nothing.
	if err := relay.RunOnce(ctx); err != nil {
		t.Fatalf("second relay run failed: %v", err)
	}
	if len(publisher.published) != 2 {
		t.Fatalf("relay re-published events: %d", len(publisher.published))
	}
}
