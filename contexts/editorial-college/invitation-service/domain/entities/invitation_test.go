package entities

import (
	"testing"
	"time"
)

func TestNextReminderState(t *testing.T) {
	steps := []struct {
		from    ResponseState
		want    ResponseState
		allowed bool
	}{
		{from: ResponseNotYetInvited, want: ResponseInvited, allowed: true},
		{from: "", want: ResponseInvited, allowed: true},
		{from: ResponseInvited, want: ResponseReinvited, allowed: true},
		{from: ResponseReinvited, want: ResponseMultiplyReinvited, allowed: true},
		{from: ResponseMultiplyReinvited, want: ResponseMultiplyReinvited, allowed: true},
		{from: ResponseReinviteLater, want: ResponseMultiplyReinvited, allowed: true},
		{from: ResponseAccepted, want: ResponseAccepted, allowed: false},
		{from: ResponseDeclined, want: ResponseDeclined, allowed: false},
		{from: ResponseUnresponsive, want: ResponseUnresponsive, allowed: false},
	}
	for _, step := range steps {
		invitation := Invitation{Response: step.from}
		got, ok := invitation.NextReminderState()
		if ok != step.allowed || got != step.want {
			t.Fatalf("reminder from %q: got (%q, %t), want (%q, %t)", step.from, got, ok, step.want, step.allowed)
		}
	}
}

func TestAcceptedCoversPostponement(t *testing.T) {
	for _, state := range []ResponseState{ResponseAccepted, ResponsePostponed} {
		if !(Invitation{Response: state}).Accepted() {
			t.Fatalf("%q must count as accepted", state)
		}
	}
	for _, state := range []ResponseState{
		ResponseNotYetInvited, ResponseInvited, ResponseReinvited, ResponseMultiplyReinvited,
		ResponseDeclined, ResponseUnresponsive, ResponseReinviteLater,
	} {
		if (Invitation{Response: state}).Accepted() {
			t.Fatalf("%q must not count as accepted", state)
		}
	}
}

func TestNeedsAttention(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	staleAfter := 14 * 24 * time.Hour
	notice := 7 * 24 * time.Hour

	stale := now.Add(-15 * 24 * time.Hour)
	recent := now.Add(-2 * 24 * time.Hour)
	soon := now.Add(3 * 24 * time.Hour)
	far := now.Add(30 * 24 * time.Hour)

	cases := []struct {
		name       string
		invitation Invitation
		want       bool
	}{
		{
			name:       "unanswered past the reminder window",
			invitation: Invitation{Response: ResponseInvited, LastContactAt: &stale},
			want:       true,
		},
		{
			name:       "recently contacted",
			invitation: Invitation{Response: ResponseInvited, LastContactAt: &recent},
			want:       false,
		},
		{
			name:       "falls back to the invited date",
			invitation: Invitation{Response: ResponseReinvited, InvitedAt: &stale},
			want:       true,
		},
		{
			name:       "postponement coming up",
			invitation: Invitation{Response: ResponsePostponed, PostponedUntil: &soon},
			want:       true,
		},
		{
			name:       "postponement far out",
			invitation: Invitation{Response: ResponsePostponed, PostponedUntil: &far},
			want:       false,
		},
		{
			name:       "postponed without a date",
			invitation: Invitation{Response: ResponsePostponed},
			want:       true,
		},
		{
			name:       "reinvite later with the resume date coming up",
			invitation: Invitation{Response: ResponseReinviteLater, PostponedUntil: &soon, LastContactAt: &recent},
			want:       true,
		},
		{
			name:       "reinvite later with the resume date far out",
			invitation: Invitation{Response: ResponseReinviteLater, PostponedUntil: &far, LastContactAt: &stale},
			want:       false,
		},
		{
			name:       "reinvite later without a date",
			invitation: Invitation{Response: ResponseReinviteLater, LastContactAt: &stale},
			want:       false,
		},
		{
			name:       "never sent",
			invitation: Invitation{Response: ResponseNotYetInvited},
			want:       false,
		},
		{
			name:       "accepted is settled",
			invitation: Invitation{Response: ResponseAccepted, LastContactAt: &stale},
			want:       false,
		},
		{
			name:       "declined is settled",
			invitation: Invitation{Response: ResponseDeclined, LastContactAt: &stale},
			want:       false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.invitation.NeedsAttention(now, staleAfter, notice); got != tc.want {
				t.Fatalf("needs attention = %t, want %t", got, tc.want)
			}
		})
	}
}
