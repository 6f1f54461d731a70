package entities

import "time"

// ResponseState tracks where an invitation sits in the contact cycle.
type ResponseState string

const (
	ResponseNotYetInvited     ResponseState = "not_yet_invited"
	ResponseInvited           ResponseState = "invited"
	ResponseReinvited         ResponseState = "reinvited"
	ResponseMultiplyReinvited ResponseState = "multiply_reinvited"
	ResponseAccepted          ResponseState = "accepted"
	ResponsePostponed         ResponseState = "postponed"
	ResponseDeclined          ResponseState = "declined"
	ResponseUnresponsive      ResponseState = "unresponsive"
	ResponseReinviteLater     ResponseState = "reinvite_later"
)

func (s ResponseState) Valid() bool {
	switch s {
	case ResponseNotYetInvited, ResponseInvited, ResponseReinvited, ResponseMultiplyReinvited,
		ResponseAccepted, ResponsePostponed, ResponseDeclined, ResponseUnresponsive, ResponseReinviteLater:
		return true
	}
	return false
}

// Final reports whether the state terminates the contact cycle. A postponed
// invitation is not final: it comes back up for attention near its date.
func (s ResponseState) Final() bool {
	switch s {
	case ResponseAccepted, ResponseDeclined, ResponseUnresponsive:
		return true
	}
	return false
}

// Contacted reports whether the invitation has actually been sent.
func (s ResponseState) Contacted() bool {
	return s != ResponseNotYetInvited && s != ""
}

// Invitation is the single formal offer attached to an elected nomination.
type Invitation struct {
	InvitationID      string
	NominationID      string
	CollegeID         string
	CandidatePersonID string
	Response          ResponseState
	InvitedAt         *time.Time
	LastContactAt     *time.Time
	RespondedAt       *time.Time
	PostponedUntil    *time.Time
	Comments          string
	// AttentionFlaggedAt is set once by the attention sweep; re-flagging is
	// a no-op until the flag is cleared by a response.
	AttentionFlaggedAt *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Accepted reports whether the candidate has agreed to serve, immediately or
// from a postponed start date. Both replies lead to a Fellowship.
func (i Invitation) Accepted() bool {
	return i.Response == ResponseAccepted || i.Response == ResponsePostponed
}

// NextReminderState advances the contact cycle by one reminder. After the
// second reminder the state saturates at multiply_reinvited.
func (i Invitation) NextReminderState() (ResponseState, bool) {
	switch i.Response {
	case ResponseNotYetInvited, "":
		return ResponseInvited, true
	case ResponseInvited:
		return ResponseReinvited, true
	case ResponseReinvited, ResponseMultiplyReinvited, ResponseReinviteLater:
		return ResponseMultiplyReinvited, true
	}
	return i.Response, false
}

// NeedsAttention applies the editorial follow-up rules: a sent, unanswered
// invitation goes stale after the reminder window, and an invitation carrying
// a postponement date, whether postponed outright or parked as
// reinvite_later, needs attention once that date is inside the notice window.
func (i Invitation) NeedsAttention(now time.Time, staleAfter time.Duration, postponementNotice time.Duration) bool {
	if i.Response.Final() {
		return false
	}
	switch i.Response {
	case ResponsePostponed:
		if i.PostponedUntil == nil {
			return true
		}
		return i.PostponedUntil.Sub(now) < postponementNotice
	case ResponseReinviteLater:
		return i.PostponedUntil != nil && i.PostponedUntil.Sub(now) < postponementNotice
	}
	if !i.Response.Contacted() {
		return false
	}
	lastContact := i.LastContactAt
	if lastContact == nil {
		lastContact = i.InvitedAt
	}
	if lastContact == nil {
		return false
	}
	return now.Sub(*lastContact) > staleAfter
}
