// Package invitationservice implements the Invitation Tracker inside the
// editorial-college context.
//
// The module owns the single formal offer attached to an elected nomination:
// the contact cycle (invited, reinvited, multiply reinvited), the candidate's
// response, and the follow-up rules that put stale or imminently postponed
// invitations in front of editorial administration. An accepted offer from a
// candidate with a registered account becomes a Fellowship through the
// eligibility service; a declined one feeds the re-nomination cool-down.
package invitationservice
