package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateInvitationRequest struct {
	NominationID      string `json:"nomination_id"`
	CollegeID         string `json:"college_id"`
	CandidatePersonID string `json:"candidate_person_id"`
}

type InvitationResponse struct {
	InvitationID      string  `json:"invitation_id"`
	NominationID      string  `json:"nomination_id"`
	CollegeID         string  `json:"college_id"`
	CandidatePersonID string  `json:"candidate_person_id"`
	Response          string  `json:"response"`
	InvitedAt         *string `json:"invited_at,omitempty"`
	LastContactAt     *string `json:"last_contact_at,omitempty"`
	RespondedAt       *string `json:"responded_at,omitempty"`
	PostponedUntil    *string `json:"postponed_until,omitempty"`
	Comments          string  `json:"comments,omitempty"`
	Created           bool    `json:"created"`
}

type RecordResponseRequest struct {
	Response       string  `json:"response"`
	PostponedUntil *string `json:"postponed_until,omitempty"`
	Comments       string  `json:"comments,omitempty"`
}

type AttentionListResponse struct {
	Invitations []InvitationResponse `json:"invitations"`
}
