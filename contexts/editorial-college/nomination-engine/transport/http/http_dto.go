package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateNominationRequest struct {
	CollegeID         string `json:"college_id"`
	CandidatePersonID string `json:"candidate_person_id"`
	NominatorPersonID string `json:"nominator_person_id"`
	Comments          string `json:"comments,omitempty"`
	NominatorIsFellow bool   `json:"nominator_is_fellow"`
}

type NominationResponse struct {
	NominationID      string `json:"nomination_id"`
	CollegeID         string `json:"college_id"`
	CandidatePersonID string `json:"candidate_person_id"`
	NominatorPersonID string `json:"nominator_person_id"`
	Comments          string `json:"comments,omitempty"`
	Status            string `json:"status"`
	NominatedAt       string `json:"nominated_at"`
}

type NominationListResponse struct {
	Nominations []NominationResponse `json:"nominations"`
}

type VetoRequest struct {
	FellowID string `json:"fellow_id"`
	Reason   string `json:"reason,omitempty"`
}

type OpenRoundRequest struct {
	Kind    string  `json:"kind,omitempty"`
	OpensAt *string `json:"opens_at,omitempty"`
}

type RoundResponse struct {
	RoundID      string   `json:"round_id"`
	NominationID string   `json:"nomination_id"`
	Kind         string   `json:"kind"`
	Roster       []string `json:"roster"`
	OpensAt      string   `json:"opens_at"`
	Deadline     string   `json:"deadline"`
	Resolved     bool     `json:"resolved"`
	Created      bool     `json:"created"`
}

type RoundListResponse struct {
	NominationID string          `json:"nomination_id"`
	Rounds       []RoundResponse `json:"rounds"`
}

type RosterEditRequest struct {
	FellowID string `json:"fellow_id"`
	Remove   bool   `json:"remove"`
}

type CastVoteRequest struct {
	FellowID string `json:"fellow_id"`
	Value    string `json:"value"`
}

type VoteResponse struct {
	RoundID  string `json:"round_id"`
	FellowID string `json:"fellow_id"`
	Value    string `json:"value"`
	CastAt   string `json:"cast_at"`
}

type RetractVoteRequest struct {
	FellowID string `json:"fellow_id"`
}

type FixDecisionRequest struct {
	Comments        string  `json:"comments,omitempty"`
	AdminOverride   bool    `json:"admin_override"`
	OverrideOutcome *string `json:"override_outcome,omitempty"`
}

type DecisionResponse struct {
	RoundID       string `json:"round_id"`
	NominationID  string `json:"nomination_id"`
	Outcome       string `json:"outcome"`
	Comments      string `json:"comments,omitempty"`
	FixedAt       string `json:"fixed_at"`
	AdminOverride bool   `json:"admin_override"`
	Fixed         bool   `json:"fixed"`
}

type TallyItem struct {
	Agree    int `json:"agree"`
	Abstain  int `json:"abstain"`
	Disagree int `json:"disagree"`
}

type RoundStatusResponse struct {
	RoundID        string            `json:"round_id"`
	NominationID   string            `json:"nomination_id"`
	EligibleCount  int               `json:"eligible_count"`
	VotesCast      int               `json:"votes_cast"`
	Tally          TallyItem         `json:"tally"`
	HasVeto        bool              `json:"has_veto"`
	CanFixDecision bool              `json:"can_fix_decision"`
	NotReadyReason string            `json:"not_ready_reason,omitempty"`
	Deadline       string            `json:"deadline"`
	Decision       *DecisionResponse `json:"decision,omitempty"`
}
