package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RosterMemberItem struct {
	FellowID string `json:"fellow_id"`
	PersonID string `json:"person_id"`
}

type RosterResponse struct {
	Members         []RosterMemberItem `json:"members"`
	EligibleCount   int                `json:"eligible_count"`
	FallbackApplied bool               `json:"fallback_applied"`
}

type AssignPoolResponse struct {
	SubmissionID    string `json:"submission_id"`
	PoolSize        int    `json:"pool_size"`
	FallbackApplied bool   `json:"fallback_applied"`
}

type PoolEditRequest struct {
	FellowID string `json:"fellow_id"`
	Remove   bool   `json:"remove"`
}

type PoolEntryItem struct {
	FellowID       string `json:"fellow_id"`
	Source         string `json:"source"`
	RemovedByAdmin bool   `json:"removed_by_admin"`
}

type PoolResponse struct {
	SubmissionID string          `json:"submission_id"`
	Entries      []PoolEntryItem `json:"entries"`
}

type CreateFellowshipRequest struct {
	CollegeID string  `json:"college_id"`
	PersonID  string  `json:"person_id"`
	Tier      string  `json:"tier"`
	StartDate *string `json:"start_date,omitempty"`
	UntilDate *string `json:"until_date,omitempty"`
}

type FellowResponse struct {
	FellowID  string  `json:"fellow_id"`
	PersonID  string  `json:"person_id"`
	CollegeID string  `json:"college_id"`
	Tier      string  `json:"tier"`
	StartDate *string `json:"start_date,omitempty"`
	UntilDate *string `json:"until_date,omitempty"`
	Created   bool    `json:"created"`
}

type EditWindowRequest struct {
	StartDate *string `json:"start_date,omitempty"`
	UntilDate *string `json:"until_date,omitempty"`
}
