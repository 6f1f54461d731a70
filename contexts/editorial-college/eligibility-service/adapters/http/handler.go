package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"collegium/contexts/editorial-college/eligibility-service/application/commands"
	"collegium/contexts/editorial-college/eligibility-service/application/queries"
	"collegium/contexts/editorial-college/eligibility-service/domain/entities"
	domainerrors "collegium/contexts/editorial-college/eligibility-service/domain/errors"
	httptransport "collegium/contexts/editorial-college/eligibility-service/transport/http"
)

type Handler struct {
	Eligibility queries.EligibilityUseCase
	Pools       commands.PoolUseCase
	Fellowships commands.FellowshipUseCase
	Logger      *slog.Logger
}

func (h Handler) ManuscriptRefereesHandler(ctx context.Context, submissionID string) (httptransport.RosterResponse, error) {
	roster, err := h.Eligibility.ManuscriptReferees(ctx, submissionID)
	if err != nil {
		return httptransport.RosterResponse{}, err
	}
	return mapRoster(roster), nil
}

func (h Handler) NominationVotersHandler(
	ctx context.Context,
	collegeID string,
	candidatePersonID string,
) (httptransport.RosterResponse, error) {
	roster, err := h.Eligibility.NominationVoters(ctx, collegeID, candidatePersonID)
	if err != nil {
		return httptransport.RosterResponse{}, err
	}
	return mapRoster(roster), nil
}

func (h Handler) AssignPoolHandler(ctx context.Context, submissionID string) (httptransport.AssignPoolResponse, error) {
	result, err := h.Pools.AssignPool(ctx, commands.AssignPoolCommand{SubmissionID: submissionID})
	if err != nil {
		return httptransport.AssignPoolResponse{}, err
	}
	return httptransport.AssignPoolResponse{
		SubmissionID:    submissionID,
		PoolSize:        result.PoolSize,
		FallbackApplied: result.FallbackApplied,
	}, nil
}

func (h Handler) EditPoolHandler(ctx context.Context, submissionID string, req httptransport.PoolEditRequest) error {
	return h.Pools.EditPool(ctx, commands.AdminPoolEditCommand{
		SubmissionID: submissionID,
		FellowID:     req.FellowID,
		Remove:       req.Remove,
	})
}

func (h Handler) VotingSubsetHandler(ctx context.Context, submissionID string) (httptransport.PoolResponse, error) {
	entries, err := h.Pools.VotingSubset(ctx, submissionID)
	if err != nil {
		return httptransport.PoolResponse{}, err
	}
	items := make([]httptransport.PoolEntryItem, 0, len(entries))
	for _, entry := range entries {
		items = append(items, httptransport.PoolEntryItem{
			FellowID:       entry.FellowID,
			Source:         string(entry.Source),
			RemovedByAdmin: entry.RemovedByAdmin,
		})
	}
	return httptransport.PoolResponse{SubmissionID: submissionID, Entries: items}, nil
}

func (h Handler) CreateFellowshipHandler(
	ctx context.Context,
	req httptransport.CreateFellowshipRequest,
) (httptransport.FellowResponse, error) {
	startDate, err := parseOptionalDate(req.StartDate)
	if err != nil {
		return httptransport.FellowResponse{}, domainerrors.ErrInvalidFellowInput
	}
	untilDate, err := parseOptionalDate(req.UntilDate)
	if err != nil {
		return httptransport.FellowResponse{}, domainerrors.ErrInvalidFellowInput
	}
	result, err := h.Fellowships.CreateFellowship(ctx, commands.CreateFellowshipCommand{
		CollegeID: req.CollegeID,
		PersonID:  req.PersonID,
		Tier:      entities.FellowTier(req.Tier),
		StartDate: startDate,
		UntilDate: untilDate,
	})
	if err != nil {
		return httptransport.FellowResponse{}, err
	}
	return mapFellow(result.Fellow, result.Created), nil
}

func (h Handler) EditFellowWindowHandler(
	ctx context.Context,
	fellowID string,
	req httptransport.EditWindowRequest,
) (httptransport.FellowResponse, error) {
	startDate, err := parseOptionalDate(req.StartDate)
	if err != nil {
		return httptransport.FellowResponse{}, domainerrors.ErrInvalidFellowInput
	}
	untilDate, err := parseOptionalDate(req.UntilDate)
	if err != nil {
		return httptransport.FellowResponse{}, domainerrors.ErrInvalidFellowInput
	}
	fellow, err := h.Fellowships.EditFellowWindow(ctx, commands.EditFellowWindowCommand{
		FellowID:  fellowID,
		StartDate: startDate,
		UntilDate: untilDate,
	})
	if err != nil {
		return httptransport.FellowResponse{}, err
	}
	return mapFellow(fellow, false), nil
}

func mapRoster(roster queries.Roster) httptransport.RosterResponse {
	members := make([]httptransport.RosterMemberItem, 0, len(roster.Members))
	for _, member := range roster.Members {
		members = append(members, httptransport.RosterMemberItem{
			FellowID: member.FellowID,
			PersonID: member.PersonID,
		})
	}
	return httptransport.RosterResponse{
		Members:         members,
		EligibleCount:   roster.Size(),
		FallbackApplied: roster.FallbackApplied,
	}
}

func mapFellow(fellow entities.Fellow, created bool) httptransport.FellowResponse {
	return httptransport.FellowResponse{
		FellowID:  fellow.FellowID,
		PersonID:  fellow.PersonID,
		CollegeID: fellow.CollegeID,
		Tier:      string(fellow.Tier),
		StartDate: formatOptionalDate(fellow.StartDate),
		UntilDate: formatOptionalDate(fellow.UntilDate),
		Created:   created,
	}
}

func parseOptionalDate(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, *value)
	if err != nil {
		return nil, err
	}
	parsed = parsed.UTC()
	return &parsed, nil
}

func formatOptionalDate(value *time.Time) *string {
	if value == nil {
		return nil
	}
	formatted := value.UTC().Format(time.RFC3339)
	return &formatted
}
