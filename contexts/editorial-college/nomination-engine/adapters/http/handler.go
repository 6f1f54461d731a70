package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"collegium/contexts/editorial-college/nomination-engine/application/commands"
	"collegium/contexts/editorial-college/nomination-engine/application/queries"
	"collegium/contexts/editorial-college/nomination-engine/domain/entities"
	domainerrors "collegium/contexts/editorial-college/nomination-engine/domain/errors"
	httptransport "collegium/contexts/editorial-college/nomination-engine/transport/http"
)

type Handler struct {
	Nominations commands.NominationUseCase
	Rounds      commands.RoundUseCase
	Votes       commands.VoteUseCase
	Decisions   commands.DecisionUseCase
	Status      queries.RoundStatusUseCase
	Logger      *slog.Logger
}

func (h Handler) CreateNominationHandler(
	ctx context.Context,
	req httptransport.CreateNominationRequest,
) (httptransport.NominationResponse, error) {
	nomination, err := h.Nominations.CreateNomination(ctx, commands.CreateNominationCommand{
		CollegeID:         req.CollegeID,
		CandidatePersonID: req.CandidatePersonID,
		NominatorPersonID: req.NominatorPersonID,
		Comments:          req.Comments,
		NominatorIsFellow: req.NominatorIsFellow,
	})
	if err != nil {
		return httptransport.NominationResponse{}, err
	}
	return mapNomination(nomination), nil
}

func (h Handler) ListNominationsHandler(
	ctx context.Context,
	status string,
) (httptransport.NominationListResponse, error) {
	nominations, err := h.Status.NominationsByStatus(ctx, entities.NominationStatus(status))
	if err != nil {
		return httptransport.NominationListResponse{}, err
	}
	items := make([]httptransport.NominationResponse, 0, len(nominations))
	for _, nomination := range nominations {
		items = append(items, mapNomination(nomination))
	}
	return httptransport.NominationListResponse{Nominations: items}, nil
}

func (h Handler) VetoHandler(ctx context.Context, nominationID string, req httptransport.VetoRequest) error {
	return h.Nominations.RecordVeto(ctx, commands.RecordVetoCommand{
		NominationID: nominationID,
		FellowID:     req.FellowID,
		Reason:       req.Reason,
	})
}

func (h Handler) OpenRoundHandler(
	ctx context.Context,
	nominationID string,
	req httptransport.OpenRoundRequest,
) (httptransport.RoundResponse, error) {
	opensAt, err := parseOptionalTime(req.OpensAt)
	if err != nil {
		return httptransport.RoundResponse{}, domainerrors.ErrInvalidNominationInput
	}
	result, err := h.Rounds.OpenRound(ctx, commands.OpenRoundCommand{
		NominationID: nominationID,
		Kind:         entities.RoundKind(req.Kind),
		OpensAt:      opensAt,
	})
	if err != nil {
		return httptransport.RoundResponse{}, err
	}
	return mapRound(result.Round, result.Created), nil
}

func (h Handler) ListRoundsHandler(
	ctx context.Context,
	nominationID string,
) (httptransport.RoundListResponse, error) {
	rounds, err := h.Status.NominationRounds(ctx, nominationID)
	if err != nil {
		return httptransport.RoundListResponse{}, err
	}
	items := make([]httptransport.RoundResponse, 0, len(rounds))
	for _, round := range rounds {
		items = append(items, mapRound(round, false))
	}
	return httptransport.RoundListResponse{NominationID: nominationID, Rounds: items}, nil
}

func (h Handler) EditRosterHandler(
	ctx context.Context,
	roundID string,
	req httptransport.RosterEditRequest,
) (httptransport.RoundResponse, error) {
	cmd := commands.EditRosterCommand{RoundID: roundID, FellowID: req.FellowID}
	var (
		round entities.VotingRound
		err   error
	)
	if req.Remove {
		round, err = h.Rounds.RemoveRosterFellow(ctx, cmd)
	} else {
		round, err = h.Rounds.AddRosterFellow(ctx, cmd)
	}
	if err != nil {
		return httptransport.RoundResponse{}, err
	}
	return mapRound(round, false), nil
}

func (h Handler) CastVoteHandler(
	ctx context.Context,
	roundID string,
	req httptransport.CastVoteRequest,
) (httptransport.VoteResponse, error) {
	vote, err := h.Votes.CastVote(ctx, commands.CastVoteCommand{
		RoundID:  roundID,
		FellowID: req.FellowID,
		Value:    entities.VoteValue(req.Value),
	})
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	return httptransport.VoteResponse{
		RoundID:  vote.RoundID,
		FellowID: vote.FellowID,
		Value:    string(vote.Value),
		CastAt:   vote.CastAt.Format(time.RFC3339),
	}, nil
}

func (h Handler) RetractVoteHandler(
	ctx context.Context,
	roundID string,
	req httptransport.RetractVoteRequest,
) error {
	return h.Votes.RetractVote(ctx, commands.RetractVoteCommand{
		RoundID:  roundID,
		FellowID: req.FellowID,
	})
}

func (h Handler) FixDecisionHandler(
	ctx context.Context,
	roundID string,
	req httptransport.FixDecisionRequest,
) (httptransport.DecisionResponse, error) {
	var override *entities.Outcome
	if req.OverrideOutcome != nil {
		outcome := entities.Outcome(*req.OverrideOutcome)
		override = &outcome
	}
	result, err := h.Decisions.FixDecision(ctx, commands.FixDecisionCommand{
		RoundID:         roundID,
		Comments:        req.Comments,
		AdminOverride:   req.AdminOverride,
		OverrideOutcome: override,
	})
	if err != nil {
		return httptransport.DecisionResponse{}, err
	}
	return mapDecision(result.Decision, result.Fixed), nil
}

func (h Handler) RoundStatusHandler(ctx context.Context, roundID string) (httptransport.RoundStatusResponse, error) {
	view, err := h.Status.RoundStatus(ctx, roundID)
	if err != nil {
		return httptransport.RoundStatusResponse{}, err
	}
	resp := httptransport.RoundStatusResponse{
		RoundID:       view.Round.RoundID,
		NominationID:  view.Round.NominationID,
		EligibleCount: view.EligibleCount,
		VotesCast:     view.VotesCast,
		Tally: httptransport.TallyItem{
			Agree:    view.Tally.Agree,
			Abstain:  view.Tally.Abstain,
			Disagree: view.Tally.Disagree,
		},
		HasVeto:        view.HasVeto,
		CanFixDecision: view.CanFixDecision,
		NotReadyReason: view.NotReadyReason,
		Deadline:       view.Round.Deadline.Format(time.RFC3339),
	}
	if view.Decision != nil {
		decision := mapDecision(*view.Decision, false)
		resp.Decision = &decision
	}
	return resp, nil
}

func mapNomination(nomination entities.Nomination) httptransport.NominationResponse {
	return httptransport.NominationResponse{
		NominationID:      nomination.NominationID,
		CollegeID:         nomination.CollegeID,
		CandidatePersonID: nomination.CandidatePersonID,
		NominatorPersonID: nomination.NominatorPersonID,
		Comments:          nomination.Comments,
		Status:            string(nomination.Status),
		NominatedAt:       nomination.NominatedAt.Format(time.RFC3339),
	}
}

func mapRound(round entities.VotingRound, created bool) httptransport.RoundResponse {
	return httptransport.RoundResponse{
		RoundID:      round.RoundID,
		NominationID: round.NominationID,
		Kind:         string(round.Kind),
		Roster:       append([]string(nil), round.Roster...),
		OpensAt:      round.OpensAt.Format(time.RFC3339),
		Deadline:     round.Deadline.Format(time.RFC3339),
		Resolved:     round.Resolved,
		Created:      created,
	}
}

func mapDecision(decision entities.Decision, fixed bool) httptransport.DecisionResponse {
	return httptransport.DecisionResponse{
		RoundID:       decision.RoundID,
		NominationID:  decision.NominationID,
		Outcome:       string(decision.Outcome),
		Comments:      decision.Comments,
		FixedAt:       decision.FixedAt.Format(time.RFC3339),
		AdminOverride: decision.AdminOverride,
		Fixed:         fixed,
	}
}

func parseOptionalTime(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, *value)
	if err != nil {
		return nil, err
	}
	utc := parsed.UTC()
	return &utc, nil
}
