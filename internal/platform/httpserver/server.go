// Package httpserver exposes the editorial-college modules over HTTP.
package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	eligibilityservice "collegium/contexts/editorial-college/eligibility-service"
	eligibilityerrors "collegium/contexts/editorial-college/eligibility-service/domain/errors"
	eligibilityhttp "collegium/contexts/editorial-college/eligibility-service/transport/http"
	invitationservice "collegium/contexts/editorial-college/invitation-service"
	invitationerrors "collegium/contexts/editorial-college/invitation-service/domain/errors"
	invitationhttp "collegium/contexts/editorial-college/invitation-service/transport/http"
	nominationengine "collegium/contexts/editorial-college/nomination-engine"
	nominationerrors "collegium/contexts/editorial-college/nomination-engine/domain/errors"
	nominationhttp "collegium/contexts/editorial-college/nomination-engine/transport/http"
	"collegium/internal/platform/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	mux         *http.ServeMux
	logger      *slog.Logger
	addr        string
	eligibility eligibilityservice.Module
	nominations nominationengine.Module
	invitations invitationservice.Module
	metrics     *metrics.Metrics
}

func New(
	eligibility eligibilityservice.Module,
	nominations nominationengine.Module,
	invitations invitationservice.Module,
	m *metrics.Metrics,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:         http.NewServeMux(),
		logger:      logger,
		addr:        addr,
		eligibility: eligibility,
		nominations: nominations,
		invitations: invitations,
		metrics:     m,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the mux for httptest-driven tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))
	}

	s.mux.HandleFunc("GET /api/college/v1/submissions/{submission_id}/referees", s.handleManuscriptReferees)
	s.mux.HandleFunc("GET /api/college/v1/colleges/{college_id}/voters", s.handleNominationVoters)
	s.mux.HandleFunc("POST /api/college/v1/submissions/{submission_id}/pool", s.handleAssignPool)
	s.mux.HandleFunc("POST /api/college/v1/submissions/{submission_id}/pool/edit", s.handleEditPool)
	s.mux.HandleFunc("GET /api/college/v1/submissions/{submission_id}/pool/voting", s.handleVotingSubset)
	s.mux.HandleFunc("POST /api/college/v1/fellowships", s.handleCreateFellowship)
	s.mux.HandleFunc("POST /api/college/v1/fellows/{fellow_id}/window", s.handleEditFellowWindow)

	s.mux.HandleFunc("POST /api/college/v1/nominations", s.handleCreateNomination)
	s.mux.HandleFunc("GET /api/college/v1/nominations", s.handleListNominations)
	s.mux.HandleFunc("POST /api/college/v1/nominations/{nomination_id}/veto", s.handleVeto)
	s.mux.HandleFunc("POST /api/college/v1/nominations/{nomination_id}/rounds", s.handleOpenRound)
	s.mux.HandleFunc("GET /api/college/v1/nominations/{nomination_id}/rounds", s.handleListRounds)
	s.mux.HandleFunc("POST /api/college/v1/rounds/{round_id}/roster", s.handleEditRoster)
	s.mux.HandleFunc("POST /api/college/v1/rounds/{round_id}/votes", s.handleCastVote)
	s.mux.HandleFunc("POST /api/college/v1/rounds/{round_id}/votes/retract", s.handleRetractVote)
	s.mux.HandleFunc("POST /api/college/v1/rounds/{round_id}/decision", s.handleFixDecision)
	s.mux.HandleFunc("GET /api/college/v1/rounds/{round_id}/status", s.handleRoundStatus)

	s.mux.HandleFunc("POST /api/college/v1/invitations", s.handleCreateInvitation)
	s.mux.HandleFunc("GET /api/college/v1/invitations/attention", s.handleNeedsAttention)
	s.mux.HandleFunc("GET /api/college/v1/invitations/{invitation_id}", s.handleGetInvitation)
	s.mux.HandleFunc("POST /api/college/v1/invitations/{invitation_id}/response", s.handleRecordResponse)
	s.mux.HandleFunc("POST /api/college/v1/invitations/{invitation_id}/reminder", s.handleSendReminder)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleManuscriptReferees(w http.ResponseWriter, r *http.Request) {
	resp, err := s.eligibility.Handler.ManuscriptRefereesHandler(r.Context(), r.PathValue("submission_id"))
	if err != nil {
		writeEligibilityDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNominationVoters(w http.ResponseWriter, r *http.Request) {
	resp, err := s.eligibility.Handler.NominationVotersHandler(
		r.Context(),
		r.PathValue("college_id"),
		r.URL.Query().Get("candidate_person_id"),
	)
	if err != nil {
		writeEligibilityDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAssignPool(w http.ResponseWriter, r *http.Request) {
	resp, err := s.eligibility.Handler.AssignPoolHandler(r.Context(), r.PathValue("submission_id"))
	if err != nil {
		writeEligibilityDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEditPool(w http.ResponseWriter, r *http.Request) {
	var req eligibilityhttp.PoolEditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEligibilityError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.eligibility.Handler.EditPoolHandler(r.Context(), r.PathValue("submission_id"), req); err != nil {
		writeEligibilityDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleVotingSubset(w http.ResponseWriter, r *http.Request) {
	resp, err := s.eligibility.Handler.VotingSubsetHandler(r.Context(), r.PathValue("submission_id"))
	if err != nil {
		writeEligibilityDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateFellowship(w http.ResponseWriter, r *http.Request) {
	var req eligibilityhttp.CreateFellowshipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEligibilityError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.eligibility.Handler.CreateFellowshipHandler(r.Context(), req)
	if err != nil {
		writeEligibilityDomainError(w, err)
		return
	}
	status := http.StatusOK
	if resp.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleEditFellowWindow(w http.ResponseWriter, r *http.Request) {
	var req eligibilityhttp.EditWindowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEligibilityError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.eligibility.Handler.EditFellowWindowHandler(r.Context(), r.PathValue("fellow_id"), req)
	if err != nil {
		writeEligibilityDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateNomination(w http.ResponseWriter, r *http.Request) {
	var req nominationhttp.CreateNominationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeNominationError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.nominations.Handler.CreateNominationHandler(r.Context(), req)
	if err != nil {
		writeNominationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListNominations(w http.ResponseWriter, r *http.Request) {
	resp, err := s.nominations.Handler.ListNominationsHandler(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeNominationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVeto(w http.ResponseWriter, r *http.Request) {
	var req nominationhttp.VetoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeNominationError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.nominations.Handler.VetoHandler(r.Context(), r.PathValue("nomination_id"), req); err != nil {
		writeNominationDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleOpenRound(w http.ResponseWriter, r *http.Request) {
	var req nominationhttp.OpenRoundRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeNominationError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
			return
		}
	}
	resp, err := s.nominations.Handler.OpenRoundHandler(r.Context(), r.PathValue("nomination_id"), req)
	if err != nil {
		writeNominationDomainError(w, err)
		return
	}
	status := http.StatusOK
	if resp.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleListRounds(w http.ResponseWriter, r *http.Request) {
	resp, err := s.nominations.Handler.ListRoundsHandler(r.Context(), r.PathValue("nomination_id"))
	if err != nil {
		writeNominationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEditRoster(w http.ResponseWriter, r *http.Request) {
	var req nominationhttp.RosterEditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeNominationError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.nominations.Handler.EditRosterHandler(r.Context(), r.PathValue("round_id"), req)
	if err != nil {
		writeNominationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	var req nominationhttp.CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeNominationError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.nominations.Handler.CastVoteHandler(r.Context(), r.PathValue("round_id"), req)
	if err != nil {
		writeNominationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleRetractVote(w http.ResponseWriter, r *http.Request) {
	var req nominationhttp.RetractVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeNominationError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.nominations.Handler.RetractVoteHandler(r.Context(), r.PathValue("round_id"), req); err != nil {
		writeNominationDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFixDecision(w http.ResponseWriter, r *http.Request) {
	var req nominationhttp.FixDecisionRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeNominationError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
			return
		}
	}
	resp, err := s.nominations.Handler.FixDecisionHandler(r.Context(), r.PathValue("round_id"), req)
	if err != nil {
		writeNominationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRoundStatus(w http.ResponseWriter, r *http.Request) {
	resp, err := s.nominations.Handler.RoundStatusHandler(r.Context(), r.PathValue("round_id"))
	if err != nil {
		writeNominationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateInvitation(w http.ResponseWriter, r *http.Request) {
	var req invitationhttp.CreateInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvitationError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.invitations.Handler.CreateInvitationHandler(r.Context(), req)
	if err != nil {
		writeInvitationDomainError(w, err)
		return
	}
	status := http.StatusOK
	if resp.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleGetInvitation(w http.ResponseWriter, r *http.Request) {
	resp, err := s.invitations.Handler.GetInvitationHandler(r.Context(), r.PathValue("invitation_id"))
	if err != nil {
		writeInvitationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRecordResponse(w http.ResponseWriter, r *http.Request) {
	var req invitationhttp.RecordResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvitationError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.invitations.Handler.RecordResponseHandler(r.Context(), r.PathValue("invitation_id"), req)
	if err != nil {
		writeInvitationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSendReminder(w http.ResponseWriter, r *http.Request) {
	resp, err := s.invitations.Handler.SendReminderHandler(r.Context(), r.PathValue("invitation_id"))
	if err != nil {
		writeInvitationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNeedsAttention(w http.ResponseWriter, r *http.Request) {
	resp, err := s.invitations.Handler.NeedsAttentionHandler(r.Context())
	if err != nil {
		writeInvitationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeEligibilityDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, eligibilityerrors.ErrInvalidFellowInput),
		errors.Is(err, eligibilityerrors.ErrInvalidActiveWindow):
		writeEligibilityError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, eligibilityerrors.ErrFellowNotFound),
		errors.Is(err, eligibilityerrors.ErrPersonNotFound),
		errors.Is(err, eligibilityerrors.ErrManuscriptNotFound),
		errors.Is(err, eligibilityerrors.ErrPoolEntryNotFound):
		writeEligibilityError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, eligibilityerrors.ErrFellowshipExists):
		writeEligibilityError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writeEligibilityError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeNominationDomainError(w http.ResponseWriter, err error) {
	var insufficientErr *nominationerrors.InsufficientEligibleVotersError
	var cooldownErr *nominationerrors.CooldownActiveError
	var notReadyErr *nominationerrors.DecisionNotReadyError
	switch {
	case errors.As(err, &insufficientErr):
		writeNominationError(w, http.StatusUnprocessableEntity, "insufficient_eligible_voters", err.Error())
	case errors.As(err, &cooldownErr):
		writeNominationError(w, http.StatusConflict, "cooldown_active", err.Error())
	case errors.As(err, &notReadyErr):
		writeNominationError(w, http.StatusConflict, "decision_not_ready", err.Error())
	case errors.Is(err, nominationerrors.ErrInvalidNominationInput),
		errors.Is(err, nominationerrors.ErrInvalidVoteInput):
		writeNominationError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, nominationerrors.ErrNominationNotFound),
		errors.Is(err, nominationerrors.ErrRoundNotFound),
		errors.Is(err, nominationerrors.ErrVoteNotFound):
		writeNominationError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, nominationerrors.ErrNotInRoster):
		writeNominationError(w, http.StatusForbidden, "not_in_roster", err.Error())
	case errors.Is(err, nominationerrors.ErrDuplicateVote),
		errors.Is(err, nominationerrors.ErrRoundClosed),
		errors.Is(err, nominationerrors.ErrRoundNotOpenYet),
		errors.Is(err, nominationerrors.ErrOpenRoundExists),
		errors.Is(err, nominationerrors.ErrRoundDecided),
		errors.Is(err, nominationerrors.ErrRosterLocked),
		errors.Is(err, nominationerrors.ErrNominationClosed):
		writeNominationError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writeNominationError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeInvitationDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, invitationerrors.ErrInvalidInvitationInput),
		errors.Is(err, invitationerrors.ErrInvalidResponseState):
		writeInvitationError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, invitationerrors.ErrInvitationNotFound):
		writeInvitationError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, invitationerrors.ErrInvitationFinal),
		errors.Is(err, invitationerrors.ErrNominationNotElected):
		writeInvitationError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writeInvitationError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeEligibilityError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, eligibilityhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeNominationError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, nominationhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeInvitationError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, invitationhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
