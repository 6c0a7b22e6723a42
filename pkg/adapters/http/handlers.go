package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/aretw0/brokerdesk/pkg/clients"
	"github.com/aretw0/brokerdesk/pkg/domain"
	"github.com/go-chi/chi/v5"
)

// MoveRequest is the body of POST .../move.
type MoveRequest struct {
	Stage domain.Stage `json:"stage"`
}

// BulkMoveRequest is the body of POST .../clients/bulk-move.
type BulkMoveRequest struct {
	ClientIDs []string     `json:"clientIds"`
	Stage     domain.Stage `json:"stage"`
}

// AssignPipelineRequest is the body of POST .../pipeline.
type AssignPipelineRequest struct {
	PipelineID string `json:"pipelineId"`
}

// NoteRequest is the body of POST .../notes.
type NoteRequest struct {
	Content string          `json:"content"`
	Type    domain.NoteType `json:"type"`
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "brokerdesk-http",
		"version":     s.version,
		"api_version": specVersion(),
	})
}

func (s *Server) ListPipelines(w http.ResponseWriter, r *http.Request) {
	list := s.pipeline.Registry().List()
	out := make([]domain.CustomPipeline, 0, len(list))
	for _, p := range list {
		out = append(out, p.Definition)
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) ListStages(w http.ResponseWriter, r *http.Request) {
	p, err := s.pipeline.Registry().Resolve(chi.URLParam(r, "pipelineID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p.Graph.AllStages())
}

func (s *Server) CreateClient(w http.ResponseWriter, r *http.Request) {
	var in clients.CreateInput
	if !s.decode(w, r, &in) {
		return
	}
	c, err := s.clients.Create(r.Context(), chi.URLParam(r, "orgID"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, c)
}

func (s *Server) ListClients(w http.ResponseWriter, r *http.Request) {
	archived, _ := strconv.ParseBool(r.URL.Query().Get("archived"))
	list, err := s.clients.List(r.Context(), chi.URLParam(r, "orgID"), archived)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) GetClient(w http.ResponseWriter, r *http.Request) {
	c, err := s.clients.Get(r.Context(), chi.URLParam(r, "orgID"), chi.URLParam(r, "clientID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, c)
}

func (s *Server) UpdateClient(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if !s.decode(w, r, &patch) {
		return
	}
	c, err := s.clients.Update(r.Context(), chi.URLParam(r, "orgID"), chi.URLParam(r, "clientID"), patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, c)
}

func (s *Server) MoveClient(w http.ResponseWriter, r *http.Request) {
	var body MoveRequest
	if !s.decode(w, r, &body) {
		return
	}
	c, err := s.pipeline.MoveClientToStage(r.Context(), chi.URLParam(r, "orgID"), chi.URLParam(r, "clientID"), body.Stage)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, c)
}

func (s *Server) AssignPipeline(w http.ResponseWriter, r *http.Request) {
	var body AssignPipelineRequest
	if !s.decode(w, r, &body) {
		return
	}
	c, err := s.pipeline.AssignPipeline(r.Context(), chi.URLParam(r, "orgID"), chi.URLParam(r, "clientID"), body.PipelineID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, c)
}

// BulkMove always answers 200; per-client failures are part of the result.
func (s *Server) BulkMove(w http.ResponseWriter, r *http.Request) {
	var body BulkMoveRequest
	if !s.decode(w, r, &body) {
		return
	}
	res := s.pipeline.BulkMove(r.Context(), chi.URLParam(r, "orgID"), body.ClientIDs, body.Stage)
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) ArchiveClient(w http.ResponseWriter, r *http.Request) {
	c, err := s.clients.Archive(r.Context(), chi.URLParam(r, "orgID"), chi.URLParam(r, "clientID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, c)
}

func (s *Server) UnarchiveClient(w http.ResponseWriter, r *http.Request) {
	c, err := s.clients.Unarchive(r.Context(), chi.URLParam(r, "orgID"), chi.URLParam(r, "clientID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, c)
}

func (s *Server) AddNote(w http.ResponseWriter, r *http.Request) {
	var body NoteRequest
	if !s.decode(w, r, &body) {
		return
	}
	if body.Type == "" {
		body.Type = domain.NoteGeneral
	}
	c, err := s.clients.AddNote(r.Context(), chi.URLParam(r, "orgID"), chi.URLParam(r, "clientID"), body.Content, body.Type)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, c)
}

func (s *Server) GetBoard(w http.ResponseWriter, r *http.Request) {
	b, err := s.clients.Board(r.Context(), chi.URLParam(r, "orgID"), r.URL.Query().Get("pipelineId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, b)
}

func (s *Server) GetStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.clients.Statistics(r.Context(), chi.URLParam(r, "orgID"), r.URL.Query().Get("pipelineId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) GetDashboard(w http.ResponseWriter, r *http.Request) {
	if s.dashboard == nil {
		http.Error(w, "dashboard not configured", http.StatusNotImplemented)
		return
	}
	m, err := s.dashboard.Metrics(r.Context(), chi.URLParam(r, "orgID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, m)
}

// ErrorResponse is the body of every non-2xx JSON answer.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// StatusFor maps domain errors to HTTP status codes and stable codes.
// InvalidStage is checked first because a TransitionError can carry it.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidStage):
		return http.StatusBadRequest, "invalid_stage"
	case errors.Is(err, domain.ErrImmutableField):
		return http.StatusBadRequest, "immutable_field"
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, domain.ErrClientNotFound):
		return http.StatusNotFound, "client_not_found"
	case errors.Is(err, domain.ErrPipelineNotFound):
		return http.StatusNotFound, "pipeline_not_found"
	case errors.Is(err, domain.ErrOrganizationNotFound):
		return http.StatusNotFound, "organization_not_found"
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "user_not_found"
	case errors.Is(err, domain.ErrInviteInvalid):
		return http.StatusGone, "invite_invalid"
	case errors.Is(err, domain.ErrIllegalTransition):
		return http.StatusConflict, "illegal_transition"
	case errors.Is(err, domain.ErrConcurrentModification):
		return http.StatusConflict, "concurrent_modification"
	case errors.Is(err, domain.ErrPermissionDenied):
		return http.StatusForbidden, "permission_denied"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		msg = "internal error"
	} else {
		s.logger.DebugContext(r.Context(), "request rejected", "path", r.URL.Path, "code", code, "error", err)
	}
	s.writeJSON(w, status, ErrorResponse{Error: msg, Code: code})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: fmt.Sprintf("invalid request body: %v", err),
			Code:  "invalid_body",
		})
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}
