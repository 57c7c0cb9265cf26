package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"stagegate/internal/api"
	"stagegate/internal/config"
	"stagegate/internal/identity"
	"stagegate/internal/logging"
	"stagegate/internal/tracker"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, nil
	}
	bind := strings.TrimSpace(cfg.API.Bind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:   bind,
		logger: logger,
		daemon: d,
	}

	token := strings.TrimSpace(cfg.API.Token)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", authMiddleware(token, srv.handleStatus))
	mux.HandleFunc("/api/stages", authMiddleware(token, srv.handleStages))
	mux.HandleFunc("/api/loans", authMiddleware(token, srv.handleLoans))
	mux.HandleFunc("/api/loans/", authMiddleware(token, srv.handleLoanSubtree))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// Handler exposes the configured mux for tests.
func (s *apiServer) handler() http.Handler {
	if s == nil || s.server == nil {
		return nil
	}
	return s.server.Handler
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	payload := api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		DatabasePath: status.DatabasePath,
		LockFilePath: status.LockFilePath,
		StageCounts:  status.StageCounts,
		Store:        api.FromHealth(status.Store),
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleStages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, api.StageListResponse{Stages: api.FromCatalog(s.daemon.catalog)})
}

func (s *apiServer) handleLoans(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listLoans(w, r)
	case http.MethodPost:
		s.createLoan(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) listLoans(w http.ResponseWriter, r *http.Request) {
	var stageIDs []string
	for _, value := range r.URL.Query()["stage"] {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			stageIDs = append(stageIDs, trimmed)
		}
	}
	loans, err := s.daemon.Service().List(r.Context(), stageIDs...)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.LoanListResponse{Loans: loans})
}

func (s *apiServer) createLoan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		api.CreateLoanRequest
		Actor api.ActorRef `json:"actor"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	created, err := s.daemon.Service().Create(r.Context(), req.Actor.ToActor(), req.CreateLoanRequest)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, api.LoanResponse{Loan: *created})
}

// handleLoanSubtree routes /api/loans/{id}, /api/loans/{id}/advance, and
// /api/loans/{id}/signals.
func (s *apiServer) handleLoanSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/loans/")
	if rest == "" {
		s.writeError(w, http.StatusNotFound, "loan not found")
		return
	}
	loanID, action, _ := strings.Cut(rest, "/")
	if loanID == "" || strings.Contains(action, "/") {
		s.writeError(w, http.StatusNotFound, "loan not found")
		return
	}

	switch action {
	case "":
		s.describeLoan(w, r, loanID)
	case "advance":
		s.advanceLoan(w, r, loanID)
	case "signals":
		s.recordSignal(w, r, loanID)
	default:
		s.writeError(w, http.StatusNotFound, "loan not found")
	}
}

func (s *apiServer) describeLoan(w http.ResponseWriter, r *http.Request, loanID string) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	view, err := s.daemon.Service().Describe(r.Context(), loanID, actorFromQuery(r))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if view == nil {
		s.writeError(w, http.StatusNotFound, "loan not found")
		return
	}
	s.writeJSON(w, http.StatusOK, api.LoanViewResponse{View: *view})
}

func (s *apiServer) advanceLoan(w http.ResponseWriter, r *http.Request, loanID string) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.AdvanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	updated, err := s.daemon.Service().Advance(r.Context(), loanID, req.Actor.ToActor())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.LoanResponse{Loan: *updated})
}

func (s *apiServer) recordSignal(w http.ResponseWriter, r *http.Request, loanID string) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.SignalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.daemon.Service().RecordSignal(r.Context(), loanID, req.Actor.ToActor(), req); err != nil {
		s.writeServiceError(w, err)
		return
	}
	signals, err := s.daemon.Service().Signals(r.Context(), loanID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.SignalListResponse{Signals: signals})
}

// writeServiceError maps the tracker and service error taxonomy onto HTTP
// status codes.
func (s *apiServer) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tracker.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, tracker.ErrForbidden):
		s.writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, tracker.ErrAlreadyComplete), errors.Is(err, tracker.ErrConflict):
		s.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, tracker.ErrIncompleteSubtasks):
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, api.ErrInvalidArgument):
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func actorFromQuery(r *http.Request) identity.Actor {
	query := r.URL.Query()
	actor := identity.Actor{ID: strings.TrimSpace(query.Get("actor"))}
	for _, role := range query["role"] {
		trimmed := strings.TrimSpace(role)
		if trimmed != "" {
			actor.Roles = append(actor.Roles, trimmed)
		}
	}
	return actor
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return logging.WithComponent(s.logger, "api-server")
	}
	return logging.NewNop()
}
