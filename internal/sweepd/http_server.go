package sweepd

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/GoSim-25-26J-441/hpsweep/pkg/logger"
	"github.com/GoSim-25-26J-441/hpsweep/pkg/models"
)

type HTTPServer struct {
	mux      *http.ServeMux
	store    *RunStore
	Executor *Executor
	limiter  *rate.Limiter
}

// HTTPOption configures an HTTPServer
type HTTPOption func(*HTTPServer)

// WithRateLimit allows rps requests per second with the given burst across
// every route except /healthz. rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) HTTPOption {
	return func(s *HTTPServer) {
		if rps <= 0 {
			s.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func NewHTTPServer(store *RunStore, executor *Executor, opts ...HTTPOption) *HTTPServer {
	s := &HTTPServer{
		mux:      http.NewServeMux(),
		store:    store,
		Executor: executor,
	}
	for _, o := range opts {
		o(s)
	}

	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.HandleFunc("/v1/sweeps", s.handleSweeps)
	s.mux.HandleFunc("/v1/sweeps/", s.handleSweepByID)

	return s
}

func (s *HTTPServer) Handler() http.Handler {
	if s.limiter == nil {
		return s.mux
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" && !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			s.writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		s.mux.ServeHTTP(w, r)
	})
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleSweeps handles /v1/sweeps
func (s *HTTPServer) handleSweeps(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateSweep(w, r)
	case http.MethodGet:
		s.handleListSweeps(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleSweepByID handles /v1/sweeps/{id}, {id}:start, {id}:stop and {id}/trials
func (s *HTTPServer) handleSweepByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/sweeps/")
	if path == "" {
		s.writeError(w, http.StatusBadRequest, "sweep ID is required")
		return
	}

	route := func(suffix, method string, h func(http.ResponseWriter, *http.Request, string)) bool {
		if !strings.HasSuffix(path, suffix) {
			return false
		}
		if r.Method != method {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return true
		}
		h(w, r, strings.TrimSuffix(path, suffix))
		return true
	}

	switch {
	case route(":start", http.MethodPost, s.handleStartSweep):
	case route(":stop", http.MethodPost, s.handleStopSweep):
	case route("/trials", http.MethodGet, s.handleTrials):
	case r.Method == http.MethodGet:
		s.handleGetSweep(w, r, path)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleCreateSweep handles POST /v1/sweeps
func (s *HTTPServer) handleCreateSweep(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SweepID string `json:"sweep_id,omitempty"`
		SweepInput
		Start bool `json:"start,omitempty"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.ExperimentYAML) == "" {
		s.writeError(w, http.StatusBadRequest, "experiment_yaml is required")
		return
	}

	sw, err := s.store.Create(req.SweepID, req.SweepInput)
	if err != nil {
		s.writeError(w, statusForError(err), err.Error())
		return
	}
	logger.Info("sweep created (HTTP)", "sweep_id", sw.ID)

	if req.Start {
		if sw, err = s.Executor.Start(sw.ID); err != nil {
			s.writeError(w, statusForError(err), err.Error())
			return
		}
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{"sweep": sw})
}

// handleListSweeps handles GET /v1/sweeps?limit=&offset=&status=
func (s *HTTPServer) handleListSweeps(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = min(parsed, 1000)
		}
	}
	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	status := models.SweepStatus(strings.ToLower(r.URL.Query().Get("status")))

	sweeps := s.store.List(limit, offset, status)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"sweeps": sweeps,
		"pagination": map[string]any{
			"limit":  limit,
			"offset": offset,
			"count":  len(sweeps),
		},
	})
}

// handleGetSweep handles GET /v1/sweeps/{id}
func (s *HTTPServer) handleGetSweep(w http.ResponseWriter, _ *http.Request, sweepID string) {
	sw, ok := s.store.Get(sweepID)
	if !ok {
		s.writeError(w, http.StatusNotFound, "sweep not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"sweep": sw})
}

// handleStartSweep handles POST /v1/sweeps/{id}:start
func (s *HTTPServer) handleStartSweep(w http.ResponseWriter, _ *http.Request, sweepID string) {
	sw, err := s.Executor.Start(sweepID)
	if err != nil {
		s.writeError(w, statusForError(err), err.Error())
		return
	}
	logger.Info("sweep started (HTTP)", "sweep_id", sweepID)
	s.writeJSON(w, http.StatusOK, map[string]any{"sweep": sw})
}

// handleStopSweep handles POST /v1/sweeps/{id}:stop
func (s *HTTPServer) handleStopSweep(w http.ResponseWriter, _ *http.Request, sweepID string) {
	sw, err := s.Executor.Stop(sweepID)
	if err != nil {
		s.writeError(w, statusForError(err), err.Error())
		return
	}
	logger.Info("sweep cancelled (HTTP)", "sweep_id", sweepID)
	s.writeJSON(w, http.StatusOK, map[string]any{"sweep": sw})
}

// handleTrials handles GET /v1/sweeps/{id}/trials?model=
func (s *HTTPServer) handleTrials(w http.ResponseWriter, r *http.Request, sweepID string) {
	if _, ok := s.store.Get(sweepID); !ok {
		s.writeError(w, http.StatusNotFound, "sweep not found")
		return
	}
	report, ok := s.store.Report(sweepID)
	if !ok {
		s.writeError(w, http.StatusPreconditionFailed, "trials not available")
		return
	}

	summaries := report.Summaries(true)
	if name := r.URL.Query().Get("model"); name != "" {
		m, ok := report.Model(name)
		if !ok {
			s.writeError(w, http.StatusNotFound, "model not found: "+name)
			return
		}
		summaries = []models.ModelSummary{m.Summary(true)}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"sweep_id": sweepID,
		"models":   summaries,
	})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, ErrSweepNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrSweepExists), errors.Is(err, ErrSweepTerminal):
		return http.StatusConflict
	case errors.Is(err, ErrSweepIDMissing), errors.Is(err, ErrInvalidSweepID), errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

func (s *HTTPServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]any{
		"error": message,
	})
}
