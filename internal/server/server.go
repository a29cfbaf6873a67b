// Package server exposes the refinement core over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/minjaelab/prompter/internal"
	"github.com/minjaelab/prompter/internal/prompter"
	"github.com/minjaelab/prompter/internal/store"
	"github.com/minjaelab/prompter/internal/validator"
	"github.com/minjaelab/prompter/internal/verifier"
)

type refineRequest struct {
	UserQuery string `json:"user_query"`
}

type refineResponse struct {
	EnhancedEngPrompt  string           `json:"enhanced_eng_prompt"`
	BackTranslationKor string           `json:"back_translation_kor"`
	Fidelity           *verifier.Report `json:"fidelity,omitempty"`
}

type errorResponse struct {
	Error     string `json:"error"`
	ErrorType string `json:"error_type"`
}

// Server wires the refinement core to its optional collaborators. A nil
// store disables the refinement memory and a nil verifier disables the
// fidelity cross-check.
type Server struct {
	prompter  *prompter.Prompter
	store     *store.Store
	verifier  *verifier.GoogleVerifier
	validator *validator.Validator
	log       *slog.Logger
}

func New(p *prompter.Prompter, db *store.Store, v *verifier.GoogleVerifier, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		prompter:  p,
		store:     db,
		verifier:  v,
		validator: validator.New(),
		log:       log,
	}
}

// Handler returns the route table wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/refine", s.handleRefine)
	mux.HandleFunc("/healthz", s.handleHealthz)
	return s.logRequests(mux)
}

func (s *Server) handleRefine(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "bad_request")
		return
	}

	var payload refineRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be JSON with a user_query string", "bad_request")
		return
	}

	ctx := r.Context()

	// The memory is keyed by the normalized query; a hit skips the
	// upstream call entirely.
	if s.store != nil {
		if eng, kor, found, err := s.store.GetCached(ctx, payload.UserQuery); err != nil {
			s.log.Warn("refinement memory lookup failed", "error", err)
		} else if found {
			s.log.Info("refinement served from memory", "query_len", len(payload.UserQuery))
			writeJSON(w, http.StatusOK, refineResponse{
				EnhancedEngPrompt:  eng,
				BackTranslationKor: kor,
			})
			return
		}
	}

	ref, err := s.prompter.Refine(ctx, payload.UserQuery)
	if err != nil {
		status, errType := classify(err)
		s.log.Error("refinement failed", "error", err, "error_type", errType)
		writeError(w, status, err.Error(), errType)
		return
	}

	// Advisory only: short queries routinely defeat statistical language
	// detection, so a mismatch is logged rather than failed.
	for _, verr := range s.validator.CheckRefinement(ref.EnhancedEngPrompt, ref.BackTranslationKor) {
		s.log.Warn("language validation mismatch", "error", verr)
	}

	resp := refineResponse{
		EnhancedEngPrompt:  ref.EnhancedEngPrompt,
		BackTranslationKor: ref.BackTranslationKor,
	}

	if s.verifier != nil {
		report, verr := s.verifier.Verify(ctx, ref.EnhancedEngPrompt, ref.BackTranslationKor)
		if verr != nil {
			s.log.Warn("fidelity verification failed", "error", verr)
		} else {
			resp.Fidelity = report
		}
	}

	if s.store != nil {
		reqID := uuid.New().String()
		record := internal.RefinementRequest{
			ID:        reqID,
			UserQuery: payload.UserQuery,
			Timestamp: time.Now(),
		}
		// Persistence is best-effort: a broken database must not fail a
		// refinement that already succeeded upstream.
		if err := s.store.SaveRequest(ctx, record); err != nil {
			s.log.Warn("failed to save request", "error", err)
		}
		if err := s.store.SaveRefinement(ctx, reqID, ref.Provider, ref.EnhancedEngPrompt, ref.BackTranslationKor, ref.Model, int(ref.Latency.Milliseconds()), ""); err != nil {
			s.log.Warn("failed to save refinement", "error", err)
		}
		if err := s.store.SaveToMemory(ctx, payload.UserQuery, ref.EnhancedEngPrompt, ref.BackTranslationKor, ref.Provider); err != nil {
			s.log.Warn("failed to update refinement memory", "error", err)
		}
	}

	s.log.Info("refinement complete",
		"provider", ref.Provider,
		"model", ref.Model,
		"latency_ms", ref.Latency.Milliseconds())

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := s.prompter.IsAvailable(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"provider": s.prompter.ProviderName(),
	})
}

// classify maps the refinement error taxonomy onto HTTP status codes:
// unreachable upstream 503, garbage content 502, parseable-but-incomplete
// content 422.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, prompter.ErrUpstreamUnreachable):
		return http.StatusServiceUnavailable, "upstream_unreachable"
	case errors.Is(err, prompter.ErrUpstreamMalformed):
		return http.StatusBadGateway, "upstream_malformed"
	case errors.Is(err, prompter.ErrUpstreamIncomplete):
		return http.StatusUnprocessableEntity, "upstream_incomplete"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, errType string) {
	writeJSON(w, status, errorResponse{Error: msg, ErrorType: errType})
}

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds())
	})
}
