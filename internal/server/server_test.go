package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/minjaelab/prompter/internal/prompter"
	"github.com/minjaelab/prompter/internal/provider"
	"github.com/minjaelab/prompter/internal/store"
)

// stubProvider returns a canned result or error and counts calls.
type stubProvider struct {
	content string
	err     error
	calls   int
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Complete(ctx context.Context, cfg provider.Config, req provider.CompletionRequest) (*provider.Result, error) {
	s.calls++
	if s.err != nil {
		return &provider.Result{ProviderName: s.Name(), Error: s.err.Error()}, s.err
	}
	return &provider.Result{
		ProviderName: s.Name(),
		Content:      s.content,
		Metadata:     map[string]string{"model": "stub-model"},
	}, nil
}

func (s *stubProvider) IsAvailable(ctx context.Context) error { return s.err }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, stub *stubProvider, db *store.Store) http.Handler {
	t.Helper()
	p := prompter.New(stub, provider.Config{Temperature: 0.3})
	return New(p, db, nil, quietLogger()).Handler()
}

func postRefine(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/refine", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestHandleRefine_Success(t *testing.T) {
	stub := &stubProvider{
		content: `{"enhanced_eng_prompt": "Plan a 5-day trip to ...", "back_translation_kor": "5일간의 여행 계획을 ..."}`,
	}
	handler := newTestServer(t, stub, nil)

	rr := postRefine(t, handler, `{"user_query": "여행 계획 짜줘"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		EnhancedEngPrompt  string `json:"enhanced_eng_prompt"`
		BackTranslationKor string `json:"back_translation_kor"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.EnhancedEngPrompt != "Plan a 5-day trip to ..." {
		t.Errorf("enhanced prompt not passed through verbatim: %q", resp.EnhancedEngPrompt)
	}
	if resp.BackTranslationKor != "5일간의 여행 계획을 ..." {
		t.Errorf("back-translation not passed through verbatim: %q", resp.BackTranslationKor)
	}
}

func TestHandleRefine_UpstreamUnreachable(t *testing.T) {
	stub := &stubProvider{err: fmt.Errorf("connection refused")}
	handler := newTestServer(t, stub, nil)

	rr := postRefine(t, handler, `{"user_query": "여행 계획 짜줘"}`)

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rr.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if resp.ErrorType != "upstream_unreachable" {
		t.Errorf("expected error_type upstream_unreachable, got %q", resp.ErrorType)
	}
	if resp.Error == "" {
		t.Error("expected non-empty error message")
	}
}

func TestHandleRefine_UpstreamMalformed(t *testing.T) {
	stub := &stubProvider{content: "not json at all"}
	handler := newTestServer(t, stub, nil)

	rr := postRefine(t, handler, `{"user_query": "여행 계획 짜줘"}`)

	if rr.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", rr.Code)
	}
	var resp errorResponse
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.ErrorType != "upstream_malformed" {
		t.Errorf("expected error_type upstream_malformed, got %q", resp.ErrorType)
	}
}

func TestHandleRefine_UpstreamIncomplete(t *testing.T) {
	// Valid JSON but missing back_translation_kor must fail closed, not
	// produce a half-empty success response.
	stub := &stubProvider{content: `{"enhanced_eng_prompt": "Plan a trip"}`}
	handler := newTestServer(t, stub, nil)

	rr := postRefine(t, handler, `{"user_query": "여행 계획 짜줘"}`)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", rr.Code)
	}
	var resp errorResponse
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.ErrorType != "upstream_incomplete" {
		t.Errorf("expected error_type upstream_incomplete, got %q", resp.ErrorType)
	}
}

func TestHandleRefine_BadRequestBody(t *testing.T) {
	stub := &stubProvider{}
	handler := newTestServer(t, stub, nil)

	rr := postRefine(t, handler, `{"user_query": 42}`)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
	if stub.calls != 0 {
		t.Errorf("provider must not be called for a bad request, got %d calls", stub.calls)
	}
}

func TestHandleRefine_MethodNotAllowed(t *testing.T) {
	handler := newTestServer(t, &stubProvider{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/refine", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rr.Code)
	}
}

func TestHandleRefine_MemoryHitSkipsUpstream(t *testing.T) {
	db, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer db.Close()

	stub := &stubProvider{
		content: `{"enhanced_eng_prompt": "Plan a trip", "back_translation_kor": "여행 계획을 세워 주세요"}`,
	}
	handler := newTestServer(t, stub, db)

	rr := postRefine(t, handler, `{"user_query": "여행 계획 짜줘"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("first request failed: %d", rr.Code)
	}
	if stub.calls != 1 {
		t.Fatalf("expected 1 upstream call, got %d", stub.calls)
	}

	rr = postRefine(t, handler, `{"user_query": "여행 계획 짜줘"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("second request failed: %d", rr.Code)
	}
	if stub.calls != 1 {
		t.Errorf("expected memory hit to skip upstream, got %d calls", stub.calls)
	}

	var resp refineResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode cached response: %v", err)
	}
	if resp.EnhancedEngPrompt != "Plan a trip" {
		t.Errorf("unexpected cached enhanced prompt: %q", resp.EnhancedEngPrompt)
	}
}

func TestHandleRefine_StoreFailureIsLoggedNotFatal(t *testing.T) {
	db, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	// Closing up front makes every store call fail from here on.
	db.Close()

	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))

	stub := &stubProvider{
		content: `{"enhanced_eng_prompt": "Plan a trip", "back_translation_kor": "여행 계획을 세워 주세요"}`,
	}
	p := prompter.New(stub, provider.Config{Temperature: 0.3})
	handler := New(p, db, nil, logger).Handler()

	rr := postRefine(t, handler, `{"user_query": "여행 계획 짜줘"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("store failure must not fail the refinement, got %d: %s", rr.Code, rr.Body.String())
	}
	if stub.calls != 1 {
		t.Errorf("expected upstream call despite broken memory, got %d calls", stub.calls)
	}

	logged := logBuf.String()
	for _, want := range []string{
		"refinement memory lookup failed",
		"failed to save request",
		"failed to save refinement",
		"failed to update refinement memory",
	} {
		if !strings.Contains(logged, want) {
			t.Errorf("expected log to contain %q, got:\n%s", want, logged)
		}
	}
}

func TestHandleHealthz(t *testing.T) {
	handler := newTestServer(t, &stubProvider{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rr.Code)
	}
}

func TestHandleHealthz_Unavailable(t *testing.T) {
	handler := newTestServer(t, &stubProvider{err: fmt.Errorf("no API key")}, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rr.Code)
	}
}
