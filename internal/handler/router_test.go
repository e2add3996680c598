package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/flipfolio/flipfolio-api-go/internal/config"
	"github.com/flipfolio/flipfolio-api-go/internal/domain"
	"github.com/flipfolio/flipfolio-api-go/internal/handler"
	"github.com/flipfolio/flipfolio-api-go/internal/infra/observability"
	"github.com/flipfolio/flipfolio-api-go/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

func devConfig() *config.Config {
	return &config.Config{
		CORSOrigins: []string{"*"},
		DevAuth:     true,
		DevUserID:   "test-user",
	}
}

// draftWriterStub counts draft writes reaching the store.
type draftWriterStub struct {
	mu    sync.Mutex
	saves int
}

func (d *draftWriterStub) SaveJournalDraft(_ context.Context, _, _ string, _ map[string]any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.saves++
	return nil
}

func (d *draftWriterStub) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.saves
}

func TestHealthz(t *testing.T) {
	router := handler.NewRouter(devConfig(), nil, handler.Services{}, observability.NewMetrics(), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestReadyz(t *testing.T) {
	router := handler.NewRouter(devConfig(), nil, handler.Services{}, observability.NewMetrics(), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMetrics(t *testing.T) {
	router := handler.NewRouter(devConfig(), nil, handler.Services{}, observability.NewMetrics(), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestV1RequiresToken(t *testing.T) {
	cfg := &config.Config{
		CORSOrigins:       []string{"*"},
		SupabaseJWTSecret: "router-test-secret",
	}
	router := handler.NewRouter(cfg, nil, handler.Services{}, observability.NewMetrics(), zap.NewNop())

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic abc123"},
		{"garbage token", "Bearer not.a.jwt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/projects", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestV1AcceptsSignedToken(t *testing.T) {
	secret := "router-test-secret"
	cfg := &config.Config{
		CORSOrigins:       []string{"*"},
		SupabaseJWTSecret: secret,
	}
	metrics := observability.NewMetrics()
	saver := service.NewAutosaver(&draftWriterStub{}, metrics, zap.NewNop(), time.Hour, 30*time.Minute)
	router := handler.NewRouter(cfg, nil, handler.Services{Autosave: saver}, metrics, zap.NewNop())

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/journal/page-1/draft", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var state domain.DraftState
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.PageID != "page-1" {
		t.Errorf("expected page-1, got %q", state.PageID)
	}
}

func TestDraftFlowThroughRouter(t *testing.T) {
	writer := &draftWriterStub{}
	metrics := observability.NewMetrics()
	saver := service.NewAutosaver(writer, metrics, zap.NewNop(), time.Hour, 30*time.Minute)
	router := handler.NewRouter(devConfig(), nil, handler.Services{Autosave: saver}, metrics, zap.NewNop())

	// Buffer an edit.
	body := strings.NewReader(`{"fields":{"content":"hello"}}`)
	req := httptest.NewRequest(http.MethodPut, "/v1/journal/page-1/draft", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("put draft: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var state domain.DraftState
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if !state.HasUnsavedChanges {
		t.Error("expected unsaved changes after the edit")
	}
	if writer.count() != 0 {
		t.Errorf("buffering must not write, got %d writes", writer.count())
	}

	// Blur forces the write out.
	req = httptest.NewRequest(http.MethodPost, "/v1/journal/page-1/draft/flush", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("flush: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.HasUnsavedChanges {
		t.Error("expected a clean session after flush")
	}
	if writer.count() != 1 {
		t.Errorf("expected exactly 1 write, got %d", writer.count())
	}

	// The autosave metrics endpoint sees the written flush.
	req = httptest.NewRequest(http.MethodGet, "/v1/metrics/autosave", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", rec.Code)
	}
	var snapshot domain.AutosaveMetrics
	if err := json.Unmarshal(rec.Body.Bytes(), &snapshot); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snapshot.FlushesTotal < 1 {
		t.Errorf("expected at least 1 flush in the snapshot, got %d", snapshot.FlushesTotal)
	}

	// Teardown drops the session without another write.
	req = httptest.NewRequest(http.MethodDelete, "/v1/journal/page-1/draft", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("close draft: expected 204, got %d", rec.Code)
	}
	if saver.Sessions() != 0 {
		t.Errorf("expected 0 sessions after teardown, got %d", saver.Sessions())
	}
	if writer.count() != 1 {
		t.Errorf("teardown must not write, got %d writes", writer.count())
	}
}
