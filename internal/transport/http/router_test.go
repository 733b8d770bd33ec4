package httptransport

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	ledgerhandler "veritas/internal/ledger/handler"
	"veritas/internal/ledger/service"
	"veritas/internal/ledger/store"
	"veritas/pkg/platform/middleware/requestid"
)

func TestHealthEndpoint(t *testing.T) {
	router := NewRouter()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from healthz, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode health body: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("expected ok status, got %q", body["status"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := NewRouter()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from metrics, got %d", rec.Code)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ledgerH := ledgerhandler.New(service.New(store.NewInMemoryStore()), logger, nil)
	router := NewRouter(ledgerH)

	req := httptest.NewRequest(http.MethodGet, "/v1/ledger/chain", nil)
	req.Header.Set(requestid.Header, "req-abc")
	req.Header.Set("X-Org-ID", "org-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from mounted handler, got %d", rec.Code)
	}
	if got := rec.Header().Get(requestid.Header); got != "req-abc" {
		t.Fatalf("expected request id echoed, got %q", got)
	}
}
