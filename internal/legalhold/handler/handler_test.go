package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"veritas/internal/legalhold/service"
	"veritas/internal/legalhold/store"
	"veritas/pkg/platform/middleware/identity"
	"veritas/pkg/platform/middleware/requestid"
	"veritas/pkg/platform/middleware/requesttime"
)

func TestIssueCheckReleaseViaHandlers(t *testing.T) {
	router := newHoldRouter(t)

	issueBody, _ := json.Marshal(map[string]any{
		"caseId": "case-2026-014",
		"scope":  map[string]any{"documentIds": []string{"doc-7"}},
		"reason": "pending litigation",
	})
	issueReq := httptest.NewRequest(http.MethodPost, "/holds", bytes.NewReader(issueBody))
	issueReq.Header.Set("Content-Type", "application/json")
	issueReq.Header.Set("X-Org-ID", "org-1")
	issueReq.Header.Set("X-Actor-ID", "legal-counsel")
	issueRec := httptest.NewRecorder()
	router.ServeHTTP(issueRec, issueReq)
	if issueRec.Code != http.StatusCreated {
		t.Fatalf("expected 201 issuing hold, got %d: %s", issueRec.Code, issueRec.Body.String())
	}

	var issued struct {
		HoldID   string `json:"holdId"`
		IssuedBy string `json:"issuedBy"`
	}
	if err := json.NewDecoder(issueRec.Body).Decode(&issued); err != nil {
		t.Fatalf("failed to decode hold: %v", err)
	}
	if issued.HoldID == "" {
		t.Fatalf("expected holdId in response")
	}
	if issued.IssuedBy != "legal-counsel" {
		t.Fatalf("expected issuedBy from actor header, got %q", issued.IssuedBy)
	}

	checkBody, _ := json.Marshal(map[string]any{
		"documentId":   "doc-7",
		"category":     "contracts",
		"documentDate": time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		"action":       "delete",
	})
	checkReq := httptest.NewRequest(http.MethodPost, "/holds/check", bytes.NewReader(checkBody))
	checkReq.Header.Set("Content-Type", "application/json")
	checkReq.Header.Set("X-Org-ID", "org-1")
	checkRec := httptest.NewRecorder()
	router.ServeHTTP(checkRec, checkReq)
	if checkRec.Code != http.StatusOK {
		t.Fatalf("expected 200 checking action, got %d", checkRec.Code)
	}
	var verdict struct {
		Blocked bool   `json:"blocked"`
		HoldID  string `json:"holdId"`
	}
	if err := json.NewDecoder(checkRec.Body).Decode(&verdict); err != nil {
		t.Fatalf("failed to decode verdict: %v", err)
	}
	if !verdict.Blocked || verdict.HoldID != issued.HoldID {
		t.Fatalf("expected delete blocked by %s, got %+v", issued.HoldID, verdict)
	}

	releaseReq := httptest.NewRequest(http.MethodPost, "/holds/"+issued.HoldID+"/release", nil)
	releaseReq.Header.Set("X-Org-ID", "org-1")
	releaseRec := httptest.NewRecorder()
	router.ServeHTTP(releaseRec, releaseReq)
	if releaseRec.Code != http.StatusOK {
		t.Fatalf("expected 200 releasing hold, got %d: %s", releaseRec.Code, releaseRec.Body.String())
	}

	recheckRec := httptest.NewRecorder()
	recheckReq := httptest.NewRequest(http.MethodPost, "/holds/check", bytes.NewReader(checkBody))
	recheckReq.Header.Set("Content-Type", "application/json")
	recheckReq.Header.Set("X-Org-ID", "org-1")
	router.ServeHTTP(recheckRec, recheckReq)
	var recheck struct {
		Blocked bool `json:"blocked"`
	}
	if err := json.NewDecoder(recheckRec.Body).Decode(&recheck); err != nil {
		t.Fatalf("failed to decode recheck verdict: %v", err)
	}
	if recheck.Blocked {
		t.Fatalf("expected released hold to stop blocking")
	}
}

func TestIssueHoldRejectsEmptyScope(t *testing.T) {
	router := newHoldRouter(t)

	body, _ := json.Marshal(map[string]any{
		"caseId": "case-2026-015",
		"scope":  map[string]any{},
	})
	req := httptest.NewRequest(http.MethodPost, "/holds", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Org-ID", "org-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty scope, got %d", rec.Code)
	}
}

func newHoldRouter(t *testing.T) http.Handler {
	t.Helper()
	svc := service.New(store.NewInMemoryStore())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := New(svc, logger)
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(identity.Middleware)
	h.Register(r)
	return r
}
