package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/testops/coverage-dashboard/internal/config"
	"github.com/testops/coverage-dashboard/internal/dashboard"
	"github.com/testops/coverage-dashboard/internal/db"
	"github.com/testops/coverage-dashboard/internal/testrail"
)

type stubFetcher struct {
	cases []testrail.Case
}

func (f *stubFetcher) GetCases(ctx context.Context, projectID, suiteID int) ([]testrail.Case, error) {
	return f.cases, nil
}

func (f *stubFetcher) GetSections(ctx context.Context, projectID, suiteID int) ([]testrail.Section, error) {
	return nil, nil
}

func setupTestServer(t *testing.T) *Server {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { database.Close() })

	fetcher := &stubFetcher{cases: []testrail.Case{
		{"id": float64(1), "title": "login", "custom_epic_reference": "Auth",
			"custom_automation_status": float64(3), "custom_device": float64(1), "priority_id": float64(3)},
		{"id": float64(2), "title": "checkout", "custom_epic_reference": "Checkout",
			"custom_automation_status": float64(2), "custom_device": float64(2), "priority_id": float64(5)},
	}}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Default()
	svc := dashboard.NewService(cfg, fetcher, database, logger)
	return New(cfg, svc, database, nil, ":0", logger)
}

func TestHealthEndpoint(t *testing.T) {
	srv := setupTestServer(t)
	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]string
	json.NewDecoder(w.Body).Decode(&resp)
	if resp["status"] != "healthy" {
		t.Errorf("status: got %q, want healthy", resp["status"])
	}
}

func TestConfigEndpoint(t *testing.T) {
	srv := setupTestServer(t)
	req := httptest.NewRequest("GET", "/api/v1/config", nil)
	w := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}

	var resp struct {
		App           string   `json:"app"`
		BusinessUnits []string `json:"business_units"`
	}
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.App != config.AppName {
		t.Errorf("app: got %q", resp.App)
	}
	if len(resp.BusinessUnits) != 9 {
		t.Errorf("business units: got %d, want 9", len(resp.BusinessUnits))
	}
}

func TestCoverageEndpoint(t *testing.T) {
	srv := setupTestServer(t)
	req := httptest.NewRequest("GET", "/api/v1/coverage/Kruidvat", nil)
	w := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}

	var report dashboard.Report
	json.NewDecoder(w.Body).Decode(&report)
	if report.BusinessUnit != "Kruidvat" {
		t.Errorf("business unit: got %q", report.BusinessUnit)
	}
	if report.Overall.Total != 2 || report.Overall.Automated != 1 {
		t.Errorf("overall: total=%d automated=%d", report.Overall.Total, report.Overall.Automated)
	}

	// A fresh fetch also records a history snapshot.
	req = httptest.NewRequest("GET", "/api/v1/coverage/Kruidvat/history", nil)
	w = httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("history status: got %d", w.Code)
	}
	var snaps []db.Snapshot
	json.NewDecoder(w.Body).Decode(&snaps)
	if len(snaps) != 1 {
		t.Errorf("snapshot count: got %d, want 1", len(snaps))
	}
}

func TestCoverageUnknownUnit(t *testing.T) {
	srv := setupTestServer(t)
	req := httptest.NewRequest("GET", "/api/v1/coverage/Nope", nil)
	w := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestCoverageFiltered(t *testing.T) {
	srv := setupTestServer(t)
	req := httptest.NewRequest("GET", "/api/v1/coverage/Kruidvat?device=Desktop", nil)
	w := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(w, req)

	var report dashboard.Report
	json.NewDecoder(w.Body).Decode(&report)
	if report.Overall.Total != 1 {
		t.Errorf("filtered total: got %d, want 1", report.Overall.Total)
	}
}

func TestEpicsEndpoint(t *testing.T) {
	srv := setupTestServer(t)
	req := httptest.NewRequest("GET", "/api/v1/coverage/Kruidvat/epics?epic_search=auth", nil)
	w := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}

	var resp struct {
		Epics []struct {
			Epic string `json:"epic"`
		} `json:"epics"`
	}
	json.NewDecoder(w.Body).Decode(&resp)
	if len(resp.Epics) != 1 || resp.Epics[0].Epic != "Auth" {
		t.Errorf("epics: %+v", resp.Epics)
	}
}

func TestRecordsEndpoint(t *testing.T) {
	srv := setupTestServer(t)
	req := httptest.NewRequest("GET", "/api/v1/coverage/Kruidvat/records", nil)
	w := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}

	var records []map[string]any
	json.NewDecoder(w.Body).Decode(&records)
	if len(records) != 2 {
		t.Errorf("record count: got %d, want 2", len(records))
	}
}

func TestExportCSV(t *testing.T) {
	srv := setupTestServer(t)
	req := httptest.NewRequest("GET", "/api/v1/coverage/Kruidvat/export?format=csv", nil)
	w := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("content type: got %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "complete_Kruidvat_") {
		t.Errorf("content disposition: got %q", cd)
	}

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) != 3 {
		t.Errorf("csv lines: got %d, want 3", len(lines))
	}
}

func TestExportXLSX(t *testing.T) {
	srv := setupTestServer(t)
	req := httptest.NewRequest("GET", "/api/v1/coverage/Kruidvat/export?format=xlsx&type=epic", nil)
	w := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("content type: got %q", ct)
	}
	if w.Body.Len() == 0 {
		t.Error("empty workbook body")
	}
}

func TestExportBadFormat(t *testing.T) {
	srv := setupTestServer(t)
	req := httptest.NewRequest("GET", "/api/v1/coverage/Kruidvat/export?format=pdf", nil)
	w := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestClearCacheEndpoint(t *testing.T) {
	srv := setupTestServer(t)
	req := httptest.NewRequest("POST", "/api/v1/cache/clear", nil)
	w := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var resp map[string]string
	json.NewDecoder(w.Body).Decode(&resp)
	if resp["status"] != "cleared" {
		t.Errorf("status: got %q", resp["status"])
	}
}

func TestDashboardPage(t *testing.T) {
	srv := setupTestServer(t)
	req := httptest.NewRequest("GET", "/?bu=Kruidvat", nil)
	w := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Kruidvat") {
		t.Error("page should name the selected business unit")
	}
	if !strings.Contains(body, "Auth") {
		t.Error("page should list the Auth epic")
	}
}
