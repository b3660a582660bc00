package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/testops/coverage-dashboard/internal/config"
	"github.com/testops/coverage-dashboard/internal/dashboard"
	"github.com/testops/coverage-dashboard/internal/export"
	"github.com/testops/coverage-dashboard/internal/metrics"
	"github.com/testops/coverage-dashboard/internal/transform"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		if err := s.store.Ping(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"app":            config.AppName,
		"version":        config.AppVersion,
		"business_units": s.cfg.UnitNames(),
	})
}

// unit resolves the {bu} path value against the configured business
// units, writing a 404 on miss.
func (s *Server) unit(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := r.PathValue("bu")
	if _, err := s.cfg.Unit(name); err != nil {
		writeError(w, http.StatusNotFound, err)
		return "", false
	}
	return name, true
}

// filterFromQuery builds the record filter from repeatable device,
// country and priority query parameters.
func filterFromQuery(r *http.Request) metrics.Filter {
	q := r.URL.Query()
	return metrics.Filter{
		Devices:    q["device"],
		Countries:  q["country"],
		Priorities: q["priority"],
	}
}

func (s *Server) handleCoverage(w http.ResponseWriter, r *http.Request) {
	name, ok := s.unit(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	topN, _ := strconv.Atoi(q.Get("top"))

	report, err := s.svc.BuildReport(r.Context(), name, filterFromQuery(r), topN, q.Get("epic_search"))
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleEpics(w http.ResponseWriter, r *http.Request) {
	name, ok := s.unit(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	topN, _ := strconv.Atoi(q.Get("top"))

	report, err := s.svc.BuildReport(r.Context(), name, filterFromQuery(r), topN, q.Get("epic_search"))
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"epics":  report.Epics,
		"stats":  report.EpicStats,
		"top":    report.Top,
		"bottom": report.Bottom,
	})
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	name, ok := s.unit(w, r)
	if !ok {
		return
	}

	table, err := s.svc.Table(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, filterFromQuery(r).Apply(table))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	name, ok := s.unit(w, r)
	if !ok {
		return
	}
	if s.store == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("snapshot history is not configured"))
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	snaps, err := s.store.ListSnapshots(r.Context(), name, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	name, ok := s.unit(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = "xlsx"
	}
	exportType := q.Get("type")
	if exportType == "" {
		exportType = "complete"
	}

	filter := filterFromQuery(r)
	report, err := s.svc.BuildReport(r.Context(), name, filter, 0, "")
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	table, err := s.svc.Table(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	table = filter.Apply(table)

	var data []byte
	var contentType, filename string

	switch format {
	case "csv":
		var buf bytes.Buffer
		if err := export.RecordsCSV(&buf, table); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		data = buf.Bytes()
		contentType = "text/csv"
		filename = export.Filename(name, exportType, "csv")

	case "xlsx":
		f, err := buildWorkbook(exportType, name, report, table)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		buf, err := f.WriteToBuffer()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		data = buf.Bytes()
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		filename = export.Filename(name, exportType, "xlsx")

	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown export format %q", format))
		return
	}

	// Archival is best effort; the download must not fail with it.
	if s.archive != nil {
		if _, err := s.archive.Store(r.Context(), name, filename, data, contentType); err != nil {
			s.logger.Error("archive export", "business_unit", name, "error", err)
		}
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	s.svc.ClearCache()
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func buildWorkbook(exportType, name string, report *dashboard.Report, table transform.Table) (*excelize.File, error) {
	switch exportType {
	case "epic":
		return export.EpicWorkbook(name, report.Overall, report.Epics, report.Top, report.Bottom)
	case "complete":
		return export.CompleteWorkbook(name, report.Overall, report.Testim, report.Devices, report.Epics, table)
	}
	return nil, fmt.Errorf("unknown export type %q", exportType)
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if status == http.StatusOK {
		w.Header().Set("Cache-Control", "max-age=30")
	}
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
