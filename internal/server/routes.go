package server

import "net/http"

func (s *Server) registerRoutes(mux *http.ServeMux) {
	// Health & Config
	mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	mux.HandleFunc("GET /api/v1/config", s.handleConfig)

	// Coverage API (business-unit-centric)
	mux.HandleFunc("GET /api/v1/coverage/{bu}", s.handleCoverage)
	mux.HandleFunc("GET /api/v1/coverage/{bu}/epics", s.handleEpics)
	mux.HandleFunc("GET /api/v1/coverage/{bu}/records", s.handleRecords)
	mux.HandleFunc("GET /api/v1/coverage/{bu}/export", s.handleExport)
	mux.HandleFunc("GET /api/v1/coverage/{bu}/history", s.handleHistory)

	// Cache control
	mux.HandleFunc("POST /api/v1/cache/clear", s.handleClearCache)

	// HTML dashboard
	mux.HandleFunc("GET /{$}", s.handleDashboardPage)
}
