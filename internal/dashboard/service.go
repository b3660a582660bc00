// Package dashboard ties the pipeline together: fetch raw cases,
// normalize, aggregate, cache. Each user interaction maps to one
// synchronous fetch-transform-aggregate cycle; caching is the only
// thing that short-circuits it.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/testops/coverage-dashboard/internal/cache"
	"github.com/testops/coverage-dashboard/internal/config"
	"github.com/testops/coverage-dashboard/internal/db"
	"github.com/testops/coverage-dashboard/internal/metrics"
	"github.com/testops/coverage-dashboard/internal/testrail"
	"github.com/testops/coverage-dashboard/internal/transform"
)

// Cache TTLs: raw data and its transformation are good for an hour,
// derived metrics for half that.
const (
	DataTTL    = time.Hour
	MetricsTTL = 30 * time.Minute
)

// DefaultTopN is the default epic ranking window.
const DefaultTopN = 10

// Fetcher is the subset of the API client the service needs.
type Fetcher interface {
	GetCases(ctx context.Context, projectID, suiteID int) ([]testrail.Case, error)
	GetSections(ctx context.Context, projectID, suiteID int) ([]testrail.Section, error)
}

// Service runs the fetch-transform-aggregate cycle for business units.
type Service struct {
	cfg    *config.Config
	client Fetcher
	store  *db.DB // optional; nil disables snapshot history
	logger *slog.Logger

	tables  *cache.Cache[transform.Table]
	reports *cache.Cache[*Report]
}

// NewService creates a Service. store may be nil.
func NewService(cfg *config.Config, client Fetcher, store *db.DB, logger *slog.Logger) *Service {
	return &Service{
		cfg:     cfg,
		client:  client,
		store:   store,
		logger:  logger,
		tables:  cache.New[transform.Table](DataTTL),
		reports: cache.New[*Report](MetricsTTL),
	}
}

// Report is one fully aggregated dashboard view of a business unit.
type Report struct {
	BusinessUnit string    `json:"business_unit"`
	GeneratedAt  time.Time `json:"generated_at"`

	Filter metrics.Filter `json:"filter"`

	Overall    metrics.Summary             `json:"overall"`
	Testim     metrics.TestimSummary       `json:"testim"`
	Devices    map[string]metrics.Coverage `json:"devices"`
	Countries  map[string]metrics.Coverage `json:"countries"`
	Priorities map[string]metrics.Coverage `json:"priorities"`

	Epics     []metrics.EpicCoverage `json:"epics"`
	EpicStats metrics.EpicStats      `json:"epic_stats"`
	Top       []metrics.EpicCoverage `json:"top"`
	Bottom    []metrics.EpicCoverage `json:"bottom"`
}

// Table returns the normalized record table for a business unit,
// fetching from the API on cache miss. A fresh fetch also records a
// coverage snapshot when a store is configured.
func (s *Service) Table(ctx context.Context, unitName string) (transform.Table, error) {
	bu, err := s.cfg.Unit(unitName)
	if err != nil {
		return nil, err
	}

	key := cache.Key(bu.Name, strconv.Itoa(bu.ProjectID), strconv.Itoa(bu.SuiteID))
	if table, ok := s.tables.Get(key); ok {
		return table, nil
	}

	s.logger.Info("fetching cases", "business_unit", bu.Name, "project", bu.ProjectID, "suite", bu.SuiteID)
	cases, err := s.client.GetCases(ctx, bu.ProjectID, bu.SuiteID)
	if err != nil {
		return nil, fmt.Errorf("fetch cases for %s: %w", bu.Name, err)
	}
	if len(cases) == 0 {
		return nil, fmt.Errorf("no test cases found for %s (project %d, suite %d)", bu.Name, bu.ProjectID, bu.SuiteID)
	}

	// Section names backfill epics for records without an epic field.
	// A failed section fetch degrades those records to Unknown.
	var sections map[int64]string
	if secs, err := s.client.GetSections(ctx, bu.ProjectID, bu.SuiteID); err != nil {
		s.logger.Warn("fetch sections", "business_unit", bu.Name, "error", err)
	} else {
		sections = testrail.SectionMap(secs)
	}

	table := transform.Transform(cases, bu, sections)
	s.logger.Info("transformed cases", "business_unit", bu.Name, "records", len(table))
	s.tables.Put(key, table)

	if s.store != nil {
		if err := s.store.RecordSnapshot(ctx, bu.Name, metrics.Overall(table).Coverage); err != nil {
			s.logger.Error("record snapshot", "business_unit", bu.Name, "error", err)
		}
	}

	return table, nil
}

// BuildReport returns the aggregated report for a business unit under
// the given filter. topN <= 0 uses DefaultTopN.
func (s *Service) BuildReport(ctx context.Context, unitName string, f metrics.Filter, topN int, epicSearch string) (*Report, error) {
	if topN <= 0 {
		topN = DefaultTopN
	}

	key := cache.Key(unitName, f.Key(), strconv.Itoa(topN), epicSearch)
	if report, ok := s.reports.Get(key); ok {
		return report, nil
	}

	table, err := s.Table(ctx, unitName)
	if err != nil {
		return nil, err
	}

	filtered := f.Apply(table)
	epics := metrics.SearchEpics(metrics.ByEpic(filtered), epicSearch)
	top, bottom := metrics.TopBottom(epics, topN)

	report := &Report{
		BusinessUnit: unitName,
		GeneratedAt:  time.Now().UTC(),
		Filter:       f,
		Overall:      metrics.Overall(filtered),
		Testim:       metrics.Testim(filtered),
		Devices:      metrics.ByDevice(filtered),
		Countries:    metrics.ByCountry(filtered),
		Priorities:   metrics.ByPriority(filtered),
		Epics:        epics,
		EpicStats:    metrics.Stats(epics),
		Top:          top,
		Bottom:       bottom,
	}

	s.reports.Put(key, report)
	return report, nil
}

// FilterOptions returns the selectable filter values present in a
// table, sorted, with the Unknown placeholder excluded.
func FilterOptions(t transform.Table) (devices, countries, priorities []string) {
	deviceSet := map[string]bool{}
	countrySet := map[string]bool{}
	prioritySet := map[string]bool{}

	for _, r := range t {
		if r.Device != transform.Unknown {
			deviceSet[r.Device] = true
		}
		for _, c := range r.Countries {
			if c != transform.Unknown {
				countrySet[c] = true
			}
		}
		if r.Priority != transform.Unknown {
			prioritySet[r.Priority] = true
		}
	}

	return sortedKeys(deviceSet), sortedKeys(countrySet), sortedKeys(prioritySet)
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ClearCache discards both cache tiers.
func (s *Service) ClearCache() {
	s.tables.Clear()
	s.reports.Clear()
	s.logger.Info("caches cleared")
}
