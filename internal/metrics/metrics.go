// Package metrics aggregates normalized test-case tables into coverage
// statistics. Every function here is pure: identical input yields
// identical output, no state carries between calls.
package metrics

import (
	"sort"
	"strings"

	"github.com/testops/coverage-dashboard/internal/transform"
)

// Coverage is the basic coverage aggregate over a record set.
type Coverage struct {
	Total         int `json:"total"`
	Automated     int `json:"automated"`
	ToBeAutomated int `json:"to_be_automated"`
	NotAutomated  int `json:"not_automated"`
	NotApplicable int `json:"not_applicable"`

	// CoveragePct is automated/total. EffectiveCoveragePct excludes
	// N/A cases from the denominator, which is the headline number the
	// dashboard reports.
	EffectiveTotal       int     `json:"effective_total"`
	CoveragePct          float64 `json:"coverage_pct"`
	EffectiveCoveragePct float64 `json:"effective_coverage_pct"`
}

// Summary is the overall aggregate, including per-framework counts.
type Summary struct {
	Coverage
	AutomatedJava          int `json:"automated_java"`
	AutomatedTestimDesktop int `json:"automated_testim_desktop"`
	AutomatedTestimMobile  int `json:"automated_testim_mobile"`
	AutomatedTestimBoth    int `json:"automated_testim_both"`
	TotalTestim            int `json:"total_testim"`
}

// TestimSummary holds the Testim-specific breakdown.
type TestimSummary struct {
	TestimTotal   int     `json:"testim_total"` // testim-automated + still-open cases
	TotalTestim   int     `json:"total_testim"` // testim-automated only
	CoveragePct   float64 `json:"coverage_pct"`
	Desktop       int     `json:"desktop"`
	Mobile        int     `json:"mobile"`
	Both          int     `json:"both"`
	DesktopPct    float64 `json:"desktop_pct"`
	MobilePct     float64 `json:"mobile_pct"`
	BothPct       float64 `json:"both_pct"`
	ToBeAutomated int     `json:"to_be_automated"`
	NotAutomated  int     `json:"not_automated"`
}

// EpicCoverage is the coverage aggregate for one epic.
type EpicCoverage struct {
	Epic string `json:"epic"`
	Coverage
}

// EpicStats summarizes an epic coverage list.
type EpicStats struct {
	NumEpics    int     `json:"num_epics"`
	AvgCoverage float64 `json:"avg_coverage"`
	Above50     int     `json:"above_50"`
	Below30     int     `json:"below_30"`
}

func pct(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

func coverageOf(t transform.Table) Coverage {
	var c Coverage
	for _, r := range t {
		c.Total++
		switch {
		case r.Automated():
			c.Automated++
		case r.Status == "To Be Automated":
			c.ToBeAutomated++
		case r.Status == "N/A":
			c.NotApplicable++
		default:
			c.NotAutomated++
		}
	}
	c.EffectiveTotal = c.Total - c.NotApplicable
	c.CoveragePct = pct(c.Automated, c.Total)
	c.EffectiveCoveragePct = pct(c.Automated, c.EffectiveTotal)
	return c
}

// Overall computes the overall coverage summary for a table.
func Overall(t transform.Table) Summary {
	s := Summary{Coverage: coverageOf(t)}
	for _, r := range t {
		switch r.Status {
		case "Automated - Java":
			s.AutomatedJava++
		case "Automated - Testim Desktop":
			s.AutomatedTestimDesktop++
		case "Automated - Testim Mobile":
			s.AutomatedTestimMobile++
		case "Automated - Testim Both":
			s.AutomatedTestimBoth++
		}
	}
	s.TotalTestim = s.AutomatedTestimDesktop + s.AutomatedTestimMobile + s.AutomatedTestimBoth
	return s
}

// Testim computes the Testim framework breakdown. The Testim universe
// is everything Testim has automated plus every case still open for
// automation.
func Testim(t transform.Table) TestimSummary {
	var s TestimSummary
	for _, r := range t {
		switch r.Status {
		case "Automated - Testim Desktop":
			s.Desktop++
		case "Automated - Testim Mobile":
			s.Mobile++
		case "Automated - Testim Both":
			s.Both++
		case "To Be Automated":
			s.ToBeAutomated++
		case "Not Automated":
			s.NotAutomated++
		}
	}
	s.TotalTestim = s.Desktop + s.Mobile + s.Both
	s.TestimTotal = s.TotalTestim + s.ToBeAutomated + s.NotAutomated
	s.CoveragePct = pct(s.TotalTestim, s.TestimTotal)
	s.DesktopPct = pct(s.Desktop, s.TotalTestim)
	s.MobilePct = pct(s.Mobile, s.TotalTestim)
	s.BothPct = pct(s.Both, s.TotalTestim)
	return s
}

// ByDevice groups coverage by device label. Only devices present in
// the table appear.
func ByDevice(t transform.Table) map[string]Coverage {
	return groupBy(t, func(r transform.Record) []string { return []string{r.Device} })
}

// ByPriority groups coverage by priority label.
func ByPriority(t transform.Table) map[string]Coverage {
	return groupBy(t, func(r transform.Record) []string { return []string{r.Priority} })
}

// ByCountry groups coverage by country label. Multi-country records
// contribute to every country they belong to.
func ByCountry(t transform.Table) map[string]Coverage {
	return groupBy(t, func(r transform.Record) []string { return r.Countries })
}

func groupBy(t transform.Table, keys func(transform.Record) []string) map[string]Coverage {
	groups := make(map[string]transform.Table)
	for _, r := range t {
		for _, k := range keys(r) {
			groups[k] = append(groups[k], r)
		}
	}
	out := make(map[string]Coverage, len(groups))
	for k, rows := range groups {
		out[k] = coverageOf(rows)
	}
	return out
}

// ByEpic groups coverage by epic, sorted by coverage percentage
// descending with epic name ascending as tiebreak. Every record lands
// in exactly one epic bucket; epics absent from the input are never
// emitted.
func ByEpic(t transform.Table) []EpicCoverage {
	groups := make(map[string]transform.Table)
	for _, r := range t {
		groups[r.Epic] = append(groups[r.Epic], r)
	}

	epics := make([]EpicCoverage, 0, len(groups))
	for name, rows := range groups {
		epics = append(epics, EpicCoverage{Epic: name, Coverage: coverageOf(rows)})
	}

	sort.Slice(epics, func(i, j int) bool {
		if epics[i].CoveragePct != epics[j].CoveragePct {
			return epics[i].CoveragePct > epics[j].CoveragePct
		}
		return epics[i].Epic < epics[j].Epic
	})
	return epics
}

// Stats summarizes an epic coverage list.
func Stats(epics []EpicCoverage) EpicStats {
	s := EpicStats{NumEpics: len(epics)}
	if len(epics) == 0 {
		return s
	}
	var sum float64
	for _, e := range epics {
		sum += e.CoveragePct
		if e.CoveragePct >= 50 {
			s.Above50++
		}
		if e.CoveragePct < 30 {
			s.Below30++
		}
	}
	s.AvgCoverage = sum / float64(len(epics))
	return s
}

// TopBottom returns the n best and n worst epics by coverage. The
// input is assumed sorted as ByEpic returns it; n is clamped to the
// available epic count. Top is non-increasing, bottom non-decreasing.
func TopBottom(epics []EpicCoverage, n int) (top, bottom []EpicCoverage) {
	if n < 0 {
		n = 0
	}
	if n > len(epics) {
		n = len(epics)
	}

	top = make([]EpicCoverage, n)
	copy(top, epics[:n])

	bottom = make([]EpicCoverage, n)
	for i := 0; i < n; i++ {
		bottom[i] = epics[len(epics)-1-i]
	}
	return top, bottom
}

// SearchEpics filters an epic list by case-insensitive substring match
// on the epic name. An empty term returns the input unchanged.
func SearchEpics(epics []EpicCoverage, term string) []EpicCoverage {
	if term == "" {
		return epics
	}
	needle := strings.ToLower(term)
	var out []EpicCoverage
	for _, e := range epics {
		if strings.Contains(strings.ToLower(e.Epic), needle) {
			out = append(out, e)
		}
	}
	return out
}
