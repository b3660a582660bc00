// Package chart turns aggregated metrics into rendering-ready series.
// The series reflect their input metrics verbatim; everything visual is
// left to the consumer.
package chart

import (
	"sort"

	"github.com/testops/coverage-dashboard/internal/metrics"
)

// Series is a labelled value sequence for a single chart.
type Series struct {
	Title  string    `json:"title"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// Point returns the value at i together with its share of the series
// total, for pie-style rendering.
func (s Series) Point(i int) (value, sharePct float64) {
	var total float64
	for _, v := range s.Values {
		total += v
	}
	if total == 0 {
		return s.Values[i], 0
	}
	return s.Values[i], s.Values[i] / total * 100
}

// FrameworkPie shows automated cases split by framework. Zero-count
// slices are dropped, matching how an empty slice renders.
func FrameworkPie(overall metrics.Summary) Series {
	s := Series{Title: "Automation by Framework"}
	add := func(label string, count int) {
		if count > 0 {
			s.Labels = append(s.Labels, label)
			s.Values = append(s.Values, float64(count))
		}
	}
	add("Java", overall.AutomatedJava)
	add("Testim Desktop", overall.AutomatedTestimDesktop)
	add("Testim Mobile", overall.AutomatedTestimMobile)
	add("Testim Both", overall.AutomatedTestimBoth)
	return s
}

// TestimStatusPie shows the Testim status distribution.
func TestimStatusPie(t metrics.TestimSummary) Series {
	return Series{
		Title:  "Status Distribution",
		Labels: []string{"Automated", "To Be Automated", "Not Automated"},
		Values: []float64{float64(t.TotalTestim), float64(t.ToBeAutomated), float64(t.NotAutomated)},
	}
}

// TestimDeviceBar shows Testim-automated cases per device.
func TestimDeviceBar(t metrics.TestimSummary) Series {
	return Series{
		Title:  "Automated Cases by Device",
		Labels: []string{"Desktop", "Mobile", "Both"},
		Values: []float64{float64(t.Desktop), float64(t.Mobile), float64(t.Both)},
	}
}

// DeviceTotalsBar shows total cases per device label, sorted by label
// for deterministic output.
func DeviceTotalsBar(devices map[string]metrics.Coverage) Series {
	labels := make([]string, 0, len(devices))
	for d := range devices {
		labels = append(labels, d)
	}
	sort.Strings(labels)

	s := Series{Title: "Test Cases by Device Type", Labels: labels}
	for _, d := range labels {
		s.Values = append(s.Values, float64(devices[d].Total))
	}
	return s
}

// EpicCoverageBars shows coverage percentage per epic in the order the
// epic list is given (already ranked by the metrics layer).
func EpicCoverageBars(title string, epics []metrics.EpicCoverage) Series {
	s := Series{Title: title}
	for _, e := range epics {
		s.Labels = append(s.Labels, e.Epic)
		s.Values = append(s.Values, e.CoveragePct)
	}
	return s
}
