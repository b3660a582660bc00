package metrics

import (
	"math"
	"testing"

	"github.com/testops/coverage-dashboard/internal/transform"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.01
}

func sampleTable() transform.Table {
	return transform.Table{
		{ID: 1, Epic: "Checkout", Device: "Desktop", Countries: []string{"LT"}, Priority: "High", Status: "Automated - Java"},
		{ID: 2, Epic: "Checkout", Device: "Mobile", Countries: []string{"LT", "LV"}, Priority: "High", Status: "To Be Automated"},
		{ID: 3, Epic: "Search", Device: "Desktop", Countries: []string{"LV"}, Priority: "Medium", Status: "Automated - Testim Desktop"},
	}
}

func TestOverall(t *testing.T) {
	s := Overall(sampleTable())

	if s.Total != 3 || s.Automated != 2 || s.ToBeAutomated != 1 {
		t.Errorf("counts: total=%d automated=%d tba=%d", s.Total, s.Automated, s.ToBeAutomated)
	}
	if !almostEqual(s.CoveragePct, 66.67) {
		t.Errorf("coverage pct: got %.2f, want 66.67", s.CoveragePct)
	}
	// No N/A cases, so the effective figure matches the plain one.
	if s.EffectiveTotal != 3 || !almostEqual(s.EffectiveCoveragePct, 66.67) {
		t.Errorf("effective: total=%d pct=%.2f", s.EffectiveTotal, s.EffectiveCoveragePct)
	}
	if s.AutomatedJava != 1 || s.AutomatedTestimDesktop != 1 || s.TotalTestim != 1 {
		t.Errorf("framework counts: java=%d desktop=%d testim=%d", s.AutomatedJava, s.AutomatedTestimDesktop, s.TotalTestim)
	}
}

func TestEffectiveCoverageExcludesNA(t *testing.T) {
	table := transform.Table{
		{ID: 1, Status: "Automated - Java"},
		{ID: 2, Status: "N/A"},
		{ID: 3, Status: "Not Automated"},
		{ID: 4, Status: "N/A"},
	}
	s := Overall(table)

	if s.Total != 4 || s.NotApplicable != 2 || s.EffectiveTotal != 2 {
		t.Errorf("totals: total=%d na=%d effective=%d", s.Total, s.NotApplicable, s.EffectiveTotal)
	}
	if !almostEqual(s.CoveragePct, 25) {
		t.Errorf("coverage pct: got %.2f, want 25", s.CoveragePct)
	}
	if !almostEqual(s.EffectiveCoveragePct, 50) {
		t.Errorf("effective pct: got %.2f, want 50", s.EffectiveCoveragePct)
	}
}

func TestOverallEmpty(t *testing.T) {
	s := Overall(nil)
	if s.Total != 0 || s.CoveragePct != 0 || s.EffectiveCoveragePct != 0 {
		t.Errorf("empty table: %+v", s)
	}
}

func TestTestim(t *testing.T) {
	table := transform.Table{
		{ID: 1, Status: "Automated - Testim Desktop"},
		{ID: 2, Status: "Automated - Testim Mobile"},
		{ID: 3, Status: "Automated - Testim Both"},
		{ID: 4, Status: "Automated - Testim Both"},
		{ID: 5, Status: "To Be Automated"},
		{ID: 6, Status: "Not Automated"},
		{ID: 7, Status: "Automated - Java"}, // outside the Testim universe
		{ID: 8, Status: "N/A"},
	}
	s := Testim(table)

	if s.Desktop != 1 || s.Mobile != 1 || s.Both != 2 {
		t.Errorf("device counts: desktop=%d mobile=%d both=%d", s.Desktop, s.Mobile, s.Both)
	}
	if s.TotalTestim != 4 {
		t.Errorf("total testim: got %d, want 4", s.TotalTestim)
	}
	if s.TestimTotal != 6 {
		t.Errorf("testim universe: got %d, want 6", s.TestimTotal)
	}
	if !almostEqual(s.CoveragePct, 66.67) {
		t.Errorf("coverage pct: got %.2f, want 66.67", s.CoveragePct)
	}
	if !almostEqual(s.BothPct, 50) {
		t.Errorf("both pct: got %.2f, want 50", s.BothPct)
	}
}

func TestByEpic(t *testing.T) {
	epics := ByEpic(sampleTable())
	if len(epics) != 2 {
		t.Fatalf("epic count: got %d, want 2", len(epics))
	}

	// Sorted by coverage percentage descending.
	if epics[0].Epic != "Search" || !almostEqual(epics[0].CoveragePct, 100) {
		t.Errorf("first epic: %s %.2f", epics[0].Epic, epics[0].CoveragePct)
	}
	if epics[1].Epic != "Checkout" || !almostEqual(epics[1].CoveragePct, 50) {
		t.Errorf("second epic: %s %.2f", epics[1].Epic, epics[1].CoveragePct)
	}

	// Every record lands in exactly one epic bucket.
	var sum int
	for _, e := range epics {
		sum += e.Total
	}
	if sum != len(sampleTable()) {
		t.Errorf("epic totals sum to %d, want %d", sum, len(sampleTable()))
	}
}

func TestByEpicTiebreak(t *testing.T) {
	table := transform.Table{
		{ID: 1, Epic: "Zebra", Status: "Automated - Java"},
		{ID: 2, Epic: "Alpha", Status: "Automated - Java"},
	}
	epics := ByEpic(table)
	if epics[0].Epic != "Alpha" || epics[1].Epic != "Zebra" {
		t.Errorf("equal coverage should sort by name: %s, %s", epics[0].Epic, epics[1].Epic)
	}
}

func TestByCountryMultiMembership(t *testing.T) {
	byCountry := ByCountry(sampleTable())

	if len(byCountry) != 2 {
		t.Fatalf("country count: got %d, want 2", len(byCountry))
	}
	// Record 2 belongs to both LT and LV.
	if byCountry["LT"].Total != 2 {
		t.Errorf("LT total: got %d, want 2", byCountry["LT"].Total)
	}
	if byCountry["LV"].Total != 2 {
		t.Errorf("LV total: got %d, want 2", byCountry["LV"].Total)
	}
}

func TestByDeviceAndPriority(t *testing.T) {
	byDevice := ByDevice(sampleTable())
	if byDevice["Desktop"].Total != 2 || byDevice["Mobile"].Total != 1 {
		t.Errorf("device totals: %+v", byDevice)
	}
	if !almostEqual(byDevice["Desktop"].CoveragePct, 100) {
		t.Errorf("desktop coverage: got %.2f", byDevice["Desktop"].CoveragePct)
	}

	byPriority := ByPriority(sampleTable())
	if byPriority["High"].Total != 2 || byPriority["Medium"].Total != 1 {
		t.Errorf("priority totals: %+v", byPriority)
	}
}

func TestStats(t *testing.T) {
	epics := []EpicCoverage{
		{Epic: "A", Coverage: Coverage{CoveragePct: 100}},
		{Epic: "B", Coverage: Coverage{CoveragePct: 50}},
		{Epic: "C", Coverage: Coverage{CoveragePct: 20}},
	}
	s := Stats(epics)

	if s.NumEpics != 3 {
		t.Errorf("num epics: got %d", s.NumEpics)
	}
	if !almostEqual(s.AvgCoverage, 56.67) {
		t.Errorf("avg: got %.2f, want 56.67", s.AvgCoverage)
	}
	// The 50% epic counts as above the threshold, 20% as below.
	if s.Above50 != 2 || s.Below30 != 1 {
		t.Errorf("thresholds: above=%d below=%d", s.Above50, s.Below30)
	}

	if empty := Stats(nil); empty.NumEpics != 0 || empty.AvgCoverage != 0 {
		t.Errorf("empty stats: %+v", empty)
	}
}

func TestTopBottom(t *testing.T) {
	epics := []EpicCoverage{
		{Epic: "A", Coverage: Coverage{CoveragePct: 90}},
		{Epic: "B", Coverage: Coverage{CoveragePct: 60}},
		{Epic: "C", Coverage: Coverage{CoveragePct: 30}},
		{Epic: "D", Coverage: Coverage{CoveragePct: 10}},
	}

	top, bottom := TopBottom(epics, 2)
	if len(top) != 2 || top[0].Epic != "A" || top[1].Epic != "B" {
		t.Errorf("top: %+v", top)
	}
	// Bottom is worst first.
	if len(bottom) != 2 || bottom[0].Epic != "D" || bottom[1].Epic != "C" {
		t.Errorf("bottom: %+v", bottom)
	}

	// n beyond the available epics clamps.
	top, bottom = TopBottom(epics, 10)
	if len(top) != 4 || len(bottom) != 4 {
		t.Errorf("clamped: top=%d bottom=%d", len(top), len(bottom))
	}

	top, bottom = TopBottom(epics, -1)
	if len(top) != 0 || len(bottom) != 0 {
		t.Errorf("negative n: top=%d bottom=%d", len(top), len(bottom))
	}
}

func TestSearchEpics(t *testing.T) {
	epics := []EpicCoverage{
		{Epic: "Checkout Flow"},
		{Epic: "Search"},
		{Epic: "checkout mobile"},
	}

	got := SearchEpics(epics, "checkout")
	if len(got) != 2 {
		t.Errorf("match count: got %d, want 2", len(got))
	}

	if got := SearchEpics(epics, ""); len(got) != 3 {
		t.Errorf("empty term should return everything, got %d", len(got))
	}
	if got := SearchEpics(epics, "nonexistent"); len(got) != 0 {
		t.Errorf("no match: got %d", len(got))
	}
}
