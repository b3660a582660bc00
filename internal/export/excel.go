package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/testops/coverage-dashboard/internal/metrics"
	"github.com/testops/coverage-dashboard/internal/transform"
)

// EpicWorkbook builds the epic-coverage workbook: Summary, Epic
// Coverage, and top/bottom ranking sheets.
func EpicWorkbook(businessUnit string, overall metrics.Summary, epics, top, bottom []metrics.EpicCoverage) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", "Summary"); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	writeSummarySheet(f, "Summary", businessUnit, overall)

	if err := writeEpicSheet(f, "Epic Coverage", epics); err != nil {
		return nil, err
	}
	if err := writeRankingSheet(f, "Top 10 Epics", top); err != nil {
		return nil, err
	}
	if err := writeRankingSheet(f, "Bottom 10 Epics", bottom); err != nil {
		return nil, err
	}

	return f, nil
}

// CompleteWorkbook builds the full dashboard workbook: Summary, Device
// Metrics, Epic Coverage and the raw normalized table.
func CompleteWorkbook(businessUnit string, overall metrics.Summary, testim metrics.TestimSummary,
	devices map[string]metrics.Coverage, epics []metrics.EpicCoverage, table transform.Table) (*excelize.File, error) {

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", "Summary"); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	writeSummarySheet(f, "Summary", businessUnit, overall)
	setCell(f, "Summary", 14, "Testim Coverage %", fmt.Sprintf("%.1f%%", testim.CoveragePct))
	setCell(f, "Summary", 15, "Testim Desktop", testim.Desktop)
	setCell(f, "Summary", 16, "Testim Mobile", testim.Mobile)
	setCell(f, "Summary", 17, "Testim Both", testim.Both)

	if _, err := f.NewSheet("Device Metrics"); err != nil {
		return nil, fmt.Errorf("new sheet: %w", err)
	}
	writeRow(f, "Device Metrics", 1, "Device", "Automated", "Total", "Coverage %")
	row := 2
	for _, device := range []string{"Desktop", "Mobile", "Both", transform.Unknown} {
		c, ok := devices[device]
		if !ok {
			continue
		}
		writeRow(f, "Device Metrics", row, device, c.Automated, c.Total, fmt.Sprintf("%.1f%%", c.CoveragePct))
		row++
	}

	if err := writeEpicSheet(f, "Epic Coverage", epics); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet("Raw Data"); err != nil {
		return nil, fmt.Errorf("new sheet: %w", err)
	}
	writeRow(f, "Raw Data", 1, "ID", "Title", "Epic", "Status", "Framework", "Device", "Country", "Priority")
	for i, r := range table {
		writeRow(f, "Raw Data", i+2, r.ID, r.Title, r.Epic, r.Status, r.Framework, r.Device, r.Country, r.Priority)
	}

	return f, nil
}

func writeSummarySheet(f *excelize.File, sheet, businessUnit string, overall metrics.Summary) {
	writeRow(f, sheet, 1, "Metric", "Value")
	setCell(f, sheet, 2, "Business Unit", businessUnit)
	setCell(f, sheet, 3, "Report Generated", time.Now().Format("2006-01-02 15:04:05"))
	setCell(f, sheet, 4, "Total Test Cases", overall.Total)
	setCell(f, sheet, 5, "Effective Total", overall.EffectiveTotal)
	setCell(f, sheet, 6, "Total Automated", overall.Automated)
	setCell(f, sheet, 7, "Coverage %", fmt.Sprintf("%.1f%%", overall.CoveragePct))
	setCell(f, sheet, 8, "Effective Coverage %", fmt.Sprintf("%.1f%%", overall.EffectiveCoveragePct))
	setCell(f, sheet, 9, "Java Automated", overall.AutomatedJava)
	setCell(f, sheet, 10, "Testim Automated", overall.TotalTestim)
	setCell(f, sheet, 11, "To Be Automated", overall.ToBeAutomated)
	setCell(f, sheet, 12, "Not Automated", overall.NotAutomated)
	setCell(f, sheet, 13, "Not Applicable", overall.NotApplicable)
}

func writeEpicSheet(f *excelize.File, sheet string, epics []metrics.EpicCoverage) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("new sheet %s: %w", sheet, err)
	}
	writeRow(f, sheet, 1, "Epic", "Automated", "To Be Automated", "Not Automated", "N/A", "Total", "Coverage %")
	for i, e := range epics {
		writeRow(f, sheet, i+2, e.Epic, e.Automated, e.ToBeAutomated, e.NotAutomated,
			e.NotApplicable, e.Total, fmt.Sprintf("%.1f%%", e.CoveragePct))
	}
	return nil
}

func writeRankingSheet(f *excelize.File, sheet string, epics []metrics.EpicCoverage) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("new sheet %s: %w", sheet, err)
	}
	writeRow(f, sheet, 1, "Epic", "Coverage %", "Automated", "Total")
	for i, e := range epics {
		writeRow(f, sheet, i+2, e.Epic, fmt.Sprintf("%.1f%%", e.CoveragePct), e.Automated, e.Total)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) {
	cell, _ := excelize.CoordinatesToCellName(1, row)
	_ = f.SetSheetRow(sheet, cell, &values)
}

func setCell(f *excelize.File, sheet string, row int, metric string, value any) {
	writeRow(f, sheet, row, metric, value)
}
