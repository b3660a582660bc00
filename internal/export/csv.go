// Package export renders aggregated metrics and normalized tables as
// CSV and multi-sheet Excel artifacts.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/testops/coverage-dashboard/internal/transform"
)

// RecordsCSV writes the normalized table as CSV.
func RecordsCSV(w io.Writer, t transform.Table) error {
	cw := csv.NewWriter(w)

	header := []string{"ID", "Title", "Epic", "Status", "Framework", "Device", "Country", "Priority"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, r := range t {
		row := []string{
			strconv.FormatInt(r.ID, 10),
			r.Title,
			r.Epic,
			r.Status,
			r.Framework,
			r.Device,
			r.Country,
			r.Priority,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Filename builds the export filename convention:
// {type}_{bu}_{timestamp}.{ext}
func Filename(businessUnit, exportType, ext string) string {
	ts := time.Now().Format("20060102_150405")
	bu := strings.ReplaceAll(businessUnit, " ", "_")
	return fmt.Sprintf("%s_%s_%s.%s", exportType, bu, ts, ext)
}
