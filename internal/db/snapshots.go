package db

import (
	"context"
	"time"

	"github.com/testops/coverage-dashboard/internal/metrics"
)

// Snapshot is one recorded coverage measurement for a business unit.
type Snapshot struct {
	ID                   int64     `json:"id"`
	BusinessUnit         string    `json:"business_unit"`
	Total                int       `json:"total"`
	Automated            int       `json:"automated"`
	ToBeAutomated        int       `json:"to_be_automated"`
	NotAutomated         int       `json:"not_automated"`
	NotApplicable        int       `json:"not_applicable"`
	CoveragePct          float64   `json:"coverage_pct"`
	EffectiveCoveragePct float64   `json:"effective_coverage_pct"`
	CreatedAt            time.Time `json:"created_at"`
}

// RecordSnapshot stores the unfiltered coverage of a business unit at
// the current time.
func (d *DB) RecordSnapshot(ctx context.Context, businessUnit string, c metrics.Coverage) error {
	_, err := d.ExecContext(ctx, `
		INSERT INTO coverage_snapshots
			(business_unit, total, automated, to_be_automated, not_automated, not_applicable, coverage_pct, effective_coverage_pct, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		businessUnit, c.Total, c.Automated, c.ToBeAutomated, c.NotAutomated, c.NotApplicable,
		c.CoveragePct, c.EffectiveCoveragePct, time.Now().UTC().Format(time.RFC3339))
	return err
}

// ListSnapshots returns the most recent snapshots for a business unit,
// newest first.
func (d *DB) ListSnapshots(ctx context.Context, businessUnit string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.QueryContext(ctx, `
		SELECT id, business_unit, total, automated, to_be_automated, not_automated, not_applicable,
		       coverage_pct, effective_coverage_pct, created_at
		FROM coverage_snapshots
		WHERE business_unit = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, businessUnit, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var s Snapshot
		var ts string
		if err := rows.Scan(&s.ID, &s.BusinessUnit, &s.Total, &s.Automated, &s.ToBeAutomated,
			&s.NotAutomated, &s.NotApplicable, &s.CoveragePct, &s.EffectiveCoveragePct, &ts); err != nil {
			return nil, err
		}
		s.CreatedAt = parseTime(ts)
		snaps = append(snaps, s)
	}
	return snaps, rows.Err()
}

// LatestSnapshot returns the newest snapshot for a business unit, or
// nil when none has been recorded.
func (d *DB) LatestSnapshot(ctx context.Context, businessUnit string) (*Snapshot, error) {
	snaps, err := d.ListSnapshots(ctx, businessUnit, 1)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, nil
	}
	return &snaps[0], nil
}
