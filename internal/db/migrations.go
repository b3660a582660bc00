package db

import "fmt"

const schema = `
CREATE TABLE IF NOT EXISTS coverage_snapshots (
    id                     INTEGER PRIMARY KEY AUTOINCREMENT,
    business_unit          TEXT NOT NULL,
    total                  INTEGER NOT NULL DEFAULT 0,
    automated              INTEGER NOT NULL DEFAULT 0,
    to_be_automated        INTEGER NOT NULL DEFAULT 0,
    not_automated          INTEGER NOT NULL DEFAULT 0,
    not_applicable         INTEGER NOT NULL DEFAULT 0,
    coverage_pct           REAL NOT NULL DEFAULT 0.0,
    effective_coverage_pct REAL NOT NULL DEFAULT 0.0,
    created_at             TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
);

CREATE INDEX IF NOT EXISTS idx_coverage_snapshots_bu ON coverage_snapshots(business_unit);
CREATE INDEX IF NOT EXISTS idx_coverage_snapshots_created ON coverage_snapshots(created_at DESC);
`

func (d *DB) migrate() error {
	if _, err := d.Exec(schema); err != nil {
		return fmt.Errorf("exec schema: %w", err)
	}
	return nil
}
