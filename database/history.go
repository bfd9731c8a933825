package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunRecord summarises one sync run for the sync_runs history table.
type RunRecord struct {
	RunID      uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time
	Status     string // "ok" or "failed"
	Error      string
	ReportJSON []byte
}

// RecordRun appends a run to the history. Best-effort from the caller's
// perspective: a failed insert should be logged, not escalated.
func (db *Database) RecordRun(ctx context.Context, rec RunRecord) error {
	var errText *string
	if rec.Error != "" {
		errText = &rec.Error
	}
	_, err := db.pool.Exec(ctx, `
		INSERT INTO sync_runs (run_id, started_at, finished_at, status, error, report)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, rec.RunID, rec.StartedAt, rec.FinishedAt, rec.Status, errText, rec.ReportJSON)
	if err != nil {
		return fmt.Errorf("record run %s: %w", rec.RunID, err)
	}
	return nil
}
