// Package jobs is the C6 Job Tracker: one append-then-freeze row per scrape
// attempt, used both for idempotency (skip an already-succeeded date unless
// forced) and as the audit trail the orchestrator reports through.
package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

const dateLayout = "2006-01-02"

// Job mirrors the spec's Job entity. Created by begin, written once by
// finish; never mutated afterward.
type Job struct {
	ID           int64      `db:"id"`
	SourceCode   string     `db:"source_code"`
	TargetDate   time.Time  `db:"-"`
	StartedAt    time.Time  `db:"started_at"`
	FinishedAt   *time.Time `db:"finished_at"`
	Status       Status     `db:"status"`
	RowsInserted int        `db:"rows_inserted"`
	RowsUpdated  int        `db:"rows_updated"`
	ErrorText    *string    `db:"error_text"`
	URLUsed      *string    `db:"url_used"`
}

type Tracker struct {
	db *sqlx.DB
}

func NewTracker(db *sqlx.DB) *Tracker {
	return &Tracker{db: db}
}

// Begin creates a running Job for (sourceCode, date). If a succeeded Job
// for the same (sourceCode, date) already exists and force is false, it
// returns a Job with status "skipped" and does not write a new row.
func (t *Tracker) Begin(ctx context.Context, sourceCode string, date time.Time, force bool) (Job, error) {
	dateStr := date.Format(dateLayout)

	if !force {
		existing, err := t.lastSucceeded(ctx, sourceCode, dateStr)
		if err == nil {
			existing.TargetDate = date
			existing.Status = StatusSkipped
			return existing, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return Job{}, fmt.Errorf("jobs: check existing: %w", err)
		}
	}

	now := time.Now().UTC()
	query := t.db.Rebind(`INSERT INTO jobs (source_code, target_date, started_at, status, rows_inserted, rows_updated)
		VALUES (?, ?, ?, ?, 0, 0) RETURNING id`)
	var id int64
	if err := t.db.GetContext(ctx, &id, query, sourceCode, dateStr, now, StatusRunning); err != nil {
		return Job{}, fmt.Errorf("jobs: begin: %w", err)
	}

	return Job{
		ID:         id,
		SourceCode: sourceCode,
		TargetDate: date,
		StartedAt:  now,
		Status:     StatusRunning,
	}, nil
}

func (t *Tracker) lastSucceeded(ctx context.Context, sourceCode, dateStr string) (Job, error) {
	query := t.db.Rebind(`SELECT id, source_code, started_at, finished_at, status, rows_inserted, rows_updated, error_text, url_used
		FROM jobs WHERE source_code = ? AND target_date = ? AND status = ? ORDER BY id DESC LIMIT 1`)
	var row Job
	err := t.db.GetContext(ctx, &row, query, sourceCode, dateStr, StatusSucceeded)
	return row, err
}

// Finish finalizes job with a terminal status, row counts, and an optional
// error. After Finish returns successfully the job row is never written
// again.
func (t *Tracker) Finish(ctx context.Context, job Job, status Status, rowsInserted, rowsUpdated int, urlUsed string, finishErr error) error {
	now := time.Now().UTC()
	var errText *string
	if finishErr != nil {
		s := finishErr.Error()
		errText = &s
	}
	var urlPtr *string
	if urlUsed != "" {
		urlPtr = &urlUsed
	}

	query := t.db.Rebind(`UPDATE jobs SET finished_at = ?, status = ?, rows_inserted = ?, rows_updated = ?, error_text = ?, url_used = ?
		WHERE id = ?`)
	_, err := t.db.ExecContext(ctx, query, now, status, rowsInserted, rowsUpdated, errText, urlPtr, job.ID)
	if err != nil {
		return fmt.Errorf("jobs: finish: %w", err)
	}
	return nil
}
