package database

import (
	"database/sql"
	"fmt"
	"time"
)

// Job run statuses
const (
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// JobCompleted reports whether a (job, business date) key already finished
// successfully. The scheduler uses this to make re-triggers no-ops.
func (db *DB) JobCompleted(jobName string, businessDate time.Time) (bool, error) {
	var status string
	err := db.conn.QueryRow(
		`SELECT status FROM job_runs WHERE job_name = $1 AND business_date = $2`,
		jobName, businessDate,
	).Scan(&status)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check job run %s/%s: %w",
			jobName, businessDate.Format("2006-01-02"), err)
	}
	return status == JobStatusCompleted, nil
}

// RecordJobRun writes the outcome of one (job, business date) run,
// overwriting any previous attempt for the same key.
func (db *DB) RecordJobRun(jobName string, businessDate time.Time, status, detail string) error {
	query := `
		INSERT INTO job_runs (job_name, business_date, status, detail, finished_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (job_name, business_date) DO UPDATE SET
			status = EXCLUDED.status,
			detail = EXCLUDED.detail,
			finished_at = NOW()
	`
	_, err := db.conn.Exec(query, jobName, businessDate, status, detail)
	if err != nil {
		return fmt.Errorf("failed to record job run %s/%s: %w",
			jobName, businessDate.Format("2006-01-02"), err)
	}
	return nil
}
