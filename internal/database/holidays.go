package database

import (
	"fmt"
	"time"

	"github.com/twmarket/stock-pipeline/internal/models"
)

// UpsertHoliday inserts or overwrites one calendar entry
func (db *DB) UpsertHoliday(h *models.Holiday) error {
	query := `
		INSERT INTO holiday_schedules (date, reason)
		VALUES ($1, $2)
		ON CONFLICT (date) DO UPDATE SET reason = EXCLUDED.reason
	`
	_, err := db.conn.Exec(query, h.Date, h.Reason)
	if err != nil {
		return fmt.Errorf("failed to upsert holiday %s: %w", h.Date.Format("2006-01-02"), err)
	}
	return nil
}

// GetHolidaysByYear retrieves the holiday calendar for one year
func (db *DB) GetHolidaysByYear(year int) ([]*models.Holiday, error) {
	query := `
		SELECT date, reason
		FROM holiday_schedules
		WHERE date >= $1 AND date < $2
		ORDER BY date
	`
	start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	rows, err := db.conn.Query(query, start, start.AddDate(1, 0, 0))
	if err != nil {
		return nil, fmt.Errorf("failed to get holidays for %d: %w", year, err)
	}
	defer rows.Close()

	var holidays []*models.Holiday
	for rows.Next() {
		var h models.Holiday
		if err := rows.Scan(&h.Date, &h.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		holidays = append(holidays, &h)
	}
	return holidays, rows.Err()
}

// IsHoliday reports whether the date is on the holiday calendar
func (db *DB) IsHoliday(date time.Time) (bool, error) {
	var exists bool
	err := db.conn.QueryRow(
		`SELECT EXISTS (SELECT 1 FROM holiday_schedules WHERE date = $1)`, date,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check holiday %s: %w", date.Format("2006-01-02"), err)
	}
	return exists, nil
}
