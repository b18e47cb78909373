package database

import (
	"database/sql"
	"fmt"
	"time"
)

// timeLayout is how run timestamps are stored. It sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000Z"

const runColumns = `id, started_at, finished_at, status, failed_stage, message, report_markdown`

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}

// InsertRun stores a finished run and returns its ID.
func (db *DB) InsertRun(run Run) (int64, error) {
	if run.Status != StatusSuccess && run.Status != StatusFailed {
		return 0, fmt.Errorf("invalid run status %q", run.Status)
	}
	result, err := db.conn.Exec(
		`INSERT INTO runs (started_at, finished_at, status, failed_stage, message, report_markdown)
		VALUES (?, ?, ?, ?, ?, ?)`,
		formatTime(run.StartedAt), formatTime(run.FinishedAt), run.Status,
		nullString(run.FailedStage), nullString(run.Message), nullString(run.ReportMarkdown),
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// InsertDatasetStats stores the per-dataset summaries of a run.
func (db *DB) InsertDatasetStats(runID int64, stats []DatasetStats) error {
	if len(stats) == 0 {
		return nil
	}
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT OR REPLACE INTO run_datasets (run_id, dataset, rows, first_year, last_year, skipped)
		VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range stats {
		if _, err := stmt.Exec(runID, s.Dataset, s.Rows, nullInt(s.FirstYear), nullInt(s.LastYear), s.Skipped); err != nil {
			return fmt.Errorf("inserting stats for %s: %w", s.Dataset, err)
		}
	}
	return tx.Commit()
}

// GetRun returns a run by ID, or nil if it does not exist.
func (db *DB) GetRun(id int64) (*Run, error) {
	row := db.conn.QueryRow("SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return run, err
}

// GetRecentRuns returns up to limit runs, newest first.
func (db *DB) GetRecentRuns(limit int) ([]Run, error) {
	rows, err := db.conn.Query(
		"SELECT "+runColumns+" FROM runs ORDER BY started_at DESC, id DESC LIMIT ?", limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetLatestSuccessfulRun returns the newest successful run, or nil if none.
func (db *DB) GetLatestSuccessfulRun() (*Run, error) {
	row := db.conn.QueryRow(
		"SELECT "+runColumns+" FROM runs WHERE status = ? ORDER BY started_at DESC, id DESC LIMIT 1",
		StatusSuccess,
	)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return run, err
}

// GetDatasetStats returns the dataset summaries recorded for a run.
func (db *DB) GetDatasetStats(runID int64) ([]DatasetStats, error) {
	rows, err := db.conn.Query(
		`SELECT run_id, dataset, rows, COALESCE(first_year, 0), COALESCE(last_year, 0), skipped
		FROM run_datasets WHERE run_id = ? ORDER BY rowid`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []DatasetStats
	for rows.Next() {
		var s DatasetStats
		if err := rows.Scan(&s.RunID, &s.Dataset, &s.Rows, &s.FirstYear, &s.LastYear, &s.Skipped); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// GetStats returns aggregate run statistics.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}
	err := db.conn.QueryRow(
		`SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0)
		FROM runs`,
	).Scan(&s.TotalRuns, &s.SuccessfulRuns, &s.FailedRuns)
	if err != nil {
		return nil, err
	}

	if s.LastRunAt, err = db.maxStartedAt(""); err != nil {
		return nil, err
	}
	if s.LastSuccessAt, err = db.maxStartedAt(StatusSuccess); err != nil {
		return nil, err
	}
	return s, nil
}

func (db *DB) maxStartedAt(status string) (*time.Time, error) {
	query := "SELECT MAX(started_at) FROM runs"
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}

	var raw sql.NullString
	if err := db.conn.QueryRow(query, args...).Scan(&raw); err != nil {
		return nil, err
	}
	if !raw.Valid {
		return nil, nil
	}
	t, err := parseTime(raw.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		r                        Run
		started, finished        string
		stage, message, reportMD sql.NullString
	)
	if err := row.Scan(&r.ID, &started, &finished, &r.Status, &stage, &message, &reportMD); err != nil {
		return nil, err
	}

	var err error
	if r.StartedAt, err = parseTime(started); err != nil {
		return nil, err
	}
	if r.FinishedAt, err = parseTime(finished); err != nil {
		return nil, err
	}
	r.FailedStage = stage.String
	r.Message = message.String
	r.ReportMarkdown = reportMD.String
	return &r, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(n int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n), Valid: n != 0}
}
