package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store manages run history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("history database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Begin records a new run in the running state.
func (s *Store) Begin(ctx context.Context, runID, command, source, destination, quality string) (*Run, error) {
	if strings.TrimSpace(runID) == "" {
		return nil, errors.New("run id is required")
	}
	started := time.Now().UTC()
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (
            run_id, command, source_path, destination_path, quality, status, started_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID,
		command,
		nullableString(source),
		nullableString(destination),
		nullableString(quality),
		StatusRunning,
		started.Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// Finish stamps the outcome of a run.
func (s *Store) Finish(ctx context.Context, id int64, outcome Outcome) error {
	if !outcome.Status.IsTerminal() {
		return fmt.Errorf("finish run %d: status %q is not terminal", id, outcome.Status)
	}
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE runs
         SET status = ?, original_duration = ?, output_duration = ?, cut_count = ?,
             edit_count = ?, strategies = ?, plan_json = ?, error_message = ?, finished_at = ?
         WHERE id = ?`,
		outcome.Status,
		outcome.OriginalDuration,
		outcome.OutputDuration,
		outcome.CutCount,
		outcome.EditCount,
		nullableString(outcome.Strategies),
		nullableString(outcome.PlanJSON),
		nullableString(outcome.ErrorMessage),
		time.Now().UTC().Format(timeLayout),
		id,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("finish run %d: not found", id)
	}
	return nil
}

// GetByID fetches a run by row identifier. A missing row returns nil, nil.
func (s *Store) GetByID(ctx context.Context, id int64) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// List returns the most recent runs, newest first. A non-positive limit returns all runs.
func (s *Store) List(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id DESC`
	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = s.db.QueryContext(ctx, query+` LIMIT ?`, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, query)
	}
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Summarize counts runs grouped by status.
func (s *Store) Summarize(ctx context.Context) (Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM runs GROUP BY status`)
	if err != nil {
		return Summary{}, fmt.Errorf("history stats: %w", err)
	}
	defer rows.Close()

	var summary Summary
	for rows.Next() {
		var (
			status Status
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return Summary{}, err
		}
		summary.Total += count
		switch status {
		case StatusRunning:
			summary.Running += count
		case StatusSucceeded:
			summary.Succeeded += count
		case StatusFailed:
			summary.Failed += count
		case StatusInvalid:
			summary.Invalid += count
		case StatusCanceled:
			summary.Canceled += count
		}
	}
	return summary, rows.Err()
}

// Prune deletes finished runs started before cutoff.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`DELETE FROM runs WHERE status != ? AND started_at < ?`,
		StatusRunning,
		cutoff.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}

const runColumns = "id, run_id, command, source_path, destination_path, quality, status, original_duration, output_duration, cut_count, edit_count, strategies, plan_json, error_message, started_at, finished_at"

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		id           int64
		runID        string
		command      string
		source       sql.NullString
		destination  sql.NullString
		quality      sql.NullString
		statusStr    string
		original     float64
		output       float64
		cutCount     int
		editCount    int
		strategies   sql.NullString
		planJSON     sql.NullString
		errorMessage sql.NullString
		startedRaw   string
		finishedRaw  sql.NullString
	)
	if err := scanner.Scan(
		&id,
		&runID,
		&command,
		&source,
		&destination,
		&quality,
		&statusStr,
		&original,
		&output,
		&cutCount,
		&editCount,
		&strategies,
		&planJSON,
		&errorMessage,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}

	run := &Run{
		ID:               id,
		RunID:            runID,
		Command:          command,
		SourcePath:       source.String,
		DestinationPath:  destination.String,
		Quality:          quality.String,
		Status:           Status(statusStr),
		OriginalDuration: original,
		OutputDuration:   output,
		CutCount:         cutCount,
		EditCount:        editCount,
		Strategies:       strategies.String,
		PlanJSON:         planJSON.String,
		ErrorMessage:     errorMessage.String,
	}
	if started, err := parseTimeString(startedRaw); err == nil {
		run.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			run.FinishedAt = &finished
		}
	}
	return run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
