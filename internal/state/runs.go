package state

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/bioconvert/internal/convert"
)

// RunStatus represents how a conversion call ended.
type RunStatus string

const (
	RunDone   RunStatus = "done"
	RunFailed RunStatus = "failed"
)

// Run is one recorded conversion call.
type Run struct {
	ID         string        `json:"id"`
	Conversion string        `json:"conversion"`
	Method     string        `json:"method"`
	Infile     string        `json:"infile"`
	Outfile    string        `json:"outfile"`
	Status     RunStatus     `json:"status"`
	Error      string        `json:"error,omitempty"`
	ExitCode   *int          `json:"exit_code,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
}

// RunFromResult builds a Run from a finished conversion call.
func RunFromResult(r convert.Result) *Run {
	run := &Run{
		ID:         uuid.NewString(),
		Conversion: r.Spec.Name(),
		Method:     r.Method,
		Infile:     r.Infile,
		Outfile:    r.Outfile,
		Status:     RunDone,
		StartedAt:  r.Started,
		Duration:   r.Duration,
	}
	if r.Err != nil {
		run.Status = RunFailed
		run.Error = r.Err.Error()
		var toolErr *convert.ExternalToolError
		if errors.As(r.Err, &toolErr) && toolErr.ExitCode >= 0 {
			code := toolErr.ExitCode
			run.ExitCode = &code
		}
	}
	return run
}

// RecordRun inserts a run. An empty ID is assigned a new one.
func (db *DB) RecordRun(r *Run) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	var exitCode sql.NullInt64
	if r.ExitCode != nil {
		exitCode = sql.NullInt64{Int64: int64(*r.ExitCode), Valid: true}
	}
	_, err := db.Exec(`
		INSERT INTO runs (id, conversion, method, infile, outfile, status, error, exit_code, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Conversion, r.Method, r.Infile, r.Outfile, string(r.Status), r.Error, exitCode,
		formatTime(r.StartedAt), r.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

const runColumns = `id, conversion, method, infile, outfile, status, error, exit_code, started_at, duration_ms`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var (
		r          Run
		outfile    sql.NullString
		errText    sql.NullString
		exitCode   sql.NullInt64
		startedAt  string
		durationMs int64
	)
	if err := s.Scan(&r.ID, &r.Conversion, &r.Method, &r.Infile, &outfile, &r.Status,
		&errText, &exitCode, &startedAt, &durationMs); err != nil {
		return nil, err
	}
	r.Outfile = outfile.String
	r.Error = errText.String
	if exitCode.Valid {
		code := int(exitCode.Int64)
		r.ExitCode = &code
	}
	r.StartedAt, _ = parseTime(startedAt)
	r.Duration = time.Duration(durationMs) * time.Millisecond
	return &r, nil
}

// GetRun retrieves a run by ID. It returns nil, nil when there is none.
func (db *DB) GetRun(id string) (*Run, error) {
	row := db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// ListRuns returns the most recent runs first. A limit of 0 means no limit;
// an empty status matches every run.
func (db *DB) ListRuns(limit int, status RunStatus) ([]Run, error) {
	var (
		where []string
		args  []any
	)
	if status != "" {
		where = append(where, "status = ?")
		args = append(args, string(status))
	}
	query := `SELECT ` + runColumns + ` FROM runs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY started_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// PurgeOldRuns deletes runs started before now minus olderThan.
// Returns the number of runs deleted.
func (db *DB) PurgeOldRuns(olderThan time.Duration) (int64, error) {
	cutoff := formatTime(time.Now().Add(-olderThan))

	result, err := db.Exec(`DELETE FROM runs WHERE started_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge old runs: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return count, nil
}

// Recorder returns a convert.Recorder that stores every result in store.
// Storage failures are logged and never fail the conversion.
func Recorder(store RunStore, logger *log.Logger) convert.Recorder {
	if logger == nil {
		logger = log.Default()
	}
	return convert.RecorderFunc(func(r convert.Result) {
		if err := store.RecordRun(RunFromResult(r)); err != nil {
			logger.Printf("[state] warning: %v", err)
		}
	})
}
