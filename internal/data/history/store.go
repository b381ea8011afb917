package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

// Store is the sqlite-backed run archive. A single connection avoids writer
// contention; watch mode saves runs frequently.
type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts during watch-mode churn.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// SaveRun stores one run summary; saving the same run ID again updates it.
func (s *Store) SaveRun(ctx context.Context, summary RunSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(summary.RunID) == "" {
		return fmt.Errorf("run id must not be empty")
	}
	if strings.TrimSpace(summary.ProjectKey) == "" {
		summary.ProjectKey = "default"
	}
	if summary.Timestamp.IsZero() {
		summary.Timestamp = time.Now().UTC()
	}
	if summary.SchemaVersion == 0 {
		summary.SchemaVersion = SchemaVersion
	}
	if summary.SchemaVersion != SchemaVersion {
		return fmt.Errorf("unsupported run schema version %d", summary.SchemaVersion)
	}

	query := `
INSERT INTO runs (
  run_id, project_key, schema_version, ts_utc, file_count, finding_count,
  rule_error_count, hint_count, info_count, warning_count, error_count, duration_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(project_key, run_id) DO UPDATE SET
  schema_version=excluded.schema_version,
  ts_utc=excluded.ts_utc,
  file_count=excluded.file_count,
  finding_count=excluded.finding_count,
  rule_error_count=excluded.rule_error_count,
  hint_count=excluded.hint_count,
  info_count=excluded.info_count,
  warning_count=excluded.warning_count,
  error_count=excluded.error_count,
  duration_ms=excluded.duration_ms
`
	return s.withRetry("save run", func() error {
		_, err := s.db.ExecContext(
			ctx,
			query,
			summary.RunID,
			summary.ProjectKey,
			summary.SchemaVersion,
			summary.Timestamp.UTC().Format(time.RFC3339Nano),
			summary.Files,
			summary.Findings,
			summary.RuleErrors,
			summary.HintCount,
			summary.InfoCount,
			summary.WarningCount,
			summary.ErrorCount,
			summary.Duration.Milliseconds(),
		)
		return err
	})
}

// LoadRuns returns run summaries in ascending time order, optionally bounded
// by a start time and a row limit (limit <= 0 means unbounded).
func (s *Store) LoadRuns(ctx context.Context, since time.Time, limit int) ([]RunSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
SELECT
  run_id, project_key, schema_version, ts_utc, file_count, finding_count,
  rule_error_count, hint_count, info_count, warning_count, error_count, duration_ms
FROM runs
`
	args := make([]any, 0, 2)
	if !since.IsZero() {
		query += " WHERE ts_utc >= ?"
		args = append(args, since.UTC().Format(time.RFC3339Nano))
	}
	query += " ORDER BY ts_utc ASC, run_id ASC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var rows *sql.Rows
	err := s.withRetry("load runs", func() error {
		var qErr error
		rows, qErr = s.db.QueryContext(ctx, query, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]RunSummary, 0)
	for rows.Next() {
		var (
			tsRaw      string
			durationMS int64
			summary    RunSummary
		)
		if err := rows.Scan(
			&summary.RunID,
			&summary.ProjectKey,
			&summary.SchemaVersion,
			&tsRaw,
			&summary.Files,
			&summary.Findings,
			&summary.RuleErrors,
			&summary.HintCount,
			&summary.InfoCount,
			&summary.WarningCount,
			&summary.ErrorCount,
			&durationMS,
		); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}

		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			return nil, fmt.Errorf("parse run timestamp %q: %w", tsRaw, err)
		}
		summary.Timestamp = ts.UTC()
		summary.Duration = time.Duration(durationMS) * time.Millisecond

		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}

	return summaries, nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}
