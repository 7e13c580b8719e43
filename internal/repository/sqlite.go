package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ElodielAirea/WoWAnalyzer/internal/session"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS reports (
	session_id       TEXT PRIMARY KEY,
	fingerprint      TEXT NOT NULL DEFAULT '',
	player_id        INTEGER NOT NULL,
	spec             TEXT NOT NULL DEFAULT '',
	duration_ms      INTEGER NOT NULL,
	suggestion_count INTEGER NOT NULL,
	created_at       INTEGER NOT NULL,
	body             BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS reports_fingerprint_idx ON reports (fingerprint);
CREATE INDEX IF NOT EXISTS reports_created_at_idx ON reports (created_at DESC);
`

// SQLiteStore persists reports in a SQLite file.
type SQLiteStore struct {
	sqlDB  *sql.DB
	logger *zap.Logger
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// OpenSQLite opens (creating if needed) the database at path and ensures the schema.
func OpenSQLite(ctx context.Context, path string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.ExecContext(ctx, sqliteSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	logger.Info("sqlite report store opened", zap.String("path", path))
	return &SQLiteStore{sqlDB: sqlDB, logger: logger}, nil
}

// Close closes the SQLite handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SaveReport implements Store.
func (s *SQLiteStore) SaveReport(ctx context.Context, r *session.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateReport(r); err != nil {
		return err
	}
	body, err := encodeReport(r)
	if err != nil {
		return err
	}

	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO reports (
		   session_id, fingerprint, player_id, spec, duration_ms,
		   suggestion_count, created_at, body
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (session_id) DO UPDATE SET
		   fingerprint = excluded.fingerprint,
		   player_id = excluded.player_id,
		   spec = excluded.spec,
		   duration_ms = excluded.duration_ms,
		   suggestion_count = excluded.suggestion_count,
		   created_at = excluded.created_at,
		   body = excluded.body`,
		r.SessionID,
		r.Fingerprint,
		r.PlayerID,
		r.Spec,
		r.DurationMs,
		r.SuggestionCount(),
		toMillis(r.CreatedAt),
		body,
	)
	if err != nil {
		return fmt.Errorf("save report %s: %w", r.SessionID, err)
	}

	s.logger.Debug("report saved", zap.String("session_id", r.SessionID))
	return nil
}

// GetReport implements Store.
func (s *SQLiteStore) GetReport(ctx context.Context, sessionID string) (*session.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `SELECT body FROM reports WHERE session_id = ?`, sessionID)
	return scanReport(row)
}

// FindByFingerprint implements Store. The newest matching report wins.
func (s *SQLiteStore) FindByFingerprint(ctx context.Context, fingerprint string) (*session.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT body FROM reports WHERE fingerprint = ? ORDER BY created_at DESC LIMIT 1`,
		fingerprint,
	)
	return scanReport(row)
}

func scanReport(row *sql.Row) (*session.Report, error) {
	var body []byte
	if err := row.Scan(&body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get report: %w", err)
	}
	return decodeReport(body)
}

// ListReports implements Store. Newest reports come first.
func (s *SQLiteStore) ListReports(ctx context.Context, limit int) ([]ReportSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT session_id, fingerprint, player_id, spec, duration_ms, suggestion_count, created_at
		   FROM reports
		  ORDER BY created_at DESC, session_id ASC
		  LIMIT ?`,
		listLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var out []ReportSummary
	for rows.Next() {
		var summary ReportSummary
		var createdAt int64
		if err := rows.Scan(
			&summary.SessionID,
			&summary.Fingerprint,
			&summary.PlayerID,
			&summary.Spec,
			&summary.DurationMs,
			&summary.SuggestionCount,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan report summary: %w", err)
		}
		summary.CreatedAt = fromMillis(createdAt)
		out = append(out, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return out, nil
}
