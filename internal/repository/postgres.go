package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ElodielAirea/WoWAnalyzer/internal/config"
	"github.com/ElodielAirea/WoWAnalyzer/internal/session"
	"github.com/ElodielAirea/WoWAnalyzer/internal/spellbook"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS reports (
	session_id       TEXT PRIMARY KEY,
	fingerprint      TEXT NOT NULL DEFAULT '',
	player_id        BIGINT NOT NULL,
	spec             TEXT NOT NULL DEFAULT '',
	duration_ms      BIGINT NOT NULL,
	suggestion_count INTEGER NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL,
	body             JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS reports_fingerprint_idx ON reports (fingerprint);
CREATE INDEX IF NOT EXISTS reports_created_at_idx ON reports (created_at DESC);
CREATE TABLE IF NOT EXISTS spells (
	spell_id BIGINT PRIMARY KEY,
	name     TEXT NOT NULL,
	icon     TEXT NOT NULL DEFAULT ''
);
`

// pgxQuerier is the subset of *pgxpool.Pool the store uses.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists reports in PostgreSQL.
type PostgresStore struct {
	db     pgxQuerier
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// OpenPostgres connects a pool and ensures the schema.
func OpenPostgres(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := newPostgresStore(pool, logger)
	s.pool = pool
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	stats := pool.Stat()
	logger.Info("database connection pool initialized",
		zap.Int32("total_conns", stats.TotalConns()),
		zap.Int32("max_conns", stats.MaxConns()),
	)
	return s, nil
}

func newPostgresStore(db pgxQuerier, logger *zap.Logger) *PostgresStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresStore{db: db, logger: logger}
}

// Migrate creates the tables the store needs.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// SaveReport implements Store.
func (s *PostgresStore) SaveReport(ctx context.Context, r *session.Report) error {
	if err := validateReport(r); err != nil {
		return err
	}
	body, err := encodeReport(r)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO reports (
			session_id, fingerprint, player_id, spec, duration_ms,
			suggestion_count, created_at, body
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (session_id) DO UPDATE SET
			fingerprint = EXCLUDED.fingerprint,
			player_id = EXCLUDED.player_id,
			spec = EXCLUDED.spec,
			duration_ms = EXCLUDED.duration_ms,
			suggestion_count = EXCLUDED.suggestion_count,
			created_at = EXCLUDED.created_at,
			body = EXCLUDED.body
	`,
		r.SessionID,
		r.Fingerprint,
		r.PlayerID,
		r.Spec,
		r.DurationMs,
		r.SuggestionCount(),
		r.CreatedAt.UTC(),
		body,
	)
	if err != nil {
		return fmt.Errorf("save report %s: %w", r.SessionID, err)
	}

	s.logger.Debug("report saved", zap.String("session_id", r.SessionID))
	return nil
}

// GetReport implements Store.
func (s *PostgresStore) GetReport(ctx context.Context, sessionID string) (*session.Report, error) {
	return s.scanReport(s.db.QueryRow(ctx, `SELECT body FROM reports WHERE session_id = $1`, sessionID))
}

// FindByFingerprint implements Store. The newest matching report wins.
func (s *PostgresStore) FindByFingerprint(ctx context.Context, fingerprint string) (*session.Report, error) {
	return s.scanReport(s.db.QueryRow(ctx,
		`SELECT body FROM reports WHERE fingerprint = $1 ORDER BY created_at DESC LIMIT 1`,
		fingerprint,
	))
}

func (s *PostgresStore) scanReport(row pgx.Row) (*session.Report, error) {
	var body []byte
	if err := row.Scan(&body); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get report: %w", err)
	}
	return decodeReport(body)
}

// ListReports implements Store. Newest reports come first.
func (s *PostgresStore) ListReports(ctx context.Context, limit int) ([]ReportSummary, error) {
	rows, err := s.db.Query(ctx, `
		SELECT session_id, fingerprint, player_id, spec, duration_ms, suggestion_count, created_at
		FROM reports
		ORDER BY created_at DESC, session_id ASC
		LIMIT $1
	`, listLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var out []ReportSummary
	for rows.Next() {
		var summary ReportSummary
		if err := rows.Scan(
			&summary.SessionID,
			&summary.Fingerprint,
			&summary.PlayerID,
			&summary.Spec,
			&summary.DurationMs,
			&summary.SuggestionCount,
			&summary.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan report summary: %w", err)
		}
		summary.CreatedAt = summary.CreatedAt.UTC()
		out = append(out, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return out, nil
}

// LoadSpells reads the spells table into a spellbook table.
func (s *PostgresStore) LoadSpells(ctx context.Context) (*spellbook.Table, error) {
	rows, err := s.db.Query(ctx, `SELECT spell_id, name, icon FROM spells ORDER BY spell_id`)
	if err != nil {
		return nil, fmt.Errorf("load spells: %w", err)
	}
	defer rows.Close()

	var spells []spellbook.Spell
	for rows.Next() {
		var spell spellbook.Spell
		if err := rows.Scan(&spell.ID, &spell.Name, &spell.Icon); err != nil {
			return nil, fmt.Errorf("scan spell: %w", err)
		}
		spells = append(spells, spell)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate spells: %w", err)
	}

	s.logger.Info("loaded spells from database", zap.Int("count", len(spells)))
	return spellbook.NewTable(spells...), nil
}
