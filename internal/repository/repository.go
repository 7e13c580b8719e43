// Package repository persists analysis reports.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ElodielAirea/WoWAnalyzer/internal/config"
	"github.com/ElodielAirea/WoWAnalyzer/internal/session"
	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when no report matches.
	ErrNotFound = errors.New("report not found")

	// ErrInvalidReport is returned for reports that cannot be stored.
	ErrInvalidReport = errors.New("invalid report")
)

// DefaultListLimit caps ListReports when the caller passes a non-positive limit.
const DefaultListLimit = 50

// ReportSummary is the listing form of a stored report.
type ReportSummary struct {
	SessionID       string    `json:"session_id"`
	Fingerprint     string    `json:"fingerprint,omitempty"`
	PlayerID        int64     `json:"player_id"`
	Spec            string    `json:"spec,omitempty"`
	DurationMs      int64     `json:"duration_ms"`
	SuggestionCount int       `json:"suggestion_count"`
	CreatedAt       time.Time `json:"created_at"`
}

// Summarize builds the listing form of a report.
func Summarize(r *session.Report) ReportSummary {
	return ReportSummary{
		SessionID:       r.SessionID,
		Fingerprint:     r.Fingerprint,
		PlayerID:        r.PlayerID,
		Spec:            r.Spec,
		DurationMs:      r.DurationMs,
		SuggestionCount: r.SuggestionCount(),
		CreatedAt:       r.CreatedAt.UTC(),
	}
}

// Store saves and loads reports keyed by session id. Saving a report with an
// existing session id replaces it.
type Store interface {
	SaveReport(ctx context.Context, r *session.Report) error
	GetReport(ctx context.Context, sessionID string) (*session.Report, error)
	FindByFingerprint(ctx context.Context, fingerprint string) (*session.Report, error)
	ListReports(ctx context.Context, limit int) ([]ReportSummary, error)
	Close() error
}

// Open creates the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		s, err := OpenSQLite(ctx, cfg.DSN, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverPostgres:
		s, err := OpenPostgres(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverNone:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func validateReport(r *session.Report) error {
	if r == nil {
		return fmt.Errorf("%w: nil report", ErrInvalidReport)
	}
	if r.SessionID == "" {
		return fmt.Errorf("%w: missing session id", ErrInvalidReport)
	}
	return nil
}

func encodeReport(r *session.Report) ([]byte, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode report %s: %w", r.SessionID, err)
	}
	return body, nil
}

func decodeReport(body []byte) (*session.Report, error) {
	var r session.Report
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &r, nil
}

func listLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}

// MemoryStore keeps reports in memory. It backs the "none" driver and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	reports map[string]*session.Report
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{reports: make(map[string]*session.Report)}
}

// SaveReport implements Store.
func (s *MemoryStore) SaveReport(ctx context.Context, r *session.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateReport(r); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *r
	s.reports[r.SessionID] = &cp
	return nil
}

// GetReport implements Store.
func (s *MemoryStore) GetReport(ctx context.Context, sessionID string) (*session.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reports[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

// FindByFingerprint implements Store.
func (s *MemoryStore) FindByFingerprint(ctx context.Context, fingerprint string) (*session.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *session.Report
	for _, r := range s.reports {
		if r.Fingerprint != fingerprint {
			continue
		}
		if found == nil || r.CreatedAt.After(found.CreatedAt) {
			found = r
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	cp := *found
	return &cp, nil
}

// ListReports implements Store. Newest reports come first.
func (s *MemoryStore) ListReports(ctx context.Context, limit int) ([]ReportSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]ReportSummary, 0, len(s.reports))
	for _, r := range s.reports {
		out = append(out, Summarize(r))
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].SessionID < out[j].SessionID
	})
	if n := listLimit(limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }
