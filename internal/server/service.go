// Package server exposes analysis over HTTP, WebSocket and gRPC.
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ElodielAirea/WoWAnalyzer/internal/replay"
	"github.com/ElodielAirea/WoWAnalyzer/internal/repository"
	"github.com/ElodielAirea/WoWAnalyzer/internal/session"
	"go.uber.org/zap"
)

var (
	// ErrInvalidRecordingName is returned for names that would escape the replay directory.
	ErrInvalidRecordingName = errors.New("invalid recording name")

	// ErrRecordingNotFound is returned when no stored recording has the requested name.
	ErrRecordingNotFound = errors.New("recording not found")
)

// Publisher receives every newly produced report.
type Publisher interface {
	Publish(r *session.Report)
}

// AnalyzerService analyzes stored recordings and serves the resulting reports.
// It is shared by the HTTP and gRPC surfaces.
type AnalyzerService struct {
	runner    *session.Runner
	recorder  *replay.Recorder
	store     repository.Store
	publisher Publisher
	logger    *zap.Logger
}

// NewAnalyzerService wires the service. publisher may be nil.
func NewAnalyzerService(runner *session.Runner, recorder *replay.Recorder, store repository.Store, publisher Publisher, logger *zap.Logger) *AnalyzerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyzerService{
		runner:    runner,
		recorder:  recorder,
		store:     store,
		publisher: publisher,
		logger:    logger,
	}
}

// Analyze loads the named recording from the replay directory and analyzes it.
// A recording whose fingerprint was already analyzed returns the stored report.
func (s *AnalyzerService) Analyze(ctx context.Context, name string) (*session.Report, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRecordingName, name)
	}

	rec, err := s.recorder.Load(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRecordingNotFound, name)
		}
		return nil, err
	}

	if fp, err := rec.Fingerprint(); err == nil {
		existing, err := s.store.FindByFingerprint(ctx, fp)
		switch {
		case err == nil:
			s.logger.Info("recording already analyzed",
				zap.String("recording", name),
				zap.String("session_id", existing.SessionID),
			)
			return existing, nil
		case !errors.Is(err, repository.ErrNotFound):
			return nil, fmt.Errorf("failed to look up fingerprint: %w", err)
		}
	}

	report, err := s.runner.Run(ctx, rec)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveReport(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to save report: %w", err)
	}
	if s.publisher != nil {
		s.publisher.Publish(report)
	}

	s.logger.Info("recording analyzed",
		zap.String("recording", name),
		zap.String("session_id", report.SessionID),
		zap.Int("suggestions", report.SuggestionCount()),
	)
	return report, nil
}

// Report returns a stored report.
func (s *AnalyzerService) Report(ctx context.Context, sessionID string) (*session.Report, error) {
	return s.store.GetReport(ctx, sessionID)
}

// Reports lists stored reports, newest first.
func (s *AnalyzerService) Reports(ctx context.Context, limit int) ([]repository.ReportSummary, error) {
	return s.store.ListReports(ctx, limit)
}

// Recordings lists the recordings available for analysis.
func (s *AnalyzerService) Recordings() ([]string, error) {
	return s.recorder.Saved()
}
