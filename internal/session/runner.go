// Package session drives the analysis of a single recorded session: it builds
// the subscription registry and module host, replays the events in order and
// collects every module's output into a Report.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ElodielAirea/WoWAnalyzer/internal/analysis"
	"github.com/ElodielAirea/WoWAnalyzer/internal/combatant"
	"github.com/ElodielAirea/WoWAnalyzer/internal/combatlog"
	"github.com/ElodielAirea/WoWAnalyzer/internal/diagnostics"
	"github.com/ElodielAirea/WoWAnalyzer/internal/replay"
	"github.com/ElodielAirea/WoWAnalyzer/internal/spellbook"
	"github.com/ElodielAirea/WoWAnalyzer/internal/threshold"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNilRecording is returned when Run is called without a recording.
var ErrNilRecording = errors.New("nil recording")

// cancelCheckInterval is how many events are dispatched between context checks.
const cancelCheckInterval = 1024

// Runner analyzes recordings with a fixed set of module descriptors. A Runner
// holds no per-session state, so one Runner may analyze many sessions
// concurrently; each Run builds its own registry and modules.
type Runner struct {
	descriptors []analysis.Descriptor
	spells      *spellbook.Table
	logger      *zap.Logger
	now         func() time.Time
}

// NewRunner creates a runner. A nil spell table falls back to the built-in one.
func NewRunner(descriptors []analysis.Descriptor, spells *spellbook.Table, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if spells == nil {
		spells = spellbook.Builtin()
	}
	return &Runner{
		descriptors: append([]analysis.Descriptor(nil), descriptors...),
		spells:      spells,
		logger:      logger,
		now:         time.Now,
	}
}

// Run analyzes one recording. Setup failures such as dependency cycles abort
// before any event is dispatched. Malformed events are dropped and counted in
// the report diagnostics.
func (r *Runner) Run(ctx context.Context, rec *replay.Recording) (*Report, error) {
	if rec == nil {
		return nil, ErrNilRecording
	}

	sessionID := rec.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	logger := r.logger.With(zap.String("session_id", sessionID))
	collector := diagnostics.NewCollector(logger)

	events := make([]combatlog.Event, 0, len(rec.Events))
	for i, e := range rec.Events {
		if err := combatlog.Validate(i, e); err != nil {
			collector.ReportMalformed(err)
			continue
		}
		events = append(events, e)
	}

	player := combatant.New(rec.Combatant, events)
	registry := combatlog.NewRegistry(player.ID())

	host, err := analysis.Instantiate(analysis.Environment{
		Combatant: player,
		Registry:  registry,
		Fight:     rec.Fight,
	}, r.descriptors, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to set up session %s: %w", sessionID, err)
	}

	logger.Info("replaying session",
		zap.Int("events", len(events)),
		zap.Int("dropped", collector.MalformedCount()),
		zap.Int("modules", host.Len()),
		zap.Int("active_modules", len(host.ActiveModules())),
		zap.Int("subscriptions", registry.Len()),
	)

	for i, e := range events {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("session %s cancelled: %w", sessionID, err)
			}
		}
		registry.Dispatch(e)
	}

	report := &Report{
		SessionID:  sessionID,
		PlayerID:   int64(player.ID()),
		PlayerName: player.Name(),
		Spec:       player.Spec(),
		DurationMs: rec.Fight.Duration(),
		EventCount: len(events),
		CreatedAt:  r.now().UTC(),
	}
	if fp, err := rec.Fingerprint(); err == nil {
		report.Fingerprint = fp
	} else {
		collector.Warn("failed to fingerprint recording", zap.Error(err))
	}

	for _, m := range host.Modules() {
		report.Modules = append(report.Modules, r.collect(m, collector))
	}
	report.Diagnostics = collector.Summary()

	logger.Info("session analyzed",
		zap.Int("suggestions", report.SuggestionCount()),
		zap.Int("malformed_events", report.Diagnostics.MalformedEvents),
	)
	return report, nil
}

func (r *Runner) collect(m analysis.Module, collector *diagnostics.Collector) ModuleReport {
	mr := ModuleReport{ID: m.ID(), Active: m.Active()}
	if !m.Active() {
		return mr
	}

	if p, ok := m.(analysis.StatisticsProvider); ok {
		for _, s := range p.Statistics() {
			mr.Statistics = append(mr.Statistics, StatisticReport{
				Name:      s.Name,
				Value:     s.Value,
				Style:     s.Style.String(),
				Formatted: threshold.Format(s.Value, s.Style),
			})
		}
	}

	if p, ok := m.(analysis.SuggestionProvider); ok {
		suggestions, err := p.Suggestions()
		if err != nil {
			collector.Warn("module suggestions failed", zap.String("module", m.ID()), zap.Error(err))
			return mr
		}
		for _, s := range suggestions {
			mr.Suggestions = append(mr.Suggestions, SuggestionReport{
				Severity:    s.Severity().String(),
				Text:        s.Render(r.spells),
				Icon:        s.Icon(),
				Actual:      s.Actual(),
				Recommended: s.Recommended(),
			})
		}
	}
	return mr
}
