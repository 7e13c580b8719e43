package analysis

import (
	"github.com/ElodielAirea/WoWAnalyzer/internal/combatant"
	"github.com/ElodielAirea/WoWAnalyzer/internal/combatlog"
	"github.com/ElodielAirea/WoWAnalyzer/internal/suggestion"
	"github.com/ElodielAirea/WoWAnalyzer/internal/threshold"
	"go.uber.org/zap"
)

// Module is an independent unit of analysis. Modules accumulate private state
// from the events they subscribe to during construction.
type Module interface {
	// ID returns the unique identifier of this module within a session.
	ID() string

	// Active reports whether the module's precondition held for this session.
	// Inactive modules hold no subscriptions and report nothing.
	Active() bool
}

// Statistic is a named numeric output of a module.
type Statistic struct {
	Name  string
	Value float64
	Style threshold.Style
}

// StatisticsProvider is implemented by modules exposing numeric outputs.
// Inactive modules return nil.
type StatisticsProvider interface {
	Statistics() []Statistic
}

// SuggestionProvider is implemented by modules emitting coaching suggestions.
// It is called once, after replay.
type SuggestionProvider interface {
	Suggestions() ([]suggestion.Suggestion, error)
}

// Fight is the time range of the analyzed encounter in recording milliseconds.
type Fight struct {
	Start int64
	End   int64
}

// Duration returns the fight length in milliseconds, never negative.
func (f Fight) Duration() int64 {
	if f.End < f.Start {
		return 0
	}
	return f.End - f.Start
}

// Options is everything a module factory receives. Dependencies are already
// constructed and resolved.
type Options struct {
	ID        string
	Active    bool
	Combatant *combatant.Combatant
	Registry  *combatlog.Registry
	Fight     Fight
	Deps      Deps
	Logger    *zap.Logger
}

// BaseModule provides the common module plumbing. Concrete modules embed it.
type BaseModule struct {
	id        string
	active    bool
	registry  *combatlog.Registry
	combatant *combatant.Combatant
	fight     Fight
	logger    *zap.Logger
}

// NewBaseModule creates the embedded base from factory options.
func NewBaseModule(opts Options) *BaseModule {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BaseModule{
		id:        opts.ID,
		active:    opts.Active,
		registry:  opts.Registry,
		combatant: opts.Combatant,
		fight:     opts.Fight,
		logger:    logger.With(zap.String("module", opts.ID)),
	}
}

// ID returns the module id.
func (m *BaseModule) ID() string { return m.id }

// Active reports whether the module is active.
func (m *BaseModule) Active() bool { return m.active }

// Combatant returns the analyzed player.
func (m *BaseModule) Combatant() *combatant.Combatant { return m.combatant }

// Fight returns the analyzed time range.
func (m *BaseModule) Fight() Fight { return m.fight }

// Logger returns a logger scoped to the module.
func (m *BaseModule) Logger() *zap.Logger { return m.logger }

// Subscribe registers a callback for events matching filter. It is a no-op
// returning -1 when the module is inactive.
func (m *BaseModule) Subscribe(filter combatlog.Filter, callback combatlog.Callback) int {
	if m.registry == nil {
		return -1
	}
	return m.registry.Register(filter, callback, m)
}

// HasTalent is a precondition satisfied when the player has the talent.
func HasTalent(id combatlog.SpellID) Precondition {
	return func(c *combatant.Combatant) bool {
		return c != nil && c.HasTalent(id)
	}
}

// IsSpec is a precondition satisfied when the player plays the given specialization.
func IsSpec(spec string) Precondition {
	return func(c *combatant.Combatant) bool {
		return c != nil && c.Spec() == spec
	}
}
