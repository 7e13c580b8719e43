package fury

import (
	"strconv"

	"github.com/ElodielAirea/WoWAnalyzer/internal/analysis"
	"github.com/ElodielAirea/WoWAnalyzer/internal/combatlog"
	"github.com/ElodielAirea/WoWAnalyzer/internal/resource"
	"github.com/ElodielAirea/WoWAnalyzer/internal/threshold"
	"go.uber.org/zap"
)

// Spec is the specialization key these modules apply to.
const Spec = "warrior-fury"

// RageTrackerID identifies the Rage tracker module.
const RageTrackerID = "fury.rage-tracker"

// RageTrackerDescriptor declares the Rage tracker module.
func RageTrackerDescriptor() analysis.Descriptor {
	return analysis.Descriptor{
		ID:           RageTrackerID,
		Precondition: analysis.IsSpec(Spec),
		New:          NewRageTracker,
	}
}

// RageTracker keeps a per-spell ledger of Rage generated, wasted and spent by
// the selected player.
type RageTracker struct {
	*analysis.BaseModule
	rage *resource.Ledger
}

// NewRageTracker constructs the module.
func NewRageTracker(opts analysis.Options) (analysis.Module, error) {
	m := &RageTracker{
		BaseModule: analysis.NewBaseModule(opts),
		rage:       resource.NewLedger(),
	}
	m.Subscribe(combatlog.On(combatlog.KindResourceChange).By(combatlog.SelectedPlayer), m.onResourceChange)
	m.Subscribe(combatlog.On(combatlog.KindCast).By(combatlog.SelectedPlayer), m.onCast)
	return m, nil
}

// SpellSource is the ledger tag used for a spell.
func SpellSource(id combatlog.SpellID) resource.Source {
	return resource.Source(strconv.FormatInt(int64(id), 10))
}

func (m *RageTracker) onResourceChange(e combatlog.Event) {
	rc := e.ResourceChange
	if rc.ResourceType != combatlog.ResourceRage {
		return
	}
	if err := m.rage.OnGenerate(SpellSource(e.SpellID), rc.Change, rc.Waste); err != nil {
		m.Logger().Debug("ignored rage gain", zap.Int64("timestamp", e.Timestamp), zap.Error(err))
	}
}

func (m *RageTracker) onCast(e combatlog.Event) {
	c := e.Cast
	if c == nil || c.ResourceType != combatlog.ResourceRage || c.Cost <= 0 {
		return
	}
	if err := m.rage.OnSpend(SpellSource(e.SpellID), c.Cost); err != nil {
		m.Logger().Debug("ignored rage spend", zap.Int64("timestamp", e.Timestamp), zap.Error(err))
	}
}

// Rage returns the read-only Rage ledger.
func (m *RageTracker) Rage() resource.View {
	return m.rage
}

// Statistics implements analysis.StatisticsProvider.
func (m *RageTracker) Statistics() []analysis.Statistic {
	if !m.Active() {
		return nil
	}
	return []analysis.Statistic{
		{Name: "rage_generated", Value: float64(m.rage.TotalGenerated()), Style: threshold.Number},
		{Name: "rage_wasted", Value: float64(m.rage.TotalWasted()), Style: threshold.Number},
		{Name: "rage_spent", Value: float64(m.rage.TotalSpent()), Style: threshold.Number},
		{Name: "rage_per_minute", Value: m.rage.RatePerMinute(m.Fight().Duration()), Style: threshold.Number},
	}
}
