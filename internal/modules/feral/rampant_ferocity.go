package feral

import (
	"github.com/ElodielAirea/WoWAnalyzer/internal/analysis"
	"github.com/ElodielAirea/WoWAnalyzer/internal/combatlog"
	"github.com/ElodielAirea/WoWAnalyzer/internal/resource"
	"github.com/ElodielAirea/WoWAnalyzer/internal/spellbook"
	"github.com/ElodielAirea/WoWAnalyzer/internal/threshold"
	"go.uber.org/zap"
)

// RampantFerocityID identifies the Rampant Ferocity module.
const RampantFerocityID = "feral.rampant-ferocity"

// Bite sources splash damage is attributed to.
const (
	SourceHardcast resource.Source = "hardcast"
	SourceApex     resource.Source = "apex-predators-craving"
	SourceConvoke  resource.Source = "convoke-the-spirits"
)

// RampantFerocityDescriptor declares the Rampant Ferocity module.
func RampantFerocityDescriptor() analysis.Descriptor {
	return analysis.Descriptor{
		ID:           RampantFerocityID,
		Precondition: analysis.HasTalent(combatlog.SpellID(spellbook.RampantFerocityTalent)),
		New:          NewRampantFerocity,
	}
}

// RampantFerocity measures the splash damage of Ferocious Bite and which bite
// source produced it.
type RampantFerocity struct {
	*analysis.BaseModule
	biteHits   int
	splashHits int
	damage     *resource.Ledger
	attributor *resource.Attributor
}

// NewRampantFerocity constructs the module.
func NewRampantFerocity(opts analysis.Options) (analysis.Module, error) {
	m := &RampantFerocity{
		BaseModule: analysis.NewBaseModule(opts),
		damage:     resource.NewLedger(),
	}

	c := m.Combatant()
	m.attributor = resource.NewAttributor(SourceHardcast,
		resource.Rule{
			Category: SourceConvoke,
			Applies: func(ts int64) bool {
				return c.HasBuff(combatlog.SpellID(spellbook.ConvokeTheSpirits), ts, 0)
			},
		},
		resource.Rule{
			Category: SourceApex,
			Applies: func(ts int64) bool {
				return c.HasBuff(combatlog.SpellID(spellbook.ApexPredatorsBuff), ts, resource.BufferMS)
			},
		},
	)

	m.Subscribe(
		combatlog.On(combatlog.KindDamage).By(combatlog.SelectedPlayer).Spell(combatlog.SpellID(spellbook.FerociousBite)),
		m.onBite,
	)
	m.Subscribe(
		combatlog.On(combatlog.KindDamage).By(combatlog.SelectedPlayer).Spell(combatlog.SpellID(spellbook.RampantFerocityDamage)),
		m.onSplash,
	)
	return m, nil
}

func (m *RampantFerocity) onBite(combatlog.Event) {
	m.biteHits++
}

func (m *RampantFerocity) onSplash(e combatlog.Event) {
	m.splashHits++
	amount := e.Damage.Amount + e.Damage.Absorbed
	source := m.attributor.Attribute(e.Timestamp)
	if err := m.damage.OnGenerate(source, amount, 0); err != nil {
		m.Logger().Debug("ignored splash damage", zap.Int64("timestamp", e.Timestamp), zap.Error(err))
	}
}

// AvgTargetsHit returns splash hits per bite hit, 0 when nothing was bitten.
func (m *RampantFerocity) AvgTargetsHit() (float64, bool) {
	if !m.Active() {
		return 0, false
	}
	if m.biteHits == 0 {
		return 0, true
	}
	return float64(m.splashHits) / float64(m.biteHits), true
}

// DamageFrom returns the splash damage attributed to one bite source.
func (m *RampantFerocity) DamageFrom(source resource.Source) (int64, bool) {
	if !m.Active() {
		return 0, false
	}
	return m.damage.Generated(source), true
}

// TotalDamage returns all splash damage.
func (m *RampantFerocity) TotalDamage() (int64, bool) {
	if !m.Active() {
		return 0, false
	}
	return m.damage.TotalGenerated(), true
}

// Statistics implements analysis.StatisticsProvider.
func (m *RampantFerocity) Statistics() []analysis.Statistic {
	if !m.Active() {
		return nil
	}
	avg, _ := m.AvgTargetsHit()
	stats := []analysis.Statistic{
		{Name: "avg_targets_hit", Value: avg, Style: threshold.Number},
		{Name: "damage", Value: float64(m.damage.TotalGenerated()), Style: threshold.Number},
	}
	for _, source := range m.attributor.Categories() {
		stats = append(stats, analysis.Statistic{
			Name:  "damage_" + string(source),
			Value: float64(m.damage.Generated(source)),
			Style: threshold.Number,
		})
	}
	return stats
}
