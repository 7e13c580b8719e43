package havoc

import (
	"github.com/ElodielAirea/WoWAnalyzer/internal/analysis"
	"github.com/ElodielAirea/WoWAnalyzer/internal/combatlog"
	"github.com/ElodielAirea/WoWAnalyzer/internal/resource"
	"github.com/ElodielAirea/WoWAnalyzer/internal/spellbook"
	"github.com/ElodielAirea/WoWAnalyzer/internal/suggestion"
	"github.com/ElodielAirea/WoWAnalyzer/internal/threshold"
	"go.uber.org/zap"
)

// DemonBladesID identifies the Demon Blades module.
const DemonBladesID = "havoc.demon-blades"

const demonBladesSource resource.Source = "demon-blades"

var demonBladesTiers = threshold.Tiers{Minor: 0.03, Average: 0.07, Major: 0.1}

// DemonBladesDescriptor declares the Demon Blades module.
func DemonBladesDescriptor() analysis.Descriptor {
	return analysis.Descriptor{
		ID:           DemonBladesID,
		Precondition: analysis.HasTalent(combatlog.SpellID(spellbook.DemonBladesTalent)),
		New:          NewDemonBlades,
	}
}

// DemonBlades tracks Fury generated by Demon Blades auto attacks and how much
// of it overflowed the Fury bar.
type DemonBlades struct {
	*analysis.BaseModule
	fury       *resource.Ledger
	damage     int64
	thresholds threshold.Config
}

// NewDemonBlades constructs the module.
func NewDemonBlades(opts analysis.Options) (analysis.Module, error) {
	cfg, err := threshold.NewConfig(threshold.GreaterThan, demonBladesTiers, threshold.Percentage)
	if err != nil {
		return nil, err
	}
	m := &DemonBlades{
		BaseModule: analysis.NewBaseModule(opts),
		fury:       resource.NewLedger(),
		thresholds: cfg,
	}

	spell := combatlog.SpellID(spellbook.DemonBladesFury)
	m.Subscribe(combatlog.On(combatlog.KindResourceChange).By(combatlog.SelectedPlayer).Spell(spell), m.onEnergize)
	m.Subscribe(combatlog.On(combatlog.KindDamage).By(combatlog.SelectedPlayer).Spell(spell), m.onDamage)
	return m, nil
}

func (m *DemonBlades) onEnergize(e combatlog.Event) {
	rc := e.ResourceChange
	if err := m.fury.OnGenerate(demonBladesSource, rc.Change, rc.Waste); err != nil {
		m.Logger().Debug("ignored fury gain", zap.Int64("timestamp", e.Timestamp), zap.Error(err))
	}
}

func (m *DemonBlades) onDamage(e combatlog.Event) {
	m.damage += e.Damage.Amount
}

// FuryGained returns the total Fury generated.
func (m *DemonBlades) FuryGained() (int64, bool) {
	if !m.Active() {
		return 0, false
	}
	return m.fury.TotalGenerated(), true
}

// FuryWasted returns the Fury that overflowed.
func (m *DemonBlades) FuryWasted() (int64, bool) {
	if !m.Active() {
		return 0, false
	}
	return m.fury.TotalWasted(), true
}

// FuryPerMinute returns effective Fury per minute of fight time.
func (m *DemonBlades) FuryPerMinute() (float64, bool) {
	if !m.Active() {
		return 0, false
	}
	return m.fury.RatePerMinute(m.Fight().Duration()), true
}

// Damage returns the damage dealt by Demon Blades.
func (m *DemonBlades) Damage() (int64, bool) {
	if !m.Active() {
		return 0, false
	}
	return m.damage, true
}

// SuggestionThresholds grades the share of Fury wasted.
func (m *DemonBlades) SuggestionThresholds() threshold.Spec {
	return m.thresholds.Spec(m.fury.WasteRatio())
}

// Statistics implements analysis.StatisticsProvider.
func (m *DemonBlades) Statistics() []analysis.Statistic {
	if !m.Active() {
		return nil
	}
	return []analysis.Statistic{
		{Name: "fury_per_minute", Value: m.fury.RatePerMinute(m.Fight().Duration()), Style: threshold.Number},
		{Name: "fury_gained", Value: float64(m.fury.TotalGenerated()), Style: threshold.Number},
		{Name: "fury_effective", Value: float64(m.fury.EffectiveTotal()), Style: threshold.Number},
		{Name: "fury_wasted", Value: float64(m.fury.TotalWasted()), Style: threshold.Number},
		{Name: "fury_waste_ratio", Value: m.fury.WasteRatio(), Style: threshold.Percentage},
		{Name: "damage", Value: float64(m.damage), Style: threshold.Number},
	}
}

// Suggestions implements analysis.SuggestionProvider.
func (m *DemonBlades) Suggestions() ([]suggestion.Suggestion, error) {
	if !m.Active() {
		return nil, nil
	}
	s, err := suggestion.When(m.SuggestionThresholds(), func(b suggestion.Builder, actual, recommended string) suggestion.Builder {
		return b.
			WithRationale(suggestion.Rationale(
				"Be mindful of your Fury levels and spend it before capping your Fury due to {talent}.",
				suggestion.SpellSlot("talent", spellbook.DemonBladesTalent),
			)).
			WithIcon("inv_weapon_shortblade_92").
			WithActual(actual + " Fury wasted").
			WithRecommended(recommended + " is recommended.")
	})
	if err != nil || s == nil {
		return nil, err
	}
	return []suggestion.Suggestion{*s}, nil
}
