package havoc

import (
	"github.com/ElodielAirea/WoWAnalyzer/internal/analysis"
	"github.com/ElodielAirea/WoWAnalyzer/internal/combatlog"
	"github.com/ElodielAirea/WoWAnalyzer/internal/spellbook"
	"github.com/ElodielAirea/WoWAnalyzer/internal/suggestion"
	"github.com/ElodielAirea/WoWAnalyzer/internal/threshold"
)

// FelBarrageID identifies the Fel Barrage module.
const FelBarrageID = "havoc.fel-barrage"

var felBarrageTiers = threshold.Tiers{Minor: 0, Average: 0, Major: 1}

// FelBarrageDescriptor declares the Fel Barrage module.
func FelBarrageDescriptor() analysis.Descriptor {
	return analysis.Descriptor{
		ID:           FelBarrageID,
		Precondition: analysis.HasTalent(combatlog.SpellID(spellbook.FelBarrageTalent)),
		New:          NewFelBarrage,
	}
}

// FelBarrage counts Fel Barrage casts made outside of Metamorphosis.
type FelBarrage struct {
	*analysis.BaseModule
	damage     int64
	casts      int
	badCasts   int
	thresholds threshold.Config
}

// NewFelBarrage constructs the module.
func NewFelBarrage(opts analysis.Options) (analysis.Module, error) {
	cfg, err := threshold.NewConfig(threshold.GreaterThan, felBarrageTiers, threshold.Number)
	if err != nil {
		return nil, err
	}
	m := &FelBarrage{
		BaseModule: analysis.NewBaseModule(opts),
		thresholds: cfg,
	}

	m.Subscribe(
		combatlog.On(combatlog.KindDamage).By(combatlog.SelectedPlayer).Spell(combatlog.SpellID(spellbook.FelBarrageDamage)),
		m.onDamage,
	)
	m.Subscribe(
		combatlog.On(combatlog.KindCast).By(combatlog.SelectedPlayer).Spell(combatlog.SpellID(spellbook.FelBarrageTalent)),
		m.onCast,
	)
	return m, nil
}

func (m *FelBarrage) onDamage(e combatlog.Event) {
	m.damage += e.Damage.Amount
}

func (m *FelBarrage) onCast(e combatlog.Event) {
	m.casts++
	if !m.Combatant().HasBuff(combatlog.SpellID(spellbook.MetamorphosisBuff), e.Timestamp, 0) {
		m.badCasts++
	}
}

// Casts returns the number of Fel Barrage casts.
func (m *FelBarrage) Casts() (int, bool) {
	if !m.Active() {
		return 0, false
	}
	return m.casts, true
}

// BadCasts returns the number of casts made without Metamorphosis.
func (m *FelBarrage) BadCasts() (int, bool) {
	if !m.Active() {
		return 0, false
	}
	return m.badCasts, true
}

// SuggestionThresholds grades the number of bad casts.
func (m *FelBarrage) SuggestionThresholds() threshold.Spec {
	return m.thresholds.Spec(float64(m.badCasts))
}

// Statistics implements analysis.StatisticsProvider.
func (m *FelBarrage) Statistics() []analysis.Statistic {
	if !m.Active() {
		return nil
	}
	return []analysis.Statistic{
		{Name: "casts", Value: float64(m.casts), Style: threshold.Number},
		{Name: "bad_casts", Value: float64(m.badCasts), Style: threshold.Number},
		{Name: "damage", Value: float64(m.damage), Style: threshold.Number},
	}
}

// Suggestions implements analysis.SuggestionProvider.
func (m *FelBarrage) Suggestions() ([]suggestion.Suggestion, error) {
	if !m.Active() {
		return nil, nil
	}
	s, err := suggestion.When(m.SuggestionThresholds(), func(b suggestion.Builder, actual, _ string) suggestion.Builder {
		return b.
			WithRationale(suggestion.Rationale(
				"Try to cast {talent} during {meta}.",
				suggestion.SpellSlot("talent", spellbook.FelBarrageTalent),
				suggestion.SpellSlot("meta", spellbook.MetamorphosisHavoc),
			)).
			WithIcon("inv_felbarrage").
			WithActual(actual + " bad casts without Metamorphosis.").
			WithRecommended("No bad casts is recommended.")
	})
	if err != nil || s == nil {
		return nil, err
	}
	return []suggestion.Suggestion{*s}, nil
}
