package fury

import (
	"github.com/ElodielAirea/WoWAnalyzer/internal/analysis"
	"github.com/ElodielAirea/WoWAnalyzer/internal/suggestion"
	"github.com/ElodielAirea/WoWAnalyzer/internal/threshold"
)

// RageDetailsID identifies the Rage details module.
const RageDetailsID = "fury.rage-details"

var (
	wasteTiers      = threshold.Tiers{Minor: 0.05, Average: 0.1, Major: 0.15}
	efficiencyTiers = threshold.Tiers{Minor: 0.95, Average: 0.9, Major: 0.85}
)

// RageDetailsDescriptor declares the Rage details module.
func RageDetailsDescriptor() analysis.Descriptor {
	return analysis.Descriptor{
		ID:           RageDetailsID,
		Dependencies: []string{RageTrackerID},
		Precondition: analysis.IsSpec(Spec),
		New:          NewRageDetails,
	}
}

// RageDetails grades how much generated Rage was lost to capping.
type RageDetails struct {
	*analysis.BaseModule
	tracker    *RageTracker
	waste      threshold.Config
	efficiency threshold.Config
}

// NewRageDetails constructs the module.
func NewRageDetails(opts analysis.Options) (analysis.Module, error) {
	tracker, err := analysis.Dependency[*RageTracker](opts.Deps, RageTrackerID)
	if err != nil {
		return nil, err
	}
	waste, err := threshold.NewConfig(threshold.GreaterThan, wasteTiers, threshold.Percentage)
	if err != nil {
		return nil, err
	}
	efficiency, err := threshold.NewConfig(threshold.LessThan, efficiencyTiers, threshold.Percentage)
	if err != nil {
		return nil, err
	}
	return &RageDetails{
		BaseModule: analysis.NewBaseModule(opts),
		tracker:    tracker,
		waste:      waste,
		efficiency: efficiency,
	}, nil
}

// WastedPercent returns the share of generated Rage that was wasted.
func (m *RageDetails) WastedPercent() (float64, bool) {
	if !m.Active() {
		return 0, false
	}
	return m.tracker.Rage().WasteRatio(), true
}

// SuggestionThresholds grades the wasted share.
func (m *RageDetails) SuggestionThresholds() threshold.Spec {
	return m.waste.Spec(m.tracker.Rage().WasteRatio())
}

// EfficiencyThresholds grades the share of Rage that was not wasted.
func (m *RageDetails) EfficiencyThresholds() threshold.Spec {
	return m.efficiency.Spec(1 - m.tracker.Rage().WasteRatio())
}

// Statistics implements analysis.StatisticsProvider.
func (m *RageDetails) Statistics() []analysis.Statistic {
	if !m.Active() {
		return nil
	}
	rage := m.tracker.Rage()
	return []analysis.Statistic{
		{Name: "rage_wasted_percent", Value: rage.WasteRatio(), Style: threshold.Percentage},
		{Name: "rage_efficiency", Value: 1 - rage.WasteRatio(), Style: threshold.Percentage},
	}
}

// Suggestions implements analysis.SuggestionProvider.
func (m *RageDetails) Suggestions() ([]suggestion.Suggestion, error) {
	if !m.Active() {
		return nil, nil
	}
	spec := m.SuggestionThresholds()
	s, err := suggestion.When(spec, func(b suggestion.Builder, actual, recommended string) suggestion.Builder {
		return b.
			WithRationale(suggestion.Rationale(
				"You wasted {wasted} of your Rage.",
				suggestion.TextSlot("wasted", spec.FormatActual()),
			)).
			WithIcon("spell_nature_reincarnation").
			WithActual(actual + " wasted").
			WithRecommended("<" + recommended + " is recommended")
	})
	if err != nil || s == nil {
		return nil, err
	}
	return []suggestion.Suggestion{*s}, nil
}
