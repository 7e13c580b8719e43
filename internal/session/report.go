package session

import (
	"time"

	"github.com/ElodielAirea/WoWAnalyzer/internal/diagnostics"
)

// Report is the outcome of analyzing one session.
type Report struct {
	SessionID   string              `json:"session_id"`
	Fingerprint string              `json:"fingerprint,omitempty"`
	PlayerID    int64               `json:"player_id"`
	PlayerName  string              `json:"player_name,omitempty"`
	Spec        string              `json:"spec,omitempty"`
	DurationMs  int64               `json:"duration_ms"`
	EventCount  int                 `json:"event_count"`
	CreatedAt   time.Time           `json:"created_at"`
	Modules     []ModuleReport      `json:"modules"`
	Diagnostics diagnostics.Summary `json:"diagnostics"`
}

// ModuleReport is what one module contributed to a report. Inactive modules
// are listed without statistics or suggestions.
type ModuleReport struct {
	ID          string             `json:"id"`
	Active      bool               `json:"active"`
	Statistics  []StatisticReport  `json:"statistics,omitempty"`
	Suggestions []SuggestionReport `json:"suggestions,omitempty"`
}

// StatisticReport is a module statistic with its display form.
type StatisticReport struct {
	Name      string  `json:"name"`
	Value     float64 `json:"value"`
	Style     string  `json:"style"`
	Formatted string  `json:"formatted"`
}

// SuggestionReport is a rendered suggestion.
type SuggestionReport struct {
	Severity    string `json:"severity"`
	Text        string `json:"text"`
	Icon        string `json:"icon,omitempty"`
	Actual      string `json:"actual"`
	Recommended string `json:"recommended"`
}

// ActiveModules returns the reports of modules that were active.
func (r *Report) ActiveModules() []ModuleReport {
	var out []ModuleReport
	for _, m := range r.Modules {
		if m.Active {
			out = append(out, m)
		}
	}
	return out
}

// Module returns the report of a module by id.
func (r *Report) Module(id string) (ModuleReport, bool) {
	for _, m := range r.Modules {
		if m.ID == id {
			return m, true
		}
	}
	return ModuleReport{}, false
}

// SuggestionCount returns the number of suggestions across all modules.
func (r *Report) SuggestionCount() int {
	n := 0
	for _, m := range r.Modules {
		n += len(m.Suggestions)
	}
	return n
}
