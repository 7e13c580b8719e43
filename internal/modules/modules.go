// Package modules lists the analysis modules bundled with the analyzer.
package modules

import (
	"github.com/ElodielAirea/WoWAnalyzer/internal/analysis"
	"github.com/ElodielAirea/WoWAnalyzer/internal/modules/feral"
	"github.com/ElodielAirea/WoWAnalyzer/internal/modules/fury"
	"github.com/ElodielAirea/WoWAnalyzer/internal/modules/havoc"
)

// All returns the descriptors of every bundled module. Only the modules whose
// preconditions hold for a session become active.
func All() []analysis.Descriptor {
	return []analysis.Descriptor{
		havoc.DemonBladesDescriptor(),
		havoc.FelBarrageDescriptor(),
		feral.RampantFerocityDescriptor(),
		fury.RageTrackerDescriptor(),
		fury.RageDetailsDescriptor(),
	}
}
