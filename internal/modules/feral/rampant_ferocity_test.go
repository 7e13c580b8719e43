package feral

import (
	"testing"

	"github.com/ElodielAirea/WoWAnalyzer/internal/analysis"
	"github.com/ElodielAirea/WoWAnalyzer/internal/combatant"
	"github.com/ElodielAirea/WoWAnalyzer/internal/combatlog"
	"github.com/ElodielAirea/WoWAnalyzer/internal/spellbook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	player combatlog.ActorID = 1
	boss   combatlog.ActorID = 2
	add    combatlog.ActorID = 3
)

func newModule(t *testing.T, talents []combatlog.SpellID, events []combatlog.Event) *RampantFerocity {
	t.Helper()
	env := analysis.Environment{
		Combatant: combatant.New(combatant.Info{PlayerID: player, Spec: "druid-feral", Talents: talents}, events),
		Registry:  combatlog.NewRegistry(player),
		Fight:     analysis.Fight{Start: 0, End: 60000},
	}
	host, err := analysis.Instantiate(env, []analysis.Descriptor{RampantFerocityDescriptor()}, nil)
	require.NoError(t, err)
	env.Registry.DispatchAll(events)

	mod, ok := host.Module(RampantFerocityID)
	require.True(t, ok)
	return mod.(*RampantFerocity)
}

func bite(ts int64) combatlog.Event {
	return combatlog.NewDamage(ts, player, boss, combatlog.SpellID(spellbook.FerociousBite), 10000, 0)
}

func splash(ts, amount, absorbed int64) combatlog.Event {
	return combatlog.NewDamage(ts, player, add, combatlog.SpellID(spellbook.RampantFerocityDamage), amount, absorbed)
}

func buff(kind combatlog.Kind, ts int64, spell int64) combatlog.Event {
	return combatlog.NewBuff(kind, ts, player, player, combatlog.SpellID(spell))
}

func TestRampantFerocityAttribution(t *testing.T) {
	talent := []combatlog.SpellID{combatlog.SpellID(spellbook.RampantFerocityTalent)}
	events := []combatlog.Event{
		bite(1000),
		splash(1000, 100, 20),
		splash(1000, 100, 0),
		// Apex buff logged 40ms after the bite still explains it.
		bite(1960),
		splash(2000, 300, 0),
		buff(combatlog.KindApplyBuff, 2040, spellbook.ApexPredatorsBuff),
		buff(combatlog.KindRemoveBuff, 2100, spellbook.ApexPredatorsBuff),
		buff(combatlog.KindApplyBuff, 5000, spellbook.ConvokeTheSpirits),
		bite(5500),
		splash(5500, 50, 0),
		buff(combatlog.KindRemoveBuff, 8000, spellbook.ConvokeTheSpirits),
	}
	m := newModule(t, talent, events)

	avg, ok := m.AvgTargetsHit()
	require.True(t, ok)
	assert.InDelta(t, 4.0/3.0, avg, 1e-9)

	hard, _ := m.DamageFrom(SourceHardcast)
	apex, _ := m.DamageFrom(SourceApex)
	convoke, _ := m.DamageFrom(SourceConvoke)
	assert.Equal(t, int64(220), hard)
	assert.Equal(t, int64(300), apex)
	assert.Equal(t, int64(50), convoke)

	total, _ := m.TotalDamage()
	assert.Equal(t, int64(570), total)

	stats := m.Statistics()
	require.Len(t, stats, 5)
	assert.Equal(t, "avg_targets_hit", stats[0].Name)
	assert.Equal(t, "damage_convoke-the-spirits", stats[2].Name)
	assert.Equal(t, "damage_hardcast", stats[4].Name)
}

func TestRampantFerocityBufferBoundary(t *testing.T) {
	talent := []combatlog.SpellID{combatlog.SpellID(spellbook.RampantFerocityTalent)}
	events := []combatlog.Event{
		splash(1000, 10, 0),
		splash(1050, 20, 0),
		buff(combatlog.KindApplyBuff, 1100, spellbook.ApexPredatorsBuff),
	}
	m := newModule(t, talent, events)

	hard, _ := m.DamageFrom(SourceHardcast)
	apex, _ := m.DamageFrom(SourceApex)
	assert.Equal(t, int64(10), hard)
	assert.Equal(t, int64(20), apex)
}

func TestRampantFerocityNoBites(t *testing.T) {
	talent := []combatlog.SpellID{combatlog.SpellID(spellbook.RampantFerocityTalent)}
	m := newModule(t, talent, nil)

	avg, ok := m.AvgTargetsHit()
	assert.True(t, ok)
	assert.Zero(t, avg)
}

func TestRampantFerocityInactive(t *testing.T) {
	m := newModule(t, nil, []combatlog.Event{bite(1000), splash(1000, 10, 0)})

	assert.False(t, m.Active())
	_, ok := m.TotalDamage()
	assert.False(t, ok)
	assert.Nil(t, m.Statistics())
}
