package session

import (
	"context"
	"errors"
	"testing"

	"github.com/ElodielAirea/WoWAnalyzer/internal/analysis"
	"github.com/ElodielAirea/WoWAnalyzer/internal/combatant"
	"github.com/ElodielAirea/WoWAnalyzer/internal/combatlog"
	"github.com/ElodielAirea/WoWAnalyzer/internal/modules"
	"github.com/ElodielAirea/WoWAnalyzer/internal/modules/feral"
	"github.com/ElodielAirea/WoWAnalyzer/internal/modules/fury"
	"github.com/ElodielAirea/WoWAnalyzer/internal/modules/havoc"
	"github.com/ElodielAirea/WoWAnalyzer/internal/replay"
	"github.com/ElodielAirea/WoWAnalyzer/internal/spellbook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const player combatlog.ActorID = 100

func havocRecording(events ...combatlog.Event) *replay.Recording {
	return &replay.Recording{
		SessionID: "havoc-1",
		Combatant: combatant.Info{
			PlayerID: player,
			Name:     "Kayn",
			Spec:     "demonhunter-havoc",
			Talents:  []combatlog.SpellID{combatlog.SpellID(spellbook.DemonBladesTalent)},
		},
		Fight:  analysis.Fight{Start: 0, End: 60000},
		Events: events,
	}
}

func TestRunEmptyStream(t *testing.T) {
	runner := NewRunner(modules.All(), nil, zap.NewNop())

	report, err := runner.Run(context.Background(), havocRecording())
	require.NoError(t, err)

	assert.Equal(t, "havoc-1", report.SessionID)
	assert.Equal(t, int64(player), report.PlayerID)
	assert.Equal(t, int64(60000), report.DurationMs)
	assert.Zero(t, report.EventCount)
	assert.NotEmpty(t, report.Fingerprint)
	require.Len(t, report.Modules, 5)

	db, ok := report.Module(havoc.DemonBladesID)
	require.True(t, ok)
	assert.True(t, db.Active)
	assert.Empty(t, db.Suggestions)
	for _, s := range db.Statistics {
		assert.Zero(t, s.Value, s.Name)
	}

	active := report.ActiveModules()
	require.Len(t, active, 1)
	assert.Equal(t, havoc.DemonBladesID, active[0].ID)
}

func TestRunInactiveModulesReportNothing(t *testing.T) {
	runner := NewRunner(modules.All(), nil, nil)
	rec := havocRecording(
		combatlog.NewResourceChange(1000, player, 23881, combatlog.ResourceRage, 20, 10),
		combatlog.NewDamage(1000, player, 2, combatlog.SpellID(spellbook.RampantFerocityDamage), 500, 0),
	)

	report, err := runner.Run(context.Background(), rec)
	require.NoError(t, err)

	for _, id := range []string{havoc.FelBarrageID, feral.RampantFerocityID, fury.RageTrackerID, fury.RageDetailsID} {
		m, ok := report.Module(id)
		require.True(t, ok, id)
		assert.False(t, m.Active, id)
		assert.Nil(t, m.Statistics, id)
		assert.Nil(t, m.Suggestions, id)
	}
}

func TestRunDropsMalformedEvents(t *testing.T) {
	runner := NewRunner(modules.All(), nil, nil)
	bad := combatlog.Event{Kind: combatlog.KindDamage, Timestamp: 1500, SourceID: player, SpellID: combatlog.SpellID(spellbook.DemonBladesFury)}
	rec := havocRecording(
		combatlog.NewResourceChange(1000, player, combatlog.SpellID(spellbook.DemonBladesFury), combatlog.ResourceFury, 20, 0),
		bad,
		combatlog.Event{Kind: "unknown", Timestamp: 1600, SourceID: player},
		combatlog.NewResourceChange(2000, player, combatlog.SpellID(spellbook.DemonBladesFury), combatlog.ResourceFury, 20, 20),
	)

	report, err := runner.Run(context.Background(), rec)
	require.NoError(t, err)

	assert.Equal(t, 2, report.EventCount)
	assert.Equal(t, 2, report.Diagnostics.MalformedEvents)
	assert.Len(t, report.Diagnostics.Samples, 2)

	db, _ := report.Module(havoc.DemonBladesID)
	require.Len(t, db.Suggestions, 1)
	s := db.Suggestions[0]
	assert.Equal(t, "major", s.Severity)
	assert.Equal(t, "50.00% Fury wasted", s.Actual)
	assert.Equal(t, "Be mindful of your Fury levels and spend it before capping your Fury due to Demon Blades.", s.Text)
}

func TestRunCountsWasteAboveChangeAsMalformed(t *testing.T) {
	runner := NewRunner(modules.All(), nil, nil)
	fury := combatlog.SpellID(spellbook.DemonBladesFury)
	rec := havocRecording(
		combatlog.NewResourceChange(1000, player, fury, combatlog.ResourceFury, 20, 0),
		combatlog.NewResourceChange(2000, player, fury, combatlog.ResourceFury, 20, 25),
	)

	report, err := runner.Run(context.Background(), rec)
	require.NoError(t, err)

	assert.Equal(t, 1, report.EventCount)
	assert.Equal(t, 1, report.Diagnostics.MalformedEvents)
	assert.Equal(t, 1, report.Diagnostics.ByReason["waste exceeds change"])
}

func TestRunCyclicDependenciesAbortBeforeReplay(t *testing.T) {
	dispatched := 0
	factory := func(opts analysis.Options) (analysis.Module, error) {
		m := analysis.NewBaseModule(opts)
		m.Subscribe(combatlog.On(combatlog.KindCast), func(combatlog.Event) { dispatched++ })
		return m, nil
	}
	descriptors := []analysis.Descriptor{
		{ID: "a", Dependencies: []string{"b"}, New: factory},
		{ID: "b", Dependencies: []string{"a"}, New: factory},
	}
	runner := NewRunner(descriptors, nil, nil)

	_, err := runner.Run(context.Background(), havocRecording(combatlog.NewCast(1, player, 1)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, analysis.ErrCyclicDependency))
	assert.Zero(t, dispatched)
}

func TestRunDispatchesInOrder(t *testing.T) {
	var seen []int64
	descriptors := []analysis.Descriptor{{
		ID: "order",
		New: func(opts analysis.Options) (analysis.Module, error) {
			m := analysis.NewBaseModule(opts)
			m.Subscribe(combatlog.On(combatlog.KindCast).By(combatlog.SelectedPlayer), func(e combatlog.Event) {
				seen = append(seen, e.Timestamp)
			})
			return m, nil
		},
	}}
	rec := havocRecording(
		combatlog.NewCast(10, player, 1),
		combatlog.NewCast(10, player, 2),
		combatlog.NewCast(20, 999, 3),
		combatlog.NewCast(30, player, 4),
	)

	_, err := NewRunner(descriptors, nil, nil).Run(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 10, 30}, seen)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(modules.All(), nil, nil).Run(ctx, havocRecording(combatlog.NewCast(1, player, 1)))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunAssignsSessionID(t *testing.T) {
	rec := havocRecording()
	rec.SessionID = ""

	report, err := NewRunner(nil, nil, nil).Run(context.Background(), rec)
	require.NoError(t, err)
	assert.Len(t, report.SessionID, 36)
	assert.Empty(t, report.Modules)
}

func TestRunNilRecording(t *testing.T) {
	_, err := NewRunner(nil, nil, nil).Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNilRecording)
}
