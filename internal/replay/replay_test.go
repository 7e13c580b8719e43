package replay

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ElodielAirea/WoWAnalyzer/internal/analysis"
	"github.com/ElodielAirea/WoWAnalyzer/internal/combatant"
	"github.com/ElodielAirea/WoWAnalyzer/internal/combatlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleRecording(sessionID string) *Recording {
	return &Recording{
		SessionID: sessionID,
		Combatant: combatant.Info{
			PlayerID: 1,
			Name:     "Illidari",
			Spec:     "demonhunter-havoc",
			Talents:  []combatlog.SpellID{203555},
		},
		Fight: analysis.Fight{Start: 0, End: 30000},
		Events: []combatlog.Event{
			combatlog.NewCast(100, 1, 258925),
			combatlog.NewResourceChange(200, 1, 203796, combatlog.ResourceFury, 20, 4),
			combatlog.NewDamage(300, 1, 2, 203796, 500, 25),
			combatlog.NewBuff(combatlog.KindApplyBuff, 400, 1, 1, 162264),
		},
	}
}

func TestRecordingSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	rec := sampleRecording("session-1")

	require.NoError(t, rec.SaveToFile(dir))

	_, err := os.Stat(filepath.Join(dir, "session-1.replay"))
	require.NoError(t, err)

	loaded, err := LoadFromFile(dir, "session-1")
	require.NoError(t, err)
	assert.Equal(t, rec.SessionID, loaded.SessionID)
	assert.Equal(t, rec.Combatant, loaded.Combatant)
	assert.Equal(t, rec.Fight, loaded.Fight)
	assert.Equal(t, rec.Events, loaded.Events)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadFromFile(t.TempDir(), "nope")
	assert.Error(t, err)
}

func TestFingerprint(t *testing.T) {
	a := sampleRecording("a")
	b := sampleRecording("b")

	fa, err := a.Fingerprint()
	require.NoError(t, err)
	fb, err := b.Fingerprint()
	require.NoError(t, err)
	assert.Len(t, fa, 64)
	assert.Equal(t, fa, fb, "session id must not affect the fingerprint")

	b.Events = b.Events[:3]
	fb, err = b.Fingerprint()
	require.NoError(t, err)
	assert.NotEqual(t, fa, fb)
}

func TestRecorderLifecycle(t *testing.T) {
	dir := t.TempDir()
	rr := NewRecorder(zap.NewNop(), dir)
	info := combatant.Info{PlayerID: 1, Spec: "warrior-fury"}

	rr.StartRecording("s1", info, analysis.Fight{End: 1000})
	assert.True(t, rr.IsRecording("s1"))

	rr.Record("s1", combatlog.NewCast(10, 1, 100))
	rr.Record("s1", combatlog.NewCast(20, 1, 101))
	rr.Record("unknown", combatlog.NewCast(20, 1, 101))

	rr.StopRecording("s1")
	rr.Record("s1", combatlog.NewCast(30, 1, 102))

	rec, ok := rr.Recording("s1")
	require.True(t, ok)
	require.Equal(t, 2, rec.Len())
	assert.Equal(t, int64(10), rec.Events[0].Timestamp)
	assert.Equal(t, int64(20), rec.Events[1].Timestamp)

	require.NoError(t, rr.Save("s1"))
	_, ok = rr.Recording("s1")
	assert.False(t, ok)

	saved, err := rr.Saved()
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, saved)

	loaded, err := rr.Load("s1")
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Len())
	assert.Equal(t, info, loaded.Combatant)
}

func TestRecorderRecordingIsSnapshot(t *testing.T) {
	rr := NewRecorder(zap.NewNop(), t.TempDir())
	rr.StartRecording("s1", combatant.Info{PlayerID: 1}, analysis.Fight{End: 1000})
	rr.Record("s1", combatlog.NewCast(10, 1, 100))

	snapshot, ok := rr.Recording("s1")
	require.True(t, ok)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := int64(0); i < 100; i++ {
			rr.Record("s1", combatlog.NewCast(20+i, 1, 101))
		}
	}()
	for _, e := range snapshot.Events {
		assert.Equal(t, int64(10), e.Timestamp)
	}
	wg.Wait()

	assert.Equal(t, 1, snapshot.Len())
	latest, ok := rr.Recording("s1")
	require.True(t, ok)
	assert.Equal(t, 101, latest.Len())
}

func TestRecorderSaveUnknown(t *testing.T) {
	rr := NewRecorder(nil, t.TempDir())
	assert.Error(t, rr.Save("missing"))
}

func TestRecorderClear(t *testing.T) {
	rr := NewRecorder(nil, t.TempDir())
	rr.StartRecording("s1", combatant.Info{}, analysis.Fight{})
	rr.Clear("s1")

	assert.False(t, rr.IsRecording("s1"))
	_, ok := rr.Recording("s1")
	assert.False(t, ok)
}

func TestSavedEmptyDirectory(t *testing.T) {
	rr := NewRecorder(nil, filepath.Join(t.TempDir(), "missing"))
	saved, err := rr.Saved()
	require.NoError(t, err)
	assert.Empty(t, saved)
}
