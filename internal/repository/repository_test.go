package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ElodielAirea/WoWAnalyzer/internal/config"
	"github.com/ElodielAirea/WoWAnalyzer/internal/diagnostics"
	"github.com/ElodielAirea/WoWAnalyzer/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleReport(id, fingerprint string, createdAt time.Time) *session.Report {
	return &session.Report{
		SessionID:   id,
		Fingerprint: fingerprint,
		PlayerID:    42,
		Spec:        "warrior-fury",
		DurationMs:  90000,
		EventCount:  3,
		CreatedAt:   createdAt.UTC(),
		Modules: []session.ModuleReport{
			{
				ID:     "fury.rage-details",
				Active: true,
				Statistics: []session.StatisticReport{
					{Name: "rage_wasted_percent", Value: 0.2, Style: "percentage", Formatted: "20.00%"},
				},
				Suggestions: []session.SuggestionReport{
					{Severity: "major", Text: "You wasted 20.00% of your Rage.", Actual: "20.00% wasted", Recommended: "<5.00% is recommended"},
				},
			},
			{ID: "havoc.demon-blades"},
		},
		Diagnostics: diagnostics.Summary{MalformedEvents: 1, ByReason: map[string]int{"missing spell": 1}},
	}
}

// storeContract runs the behavior every Store must share.
func storeContract(t *testing.T, store Store) {
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	_, err := store.GetReport(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.SaveReport(ctx, &session.Report{}), ErrInvalidReport)

	first := sampleReport("s1", "fp-a", base)
	require.NoError(t, store.SaveReport(ctx, first))
	require.NoError(t, store.SaveReport(ctx, sampleReport("s2", "fp-b", base.Add(time.Minute))))
	require.NoError(t, store.SaveReport(ctx, sampleReport("s3", "fp-a", base.Add(2*time.Minute))))

	got, err := store.GetReport(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, first, got)

	byFingerprint, err := store.FindByFingerprint(ctx, "fp-a")
	require.NoError(t, err)
	assert.Equal(t, "s3", byFingerprint.SessionID)

	_, err = store.FindByFingerprint(ctx, "fp-z")
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := store.ListReports(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"s3", "s2", "s1"}, []string{list[0].SessionID, list[1].SessionID, list[2].SessionID})
	assert.Equal(t, 1, list[0].SuggestionCount)
	assert.True(t, base.Add(2*time.Minute).Equal(list[0].CreatedAt))

	limited, err := store.ListReports(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	// Saving the same session replaces it.
	replaced := sampleReport("s1", "fp-c", base)
	replaced.DurationMs = 1
	require.NoError(t, store.SaveReport(ctx, replaced))
	got, err = store.GetReport(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.DurationMs)
	assert.Equal(t, "fp-c", got.Fingerprint)
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	store, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "reports.db"), zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	storeContract(t, store)
}

func TestSQLiteStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.db")
	ctx := context.Background()

	store, err := OpenSQLite(ctx, path, nil)
	require.NoError(t, err)
	require.NoError(t, store.SaveReport(ctx, sampleReport("s1", "fp", time.Now())))
	require.NoError(t, store.Close())

	store, err = OpenSQLite(ctx, path, nil)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.GetReport(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.PlayerID)
}

func TestOpenSQLiteRequiresPath(t *testing.T) {
	_, err := OpenSQLite(context.Background(), "  ", nil)
	assert.Error(t, err)
}

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()

	store, err := Open(ctx, config.DatabaseConfig{Driver: config.DriverNone}, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	store, err = Open(ctx, config.DatabaseConfig{Driver: config.DriverSQLite, DSN: filepath.Join(t.TempDir(), "x.db")}, nil)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, store)
	require.NoError(t, store.Close())

	_, err = Open(ctx, config.DatabaseConfig{Driver: "oracle"}, nil)
	assert.Error(t, err)
}

func TestMemoryStoreCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewMemoryStore().SaveReport(ctx, sampleReport("s1", "", time.Now()))
	assert.ErrorIs(t, err, context.Canceled)
}
