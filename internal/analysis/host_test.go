package analysis

import (
	"errors"
	"testing"

	"github.com/ElodielAirea/WoWAnalyzer/internal/combatant"
	"github.com/ElodielAirea/WoWAnalyzer/internal/combatlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testPlayer combatlog.ActorID = 1
	testTalent combatlog.SpellID = 500
)

// counterModule counts damage events and records the order it was built in.
type counterModule struct {
	*BaseModule
	hits int
	deps Deps
}

func newCounterFactory(built *[]string) Factory {
	return func(opts Options) (Module, error) {
		m := &counterModule{BaseModule: NewBaseModule(opts), deps: opts.Deps}
		m.Subscribe(combatlog.On(combatlog.KindDamage).By(combatlog.SelectedPlayer), func(combatlog.Event) {
			m.hits++
		})
		*built = append(*built, opts.ID)
		return m, nil
	}
}

func (m *counterModule) Hits() (int, bool) {
	if !m.Active() {
		return 0, false
	}
	return m.hits, true
}

func testEnv(talents ...combatlog.SpellID) Environment {
	return Environment{
		Combatant: combatant.New(combatant.Info{PlayerID: testPlayer, Talents: talents}, nil),
		Registry:  combatlog.NewRegistry(testPlayer),
		Fight:     Fight{Start: 0, End: 60000},
	}
}

func hasTalent(id combatlog.SpellID) Precondition {
	return func(c *combatant.Combatant) bool { return c.HasTalent(id) }
}

func TestInstantiateDependencyOrder(t *testing.T) {
	var built []string
	factory := newCounterFactory(&built)

	descriptors := []Descriptor{
		{ID: "details", Dependencies: []string{"tracker", "haste"}, New: factory},
		{ID: "tracker", New: factory},
		{ID: "summary", Dependencies: []string{"details"}, New: factory},
		{ID: "haste", New: factory},
	}

	host, err := Instantiate(testEnv(), descriptors, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, []string{"tracker", "haste", "details", "summary"}, built)
	assert.Equal(t, 4, host.Len())

	details, ok := host.Module("details")
	require.True(t, ok)
	tracker, err := Dependency[*counterModule](details.(*counterModule).deps, "tracker")
	require.NoError(t, err)
	assert.Equal(t, "tracker", tracker.ID())
}

func TestInstantiateCycle(t *testing.T) {
	var built []string
	factory := newCounterFactory(&built)

	descriptors := []Descriptor{
		{ID: "root", New: factory},
		{ID: "a", Dependencies: []string{"root", "b"}, New: factory},
		{ID: "b", Dependencies: []string{"c"}, New: factory},
		{ID: "c", Dependencies: []string{"a"}, New: factory},
	}

	host, err := Instantiate(testEnv(), descriptors, nil)
	require.Error(t, err)
	assert.Nil(t, host)
	assert.True(t, errors.Is(err, ErrCyclicDependency))

	var cycleErr *CyclicDependencyError
	require.True(t, errors.As(err, &cycleErr))
	assert.Equal(t, []string{"a", "b", "c", "a"}, cycleErr.Cycle)
	assert.Empty(t, built, "no module is constructed when setup fails")
}

func TestInstantiateSelfDependency(t *testing.T) {
	var built []string
	_, err := Instantiate(testEnv(), []Descriptor{
		{ID: "self", Dependencies: []string{"self"}, New: newCounterFactory(&built)},
	}, nil)
	assert.True(t, errors.Is(err, ErrCyclicDependency))
}

func TestInstantiateDescriptorErrors(t *testing.T) {
	var built []string
	factory := newCounterFactory(&built)

	_, err := Instantiate(testEnv(), []Descriptor{{ID: "a", Dependencies: []string{"missing"}, New: factory}}, nil)
	assert.True(t, errors.Is(err, ErrUnknownDependency))

	_, err = Instantiate(testEnv(), []Descriptor{{ID: "a", New: factory}, {ID: "a", New: factory}}, nil)
	assert.True(t, errors.Is(err, ErrDuplicateModule))

	_, err = Instantiate(testEnv(), []Descriptor{{ID: "", New: factory}}, nil)
	assert.True(t, errors.Is(err, ErrInvalidDescriptor))

	_, err = Instantiate(testEnv(), []Descriptor{{ID: "nil", New: func(Options) (Module, error) { return nil, nil }}}, nil)
	assert.True(t, errors.Is(err, ErrInvalidDescriptor))

	boom := errors.New("boom")
	_, err = Instantiate(testEnv(), []Descriptor{{ID: "x", New: func(Options) (Module, error) { return nil, boom }}}, nil)
	assert.True(t, errors.Is(err, boom))
}

func TestInactiveModuleIsInert(t *testing.T) {
	var built []string
	factory := newCounterFactory(&built)
	env := testEnv()

	host, err := Instantiate(env, []Descriptor{
		{ID: "talented", Precondition: hasTalent(testTalent), New: factory},
		{ID: "baseline", New: factory},
		{ID: "dependent", Dependencies: []string{"talented"}, New: factory},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, env.Registry.Len())
	assert.Equal(t, 0, env.Registry.CountFor("talented"))
	assert.Equal(t, 0, env.Registry.CountFor("dependent"))

	env.Registry.DispatchAll([]combatlog.Event{
		combatlog.NewDamage(10, testPlayer, 2, 1, 5, 0),
		combatlog.NewDamage(20, testPlayer, 2, 1, 5, 0),
	})

	talented, _ := host.Module("talented")
	_, ok := talented.(*counterModule).Hits()
	assert.False(t, ok, "inactive module reports absent, not zero")

	dependent, _ := host.Module("dependent")
	assert.False(t, dependent.Active(), "module depending on an inactive module is inactive")

	baseline, _ := host.Module("baseline")
	hits, ok := baseline.(*counterModule).Hits()
	assert.True(t, ok)
	assert.Equal(t, 2, hits)

	assert.Len(t, host.ActiveModules(), 1)
	assert.Len(t, host.Modules(), 3)
}

func TestActivationFromTalent(t *testing.T) {
	var built []string
	env := testEnv(testTalent)

	host, err := Instantiate(env, []Descriptor{
		{ID: "talented", Precondition: hasTalent(testTalent), New: newCounterFactory(&built)},
	}, nil)
	require.NoError(t, err)

	m, _ := host.Module("talented")
	assert.True(t, m.Active())
	assert.Equal(t, 1, env.Registry.CountFor("talented"))
}

func TestDependencyTypeMismatch(t *testing.T) {
	deps := Deps{"x": NewBaseModule(Options{ID: "x", Active: true})}
	_, err := Dependency[*counterModule](deps, "x")
	assert.True(t, errors.Is(err, ErrDependencyType))

	_, err = Dependency[*counterModule](deps, "y")
	assert.True(t, errors.Is(err, ErrUnknownDependency))
}

func TestFightDuration(t *testing.T) {
	assert.Equal(t, int64(1500), Fight{Start: 500, End: 2000}.Duration())
	assert.Equal(t, int64(0), Fight{Start: 2000, End: 500}.Duration())
}
