package threshold

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateGreaterThan(t *testing.T) {
	tiers := Tiers{Minor: 3, Average: 7, Major: 10}
	tests := []struct {
		actual float64
		want   Severity
	}{
		{actual: 2, want: SeverityNone},
		{actual: 3, want: SeverityNone},
		{actual: 3.0001, want: SeverityMinor},
		{actual: 7, want: SeverityMinor},
		{actual: 7.5, want: SeverityAverage},
		{actual: 10, want: SeverityAverage},
		{actual: 10.5, want: SeverityMajor},
	}

	for _, tt := range tests {
		spec, err := New(tt.actual, GreaterThan, tiers, Number)
		require.NoError(t, err)
		assert.Equal(t, tt.want, Evaluate(spec), "actual=%v", tt.actual)
	}
}

func TestEvaluateLessThan(t *testing.T) {
	tiers := Tiers{Minor: 0.95, Average: 0.9, Major: 0.85}
	tests := []struct {
		actual float64
		want   Severity
	}{
		{actual: 0.99, want: SeverityNone},
		{actual: 0.95, want: SeverityNone},
		{actual: 0.94, want: SeverityMinor},
		{actual: 0.9, want: SeverityMinor},
		{actual: 0.87, want: SeverityAverage},
		{actual: 0.5, want: SeverityMajor},
	}

	for _, tt := range tests {
		spec := MustNew(tt.actual, LessThan, tiers, Percentage)
		assert.Equal(t, tt.want, Evaluate(spec), "actual=%v", tt.actual)
	}
}

func TestEqualTiersAllowed(t *testing.T) {
	tiers := Tiers{Minor: 0, Average: 0, Major: 1}

	spec := MustNew(0, GreaterThan, tiers, Number)
	assert.Equal(t, SeverityNone, Evaluate(spec))

	spec = MustNew(1, GreaterThan, tiers, Number)
	assert.Equal(t, SeverityAverage, Evaluate(spec))

	spec = MustNew(2, GreaterThan, tiers, Number)
	assert.Equal(t, SeverityMajor, Evaluate(spec))
}

func TestNewRejectsInconsistentTiers(t *testing.T) {
	tests := []struct {
		name      string
		direction Direction
		tiers     Tiers
	}{
		{name: "greaterThan descending", direction: GreaterThan, tiers: Tiers{Minor: 10, Average: 7, Major: 3}},
		{name: "greaterThan average above major", direction: GreaterThan, tiers: Tiers{Minor: 1, Average: 5, Major: 4}},
		{name: "lessThan ascending", direction: LessThan, tiers: Tiers{Minor: 0.85, Average: 0.9, Major: 0.95}},
		{name: "nan tier", direction: GreaterThan, tiers: Tiers{Minor: math.NaN(), Average: 1, Major: 2}},
		{name: "unknown direction", direction: Direction(9), tiers: Tiers{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(1, tt.direction, tt.tiers, Number)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidThresholdConfig))

			var cfgErr *InvalidConfigError
			assert.True(t, errors.As(err, &cfgErr))
		})
	}
}

func TestMustNewPanics(t *testing.T) {
	assert.Panics(t, func() {
		MustNew(1, GreaterThan, Tiers{Minor: 3, Average: 2, Major: 1}, Number)
	})
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "10.00%", Format(0.1, Percentage))
	assert.Equal(t, "3.00%", Format(0.03, Percentage))
	assert.Equal(t, "12.35%", Format(0.12345, Percentage))
	assert.Equal(t, "0.00%", Format(0, Percentage))
	assert.Equal(t, "3", Format(3, Number))
	assert.Equal(t, "2.5", Format(2.5, Number))
	assert.Equal(t, "0.3", Format(0.1+0.2, Number))
	assert.Equal(t, "3.33", Format(10.0/3, Number))
	assert.Equal(t, "1234567", Format(1234567, Number))
}

func TestStyleDoesNotAffectSeverity(t *testing.T) {
	tiers := Tiers{Minor: 0.05, Average: 0.1, Major: 0.15}
	pct := MustNew(0.12, GreaterThan, tiers, Percentage)
	num := MustNew(0.12, GreaterThan, tiers, Number)

	assert.Equal(t, Evaluate(pct), Evaluate(num))
	assert.Equal(t, "12.00%", pct.FormatActual())
	assert.Equal(t, "5.00%", pct.FormatRecommended())
	assert.Equal(t, "0.12", num.FormatActual())
}

func TestConfig(t *testing.T) {
	_, err := NewConfig(GreaterThan, Tiers{Minor: 0.15, Average: 0.1, Major: 0.05}, Percentage)
	assert.True(t, errors.Is(err, ErrInvalidThresholdConfig))

	cfg, err := NewConfig(GreaterThan, Tiers{Minor: 0.05, Average: 0.1, Major: 0.15}, Percentage)
	require.NoError(t, err)
	spec := cfg.Spec(0.2)
	assert.Equal(t, SeverityMajor, Evaluate(spec))
	assert.Equal(t, 0.05, spec.Recommended())
	assert.Equal(t, cfg.Tiers(), spec.Tiers())
}
