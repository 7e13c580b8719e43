package threshold

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Severity grades how far an observed metric is from the recommendation.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityMinor
	SeverityAverage
	SeverityMajor
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "none"
	case SeverityMinor:
		return "minor"
	case SeverityAverage:
		return "average"
	case SeverityMajor:
		return "major"
	default:
		return "unknown"
	}
}

// Direction is the comparison used against every tier.
type Direction int

const (
	// GreaterThan flags values strictly above a tier.
	GreaterThan Direction = iota
	// LessThan flags values strictly below a tier.
	LessThan
)

// String returns the string representation of the direction.
func (d Direction) String() string {
	switch d {
	case GreaterThan:
		return "greaterThan"
	case LessThan:
		return "lessThan"
	default:
		return "unknown"
	}
}

// Style controls how values are formatted for display. It never affects severity.
type Style int

const (
	// Percentage renders a ratio multiplied by 100 with a % suffix.
	Percentage Style = iota
	// Number renders the value unchanged.
	Number
)

// String returns the string representation of the style.
func (s Style) String() string {
	switch s {
	case Percentage:
		return "percentage"
	case Number:
		return "number"
	default:
		return "unknown"
	}
}

// Tiers are the minor/average/major cutoffs.
type Tiers struct {
	Minor   float64
	Average float64
	Major   float64
}

// ErrInvalidThresholdConfig is returned for tiers inconsistent with their direction.
var ErrInvalidThresholdConfig = errors.New("invalid threshold config")

// InvalidConfigError describes an inconsistent tier configuration.
type InvalidConfigError struct {
	Direction Direction
	Tiers     Tiers
	Reason    string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid threshold config (%s, minor=%v average=%v major=%v): %s",
		e.Direction, e.Tiers.Minor, e.Tiers.Average, e.Tiers.Major, e.Reason)
}

func (e *InvalidConfigError) Unwrap() error {
	return ErrInvalidThresholdConfig
}

// Spec is a validated threshold: an actual value, a direction, tiers and a style.
// Build it with New; the zero value is not meaningful.
type Spec struct {
	actual    float64
	direction Direction
	tiers     Tiers
	style     Style
}

// New validates the configuration and returns a Spec.
// For GreaterThan tiers must satisfy minor <= average <= major, for LessThan
// minor >= average >= major.
func New(actual float64, direction Direction, tiers Tiers, style Style) (Spec, error) {
	if err := validate(direction, tiers); err != nil {
		return Spec{}, err
	}
	return Spec{actual: actual, direction: direction, tiers: tiers, style: style}, nil
}

// MustNew is New for statically known tiers; it panics on invalid configuration.
func MustNew(actual float64, direction Direction, tiers Tiers, style Style) Spec {
	spec, err := New(actual, direction, tiers, style)
	if err != nil {
		panic(err)
	}
	return spec
}

func validate(direction Direction, tiers Tiers) error {
	fail := func(reason string) error {
		return &InvalidConfigError{Direction: direction, Tiers: tiers, Reason: reason}
	}
	for _, v := range []float64{tiers.Minor, tiers.Average, tiers.Major} {
		if math.IsNaN(v) {
			return fail("tier is NaN")
		}
	}

	switch direction {
	case GreaterThan:
		if tiers.Minor > tiers.Average || tiers.Average > tiers.Major {
			return fail("greaterThan tiers must be ascending")
		}
	case LessThan:
		if tiers.Minor < tiers.Average || tiers.Average < tiers.Major {
			return fail("lessThan tiers must be descending")
		}
	default:
		return fail("unknown direction")
	}
	return nil
}

// Config is a validated direction/tiers/style triple without an actual value.
// Modules build one at construction so bad tiers fail before replay.
type Config struct {
	direction Direction
	tiers     Tiers
	style     Style
}

// NewConfig validates tiers against direction.
func NewConfig(direction Direction, tiers Tiers, style Style) (Config, error) {
	if err := validate(direction, tiers); err != nil {
		return Config{}, err
	}
	return Config{direction: direction, tiers: tiers, style: style}, nil
}

// Spec binds an actual value to the configuration.
func (c Config) Spec(actual float64) Spec {
	return Spec{actual: actual, direction: c.direction, tiers: c.tiers, style: c.style}
}

// Tiers returns the configured cutoffs.
func (c Config) Tiers() Tiers { return c.tiers }

// Actual returns the observed value.
func (s Spec) Actual() float64 { return s.actual }

// Direction returns the comparison direction.
func (s Spec) Direction() Direction { return s.direction }

// Tiers returns the cutoffs.
func (s Spec) Tiers() Tiers { return s.tiers }

// Style returns the display style.
func (s Spec) Style() Style { return s.style }

// Recommended returns the minor tier, the boundary a player should stay within.
func (s Spec) Recommended() float64 { return s.tiers.Minor }

// FormatActual formats the observed value by style.
func (s Spec) FormatActual() string { return Format(s.actual, s.style) }

// FormatRecommended formats the recommended value by style.
func (s Spec) FormatRecommended() string { return Format(s.Recommended(), s.style) }

// Evaluate grades the actual value against major, then average, then minor.
// Comparisons are strict: a value equal to a tier does not reach it.
func Evaluate(s Spec) Severity {
	beyond := func(tier float64) bool {
		if s.direction == LessThan {
			return s.actual < tier
		}
		return s.actual > tier
	}

	switch {
	case beyond(s.tiers.Major):
		return SeverityMajor
	case beyond(s.tiers.Average):
		return SeverityAverage
	case beyond(s.tiers.Minor):
		return SeverityMinor
	default:
		return SeverityNone
	}
}

// NumberPrecision is the number of decimals kept for number-style values.
const NumberPrecision = 2

// Format renders a value according to style. Percentages are multiplied by 100
// and rounded half away from zero to two decimals. Numbers are rounded to
// NumberPrecision decimals without trailing zeros.
func Format(value float64, style Style) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Sprintf("%v", value)
	}
	d := decimal.NewFromFloat(value)
	if style == Percentage {
		return d.Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"
	}
	return d.Round(NumberPrecision).String()
}
