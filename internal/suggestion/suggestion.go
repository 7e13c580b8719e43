package suggestion

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ElodielAirea/WoWAnalyzer/internal/threshold"
)

// ErrIncompleteSuggestion is returned by Build when a required field is missing.
var ErrIncompleteSuggestion = errors.New("incomplete suggestion")

// IncompleteError lists the fields Build found missing.
type IncompleteError struct {
	Missing []string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("incomplete suggestion: missing %s", strings.Join(e.Missing, ", "))
}

func (e *IncompleteError) Unwrap() error {
	return ErrIncompleteSuggestion
}

// SlotKind tells the reporting layer how to render a template slot.
type SlotKind int

const (
	SlotText SlotKind = iota
	SlotSpell
)

// Slot is a typed value substituted into a template placeholder.
type Slot struct {
	Name  string
	Kind  SlotKind
	Text  string
	Spell int64
}

// TextSlot creates a plain text slot.
func TextSlot(name, text string) Slot {
	return Slot{Name: name, Kind: SlotText, Text: text}
}

// SpellSlot creates a slot referring to a spell by id.
func SpellSlot(name string, spellID int64) Slot {
	return Slot{Name: name, Kind: SlotSpell, Spell: spellID}
}

// Template is rationale text with {name} placeholders and their typed slots.
type Template struct {
	Text  string
	Slots []Slot
}

// Text creates a template without slots.
func Text(text string) Template {
	return Template{Text: text}
}

// Rationale creates a template with slots.
func Rationale(text string, slots ...Slot) Template {
	return Template{Text: text, Slots: append([]Slot(nil), slots...)}
}

// SpellNamer resolves spell ids to display names.
type SpellNamer interface {
	SpellName(id int64) (string, bool)
}

// Render substitutes every slot into the template. Spell slots that the namer
// cannot resolve render as "spell #<id>".
func (t Template) Render(namer SpellNamer) string {
	out := t.Text
	for _, slot := range t.Slots {
		var value string
		switch slot.Kind {
		case SlotSpell:
			value = "spell #" + strconv.FormatInt(slot.Spell, 10)
			if namer != nil {
				if name, ok := namer.SpellName(slot.Spell); ok {
					value = name
				}
			}
		default:
			value = slot.Text
		}
		out = strings.ReplaceAll(out, "{"+slot.Name+"}", value)
	}
	return out
}

// Suggestion is a finished, severity-tagged recommendation.
type Suggestion struct {
	severity    threshold.Severity
	rationale   Template
	icon        string
	actual      string
	recommended string
}

// Severity returns the graded severity.
func (s Suggestion) Severity() threshold.Severity { return s.severity }

// Rationale returns the explanation template.
func (s Suggestion) Rationale() Template { return s.rationale }

// Icon returns the icon reference, possibly empty.
func (s Suggestion) Icon() string { return s.icon }

// Actual returns the formatted observed value.
func (s Suggestion) Actual() string { return s.actual }

// Recommended returns the formatted recommendation.
func (s Suggestion) Recommended() string { return s.recommended }

// Render returns the rationale as plain text.
func (s Suggestion) Render(namer SpellNamer) string {
	return s.rationale.Render(namer)
}

// Builder assembles a Suggestion. Every stage returns a new Builder, so a
// partially configured builder can be reused safely.
type Builder struct {
	severity       threshold.Severity
	rationale      Template
	hasRationale   bool
	icon           string
	actual         string
	hasActual      bool
	recommended    string
	hasRecommended bool
}

// NewBuilder starts a builder for the given severity.
func NewBuilder(severity threshold.Severity) Builder {
	return Builder{severity: severity}
}

// WithRationale sets the explanation template.
func (b Builder) WithRationale(t Template) Builder {
	b.rationale = Template{Text: t.Text, Slots: append([]Slot(nil), t.Slots...)}
	b.hasRationale = t.Text != ""
	return b
}

// WithIcon sets the icon reference.
func (b Builder) WithIcon(ref string) Builder {
	b.icon = ref
	return b
}

// WithActual sets the formatted observed value.
func (b Builder) WithActual(formatted string) Builder {
	b.actual = formatted
	b.hasActual = formatted != ""
	return b
}

// WithRecommended sets the formatted recommendation.
func (b Builder) WithRecommended(formatted string) Builder {
	b.recommended = formatted
	b.hasRecommended = formatted != ""
	return b
}

// WithSeverity overrides the severity.
func (b Builder) WithSeverity(severity threshold.Severity) Builder {
	b.severity = severity
	return b
}

// Build returns the Suggestion, or an IncompleteError if rationale, actual or
// recommended is missing. The icon is optional.
func (b Builder) Build() (Suggestion, error) {
	var missing []string
	if !b.hasRationale {
		missing = append(missing, "rationale")
	}
	if !b.hasActual {
		missing = append(missing, "actual")
	}
	if !b.hasRecommended {
		missing = append(missing, "recommended")
	}
	if len(missing) > 0 {
		return Suggestion{}, &IncompleteError{Missing: missing}
	}

	return Suggestion{
		severity:    b.severity,
		rationale:   b.rationale,
		icon:        b.icon,
		actual:      b.actual,
		recommended: b.recommended,
	}, nil
}

// Compose receives the formatted actual and recommended values and returns the
// builder to finalize.
type Compose func(b Builder, actual, recommended string) Builder

// When evaluates spec and, if the severity is above none, builds a suggestion
// through compose. It returns nil without error when nothing needs reporting.
func When(spec threshold.Spec, compose Compose) (*Suggestion, error) {
	severity := threshold.Evaluate(spec)
	if severity == threshold.SeverityNone {
		return nil, nil
	}
	b := compose(NewBuilder(severity), spec.FormatActual(), spec.FormatRecommended())
	s, err := b.WithSeverity(severity).Build()
	if err != nil {
		return nil, err
	}
	return &s, nil
}
