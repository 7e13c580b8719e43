package resource

// BufferMS is the tolerance applied when checking whether a buff explains an
// amount: log lines for the buff application may land slightly after the hit.
const BufferMS int64 = 50

// Rule attributes an amount to Category when Applies holds at the event timestamp.
type Rule struct {
	Category Source
	Applies  func(timestamp int64) bool
}

// Attributor picks the first applicable category in declaration order.
type Attributor struct {
	rules    []Rule
	fallback Source
}

// NewAttributor creates an attributor. Rules are checked in the order given;
// fallback is used when none applies.
func NewAttributor(fallback Source, rules ...Rule) *Attributor {
	return &Attributor{
		rules:    append([]Rule(nil), rules...),
		fallback: fallback,
	}
}

// Attribute returns the category for an amount observed at timestamp.
func (a *Attributor) Attribute(timestamp int64) Source {
	for _, rule := range a.rules {
		if rule.Applies != nil && rule.Applies(timestamp) {
			return rule.Category
		}
	}
	return a.fallback
}

// Categories returns every category the attributor can produce, fallback last.
func (a *Attributor) Categories() []Source {
	out := make([]Source, 0, len(a.rules)+1)
	for _, rule := range a.rules {
		out = append(out, rule.Category)
	}
	return append(out, a.fallback)
}
