package resource

import (
	"errors"
	"fmt"
)

var (
	// ErrNegativeAmount is returned when a ledger input is below zero.
	ErrNegativeAmount = errors.New("negative amount")

	// ErrWasteExceedsAmount is returned when a single generation reports more
	// waste than it generated.
	ErrWasteExceedsAmount = errors.New("waste exceeds generated amount")
)

// Source is the category tag a generated or spent quantity is attributed to.
type Source string

// Entry is the per-source breakdown of a ledger.
type Entry struct {
	Source    Source
	Generated int64
	Wasted    int64
	Spent     int64
}

// Effective returns the generated amount that was not wasted.
func (e Entry) Effective() int64 {
	return e.Generated - e.Wasted
}

// Ledger accumulates generated, wasted and spent quantities of one countable
// resource, broken down by source. Totals satisfy 0 <= wasted <= generated.
type Ledger struct {
	entries map[Source]*Entry
	order   []Source

	generated int64
	wasted    int64
	spent     int64
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		entries: make(map[Source]*Entry),
	}
}

func (l *Ledger) entry(source Source) *Entry {
	e, ok := l.entries[source]
	if !ok {
		e = &Entry{Source: source}
		l.entries[source] = e
		l.order = append(l.order, source)
	}
	return e
}

// OnGenerate records amount generated by source, of which wasted overflowed.
func (l *Ledger) OnGenerate(source Source, amount, wasted int64) error {
	if amount < 0 || wasted < 0 {
		return fmt.Errorf("generate %d (wasted %d) from %q: %w", amount, wasted, source, ErrNegativeAmount)
	}
	if wasted > amount {
		return fmt.Errorf("generate %d (wasted %d) from %q: %w", amount, wasted, source, ErrWasteExceedsAmount)
	}

	e := l.entry(source)
	e.Generated += amount
	e.Wasted += wasted
	l.generated += amount
	l.wasted += wasted
	return nil
}

// OnSpend records amount spent by source.
func (l *Ledger) OnSpend(source Source, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("spend %d on %q: %w", amount, source, ErrNegativeAmount)
	}
	e := l.entry(source)
	e.Spent += amount
	l.spent += amount
	return nil
}

// Generated returns the amount generated by source.
func (l *Ledger) Generated(source Source) int64 {
	if e, ok := l.entries[source]; ok {
		return e.Generated
	}
	return 0
}

// Wasted returns the amount wasted by source.
func (l *Ledger) Wasted(source Source) int64 {
	if e, ok := l.entries[source]; ok {
		return e.Wasted
	}
	return 0
}

// Spent returns the amount spent by source.
func (l *Ledger) Spent(source Source) int64 {
	if e, ok := l.entries[source]; ok {
		return e.Spent
	}
	return 0
}

// Effective returns generated minus wasted for source.
func (l *Ledger) Effective(source Source) int64 {
	return l.Generated(source) - l.Wasted(source)
}

// TotalGenerated returns the generated amount across all sources.
func (l *Ledger) TotalGenerated() int64 { return l.generated }

// TotalWasted returns the wasted amount across all sources.
func (l *Ledger) TotalWasted() int64 { return l.wasted }

// TotalSpent returns the spent amount across all sources.
func (l *Ledger) TotalSpent() int64 { return l.spent }

// EffectiveTotal returns total generated minus total wasted.
func (l *Ledger) EffectiveTotal() int64 {
	return l.generated - l.wasted
}

// WasteRatio returns totalWasted / totalGenerated, or 0 when nothing was generated.
func (l *Ledger) WasteRatio() float64 {
	if l.generated == 0 {
		return 0
	}
	return float64(l.wasted) / float64(l.generated)
}

// RatePerMinute returns the effective total per minute of the given duration.
// Non-positive durations yield 0.
func (l *Ledger) RatePerMinute(durationMs int64) float64 {
	return RatePerMinute(l.EffectiveTotal(), durationMs)
}

// RatePerMinute converts an amount over durationMs into a per-minute rate.
func RatePerMinute(amount, durationMs int64) float64 {
	if durationMs <= 0 {
		return 0
	}
	return float64(amount) / (float64(durationMs) / 60000)
}

// Sources returns the per-source breakdown in first-seen order.
func (l *Ledger) Sources() []Entry {
	out := make([]Entry, 0, len(l.order))
	for _, source := range l.order {
		out = append(out, *l.entries[source])
	}
	return out
}

// IsEmpty reports whether the ledger has recorded anything.
func (l *Ledger) IsEmpty() bool {
	return len(l.order) == 0
}

// View is the read-only side of a Ledger, handed to dependent modules.
type View interface {
	Generated(source Source) int64
	Wasted(source Source) int64
	Spent(source Source) int64
	Effective(source Source) int64
	TotalGenerated() int64
	TotalWasted() int64
	TotalSpent() int64
	EffectiveTotal() int64
	WasteRatio() float64
	RatePerMinute(durationMs int64) float64
	Sources() []Entry
}

var _ View = (*Ledger)(nil)
