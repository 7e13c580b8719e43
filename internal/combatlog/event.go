package combatlog

import (
	"errors"
	"fmt"
)

// Kind indicates the category of a combat log event.
type Kind string

const (
	KindDamage         Kind = "damage"
	KindCast           Kind = "cast"
	KindResourceChange Kind = "resourcechange"
	KindApplyBuff      Kind = "applybuff"
	KindRemoveBuff     Kind = "removebuff"
)

// Known reports whether the kind is one the analyzer understands.
func (k Kind) Known() bool {
	switch k {
	case KindDamage, KindCast, KindResourceChange, KindApplyBuff, KindRemoveBuff:
		return true
	default:
		return false
	}
}

// ActorID identifies a unit in the log. Zero means "no actor".
type ActorID int64

// SpellID identifies an ability, buff or talent. Zero means "no spell".
type SpellID int64

// ResourceType identifies a class resource (rage, fury, energy...).
type ResourceType int

const (
	ResourceMana   ResourceType = 0
	ResourceRage   ResourceType = 1
	ResourceEnergy ResourceType = 3
	ResourceFury   ResourceType = 17
)

// DamageData carries the fields specific to damage events.
type DamageData struct {
	Amount   int64
	Absorbed int64
}

// ResourceChangeData carries the fields specific to resourcechange events.
// Change is the gross gain; Waste is the part that overflowed a full pool.
type ResourceChangeData struct {
	ResourceType ResourceType
	Change       int64
	Waste        int64
}

// CastData carries the optional resource cost of a cast.
type CastData struct {
	ResourceType ResourceType
	Cost         int64
}

// Event is one timestamped record from a session recording.
// Exactly one payload matching Kind is expected for damage and resourcechange events.
type Event struct {
	Kind      Kind
	Timestamp int64 // milliseconds since recording start
	SourceID  ActorID
	TargetID  ActorID
	SpellID   SpellID

	Damage         *DamageData
	ResourceChange *ResourceChangeData
	Cast           *CastData
}

// HasTarget reports whether the event names a target actor.
func (e Event) HasTarget() bool {
	return e.TargetID != 0
}

// HasSpell reports whether the event names a spell.
func (e Event) HasSpell() bool {
	return e.SpellID != 0
}

// ErrMalformedEvent is returned by Validate for events missing a field required by their kind.
var ErrMalformedEvent = errors.New("malformed event")

// MalformedEventError describes why an event was rejected.
type MalformedEventError struct {
	Index  int
	Event  Event
	Reason string
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("malformed %s event at index %d (t=%d): %s", e.Event.Kind, e.Index, e.Event.Timestamp, e.Reason)
}

func (e *MalformedEventError) Unwrap() error {
	return ErrMalformedEvent
}

// Validate checks that the event carries every field its kind requires.
// index is the event's position in the stream and is only used for reporting.
func Validate(index int, e Event) error {
	reason := malformedReason(e)
	if reason == "" {
		return nil
	}
	return &MalformedEventError{Index: index, Event: e, Reason: reason}
}

func malformedReason(e Event) string {
	if !e.Kind.Known() {
		return fmt.Sprintf("unknown kind %q", e.Kind)
	}
	if e.Timestamp < 0 {
		return "negative timestamp"
	}
	if e.SourceID == 0 {
		return "missing source actor"
	}

	switch e.Kind {
	case KindDamage:
		if !e.HasSpell() {
			return "missing spell"
		}
		if e.Damage == nil {
			return "missing damage payload"
		}
		if e.Damage.Amount < 0 || e.Damage.Absorbed < 0 {
			return "negative damage"
		}
	case KindResourceChange:
		if !e.HasSpell() {
			return "missing spell"
		}
		if e.ResourceChange == nil {
			return "missing resource payload"
		}
		if e.ResourceChange.Change < 0 || e.ResourceChange.Waste < 0 {
			return "negative resource change"
		}
		if e.ResourceChange.Waste > e.ResourceChange.Change {
			return "waste exceeds change"
		}
	case KindCast:
		if !e.HasSpell() {
			return "missing spell"
		}
		if e.Cast != nil && e.Cast.Cost < 0 {
			return "negative cast cost"
		}
	case KindApplyBuff, KindRemoveBuff:
		if !e.HasSpell() {
			return "missing spell"
		}
		if !e.HasTarget() {
			return "missing target actor"
		}
	}
	return ""
}

// NewDamage creates a damage event.
func NewDamage(ts int64, source, target ActorID, spell SpellID, amount, absorbed int64) Event {
	return Event{
		Kind:      KindDamage,
		Timestamp: ts,
		SourceID:  source,
		TargetID:  target,
		SpellID:   spell,
		Damage:    &DamageData{Amount: amount, Absorbed: absorbed},
	}
}

// NewCast creates a cast event without a resource cost.
func NewCast(ts int64, source ActorID, spell SpellID) Event {
	return Event{
		Kind:      KindCast,
		Timestamp: ts,
		SourceID:  source,
		SpellID:   spell,
	}
}

// NewCastWithCost creates a cast event that spent a class resource.
func NewCastWithCost(ts int64, source ActorID, spell SpellID, resource ResourceType, cost int64) Event {
	evt := NewCast(ts, source, spell)
	evt.Cast = &CastData{ResourceType: resource, Cost: cost}
	return evt
}

// NewResourceChange creates a resourcechange event.
func NewResourceChange(ts int64, source ActorID, spell SpellID, resource ResourceType, change, waste int64) Event {
	return Event{
		Kind:           KindResourceChange,
		Timestamp:      ts,
		SourceID:       source,
		TargetID:       source,
		SpellID:        spell,
		ResourceChange: &ResourceChangeData{ResourceType: resource, Change: change, Waste: waste},
	}
}

// NewBuff creates an applybuff or removebuff event.
func NewBuff(kind Kind, ts int64, source, target ActorID, spell SpellID) Event {
	return Event{
		Kind:      kind,
		Timestamp: ts,
		SourceID:  source,
		TargetID:  target,
		SpellID:   spell,
	}
}
