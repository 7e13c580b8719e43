package combatlog

import "sort"

// ActorRole restricts which source actor a filter accepts.
type ActorRole int

const (
	// AnyActor accepts events from every source.
	AnyActor ActorRole = iota
	// SelectedPlayer accepts only events whose source is the analyzed player.
	SelectedPlayer
)

// String returns the string representation of the actor role.
func (r ActorRole) String() string {
	switch r {
	case AnyActor:
		return "ANY"
	case SelectedPlayer:
		return "SELECTED_PLAYER"
	default:
		return "UNKNOWN"
	}
}

// Filter is an immutable predicate over event kind, source role and spell id.
// The zero spell set matches every spell. Refinement methods return a new Filter.
type Filter struct {
	kind   Kind
	role   ActorRole
	spells map[SpellID]struct{}
}

// On starts a filter for a single event kind, accepting any actor and any spell.
func On(kind Kind) Filter {
	return Filter{kind: kind, role: AnyActor}
}

// By returns a copy of the filter restricted to the given actor role.
func (f Filter) By(role ActorRole) Filter {
	f.spells = f.copySpells(0)
	f.role = role
	return f
}

// Spell returns a copy of the filter that also accepts the given spell ids.
func (f Filter) Spell(ids ...SpellID) Filter {
	spells := f.copySpells(len(ids))
	for _, id := range ids {
		spells[id] = struct{}{}
	}
	f.spells = spells
	return f
}

func (f Filter) copySpells(extra int) map[SpellID]struct{} {
	if len(f.spells) == 0 && extra == 0 {
		return nil
	}
	out := make(map[SpellID]struct{}, len(f.spells)+extra)
	for id := range f.spells {
		out[id] = struct{}{}
	}
	return out
}

// Kind returns the event kind the filter selects.
func (f Filter) Kind() Kind { return f.kind }

// Role returns the actor role the filter selects.
func (f Filter) Role() ActorRole { return f.role }

// Spells returns the filter's spell ids in ascending order. Empty means match-all.
func (f Filter) Spells() []SpellID {
	ids := make([]SpellID, 0, len(f.spells))
	for id := range f.spells {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// MatchesAllSpells reports whether the spell predicate is unrestricted.
func (f Filter) MatchesAllSpells() bool {
	return len(f.spells) == 0
}

// Matches reports whether the event satisfies all three predicates.
// An unknown spell id simply never matches.
func (f Filter) Matches(e Event, selectedPlayer ActorID) bool {
	if e.Kind != f.kind {
		return false
	}
	if f.role == SelectedPlayer && e.SourceID != selectedPlayer {
		return false
	}
	if len(f.spells) == 0 {
		return true
	}
	_, ok := f.spells[e.SpellID]
	return ok
}
