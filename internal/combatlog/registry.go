package combatlog

// Callback reacts to a matched event. Callbacks must not block.
type Callback func(Event)

// Owner is the module a subscription belongs to.
type Owner interface {
	ID() string
	Active() bool
}

// Subscription binds a filter to a callback owned by a module.
type Subscription struct {
	Handle   int
	Filter   Filter
	Callback Callback
	OwnerID  string
}

// kindIndex holds the subscriptions for one event kind.
// Both slices stay sorted by handle because handles only grow.
type kindIndex struct {
	bySpell  map[SpellID][]*Subscription
	anySpell []*Subscription
}

// Registry matches events against registered filters and dispatches them
// synchronously in registration order. It belongs to a single session and is
// not safe for concurrent use.
type Registry struct {
	selectedPlayer ActorID
	byKind         map[Kind]*kindIndex
	nextHandle     int
	count          int
}

// NewRegistry constructs an empty registry for the given analyzed player.
func NewRegistry(selectedPlayer ActorID) *Registry {
	return &Registry{
		selectedPlayer: selectedPlayer,
		byKind:         make(map[Kind]*kindIndex),
	}
}

// SelectedPlayer returns the actor SelectedPlayer filters resolve to.
func (r *Registry) SelectedPlayer() ActorID {
	return r.selectedPlayer
}

// Register stores a subscription when the owner is active and returns its handle.
// Inactive owners and nil callbacks are ignored and get -1.
func (r *Registry) Register(filter Filter, callback Callback, owner Owner) int {
	if callback == nil || owner == nil || !owner.Active() {
		return -1
	}

	handle := r.nextHandle
	r.nextHandle++
	sub := &Subscription{
		Handle:   handle,
		Filter:   filter,
		Callback: callback,
		OwnerID:  owner.ID(),
	}

	idx, ok := r.byKind[filter.Kind()]
	if !ok {
		idx = &kindIndex{bySpell: make(map[SpellID][]*Subscription)}
		r.byKind[filter.Kind()] = idx
	}
	if filter.MatchesAllSpells() {
		idx.anySpell = append(idx.anySpell, sub)
	} else {
		for _, id := range filter.Spells() {
			idx.bySpell[id] = append(idx.bySpell[id], sub)
		}
	}
	r.count++
	return handle
}

// Len returns the number of live subscriptions.
func (r *Registry) Len() int {
	return r.count
}

// CountFor returns the number of subscriptions owned by the given module.
func (r *Registry) CountFor(ownerID string) int {
	seen := make(map[int]struct{})
	for _, idx := range r.byKind {
		for _, sub := range idx.anySpell {
			if sub.OwnerID == ownerID {
				seen[sub.Handle] = struct{}{}
			}
		}
		for _, subs := range idx.bySpell {
			for _, sub := range subs {
				if sub.OwnerID == ownerID {
					seen[sub.Handle] = struct{}{}
				}
			}
		}
	}
	return len(seen)
}

// Dispatch delivers the event to every matching subscription in registration order.
// It returns the number of callbacks invoked.
func (r *Registry) Dispatch(e Event) int {
	idx, ok := r.byKind[e.Kind]
	if !ok {
		return 0
	}

	spellSubs := idx.bySpell[e.SpellID]
	anySubs := idx.anySpell
	invoked := 0

	// Merge the spell bucket with the wildcard list by handle.
	i, j := 0, 0
	for i < len(spellSubs) || j < len(anySubs) {
		var sub *Subscription
		if j >= len(anySubs) || (i < len(spellSubs) && spellSubs[i].Handle < anySubs[j].Handle) {
			sub = spellSubs[i]
			i++
		} else {
			sub = anySubs[j]
			j++
		}
		if !sub.Filter.Matches(e, r.selectedPlayer) {
			continue
		}
		sub.Callback(e)
		invoked++
	}
	return invoked
}

// DispatchAll dispatches a batch of events in input order.
func (r *Registry) DispatchAll(events []Event) {
	for _, e := range events {
		r.Dispatch(e)
	}
}
