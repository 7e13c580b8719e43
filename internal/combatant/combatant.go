package combatant

import (
	"github.com/ElodielAirea/WoWAnalyzer/internal/combatlog"
)

// Info is the static loadout of the analyzed player, known before replay.
type Info struct {
	PlayerID combatlog.ActorID
	Name     string
	Spec     string
	Talents  []combatlog.SpellID
}

// Interval is one period during which a buff was on the player.
// Open intervals were never removed before the recording ended.
type Interval struct {
	Start int64
	End   int64
	Open  bool
}

// covers reports whether the interval explains an observation at ts, allowing
// the buff to start up to bufferMs after ts. Both bounds are inclusive.
func (iv Interval) covers(ts, bufferMs int64) bool {
	if iv.Start-bufferMs > ts {
		return false
	}
	return iv.Open || ts <= iv.End
}

// Combatant is the selected player of a session: loadout plus buff history.
type Combatant struct {
	info    Info
	talents map[combatlog.SpellID]struct{}
	buffs   map[combatlog.SpellID][]Interval
}

// New builds the combatant from its loadout and the full session stream.
// Buff history is derived once, before any event is dispatched.
func New(info Info, events []combatlog.Event) *Combatant {
	c := &Combatant{
		info:    info,
		talents: make(map[combatlog.SpellID]struct{}, len(info.Talents)),
		buffs:   make(map[combatlog.SpellID][]Interval),
	}
	for _, id := range info.Talents {
		c.talents[id] = struct{}{}
	}
	c.buildBuffHistory(events)
	return c
}

func (c *Combatant) buildBuffHistory(events []combatlog.Event) {
	for _, e := range events {
		if e.TargetID != c.info.PlayerID || !e.HasSpell() {
			continue
		}
		switch e.Kind {
		case combatlog.KindApplyBuff:
			intervals := c.buffs[e.SpellID]
			if n := len(intervals); n > 0 && intervals[n-1].Open {
				// Refresh of a buff that is already up.
				continue
			}
			c.buffs[e.SpellID] = append(intervals, Interval{Start: e.Timestamp, Open: true})
		case combatlog.KindRemoveBuff:
			intervals := c.buffs[e.SpellID]
			n := len(intervals)
			if n > 0 && intervals[n-1].Open {
				intervals[n-1].End = e.Timestamp
				intervals[n-1].Open = false
				continue
			}
			if n > 0 {
				// Duplicate removal of a buff that is already down.
				continue
			}
			// First sighting is a removal: the buff was up when the recording started.
			c.buffs[e.SpellID] = []Interval{{Start: 0, End: e.Timestamp}}
		}
	}
}

// ID returns the player's actor id.
func (c *Combatant) ID() combatlog.ActorID { return c.info.PlayerID }

// Name returns the player's name.
func (c *Combatant) Name() string { return c.info.Name }

// Spec returns the player's specialization key (e.g. "warrior-fury").
func (c *Combatant) Spec() string { return c.info.Spec }

// HasTalent reports whether the talent is part of the loadout.
func (c *Combatant) HasTalent(id combatlog.SpellID) bool {
	_, ok := c.talents[id]
	return ok
}

// HasBuff reports whether the buff was active at ts, or became active within
// bufferMs after ts.
func (c *Combatant) HasBuff(id combatlog.SpellID, ts, bufferMs int64) bool {
	for _, iv := range c.buffs[id] {
		if iv.covers(ts, bufferMs) {
			return true
		}
	}
	return false
}

// BuffIntervals returns a copy of the recorded intervals for a buff.
func (c *Combatant) BuffIntervals(id combatlog.SpellID) []Interval {
	return append([]Interval(nil), c.buffs[id]...)
}
