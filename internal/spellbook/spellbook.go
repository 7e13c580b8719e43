package spellbook

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// Spell is the display metadata of an ability, buff or talent.
type Spell struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// Lookup resolves spell ids to display metadata. Unknown ids are not errors.
type Lookup interface {
	Spell(id int64) (Spell, bool)
}

// Table is an in-memory Lookup.
type Table struct {
	spells map[int64]Spell
}

// NewTable builds a table from the given spells; later duplicates win.
func NewTable(spells ...Spell) *Table {
	t := &Table{spells: make(map[int64]Spell, len(spells))}
	for _, s := range spells {
		t.spells[s.ID] = s
	}
	return t
}

// Spell implements Lookup.
func (t *Table) Spell(id int64) (Spell, bool) {
	if t == nil {
		return Spell{}, false
	}
	s, ok := t.spells[id]
	return s, ok
}

// SpellName returns the display name of a spell.
func (t *Table) SpellName(id int64) (string, bool) {
	s, ok := t.Spell(id)
	if !ok || s.Name == "" {
		return "", false
	}
	return s.Name, true
}

// Len returns the number of known spells.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.spells)
}

// Merge returns a new table containing t's spells overridden by other's.
func (t *Table) Merge(other *Table) *Table {
	out := NewTable()
	if t != nil {
		for id, s := range t.spells {
			out.spells[id] = s
		}
	}
	if other != nil {
		for id, s := range other.spells {
			out.spells[id] = s
		}
	}
	return out
}

// NameOrFallback returns the spell's name, or "spell #<id>" when unknown.
func NameOrFallback(l Lookup, id int64) string {
	if l != nil {
		if s, ok := l.Spell(id); ok && s.Name != "" {
			return s.Name
		}
	}
	return "spell #" + strconv.FormatInt(id, 10)
}

// IconOrDefault returns the spell's icon, or the generic question-mark icon.
func IconOrDefault(l Lookup, id int64) string {
	if l != nil {
		if s, ok := l.Spell(id); ok && s.Icon != "" {
			return s.Icon
		}
	}
	return DefaultIcon
}

// DefaultIcon is used when a spell has no known icon.
const DefaultIcon = "inv_misc_questionmark"

// LoadFile reads a JSON array of spells.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read spellbook: %w", err)
	}
	var spells []Spell
	if err := json.Unmarshal(data, &spells); err != nil {
		return nil, fmt.Errorf("failed to decode spellbook %s: %w", path, err)
	}
	return NewTable(spells...), nil
}
