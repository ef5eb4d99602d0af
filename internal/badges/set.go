package badges

import (
	"encoding/json"
	"slices"
)

// Set is an ordered collection of badges with set semantics on ID.
// Badges keep the order they were added in. The zero value is an empty set.
type Set struct {
	items []Badge
}

// NewSet builds a set from bs. When an ID repeats, the first entry wins.
func NewSet(bs ...Badge) Set {
	var s Set
	for _, b := range bs {
		s.Add(b)
	}
	return s
}

// Len returns the number of badges in the set.
func (s Set) Len() int {
	return len(s.items)
}

// Has reports whether a badge with id is present.
func (s Set) Has(id ID) bool {
	_, ok := s.Get(id)
	return ok
}

// Get returns the badge with id, if present.
func (s Set) Get(id ID) (Badge, bool) {
	for _, b := range s.items {
		if b.ID == id {
			return b, true
		}
	}
	return Badge{}, false
}

// Badges returns a copy of the badges in insertion order.
func (s Set) Badges() []Badge {
	return slices.Clone(s.items)
}

// Add inserts b unless its ID is already present. An existing entry is never
// overwritten, so its EarnedAt stays fixed. Reports whether b was added.
func (s *Set) Add(b Badge) bool {
	if s.Has(b.ID) {
		return false
	}
	s.items = append(slices.Clip(s.items), b)
	return true
}

// Merge returns a new set holding s plus any badges from bs whose IDs are
// not yet present. s itself is left unchanged.
func (s Set) Merge(bs []Badge) Set {
	out := Set{items: slices.Clone(s.items)}
	for _, b := range bs {
		out.Add(b)
	}
	return out
}

func (s Set) MarshalJSON() ([]byte, error) {
	if s.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.items)
}

func (s *Set) UnmarshalJSON(b []byte) error {
	var bs []Badge
	if err := json.Unmarshal(b, &bs); err != nil {
		return err
	}
	*s = NewSet(bs...)
	return nil
}
