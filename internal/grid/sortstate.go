package grid

// Sort directions.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Criterion is one (column, direction) pair contributing to a multi-key
// ordering. Position in the slice encodes priority: index 0 is the primary
// key, index 1 breaks ties, and so on.
type Criterion struct {
	Key       string    `json:"key"`
	Direction Direction `json:"direction"`
}

// State holds the active sort criteria per view. Each key appears at most once
// in a view's list. State values are never mutated in place; Toggle returns a
// fresh map so callers can hold the previous value for free.
type State map[string][]Criterion

// Toggle advances the sort cycle for key in the given view:
// absent -> appended ascending (lowest priority), ascending -> descending in
// place, descending -> removed. Never touches row data.
func Toggle(s State, view, key string) State {
	cur := s[view]
	next := make([]Criterion, 0, len(cur)+1)
	found := false
	for _, c := range cur {
		if c.Key != key {
			next = append(next, c)
			continue
		}
		found = true
		if c.Direction == Asc {
			next = append(next, Criterion{Key: key, Direction: Desc})
		}
		// Desc: drop the criterion, cycling back to unsorted.
	}
	if !found {
		next = append(next, Criterion{Key: key, Direction: Asc})
	}

	out := make(State, len(s)+1)
	for v, cs := range s {
		out[v] = cs
	}
	out[view] = next
	return out
}
