// Package grid implements the multi-criterion sortable data grid shared by the
// admin workbench views: a total-order value comparer, the per-view sort state
// with its cyclic toggle, and the stable cascading sort itself. Everything here
// is pure; no package-level state, no I/O.
package grid

import (
	"fmt"
	"sort"
)

// Column alignment for rendering.
type Align string

const (
	AlignStart Align = "start"
	AlignEnd   Align = "end"
)

// Column describes one grid column over rows of type Row. SortValue is the
// sort projection; Render the display projection. The two are independent so a
// column can display "120,00 zł" while sorting on the underlying cents.
type Column[Row any] struct {
	Key        string
	Label      string
	Unsortable bool // zero value means sortable
	Align      Align
	SortValue  func(Row) any
	Render     func(Row) string
}

type resolvedCriterion[Row any] struct {
	value func(Row) any
	desc  bool
}

// resolve maps criteria onto column accessors. Criteria naming unknown or
// non-sortable columns are dropped silently: stale state may reference a
// column removed from a later render, and that must never crash.
func resolve[Row any](cols []Column[Row], criteria []Criterion) []resolvedCriterion[Row] {
	byKey := make(map[string]Column[Row], len(cols))
	for _, c := range cols {
		byKey[c.Key] = c
	}
	var out []resolvedCriterion[Row]
	for _, cr := range criteria {
		col, ok := byKey[cr.Key]
		if !ok || col.Unsortable || col.SortValue == nil {
			continue
		}
		out = append(out, resolvedCriterion[Row]{value: col.SortValue, desc: cr.Direction == Desc})
	}
	return out
}

// Order returns rows ordered by the given criteria, cascading through them in
// priority order. With no usable criteria the input is returned unchanged so
// the server's natural order survives. The sort is stable: rows equal under
// every criterion keep their relative input order. Missing values sort after
// all defined values in both directions; reversing a column flips the defined
// values only.
func Order[Row any](cmp *Comparer, cols []Column[Row], rows []Row, criteria []Criterion) []Row {
	resolved := resolve(cols, criteria)
	if len(resolved) == 0 {
		return rows
	}
	out := make([]Row, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		return compareRows(cmp, resolved, out[i], out[j]) < 0
	})
	return out
}

func compareRows[Row any](cmp *Comparer, resolved []resolvedCriterion[Row], a, b Row) int {
	for _, rc := range resolved {
		va, vb := rc.value(a), rc.value(b)
		ma, mb := Missing(va), Missing(vb)
		if ma || mb {
			if ma && mb {
				continue
			}
			if ma {
				return 1
			}
			return -1
		}
		r := cmp.Compare(va, vb)
		if r == 0 {
			continue
		}
		if rc.desc {
			return -r
		}
		return r
	}
	return 0
}

// Indicator renders the sort marker for a column: its 1-based priority in the
// active criteria followed by a direction glyph, or "" when the column is not
// part of the ordering. Lets an operator read a multi-column sort at a glance.
func Indicator(criteria []Criterion, key string) string {
	for i, c := range criteria {
		if c.Key != key {
			continue
		}
		glyph := "↑"
		if c.Direction == Desc {
			glyph = "↓"
		}
		return fmt.Sprintf("%d%s", i+1, glyph)
	}
	return ""
}
