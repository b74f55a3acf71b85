package grid

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Comparer orders scalar cell values. Numbers (and numeric strings) compare
// arithmetically, booleans as 0/1, everything else as case-folded strings under
// the configured collation. The deployment default is Polish; pass a different
// tag when the console serves another locale.
type Comparer struct {
	coll *collate.Collator
}

func NewComparer(tag language.Tag) *Comparer {
	return &Comparer{coll: collate.New(tag, collate.IgnoreCase)}
}

// DefaultComparer uses Polish collation.
func DefaultComparer() *Comparer {
	return NewComparer(language.Polish)
}

// Missing reports whether v counts as a missing value for ordering purposes.
// Nil, empty strings, zero times and nil typed pointers all qualify.
func Missing(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case *string:
		return x == nil || *x == ""
	case time.Time:
		return x.IsZero()
	case *time.Time:
		return x == nil || x.IsZero()
	case *int:
		return x == nil
	case *int64:
		return x == nil
	case *float64:
		return x == nil
	case *bool:
		return x == nil
	}
	return false
}

// Compare returns -1, 0 or 1. Both values must be non-missing; callers decide
// missing-value placement themselves so that reversing the direction does not
// move missing values around (see Order).
func (c *Comparer) Compare(a, b any) int {
	if ta, ok := timeValue(a); ok {
		if tb, ok := timeValue(b); ok {
			switch {
			case ta.Before(tb):
				return -1
			case ta.After(tb):
				return 1
			}
			return 0
		}
	}
	if na, ok := numericValue(a); ok {
		if nb, ok := numericValue(b); ok {
			switch {
			case na < nb:
				return -1
			case na > nb:
				return 1
			}
			return 0
		}
	}
	return c.coll.CompareString(stringValue(a), stringValue(b))
}

func timeValue(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case *time.Time:
		if x != nil {
			return *x, true
		}
	}
	return time.Time{}, false
}

func numericValue(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	case *int:
		if x != nil {
			return float64(*x), true
		}
	case *int64:
		if x != nil {
			return float64(*x), true
		}
	case *float64:
		if x != nil {
			return *x, true
		}
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case *bool:
		if x != nil {
			return numericValue(*x)
		}
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err == nil {
			return n, true
		}
	}
	return 0, false
}

func stringValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case *string:
		if x != nil {
			return *x
		}
		return ""
	}
	return fmt.Sprint(v)
}
