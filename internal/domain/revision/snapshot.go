package revision

import (
	"reflect"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot is the business state of a record keyed by column name
type Snapshot map[string]any

// Diff returns the columns, in the given order, whose values differ
func (s Snapshot) Diff(other Snapshot, columns []string) []string {
	var changed []string
	for _, col := range columns {
		if !Equal(s[col], other[col]) {
			changed = append(changed, col)
		}
	}
	return changed
}

// Equal compares two snapshot values. Pointers are dereferenced, decimals
// compare numerically and times compare as instants.
func Equal(a, b any) bool {
	a, b = deref(a), deref(b)
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case decimal.Decimal:
		bv, ok := toDecimal(b)
		return ok && av.Equal(bv)
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	case []int64:
		bv, ok := b.([]int64)
		return ok && sameIDs(av, bv)
	}
	if bd, ok := b.(decimal.Decimal); ok {
		ad, ok := toDecimal(a)
		return ok && ad.Equal(bd)
	}
	return reflect.DeepEqual(a, b)
}

// SameIDs compares two id sets ignoring order and duplicates
func SameIDs(a, b []int64) bool {
	return sameIDs(a, b)
}

func sameIDs(a, b []int64) bool {
	x := slices.Compact(slices.Sorted(slices.Values(a)))
	y := slices.Compact(slices.Sorted(slices.Values(b)))
	return slices.Equal(x, y)
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case decimal.Decimal:
		return t, true
	case int:
		return decimal.NewFromInt(int64(t)), true
	case int64:
		return decimal.NewFromInt(t), true
	case float64:
		return decimal.NewFromFloat(t), true
	case string:
		d, err := decimal.NewFromString(t)
		return d, err == nil
	}
	return decimal.Decimal{}, false
}

func deref(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	return rv.Interface()
}

func isNil(v any) bool {
	v = deref(v)
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	return false
}
