package analysis

import (
	"math"

	"phmagent/domain/vibration"
)

// ValueAccessor extracts the numeric value of a row. ok is false when the
// value is missing or non-numeric.
type ValueAccessor func(row vibration.Row) (value float64, ok bool)

// ColumnValue reads the named column through NumericValue.
func ColumnValue(column string) ValueAccessor {
	return func(row vibration.Row) (float64, bool) {
		v, found := row.Get(column)
		if !found {
			return 0, false
		}
		return NumericValue(v)
	}
}

// NumericValue accepts Go integer and floating kinds. Strings, byte slices,
// nil, NaN and infinities are not numeric.
func NumericValue(v interface{}) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int8:
		f = float64(x)
	case int16:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint8:
		f = float64(x)
	case uint16:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
