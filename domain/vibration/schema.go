package vibration

import (
	"strings"

	"phmagent/domain/core"
)

// ColumnPolicy decides which columns play the time and value roles.
// Implementations must be pure functions of the column list.
type ColumnPolicy func(columns []string) (ColumnRoles, error)

var (
	// DefaultTimeKeys match column names such as "Time", "Device_Time", "date".
	DefaultTimeKeys = []string{"time", "date"}
	// DefaultValueKeys match column names such as "Vibration", "VibrationX".
	DefaultValueKeys = []string{"vibration"}
)

// DefaultColumnPolicy resolves the first time/date column and the first
// vibration column by case-insensitive substring match.
func DefaultColumnPolicy() ColumnPolicy {
	return SubstringPolicy(DefaultTimeKeys, DefaultValueKeys)
}

// SubstringPolicy picks, in column order, the first column whose lowercased
// name contains any of the given keys.
func SubstringPolicy(timeKeys, valueKeys []string) ColumnPolicy {
	return func(columns []string) (ColumnRoles, error) {
		valueCol, ok := firstContaining(columns, valueKeys)
		if !ok {
			return ColumnRoles{}, core.NewSchemaDetectionError("value", columns)
		}
		timeCol, ok := firstContaining(columns, timeKeys)
		if !ok {
			return ColumnRoles{}, core.NewSchemaDetectionError("time", columns)
		}
		return ColumnRoles{Time: timeCol, Value: valueCol}, nil
	}
}

// ExplicitPolicy uses fixed column names and only checks they exist.
func ExplicitPolicy(timeCol, valueCol string) ColumnPolicy {
	return func(columns []string) (ColumnRoles, error) {
		if !contains(columns, valueCol) {
			return ColumnRoles{}, core.NewSchemaDetectionError("value", columns)
		}
		if !contains(columns, timeCol) {
			return ColumnRoles{}, core.NewSchemaDetectionError("time", columns)
		}
		return ColumnRoles{Time: timeCol, Value: valueCol}, nil
	}
}

// TimeLikeColumns returns every column the default time keys match.
func TimeLikeColumns(columns []string) []string {
	var out []string
	for _, c := range columns {
		if matchesAny(c, DefaultTimeKeys) {
			out = append(out, c)
		}
	}
	return out
}

func firstContaining(columns, keys []string) (string, bool) {
	for _, c := range columns {
		if matchesAny(c, keys) {
			return c, true
		}
	}
	return "", false
}

func matchesAny(column string, keys []string) bool {
	lower := strings.ToLower(column)
	for _, k := range keys {
		if strings.Contains(lower, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

func contains(columns []string, name string) bool {
	for _, c := range columns {
		if c == name {
			return true
		}
	}
	return false
}
