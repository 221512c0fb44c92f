package pv

import (
	"strconv"
)

// Severity is the alarm level attached to a PV value.
type Severity int

const (
	// SeverityNone indicates a value inside all alarm limits.
	SeverityNone Severity = 0

	// SeverityMinor indicates a value past a warning limit.
	SeverityMinor Severity = 1

	// SeverityMajor indicates a value past an alarm limit.
	SeverityMajor Severity = 2

	// SeverityInvalid indicates the value could not be read.
	SeverityInvalid Severity = 3
)

// String returns the severity name.
func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "NONE"
	case SeverityMinor:
		return "MINOR"
	case SeverityMajor:
		return "MAJOR"
	case SeverityInvalid:
		return "INVALID"
	default:
		return "UNKNOWN"
	}
}

// IsValid reports whether the severity is one of the defined levels.
func (s Severity) IsValid() bool {
	return s >= SeverityNone && s <= SeverityInvalid
}

// Update is one value-changed event for a PV. Updates are immutable and
// ephemeral; they are not persisted beyond the history windows kept for
// plotting.
type Update struct {
	// Name is the full PV name, including any derived suffix.
	Name string

	// Value is the new value. Usually a float64 (JSON numbers decode to
	// float64) but the instrument layer may produce other scalar types.
	Value any

	// Timestamp is the instrument timestamp in unix seconds.
	Timestamp float64

	// Severity is the alarm level at the time of the update.
	Severity Severity
}

// Float returns the update value coerced to float64.
// ok is false when the value is not numeric.
func (u Update) Float() (float64, bool) {
	return ToFloat(u.Value)
}

// ToFloat coerces a scalar PV value to float64.
func ToFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
