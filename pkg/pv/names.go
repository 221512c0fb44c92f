package pv

import "strings"

// Motor channel suffixes derived from a motor base name.
const (
	// SuffixReadback is the motor readback channel.
	SuffixReadback = ":RBV"

	// SuffixSetpoint is the motor setpoint channel.
	SuffixSetpoint = ":VAL"

	// SuffixMoving is the motor moving-flag channel.
	SuffixMoving = ":MOVN"
)

// MotorNames expands a motor base name into its derived channel names.
func MotorNames(base string) []string {
	return []string{
		base + SuffixReadback,
		base + SuffixSetpoint,
		base + SuffixMoving,
	}
}

// MatchSuffix reports whether name is derived from base and returns the
// suffix (the tail beyond the base). An exact match returns suffix "".
//
// The base is assumed to be a strict prefix of every derived name. A PV
// naming scheme with shared prefixes across unrelated devices can make
// this misattribute updates; callers that need exact matching should
// compare names directly instead.
func MatchSuffix(base, name string) (string, bool) {
	if base == "" {
		return "", false
	}
	if !strings.HasPrefix(name, base) {
		return "", false
	}
	return name[len(base):], true
}
