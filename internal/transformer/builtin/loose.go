package builtin

import (
	"math"
	"strconv"
	"strings"
)

// ParseBoolLoose accepts the usual spellings of a boolean flag. ok is false
// when s is none of them.
func ParseBoolLoose(s string) (v bool, ok bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "1", "t", "true", "yes", "y":
		return true, true
	case "0", "f", "false", "no", "n":
		return false, true
	default:
		return false, false
	}
}

// ParseIntLoose parses an optional integer column. Integral floats such as
// "12.0" are accepted because spreadsheet exports write them. Anything else,
// including nil, yields nil.
func ParseIntLoose(v any) *int64 {
	s, ok := asString(v)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return nil
	}
	n := int64(f)
	return &n
}
