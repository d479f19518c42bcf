package commas

import (
	"strconv"

	"golang.org/x/exp/constraints"
)

// Int formats v with thousands separators, e.g. 197281 -> "197,281".
func Int[T constraints.Integer](v T) string {
	if v < 0 {
		return String(strconv.FormatInt(int64(v), 10))
	}
	return String(strconv.FormatUint(uint64(v), 10))
}

// Float formats the integer part of v with thousands separators.
func Float(v float64) string {
	return String(strconv.FormatFloat(v, 'f', 0, 64))
}

func String(s string) string {
	if s == "" {
		return s
	}

	addNegative := false
	if s[0] == '-' {
		addNegative = true
		s = s[1:]
	}

	pos := len(s) - 3
	for pos > 0 {
		s = s[:pos] + "," + s[pos:]
		pos -= 3
	}

	if addNegative {
		return "-" + s
	}
	return s
}
