package util

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ToInt64 parses a whole number. Integral decimals such as "96.0" are
// accepted so that spreadsheet exports parse.
func ToInt64(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.Abs(f) > 1<<53 {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	return int64(f), nil
}

// ToFloat64 parses a decimal number, ignoring surrounding whitespace.
func ToFloat64(s string) (float64, error) {
	s = strings.TrimSpace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return f, nil
}
