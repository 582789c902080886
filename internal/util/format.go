package util

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/thrash-lab/viability-test/internal/stats"
)

// FormatNumber formats an int64 with K/M suffix for readability.
// Examples: 500 -> "500", 1500 -> "1.5K", 1500000 -> "1.5M"
func FormatNumber(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	}
	return fmt.Sprintf("%.1fM", float64(n)/1000000)
}

// FormatPercent formats a fraction as a percentage with three decimals.
// Examples: 0.05 -> "5.000%", 1 -> "100.000%", NaN -> "NaN%", +Inf -> "inf%"
func FormatPercent(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN%"
	case math.IsInf(f, 1):
		return "inf%"
	case math.IsInf(f, -1):
		return "-inf%"
	}
	return fmt.Sprintf("%.3f%%", f*100)
}

// FormatWells formats an interval with whole-well precision.
// Example: {12, 6, 19} -> "12 (6-19, 95%CI)"
func FormatWells(ci stats.CI) string {
	return fmt.Sprintf("%.0f (%.0f-%.0f, %g%%CI)", ci.Median, ci.Low, ci.High, ci.Level)
}

// FormatSeconds formats a duration in seconds with millisecond precision.
// Example: 1500ms -> "1.500"
func FormatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}

// FormatFloat formats a float in its shortest exact form; NaN and infinities
// are written as "NaN", "inf" and "-inf".
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
