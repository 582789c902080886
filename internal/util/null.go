package util

// FloatPtr returns a pointer to f.
func FloatPtr(f float64) *float64 {
	return &f
}

// FormatFloatPtr formats an optional float; nil is the empty string.
func FormatFloatPtr(f *float64) string {
	if f == nil {
		return ""
	}
	return FormatFloat(*f)
}
