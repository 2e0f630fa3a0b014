package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Numeric is a float64 with permissive JSON decoding. Draft invoices arrive
// with numeric fields as numbers, quoted numbers, empty strings or null;
// anything that does not parse as a finite number decodes as zero instead of
// failing the whole request. It never unmarshals to NaN or Inf.
type Numeric float64

// UnmarshalJSON implements the parse-numeric-or-zero policy.
func (n *Numeric) UnmarshalJSON(b []byte) error {
	*n = Numeric(parseNumericOrZero(string(b)))
	return nil
}

// MarshalJSON emits a plain JSON number, coercing NaN/Inf to 0 so a stored
// value can always be serialized.
func (n Numeric) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		f = 0
	}
	return json.Marshal(f)
}

// Float64 returns the underlying value with NaN/Inf coerced to 0.
func (n Numeric) Float64() float64 {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// parseNumericOrZero interprets a raw JSON token as a number.
// Accepted: numbers and quoted numbers (with surrounding whitespace).
// Everything else (null, booleans, objects, non-numeric strings) yields 0.
func parseNumericOrZero(raw string) float64 {
	s := strings.TrimSpace(raw)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
