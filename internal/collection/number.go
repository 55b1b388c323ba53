package collection

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// FlexNumber a form value that may arrive as a JSON number or as a string.
type FlexNumber struct {
	raw    string
	quoted bool
}

// Num wraps a numeric value.
func Num(v float64) FlexNumber {
	return FlexNumber{raw: strconv.FormatFloat(v, 'f', -1, 64)}
}

// Str wraps a textual value as typed into the form.
func Str(s string) FlexNumber {
	return FlexNumber{raw: s, quoted: true}
}

func (n *FlexNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*n = FlexNumber{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = Str(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*n = Num(f)
	return nil
}

func (n FlexNumber) MarshalJSON() ([]byte, error) {
	switch {
	case n.raw == "" && !n.quoted:
		return []byte("null"), nil
	case n.quoted:
		return json.Marshal(n.raw)
	default:
		return []byte(n.raw), nil
	}
}

// IsZero reports whether the value is absent, empty, or numerically zero.
func (n FlexNumber) IsZero() bool {
	if strings.TrimSpace(n.raw) == "" {
		return true
	}
	if !n.quoted {
		f, _ := strconv.ParseFloat(n.raw, 64)
		return f == 0
	}
	return false
}

// Float parses the value as a decimal.
func (n FlexNumber) Float() (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(n.raw), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Int returns the integer value. Numbers are truncated; strings are read up to
// the first non-digit, so "12b" is 12 and "abc" is not a number.
func (n FlexNumber) Int() (int, bool) {
	if !n.quoted {
		f, err := strconv.ParseFloat(n.raw, 64)
		if err != nil {
			return 0, false
		}
		return int(f), true
	}

	s := strings.TrimSpace(n.raw)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	v, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return v, true
}
