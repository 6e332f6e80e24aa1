package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// The spreadsheet backend is not strict about numeric cells: an amount
// or year may arrive as a JSON number, a quoted string, or garbage.
// Amount and Year decode all of those, degrading to zero instead of
// failing the whole snapshot.

// Amount is a whole-currency-unit money value (KRW).
type Amount int64

func (a *Amount) UnmarshalJSON(data []byte) error {
	*a = Amount(lenientInt64(data))
	return nil
}

// Year is a four-digit target year.
type Year int

func (y *Year) UnmarshalJSON(data []byte) error {
	*y = Year(lenientInt64(data))
	return nil
}

func lenientInt64(data []byte) int64 {
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		return 0
	}
	s = strings.Trim(s, `"`)
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	// Sheets occasionally exports integers as "123.0".
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}
	return 0
}

var _ json.Unmarshaler = (*Amount)(nil)
var _ json.Unmarshaler = (*Year)(nil)
