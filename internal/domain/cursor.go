package domain

import "strings"

// Cursor identifies the most recent record processed. Search requests ask for
// everything strictly newer than it. Values are decimal record IDs.
type Cursor string

func (c Cursor) IsZero() bool {
	return c == ""
}

func (c Cursor) String() string {
	return string(c)
}

// Before reports whether c is strictly older than other. IDs are compared
// numerically without parsing so values beyond int64 still order correctly.
func (c Cursor) Before(other Cursor) bool {
	a := strings.TrimLeft(string(c), "0")
	b := strings.TrimLeft(string(other), "0")
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
