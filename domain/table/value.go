package table

import (
	"strconv"
	"strings"
	"time"
)

// Kind identifies the scalar type held by a Value.
type Kind int

const (
	KindMissing Kind = iota
	KindString
	KindNumber
	KindTime
)

// Value is a single table cell: a string, a number, a time, or missing.
// The zero Value is missing.
type Value struct {
	kind Kind
	s    string
	n    float64
	t    time.Time
}

// Missing returns the missing Value.
func Missing() Value {
	return Value{}
}

// NewString wraps a string cell. Empty strings stay strings; callers that
// want to treat blanks as missing do so explicitly.
func NewString(s string) Value {
	return Value{kind: KindString, s: s}
}

// NewNumber wraps a numeric cell.
func NewNumber(n float64) Value {
	return Value{kind: KindNumber, n: n}
}

// NewTime wraps a datetime cell.
func NewTime(t time.Time) Value {
	return Value{kind: KindTime, t: t}
}

// Kind returns the scalar kind.
func (v Value) Kind() Kind {
	return v.kind
}

// IsMissing reports whether the cell is missing/null.
func (v Value) IsMissing() bool {
	return v.kind == KindMissing
}

// Float returns the numeric content, ok=false for non-numeric cells.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.n, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Time returns the datetime content, ok=false for non-time cells.
func (v Value) Time() (time.Time, bool) {
	if v.kind != KindTime {
		return time.Time{}, false
	}
	return v.t, true
}

// Text renders the cell for display and category grouping. Missing cells
// render as the empty string; numbers use the shortest round-trip form.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindNumber:
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	case KindTime:
		return v.t.Format("2006-01-02")
	default:
		return ""
	}
}

// dateLayouts covers the spellings seen in the program's Excel exports.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"02-01-2006",
	"02/01/2006",
	"01-02-06",
	"1/2/2006",
	"1/2/06",
	"02-Jan-2006",
	"02-Jan-06",
	time.RFC3339,
}

// ParseTime coerces a cell to a datetime. Invalid values yield ok=false,
// the caller's "missing" semantics.
func ParseTime(v Value) (time.Time, bool) {
	switch v.kind {
	case KindTime:
		return v.t, true
	case KindString:
		s := strings.TrimSpace(v.s)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}
