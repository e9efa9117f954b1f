// Package cell defines the typed value produced for every output column.
//
// Cell is a closed sum type with exactly five variants: Null, Text, Bool,
// Numeric and Timestamp. The marker method is unexported, so no other package
// can add variants, and each variant carries a single payload.
package cell

import (
	"strconv"
	"time"
)

// Kind tags a Cell variant.
type Kind uint8

const (
	KindNull Kind = iota
	KindText
	KindBool
	KindNumeric
	KindTimestamp
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindText:
		return "text"
	case KindBool:
		return "bool"
	case KindNumeric:
		return "numeric"
	case KindTimestamp:
		return "timestamp"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Cell is one typed value.
type Cell interface {
	Kind() Kind

	// Value returns the database/sql driver form: nil, string, bool, float64
	// or time.Time (UTC).
	Value() any

	// String renders the value as text; Null renders as "".
	String() string

	isCell()
}

// Row is one output row, aligned to the caller's requested field list.
type Row []Cell

type (
	// Null is the absent value.
	Null struct{}
	// Text is a string value.
	Text string
	// Bool is a boolean value.
	Bool bool
	// Numeric is a floating point value.
	Numeric float64
	// Timestamp is seconds since the Unix epoch, UTC.
	Timestamp int64
)

func (Null) Kind() Kind      { return KindNull }
func (Text) Kind() Kind      { return KindText }
func (Bool) Kind() Kind      { return KindBool }
func (Numeric) Kind() Kind   { return KindNumeric }
func (Timestamp) Kind() Kind { return KindTimestamp }

func (Null) Value() any        { return nil }
func (c Text) Value() any      { return string(c) }
func (c Bool) Value() any      { return bool(c) }
func (c Numeric) Value() any   { return float64(c) }
func (c Timestamp) Value() any { return c.Time() }

func (Null) String() string        { return "" }
func (c Text) String() string      { return string(c) }
func (c Bool) String() string      { return strconv.FormatBool(bool(c)) }
func (c Numeric) String() string   { return strconv.FormatFloat(float64(c), 'f', -1, 64) }
func (c Timestamp) String() string { return c.Time().Format(time.RFC3339) }

func (Null) isCell()      {}
func (Text) isCell()      {}
func (Bool) isCell()      {}
func (Numeric) isCell()   {}
func (Timestamp) isCell() {}

// Time converts the timestamp to a UTC time.Time.
func (c Timestamp) Time() time.Time { return time.Unix(int64(c), 0).UTC() }

// IsNull reports whether c is nil or Null.
func IsNull(c Cell) bool {
	return c == nil || c.Kind() == KindNull
}

// JSON returns a value suitable for encoding/json: nil, string, bool,
// float64, or the timestamp as epoch seconds.
func JSON(c Cell) any {
	switch v := c.(type) {
	case nil, Null:
		return nil
	case Timestamp:
		return int64(v)
	default:
		return c.Value()
	}
}

// Values converts a row to driver values, for storage sinks.
func (r Row) Values() []any {
	out := make([]any, len(r))
	for i, c := range r {
		if c == nil {
			continue
		}
		out[i] = c.Value()
	}
	return out
}

// Strings renders a row as text, for CSV output.
func (r Row) Strings() []string {
	out := make([]string, len(r))
	for i, c := range r {
		if c == nil {
			continue
		}
		out[i] = c.String()
	}
	return out
}
