// Package mapping holds the static association between the source CSV header
// names of the SAM contract-opportunities extract and the canonical field
// names consumers query by.
//
// A Table is immutable once built. Resolution against a captured header row
// happens at scan time (see IndexFor); a requested field that cannot be
// resolved is a schema mismatch and is always reported as an error.
package mapping

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownField reports a canonical field that has no mapping entry.
	ErrUnknownField = errors.New("mapping: unknown canonical field")

	// ErrMissingHeader reports a mapped source header that is absent from the
	// captured header row (upstream schema drift).
	ErrMissingHeader = errors.New("mapping: source header not present")
)

// ResolveError describes a failed field → column resolution. It wraps one of
// ErrUnknownField or ErrMissingHeader.
type ResolveError struct {
	Field  string
	Header string
	Err    error
}

func (e *ResolveError) Error() string {
	if e.Header == "" {
		return fmt.Sprintf("column mapping not found for %q: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("column mapping not found for %q (header %q): %v", e.Field, e.Header, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }

// Pair is one (source header, canonical field) entry.
type Pair struct {
	Source string
	Field  string
}

// Table is an ordered, bidirectional header/field association.
type Table struct {
	pairs    []Pair
	byField  map[string]string
	bySource map[string]string
}

// New builds a Table from pairs. Duplicate sources or fields are programming
// errors and cause a panic.
func New(pairs ...Pair) *Table {
	t := &Table{
		pairs:    make([]Pair, len(pairs)),
		byField:  make(map[string]string, len(pairs)),
		bySource: make(map[string]string, len(pairs)),
	}
	copy(t.pairs, pairs)
	for _, p := range pairs {
		if _, dup := t.byField[p.Field]; dup {
			panic(fmt.Sprintf("mapping: duplicate field %q", p.Field))
		}
		if _, dup := t.bySource[p.Source]; dup {
			panic(fmt.Sprintf("mapping: duplicate source header %q", p.Source))
		}
		t.byField[p.Field] = p.Source
		t.bySource[p.Source] = p.Field
	}
	return t
}

// SourceFor returns the source header mapped to field.
func (t *Table) SourceFor(field string) (string, bool) {
	s, ok := t.byField[field]
	return s, ok
}

// FieldFor returns the canonical field mapped from a source header.
func (t *Table) FieldFor(source string) (string, bool) {
	f, ok := t.bySource[source]
	return f, ok
}

// Fields returns the canonical field names in table order.
func (t *Table) Fields() []string {
	out := make([]string, len(t.pairs))
	for i, p := range t.pairs {
		out[i] = p.Field
	}
	return out
}

// Pairs returns a copy of the entries in table order.
func (t *Table) Pairs() []Pair {
	out := make([]Pair, len(t.pairs))
	copy(out, t.pairs)
	return out
}

// Len reports the number of entries.
func (t *Table) Len() int { return len(t.pairs) }

// IndexFor resolves field to its position in headers. Header names are
// compared exactly; the first matching position wins.
func (t *Table) IndexFor(headers []string, field string) (int, error) {
	src, ok := t.byField[field]
	if !ok {
		return -1, &ResolveError{Field: field, Err: ErrUnknownField}
	}
	for i, h := range headers {
		if h == src {
			return i, nil
		}
	}
	return -1, &ResolveError{Field: field, Header: src, Err: ErrMissingHeader}
}
