// Package csv implements a lazy, width-tolerant CSV reader for the extract.
//
// Records are tokenized on demand with encoding/csv in flexible mode: a data
// record may carry fewer or more fields than the header. Quoting follows the
// usual rules (quoted fields may embed delimiters and newlines, "" escapes a
// quote). Structural errors such as an unterminated quote surface as
// *ParseError and are not retried.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// ErrNoHeader is returned by Header when the input holds no records at all.
var ErrNoHeader = errors.New("csv: missing header record")

// ParseError is a structural error at a given input line.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string { return fmt.Sprintf("csv: line %d: %v", e.Line, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// Options configures the Reader. Zero values are valid.
type Options struct {
	// Comma is the field delimiter; ',' when zero.
	Comma rune

	// LazyQuotes relaxes quote handling (csv.Reader.LazyQuotes). Off by
	// default so that unterminated quotes are reported.
	LazyQuotes bool
}

// Reader yields the header record once and data records after it.
// A Reader is not safe for concurrent use.
type Reader struct {
	cr         *csv.Reader
	headerRead bool
	line       int
}

// NewReader wraps r. r should already yield UTF-8 text.
func NewReader(r io.Reader, opt Options) *Reader {
	cr := csv.NewReader(r)
	if opt.Comma != 0 {
		cr.Comma = opt.Comma
	}
	cr.LazyQuotes = opt.LazyQuotes
	cr.FieldsPerRecord = -1 // flexible width
	return &Reader{cr: cr}
}

// Header consumes and returns the header record. It must be called before
// Next; calling it again returns an error.
func (r *Reader) Header() ([]string, error) {
	if r.headerRead {
		return nil, errors.New("csv: header already consumed")
	}
	r.headerRead = true

	h, err := r.cr.Read()
	if err == io.EOF {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, r.wrap(err)
	}
	r.mark(h)
	return StripHeaderBOM(h), nil
}

// Next returns the next data record, io.EOF at end of input, or a
// *ParseError. If Header was never called, the header record is consumed
// and discarded first.
func (r *Reader) Next() ([]string, error) {
	if !r.headerRead {
		if _, err := r.Header(); err != nil {
			if errors.Is(err, ErrNoHeader) {
				return nil, io.EOF
			}
			return nil, err
		}
	}
	rec, err := r.cr.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, r.wrap(err)
	}
	r.mark(rec)
	return rec, nil
}

// Line reports the input line of the most recently read record.
func (r *Reader) Line() int { return r.line }

func (r *Reader) mark(rec []string) {
	if len(rec) > 0 {
		r.line, _ = r.cr.FieldPos(0)
	}
}

func (r *Reader) wrap(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &ParseError{Line: pe.Line, Err: pe.Err}
	}
	return &ParseError{Line: r.line + 1, Err: err}
}
