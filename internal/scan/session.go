// Package scan drives one pull-based scan session over the extract.
//
// A Session fetches the extract once, caches the raw bytes and header record,
// and rebuilds a fresh decoder and CSV reader over the cached bytes on every
// Begin or ReScan. Each call to Next reads one record and reports one of
// three outcomes: a row, a skip (record without identifier), or done.
//
// Requested canonical fields are resolved to source positions once per scan
// and cached by field name. A Session is not safe for concurrent use.
package scan

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"samfdw/internal/cell"
	"samfdw/internal/datasource"
	"samfdw/internal/logging"
	"samfdw/internal/mapping"
	"samfdw/internal/metrics"
	"samfdw/internal/parser/csv"
	"samfdw/internal/transcode"
	"samfdw/internal/transformer"

	"github.com/google/uuid"
	"github.com/zeebo/xxh3"
)

// Result is the outcome of one Next call. Row is set only for OutcomeRow.
type Result struct {
	Outcome Outcome
	Row     cell.Row
}

// Stats counts the outcomes of the current (or last) scan.
type Stats struct {
	Rows  int64
	Skips int64
}

// Option configures a Session.
type Option func(*Session)

// WithTable replaces the default SAM mapping table.
func WithTable(t *mapping.Table) Option { return func(s *Session) { s.table = t } }

// WithIdentifier sets the canonical field whose blank value skips a record.
func WithIdentifier(field string) Option { return func(s *Session) { s.idField = field } }

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option { return func(s *Session) { s.log = l } }

// WithJob sets the job label used for metrics.
func WithJob(job string) Option { return func(s *Session) { s.job = job } }

// WithCSV sets reader options.
func WithCSV(o csv.Options) Option { return func(s *Session) { s.csvOpts = o } }

// Session holds the cached extract and the live reader.
type Session struct {
	src     datasource.Source
	table   *mapping.Table
	idField string
	job     string
	csvOpts csv.Options
	id      string
	log     *slog.Logger

	body    []byte
	fetched bool
	digest  uint64
	fetches int
	headers []string

	state  State
	failed error
	reader *csv.Reader
	index  map[string]int
	plan   transformer.Plan
	stats  Stats
}

// New returns an idle session reading from src.
func New(src datasource.Source, opts ...Option) *Session {
	s := &Session{
		src:     src,
		table:   mapping.SAM,
		idField: mapping.IdentifierField,
		job:     "samfdw",
		id:      uuid.NewString(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	s.log = s.log.With("session_id", s.id)
	return s
}

// ID returns the session's random identifier, as logged.
func (s *Session) ID() string { return s.id }

// State returns the current life-cycle state.
func (s *Session) State() State { return s.state }

// Fetches reports how many times the source was opened.
func (s *Session) Fetches() int { return s.fetches }

// Headers returns the captured header record, nil before the first Begin.
func (s *Session) Headers() []string { return slices.Clone(s.headers) }

// Digest returns the xxh3 hash and size of the cached extract.
func (s *Session) Digest() (sum uint64, size int) { return s.digest, len(s.body) }

// Stats returns outcome counts for the current scan.
func (s *Session) Stats() Stats { return s.stats }

// Begin starts a scan. The source is fetched only when no bytes are cached;
// the reader is always rebuilt at the start of the cached bytes.
func (s *Session) Begin(ctx context.Context) error {
	log := logging.Enrich(ctx, s.log)
	if !s.fetched {
		if err := s.fetch(ctx, log); err != nil {
			return err
		}
	}
	return s.open(log)
}

// ReScan restarts iteration over the cached bytes without fetching again.
func (s *Session) ReScan(ctx context.Context) error {
	if s.state != StateScanning && s.state != StateExhausted {
		return fmt.Errorf("rescan from %s: %w", s.state, ErrNotScanning)
	}
	s.log.Debug("rescan", "rows", s.stats.Rows, "skips", s.stats.Skips)
	return s.Begin(ctx)
}

// End drops the reader and keeps the cached bytes and headers, so a later
// Begin starts a new cycle without fetching.
func (s *Session) End() {
	if s.reader == nil && s.state != StateScanning && s.state != StateExhausted {
		return
	}
	s.reader = nil
	s.index = nil
	s.failed = nil
	s.state = StateEnded
	metrics.RecordRow(s.job, metrics.KindEmitted, s.stats.Rows)
	metrics.RecordRow(s.job, metrics.KindSkipped, s.stats.Skips)
	s.log.Info("scan ended", "rows", s.stats.Rows, "skips", s.stats.Skips)
}

// Next reads one record and projects it onto fields.
//
// Records whose identifier is absent or blank yield OutcomeSkip. At end of
// stream the session moves to Exhausted and every later call yields
// OutcomeDone. Unresolvable fields are returned as errors and leave the
// state unchanged. A structural CSV error ends the pass: it is returned again
// by every later call until Begin, ReScan or End.
func (s *Session) Next(fields []string) (Result, error) {
	switch s.state {
	case StateScanning:
		if s.failed != nil {
			return Result{}, s.failed
		}
	case StateExhausted:
		return Result{Outcome: OutcomeDone}, nil
	default:
		return Result{}, ErrNotScanning
	}

	rec, err := s.reader.Next()
	if errors.Is(err, io.EOF) {
		s.state = StateExhausted
		s.log.Debug("scan exhausted", "rows", s.stats.Rows, "skips", s.stats.Skips)
		return Result{Outcome: OutcomeDone}, nil
	}
	if err != nil {
		// A structural error aborts the pass; only Begin, ReScan or End
		// recover from it.
		s.reader = nil
		s.failed = err
		s.log.Error("scan aborted", "err", err, "rows", s.stats.Rows, "skips", s.stats.Skips)
		return Result{}, err
	}

	idPos, err := s.resolve(s.idField)
	if err != nil {
		return Result{}, err
	}
	if idPos >= len(rec) || strings.TrimSpace(rec[idPos]) == "" {
		s.stats.Skips++
		return Result{Outcome: OutcomeSkip}, nil
	}

	if !slices.Equal(s.plan.Fields(), fields) {
		s.plan = transformer.Compile(fields)
	}
	row := make(cell.Row, len(fields))
	for i, f := range fields {
		pos, err := s.resolve(f)
		if err != nil {
			return Result{}, err
		}
		raw := ""
		if pos < len(rec) {
			raw = rec[pos]
		}
		row[i] = s.plan.Apply(i, raw)
	}
	s.stats.Rows++
	return Result{Outcome: OutcomeRow, Row: row}, nil
}

// resolve maps a canonical field to its source position, once per scan.
func (s *Session) resolve(field string) (int, error) {
	if pos, ok := s.index[field]; ok {
		return pos, nil
	}
	pos, err := s.table.IndexFor(s.headers, field)
	if err != nil {
		return 0, err
	}
	s.index[field] = pos
	return pos, nil
}

func (s *Session) fetch(ctx context.Context, log *slog.Logger) (err error) {
	start := time.Now()
	defer func() { metrics.RecordStep(s.job, "fetch", err, time.Since(start)) }()

	s.fetches++
	rc, err := s.src.Open(ctx)
	if err != nil {
		log.Error("fetch failed", "err", err)
		return fmt.Errorf("fetch extract: %w", err)
	}
	defer rc.Close()

	body, err := io.ReadAll(rc)
	if err != nil {
		log.Error("fetch read failed", "err", err)
		return fmt.Errorf("read extract: %w", err)
	}

	s.body = body
	s.fetched = true
	s.digest = xxh3.Hash(body)
	s.headers = nil
	s.state = StateFetched
	metrics.RecordFetch(s.job, int64(len(body)))
	log.Info("extract fetched",
		"bytes", len(body),
		"xxh3", fmt.Sprintf("%016x", s.digest),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// open rebuilds the decoder and reader over the cached bytes and positions
// the reader after the header record.
func (s *Session) open(log *slog.Logger) error {
	s.reader = nil
	s.failed = nil
	r := csv.NewReader(transcode.NewReader(bytes.NewReader(s.body)), s.csvOpts)
	hdr, err := r.Header()
	if err != nil {
		s.state = StateFetched
		log.Error("read header failed", "err", err)
		return fmt.Errorf("read header: %w", err)
	}
	if s.headers == nil {
		s.headers = hdr
		if rep := s.table.Coverage(hdr); !rep.OK() {
			log.Warn("header mismatch", "missing", rep.Missing, "unmapped", rep.Unmapped)
		}
	}
	idPos, err := s.table.IndexFor(s.headers, s.idField)
	if err != nil {
		s.state = StateFetched
		log.Error("identifier header missing", "field", s.idField)
		return fmt.Errorf("read header: %w", err)
	}

	s.reader = r
	s.index = make(map[string]int, s.table.Len())
	s.index[s.idField] = idPos
	s.stats = Stats{}
	s.state = StateScanning
	log.Debug("scan started", "columns", len(s.headers))
	return nil
}
