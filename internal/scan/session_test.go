package scan

import (
	"bytes"
	"context"
	"errors"
	"io"
	"reflect"
	"sync"
	"testing"
	"time"

	"samfdw/internal/cell"
	"samfdw/internal/logging"
	"samfdw/internal/mapping"
	"samfdw/internal/metrics"
	"samfdw/internal/parser/csv"

	"github.com/zeebo/xxh3"
)

// countingSource serves body and counts opens.
type countingSource struct {
	body  []byte
	err   error
	opens int
}

func (c *countingSource) Open(ctx context.Context) (io.ReadCloser, error) {
	c.opens++
	if c.err != nil {
		return nil, c.err
	}
	return io.NopCloser(bytes.NewReader(c.body)), nil
}

func newSession(body string) (*Session, *countingSource) {
	src := &countingSource{body: []byte(body)}
	return New(src, WithLogger(logging.Discard())), src
}

// drain calls Next until Done and returns the outcomes and rows seen.
func drain(t *testing.T, s *Session, fields []string) ([]Outcome, []cell.Row) {
	t.Helper()
	var outs []Outcome
	var rows []cell.Row
	for i := 0; i < 1000; i++ {
		res, err := s.Next(fields)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		outs = append(outs, res.Outcome)
		if res.Outcome == OutcomeRow {
			rows = append(rows, res.Row)
		}
		if res.Outcome == OutcomeDone {
			return outs, rows
		}
	}
	t.Fatalf("scan did not terminate")
	return nil, nil
}

const sample = "NoticeId,Title,Award$,Active,PostedDate\n" +
	"A1,First,\"$1,000.00\",Yes,2023-05-01 12:30:00\n" +
	"A2,Second,n/a,No,bad\n"

/*
TestNext_SkipThenRow verifies a record with a blank identifier yields a
skip (not Done, not an error) and the following record is produced on the
next call.
*/
func TestNext_SkipThenRow(t *testing.T) {
	t.Parallel()

	s, _ := newSession("NoticeId,Title\n  ,orphan\nN2,kept\n")
	if err := s.Begin(context.Background()); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	first, err := s.Next([]string{"title"})
	if err != nil || first.Outcome != OutcomeSkip || first.Row != nil {
		t.Fatalf("first Next = %+v, %v; want skip", first, err)
	}
	if s.State() != StateScanning {
		t.Fatalf("state after skip = %s", s.State())
	}
	second, err := s.Next([]string{"title", "notice_id"})
	if err != nil || second.Outcome != OutcomeRow {
		t.Fatalf("second Next = %+v, %v; want row", second, err)
	}
	if want := (cell.Row{cell.Text("kept"), cell.Text("N2")}); !reflect.DeepEqual(second.Row, want) {
		t.Fatalf("row = %#v, want %#v", second.Row, want)
	}
	if st := s.Stats(); st.Rows != 1 || st.Skips != 1 {
		t.Fatalf("stats = %+v", st)
	}
}

// TestNext_MissingIdentifierCellSkips covers a record too short to hold the
// identifier at all.
func TestNext_MissingIdentifierCellSkips(t *testing.T) {
	t.Parallel()

	s, _ := newSession("Title,NoticeId\nonly-title\n")
	if err := s.Begin(context.Background()); err != nil {
		t.Fatal(err)
	}
	res, err := s.Next([]string{"title"})
	if err != nil || res.Outcome != OutcomeSkip {
		t.Fatalf("Next = %+v, %v; want skip", res, err)
	}
}

func TestNext_TransformsAndShortRows(t *testing.T) {
	t.Parallel()

	s, _ := newSession(sample + "A3\n")
	if err := s.Begin(context.Background()); err != nil {
		t.Fatal(err)
	}
	fields := []string{"notice_id", "award_amount", "active", "posted_date", "title"}
	_, rows := drain(t, s, fields)

	posted := cell.Timestamp(time.Date(2023, 5, 1, 12, 30, 0, 0, time.UTC).Unix())
	want := []cell.Row{
		{cell.Text("A1"), cell.Numeric(1000), cell.Bool(true), posted, cell.Text("First")},
		{cell.Text("A2"), cell.Null{}, cell.Bool(false), cell.Null{}, cell.Text("Second")},
		{cell.Text("A3"), cell.Null{}, cell.Null{}, cell.Null{}, cell.Null{}},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("rows =\n%#v\nwant\n%#v", rows, want)
	}
}

// TestReScan_ReproducesRowsWithoutRefetch covers resets from Scanning and
// Exhausted as well as End followed by a new Begin.
func TestReScan_ReproducesRowsWithoutRefetch(t *testing.T) {
	t.Parallel()

	s, src := newSession(sample)
	ctx := context.Background()
	fields := []string{"notice_id", "title", "award_amount"}

	if err := s.Begin(ctx); err != nil {
		t.Fatal(err)
	}
	_, first := drain(t, s, fields)
	if s.State() != StateExhausted {
		t.Fatalf("state = %s, want exhausted", s.State())
	}

	if err := s.ReScan(ctx); err != nil {
		t.Fatalf("ReScan: %v", err)
	}
	_, second := drain(t, s, fields)

	// Reset mid-scan.
	if err := s.ReScan(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Next(fields); err != nil {
		t.Fatal(err)
	}
	if err := s.ReScan(ctx); err != nil {
		t.Fatal(err)
	}
	_, third := drain(t, s, fields)

	s.End()
	if s.State() != StateEnded {
		t.Fatalf("state = %s, want ended", s.State())
	}
	if err := s.Begin(ctx); err != nil {
		t.Fatal(err)
	}
	_, fourth := drain(t, s, fields)

	for i, got := range [][]cell.Row{second, third, fourth} {
		if !reflect.DeepEqual(got, first) {
			t.Fatalf("pass %d rows differ:\n%#v\nvs\n%#v", i+2, got, first)
		}
	}
	if src.opens != 1 || s.Fetches() != 1 {
		t.Fatalf("fetches = %d (source opens %d), want 1", s.Fetches(), src.opens)
	}
	if !reflect.DeepEqual(s.Headers(), []string{"NoticeId", "Title", "Award$", "Active", "PostedDate"}) {
		t.Fatalf("headers = %q", s.Headers())
	}
}

func TestNext_AfterExhaustedKeepsReportingDone(t *testing.T) {
	t.Parallel()

	s, _ := newSession("NoticeId\n")
	if err := s.Begin(context.Background()); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		res, err := s.Next([]string{"notice_id"})
		if err != nil || res.Outcome != OutcomeDone {
			t.Fatalf("call %d = %+v, %v; want done", i, res, err)
		}
	}
}

/*
TestLifecycleErrors covers the hard errors of the life-cycle: use before
Begin, rescan outside a scan, use after End and the read-only modify bracket.
*/
func TestLifecycleErrors(t *testing.T) {
	t.Parallel()

	s, src := newSession(sample)
	ctx := context.Background()

	if _, err := s.Next([]string{"title"}); !errors.Is(err, ErrNotScanning) {
		t.Fatalf("Next before Begin: %v", err)
	}
	if err := s.ReScan(ctx); !errors.Is(err, ErrNotScanning) {
		t.Fatalf("ReScan before Begin: %v", err)
	}
	if src.opens != 0 {
		t.Fatalf("source opened before Begin")
	}

	if err := s.Begin(ctx); err != nil {
		t.Fatal(err)
	}
	s.End()
	if _, err := s.Next([]string{"title"}); !errors.Is(err, ErrNotScanning) {
		t.Fatalf("Next after End: %v", err)
	}
	if err := s.ReScan(ctx); !errors.Is(err, ErrNotScanning) {
		t.Fatalf("ReScan after End: %v", err)
	}

	if err := s.BeginModify(); !errors.Is(err, ErrReadOnly) || err.Error() != "modify on foreign table is not supported" {
		t.Fatalf("BeginModify = %v", err)
	}
	if s.Insert(cell.Row{cell.Text("x")}) != nil || s.Update(cell.Text("id"), nil) != nil ||
		s.Delete(cell.Text("id")) != nil || s.EndModify() != nil {
		t.Fatalf("modify no-ops returned errors")
	}
}

func TestNext_ResolveErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		body   string
		fields []string
		want   error
	}{
		{"unknown_field", sample, []string{"not_a_field"}, mapping.ErrUnknownField},
		{"header_absent", sample, []string{"description"}, mapping.ErrMissingHeader},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			s, _ := newSession(tc.body)
			if err := s.Begin(context.Background()); err != nil {
				t.Fatal(err)
			}
			_, err := s.Next(tc.fields)
			var re *mapping.ResolveError
			if !errors.Is(err, tc.want) || !errors.As(err, &re) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			if s.State() != StateScanning {
				t.Fatalf("state = %s", s.State())
			}
		})
	}
}

func TestBegin_Failures(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection refused")
	src := &countingSource{err: boom}
	s := New(src, WithLogger(logging.Discard()))
	if err := s.Begin(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Begin = %v, want fetch error", err)
	}
	if s.State() != StateIdle {
		t.Fatalf("state = %s, want idle", s.State())
	}
	src.err = nil
	src.body = []byte("NoticeId\n1\n")
	if err := s.Begin(context.Background()); err != nil {
		t.Fatalf("Begin after recovery: %v", err)
	}
	if s.Fetches() != 2 {
		t.Fatalf("fetches = %d, want 2", s.Fetches())
	}

	empty, _ := newSession("")
	if err := empty.Begin(context.Background()); !errors.Is(err, csv.ErrNoHeader) {
		t.Fatalf("Begin on empty body = %v", err)
	}
	if empty.State() != StateFetched {
		t.Fatalf("state = %s, want fetched", empty.State())
	}

	// Without the identifier header nothing could ever be produced.
	for _, body := range []string{"Title\nx\n", "Title,Active\n"} {
		noID, _ := newSession(body)
		err := noID.Begin(context.Background())
		var re *mapping.ResolveError
		if !errors.Is(err, mapping.ErrMissingHeader) || !errors.As(err, &re) || re.Field != mapping.IdentifierField {
			t.Fatalf("%q: Begin = %v, want missing identifier header", body, err)
		}
		if noID.State() != StateFetched {
			t.Fatalf("%q: state = %s, want fetched", body, noID.State())
		}
		if _, err := noID.Next([]string{"title"}); !errors.Is(err, ErrNotScanning) {
			t.Fatalf("%q: Next = %v, want ErrNotScanning", body, err)
		}
	}
}

/*
TestNext_ParseErrorIsHard checks a structural error ends the pass: later
records are never produced until the scan is restarted.
*/
func TestNext_ParseErrorIsHard(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
	}{
		{"unterminated_quote", "NoticeId,Title\nA1,\"unterminated\n"},
		{"bare_quote", "NoticeId,Title\nN1,Valve 2\" ball\nN2,ok\n"},
	}
	for _, tc := range cases {
		s, _ := newSession(tc.body)
		if err := s.Begin(context.Background()); err != nil {
			t.Fatal(err)
		}
		_, err := s.Next([]string{"title"})
		var pe *csv.ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("%s: err = %v, want *csv.ParseError", tc.name, err)
		}
		for i := 0; i < 2; i++ {
			res, again := s.Next([]string{"title"})
			if !errors.As(again, &pe) || res.Outcome == OutcomeRow {
				t.Fatalf("%s: Next after error = %+v, %v", tc.name, res, again)
			}
		}
		if s.Stats().Rows != 0 {
			t.Fatalf("%s: rows = %d", tc.name, s.Stats().Rows)
		}
	}

	// A rescan restarts from the top and hits the same error again.
	s, src := newSession("NoticeId,Title\nN1,Valve 2\" ball\nN2,ok\n")
	if err := s.Begin(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Next([]string{"title"}); err == nil {
		t.Fatal("expected parse error")
	}
	if err := s.ReScan(context.Background()); err != nil {
		t.Fatalf("ReScan after error: %v", err)
	}
	var pe *csv.ParseError
	if _, err := s.Next([]string{"title"}); !errors.As(err, &pe) {
		t.Fatalf("Next after rescan = %v", err)
	}
	s.End()
	if s.State() != StateEnded || src.opens != 1 {
		t.Fatalf("state = %s opens = %d", s.State(), src.opens)
	}
	if _, err := s.Next([]string{"title"}); !errors.Is(err, ErrNotScanning) {
		t.Fatalf("Next after End = %v", err)
	}
}

// TestBegin_DecodesWindows1252 checks bytes outside ASCII are decoded as
// windows-1252 and the digest covers the raw body.
func TestBegin_DecodesWindows1252(t *testing.T) {
	t.Parallel()

	body := []byte("NoticeId,Title\nA1,Caf\xe9 \x93quoted\x94\n")
	src := &countingSource{body: body}
	s := New(src, WithLogger(logging.Discard()))
	if err := s.Begin(context.Background()); err != nil {
		t.Fatal(err)
	}
	res, err := s.Next([]string{"title"})
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Row[0]; got != cell.Text("Café “quoted”") {
		t.Fatalf("title = %q", got)
	}
	if sum, size := s.Digest(); sum != xxh3.Hash(body) || size != len(body) {
		t.Fatalf("digest = %x/%d", sum, size)
	}
}

func TestOptions(t *testing.T) {
	t.Parallel()

	table := mapping.New(mapping.Pair{Source: "id", Field: "key"}, mapping.Pair{Source: "v", Field: "value"})
	src := &countingSource{body: []byte("id;v\nk1;x\n")}
	s := New(src,
		WithTable(table),
		WithIdentifier("key"),
		WithCSV(csv.Options{Comma: ';'}),
		WithJob("test"),
		WithLogger(logging.Discard()),
	)
	if s.ID() == "" {
		t.Fatalf("empty session id")
	}
	if err := s.Begin(context.Background()); err != nil {
		t.Fatal(err)
	}
	res, err := s.Next([]string{"value", "key"})
	if err != nil || !reflect.DeepEqual(res.Row, cell.Row{cell.Text("x"), cell.Text("k1")}) {
		t.Fatalf("Next = %+v, %v", res, err)
	}
}

type rowCounter struct {
	mu   sync.Mutex
	rows map[string]float64
	size float64
}

func (r *rowCounter) IncCounter(name string, delta float64, l metrics.Labels) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if name == metrics.RowsTotal {
		r.rows[l["kind"]] += delta
	}
}

func (r *rowCounter) ObserveHistogram(name string, v float64, _ metrics.Labels) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if name == metrics.FetchBytes {
		r.size = v
	}
}

func (r *rowCounter) Flush() error { return nil }

// TestMetrics installs a global backend, so it does not run in parallel.
func TestMetrics(t *testing.T) {
	rc := &rowCounter{rows: map[string]float64{}}
	prev := metrics.SetBackend(rc)
	t.Cleanup(func() { metrics.SetBackend(prev) })

	body := "NoticeId\n1\n \n2\n"
	s, _ := newSession(body)
	if err := s.Begin(context.Background()); err != nil {
		t.Fatal(err)
	}
	drain(t, s, []string{"notice_id"})
	s.End()

	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.rows[metrics.KindEmitted] != 2 || rc.rows[metrics.KindSkipped] != 1 {
		t.Fatalf("rows = %v", rc.rows)
	}
	if rc.size != float64(len(body)) {
		t.Fatalf("fetch size = %v", rc.size)
	}
}
