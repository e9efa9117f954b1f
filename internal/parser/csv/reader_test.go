package csv

import (
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"

	"samfdw/internal/transcode"
)

/*
drain reads every data record after the header and fails the test on any
non-EOF error.
*/
func drain(t *testing.T, r *Reader) [][]string {
	t.Helper()
	var out [][]string
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		out = append(out, rec)
	}
}

/*
TestReader_FlexibleWidth verifies short and long records are accepted as-is
rather than rejected for a field-count mismatch.
*/
func TestReader_FlexibleWidth(t *testing.T) {
	t.Parallel()

	in := "a,b,c\n1,2,3\n4\n5,6,7,8\n"
	r := NewReader(strings.NewReader(in), Options{})

	h, err := r.Header()
	if err != nil {
		t.Fatalf("Header: %v", err)
	}
	if !reflect.DeepEqual(h, []string{"a", "b", "c"}) {
		t.Fatalf("header = %v", h)
	}

	got := drain(t, r)
	want := [][]string{{"1", "2", "3"}, {"4"}, {"5", "6", "7", "8"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("records = %v, want %v", got, want)
	}
}

/*
TestReader_Quoting covers embedded delimiters, embedded newlines, and doubled
quote escapes.
*/
func TestReader_Quoting(t *testing.T) {
	t.Parallel()

	in := "id,desc\n" +
		"1,\"a, b\"\n" +
		"2,\"line1\nline2\"\n" +
		"3,\"say \"\"hi\"\"\"\n"
	r := NewReader(strings.NewReader(in), Options{})
	if _, err := r.Header(); err != nil {
		t.Fatalf("Header: %v", err)
	}

	got := drain(t, r)
	want := [][]string{
		{"1", "a, b"},
		{"2", "line1\nline2"},
		{"3", `say "hi"`},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("records = %q, want %q", got, want)
	}
}

func TestReader_UnterminatedQuoteIsParseError(t *testing.T) {
	t.Parallel()

	r := NewReader(strings.NewReader("id,desc\n1,ok\n2,\"never closed\n"), Options{})
	if _, err := r.Header(); err != nil {
		t.Fatalf("Header: %v", err)
	}
	if _, err := r.Next(); err != nil {
		t.Fatalf("first record: %v", err)
	}

	_, err := r.Next()
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if pe.Line < 3 {
		t.Fatalf("ParseError.Line = %d, want >= 3", pe.Line)
	}
	if errors.Is(err, io.EOF) {
		t.Fatalf("parse error must not look like end of stream")
	}
}

func TestReader_Header(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		in      string
		want    []string
		wantErr error
	}{
		{name: "utf8_bom", in: "\uFEFFNoticeId,Title\n", want: []string{"NoticeId", "Title"}},
		{name: "cp1252_bom", in: transcode.String([]byte("\xEF\xBB\xBFNoticeId,Title\n")), want: []string{"NoticeId", "Title"}},
		{name: "empty_input", in: "", wantErr: ErrNoHeader},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := NewReader(strings.NewReader(tc.in), Options{}).Header()
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Header: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("header = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestReader_NextWithoutHeaderSkipsIt(t *testing.T) {
	t.Parallel()

	r := NewReader(strings.NewReader("h1;h2\nx;y\n"), Options{Comma: ';'})
	rec, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if !reflect.DeepEqual(rec, []string{"x", "y"}) {
		t.Fatalf("record = %v", rec)
	}
	if r.Line() != 2 {
		t.Fatalf("Line() = %d, want 2", r.Line())
	}
	if _, err := r.Header(); err == nil {
		t.Fatalf("second Header call should fail")
	}
}
