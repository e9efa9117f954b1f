package cell

import (
	"reflect"
	"testing"
	"time"
)

func TestKinds(t *testing.T) {
	t.Parallel()

	cases := []struct {
		c    Cell
		kind Kind
		val  any
		str  string
	}{
		{Null{}, KindNull, nil, ""},
		{Text("abc"), KindText, "abc", "abc"},
		{Bool(true), KindBool, true, "true"},
		{Numeric(1234.5), KindNumeric, 1234.5, "1234.5"},
		{Timestamp(1682944200), KindTimestamp, time.Date(2023, 5, 1, 12, 30, 0, 0, time.UTC), "2023-05-01T12:30:00Z"},
	}
	for _, tc := range cases {
		if got := tc.c.Kind(); got != tc.kind {
			t.Errorf("%#v.Kind() = %v, want %v", tc.c, got, tc.kind)
		}
		if got := tc.c.Value(); !reflect.DeepEqual(got, tc.val) {
			t.Errorf("%#v.Value() = %#v, want %#v", tc.c, got, tc.val)
		}
		if got := tc.c.String(); got != tc.str {
			t.Errorf("%#v.String() = %q, want %q", tc.c, got, tc.str)
		}
	}
}

func TestRowConversions(t *testing.T) {
	t.Parallel()

	r := Row{Text("x"), Null{}, nil, Timestamp(0), Bool(false)}

	vals := r.Values()
	want := []any{"x", nil, nil, time.Unix(0, 0).UTC(), false}
	if !reflect.DeepEqual(vals, want) {
		t.Fatalf("Values() = %#v, want %#v", vals, want)
	}

	strs := r.Strings()
	if !reflect.DeepEqual(strs, []string{"x", "", "", "1970-01-01T00:00:00Z", "false"}) {
		t.Fatalf("Strings() = %q", strs)
	}

	if JSON(Timestamp(42)) != int64(42) || JSON(Null{}) != nil || JSON(nil) != nil {
		t.Fatalf("JSON conversions unexpected")
	}
	if !IsNull(nil) || !IsNull(Null{}) || IsNull(Text("")) {
		t.Fatalf("IsNull unexpected")
	}
}
