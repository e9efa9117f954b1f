package storage

import (
	"context"
	"strings"
	"testing"

	"samfdw/internal/cell"
)

var testDialect = Dialect{
	Name:  "testdb",
	Quote: func(s string) string { return "<" + s + ">" },
	Types: map[cell.Kind]string{
		cell.KindText:      "STR",
		cell.KindBool:      "BOOL",
		cell.KindNumeric:   "NUM",
		cell.KindTimestamp: "TS",
	},
}

func init() { RegisterDialect(testDialect) }

type execRepo struct {
	fakeRepo
	stmts []string
}

func (e *execRepo) Exec(_ context.Context, sql string) error {
	e.stmts = append(e.stmts, sql)
	return nil
}

func TestCreateTableSQL(t *testing.T) {
	t.Parallel()

	got, err := CreateTableSQL("testdb", "public.opps", []string{"notice_id", "active", "award_amount", "posted_date"})
	if err != nil {
		t.Fatalf("CreateTableSQL: %v", err)
	}
	want := "CREATE TABLE IF NOT EXISTS <public>.<opps> (\n" +
		"  <notice_id> STR NOT NULL,\n" +
		"  <active> BOOL,\n" +
		"  <award_amount> NUM,\n" +
		"  <posted_date> TS\n)"
	if got != want {
		t.Fatalf("sql =\n%s\nwant\n%s", got, want)
	}
}

func TestCreateTableSQL_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name, kind, table string
		fields            []string
		want              string
	}{
		{"unknown_kind", "nope", "t", []string{"title"}, "no ddl dialect"},
		{"empty_table", "testdb", " ", []string{"title"}, "table FQN must not be empty"},
		{"no_columns", "testdb", "t", nil, "at least one column"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := CreateTableSQL(tc.kind, tc.table, tc.fields)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want containing %q", err, tc.want)
			}
		})
	}
}

func TestBuildCreateTableSQL_CustomCreate(t *testing.T) {
	t.Parallel()

	d := testDialect
	d.Create = func(fqn, cols string) string { return "MAKE " + fqn + " [" + cols + "]" }
	got, err := d.BuildCreateTableSQL(d.TableFor("t", []string{"title"}))
	if err != nil {
		t.Fatal(err)
	}
	if got != "MAKE <t> [<title> STR]" {
		t.Fatalf("got %q", got)
	}
}

func TestEnsureTable_ExecsDDL(t *testing.T) {
	t.Parallel()

	repo := &execRepo{}
	if err := EnsureTable(context.Background(), repo, "testdb", "t", []string{"title"}); err != nil {
		t.Fatal(err)
	}
	if len(repo.stmts) != 1 || !strings.HasPrefix(repo.stmts[0], "CREATE TABLE IF NOT EXISTS <t>") {
		t.Fatalf("stmts = %q", repo.stmts)
	}
}
