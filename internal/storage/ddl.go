package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"samfdw/internal/cell"
	"samfdw/internal/mapping"
	"samfdw/internal/transformer"
)

// Dialect describes how a backend spells identifiers, column types and the
// CREATE TABLE statement.
type Dialect struct {
	Name string
	// Quote quotes a single identifier part.
	Quote func(ident string) string
	// Types maps a value kind to the column type that holds it.
	Types map[cell.Kind]string
	// Create wraps a quoted table name and rendered column list into a
	// statement that is a no-op when the table exists. Nil means
	// CREATE TABLE IF NOT EXISTS.
	Create func(fqn, columns string) string
}

// ColumnDef is one rendered column.
type ColumnDef struct {
	Name     string
	SQLType  string
	Nullable bool
}

// TableDef is a table to create.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

var (
	dialectMu sync.RWMutex
	dialects  = map[string]Dialect{}
)

// RegisterDialect installs d under d.Name.
func RegisterDialect(d Dialect) {
	dialectMu.Lock()
	defer dialectMu.Unlock()
	dialects[d.Name] = d
}

// DialectFor returns the dialect registered for kind.
func DialectFor(kind string) (Dialect, bool) {
	dialectMu.RLock()
	defer dialectMu.RUnlock()
	d, ok := dialects[kind]
	return d, ok
}

// QuoteFQN quotes each dot-separated part of name.
func (d Dialect) QuoteFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = d.Quote(p)
	}
	return strings.Join(parts, ".")
}

// TableFor derives a table definition for fields from their value kinds.
// The identifier column is NOT NULL; every other column is nullable.
func (d Dialect) TableFor(table string, fields []string) TableDef {
	td := TableDef{FQN: table, Columns: make([]ColumnDef, 0, len(fields))}
	for _, f := range fields {
		td.Columns = append(td.Columns, ColumnDef{
			Name:     f,
			SQLType:  d.Types[transformer.KindFor(f)],
			Nullable: f != mapping.IdentifierField,
		})
	}
	return td
}

// BuildCreateTableSQL renders td in this dialect.
func (d Dialect) BuildCreateTableSQL(td TableDef) (string, error) {
	fqn := strings.TrimSpace(td.FQN)
	if fqn == "" {
		return "", fmt.Errorf("%s ddl: table FQN must not be empty", d.Name)
	}
	if len(td.Columns) == 0 {
		return "", fmt.Errorf("%s ddl: at least one column is required", d.Name)
	}
	cols := make([]string, 0, len(td.Columns))
	for _, c := range td.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("%s ddl: column with empty name in table %s", d.Name, fqn)
		}
		if c.SQLType == "" {
			return "", fmt.Errorf("%s ddl: column %s missing SQLType", d.Name, name)
		}
		col := d.Quote(name) + " " + c.SQLType
		if !c.Nullable {
			col += " NOT NULL"
		}
		cols = append(cols, col)
	}
	body := strings.Join(cols, ",\n  ")
	if d.Create != nil {
		return d.Create(d.QuoteFQN(fqn), body), nil
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)", d.QuoteFQN(fqn), body), nil
}

// CreateTableSQL renders the CREATE TABLE statement for fields in the
// dialect registered under kind.
func CreateTableSQL(kind, table string, fields []string) (string, error) {
	d, ok := DialectFor(kind)
	if !ok {
		return "", fmt.Errorf("no ddl dialect for storage.kind=%s", kind)
	}
	return d.BuildCreateTableSQL(d.TableFor(table, fields))
}

// EnsureTable creates table for fields through repo when it does not exist.
func EnsureTable(ctx context.Context, repo Repository, kind, table string, fields []string) error {
	sql, err := CreateTableSQL(kind, table, fields)
	if err != nil {
		return err
	}
	if err := repo.Exec(ctx, sql); err != nil {
		return fmt.Errorf("ensure table %s: %w", table, err)
	}
	return nil
}
