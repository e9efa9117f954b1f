// Package sqldb implements storage.Repository over database/sql for the
// SQLite, MySQL and SQL Server backends.
//
// SQLite and MySQL insert batches with a prepared INSERT inside a
// transaction. SQL Server uses the driver's bulk copy (INSERT BULK).
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"
	_ "modernc.org/sqlite"

	"samfdw/internal/cell"
	"samfdw/internal/storage"
)

// backend binds a storage kind to its driver and dialect.
type backend struct {
	dialect  storage.Dialect
	driver   string
	checkDSN func(dsn string) error
	bulk     bool
}

var (
	sqliteBackend = backend{
		dialect: storage.Dialect{
			Name:  "sqlite",
			Quote: dquote,
			Types: map[cell.Kind]string{
				cell.KindText:      "TEXT",
				cell.KindBool:      "INTEGER",
				cell.KindNumeric:   "REAL",
				cell.KindTimestamp: "TIMESTAMP",
			},
		},
		driver: "sqlite",
		checkDSN: func(dsn string) error {
			if strings.TrimSpace(dsn) == "" {
				return errors.New("DSN must not be empty")
			}
			return nil
		},
	}

	mysqlBackend = backend{
		dialect: storage.Dialect{
			Name:  "mysql",
			Quote: func(id string) string { return "`" + strings.ReplaceAll(id, "`", "``") + "`" },
			Types: map[cell.Kind]string{
				cell.KindText:      "LONGTEXT",
				cell.KindBool:      "BOOLEAN",
				cell.KindNumeric:   "DOUBLE",
				cell.KindTimestamp: "DATETIME",
			},
		},
		driver: "mysql",
		checkDSN: func(dsn string) error {
			_, err := mysql.ParseDSN(dsn)
			return err
		},
	}

	mssqlBackend = backend{
		dialect: storage.Dialect{
			Name:  "mssql",
			Quote: func(id string) string { return `[` + strings.ReplaceAll(id, `]`, `]]`) + `]` },
			Types: map[cell.Kind]string{
				cell.KindText:      "NVARCHAR(MAX)",
				cell.KindBool:      "BIT",
				cell.KindNumeric:   "FLOAT",
				cell.KindTimestamp: "DATETIME2",
			},
			Create: func(fqn, cols string) string {
				lit := strings.ReplaceAll(fqn, "'", "''")
				return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL\nCREATE TABLE %s (\n  %s\n)", lit, fqn, cols)
			},
		},
		driver: "sqlserver",
		checkDSN: func(dsn string) error {
			_, err := msdsn.Parse(dsn)
			return err
		},
		bulk: true,
	}
)

func init() {
	for _, b := range []backend{sqliteBackend, mysqlBackend, mssqlBackend} {
		b := b
		storage.RegisterDialect(b.dialect)
		storage.Register(b.dialect.Name, func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
			r, err := open(ctx, b, cfg)
			if err != nil {
				return nil, err
			}
			return r, nil
		})
	}
}

// Repository is a database/sql-backed storage.Repository.
type Repository struct {
	db    *sql.DB
	b     backend
	table string
}

// open validates the DSN, opens the pool and pings it.
func open(ctx context.Context, b backend, cfg storage.Config) (*Repository, error) {
	name := b.dialect.Name
	if err := b.checkDSN(cfg.DSN); err != nil {
		return nil, fmt.Errorf("%s dsn: %w", name, err)
	}
	db, err := sql.Open(b.driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", name, err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: ping: %w", name, err)
	}
	return &Repository{db: db, b: b, table: cfg.Table}, nil
}

// CopyFrom inserts rows in one transaction.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	name := r.b.dialect.Name
	if len(columns) == 0 {
		return 0, fmt.Errorf("%s: CopyFrom: columns must not be empty", name)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: begin tx: %w", name, err)
	}
	stmt, err := tx.PrepareContext(ctx, r.insertSQL(columns))
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("%s: prepare insert: %w", name, err)
	}
	defer stmt.Close()

	var inserted int64
	for i, row := range rows {
		if len(row) != len(columns) {
			_ = tx.Rollback()
			return 0, fmt.Errorf("%s: row %d length %d != columns length %d", name, i, len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("%s: insert row %d: %w", name, i, err)
		}
		inserted++
	}
	if r.b.bulk {
		// An argument-less Exec flushes the bulk copy buffer.
		res, err := stmt.ExecContext(ctx)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("%s: bulk finalize: %w", name, err)
		}
		if inserted, err = res.RowsAffected(); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("%s: rows affected: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: commit: %w", name, err)
	}
	return inserted, nil
}

func (r *Repository) insertSQL(columns []string) string {
	if r.b.bulk {
		return mssql.CopyIn(r.table, mssql.BulkOptions{}, columns...)
	}
	d := r.b.dialect
	quoted := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = d.Quote(c)
		marks[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.QuoteFQN(r.table), strings.Join(quoted, ", "), strings.Join(marks, ", "))
}

// Exec runs a single statement. Blank input is a no-op.
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	if strings.TrimSpace(sqlText) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, sqlText); err != nil {
		return fmt.Errorf("%s: exec: %w", r.b.dialect.Name, err)
	}
	return nil
}

// Close closes the pool.
func (r *Repository) Close() { _ = r.db.Close() }

func dquote(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }
