// Package postgres implements a Postgres repository using pgx v5. Batches are
// written with the COPY protocol.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"samfdw/internal/cell"
	"samfdw/internal/storage"
)

// Kind is the storage.kind this package registers.
const Kind = "postgres"

// Dialect renders Postgres DDL.
var Dialect = storage.Dialect{
	Name:  Kind,
	Quote: pgIdent,
	Types: map[cell.Kind]string{
		cell.KindText:      "TEXT",
		cell.KindBool:      "BOOLEAN",
		cell.KindNumeric:   "DOUBLE PRECISION",
		cell.KindTimestamp: "TIMESTAMPTZ",
	},
}

func init() {
	storage.RegisterDialect(Dialect)
	storage.Register(Kind, func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, err := NewRepository(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return r, nil
	})
}

// Repository is a Postgres-backed storage.Repository.
type Repository struct {
	pool  *pgxpool.Pool
	table pgx.Identifier
}

// NewRepository parses cfg.DSN and opens a pool. The pool connects lazily.
func NewRepository(ctx context.Context, cfg storage.Config) (*Repository, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	return &Repository{pool: pool, table: splitFQN(cfg.Table)}, nil
}

// CopyFrom streams rows with COPY FROM STDIN.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	return r.pool.CopyFrom(ctx, r.table, columns, pgx.CopyFromRows(rows))
}

// Exec runs sql on the pool.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	_, err := r.pool.Exec(ctx, sql)
	return err
}

// Close releases the pool.
func (r *Repository) Close() { r.pool.Close() }

// pgIdent quotes a Postgres identifier, escaping embedded quotes.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// splitFQN converts "schema.table" into a pgx.Identifier {"schema","table"}.
func splitFQN(fqn string) pgx.Identifier {
	parts := strings.Split(fqn, ".")
	id := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			id = append(id, p)
		}
	}
	return id
}
