// Package storage holds the sink contracts used by the load command: a
// backend-neutral Repository, a kind-keyed factory registry, a batched
// loader and dialect-aware CREATE TABLE generation for the canonical fields.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Repository is a bulk sink for canonical rows.
type Repository interface {
	// CopyFrom inserts rows aligned to columns and reports how many landed.
	CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error)
	// Exec runs a single statement, typically DDL.
	Exec(ctx context.Context, sql string) error
	Close()
}

// Config selects and parameterises a backend.
type Config struct {
	Kind    string
	DSN     string
	Table   string
	Columns []string
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	regMu    sync.RWMutex
	registry = map[string]Factory{}
)

// Register installs f under kind. A later registration for the same kind wins.
func Register(kind string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	registry[kind] = f
}

// New opens the backend registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	regMu.RLock()
	f, ok := registry[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered kinds, sorted.
func ListKinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
