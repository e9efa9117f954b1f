// Package datasource defines where extract bytes come from.
package datasource

import (
	"context"
	"io"
)

// Source yields the raw, still-encoded bytes of one extract. Each Open is a
// separate fetch; callers that want a single fetch per session cache the body.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (io.ReadCloser, error)

// Open calls f(ctx).
func (f SourceFunc) Open(ctx context.Context) (io.ReadCloser, error) { return f(ctx) }
