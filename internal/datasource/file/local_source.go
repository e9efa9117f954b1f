// Package file reads extracts and field lists from the local filesystem.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Local opens one path per Open. It satisfies datasource.Source and is used
// for offline scans of a previously downloaded extract.
type Local struct{ path string }

// NewLocal binds a Local to path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Path returns the bound path.
func (l *Local) Path() string { return l.path }

// Open returns the file, or ctx.Err() without touching the disk when ctx is
// already done. Filesystem errors keep their identity (errors.Is(err,
// fs.ErrNotExist) holds).
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open extract %s: %w", l.path, err)
	}
	return f, nil
}
