package httpds

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Peek returns at most n leading bytes of url. It asks for a byte range and
// also caps the read locally, so servers that ignore Range still work.
// Used by the probe command to read the header line without the full extract.
func (c *Client) Peek(ctx context.Context, url string, n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("httpds: peek size must be > 0")
	}

	h := http.Header{}
	h.Set("Range", fmt.Sprintf("bytes=0-%d", n-1))

	resp, err := c.Get(ctx, url, h)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return nil, &StatusError{Method: http.MethodGet, URL: url, Code: resp.StatusCode}
	}
	return io.ReadAll(io.LimitReader(resp.Body, int64(n)))
}
