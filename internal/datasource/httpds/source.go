package httpds

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// StatusError reports a non-2xx response.
type StatusError struct {
	Method string
	URL    string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("httpds: %s %s: status %d %s", e.Method, e.URL, e.Code, http.StatusText(e.Code))
}

// Source GETs one URL per Open. It satisfies datasource.Source.
type Source struct {
	client  *Client
	url     string
	headers http.Header
}

// NewSource binds client to url.
func NewSource(client *Client, url string, headers http.Header) *Source {
	return &Source{client: client, url: url, headers: headers}
}

// URL returns the bound URL.
func (s *Source) URL() string { return s.url }

// Open returns the response body of a successful GET.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := s.client.Get(ctx, s.url, s.headers)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		_ = resp.Body.Close()
		return nil, &StatusError{Method: http.MethodGet, URL: s.url, Code: resp.StatusCode}
	}
	return resp.Body, nil
}
