package server

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"samfdw/internal/connector"
	"samfdw/internal/mapping"
	"samfdw/internal/scan"
)

// Health describes the hosted connector.
type Health struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id"`
	State     string `json:"state"`
	Fetches   int    `json:"fetches"`
	URL       string `json:"url,omitempty"`
}

// HeaderReport is the captured header row and its mapping coverage.
type HeaderReport struct {
	Headers  []string `json:"headers"`
	Present  []string `json:"present"`
	Missing  []string `json:"missing"`
	Unmapped []string `json:"unmapped"`
}

// RescanReport describes the second pass of a rescan.
type RescanReport struct {
	SessionID string `json:"session_id"`
	Rows      int64  `json:"rows"`
	Skips     int64  `json:"skips"`
	Fetches   int    `json:"fetches"`
}

// ParseColumns splits a comma separated field list. Blank input selects
// every field; unknown fields are rejected.
func ParseColumns(raw string) ([]string, error) {
	var fields []string
	for _, f := range strings.Split(raw, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if _, ok := mapping.SAM.SourceFor(f); !ok {
			return nil, &mapping.ResolveError{Field: f, Err: mapping.ErrUnknownField}
		}
		fields = append(fields, f)
	}
	if len(fields) == 0 {
		fields = mapping.SAM.Fields()
	}
	return fields, nil
}

// Health snapshots the current session.
func (s *Server) Health() Health {
	var h Health
	_ = s.withConn(func(c *connector.Connector) error {
		sess := c.Session()
		h = Health{
			Status:    "ok",
			SessionID: sess.ID(),
			State:     sess.State().String(),
			Fetches:   sess.Fetches(),
			URL:       c.URL(),
		}
		return nil
	})
	return h
}

// Headers returns the header coverage, running an empty begin/end cycle
// first when nothing has been fetched. A missing identifier column is part of
// the report, not an error.
func (s *Server) Headers(ctx context.Context) (HeaderReport, error) {
	var headers []string
	err := s.withConn(func(c *connector.Connector) error {
		if c.Session().Fetches() == 0 {
			err := c.BeginScan(ctx)
			if errors.Is(err, mapping.ErrMissingHeader) {
				headers = c.Session().Headers()
				return nil
			}
			if err != nil {
				return err
			}
			if err := c.EndScan(); err != nil {
				return err
			}
		}
		headers = c.Session().Headers()
		return nil
	})
	if err != nil {
		return HeaderReport{}, err
	}
	rep := mapping.SAM.Coverage(headers)
	return HeaderReport{
		Headers:  headers,
		Present:  rep.Present,
		Missing:  rep.Missing,
		Unmapped: rep.Unmapped,
	}, nil
}

// Rows runs one begin/iterate/end cycle and hands each produced row to fn,
// stopping after limit rows when limit is positive.
func (s *Server) Rows(ctx context.Context, fields []string, limit int, fn func(map[string]any) error) error {
	if limit < 0 {
		return fmt.Errorf("limit must be non-negative: %d", limit)
	}
	return s.withConn(func(c *connector.Connector) error {
		if err := c.BeginScan(ctx); err != nil {
			return err
		}
		defer c.EndScan()
		for n := 0; limit == 0 || n < limit; {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := c.IterScan(fields)
			if err != nil {
				return err
			}
			switch res.Outcome {
			case scan.OutcomeDone:
				return nil
			case scan.OutcomeSkip:
				continue
			}
			if err := fn(rowObject(fields, res.Row)); err != nil {
				return err
			}
			n++
		}
		return nil
	})
}

// Rescan drains a scan, re-scans the cached extract and drains it again.
// Fetches in the report shows the second pass did not refetch.
func (s *Server) Rescan(ctx context.Context) (RescanReport, error) {
	fields := []string{mapping.IdentifierField}
	var rep RescanReport
	err := s.withConn(func(c *connector.Connector) error {
		if err := c.BeginScan(ctx); err != nil {
			return err
		}
		defer c.EndScan()
		if err := drain(c, fields); err != nil {
			return err
		}
		if err := c.ReScan(ctx); err != nil {
			return err
		}
		if err := drain(c, fields); err != nil {
			return err
		}
		st := c.Session().Stats()
		rep = RescanReport{
			SessionID: c.Session().ID(),
			Rows:      st.Rows,
			Skips:     st.Skips,
			Fetches:   c.Session().Fetches(),
		}
		return nil
	})
	return rep, err
}

func drain(c *connector.Connector, fields []string) error {
	for {
		res, err := c.IterScan(fields)
		if err != nil {
			return err
		}
		if res.Outcome == scan.OutcomeDone {
			return nil
		}
	}
}
