// Package connector is the surface a host drives: initialize with options,
// then begin, iterate, optionally re-scan, and end scans. The dataset is
// read-only, so the modify bracket refuses at BeginModify.
package connector

import (
	"context"
	"fmt"
	"strings"

	"samfdw/internal/cell"
	"samfdw/internal/config"
	"samfdw/internal/datasource"
	"samfdw/internal/datasource/file"
	"samfdw/internal/datasource/httpds"
	"samfdw/internal/parser/csv"
	"samfdw/internal/scan"
)

// DatasetPath is appended to the base URL to locate the full extract.
const DatasetPath = "/Contract%20Opportunities/datagov/ContractOpportunitiesFullCSV.csv"

// DatasetURL joins base and DatasetPath.
func DatasetURL(base string) string {
	return strings.TrimRight(base, "/") + DatasetPath
}

// Connector owns one scan session.
type Connector struct {
	session *scan.Session
	source  datasource.Source
	url     string
}

// Init builds a connector from host options:
//
//	api_url              base URL (default the public S3 bucket)
//	user_agent           default "SAM FDW"
//	timeout, retries     transport settings
//	insecure_skip_verify
//	source               "http" (default) or "file"
//	path                 local extract for source=file
//	comma, lazy_quotes   CSV dialect
//	job                  metrics label
func Init(opts config.Options, extra ...scan.Option) (*Connector, error) {
	c := &Connector{url: DatasetURL(opts.RequireOr("api_url", config.DefaultAPIURL))}

	switch kind := opts.RequireOr("source", "http"); kind {
	case "http":
		client := httpds.NewClient(clientConfig(opts))
		c.source = httpds.NewSource(client, c.url, nil)
	case "file":
		path, err := opts.Require("path")
		if err != nil {
			return nil, fmt.Errorf("connector: file source: %w", err)
		}
		c.source = file.NewLocal(path)
		c.url = "file://" + path
	default:
		return nil, fmt.Errorf("connector: unknown source %q", kind)
	}

	base := []scan.Option{
		scan.WithJob(opts.RequireOr("job", "samfdw")),
		scan.WithCSV(csv.Options{
			Comma:      opts.Rune("comma", 0),
			LazyQuotes: opts.Bool("lazy_quotes", false),
		}),
	}
	c.session = scan.New(c.source, append(base, extra...)...)
	return c, nil
}

// clientConfig falls back to the file config defaults. The timeout covers
// reading the whole body, so it must fit a full extract download.
func clientConfig(opts config.Options) httpds.Config {
	def := config.Defaults().Server
	return httpds.Config{
		Timeout:            opts.Duration("timeout", def.Timeout),
		MaxRetries:         opts.Int("retries", def.Retries),
		InsecureSkipVerify: opts.Bool("insecure_skip_verify", false),
		UserAgent:          opts.RequireOr("user_agent", config.DefaultUserAgent),
	}
}

// New wraps an arbitrary source, for hosts that supply their own bytes.
func New(src datasource.Source, opts ...scan.Option) *Connector {
	return &Connector{session: scan.New(src, opts...), source: src}
}

// URL returns the dataset location, empty for New.
func (c *Connector) URL() string { return c.url }

// Session exposes the underlying session for inspection.
func (c *Connector) Session() *scan.Session { return c.session }

// BeginScan fetches the extract if needed and starts a scan.
func (c *Connector) BeginScan(ctx context.Context) error { return c.session.Begin(ctx) }

// IterScan produces the next outcome for the requested fields.
func (c *Connector) IterScan(fields []string) (scan.Result, error) { return c.session.Next(fields) }

// ReScan restarts the scan over the cached extract.
func (c *Connector) ReScan(ctx context.Context) error { return c.session.ReScan(ctx) }

// EndScan ends the scan cycle; cached bytes survive.
func (c *Connector) EndScan() error {
	c.session.End()
	return nil
}

// BeginModify rejects modification.
func (c *Connector) BeginModify() error { return c.session.BeginModify() }

// Insert is accepted and ignored.
func (c *Connector) Insert(row cell.Row) error { return c.session.Insert(row) }

// Update is accepted and ignored.
func (c *Connector) Update(rowID cell.Cell, row cell.Row) error { return c.session.Update(rowID, row) }

// Delete is accepted and ignored.
func (c *Connector) Delete(rowID cell.Cell) error { return c.session.Delete(rowID) }

// EndModify is accepted and ignored.
func (c *Connector) EndModify() error { return c.session.EndModify() }
