package config

import (
	"fmt"
	"net/url"
	"strings"

	"samfdw/internal/mapping"

	"github.com/robfig/cron/v3"
)

// IssueSeverity grades a configuration finding.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is reported but does not block.
	SeverityWarning IssueSeverity = "warning"
)

// Issue is one finding at a dotted config path ("storage.dsn").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// StorageKinds lists sinks a config may name. cmd wiring keeps it in sync
// with the storage registry.
var StorageKinds = []string{"postgres", "sqlite", "mysql", "mssql", "mongodb"}

// Validate lints cfg without mutating it.
func Validate(c Config) []Issue {
	var issues []Issue
	add := func(sev IssueSeverity, path, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(c.Job) == "" {
		add(SeverityError, "job", "job must not be empty; it labels metrics and logs")
	}

	switch c.Source.Kind {
	case "", "http":
		u, err := url.Parse(c.Server.APIURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			add(SeverityError, "server.api_url", "api_url %q must be an absolute http(s) URL", c.Server.APIURL)
		}
		if c.Server.InsecureSkipVerify {
			add(SeverityWarning, "server.insecure_skip_verify", "TLS verification is disabled")
		}
	case "file":
		if strings.TrimSpace(c.Source.Path) == "" {
			add(SeverityError, "source.path", "file source requires a path")
		}
	default:
		add(SeverityError, "source.kind", "unknown source kind %q (want http or file)", c.Source.Kind)
	}
	if c.Server.Retries < 0 {
		add(SeverityError, "server.retries", "retries must be >= 0")
	}
	if c.Server.Timeout < 0 {
		add(SeverityError, "server.timeout", "timeout must be >= 0")
	}

	for i, col := range c.Scan.Columns {
		if _, ok := mapping.SAM.SourceFor(col); !ok {
			add(SeverityError, fmt.Sprintf("scan.columns[%d]", i), "unknown canonical field %q", col)
		}
	}
	if len([]rune(c.Scan.Comma)) > 1 {
		add(SeverityError, "scan.comma", "comma must be a single character")
	}

	if c.Storage.Kind != "" {
		if !contains(StorageKinds, c.Storage.Kind) {
			add(SeverityError, "storage.kind", "unknown storage kind %q (known: %s)", c.Storage.Kind, strings.Join(StorageKinds, ", "))
		}
		if strings.TrimSpace(c.Storage.DSN) == "" {
			add(SeverityError, "storage.dsn", "storage requires a dsn")
		}
		if strings.TrimSpace(c.Storage.Table) == "" {
			add(SeverityError, "storage.table", "storage requires a table")
		}
		if c.Storage.Kind == "mongodb" && c.Storage.AutoCreateTable {
			add(SeverityWarning, "storage.auto_create_table", "mongodb creates collections on first insert; auto_create_table is ignored")
		}
		if c.Storage.BatchSize <= 0 {
			add(SeverityWarning, "storage.batch_size", "batch_size %d is not positive; the loader default applies", c.Storage.BatchSize)
		}
	}

	switch c.Metrics.Backend {
	case "", "none":
	case "prometheus":
		if c.Metrics.PushgatewayURL == "" {
			add(SeverityError, "metrics.pushgateway_url", "prometheus backend requires pushgateway_url")
		}
	case "datadog":
		if c.Metrics.DatadogAddr == "" {
			add(SeverityError, "metrics.datadog_addr", "datadog backend requires datadog_addr")
		}
	default:
		add(SeverityError, "metrics.backend", "unknown metrics backend %q", c.Metrics.Backend)
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		add(SeverityWarning, "log.level", "unknown level %q; info is used", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		add(SeverityWarning, "log.format", "unknown format %q; text is used", c.Log.Format)
	}

	if c.Serve.Refresh != "" {
		if _, err := cron.ParseStandard(c.Serve.Refresh); err != nil {
			add(SeverityError, "serve.refresh", "invalid cron spec: %v", err)
		}
	}
	if c.Serve.Watch && c.Source.Kind != "file" {
		add(SeverityWarning, "serve.watch", "watch only applies to the file source; ignored")
	}
	if c.Serve.RateLimit < 0 {
		add(SeverityError, "serve.rate_limit", "rate_limit must be >= 0")
	}

	return issues
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
