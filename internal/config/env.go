package config

import (
	"strconv"
	"strings"
	"time"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SAMFDW_"

// ApplyEnv overlays SAMFDW_* variables onto cfg. Values that fail to parse
// are ignored; Validate reports the resulting config.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		return strings.TrimSpace(v), ok
	}
	str := func(name string, dst *string) {
		if v, ok := get(name); ok {
			*dst = v
		}
	}

	str("JOB", &cfg.Job)
	str("API_URL", &cfg.Server.APIURL)
	str("USER_AGENT", &cfg.Server.UserAgent)
	if v, ok := get("TIMEOUT"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.Timeout = d
		}
	}
	if v, ok := get("RETRIES"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Retries = n
		}
	}
	if v, ok := get("INSECURE_SKIP_VERIFY"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Server.InsecureSkipVerify = b
		}
	}

	str("SOURCE", &cfg.Source.Kind)
	str("SOURCE_PATH", &cfg.Source.Path)
	if v, ok := get("COLUMNS"); ok {
		cfg.Scan.Columns = splitList(v)
	}

	str("STORAGE_KIND", &cfg.Storage.Kind)
	str("DSN", &cfg.Storage.DSN)
	str("TABLE", &cfg.Storage.Table)
	if v, ok := get("BATCH_SIZE"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Storage.BatchSize = n
		}
	}

	str("METRICS_BACKEND", &cfg.Metrics.Backend)
	str("PUSHGATEWAY_URL", &cfg.Metrics.PushgatewayURL)
	str("DATADOG_ADDR", &cfg.Metrics.DatadogAddr)

	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)

	str("SERVE_ADDR", &cfg.Serve.Addr)
	str("REFRESH", &cfg.Serve.Refresh)
	if v, ok := get("RATE_LIMIT"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Serve.RateLimit = f
		}
	}
	if v, ok := get("WATCH"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Serve.Watch = b
		}
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ConnectorOptions renders the server and source sections as the option bag
// a host passes to connector.Init.
func (c Config) ConnectorOptions() Options {
	return Options{
		"api_url":              c.Server.APIURL,
		"user_agent":           c.Server.UserAgent,
		"timeout":              c.Server.Timeout.String(),
		"retries":              c.Server.Retries,
		"insecure_skip_verify": c.Server.InsecureSkipVerify,
		"source":               c.Source.Kind,
		"path":                 c.Source.Path,
		"comma":                c.Scan.Comma,
		"lazy_quotes":          c.Scan.LazyQuotes,
		"job":                  c.Job,
	}
}
