// Package config defines the connector's file configuration and the
// host-style option bag handed to connector.Init.
//
// A config file is YAML (JSON also parses, being a YAML subset). Values are
// layered: Defaults, then the file, then a .env file loaded with godotenv,
// then SAMFDW_* environment variables.
//
// Example:
//
//	job: sam-nightly
//	server:
//	  api_url: https://falextracts.s3.amazonaws.com
//	  timeout: 10m
//	  retries: 3
//	scan:
//	  columns: [notice_id, title, posted_date, award_amount]
//	storage:
//	  kind: postgres
//	  dsn: postgresql://user:pass@db:5432/sam
//	  table: public.opportunities
//	  auto_create_table: true
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults shared with the connector.
const (
	DefaultAPIURL    = "https://falextracts.s3.amazonaws.com"
	DefaultUserAgent = "SAM FDW"
)

// Config is the top-level configuration document.
type Config struct {
	// Job labels metrics and logs for this deployment.
	Job string `yaml:"job"`

	Server  Server  `yaml:"server"`
	Source  Source  `yaml:"source"`
	Scan    Scan    `yaml:"scan"`
	Storage Storage `yaml:"storage"`
	Metrics Metrics `yaml:"metrics"`
	Log     Log     `yaml:"log"`
	Serve   Serve   `yaml:"serve"`
}

// Server is the remote extract host.
type Server struct {
	APIURL             string        `yaml:"api_url"`
	UserAgent          string        `yaml:"user_agent"`
	Timeout            time.Duration `yaml:"timeout"`
	Retries            int           `yaml:"retries"`
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify"`
}

// Source selects where the extract bytes come from: "http" (default) or
// "file" for a local copy at Path.
type Source struct {
	Kind string `yaml:"kind"`
	Path string `yaml:"path"`
}

// Scan controls the projected columns and CSV dialect.
type Scan struct {
	Columns     []string `yaml:"columns"`
	ColumnsFile string   `yaml:"columns_file"`
	Comma       string   `yaml:"comma"`
	LazyQuotes  bool     `yaml:"lazy_quotes"`
}

// Storage configures the load sink.
type Storage struct {
	Kind            string `yaml:"kind"`
	DSN             string `yaml:"dsn"`
	Table           string `yaml:"table"`
	AutoCreateTable bool   `yaml:"auto_create_table"`
	BatchSize       int    `yaml:"batch_size"`
}

// Metrics selects a backend: "" or "none", "prometheus", "datadog".
type Metrics struct {
	Backend        string   `yaml:"backend"`
	PushgatewayURL string   `yaml:"pushgateway_url"`
	DatadogAddr    string   `yaml:"datadog_addr"`
	Namespace      string   `yaml:"namespace"`
	Tags           []string `yaml:"tags"`
}

// Log configures slog.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Serve configures the HTTP host.
type Serve struct {
	Addr string `yaml:"addr"`
	// Refresh is a cron spec; when set the extract is fetched again on
	// schedule.
	Refresh string `yaml:"refresh"`
	// RateLimit is requests per second across all clients; 0 disables it.
	RateLimit float64 `yaml:"rate_limit"`
	Burst     int     `yaml:"burst"`
	// Watch refreshes when the local extract changes on disk (file source
	// only).
	Watch bool `yaml:"watch"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Job: "samfdw",
		Server: Server{
			APIURL:    DefaultAPIURL,
			UserAgent: DefaultUserAgent,
			Timeout:   10 * time.Minute,
			Retries:   3,
		},
		Source:  Source{Kind: "http"},
		Storage: Storage{BatchSize: 5000},
		Log:     Log{Level: "info", Format: "text"},
		Serve:   Serve{Addr: ":8080", Burst: 1},
	}
}

// Load builds a Config from Defaults, the file at path (skipped when empty),
// the given .env files and the process environment.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := Decode(b, &cfg); err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
	}
	if err := LoadDotEnv(envFiles...); err != nil {
		return cfg, err
	}
	ApplyEnv(&cfg, os.LookupEnv)
	return cfg, nil
}

// Decode strictly decodes a YAML or JSON document over cfg. Unknown keys
// are errors.
func Decode(b []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// LoadDotEnv loads .env files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}
