package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"samfdw/internal/config"
	"samfdw/internal/connector"
	"samfdw/internal/datasource/file"
	"samfdw/internal/logging"
	"samfdw/internal/mapping"
	"samfdw/internal/metrics"
	"samfdw/internal/metrics/datadog"
	"samfdw/internal/metrics/prompush"
	"samfdw/internal/scan"
)

// app carries state shared by every subcommand.
type app struct {
	cfgPath   string
	envFiles  []string
	logLevel  string
	logFormat string
	source    string
	path      string

	cfg     config.Config
	log     *slog.Logger
	closeFn func() error
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "samfdw",
		Short: "Typed access to the SAM.gov contract opportunities extract",
		Long: `samfdw fetches the public SAM.gov "Contract Opportunities" CSV extract,
maps its headers to canonical snake_case fields and coerces values into
typed cells (text, boolean, numeric, timestamp or null).

Example Usage:
  samfdw scan --columns notice_id,title,posted_date --limit 10
  samfdw load --config samfdw.yaml
  samfdw probe
  samfdw serve --config samfdw.yaml`,
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgPath, "config", "", "path to a YAML or JSON config file")
	pf.StringSliceVar(&a.envFiles, "env-file", []string{".env"}, ".env files to load (missing files are ignored)")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&a.logFormat, "log-format", "", "log format: text or json")
	pf.StringVar(&a.source, "source", "", `extract source: "http" or "file" (overrides config)`)
	pf.StringVar(&a.path, "path", "", "local extract path for --source file")

	root.AddCommand(
		newScanCmd(a),
		newLoadCmd(a),
		newProbeCmd(a),
		newServeCmd(a),
		newValidateCmd(a),
		newMCPCmd(a),
		newVersionCmd(),
	)
	return root
}

// setup loads configuration, then installs the logger and metrics backend.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.cfgPath, a.envFiles...)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	if a.source != "" {
		cfg.Source.Kind = a.source
	}
	if a.path != "" {
		cfg.Source.Path = a.path
	}
	a.cfg = cfg
	a.log = logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(a.log)
	return a.setupMetrics()
}

func (a *app) setupMetrics() error {
	m := a.cfg.Metrics
	switch m.Backend {
	case "", "none":
		a.log.Debug("metrics: disabled")
	case "prometheus":
		b, err := prompush.NewBackend(a.cfg.Job, m.PushgatewayURL)
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		metrics.SetBackend(b)
		a.log.Info("metrics: pushgateway", "url", m.PushgatewayURL, "job", a.cfg.Job)
	case "datadog":
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       m.DatadogAddr,
			Namespace:  m.Namespace,
			GlobalTags: m.Tags,
		})
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		metrics.SetBackend(b)
		a.closeFn = b.Close
		a.log.Info("metrics: datadog", "addr", m.DatadogAddr)
	default:
		return fmt.Errorf("metrics: unknown backend %q", m.Backend)
	}
	return nil
}

func (a *app) teardown(*cobra.Command, []string) error {
	if err := metrics.Flush(); err != nil {
		a.log.Warn("metrics: flush failed", "err", err)
	}
	if a.closeFn != nil {
		return a.closeFn()
	}
	return nil
}

// newConnector builds a connector from the loaded config.
func (a *app) newConnector() (*connector.Connector, error) {
	return connector.Init(a.cfg.ConnectorOptions(), scan.WithLogger(a.log))
}

// columns resolves the projected fields: explicit list, then list file, then
// the config's list and file, then every mapped field.
func (a *app) columns(flagCols []string, flagFile string) ([]string, error) {
	switch {
	case len(flagCols) > 0:
		return flagCols, nil
	case flagFile != "":
		return file.ReadList(flagFile)
	case len(a.cfg.Scan.Columns) > 0:
		return a.cfg.Scan.Columns, nil
	case a.cfg.Scan.ColumnsFile != "":
		return file.ReadList(a.cfg.Scan.ColumnsFile)
	default:
		return mapping.SAM.Fields(), nil
	}
}
