package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"samfdw/internal/config"
	"samfdw/internal/connector"
	"samfdw/internal/datasource/httpds"
	"samfdw/internal/mapping"
	"samfdw/internal/parser/csv"
	"samfdw/internal/transcode"
)

func newProbeCmd(a *app) *cobra.Command {
	var (
		peek   int
		strict bool
	)
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Read only the header line and report mapping coverage",
		Long: `probe fetches the leading bytes of the extract (a ranged GET for the http
source), parses the header record and reports which canonical fields resolve,
which are missing and which headers have no mapping.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := peekExtract(cmd.Context(), a.cfg, peek)
			if err != nil {
				return err
			}
			opts := a.cfg.ConnectorOptions()
			r := csv.NewReader(transcode.NewReader(bytes.NewReader(b)), csv.Options{
				Comma:      opts.Rune("comma", 0),
				LazyQuotes: opts.Bool("lazy_quotes", false),
			})
			headers, err := r.Header()
			if err != nil {
				return fmt.Errorf("probe: %w", err)
			}
			rep := mapping.SAM.Coverage(headers)
			writeReport(cmd.OutOrStdout(), headers, rep)
			if strict && !rep.OK() {
				return fmt.Errorf("probe: %d mapped field(s) missing", len(rep.Missing))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&peek, "bytes", 64<<10, "leading bytes to read")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when any mapped header is missing")
	return cmd
}

func peekExtract(ctx context.Context, cfg config.Config, n int) ([]byte, error) {
	if cfg.Source.Kind == "file" {
		f, err := os.Open(cfg.Source.Path)
		if err != nil {
			return nil, fmt.Errorf("open extract %s: %w", cfg.Source.Path, err)
		}
		defer f.Close()
		return io.ReadAll(io.LimitReader(f, int64(n)))
	}
	client := httpds.NewClient(httpds.Config{
		Timeout:            cfg.Server.Timeout,
		MaxRetries:         cfg.Server.Retries,
		InsecureSkipVerify: cfg.Server.InsecureSkipVerify,
		UserAgent:          cfg.Server.UserAgent,
	})
	return client.Peek(ctx, connector.DatasetURL(cfg.Server.APIURL), n)
}

func writeReport(w io.Writer, headers []string, rep mapping.Report) {
	fmt.Fprintf(w, "headers:  %d\n", len(headers))
	fmt.Fprintf(w, "present:  %d\n", len(rep.Present))
	fmt.Fprintf(w, "missing:  %d %s\n", len(rep.Missing), strings.Join(rep.Missing, ","))
	fmt.Fprintf(w, "unmapped: %d %s\n", len(rep.Unmapped), strings.Join(rep.Unmapped, ","))
	if rep.OK() {
		fmt.Fprintln(w, "status:   ok")
	} else {
		fmt.Fprintln(w, "status:   drift")
	}
}
