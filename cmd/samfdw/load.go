package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"samfdw/internal/connector"
	"samfdw/internal/metrics"
	"samfdw/internal/scan"
	"samfdw/internal/storage"
)

func newLoadCmd(a *app) *cobra.Command {
	var (
		columns     []string
		columnsFile string
		create      bool
	)
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Bulk-load typed rows into the configured storage backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fields, err := a.columns(columns, columnsFile)
			if err != nil {
				return err
			}
			c, err := a.newConnector()
			if err != nil {
				return err
			}
			st := a.cfg.Storage
			ctx := cmd.Context()
			repo, err := storage.New(ctx, storage.Config{
				Kind:    st.Kind,
				DSN:     st.DSN,
				Table:   st.Table,
				Columns: fields,
			})
			if err != nil {
				return fmt.Errorf("storage: %w", err)
			}
			defer repo.Close()

			if create || st.AutoCreateTable {
				if _, ok := storage.DialectFor(st.Kind); !ok {
					a.log.Warn("load: backend needs no table creation", "kind", st.Kind)
				} else if err := storage.EnsureTable(ctx, repo, st.Kind, st.Table, fields); err != nil {
					return err
				}
			}
			start := time.Now()
			total, err := load(ctx, a.cfg.Job, c, fields, st.BatchSize, repo.CopyFrom)
			metrics.RecordStep(a.cfg.Job, "load", err, time.Since(start))
			if err != nil {
				return err
			}
			a.log.Info("load complete",
				"kind", st.Kind, "table", st.Table, "rows", total,
				"elapsed", time.Since(start).Truncate(time.Millisecond))
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringSliceVar(&columns, "columns", nil, "canonical fields to load (default all)")
	fl.StringVar(&columnsFile, "columns-file", "", "file listing fields, comma or newline separated")
	fl.BoolVar(&create, "create-table", false, "create the target table if it does not exist")
	return cmd
}

// load runs a scan producer and a batching loader concurrently. The first
// error from either side cancels the other.
func load(ctx context.Context, job string, c *connector.Connector, fields []string, batchSize int, copyFn storage.CopyFn) (int64, error) {
	if batchSize <= 0 {
		batchSize = 5000
	}
	g, ctx := errgroup.WithContext(ctx)
	rows := make(chan []any, batchSize)
	var total int64

	g.Go(func() error {
		defer close(rows)
		if err := c.BeginScan(ctx); err != nil {
			return err
		}
		defer c.EndScan()
		for {
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
			select {
			case rows <- res.Row.Values():
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})
	g.Go(func() error {
		n, err := storage.LoadBatches(ctx, job, fields, rows, batchSize, copyFn)
		total = n
		return err
	})
	err := g.Wait()
	return total, err
}
