package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"samfdw/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve rows over HTTP (NDJSON) until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sv := a.cfg.Serve
			if addr != "" {
				sv.Addr = addr
			}
			opts := server.Options{
				Refresh:   sv.Refresh,
				RateLimit: sv.RateLimit,
				Burst:     sv.Burst,
				Logger:    a.log,
			}
			if sv.Watch && a.cfg.Source.Kind == "file" {
				opts.Watch = a.cfg.Source.Path
			}
			s, err := server.New(a.newConnector, opts)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			errCh := make(chan error, 1)
			go func() { errCh <- s.Start(sv.Addr) }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			a.log.Info("server: shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return s.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides serve.addr)")
	return cmd
}
