package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"samfdw/internal/connector"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "0.1.0"

func newVersionCmd() *cobra.Command {
	var host string
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version and the supported host interface range",
		Args:  cobra.NoArgs,
		// Skip config loading.
		PersistentPreRunE:  func(*cobra.Command, []string) error { return nil },
		PersistentPostRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "samfdw %s (%s)\n", Version, runtime.Version())
			fmt.Fprintf(out, "host interface: %s\n", connector.HostVersionRequirement())
			if host == "" {
				return nil
			}
			if err := connector.CheckHost(host); err != nil {
				return err
			}
			fmt.Fprintf(out, "host %s: compatible\n", host)
			return nil
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "check a host interface version against the supported range")
	return cmd
}
