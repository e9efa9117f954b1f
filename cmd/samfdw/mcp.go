package main

import (
	"github.com/spf13/cobra"

	mcpserver "samfdw/internal/mcp"
	"samfdw/internal/server"
)

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the extract as MCP tools over stdio",
		Long: `mcp speaks the Model Context Protocol on stdin/stdout, exposing the
status, headers, rows, rescan and refresh tools. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			h, err := server.New(a.newConnector, server.Options{Logger: a.log})
			if err != nil {
				return err
			}
			a.log.Info("mcp: serving on stdio")
			return mcpserver.New(h, Version).ServeStdio()
		},
	}
}
