package main

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"samfdw/internal/config"
	"samfdw/internal/storage"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Lint the configuration and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			issues := config.Validate(a.cfg)
			if k := a.cfg.Storage.Kind; k != "" && !slices.Contains(storage.ListKinds(), k) {
				issues = append(issues, config.Issue{
					Severity: config.SeverityError,
					Path:     "storage.kind",
					Message:  fmt.Sprintf("no backend compiled in for %q", k),
				})
			}
			out := cmd.OutOrStdout()
			for _, iss := range issues {
				fmt.Fprintf(out, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
			}
			if config.HasErrors(issues) {
				return errors.New("configuration is invalid")
			}
			fmt.Fprintln(out, "configuration is valid")
			return nil
		},
	}
}
