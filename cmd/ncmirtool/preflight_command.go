package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ncmirtools/internal/preflight"
)

func newPreflightCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "preflight",
		Short: "Check the configured directories and services are reachable",
		Long: `Runs a readiness check for every configured section: the data and transfer
log directories, an SFTP login to the kiosk server, the CIL REST service, and
the project catalog. Exits 1 when any check fails.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return &exitError{code: exitUsage, err: fmt.Errorf("load config: %w", err)}
			}
			out := cmd.OutOrStdout()
			results := preflight.RunAll(cmd.Context(), cfg, ctx.logger(cmd))
			if len(results) == 0 {
				fmt.Fprintln(out, "No sections configured; nothing to check")
				return nil
			}
			status := newStatusPrinter(out)
			status.header("Preflight")
			for _, r := range results {
				kind := statusOK
				if !r.Passed {
					kind = statusError
				}
				status.check(r.Name, kind, r.Detail)
			}
			if preflight.Failed(results) {
				return exitCode(1)
			}
			return nil
		},
	}
}
