package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"ignite/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the project root, state directory and journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			results := preflight.RunAll(cmd.Context(), cfg)
			failed := preflight.Failed(results)

			if ctx.jsonMode() {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				for _, r := range results {
					status := colorize(out, ansiGreen, "ok  ")
					if !r.Passed {
						status = colorize(out, ansiRed, "FAIL")
					}
					fmt.Fprintf(out, "%s %-16s %s\n", status, r.Name, r.Detail)
				}
			}
			if failed {
				return errors.New("one or more checks failed")
			}
			return nil
		},
	}
}
