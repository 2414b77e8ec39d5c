package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"clipforge/internal/preflight"
)

func newPreflightCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "preflight",
		Short: "Check API keys, directories, and disk space",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			results := preflight.RunAll(cmd.Context(), cfg)
			out := cmd.OutOrStdout()
			for _, result := range results {
				marker := "ok  "
				if !result.Passed {
					marker = "FAIL"
				}
				fmt.Fprintf(out, "%s %-20s %s\n", marker, result.Name, result.Detail)
			}
			if !preflight.AllPassed(results) {
				return errors.New("preflight failed")
			}
			return nil
		},
	}
}
