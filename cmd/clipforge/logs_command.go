package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"clipforge/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		follow bool
		lines  int
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show daemon logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			client, err := logs.NewClient(cfg.Paths.APIBind, cfg.Paths.APIToken)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			result, err := client.Fetch(cmd.Context(), logs.Query{Offset: -1, Limit: lines})
			if err != nil {
				if errors.Is(err, logs.ErrUnavailable) {
					return fmt.Errorf("daemon not reachable at %s; start it with `clipforged`", cfg.Paths.APIBind)
				}
				return err
			}
			for _, line := range result.Lines {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}

			offset := result.Offset
			for {
				result, err := client.Fetch(cmd.Context(), logs.Query{Offset: offset, Follow: true})
				if err != nil {
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				}
				for _, line := range result.Lines {
					fmt.Fprintln(out, line)
				}
				offset = result.Offset
			}
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep streaming new log lines")
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	return cmd
}
