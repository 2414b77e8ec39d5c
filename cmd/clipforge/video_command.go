package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"clipforge/internal/logging"
	"clipforge/internal/videogen"
)

func newVideoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "video <prompt>",
		Short: "Generate a video clip and wait for the artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			backend := videogen.NewClient(videogen.Config{
				APIKey:  cfg.VideoAPIKey(),
				BaseURL: cfg.Video.BaseURL,
				Model:   cfg.Video.Model,
			})

			out := cmd.OutOrStdout()
			updates := make(chan videogen.Job, 64)
			sink := videogen.SinkFunc(func(job videogen.Job) {
				updates <- job
			})

			svc := videogen.NewService(
				backend,
				cfg.Paths.OutputDir,
				time.Duration(cfg.Video.PollIntervalSeconds)*time.Second,
				logging.NewNop(),
				[]videogen.Sink{sink},
			)
			defer svc.Close()

			job, err := svc.StartJob(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Job %s submitted, polling every %ds\n", job.ID, cfg.Video.PollIntervalSeconds)

			for update := range updates {
				if update.ID != job.ID {
					continue
				}
				if update.Message != "" && !update.State.Terminal() {
					fmt.Fprintf(out, "  %s\n", update.Message)
				}
				if update.State == videogen.JobSucceeded {
					fmt.Fprintf(out, "Artifact written to %s\n", update.ArtifactPath)
					return nil
				}
				if update.State == videogen.JobFailed {
					return fmt.Errorf("video generation failed: %s", update.Message)
				}
			}
			return nil
		},
	}
}
