package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"clipforge/internal/generation"
	"clipforge/internal/logging"
	"clipforge/internal/workflow"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "generate <topic>",
		Short: "Run the content pipeline for a topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			logger := logging.NewNop()
			generator, err := generation.NewService(cfg, logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			updates := make(chan workflow.StepUpdate, 64)
			sink := workflow.SinkFunc(func(update workflow.StepUpdate) {
				updates <- update
			})

			orch := workflow.NewOrchestrator(generator, logger, []workflow.Sink{sink})
			defer orch.Close()

			run, err := orch.Start(args[0])
			if err != nil {
				return err
			}

			for update := range updates {
				if update.RunID != run.ID {
					continue
				}
				printStepUpdate(out, update)
				if update.RunStatus == workflow.StatusCompleted || update.RunStatus == workflow.StatusFailed {
					break
				}
			}

			final, _ := orch.Snapshot()
			fmt.Fprintln(out)
			if isatty.IsTerminal(os.Stdout.Fd()) {
				fmt.Fprintln(out, renderRunTable(final))
			} else {
				printRunPlain(out, final)
			}

			if final.Status() == workflow.StatusFailed {
				return fmt.Errorf("run failed: %s", failedStepMessage(final))
			}
			return nil
		},
	}
}

func printStepUpdate(out io.Writer, update workflow.StepUpdate) {
	step := update.Step
	switch step.Status {
	case workflow.StatusRunning:
		fmt.Fprintf(out, "%-12s running\n", step.Label)
	case workflow.StatusSelecting:
		count := 0
		if step.Content.Selection != nil {
			count = len(step.Content.Selection.Alternatives)
		}
		fmt.Fprintf(out, "%-12s choosing between %d candidates\n", step.Label, count)
	case workflow.StatusCompleted:
		fmt.Fprintf(out, "%-12s done  %s\n", step.Label, summarizeContent(step.Content, 60))
	case workflow.StatusFailed:
		fmt.Fprintf(out, "%-12s FAILED: %s\n", step.Label, step.ErrorMessage)
	}
}

func printRunPlain(out io.Writer, run workflow.Run) {
	fmt.Fprintf(out, "Topic: %s\nStatus: %s\n", run.Topic, run.Status())
	for _, step := range run.Steps {
		fmt.Fprintf(out, "%s\t%s\t%s\n", step.Label, step.Status, summarizeContent(step.Content, 100))
	}
}

func failedStepMessage(run workflow.Run) string {
	for _, step := range run.Steps {
		if step.Status == workflow.StatusFailed {
			return fmt.Sprintf("%s: %s", strings.ToLower(step.Label), step.ErrorMessage)
		}
	}
	return "unknown step failure"
}
