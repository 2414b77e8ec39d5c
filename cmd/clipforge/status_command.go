package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"clipforge/internal/daemon"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			status, err := fetchDaemonStatus(cfg.Paths.APIBind, cfg.Paths.APIToken)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Daemon running: %s\n", yesNo(status.Running))
			if !status.StartedAt.IsZero() {
				fmt.Fprintf(out, "Started: %s\n", status.StartedAt.Format(time.RFC3339))
			}
			if status.Workflow != nil {
				fmt.Fprintf(out, "Workflow: %s (%s)\n", status.Workflow.Topic, status.Workflow.Status())
			} else {
				fmt.Fprintln(out, "Workflow: none")
			}
			if status.Video != nil {
				fmt.Fprintf(out, "Video job: %s (%s)\n", status.Video.ID, status.Video.State)
			} else {
				fmt.Fprintln(out, "Video job: none")
			}
			return nil
		},
	}
}

func fetchDaemonStatus(bind, token string) (daemon.Status, error) {
	var status daemon.Status

	url := "http://" + strings.TrimSpace(bind) + "/api/status"
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return status, fmt.Errorf("build status request: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, syscall.ECONNREFUSED) {
			return status, fmt.Errorf("daemon not reachable at %s; start it with `clipforged`", bind)
		}
		return status, fmt.Errorf("query daemon: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return status, errors.New("daemon rejected the API token; check paths.api_token")
	}
	if resp.StatusCode != http.StatusOK {
		return status, fmt.Errorf("daemon returned http %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return status, fmt.Errorf("decode status: %w", err)
	}
	return status, nil
}
