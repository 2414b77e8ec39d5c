package daemon

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"clipforge/internal/logging"
	"clipforge/internal/notifications"
	"clipforge/internal/videogen"
	"clipforge/internal/workflow"
)

const notifyTimeout = 15 * time.Second

// notifier bridges progress updates to the notification service. Only
// terminal events produce a push; intermediate step updates are ignored.
// Because exactly one run is live at a time, tracking the last notified
// run ID and the current run's chosen title is enough state.
type notifier struct {
	service notifications.Service
	logger  *slog.Logger

	mu           sync.Mutex
	titleRunID   string
	title        string
	lastNotified string
}

func newNotifier(service notifications.Service, logger *slog.Logger) *notifier {
	return &notifier{
		service: service,
		logger:  logging.NewComponentLogger(logger, "notify"),
	}
}

// HandleStepUpdate implements workflow.Sink.
func (n *notifier) HandleStepUpdate(update workflow.StepUpdate) {
	n.mu.Lock()
	if update.Step.ID == workflow.StepTitle &&
		update.Step.Status == workflow.StatusCompleted &&
		update.Step.Content.Selection != nil {
		n.titleRunID = update.RunID
		n.title = update.Step.Content.Selection.Chosen
	}

	terminal := update.RunStatus == workflow.StatusCompleted || update.RunStatus == workflow.StatusFailed
	if !terminal || update.RunID == n.lastNotified {
		n.mu.Unlock()
		return
	}
	n.lastNotified = update.RunID
	var title string
	if n.titleRunID == update.RunID {
		title = n.title
	}
	n.titleRunID = ""
	n.title = ""
	n.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	var err error
	if update.RunStatus == workflow.StatusCompleted {
		err = n.service.NotifyRunCompleted(ctx, update.Topic, title)
	} else {
		err = n.service.NotifyRunFailed(ctx, update.Topic, string(update.Step.ID), update.Step.ErrorMessage)
	}
	if err != nil {
		n.logger.Warn("run notification failed",
			logging.String(logging.FieldRunID, update.RunID),
			logging.Error(err),
		)
	}
}

// HandleVideoUpdate implements videogen.Sink.
func (n *notifier) HandleVideoUpdate(job videogen.Job) {
	if !job.State.Terminal() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	var err error
	if job.State == videogen.JobSucceeded {
		err = n.service.NotifyVideoReady(ctx, job.Prompt, job.ArtifactPath)
	} else {
		err = n.service.NotifyVideoFailed(ctx, job.Prompt, job.Message)
	}
	if err != nil {
		n.logger.Warn("video notification failed",
			logging.String(logging.FieldJobID, job.ID),
			logging.Error(err),
		)
	}
}
