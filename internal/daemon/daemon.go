package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"clipforge/internal/config"
	"clipforge/internal/generation"
	"clipforge/internal/logging"
	"clipforge/internal/notifications"
	"clipforge/internal/progress"
	"clipforge/internal/videogen"
	"clipforge/internal/workflow"
)

// Daemon owns the content pipeline, the video job poller, and the HTTP
// surface the browser UI talks to. A lock file enforces single-instance
// execution.
type Daemon struct {
	cfg          *config.Config
	logger       *slog.Logger
	orchestrator *workflow.Orchestrator
	videos       *videogen.Service
	hub          *progress.Hub
	api          *apiServer

	lockPath  string
	lock      *flock.Flock
	startedAt time.Time

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool          `json:"running"`
	StartedAt    time.Time     `json:"started_at,omitempty"`
	LockFilePath string        `json:"lock_file_path"`
	Workflow     *workflow.Run `json:"workflow,omitempty"`
	Video        *videogen.Job `json:"video,omitempty"`
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || logger == nil {
		return nil, errors.New("daemon requires config and logger")
	}

	hub := progress.NewHub(logger)
	notify := newNotifier(notifications.NewService(cfg), logger)

	generator, err := generation.NewService(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("build generation service: %w", err)
	}
	orchestrator := workflow.NewOrchestrator(generator, logger, []workflow.Sink{hub.WorkflowSink(), notify})

	backend := videogen.NewClient(videogen.Config{
		APIKey:  cfg.VideoAPIKey(),
		BaseURL: cfg.Video.BaseURL,
		Model:   cfg.Video.Model,
	})
	videos := videogen.NewService(
		backend,
		cfg.Paths.OutputDir,
		time.Duration(cfg.Video.PollIntervalSeconds)*time.Second,
		logger,
		[]videogen.Sink{hub.VideoSink(), notify},
	)

	lockPath := filepath.Join(cfg.Paths.LogDir, "clipforged.lock")
	d := &Daemon{
		cfg:          cfg,
		logger:       logging.NewComponentLogger(logger, "daemon"),
		orchestrator: orchestrator,
		videos:       videos,
		hub:          hub,
		lockPath:     lockPath,
		lock:         flock.New(lockPath),
	}
	d.api = newAPIServer(cfg.Paths.APIBind, cfg.Paths.APIToken, logger, d, hub, filepath.Join(cfg.Paths.LogDir, "clipforge.log"))
	return d, nil
}

// Start acquires the daemon lock and brings up the API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another clipforge daemon instance is already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	if err := d.api.start(ctx); err != nil {
		_ = d.lock.Unlock()
		cancel()
		d.cancel = nil
		return err
	}

	d.startedAt = time.Now()
	d.running.Store(true)
	d.logger.Info("daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop shuts down the API server, cancels in-flight work, and releases the
// daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.orchestrator.Close()
	d.videos.Close()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// StartWorkflow begins a pipeline run for the topic.
func (d *Daemon) StartWorkflow(topic string) (workflow.Run, error) {
	return d.orchestrator.Start(topic)
}

// WorkflowSnapshot returns the latest run, if any.
func (d *Daemon) WorkflowSnapshot() (workflow.Run, bool) {
	return d.orchestrator.Snapshot()
}

// StartVideo submits a video generation job.
func (d *Daemon) StartVideo(prompt string) (videogen.Job, error) {
	return d.videos.StartJob(prompt)
}

// VideoSnapshot returns the latest video job, if any.
func (d *Daemon) VideoSnapshot() (videogen.Job, bool) {
	return d.videos.Snapshot()
}

// CancelVideo stops the in-flight video job.
func (d *Daemon) CancelVideo() {
	d.videos.Cancel()
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	status := Status{
		Running:      d.running.Load(),
		LockFilePath: d.lockPath,
	}
	if !d.startedAt.IsZero() {
		status.StartedAt = d.startedAt
	}
	if run, ok := d.orchestrator.Snapshot(); ok {
		status.Workflow = &run
	}
	if job, ok := d.videos.Snapshot(); ok {
		status.Video = &job
	}
	return status
}
