package videogen

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"clipforge/internal/fileutil"
	"clipforge/internal/logging"
	"clipforge/internal/metrics"
	"clipforge/internal/services"
	"clipforge/internal/textutil"
)

// JobState is the lifecycle state of a video generation job.
type JobState string

const (
	JobStarting  JobState = "starting"
	JobPolling   JobState = "polling"
	JobSucceeded JobState = "succeeded"
	JobFailed    JobState = "failed"
)

// Terminal reports whether the state accepts no further transitions.
func (s JobState) Terminal() bool {
	return s == JobSucceeded || s == JobFailed
}

// Job is a snapshot of one video generation job.
type Job struct {
	ID           string    `json:"id"`
	Prompt       string    `json:"prompt"`
	State        JobState  `json:"state"`
	Message      string    `json:"message,omitempty"`
	ArtifactPath string    `json:"artifact_path,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at,omitempty"`
}

// Sink receives job snapshots as the poller makes progress.
type Sink interface {
	HandleVideoUpdate(job Job)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(job Job)

func (f SinkFunc) HandleVideoUpdate(job Job) {
	f(job)
}

// Service drives at most one video generation job at a time. Starting a
// new job cancels the previous loop before the new one begins; a cancelled
// loop performs no further polls, fetches, or sink updates.
type Service struct {
	backend   Backend
	logger    *slog.Logger
	sinks     []Sink
	outputDir string
	interval  time.Duration
	now       func() time.Time
	newID     func() string

	mu      sync.Mutex
	current *activeJob
}

type activeJob struct {
	job      Job
	handle   OperationHandle
	cancel   context.CancelFunc
	finished chan struct{}
}

// ServiceOption configures optional Service behavior.
type ServiceOption func(*Service)

// WithPollInterval overrides the poll interval (used in tests).
func WithPollInterval(interval time.Duration) ServiceOption {
	return func(s *Service) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithClock overrides the time source (used in tests).
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// WithIDGenerator overrides job ID generation (used in tests).
func WithIDGenerator(newID func() string) ServiceOption {
	return func(s *Service) {
		s.newID = newID
	}
}

// NewService constructs a poller service writing artifacts under outputDir.
func NewService(backend Backend, outputDir string, pollInterval time.Duration, logger *slog.Logger, sinks []Sink, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	if pollInterval <= 0 {
		pollInterval = 10 * time.Second
	}
	s := &Service{
		backend:   backend,
		logger:    logging.NewComponentLogger(logger, "videogen"),
		sinks:     sinks,
		outputDir: outputDir,
		interval:  pollInterval,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartJob submits a prompt and begins polling. Any job still in flight is
// cancelled first.
func (s *Service) StartJob(prompt string) (Job, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return Job{}, services.Wrap(services.ErrValidation, "videogen", "start", "prompt must not be empty", nil)
	}

	s.mu.Lock()
	if s.current != nil && !jobFinished(s.current) {
		s.current.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	state := &activeJob{
		job: Job{
			ID:        s.newID(),
			Prompt:    prompt,
			State:     JobStarting,
			StartedAt: s.now(),
		},
		cancel:   cancel,
		finished: make(chan struct{}),
	}
	s.current = state
	snapshot := state.job
	s.mu.Unlock()

	metrics.VideoJobsStarted.Inc()
	s.logger.Info("video job started",
		logging.String(logging.FieldJobID, snapshot.ID),
	)

	go s.run(ctx, state)
	return snapshot, nil
}

// Snapshot returns a copy of the most recent job, finished or not.
func (s *Service) Snapshot() (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Job{}, false
	}
	return s.current.job, true
}

// Cancel stops the in-flight job, if any.
func (s *Service) Cancel() {
	s.mu.Lock()
	state := s.current
	s.mu.Unlock()
	if state != nil {
		state.cancel()
	}
}

// Close cancels any in-flight job and waits for its loop to exit.
func (s *Service) Close() {
	s.mu.Lock()
	state := s.current
	s.mu.Unlock()
	if state == nil {
		return
	}
	state.cancel()
	<-state.finished
}

func jobFinished(state *activeJob) bool {
	select {
	case <-state.finished:
		return true
	default:
		return false
	}
}

func (s *Service) run(ctx context.Context, state *activeJob) {
	defer close(state.finished)

	ctx = services.WithJobID(ctx, state.job.ID)

	handle, err := s.backend.Start(ctx, state.job.Prompt)
	if err != nil {
		s.fail(ctx, state, s.classifyStartError(err))
		return
	}
	state.handle = handle

	if !s.apply(ctx, state, func(job *Job) {
		job.State = JobPolling
		job.Message = "generation submitted, waiting for the backend"
	}) {
		return
	}

	s.poll(ctx, state)
}

func (s *Service) classifyStartError(err error) error {
	if isCredentialError(err) {
		return services.Wrap(services.ErrCredential, "videogen", "start", "re-authentication required", err)
	}
	return services.Wrap(services.ErrTransient, "videogen", "start", "backend rejected the job", err)
}

// poll drives the fixed-interval loop. Transient errors never terminate
// the loop; credential errors and done operations do.
func (s *Service) poll(ctx context.Context, state *activeJob) {
	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		metrics.VideoPollTicks.Inc()
		status, err := s.backend.Poll(ctx, state.handle)
		switch {
		case err != nil && ctx.Err() != nil:
			return
		case err != nil && isCredentialError(err):
			s.fail(ctx, state, services.Wrap(services.ErrCredential, "videogen", "poll", "re-authentication required", err))
			return
		case err != nil:
			if !s.apply(ctx, state, func(job *Job) {
				job.Message = "still trying: " + services.Message(err)
			}) {
				return
			}
		case status.Done && status.ResultURI == "":
			s.fail(ctx, state, services.Wrap(services.ErrArtifactMissing, "videogen", "poll", "generation finished but produced no artifact", nil))
			return
		case status.Done:
			s.finish(ctx, state, status.ResultURI)
			return
		}

		timer.Reset(s.interval)
	}
}

func (s *Service) finish(ctx context.Context, state *activeJob, locator string) {
	slug := textutil.Slug(state.job.Prompt)
	if len(slug) > 48 {
		slug = strings.Trim(slug[:48], "-")
	}
	artifact := filepath.Join(s.outputDir, fmt.Sprintf("%s-%s.mp4", slug, state.job.ID))

	stream, err := s.backend.Fetch(ctx, locator)
	if err != nil {
		s.fail(ctx, state, services.Wrap(services.ErrTransient, "videogen", "fetch", "artifact download failed", err))
		return
	}
	defer stream.Close()

	written, err := fileutil.WriteStream(artifact, stream)
	if err != nil {
		s.fail(ctx, state, services.Wrap(services.ErrTransient, "videogen", "fetch", "artifact write failed", err))
		return
	}

	if s.apply(ctx, state, func(job *Job) {
		job.State = JobSucceeded
		job.Message = ""
		job.ArtifactPath = artifact
		job.FinishedAt = s.now()
	}) {
		metrics.VideoJobsSucceeded.Inc()
		s.logger.Info("video job succeeded",
			logging.String(logging.FieldJobID, state.job.ID),
			logging.String("artifact", artifact),
			logging.Int64("bytes", written),
		)
	}
}

func (s *Service) fail(ctx context.Context, state *activeJob, err error) {
	if s.apply(ctx, state, func(job *Job) {
		job.State = JobFailed
		job.Message = services.Message(err)
		job.FinishedAt = s.now()
	}) {
		metrics.VideoJobsFailed.Inc()
		s.logger.Error("video job failed",
			logging.String(logging.FieldJobID, state.job.ID),
			logging.Error(err),
		)
	}
}

// apply mutates the job and pushes the snapshot to the sinks. It reports
// false when the job was cancelled or superseded, in which case nothing
// was applied and nothing was pushed.
func (s *Service) apply(ctx context.Context, state *activeJob, mutate func(*Job)) bool {
	s.mu.Lock()
	if ctx.Err() != nil || s.current != state {
		s.mu.Unlock()
		return false
	}
	mutate(&state.job)
	snapshot := state.job
	s.mu.Unlock()

	for _, sink := range s.sinks {
		s.notifyOne(sink, snapshot)
	}
	return true
}

func (s *Service) notifyOne(sink Sink, job Job) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("video sink panicked",
				logging.String(logging.FieldEventType, "sink_panic"),
				logging.String(logging.FieldJobID, job.ID),
				logging.Any("panic", r),
			)
		}
	}()
	sink.HandleVideoUpdate(job)
}
