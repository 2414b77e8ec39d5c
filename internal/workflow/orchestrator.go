package workflow

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"clipforge/internal/generation"
	"clipforge/internal/logging"
	"clipforge/internal/metrics"
	"clipforge/internal/selection"
	"clipforge/internal/services"
)

// Orchestrator drives the fixed content pipeline for one topic at a time.
// Starting a new topic supersedes any run still in flight; the superseded
// run stops without emitting further updates.
type Orchestrator struct {
	generator generation.Service
	logger    *slog.Logger
	sinks     []Sink
	now       func() time.Time
	newID     func() string

	mu      sync.Mutex
	current *activeRun
}

type activeRun struct {
	run      Run
	cancel   context.CancelFunc
	finished chan struct{}
}

// Option configures optional Orchestrator behavior.
type Option func(*Orchestrator)

// WithClock overrides the time source (used in tests).
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// WithIDGenerator overrides run ID generation (used in tests).
func WithIDGenerator(newID func() string) Option {
	return func(o *Orchestrator) {
		o.newID = newID
	}
}

// NewOrchestrator constructs an orchestrator pushing updates to the given
// sinks.
func NewOrchestrator(generator generation.Service, logger *slog.Logger, sinks []Sink, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	o := &Orchestrator{
		generator: generator,
		logger:    logging.NewComponentLogger(logger, "workflow"),
		sinks:     sinks,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Start begins a pipeline run for the topic and returns its initial
// snapshot. An empty topic fails synchronously. Starting the topic already
// in flight returns the live snapshot without side effects; a different
// topic cancels the in-flight run first.
func (o *Orchestrator) Start(topic string) (Run, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return Run{}, services.Wrap(services.ErrValidation, "workflow", "start", "topic must not be empty", nil)
	}

	o.mu.Lock()
	if o.current != nil && !o.isFinishedLocked(o.current) {
		if strings.EqualFold(o.current.run.Topic, topic) {
			snapshot := o.current.run.Clone()
			o.mu.Unlock()
			return snapshot, nil
		}
		o.current.cancel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	state := &activeRun{
		run:      newRun(o.newID(), topic, o.now()),
		cancel:   cancel,
		finished: make(chan struct{}),
	}
	o.current = state
	snapshot := state.run.Clone()
	o.mu.Unlock()

	metrics.RunsStarted.Inc()
	o.logger.Info("run started",
		logging.String(logging.FieldRunID, state.run.ID),
		logging.String("topic", topic),
	)

	go o.execute(ctx, state)
	return snapshot, nil
}

// Snapshot returns a copy of the most recent run, finished or not.
func (o *Orchestrator) Snapshot() (Run, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.current == nil {
		return Run{}, false
	}
	return o.current.run.Clone(), true
}

// Cancel stops the in-flight run, if any. Finished runs are unaffected.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	state := o.current
	o.mu.Unlock()
	if state != nil {
		state.cancel()
	}
}

// Close cancels any in-flight run and waits for its goroutine to exit.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	state := o.current
	o.mu.Unlock()
	if state == nil {
		return
	}
	state.cancel()
	<-state.finished
}

func (o *Orchestrator) isFinishedLocked(state *activeRun) bool {
	select {
	case <-state.finished:
		return true
	default:
		return false
	}
}

func (o *Orchestrator) execute(ctx context.Context, state *activeRun) {
	defer close(state.finished)

	runID := state.run.ID
	ctx = services.WithRunID(ctx, runID)

	title, ok := o.runTitleStep(ctx, state)
	if !ok {
		return
	}

	type textStep struct {
		id  StepID
		gen func(context.Context, string) (Content, error)
	}
	remaining := []textStep{
		{StepHooks, func(ctx context.Context, title string) (Content, error) {
			hooks, err := o.generator.Hooks(ctx, title)
			return ListContent(hooks), err
		}},
		{StepScript, func(ctx context.Context, title string) (Content, error) {
			script, err := o.generator.Script(ctx, title)
			return TextContent(script), err
		}},
		{StepDescription, func(ctx context.Context, title string) (Content, error) {
			description, err := o.generator.Description(ctx, title)
			return TextContent(description), err
		}},
		{StepTags, func(ctx context.Context, title string) (Content, error) {
			tags, err := o.generator.Tags(ctx, title)
			return ListContent(tags), err
		}},
	}

	for _, step := range remaining {
		if !o.transition(ctx, state, step.id, StatusRunning, Content{Kind: ContentNone}, nil) {
			return
		}
		content, err := step.gen(ctx, title)
		if err != nil {
			o.failStep(ctx, state, step.id, err)
			return
		}
		if !o.transition(ctx, state, step.id, StatusCompleted, content, nil) {
			return
		}
	}

	o.finishRun(ctx, state, StatusCompleted)
}

// runTitleStep generates title alternatives, surfaces them for selection,
// and resolves the winner. It returns the chosen title and whether the
// pipeline should continue.
func (o *Orchestrator) runTitleStep(ctx context.Context, state *activeRun) (string, bool) {
	if !o.transition(ctx, state, StepTitle, StatusRunning, Content{Kind: ContentNone}, nil) {
		return "", false
	}

	candidates, err := o.generator.TitleCandidates(ctx, state.run.Topic)
	if err != nil {
		o.failStep(ctx, state, StepTitle, err)
		return "", false
	}

	if !o.transition(ctx, state, StepTitle, StatusSelecting, SelectionContent(candidates, ""), nil) {
		return "", false
	}

	chosen, err := selection.Pick(ctx, o.generator, o.logger, candidates, "most clickable title for the topic")
	if err != nil {
		o.failStep(ctx, state, StepTitle, err)
		return "", false
	}

	if !o.transition(ctx, state, StepTitle, StatusCompleted, SelectionContent(candidates, chosen), nil) {
		return "", false
	}
	return chosen, true
}

func (o *Orchestrator) failStep(ctx context.Context, state *activeRun, id StepID, err error) {
	message := services.Message(err)
	if o.transition(ctx, state, id, StatusFailed, Content{Kind: ContentNone}, &message) {
		metrics.StepFailures.WithLabelValues(string(id)).Inc()
		o.logger.Error("step failed",
			logging.String(logging.FieldRunID, state.run.ID),
			logging.String(logging.FieldStep, string(id)),
			logging.Error(err),
		)
		o.finishRun(ctx, state, StatusFailed)
	}
}

func (o *Orchestrator) finishRun(ctx context.Context, state *activeRun, status Status) {
	o.mu.Lock()
	if ctx.Err() == nil && o.current == state {
		state.run.FinishedAt = o.now()
	}
	o.mu.Unlock()

	switch status {
	case StatusCompleted:
		metrics.RunsCompleted.Inc()
		o.logger.Info("run completed", logging.String(logging.FieldRunID, state.run.ID))
	case StatusFailed:
		metrics.RunsFailed.Inc()
	}
}

// transition applies a step update and pushes it to the sinks. It reports
// false when the run was cancelled or superseded, in which case nothing was
// applied and nothing was pushed.
func (o *Orchestrator) transition(ctx context.Context, state *activeRun, id StepID, status Status, content Content, errorMessage *string) bool {
	o.mu.Lock()
	if ctx.Err() != nil || o.current != state {
		o.mu.Unlock()
		return false
	}
	for i := range state.run.Steps {
		if state.run.Steps[i].ID != id {
			continue
		}
		state.run.Steps[i].Status = status
		if content.Kind != ContentNone {
			state.run.Steps[i].Content = content
		}
		if errorMessage != nil {
			state.run.Steps[i].ErrorMessage = *errorMessage
		}
		break
	}
	snapshot := state.run.Clone()
	o.mu.Unlock()

	step, _ := snapshot.StepByID(id)
	notifySinks(o.sinks, o.logger, StepUpdate{
		RunID:     snapshot.ID,
		Topic:     snapshot.Topic,
		Step:      step,
		RunStatus: snapshot.Status(),
		Timestamp: o.now(),
	})
	return true
}
