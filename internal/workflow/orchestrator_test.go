package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"clipforge/internal/services"
)

type fakeGenerator struct {
	mu          sync.Mutex
	titles      []string
	hooks       []string
	script      string
	description string
	tags        []string
	choice      string

	scriptErr error
	titleGate chan struct{}

	titleCalls      int
	downstreamTitle string
}

func newFakeGenerator() *fakeGenerator {
	return &fakeGenerator{
		titles:      []string{"Alpha Title", "Beta Title", "Gamma Title"},
		hooks:       []string{"hook one", "hook two"},
		script:      "full narration",
		description: "video description",
		tags:        []string{"tag1", "tag2"},
		choice:      "Beta Title",
	}
}

func (f *fakeGenerator) TitleCandidates(ctx context.Context, topic string) ([]string, error) {
	f.mu.Lock()
	f.titleCalls++
	gate := f.titleGate
	titles := f.titles
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return titles, nil
}

func (f *fakeGenerator) noteTitle(title string) {
	f.mu.Lock()
	f.downstreamTitle = title
	f.mu.Unlock()
}

func (f *fakeGenerator) Hooks(ctx context.Context, title string) ([]string, error) {
	f.noteTitle(title)
	return f.hooks, nil
}

func (f *fakeGenerator) Script(ctx context.Context, title string) (string, error) {
	f.noteTitle(title)
	if f.scriptErr != nil {
		return "", f.scriptErr
	}
	return f.script, nil
}

func (f *fakeGenerator) Description(ctx context.Context, title string) (string, error) {
	f.noteTitle(title)
	return f.description, nil
}

func (f *fakeGenerator) Tags(ctx context.Context, title string) ([]string, error) {
	f.noteTitle(title)
	return f.tags, nil
}

func (f *fakeGenerator) ChooseBest(ctx context.Context, candidates []string, purpose string) (string, error) {
	return f.choice, nil
}

type recordingSink struct {
	updates chan StepUpdate
}

func newRecordingSink() *recordingSink {
	return &recordingSink{updates: make(chan StepUpdate, 128)}
}

func (s *recordingSink) HandleStepUpdate(update StepUpdate) {
	s.updates <- update
}

// drainUntilTerminal collects every update until runID reports a terminal
// status. Updates from other runs are kept so callers can inspect them.
func drainUntilTerminal(t *testing.T, sink *recordingSink, runID string) []StepUpdate {
	t.Helper()
	deadline := time.After(5 * time.Second)
	var collected []StepUpdate
	for {
		select {
		case update := <-sink.updates:
			collected = append(collected, update)
			if update.RunID == runID && (update.RunStatus == StatusCompleted || update.RunStatus == StatusFailed) {
				return collected
			}
		case <-deadline:
			t.Fatalf("run %s never reached a terminal status (%d updates)", runID, len(collected))
		}
	}
}

// assertOrderedUpdates walks the collected updates for one run and checks
// the sequencing contract: steps progress in StepOrder, a step reports
// running before selecting or any terminal status, a step never reports
// anything after reaching a terminal status, and a step only starts once
// every earlier step has completed.
func assertOrderedUpdates(t *testing.T, updates []StepUpdate, runID string) {
	t.Helper()
	stepIndex := make(map[StepID]int, len(StepOrder))
	for i, id := range StepOrder {
		stepIndex[id] = i
	}

	current := 0
	terminal := map[StepID]Status{}
	running := map[StepID]bool{}
	for _, update := range updates {
		if update.RunID != runID {
			continue
		}
		idx, ok := stepIndex[update.Step.ID]
		if !ok {
			t.Fatalf("update for unknown step %s", update.Step.ID)
		}
		if idx < current {
			t.Fatalf("step %s reported %s after a later step started", update.Step.ID, update.Step.Status)
		}
		if idx > current {
			for _, id := range StepOrder[current:idx] {
				if terminal[id] != StatusCompleted {
					t.Fatalf("step %s started before step %s finished", update.Step.ID, id)
				}
			}
			current = idx
		}
		if prior, done := terminal[update.Step.ID]; done {
			t.Fatalf("step %s reported %s after terminal status %s", update.Step.ID, update.Step.Status, prior)
		}
		switch update.Step.Status {
		case StatusRunning:
			running[update.Step.ID] = true
		case StatusSelecting:
			if !running[update.Step.ID] {
				t.Fatalf("step %s reported selecting before running", update.Step.ID)
			}
		case StatusCompleted, StatusFailed:
			if !running[update.Step.ID] {
				t.Fatalf("step %s reported %s before running", update.Step.ID, update.Step.Status)
			}
			terminal[update.Step.ID] = update.Step.Status
		default:
			t.Fatalf("unexpected update status %s for step %s", update.Step.Status, update.Step.ID)
		}
	}
}

func TestStartRejectsEmptyTopic(t *testing.T) {
	orch := NewOrchestrator(newFakeGenerator(), nil, nil)
	defer orch.Close()

	_, err := orch.Start("   ")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty topic, got %v", err)
	}
	if _, ok := orch.Snapshot(); ok {
		t.Fatal("no run should exist after a rejected start")
	}
}

func TestRunCompletesAllSteps(t *testing.T) {
	gen := newFakeGenerator()
	sink := newRecordingSink()
	orch := NewOrchestrator(gen, nil, []Sink{sink})
	defer orch.Close()

	run, err := orch.Start("rock climbing basics")
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if got := run.Status(); got != StatusRunning {
		t.Fatalf("initial snapshot status = %s, want %s", got, StatusRunning)
	}

	updates := drainUntilTerminal(t, sink, run.ID)
	assertOrderedUpdates(t, updates, run.ID)
	final, ok := orch.Snapshot()
	if !ok || final.Status() != StatusCompleted {
		t.Fatalf("expected completed run, got status %s", final.Status())
	}

	title, _ := final.StepByID(StepTitle)
	if title.Content.Kind != ContentSelection || title.Content.Selection.Chosen != "Beta Title" {
		t.Fatalf("unexpected title content: %+v", title.Content)
	}
	if gen.downstreamTitle != "Beta Title" {
		t.Fatalf("downstream steps saw title %q, want chosen title", gen.downstreamTitle)
	}

	sawSelecting := false
	for _, update := range updates {
		if update.RunID != run.ID || update.Step.ID != StepTitle || update.Step.Status != StatusSelecting {
			continue
		}
		sawSelecting = true
		if update.Step.Content.Selection == nil {
			t.Fatal("selecting update missing alternatives")
		}
		if update.Step.Content.Selection.Chosen != "" {
			t.Fatal("selecting update must not carry a chosen value")
		}
	}
	if !sawSelecting {
		t.Fatal("title step never reported a selecting update")
	}

	for _, id := range []StepID{StepHooks, StepScript, StepDescription, StepTags} {
		step, _ := final.StepByID(id)
		if step.Status != StatusCompleted {
			t.Fatalf("step %s status = %s, want completed", id, step.Status)
		}
	}
}

func TestStepFailureAbortsRun(t *testing.T) {
	gen := newFakeGenerator()
	gen.scriptErr = services.Wrap(services.ErrParse, "generation", "script", "unexpected payload", nil)
	sink := newRecordingSink()
	orch := NewOrchestrator(gen, nil, []Sink{sink})
	defer orch.Close()

	run, err := orch.Start("topic")
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	updates := drainUntilTerminal(t, sink, run.ID)
	assertOrderedUpdates(t, updates, run.ID)

	final, _ := orch.Snapshot()
	if final.Status() != StatusFailed {
		t.Fatalf("run status = %s, want failed", final.Status())
	}
	script, _ := final.StepByID(StepScript)
	if script.Status != StatusFailed || script.ErrorMessage == "" {
		t.Fatalf("script step = %+v, want failed with message", script)
	}
	hooks, _ := final.StepByID(StepHooks)
	if hooks.Status != StatusCompleted {
		t.Fatalf("hooks step status = %s, want completed", hooks.Status)
	}
	for _, id := range []StepID{StepDescription, StepTags} {
		step, _ := final.StepByID(id)
		if step.Status != StatusPending {
			t.Fatalf("step %s status = %s, want pending after abort", id, step.Status)
		}
	}
}

func TestDuplicateTopicIsNoOp(t *testing.T) {
	gen := newFakeGenerator()
	gate := make(chan struct{})
	gen.titleGate = gate
	sink := newRecordingSink()
	orch := NewOrchestrator(gen, nil, []Sink{sink})
	defer orch.Close()

	first, err := orch.Start("same topic")
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	second, err := orch.Start("same topic")
	if err != nil {
		t.Fatalf("duplicate Start returned error: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("duplicate start created a new run: %s vs %s", second.ID, first.ID)
	}

	close(gate)
	drainUntilTerminal(t, sink, first.ID)

	gen.mu.Lock()
	calls := gen.titleCalls
	gen.mu.Unlock()
	if calls != 1 {
		t.Fatalf("title generation ran %d times, want 1", calls)
	}
}

func TestNewTopicSupersedesRun(t *testing.T) {
	gen := newFakeGenerator()
	gate := make(chan struct{})
	gen.titleGate = gate
	sink := newRecordingSink()
	orch := NewOrchestrator(gen, nil, []Sink{sink})
	defer orch.Close()

	first, err := orch.Start("old topic")
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	gen.mu.Lock()
	gen.titleGate = nil
	gen.mu.Unlock()

	second, err := orch.Start("new topic")
	if err != nil {
		t.Fatalf("second Start returned error: %v", err)
	}
	if second.ID == first.ID {
		t.Fatal("new topic must produce a new run")
	}

	close(gate)
	updates := drainUntilTerminal(t, sink, second.ID)

	// The superseded run only got as far as marking the title step running
	// before cancellation; anything beyond that is a leak.
	checkFirstRun := func(update StepUpdate) {
		if update.RunID == first.ID && update.Step.Status != StatusRunning {
			t.Fatalf("superseded run emitted update: %+v", update)
		}
	}
	for _, update := range updates {
		checkFirstRun(update)
	}
	for {
		select {
		case update := <-sink.updates:
			checkFirstRun(update)
		default:
			return
		}
	}
}

func TestSinkPanicIsIsolated(t *testing.T) {
	gen := newFakeGenerator()
	panicking := SinkFunc(func(StepUpdate) { panic("consumer bug") })
	sink := newRecordingSink()
	orch := NewOrchestrator(gen, nil, []Sink{panicking, sink})
	defer orch.Close()

	run, err := orch.Start("topic")
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	drainUntilTerminal(t, sink, run.ID)

	final, _ := orch.Snapshot()
	if final.Status() != StatusCompleted {
		t.Fatalf("run status = %s, want completed despite panicking sink", final.Status())
	}
}

func TestChooserRewordFallsBackToFirstCandidate(t *testing.T) {
	gen := newFakeGenerator()
	gen.choice = "A Reworded Title"
	sink := newRecordingSink()
	orch := NewOrchestrator(gen, nil, []Sink{sink})
	defer orch.Close()

	run, err := orch.Start("topic")
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	drainUntilTerminal(t, sink, run.ID)

	final, _ := orch.Snapshot()
	title, _ := final.StepByID(StepTitle)
	if title.Content.Selection == nil || title.Content.Selection.Chosen != "Alpha Title" {
		t.Fatalf("expected fallback to first candidate, got %+v", title.Content)
	}
}
