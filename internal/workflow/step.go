package workflow

import (
	"time"
)

// Status is the lifecycle state of a pipeline step or a whole run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSelecting Status = "selecting"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// StepID identifies one of the fixed pipeline steps.
type StepID string

const (
	StepTitle       StepID = "title"
	StepHooks       StepID = "hooks"
	StepScript      StepID = "script"
	StepDescription StepID = "description"
	StepTags        StepID = "tags"
)

// StepOrder is the fixed execution order of the pipeline.
var StepOrder = []StepID{StepTitle, StepHooks, StepScript, StepDescription, StepTags}

// ContentKind discriminates the payload carried by a step.
type ContentKind string

const (
	ContentNone      ContentKind = "none"
	ContentText      ContentKind = "text"
	ContentList      ContentKind = "list"
	ContentSelection ContentKind = "selection"
)

// Selection carries generated alternatives and, once decided, the winner.
// An empty Chosen means the decision is still pending.
type Selection struct {
	Alternatives []string `json:"alternatives"`
	Chosen       string   `json:"chosen,omitempty"`
}

// Content is the tagged payload of a step. Exactly the field matching Kind
// is meaningful; the others stay zero.
type Content struct {
	Kind      ContentKind `json:"kind"`
	Text      string      `json:"text,omitempty"`
	List      []string    `json:"list,omitempty"`
	Selection *Selection  `json:"selection,omitempty"`
}

// TextContent builds a text payload.
func TextContent(text string) Content {
	return Content{Kind: ContentText, Text: text}
}

// ListContent builds a list payload.
func ListContent(items []string) Content {
	return Content{Kind: ContentList, List: items}
}

// SelectionContent builds a selection payload. Pass an empty chosen value
// while the decision is still open.
func SelectionContent(alternatives []string, chosen string) Content {
	return Content{Kind: ContentSelection, Selection: &Selection{Alternatives: alternatives, Chosen: chosen}}
}

// Step is a snapshot of one pipeline step.
type Step struct {
	ID           StepID  `json:"id"`
	Label        string  `json:"label"`
	Status       Status  `json:"status"`
	Content      Content `json:"content"`
	ErrorMessage string  `json:"error,omitempty"`
}

// Run is a snapshot of a full pipeline run. Steps always appear in
// StepOrder, regardless of how far the run has progressed.
type Run struct {
	ID         string    `json:"id"`
	Topic      string    `json:"topic"`
	Steps      []Step    `json:"steps"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

// Status derives the run state from its steps. A failed step fails the run
// and all steps completed completes it. Anything else is running: a run
// exists only once it has been started, so even an all-pending snapshot
// describes a live pipeline.
func (r Run) Status() Status {
	allCompleted := len(r.Steps) > 0
	for _, step := range r.Steps {
		switch step.Status {
		case StatusFailed:
			return StatusFailed
		case StatusCompleted:
		default:
			allCompleted = false
		}
	}
	if allCompleted {
		return StatusCompleted
	}
	return StatusRunning
}

// StepByID returns the snapshot of the named step, if present.
func (r Run) StepByID(id StepID) (Step, bool) {
	for _, step := range r.Steps {
		if step.ID == id {
			return step, true
		}
	}
	return Step{}, false
}

// Clone returns a deep copy so callers can hold a snapshot without racing
// the orchestrator.
func (r Run) Clone() Run {
	out := r
	out.Steps = make([]Step, len(r.Steps))
	for i, step := range r.Steps {
		out.Steps[i] = step.clone()
	}
	return out
}

func (s Step) clone() Step {
	out := s
	out.Content = s.Content.clone()
	return out
}

func (c Content) clone() Content {
	out := c
	if c.List != nil {
		out.List = append([]string(nil), c.List...)
	}
	if c.Selection != nil {
		sel := Selection{
			Alternatives: append([]string(nil), c.Selection.Alternatives...),
			Chosen:       c.Selection.Chosen,
		}
		out.Selection = &sel
	}
	return out
}

func stepLabel(id StepID) string {
	switch id {
	case StepTitle:
		return "Title"
	case StepHooks:
		return "Hooks"
	case StepScript:
		return "Script"
	case StepDescription:
		return "Description"
	case StepTags:
		return "Tags"
	default:
		return string(id)
	}
}

func newRun(id, topic string, now time.Time) Run {
	steps := make([]Step, len(StepOrder))
	for i, stepID := range StepOrder {
		steps[i] = Step{
			ID:      stepID,
			Label:   stepLabel(stepID),
			Status:  StatusPending,
			Content: Content{Kind: ContentNone},
		}
	}
	return Run{ID: id, Topic: topic, Steps: steps, StartedAt: now}
}
