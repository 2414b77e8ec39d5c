package workflow

import "testing"

func TestRunStatusDerivation(t *testing.T) {
	steps := func(statuses ...Status) []Step {
		out := make([]Step, len(statuses))
		for i, status := range statuses {
			out[i] = Step{ID: StepOrder[i], Status: status}
		}
		return out
	}

	cases := []struct {
		name  string
		steps []Step
		want  Status
	}{
		{"all pending means live run", steps(StatusPending, StatusPending, StatusPending), StatusRunning},
		{"step in flight", steps(StatusCompleted, StatusRunning, StatusPending), StatusRunning},
		{"selecting counts as in flight", steps(StatusSelecting, StatusPending), StatusRunning},
		{"all completed", steps(StatusCompleted, StatusCompleted), StatusCompleted},
		{"any failure wins", steps(StatusCompleted, StatusFailed, StatusPending), StatusFailed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			run := Run{ID: "run-1", Topic: "topic", Steps: tc.steps}
			if got := run.Status(); got != tc.want {
				t.Fatalf("status = %s, want %s", got, tc.want)
			}
		})
	}
}
