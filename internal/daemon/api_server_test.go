package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"clipforge/internal/logs"
	"clipforge/internal/progress"
	"clipforge/internal/services"
	"clipforge/internal/videogen"
	"clipforge/internal/workflow"
)

type fakeController struct {
	run       workflow.Run
	hasRun    bool
	startErr  error
	job       videogen.Job
	hasJob    bool
	jobErr    error
	cancelled bool

	startedTopics []string
}

func (f *fakeController) StartWorkflow(topic string) (workflow.Run, error) {
	if f.startErr != nil {
		return workflow.Run{}, f.startErr
	}
	f.startedTopics = append(f.startedTopics, topic)
	return f.run, nil
}

func (f *fakeController) WorkflowSnapshot() (workflow.Run, bool) {
	return f.run, f.hasRun
}

func (f *fakeController) StartVideo(prompt string) (videogen.Job, error) {
	if f.jobErr != nil {
		return videogen.Job{}, f.jobErr
	}
	return f.job, nil
}

func (f *fakeController) VideoSnapshot() (videogen.Job, bool) {
	return f.job, f.hasJob
}

func (f *fakeController) CancelVideo() {
	f.cancelled = true
}

func (f *fakeController) Status() Status {
	return Status{Running: true, LockFilePath: "/tmp/test.lock"}
}

func newTestServer(t *testing.T, ctrl *fakeController, token string) *apiServer {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "clipforge.log")
	return newAPIServer("127.0.0.1:0", token, nil, ctrl, progress.NewHub(nil), logPath)
}

func TestStartWorkflowAcceptsNewTopic(t *testing.T) {
	ctrl := &fakeController{
		run: workflow.Run{ID: "run-1", Topic: "climbing"},
	}
	srv := newTestServer(t, ctrl, "")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/workflows", strings.NewReader(`{"topic":"climbing"}`))
	srv.router().ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202 (%s)", rec.Code, rec.Body.String())
	}
	var payload runResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Run.ID != "run-1" {
		t.Fatalf("run id = %q", payload.Run.ID)
	}
}

func TestStartWorkflowDuplicateTopicReturnsOK(t *testing.T) {
	ctrl := &fakeController{
		run:    workflow.Run{ID: "run-1", Topic: "climbing"},
		hasRun: true,
	}
	srv := newTestServer(t, ctrl, "")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/workflows", strings.NewReader(`{"topic":"climbing"}`))
	srv.router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for duplicate topic", rec.Code)
	}
}

func TestStartWorkflowEmptyTopicIsBadRequest(t *testing.T) {
	ctrl := &fakeController{
		startErr: services.Wrap(services.ErrValidation, "workflow", "start", "topic must not be empty", nil),
	}
	srv := newTestServer(t, ctrl, "")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/workflows", strings.NewReader(`{"topic":""}`))
	srv.router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "topic must not be empty") {
		t.Fatalf("error message missing: %s", rec.Body.String())
	}
}

func TestWorkflowSnapshotWithoutRunIs404(t *testing.T) {
	srv := newTestServer(t, &fakeController{}, "")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/workflows/current", nil)
	srv.router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestBearerTokenGuardsAPIRoutes(t *testing.T) {
	srv := newTestServer(t, &fakeController{}, "secret-token")
	router := srv.router()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status without token = %d, want 401", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status with token = %d, want 200", rec.Code)
	}

	// Metrics stay reachable without credentials for scrapers.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d, want 200", rec.Code)
	}
}

func TestCancelVideoReturnsNoContent(t *testing.T) {
	ctrl := &fakeController{}
	srv := newTestServer(t, ctrl, "")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/videos/current", nil)
	srv.router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if !ctrl.cancelled {
		t.Fatal("cancel was not forwarded to the controller")
	}
}

func TestLogsEndpointReturnsTailAndOffset(t *testing.T) {
	srv := newTestServer(t, &fakeController{}, "")
	if err := os.WriteFile(srv.logPath, []byte("one\ntwo\nthree\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/logs?offset=-1&limit=2", nil)
	srv.router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
	var payload logs.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Lines) != 2 || payload.Lines[0] != "two" || payload.Lines[1] != "three" {
		t.Fatalf("unexpected lines: %#v", payload.Lines)
	}
	if payload.Offset == 0 {
		t.Fatal("expected a resume offset")
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/logs?offset=bogus", nil)
	srv.router().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status for bad offset = %d, want 400", rec.Code)
	}
}

func TestEventsStreamDeliversHubUpdates(t *testing.T) {
	ctrl := &fakeController{}
	hub := progress.NewHub(nil)
	srv := newAPIServer("127.0.0.1:0", "", nil, ctrl, hub, filepath.Join(t.TempDir(), "clipforge.log"))

	httpSrv := httptest.NewServer(srv.router())
	defer httpSrv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, httpSrv.URL+"/api/workflows/current/events", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("open event stream: %v", err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("content type = %q", got)
	}

	// Give the handler time to subscribe before publishing.
	deadline := time.After(2 * time.Second)
	for hub.SubscriberCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("handler never subscribed")
		case <-time.After(5 * time.Millisecond):
		}
	}

	hub.WorkflowSink().HandleStepUpdate(workflow.StepUpdate{
		RunID: "run-9",
		Step:  workflow.Step{ID: workflow.StepTitle, Status: workflow.StatusRunning},
	})

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: ") && strings.Contains(line, "run-9") {
			return
		}
	}
	t.Fatalf("event never arrived: %v", scanner.Err())
}
