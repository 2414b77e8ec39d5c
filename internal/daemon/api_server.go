package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"clipforge/internal/logging"
	"clipforge/internal/logs"
	"clipforge/internal/progress"
	"clipforge/internal/services"
	"clipforge/internal/videogen"
	"clipforge/internal/workflow"
)

const sseKeepAliveInterval = 15 * time.Second

// controller is the slice of the daemon the HTTP surface needs.
type controller interface {
	StartWorkflow(topic string) (workflow.Run, error)
	WorkflowSnapshot() (workflow.Run, bool)
	StartVideo(prompt string) (videogen.Job, error)
	VideoSnapshot() (videogen.Job, bool)
	CancelVideo()
	Status() Status
}

type apiServer struct {
	bind    string
	token   string
	logger  *slog.Logger
	ctrl    controller
	hub     *progress.Hub
	logPath string

	listener net.Listener
	server   *http.Server
}

func newAPIServer(bind, token string, logger *slog.Logger, ctrl controller, hub *progress.Hub, logPath string) *apiServer {
	srv := &apiServer{
		bind:    strings.TrimSpace(bind),
		token:   strings.TrimSpace(token),
		logger:  logging.NewComponentLogger(logger, "api-server"),
		ctrl:    ctrl,
		hub:     hub,
		logPath: logPath,
	}
	srv.server = &http.Server{
		Handler:           srv.router(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) router() http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Post("/workflows", s.handleStartWorkflow)
		r.Get("/workflows/current", s.handleWorkflowSnapshot)
		r.Get("/workflows/current/events", s.handleEvents)
		r.Post("/videos", s.handleStartVideo)
		r.Get("/videos/current", s.handleVideoSnapshot)
		r.Delete("/videos/current", s.handleCancelVideo)
		r.Get("/status", s.handleStatus)
		r.Get("/logs", s.handleLogs)
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func (s *apiServer) start(ctx context.Context) error {
	if s.bind == "" {
		return errors.New("api bind address required")
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

type startWorkflowRequest struct {
	Topic string `json:"topic"`
}

type runResponse struct {
	Run    workflow.Run    `json:"run"`
	Status workflow.Status `json:"status"`
}

func (s *apiServer) handleStartWorkflow(w http.ResponseWriter, r *http.Request) {
	var req startWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	prior, hadPrior := s.ctrl.WorkflowSnapshot()
	run, err := s.ctrl.StartWorkflow(req.Topic)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			s.writeError(w, http.StatusBadRequest, services.Message(err))
			return
		}
		s.writeError(w, http.StatusInternalServerError, services.Message(err))
		return
	}

	status := http.StatusAccepted
	if hadPrior && prior.ID == run.ID {
		status = http.StatusOK
	}
	s.writeJSON(w, status, runResponse{Run: run, Status: run.Status()})
}

func (s *apiServer) handleWorkflowSnapshot(w http.ResponseWriter, r *http.Request) {
	run, ok := s.ctrl.WorkflowSnapshot()
	if !ok {
		s.writeError(w, http.StatusNotFound, "no workflow run yet")
		return
	}
	s.writeJSON(w, http.StatusOK, runResponse{Run: run, Status: run.Status()})
}

// handleEvents streams progress updates as server-sent events. The current
// workflow snapshot is sent first so a reconnecting browser does not miss
// state that changed while it was away.
func (s *apiServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	events, cancel := s.hub.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if run, ok := s.ctrl.WorkflowSnapshot(); ok {
		s.writeSSE(w, "snapshot", runResponse{Run: run, Status: run.Status()})
	}
	flusher.Flush()

	keepAlive := time.NewTicker(sseKeepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case event, open := <-events:
			if !open {
				return
			}
			s.writeSSE(w, string(event.Kind), event)
			flusher.Flush()
		}
	}
}

func (s *apiServer) writeSSE(w http.ResponseWriter, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("failed to encode event", logging.Error(err))
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}

type startVideoRequest struct {
	Prompt string `json:"prompt"`
}

func (s *apiServer) handleStartVideo(w http.ResponseWriter, r *http.Request) {
	var req startVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	job, err := s.ctrl.StartVideo(req.Prompt)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			s.writeError(w, http.StatusBadRequest, services.Message(err))
			return
		}
		s.writeError(w, http.StatusInternalServerError, services.Message(err))
		return
	}
	s.writeJSON(w, http.StatusAccepted, job)
}

func (s *apiServer) handleVideoSnapshot(w http.ResponseWriter, r *http.Request) {
	job, ok := s.ctrl.VideoSnapshot()
	if !ok {
		s.writeError(w, http.StatusNotFound, "no video job yet")
		return
	}
	s.writeJSON(w, http.StatusOK, job)
}

func (s *apiServer) handleCancelVideo(w http.ResponseWriter, r *http.Request) {
	s.ctrl.CancelVideo()
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.ctrl.Status())
}

const (
	defaultLogLimit = 50
	maxLogFollow    = 25 * time.Second
)

// handleLogs serves incremental reads of the daemon log file. follow=1
// holds the request open until new lines arrive or the follow window
// elapses, which lets clients long-poll without a persistent stream.
func (s *apiServer) handleLogs(w http.ResponseWriter, r *http.Request) {
	if s.logPath == "" {
		s.writeError(w, http.StatusNotFound, "log file not configured")
		return
	}

	opts := logs.Options{Offset: -1, Limit: defaultLogLimit}
	query := r.URL.Query()
	if raw := query.Get("offset"); raw != "" {
		offset, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		opts.Offset = offset
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			s.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		opts.Limit = limit
	}
	if query.Get("follow") == "1" && opts.Offset >= 0 {
		opts.Wait = maxLogFollow
	}

	result, err := logs.Tail(r.Context(), s.logPath, opts)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.writeError(w, http.StatusInternalServerError, "log read failed")
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
