package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"clipforge/internal/config"
)

const userAgent = "Clipforge-Go/0.1.0"

// Service defines the notification surface exposed to the daemon.
type Service interface {
	NotifyRunCompleted(ctx context.Context, topic, title string) error
	NotifyRunFailed(ctx context.Context, topic, step, reason string) error
	NotifyVideoReady(ctx context.Context, prompt, artifactPath string) error
	NotifyVideoFailed(ctx context.Context, prompt, reason string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint: topic,
		client:   client,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, topic, title string) error {
	topic = strings.TrimSpace(topic)
	title = strings.TrimSpace(title)
	message := fmt.Sprintf("Content pack ready: %s", topic)
	if title != "" {
		message = fmt.Sprintf("%s\nTitle: %s", message, title)
	}
	data := payload{
		title:    "Clipforge - Run Complete",
		message:  message,
		tags:     []string{"clipforge", "workflow", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunFailed(ctx context.Context, topic, step, reason string) error {
	topic = strings.TrimSpace(topic)
	step = strings.TrimSpace(step)
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unknown"
	}
	message := fmt.Sprintf("Run failed for %q at step %s: %s", topic, step, reason)
	data := payload{
		title:    "Clipforge - Run Failed",
		message:  message,
		tags:     []string{"clipforge", "workflow", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyVideoReady(ctx context.Context, prompt, artifactPath string) error {
	prompt = strings.TrimSpace(prompt)
	artifactPath = strings.TrimSpace(artifactPath)
	message := fmt.Sprintf("Video ready: %s", prompt)
	if artifactPath != "" {
		message = fmt.Sprintf("%s\nFile: %s", message, artifactPath)
	}
	data := payload{
		title:   "Clipforge - Video Ready",
		message: message,
		tags:    []string{"clipforge", "video", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyVideoFailed(ctx context.Context, prompt, reason string) error {
	prompt = strings.TrimSpace(prompt)
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unknown"
	}
	data := payload{
		title:    "Clipforge - Video Failed",
		message:  fmt.Sprintf("Video generation failed for %q: %s", prompt, reason),
		tags:     []string{"clipforge", "video", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Clipforge - Test",
		message:  "Notification system test",
		tags:     []string{"clipforge", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRunCompleted(context.Context, string, string) error      { return nil }
func (noopService) NotifyRunFailed(context.Context, string, string, string) error { return nil }
func (noopService) NotifyVideoReady(context.Context, string, string) error        { return nil }
func (noopService) NotifyVideoFailed(context.Context, string, string) error       { return nil }
func (noopService) TestNotification(context.Context) error                        { return nil }
