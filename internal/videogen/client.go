package videogen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultHTTPTimeout = 120 * time.Second

// Config captures the runtime settings for the video generation API.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// Client talks to a Gemini-style long-running video generation API. A
// started operation is polled by name until it reports done, then the
// generated sample is downloaded from its locator URI.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// ClientOption customizes the client.
type ClientOption func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a video backend client using the supplied configuration.
func NewClient(cfg Config, opts ...ClientOption) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Model:          strings.TrimSpace(cfg.Model),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	return client
}

type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("video request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// Start submits a generation request and returns the operation handle.
func (c *Client) Start(ctx context.Context, prompt string) (OperationHandle, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return OperationHandle{}, errors.New("video start: prompt required")
	}
	if c.cfg.APIKey == "" {
		return OperationHandle{}, errors.New("video start: api key required")
	}

	payload := struct {
		Instances []struct {
			Prompt string `json:"prompt"`
		} `json:"instances"`
	}{Instances: []struct {
		Prompt string `json:"prompt"`
	}{{Prompt: prompt}}}

	endpoint := fmt.Sprintf("%s/models/%s:predictLongRunning", c.cfg.BaseURL, c.cfg.Model)
	body, err := c.doJSON(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return OperationHandle{}, err
	}

	var parsed struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return OperationHandle{}, fmt.Errorf("video start: decode response: %w", err)
	}
	if strings.TrimSpace(parsed.Name) == "" {
		return OperationHandle{}, errors.New("video start: response missing operation name")
	}
	return OperationHandle{Name: parsed.Name}, nil
}

// Poll reads the current state of an operation.
func (c *Client) Poll(ctx context.Context, handle OperationHandle) (OperationStatus, error) {
	if strings.TrimSpace(handle.Name) == "" {
		return OperationStatus{}, errors.New("video poll: operation name required")
	}

	endpoint := fmt.Sprintf("%s/%s", c.cfg.BaseURL, strings.TrimLeft(handle.Name, "/"))
	body, err := c.doJSON(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return OperationStatus{}, err
	}

	var parsed struct {
		Done  bool `json:"done"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		Response struct {
			GenerateVideoResponse struct {
				GeneratedSamples []struct {
					Video struct {
						URI string `json:"uri"`
					} `json:"video"`
				} `json:"generatedSamples"`
			} `json:"generateVideoResponse"`
		} `json:"response"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return OperationStatus{}, fmt.Errorf("video poll: decode response: %w", err)
	}
	if parsed.Error != nil {
		return OperationStatus{}, fmt.Errorf("video poll: operation error %d: %s", parsed.Error.Code, strings.TrimSpace(parsed.Error.Message))
	}

	status := OperationStatus{Done: parsed.Done}
	if samples := parsed.Response.GenerateVideoResponse.GeneratedSamples; len(samples) > 0 {
		status.ResultURI = strings.TrimSpace(samples[0].Video.URI)
	}
	return status, nil
}

// Fetch streams the generated artifact from its locator.
func (c *Client) Fetch(ctx context.Context, locator string) (io.ReadCloser, error) {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return nil, errors.New("video fetch: locator required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, fmt.Errorf("video fetch: new request: %w", err)
	}
	req.Header.Set("X-Goog-Api-Key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("video fetch: http error: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		resp.Body.Close()
		return nil, &httpStatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return resp.Body, nil
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, payload any) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("video request: encode body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("video request: new request: %w", err)
	}
	req.Header.Set("X-Goog-Api-Key", c.cfg.APIKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("video request: http error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("video request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &httpStatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}

// isCredentialError reports whether an error from the backend indicates the
// credentials are bad and further polling cannot succeed.
func isCredentialError(err error) bool {
	if err == nil {
		return false
	}
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		if statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusForbidden {
			return true
		}
	}
	message := strings.ToLower(err.Error())
	for _, signature := range []string{"api key", "unauthorized", "expired", "permission denied"} {
		if strings.Contains(message, signature) {
			return true
		}
	}
	return false
}
