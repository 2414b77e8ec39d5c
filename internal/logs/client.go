package logs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// ErrUnavailable marks fetch failures caused by an unreachable daemon.
var ErrUnavailable = errors.New("log API unavailable")

// Query selects which lines a Fetch call asks the daemon for.
type Query struct {
	Offset int64
	Limit  int
	Follow bool
}

// Client fetches log lines over the daemon HTTP API.
type Client struct {
	base  *url.URL
	token string
	http  *http.Client
}

// NewClient builds a client for the daemon at bind (host:port or URL).
func NewClient(bind, token string) (*Client, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, errors.New("daemon bind address is empty")
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	base, err := url.Parse(bind)
	if err != nil {
		return nil, fmt.Errorf("parse daemon address: %w", err)
	}
	base.Path = ""
	base.RawQuery = ""

	return &Client{
		base:  base,
		token: token,
		// No timeout. Follow mode blocks server-side until lines appear
		// or the caller cancels.
		http: &http.Client{},
	}, nil
}

// Fetch retrieves log lines from the daemon.
func (c *Client) Fetch(ctx context.Context, q Query) (Result, error) {
	values := url.Values{}
	values.Set("offset", strconv.FormatInt(q.Offset, 10))
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Follow {
		values.Set("follow", "1")
	}

	endpoint := c.base.ResolveReference(&url.URL{Path: "/api/logs", RawQuery: values.Encode()})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if isConnectionError(err) {
			return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return Result{}, fmt.Errorf("log endpoint returned status %d", resp.StatusCode)
	}

	var payload Result
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Result{}, fmt.Errorf("decode log response: %w", err)
	}
	return payload, nil
}

func isConnectionError(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
