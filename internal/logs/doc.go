// Package logs reads the daemon log file incrementally and exposes an
// HTTP client for the daemon's log endpoint. Offsets are plain byte
// positions so callers can resume a tail across requests.
package logs
