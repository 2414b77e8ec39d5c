// Package daemon runs the background service behind the browser UI. It
// wires the content pipeline, the video job poller, and the progress hub
// together, enforces single-instance execution through a lock file, and
// serves the HTTP API including the server-sent event stream and
// Prometheus metrics.
package daemon
