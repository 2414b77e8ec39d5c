// Package preflight validates the runtime environment before the daemon or
// an inline CLI run starts doing real work.
package preflight
