// Package logging builds the slog loggers used across Clipforge.
//
// It provides a human-readable console handler and a JSON handler selected by
// config, typed attribute helpers so call sites stay terse, and context
// helpers that stamp run, step, and job identifiers onto every record emitted
// while a pipeline or video job is in flight.
package logging
