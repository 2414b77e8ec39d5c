// Package services defines shared utilities consumed by the workflow
// orchestrator and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run, step, and job identifiers for logging.
//   - Structured error markers plus the Wrap helper so failures classify
//     consistently (validation vs parse vs credential vs transient).
//
// Use these helpers when wiring new pipeline logic so error handling and
// observability stay uniform across components.
package services
