// Package llm provides the OpenRouter-compatible chat completion client used
// by the content generators.
//
// The client speaks JSON mode only. It retries transient transport failures
// with capped exponential backoff (honoring Retry-After), surfaces refusals
// and empty completions as typed errors, and tolerates the common formatting
// quirks of model output (code fences, prose around the payload) when
// decoding.
package llm
