// Package llm provides an OpenRouter chat client used for optional transcript
// correction.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.CompleteJSON: send system/user prompts, receive a JSON response.
// Client.SuggestCorrections: ask for replacements of suspicious transcript tokens.
// Client.HealthCheck: verify API key and model availability.
//
// # Retry Behaviour
//
// Requests are retried with cenkalti/backoff on HTTP 408/429/5xx, empty
// completions and network timeouts (exponential, base 1s, max 10s, up to 5
// attempts by default). A Retry-After header overrides the next delay.
// Context cancellation aborts retries immediately.
//
// # Fallback
//
// Callers treat any error as "no corrections" and keep the deterministic
// transcript.
package llm
