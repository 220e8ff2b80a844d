// Package config loads, normalizes, and validates voxpipe configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads a local .env file, and honours flat
// environment overrides such as MAX_SECONDS or WORKER_THREADS. The Config type
// centralizes every knob the daemon and CLI need so storage layout, pool sizing,
// and transcription prompts are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
