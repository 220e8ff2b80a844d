// Package daemon coordinates the long-running voxpipe process.
//
// It wires configuration, job storage, the worker pool, and the retention
// sweeper into a single lifecycle with flock-based locking to prevent
// multiple instances. Startup runs recovery before the pool begins
// dequeuing, so jobs interrupted by a crash restart from the beginning.
//
// The daemon also owns the HTTP API: uploads are streamed into storage,
// admitted to the pool, and then observed by polling the job record.
//
// Keep orchestration logic here: individual pipeline stages live in
// workflow and the adapter packages while the daemon focuses on startup,
// shutdown, and admission.
package daemon
