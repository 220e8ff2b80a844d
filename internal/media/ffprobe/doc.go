// Package ffprobe wraps the ffprobe CLI.
//
// Duration runs the bare duration query used to reject over-long uploads
// before they reach the queue. Inspect decodes the full JSON report for the
// CLI probe command.
package ffprobe
