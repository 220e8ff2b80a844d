// Package logs reads the daemon log file for the CLI.
//
// Tail returns the last lines of the current log together with the byte offset
// reached, and Follow keeps reading from that offset as the daemon appends.
// Paths are resolved through the voxpipe.log pointer so a follower moves to the
// new file when the daemon restarts with a fresh run ID.
package logs
