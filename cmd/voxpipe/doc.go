// Command voxpipe runs the transcription daemon and provides the operator
// CLI around it.
//
// "voxpipe serve" runs the daemon in the foreground. "submit" uploads through
// the daemon's HTTP API. "jobs", "sweep", "logs", and the offline tools
// (classify, clean, probe) work against local storage and do not need a
// running daemon. "status" reports both.
package main
