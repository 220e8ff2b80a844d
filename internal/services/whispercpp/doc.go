// Package whispercpp wraps the whisper.cpp command line tool as the secondary
// transcription backend. The model may be a file or a directory holding
// .bin/.gguf models; the first model in name order is used.
package whispercpp
