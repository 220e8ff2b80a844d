// Package language maps the language names and codes accepted in
// configuration to the ISO 639-1 codes both transcription backends expect.
package language
