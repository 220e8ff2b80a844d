// Package textclean normalizes raw Persian transcripts.
//
// The deterministic pass unifies Arabic letter variants, strips diacritics and
// tatweel, drops conversational fillers, splits attached colloquial clitics
// and repairs common recognition confusions. It is iterated to a fixed point,
// so cleaning an already cleaned text is a no-op.
//
// A Corrector may be plugged in to repair tokens the deterministic pass flags
// as low quality. Corrector failures never fail the clean; the deterministic
// result is kept.
package textclean
