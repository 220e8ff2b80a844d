package textclean

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"voxpipe/internal/config"
	"voxpipe/internal/logging"
	"voxpipe/internal/services/llm"
)

// Corrector proposes replacements for suspicious tokens.
type Corrector interface {
	SuggestCorrections(ctx context.Context, text string, suspects []string) (map[string]string, error)
}

// Cleaner runs the deterministic pass and the optional corrector.
type Cleaner struct {
	corrector Corrector
	logger    *slog.Logger
}

// Option customizes a Cleaner.
type Option func(*Cleaner)

// WithCorrector enables the correction stage.
func WithCorrector(c Corrector) Option {
	return func(cl *Cleaner) {
		cl.corrector = c
	}
}

// New constructs a Cleaner.
func New(logger *slog.Logger, opts ...Option) *Cleaner {
	c := &Cleaner{logger: logging.NewComponentLogger(logger, "textclean")}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig wires the LLM corrector when text.use_correction is set.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) *Cleaner {
	if cfg == nil || !cfg.Text.UseCorrection {
		return New(logger)
	}
	llmCfg := cfg.GetLLM()
	client := llm.NewClient(llm.Config{
		APIKey:         llmCfg.APIKey,
		BaseURL:        llmCfg.BaseURL,
		Model:          llmCfg.Model,
		Referer:        llmCfg.Referer,
		Title:          llmCfg.Title,
		TimeoutSeconds: llmCfg.TimeoutSeconds,
	})
	return New(logger, WithCorrector(client))
}

// CorrectionEnabled reports whether a corrector is configured.
func (c *Cleaner) CorrectionEnabled() bool {
	return c.corrector != nil
}

// Clean returns the cleaned transcript. Only context cancellation is
// reported as an error.
func (c *Cleaner) Clean(ctx context.Context, raw string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text := CleanText(raw)
	if c.corrector == nil || text == "" {
		return text, nil
	}

	suspects := SuspectTokens(text)
	if len(suspects) == 0 {
		return text, nil
	}
	logger := logging.WithContext(ctx, c.logger)
	suggestions, err := c.corrector.SuggestCorrections(ctx, text, suspects)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		logging.WarnWithContext(logger, "transcript correction failed; keeping deterministic text", "correction_failed",
			logging.Error(err),
			logging.Int("suspects", len(suspects)),
			logging.String(logging.FieldImpact, "low quality tokens remain uncorrected"),
		)
		return text, nil
	}

	applied := 0
	tokens := strings.Fields(text)
	for i, tok := range tokens {
		repl, ok := suggestions[tok]
		if !ok || !acceptableReplacement(tok, repl) {
			continue
		}
		tokens[i] = repl
		applied++
	}
	logger.Debug("transcript correction applied",
		logging.Int("suspects", len(suspects)),
		logging.Int("applied", applied),
	)
	return CleanText(strings.Join(tokens, " ")), nil
}

func acceptableReplacement(tok, repl string) bool {
	n := utf8.RuneCountInString(repl)
	if n < 1 || n > max(8, utf8.RuneCountInString(tok)+2) {
		return false
	}
	for _, r := range repl {
		if !isPersianLetter(r) && r != '\u200c' {
			return false
		}
	}
	return true
}

// CleanText is the deterministic cleaning pass, iterated until stable.
func CleanText(raw string) string {
	text := cleanOnce(raw)
	for i := 0; i < maxPasses; i++ {
		next := cleanOnce(text)
		if next == text {
			break
		}
		text = next
	}
	return text
}

func cleanOnce(raw string) string {
	text := Normalize(raw)
	if text == "" {
		return ""
	}
	text = splitClitics(text)
	tokens := replaceConfusions(strings.Fields(text))
	return strings.Join(strings.Fields(strings.Join(tokens, " ")), " ")
}

// SuspectTokens lists distinct low quality tokens in order of appearance.
func SuspectTokens(text string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, tok := range strings.Fields(text) {
		if !IsLowQuality(tok) {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}
