package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// CorrectionPrompt instructs the model to repair suspicious tokens in a
// Persian transcript without rewriting anything else.
const CorrectionPrompt = `You correct speech recognition mistakes in colloquial Persian (Farsi) transcripts.

You receive the transcript and a list of suspicious tokens. For each suspicious token that is clearly a recognition error, propose the intended colloquial Persian word.

Rules:

- Only propose replacements for tokens in the suspicious list.
- A replacement must be a single Persian word written in Persian letters (a zero-width non-joiner is allowed).
- Keep the speaker's colloquial register; do not formalize.
- Leave out tokens you are unsure about.

You must respond ONLY with a JSON object like: {"corrections": {"suspicious token": "replacement"}}`

type correctionRequest struct {
	Transcript string   `json:"transcript"`
	Suspicious []string `json:"suspicious"`
}

type correctionResponse struct {
	Corrections map[string]string `json:"corrections"`
}

// SuggestCorrections asks the model for replacements of the suspect tokens
// found in text. Suggestions for tokens outside suspects are dropped.
func (c *Client) SuggestCorrections(ctx context.Context, text string, suspects []string) (map[string]string, error) {
	text = strings.TrimSpace(text)
	if text == "" || len(suspects) == 0 {
		return map[string]string{}, nil
	}
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return nil, errors.New("llm correct: api key required")
	}
	user, err := json.Marshal(correctionRequest{Transcript: text, Suspicious: suspects})
	if err != nil {
		return nil, fmt.Errorf("llm correct: encode request: %w", err)
	}
	content, err := c.CompleteJSON(ctx, CorrectionPrompt, string(user))
	if err != nil {
		return nil, err
	}
	var parsed correctionResponse
	if err := DecodeLLMJSON(content, &parsed); err != nil {
		return nil, fmt.Errorf("llm correct: parse payload: %w", err)
	}

	allowed := make(map[string]struct{}, len(suspects))
	for _, s := range suspects {
		allowed[s] = struct{}{}
	}
	out := make(map[string]string, len(parsed.Corrections))
	for token, replacement := range parsed.Corrections {
		if _, ok := allowed[token]; !ok {
			continue
		}
		if replacement = strings.TrimSpace(replacement); replacement != "" {
			out[token] = replacement
		}
	}
	return out, nil
}
