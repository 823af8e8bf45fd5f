// Package translate provides the translation capability used to move
// vendor utterances into the extraction pivot language and agent replies
// back out. The production implementation rides the same model API as
// extraction; tests and monolingual deployments use the passthrough.
package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/mandi-setu/parchi-cli/pkg/anthropic"
)

// Client translates text between two language codes.
type Client interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

const translateSystemText = "You are a precise translator for agricultural trade conversations in Indian mandis. Preserve numbers, units, and commodity names exactly. Return only the translated text with no preamble or commentary."

const translatePrompt = `Translate the following text from %s to %s:

%s`

// LLMTranslator implements Client on top of the Anthropic messages API.
type LLMTranslator struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewLLMTranslator creates a translator using the given model.
func NewLLMTranslator(client anthropic.Client, model string, maxTokens int64) *LLMTranslator {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &LLMTranslator{client: client, model: model, maxTokens: maxTokens}
}

// Translate converts text from source to target. Identical source and
// target short-circuit without a model call.
func (t *LLMTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	if source == target || strings.TrimSpace(text) == "" {
		return text, nil
	}

	temp := 0.0
	resp, err := t.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       t.model,
		MaxTokens:   t.maxTokens,
		System:      translateSystemText,
		Temperature: &temp,
		Messages: []anthropic.Message{
			{Role: "user", Content: fmt.Sprintf(translatePrompt, source, target, text)},
		},
	})
	if err != nil {
		return "", eris.Wrapf(err, "translate: %s to %s", source, target)
	}
	resp.Usage.LogCost(t.model, "translate")

	out := strings.TrimSpace(resp.Text())
	if out == "" {
		return "", eris.Errorf("translate: empty response for %s to %s", source, target)
	}
	return out, nil
}

// Passthrough is a no-op translator for tests and single-language setups.
type Passthrough struct{}

// Translate returns the text unchanged.
func (Passthrough) Translate(ctx context.Context, text, source, target string) (string, error) {
	return text, nil
}

var (
	_ Client = (*LLMTranslator)(nil)
	_ Client = Passthrough{}
)
