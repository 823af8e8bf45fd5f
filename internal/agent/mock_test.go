package agent

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/mandi-setu/parchi-cli/pkg/anthropic"
	"github.com/mandi-setu/parchi-cli/pkg/translate"
)

// --- Anthropic Mock ---

type mockAnthropicClient struct {
	mock.Mock
}

func (m *mockAnthropicClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

// --- Translator Mock ---

type mockTranslator struct {
	mock.Mock
}

func (m *mockTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	args := m.Called(ctx, text, source, target)
	return args.String(0), args.Error(1)
}

// --- Ensure interface compliance ---
var (
	_ anthropic.Client = (*mockAnthropicClient)(nil)
	_ translate.Client = (*mockTranslator)(nil)
)

// textResponse wraps a JSON payload the way the model returns it.
func textResponse(payload string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: payload}},
		Usage:   anthropic.TokenUsage{InputTokens: 200, OutputTokens: 50},
	}
}
