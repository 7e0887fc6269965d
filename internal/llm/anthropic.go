package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
)

type AnthropicProvider struct {
	model   llms.Model
	timeout time.Duration
}

// NewAnthropicProvider creates a new Anthropic provider
func NewAnthropicProvider(apiKey, model string, timeout time.Duration) (*AnthropicProvider, error) {
	client, err := anthropic.New(
		anthropic.WithToken(apiKey),
		anthropic.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create anthropic client: %w", err)
	}
	return newAnthropicProvider(client, timeout), nil
}

func newAnthropicProvider(model llms.Model, timeout time.Duration) *AnthropicProvider {
	return &AnthropicProvider{
		model:   model,
		timeout: timeout,
	}
}

func (a *AnthropicProvider) Generate(ctx context.Context, request *LLMRequest) (*LLMResponse, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, request.Prompt),
	}

	resp, err := a.model.GenerateContent(ctx, messages,
		llms.WithMaxTokens(request.MaxTokens),
		llms.WithTemperature(request.Temperature),
	)
	if err != nil {
		return nil, fmt.Errorf("anthropic generate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("anthropic returned no choices")
	}

	choice := resp.Choices[0]
	return &LLMResponse{
		Content: choice.Content,
		Usage:   usageFromGenerationInfo(choice.GenerationInfo),
	}, nil
}

func usageFromGenerationInfo(info map[string]any) *Usage {
	in, inOK := info["InputTokens"].(int)
	out, outOK := info["OutputTokens"].(int)
	if !inOK && !outOK {
		return nil
	}
	return &Usage{InputTokens: in, OutputTokens: out}
}
