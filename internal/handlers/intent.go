package handlers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/avvvet/tablebuddy/internal/llm"
	"github.com/avvvet/tablebuddy/internal/metrics"
	"github.com/avvvet/tablebuddy/internal/models"
	"github.com/avvvet/tablebuddy/internal/prompts"
)

// IntentClassifier turns an utterance into an intent and entities using an
// LLM. It never fails: any provider or parse error yields the unknown intent.
type IntentClassifier struct {
	provider llm.Provider
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewIntentClassifier creates a new intent classifier
func NewIntentClassifier(provider llm.Provider, logger *zap.Logger, m *metrics.Metrics) *IntentClassifier {
	return &IntentClassifier{
		provider: provider,
		logger:   logger,
		metrics:  m,
	}
}

func (c *IntentClassifier) Classify(ctx context.Context, utterance string, today time.Time) models.IntentResult {
	request := &llm.LLMRequest{
		Prompt:      prompts.BuildClassifierPrompt(utterance, today),
		MaxTokens:   300,
		Temperature: 0.1, // Low temperature for consistent responses
	}

	response, err := c.provider.Generate(ctx, request)
	if err != nil {
		c.logger.Warn("classifier call failed", zap.Error(err))
		c.metrics.ObserveClassifierFallback()
		return models.UnknownResult()
	}

	if u := response.Usage; u != nil {
		c.metrics.ObserveTokens(u.InputTokens, u.OutputTokens)
		c.logger.Debug("classifier usage",
			zap.Int("input_tokens", u.InputTokens),
			zap.Int("output_tokens", u.OutputTokens))
	}

	result, err := prompts.ParseLLMResponse(response.Content)
	if err != nil {
		c.logger.Warn("failed to parse classifier response",
			zap.Error(err),
			zap.String("content", response.Content))
		c.metrics.ObserveClassifierFallback()
		return models.UnknownResult()
	}

	c.logger.Debug("utterance classified",
		zap.String("intent", string(result.Intent)),
		zap.Any("entities", result.Entities))

	return result
}
