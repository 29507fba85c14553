package rewrite

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
)

// Prompt contract: exact meaning preserved, every sentence rephrased, fixed
// word-count target, no framing text in the reply.
const (
	systemPrompt = "Tu tarea es reescribir texto manteniendo el significado exacto. " +
		"No debes agregar ni quitar información."
	userPromptHeader = "Reescribe cada oracion del siguiente texto con otras palabras, " +
		"manteniendo el significado, mensaje y no alterando la informacion presentada. " +
		"usa entre 650 y 700 palabras. " +
		"Responde unicamente con el texto reescrito siguiendo las indicaciones.\n\n"
)

// AnthropicConfig holds Messages API settings for chunk rewriting.
type AnthropicConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// AnthropicRewriter implements ChunkRewriter on the Anthropic Messages API.
type AnthropicRewriter struct {
	client anthropic.Client
	cfg    AnthropicConfig
	logger *zap.Logger
}

// NewAnthropicRewriter creates a chunk rewriter for the configured model.
func NewAnthropicRewriter(cfg AnthropicConfig, logger *zap.Logger) (*AnthropicRewriter, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("anthropic: api key is required")
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4000
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnthropicRewriter{
		client: anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		cfg:    cfg,
		logger: logger,
	}, nil
}

// RewriteChunk sends one chunk under the fixed prompt contract and returns
// the first content block of the reply.
func (a *AnthropicRewriter) RewriteChunk(ctx context.Context, chunk string) (string, error) {
	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(a.cfg.Model),
		MaxTokens:   int64(a.cfg.MaxTokens),
		Temperature: anthropic.Float(a.cfg.Temperature),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPromptHeader + chunk)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic message: %w", err)
	}
	if msg == nil || len(msg.Content) == 0 {
		return "", errors.New("anthropic message: no content")
	}
	text := msg.Content[0].Text
	if strings.TrimSpace(text) == "" {
		return "", errors.New("anthropic message: empty text block")
	}

	a.logger.Debug("chunk rewritten", zap.Int("in_chars", len(chunk)), zap.Int("out_chars", len(text)))
	return text, nil
}
