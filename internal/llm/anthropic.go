package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicGenerator uses the Anthropic Messages API.
type AnthropicGenerator struct {
	client  anthropic.Client
	model   string
	hasKey  bool
	timeout time.Duration
}

// NewAnthropicGenerator builds a generator. Extra options (e.g.
// option.WithBaseURL) are passed to the SDK client.
func NewAnthropicGenerator(apiKey, model string, timeout time.Duration, opts ...option.RequestOption) *AnthropicGenerator {
	all := append([]option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(1)}, opts...)
	return &AnthropicGenerator{
		client:  anthropic.NewClient(all...),
		model:   model,
		hasKey:  apiKey != "",
		timeout: timeout,
	}
}

// Generate implements Generator. The Messages API has no JSON mode, so the
// caller's prompt must ask for JSON and the reply is trimmed to the object.
func (g *AnthropicGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if !g.hasKey {
		return "", ErrMissingAPIKey
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 256
	}
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(g.model),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(clampTemperature(req.Temperature)),
		Messages:    make([]anthropic.MessageParam, 0, len(req.Messages)),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	for _, m := range req.Messages {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == RoleAssistant {
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(block))
		} else {
			params.Messages = append(params.Messages, anthropic.NewUserMessage(block))
		}
	}

	msg, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("llm: anthropic: %w", err)
	}

	var b strings.Builder
	for _, c := range msg.Content {
		b.WriteString(c.Text)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	if req.JSON {
		if obj, err := ExtractJSON(text); err == nil {
			return obj, nil
		}
	}
	return text, nil
}

// Anthropic accepts temperatures in [0,1].
func clampTemperature(t float64) float64 {
	switch {
	case t < 0:
		return 0
	case t > 1:
		return 1
	}
	return t
}
