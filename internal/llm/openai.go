package llm

import (
	"context"
	"net/http"
	"strings"
)

// OpenAIGenerator talks to an OpenAI-compatible chat completions endpoint
// (SiliconFlow, DeepSeek, OpenAI itself).
type OpenAIGenerator struct {
	url    string
	apiKey string
	model  string
	client *http.Client
}

// NewOpenAIGenerator builds a generator. A nil client uses http.DefaultClient.
func NewOpenAIGenerator(url, apiKey, model string, client *http.Client) *OpenAIGenerator {
	if client == nil {
		client = http.DefaultClient
	}
	return &OpenAIGenerator{url: url, apiKey: apiKey, model: model, client: client}
}

type openAIRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate implements Generator.
func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if g.apiKey == "" {
		return "", ErrMissingAPIKey
	}
	body := openAIRequest{
		Model:       g.model,
		Messages:    chatMessages(req),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.JSON {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	var out openAIResponse
	headers := map[string]string{"Authorization": "Bearer " + g.apiKey}
	if err := postJSON(ctx, g.client, g.url, headers, body, &out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
