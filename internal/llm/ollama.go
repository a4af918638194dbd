package llm

import (
	"context"
	"net/http"
	"strings"
)

// OllamaGenerator talks to a local Ollama /api/chat endpoint.
type OllamaGenerator struct {
	url    string
	model  string
	client *http.Client
}

// NewOllamaGenerator builds a generator. A nil client uses http.DefaultClient.
func NewOllamaGenerator(url, model string, client *http.Client) *OllamaGenerator {
	if client == nil {
		client = http.DefaultClient
	}
	return &OllamaGenerator{url: url, model: model, client: client}
}

type ollamaRequest struct {
	Model    string        `json:"model"`
	Messages []Message     `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
	Options  ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

// Generate implements Generator.
func (g *OllamaGenerator) Generate(ctx context.Context, req Request) (string, error) {
	body := ollamaRequest{
		Model:    g.model,
		Messages: chatMessages(req),
		Options: ollamaOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		},
	}
	if req.JSON {
		body.Format = "json"
	}

	var out ollamaResponse
	if err := postJSON(ctx, g.client, g.url, nil, body, &out); err != nil {
		return "", err
	}
	text := strings.TrimSpace(out.Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
