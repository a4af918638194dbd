// Package llm wraps the text-generation backends used by crafting and the
// guess game behind a single Generator capability. Prompt construction lives
// with the callers; backends only transport a Request and return the reply
// text.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Flint2004/infinite-crafting/internal/config"
)

var (
	// ErrMissingAPIKey is returned when a remote backend has no credential.
	ErrMissingAPIKey = errors.New("llm: missing api key")
	// ErrEmptyResponse is returned when the model replied with no text.
	ErrEmptyResponse = errors.New("llm: empty response")
	// ErrNoJSON is returned by ExtractJSON when the text holds no object.
	ErrNoJSON = errors.New("llm: no json object in response")
)

// Roles accepted in Message.Role.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a backend-agnostic generation request. JSON asks the backend
// to constrain output to a JSON object where it supports that.
type Request struct {
	System      string
	Messages    []Message
	JSON        bool
	Temperature float64
	MaxTokens   int
}

// Generator produces a completion for a Request.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// New returns the backend selected by cfg.Mode.
func New(cfg config.AIConfig) (Generator, error) {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	switch cfg.Mode {
	case config.AIModeAPI, "":
		return NewOpenAIGenerator(cfg.APIURL, cfg.APIKey, cfg.ModelName(), httpClient), nil
	case config.AIModeLocal:
		return NewOllamaGenerator(cfg.LocalURL, cfg.ModelName(), httpClient), nil
	case config.AIModeAnthropic:
		return NewAnthropicGenerator(cfg.AnthropicKey, cfg.ModelName(), cfg.Timeout), nil
	}
	return nil, fmt.Errorf("llm: unknown mode %q", cfg.Mode)
}

// ExtractJSON returns the substring from the first '{' to the last '}'.
func ExtractJSON(s string) (string, error) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return "", ErrNoJSON
	}
	return s[start : end+1], nil
}

// HTTPError is a non-2xx reply from a backend.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("llm: http %d: %s", e.StatusCode, e.Body)
}

const maxErrorBody = 512

// postJSON sends body as JSON and decodes a 2xx reply into out.
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, body, out any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return fmt.Errorf("llm: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return fmt.Errorf("llm: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("llm: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("llm: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := string(raw)
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody] + "..."
		}
		return &HTTPError{StatusCode: resp.StatusCode, Body: msg}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("llm: decode response: %w", err)
	}
	return nil
}

// chatMessages prepends the system prompt as a chat turn.
func chatMessages(req Request) []Message {
	msgs := make([]Message, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, Message{Role: "system", Content: req.System})
	}
	return append(msgs, req.Messages...)
}
