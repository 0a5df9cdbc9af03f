// internal/ai/llm.go
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultCompletionsURL = "https://api.openai.com/v1/chat/completions"

// LLMConfig configures the chat-completions backend.
type LLMConfig struct {
	URL        string // OpenAI-compatible chat completions endpoint.
	Model      string
	APIKey     string
	HTTPClient *http.Client
}

// LLMDecider proposes decisions through an OpenAI-compatible HTTP API.
type LLMDecider struct {
	cfg LLMConfig
}

// NewLLMDecider builds an HTTP-backed Decider.
func NewLLMDecider(cfg LLMConfig) *LLMDecider {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if strings.TrimSpace(cfg.URL) == "" {
		cfg.URL = defaultCompletionsURL
	}
	return &LLMDecider{cfg: cfg}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Propose sends the prompt and returns the model's raw text reply. The
// caller owns parsing and validation.
func (l *LLMDecider) Propose(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       l.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if l.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+l.cfg.APIKey)
	}

	resp, err := l.cfg.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", ErrMalformed)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("no choices in response: %w", ErrMalformed)
	}
	return parsed.Choices[0].Message.Content, nil
}
