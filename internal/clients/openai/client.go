// Package openai provides a minimal chat-completion client for OpenAI-compatible endpoints.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/roadscan/internal/domain"
)

const (
	// DefaultURL is the chat-completions endpoint used when none is configured
	DefaultURL = "https://api.openai.com/v1/chat/completions"
	// DefaultModel is the model used when none is configured
	DefaultModel = "gpt-4"
	// MinTimeout is the smallest request timeout the client accepts
	MinTimeout = 60 * time.Second

	maxResponseBytes = 4 << 20
)

// Config holds client settings
type Config struct {
	APIKey  string
	URL     string
	Model   string
	Timeout time.Duration
}

// Client for the chat-completions API
type Client struct {
	apiKey string
	url    string
	model  string
	client *http.Client
	log    zerolog.Logger
}

// Message is one chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewClient creates a new chat-completions client
func NewClient(cfg Config, log zerolog.Logger) *Client {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		url = DefaultURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout < MinTimeout {
		timeout = MinTimeout
	}

	return &Client{
		apiKey: cfg.APIKey,
		url:    url,
		model:  model,
		client: &http.Client{Timeout: timeout},
		log:    log.With().Str("client", "openai").Logger(),
	}
}

// Model returns the configured model name
func (c *Client) Model() string {
	return c.model
}

// Timeout returns the effective request timeout
func (c *Client) Timeout() time.Duration {
	return c.client.Timeout
}

// Complete sends a system and a user message and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	const op = "chat completion"

	if c.apiKey == "" {
		return "", domain.Errorf(domain.KindRemoteCall, op, "API key is not configured (set OPENAI_API_KEY)")
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", domain.Wrap(domain.KindRemoteCall, op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", domain.Wrap(domain.KindRemoteCall, op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return "", domain.Wrap(domain.KindRemoteCall, op, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", domain.Wrap(domain.KindRemoteCall, op, fmt.Errorf("read response: %w", err))
	}

	c.log.Debug().
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Int("bytes", len(raw)).
		Msg("Chat completion response")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", domain.Errorf(domain.KindRemoteCall, op, "HTTP %d: %s", resp.StatusCode, summarize(raw))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", domain.Wrap(domain.KindRemoteCall, op, fmt.Errorf("cannot parse response: %w", err))
	}
	if parsed.Error != nil {
		return "", domain.Errorf(domain.KindRemoteCall, op, "%s: %s", parsed.Error.Type, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", domain.Errorf(domain.KindRemoteCall, op, "response has no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}

// summarize trims an error body for inclusion in an error message
func summarize(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 512 {
		s = s[:512] + "..."
	}
	return s
}
