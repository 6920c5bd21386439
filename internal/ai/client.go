package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/example/frenchbot/internal/logger"
)

const (
	DefaultModel = "gpt-4o-mini"
	// DefaultRateLimit is requests per second towards the endpoint.
	DefaultRateLimit = 1.0
)

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	// Requests per second, 0 means DefaultRateLimit
	RateLimit float64
}

// Client talks to an OpenAI-compatible chat completion endpoint.
type Client struct {
	client  *openai.Client
	model   string
	limiter *rate.Limiter
	log     *logger.Logger
}

// New creates a new chat client
func New(cfg Config, log *logger.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if log == nil {
		log = logger.NewNop()
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	return &Client{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   cfg.Model,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		log:     log.With("service", "ai"),
	}, nil
}

// complete sends one system+user exchange and returns the trimmed reply.
func (c *Client) complete(ctx context.Context, user string, maxTokens int, temperature float32) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		c.log.Warn("chat completion failed", "error", err, "latency_ms", time.Since(start).Milliseconds())
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response choices returned")
	}

	c.log.Debug("chat completion done", "latency_ms", time.Since(start).Milliseconds(), "tokens", resp.Usage.TotalTokens)
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
