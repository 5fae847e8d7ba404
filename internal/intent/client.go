package intent

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/vshankar/margazhi-planner/pkg/logger"
)

// LLMClient is the completion surface the interpreter needs. Satisfied
// by Client and by test fakes.
type LLMClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Client wraps the OpenAI chat completions API.
type Client struct {
	client      openai.Client
	model       string
	temperature float64
	timeout     time.Duration
	logger      *logger.Logger
}

// NewClient creates an LLM client. apiKey may be empty, in which case
// every completion fails and the interpreter degrades to keyword
// extraction.
func NewClient(apiKey, model string, temperature float64, timeout time.Duration, log *logger.Logger) *Client {
	return &Client{
		client:      openai.NewClient(option.WithAPIKey(apiKey)),
		model:       model,
		temperature: temperature,
		timeout:     timeout,
		logger:      log.Named("llm"),
	}
}

// Complete sends a system+user prompt pair and returns the raw reply text.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(c.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	c.logger.Debug("Completion finished",
		logger.String("model", c.model),
		logger.Duration("elapsed", time.Since(start)))

	return resp.Choices[0].Message.Content, nil
}
