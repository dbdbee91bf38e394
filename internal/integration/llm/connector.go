package llm

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/neuraltalk/chat-backend/internal/config"
	"github.com/neuraltalk/chat-backend/internal/integration/common"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// ErrEmptyCompletion is returned when the model answers with no choices
var ErrEmptyCompletion = errors.New("language model returned no choices")

type Connector struct {
	config      config.OpenAIConfig
	client      *openai.Client
	temperature float32
	logger      *zap.Logger
}

func NewConnector(
	cfg config.OpenAIConfig,
	temperature float32,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		config:      cfg,
		client:      common.NewOpenAIClient(cfg, logger),
		temperature: temperature,
		logger:      logger,
	}
}

func (c *Connector) request(prompt string, stream bool) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model: c.config.ChatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: c.temperature,
		Stream:      stream,
	}
}

// Complete runs a single non-streaming completion
func (c *Connector) Complete(ctx context.Context, prompt string) (string, error) {
	ctxzap.Debug(ctx, "requesting completion", zap.String("model", c.config.ChatModel))

	resp, err := c.client.CreateChatCompletion(ctx, c.request(prompt, false))
	if err != nil {
		return "", fmt.Errorf("create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	return resp.Choices[0].Message.Content, nil
}

// Stream runs a streaming completion and hands every non-empty delta to onToken
// in arrival order. An error from onToken stops the stream and is returned as is.
func (c *Connector) Stream(ctx context.Context, prompt string, onToken func(string) error) error {
	ctxzap.Debug(ctx, "opening completion stream", zap.String("model", c.config.ChatModel))

	stream, err := c.client.CreateChatCompletionStream(ctx, c.request(prompt, true))
	if err != nil {
		return fmt.Errorf("create chat completion stream: %w", err)
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("receive stream chunk: %w", err)
		}

		if len(resp.Choices) == 0 {
			continue
		}

		token := resp.Choices[0].Delta.Content
		if token == "" {
			continue
		}

		if err := onToken(token); err != nil {
			return err
		}
	}
}
