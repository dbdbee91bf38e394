package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/neuraltalk/chat-backend/internal/config"
	"github.com/neuraltalk/chat-backend/internal/integration/common"
	pkgRetry "github.com/neuraltalk/chat-backend/internal/pkg/retry"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

type Connector struct {
	config config.OpenAIConfig
	client *openai.Client
	logger *zap.Logger
}

func NewConnector(cfg config.OpenAIConfig, logger *zap.Logger) *Connector {
	return &Connector{
		config: cfg,
		client: common.NewOpenAIClient(cfg, logger),
		logger: logger,
	}
}

// Embed returns one vector per input text, in input order
func (c *Connector) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var resp openai.EmbeddingResponse
	err := pkgRetry.Do(ctx, &c.config.Retry, "embed", func(ctx context.Context) error {
		var err error
		resp, err = c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: texts,
			Model: openai.EmbeddingModel(c.config.EmbeddingModel),
		})
		if err != nil && !isRetryable(err) {
			return pkgRetry.Unrecoverable(err)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("create embeddings: expected %d vectors, got %d", len(texts), len(resp.Data))
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("create embeddings: index %d out of range", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}

	ctxzap.Debug(ctx, "texts embedded", zap.Int("count", len(texts)))

	return vectors, nil
}

// EmbedQuery embeds a single query text
func (c *Connector) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// Client errors other than throttling will not succeed on a second attempt.
func isRetryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		status := apiErr.HTTPStatusCode
		return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		status := reqErr.HTTPStatusCode
		return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
	}
	return !errors.Is(err, context.Canceled)
}
