package llm

import (
	"context"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const mockAnswer = "This is a mock answer generated without calling a language model."

// MockConnector answers without a network call, for local runs with ENABLE_MOCKS
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
	}
}

// Complete echoes the follow-up question found in the prompt
func (m *MockConnector) Complete(ctx context.Context, prompt string) (string, error) {
	ctxzap.Info(ctx, "[MOCK] completion")

	for _, line := range strings.Split(prompt, "\n") {
		if q, ok := strings.CutPrefix(line, "Follow Up Input:"); ok {
			return strings.TrimSpace(q), nil
		}
	}

	return strings.TrimSpace(prompt), nil
}

// Stream emits the canned answer word by word
func (m *MockConnector) Stream(ctx context.Context, prompt string, onToken func(string) error) error {
	ctxzap.Info(ctx, "[MOCK] streaming completion")

	words := strings.SplitAfter(mockAnswer, " ")
	for _, w := range words {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := onToken(w); err != nil {
			return err
		}
	}

	ctxzap.Info(ctx, "[MOCK] stream finished", zap.Int("tokens", len(words)))
	return nil
}
