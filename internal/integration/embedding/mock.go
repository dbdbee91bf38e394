package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector produces deterministic bag-of-words vectors.
// Texts sharing words end up close to each other, which is enough for local runs and tests.
type MockConnector struct {
	dims   int
	logger *zap.Logger
}

func NewMockConnector(dims int, logger *zap.Logger) *MockConnector {
	if dims <= 0 {
		dims = 64
	}
	return &MockConnector{
		dims:   dims,
		logger: logger,
	}
}

func (m *MockConnector) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	ctxzap.Debug(ctx, "[MOCK] embedding texts", zap.Int("count", len(texts)))

	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		vectors[i] = m.vector(t)
	}
	return vectors, nil
}

func (m *MockConnector) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return m.vector(text), nil
}

func (m *MockConnector) vector(text string) []float32 {
	vec := make([]float32, m.dims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		vec[int(h.Sum32())%m.dims]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		// Keep the vector valid for cosine similarity.
		vec[0] = 1
		return vec
	}

	n := float32(math.Sqrt(norm))
	for i := range vec {
		vec[i] /= n
	}
	return vec
}
