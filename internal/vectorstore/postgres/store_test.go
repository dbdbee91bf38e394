package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorLiteral(t *testing.T) {
	assert.Equal(t, "[]", vectorLiteral(nil))
	assert.Equal(t, "[0.5,-1,0.25]", vectorLiteral([]float32{0.5, -1, 0.25}))
}

func TestNamespaceFilter(t *testing.T) {
	b, err := namespaceFilter("")
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(b))

	b, err = namespaceFilter("acme")
	require.NoError(t, err)
	assert.JSONEq(t, `{"namespace":"acme"}`, string(b))
}

func TestStringMetadata(t *testing.T) {
	assert.Nil(t, stringMetadata(nil))

	md := stringMetadata(map[string]any{"namespace": "acme", "page": float64(3)})
	assert.Equal(t, "acme", md["namespace"])
	assert.Equal(t, "3", md["page"])
}

func TestNew_Defaults(t *testing.T) {
	s := New(nil, nil, Config{}, nil)
	assert.Equal(t, 8, s.cfg.TopK)
	assert.Equal(t, 8, s.cfg.SimilarityK)
	assert.Equal(t, 0, s.cfg.KeywordK)
}
