package weaviate

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/neuraltalk/chat-backend/internal/integration/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type graphqlServer struct {
	mu     sync.Mutex
	bodies []string
	reply  string
}

func (g *graphqlServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	g.mu.Lock()
	g.bodies = append(g.bodies, string(body))
	g.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, g.reply)
}

func newTestStore(t *testing.T, gs *graphqlServer) *Store {
	t.Helper()
	srv := httptest.NewServer(gs)
	t.Cleanup(srv.Close)

	s, err := New(Config{
		Host:   strings.TrimPrefix(srv.URL, "http://"),
		Scheme: "http",
		Class:  "Document",
		TopK:   8,
	}, embedding.NewMockConnector(16, zap.NewNop()), zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestRetrieve_ParsesAndRanks(t *testing.T) {
	gs := &graphqlServer{reply: `{"data":{"Get":{"Document":[
		{"content":"low","namespace":"acme","title":"","_additional":{"id":"1","certainty":0.2}},
		{"content":"high","namespace":"acme","title":"Guide","_additional":{"id":"2","certainty":0.9}}
	]}}}`}
	s := newTestStore(t, gs)

	chunks, err := s.Retrieve(context.Background(), "refunds", "acme")

	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "high", chunks[0].Content)
	assert.Equal(t, "Guide", chunks[0].Metadata["title"])
	assert.Equal(t, "acme", chunks[1].Namespace)

	require.NotEmpty(t, gs.bodies)
	assert.Contains(t, gs.bodies[len(gs.bodies)-1], "acme")
	assert.Contains(t, gs.bodies[len(gs.bodies)-1], "where")
}

func TestRetrieve_UnscopedHasNoFilter(t *testing.T) {
	gs := &graphqlServer{reply: `{"data":{"Get":{"Document":[]}}}`}
	s := newTestStore(t, gs)

	chunks, err := s.Retrieve(context.Background(), "refunds", "")

	require.NoError(t, err)
	assert.Empty(t, chunks)
	require.NotEmpty(t, gs.bodies)
	assert.NotContains(t, gs.bodies[len(gs.bodies)-1], "where")
}

func TestRetrieve_GraphQLErrors(t *testing.T) {
	gs := &graphqlServer{reply: `{"errors":[{"message":"class not found"}]}`}
	s := newTestStore(t, gs)

	_, err := s.Retrieve(context.Background(), "refunds", "acme")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "class not found")
}
