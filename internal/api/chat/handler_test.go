package chat

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/neuraltalk/chat-backend/internal/chain"
	"github.com/neuraltalk/chat-backend/internal/config"
	"github.com/neuraltalk/chat-backend/internal/entity"
	"github.com/neuraltalk/chat-backend/internal/pkg/validator"
	chatuc "github.com/neuraltalk/chat-backend/internal/usecase/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type scriptedModel struct {
	standalone string
	tokens     []string
	failAfter  int
	prompts    []string
}

func (m *scriptedModel) Complete(ctx context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	return m.standalone, nil
}

func (m *scriptedModel) Stream(ctx context.Context, prompt string, onToken func(string) error) error {
	m.prompts = append(m.prompts, prompt)
	for i, tok := range m.tokens {
		if m.failAfter > 0 && i == m.failAfter {
			return errors.New("upstream reset")
		}
		if err := onToken(tok); err != nil {
			return err
		}
	}
	return nil
}

type staticRetriever struct {
	namespaces []string
}

func (r *staticRetriever) Retrieve(ctx context.Context, query, namespace string) ([]entity.RetrievedChunk, error) {
	r.namespaces = append(r.namespaces, namespace)
	return []entity.RetrievedChunk{{ID: "1", Content: "X is a product.", Score: 0.9}}, nil
}

func newHandler(model *scriptedModel, cfg chatuc.Config) (*Handler, *staticRetriever) {
	retriever := &staticRetriever{}
	pipeline := chain.New(model, retriever, chain.Config{})
	v := validator.New(config.DocumentConfig{})
	return NewHandler(chatuc.NewUsecase(pipeline, v, cfg, zap.NewNop()), time.Minute), retriever
}

func post(h *Handler, body string) *http.Response {
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Chat(rec, req)
	return rec.Result()
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestChat_InvalidJSON(t *testing.T) {
	h, _ := newHandler(&scriptedModel{}, chatuc.Config{})

	resp := post(h, "{not json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"message":"Invalid JSON body"}`, readBody(t, resp))
}

func TestChat_NoQuestion(t *testing.T) {
	h, _ := newHandler(&scriptedModel{}, chatuc.Config{})

	for _, body := range []string{`{}`, `{"question":"   "}`, `{"question":"","namespace":"acme"}`} {
		resp := post(h, body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		assert.JSONEq(t, `{"message":"No question in the request"}`, readBody(t, resp))
	}
}

func TestChat_RequireNamespace(t *testing.T) {
	h, _ := newHandler(&scriptedModel{}, chatuc.Config{RequireNamespace: true})

	resp := post(h, `{"question":"What is X?"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChat_StreamsTokens(t *testing.T) {
	model := &scriptedModel{tokens: []string{"X ", "is ", "a ", "product."}}
	h, retriever := newHandler(model, chatuc.Config{})

	resp := post(h, `{"question":"What is\nX?","chat_history":[],"namespace":"acme"}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-cache, no-transform", resp.Header.Get("Cache-Control"))
	assert.Equal(t, "keep-alive", resp.Header.Get("Connection"))
	assert.Equal(t, "no", resp.Header.Get("X-Accel-Buffering"))

	assert.Equal(t, " X is a product.", readBody(t, resp))
	assert.Equal(t, "complete", resp.Trailer.Get(entity.StreamStatusTrailer))

	assert.Equal(t, []string{"acme"}, retriever.namespaces)
	// no history: the question goes straight to the answer prompt, sanitized
	require.Len(t, model.prompts, 1)
	assert.Contains(t, model.prompts[0], "What is X?")
}

func TestChat_LegacyHistoryKeyTriggersCondense(t *testing.T) {
	model := &scriptedModel{standalone: "Who makes X?", tokens: []string{"Acme."}}
	h, _ := newHandler(model, chatuc.Config{DefaultNamespace: "acme"})

	resp := post(h, `{"question":"Who makes it?","history":[["What is X?","X is a product."]]}`)
	assert.Equal(t, " Acme.", readBody(t, resp))

	require.Len(t, model.prompts, 2)
	assert.Contains(t, model.prompts[0], "Human: What is X?\nAssistant: X is a product.")
	assert.Contains(t, model.prompts[1], "Who makes X?")
}

func TestChat_MidStreamFailure(t *testing.T) {
	model := &scriptedModel{tokens: []string{"Hel", "lo"}, failAfter: 1}
	h, _ := newHandler(model, chatuc.Config{})

	resp := post(h, `{"question":"Hi","namespace":"acme"}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, " Hel", readBody(t, resp))
	assert.Equal(t, "error", resp.Trailer.Get(entity.StreamStatusTrailer))
}
