package chat

import (
	"context"
	"testing"

	"github.com/neuraltalk/chat-backend/internal/chain"
	"github.com/neuraltalk/chat-backend/internal/config"
	"github.com/neuraltalk/chat-backend/internal/entity"
	"github.com/neuraltalk/chat-backend/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingPipeline struct {
	got chain.Request
}

func (p *recordingPipeline) Stream(ctx context.Context, req chain.Request) <-chan chain.Event {
	p.got = req
	events := make(chan chain.Event, 1)
	events <- chain.Event{Type: chain.EventDone, Answer: "ok"}
	close(events)
	return events
}

func newUsecase(cfg Config) (*ChatUsecase, *recordingPipeline) {
	p := &recordingPipeline{}
	v := validator.New(config.DocumentConfig{MaxDocuments: 1, MaxDocumentSize: 1})
	return NewUsecase(p, v, cfg, zap.NewNop()), p
}

func TestPrepare_SanitizesQuestion(t *testing.T) {
	uc, _ := newUsecase(Config{})

	req, err := uc.Prepare(context.Background(), &entity.ChatRequest{
		Question:  "  What is\nX?  ",
		Namespace: "acme",
	})
	require.NoError(t, err)
	assert.Equal(t, "What is X?", req.Question)
	assert.Equal(t, "acme", req.Namespace)
	assert.NotNil(t, req.History)
}

func TestPrepare_MissingQuestion(t *testing.T) {
	uc, _ := newUsecase(Config{})

	for _, q := range []string{"", "   ", "\n"} {
		_, err := uc.Prepare(context.Background(), &entity.ChatRequest{Question: q})
		assert.ErrorIs(t, err, entity.ErrNoQuestion, "question %q", q)
	}
}

func TestPrepare_NamespaceResolution(t *testing.T) {
	uc, _ := newUsecase(Config{DefaultNamespace: "fallback"})
	req, err := uc.Prepare(context.Background(), &entity.ChatRequest{Question: "q"})
	require.NoError(t, err)
	assert.Equal(t, "fallback", req.Namespace)

	uc, _ = newUsecase(Config{})
	req, err = uc.Prepare(context.Background(), &entity.ChatRequest{Question: "q"})
	require.NoError(t, err)
	assert.Empty(t, req.Namespace)

	uc, _ = newUsecase(Config{RequireNamespace: true})
	_, err = uc.Prepare(context.Background(), &entity.ChatRequest{Question: "q"})
	assert.ErrorIs(t, err, entity.ErrNamespaceRequired)
}

func TestPrepare_InvalidNamespace(t *testing.T) {
	uc, _ := newUsecase(Config{})
	_, err := uc.Prepare(context.Background(), &entity.ChatRequest{Question: "q", Namespace: "no spaces"})
	assert.ErrorIs(t, err, entity.ErrInvalidFormat)
}

func TestStream_PassesHistory(t *testing.T) {
	uc, p := newUsecase(Config{})
	history := []entity.HistoryPair{{"What is X?", "X is a product."}}

	req, err := uc.Prepare(context.Background(), &entity.ChatRequest{Question: "Who makes it?", ChatHistory: history, Namespace: "acme"})
	require.NoError(t, err)

	var events []chain.Event
	for ev := range uc.Stream(context.Background(), req) {
		events = append(events, ev)
	}

	assert.Equal(t, history, p.got.History)
	require.Len(t, events, 1)
	assert.Equal(t, chain.EventDone, events[0].Type)
}
