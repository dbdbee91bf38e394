package chain

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/neuraltalk/chat-backend/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModel struct {
	mu            sync.Mutex
	completeCalls []string
	streamPrompts []string
	standalone    string
	completeErr   error
	tokens        []string
	streamErrAt   int // emit this many tokens then fail; <0 disables
	streamErr     error
}

func (f *fakeModel) Complete(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completeCalls = append(f.completeCalls, prompt)
	if f.completeErr != nil {
		return "", f.completeErr
	}
	return f.standalone, nil
}

func (f *fakeModel) Stream(ctx context.Context, prompt string, onToken func(string) error) error {
	f.mu.Lock()
	f.streamPrompts = append(f.streamPrompts, prompt)
	f.mu.Unlock()

	for i, tok := range f.tokens {
		if f.streamErrAt >= 0 && i == f.streamErrAt {
			return f.streamErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := onToken(tok); err != nil {
			return err
		}
	}
	return nil
}

type fakeRetriever struct {
	chunks    []entity.RetrievedChunk
	err       error
	query     string
	namespace string
	calls     int
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query, namespace string) ([]entity.RetrievedChunk, error) {
	f.calls++
	f.query = query
	f.namespace = namespace
	return f.chunks, f.err
}

func newModel(tokens ...string) *fakeModel {
	return &fakeModel{tokens: tokens, streamErrAt: -1, standalone: "standalone?"}
}

func TestRun_EmptyHistorySkipsCondense(t *testing.T) {
	model := newModel("Hel", "lo")
	retriever := &fakeRetriever{}
	c := New(model, retriever, Config{})

	var got []string
	answer, err := c.Run(context.Background(), Request{Question: "What is X?", Namespace: "acme"}, func(tok string) error {
		got = append(got, tok)
		return nil
	})

	require.NoError(t, err)
	assert.Empty(t, model.completeCalls)
	assert.Equal(t, "What is X?", retriever.query)
	assert.Equal(t, "acme", retriever.namespace)
	assert.Equal(t, []string{"Hel", "lo"}, got)
	assert.Equal(t, "Hello", answer)
}

func TestRun_AlwaysCondense(t *testing.T) {
	model := newModel("ok")
	retriever := &fakeRetriever{}
	c := New(model, retriever, Config{AlwaysCondense: true})

	_, err := c.Run(context.Background(), Request{Question: "What is X?"}, nil)

	require.NoError(t, err)
	require.Len(t, model.completeCalls, 1)
	assert.Equal(t, "standalone?", retriever.query)
}

func TestRun_CondensesWithHistory(t *testing.T) {
	model := newModel("fine")
	retriever := &fakeRetriever{}
	c := New(model, retriever, Config{})

	req := Request{
		Question: "And its price?",
		History:  []entity.HistoryPair{{"What is X?", "X is a product."}},
	}
	_, err := c.Run(context.Background(), req, nil)

	require.NoError(t, err)
	require.Len(t, model.completeCalls, 1)
	prompt := model.completeCalls[0]
	assert.Contains(t, prompt, "Human: What is X?\nAssistant: X is a product.")
	assert.Contains(t, prompt, "Follow Up Input: And its price?")
	assert.Equal(t, "standalone?", retriever.query)
}

func TestRun_ContextJoinedInRankOrder(t *testing.T) {
	model := newModel("a")
	retriever := &fakeRetriever{chunks: []entity.RetrievedChunk{
		{ID: "1", Content: "first chunk", Score: 0.9},
		{ID: "2", Content: "second chunk", Score: 0.5},
	}}
	c := New(model, retriever, Config{})

	_, err := c.Run(context.Background(), Request{Question: "q"}, nil)

	require.NoError(t, err)
	require.Len(t, model.streamPrompts, 1)
	assert.Contains(t, model.streamPrompts[0], "first chunk\n\nsecond chunk")
	assert.Contains(t, model.streamPrompts[0], "Question: q")
}

func TestRun_ZeroChunksStillAnswers(t *testing.T) {
	model := newModel("I", " don't", " know")
	c := New(model, &fakeRetriever{}, Config{})

	answer, err := c.Run(context.Background(), Request{Question: "q"}, nil)

	require.NoError(t, err)
	assert.Equal(t, "I don't know", answer)
}

func TestRun_RetrieveFailureAbortsBeforeAnswer(t *testing.T) {
	model := newModel("never")
	retrieveErr := errors.New("index down")
	c := New(model, &fakeRetriever{err: retrieveErr}, Config{})

	_, err := c.Run(context.Background(), Request{Question: "q"}, func(string) error {
		t.Fatal("no token expected")
		return nil
	})

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageRetrieve, stageErr.Stage)
	assert.ErrorIs(t, err, retrieveErr)
	assert.Empty(t, model.streamPrompts)
}

func TestRun_CondenseFailure(t *testing.T) {
	model := newModel("never")
	model.completeErr = errors.New("rate limited")
	retriever := &fakeRetriever{}
	c := New(model, retriever, Config{})

	_, err := c.Run(context.Background(), Request{Question: "q", History: []entity.HistoryPair{{"a", "b"}}}, nil)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageCondense, stageErr.Stage)
	assert.Zero(t, retriever.calls)
}

func TestRun_MidStreamFailureKeepsPartial(t *testing.T) {
	model := newModel("Hel", "lo", "!")
	model.streamErrAt = 2
	model.streamErr = errors.New("connection reset")
	c := New(model, &fakeRetriever{}, Config{})

	var got strings.Builder
	answer, err := c.Run(context.Background(), Request{Question: "q"}, func(tok string) error {
		got.WriteString(tok)
		return nil
	})

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageAnswer, stageErr.Stage)
	assert.Equal(t, "Hello", answer)
	assert.Equal(t, "Hello", got.String())
}

func TestRun_OnTokenErrorStops(t *testing.T) {
	model := newModel("a", "b", "c")
	c := New(model, &fakeRetriever{}, Config{})
	stop := errors.New("client gone")

	n := 0
	_, err := c.Run(context.Background(), Request{Question: "q"}, func(string) error {
		n++
		if n == 2 {
			return stop
		}
		return nil
	})

	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 2, n)
}

func TestStream_EventsInOrder(t *testing.T) {
	model := newModel("one", " two", " three")
	c := New(model, &fakeRetriever{}, Config{})

	var tokens []string
	var last Event
	for ev := range c.Stream(context.Background(), Request{Question: "q"}) {
		if ev.Type == EventToken {
			tokens = append(tokens, ev.Token)
		}
		last = ev
	}

	assert.Equal(t, []string{"one", " two", " three"}, tokens)
	assert.Equal(t, EventDone, last.Type)
	assert.Equal(t, "one two three", last.Answer)
}

func TestStream_ErrorIsTerminal(t *testing.T) {
	model := newModel("x")
	c := New(model, &fakeRetriever{err: errors.New("boom")}, Config{})

	var events []Event
	for ev := range c.Stream(context.Background(), Request{Question: "q"}) {
		events = append(events, ev)
	}

	require.Len(t, events, 1)
	assert.Equal(t, EventError, events[0].Type)
	assert.Error(t, events[0].Err)
}

func TestStream_CancelClosesChannel(t *testing.T) {
	model := newModel("a", "b", "c", "d")
	c := New(model, &fakeRetriever{}, Config{})
	ctx, cancel := context.WithCancel(context.Background())

	events := c.Stream(ctx, Request{Question: "q"})
	first := <-events
	assert.Equal(t, EventToken, first.Type)
	cancel()

	for range events {
		// drain until the producer notices the cancellation
	}
}
