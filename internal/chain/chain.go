package chain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/neuraltalk/chat-backend/internal/entity"
	"github.com/neuraltalk/chat-backend/internal/vectorstore"
	"github.com/tmc/langchaingo/prompts"
	"go.uber.org/zap"
)

const contextSeparator = "\n\n"

// Stage names the step of the pipeline that failed
type Stage string

const (
	StageCondense Stage = "condense"
	StageRetrieve Stage = "retrieve"
	StageAnswer   Stage = "answer"
)

// StageError wraps the failure of a single pipeline stage
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// LanguageModel is the completion backend. Stream hands tokens to onToken in generation order.
type LanguageModel interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Stream(ctx context.Context, prompt string, onToken func(string) error) error
}

type Config struct {
	// AlwaysCondense calls the model to rephrase even when there is no history
	AlwaysCondense bool
}

// Request is one turn of the conversational retrieval pipeline
type Request struct {
	Question  string
	History   []entity.HistoryPair
	Namespace string
}

// Chain runs condense, retrieve and answer for a single request.
// It holds no per-request state and is safe for concurrent use.
type Chain struct {
	llm       LanguageModel
	retriever vectorstore.Retriever
	cfg       Config
	condense  prompts.PromptTemplate
	qa        prompts.PromptTemplate
}

func New(llm LanguageModel, retriever vectorstore.Retriever, cfg Config) *Chain {
	return &Chain{
		llm:       llm,
		retriever: retriever,
		cfg:       cfg,
		condense:  condensePrompt(),
		qa:        qaPrompt(),
	}
}

// Run executes the pipeline and calls onToken synchronously for every answer token.
// It returns the full answer, which is exactly the concatenation of the tokens.
// Any stage failure aborts the run; nothing is retried.
func (c *Chain) Run(ctx context.Context, req Request, onToken func(string) error) (string, error) {
	question, err := c.standaloneQuestion(ctx, req)
	if err != nil {
		return "", &StageError{Stage: StageCondense, Err: err}
	}

	chunks, err := c.retriever.Retrieve(ctx, question, req.Namespace)
	if err != nil {
		return "", &StageError{Stage: StageRetrieve, Err: err}
	}

	ctxzap.Debug(ctx, "context retrieved", zap.Int("chunks", len(chunks)))

	prompt, err := c.qa.Format(map[string]any{
		"context":  joinChunks(chunks),
		"question": question,
	})
	if err != nil {
		return "", &StageError{Stage: StageAnswer, Err: fmt.Errorf("format prompt: %w", err)}
	}

	var answer strings.Builder
	err = c.llm.Stream(ctx, prompt, func(token string) error {
		answer.WriteString(token)
		if onToken != nil {
			return onToken(token)
		}
		return nil
	})
	if err != nil {
		return answer.String(), &StageError{Stage: StageAnswer, Err: err}
	}

	return answer.String(), nil
}

func (c *Chain) standaloneQuestion(ctx context.Context, req Request) (string, error) {
	if len(req.History) == 0 && !c.cfg.AlwaysCondense {
		return req.Question, nil
	}

	prompt, err := c.condense.Format(map[string]any{
		"chat_history": entity.FormatChatHistory(req.History),
		"question":     req.Question,
	})
	if err != nil {
		return "", fmt.Errorf("format prompt: %w", err)
	}

	standalone, err := c.llm.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}

	standalone = strings.TrimSpace(standalone)
	if standalone == "" {
		return "", errors.New("empty standalone question")
	}

	ctxzap.Debug(ctx, "question condensed", zap.String("standalone_question", standalone))
	return standalone, nil
}

func joinChunks(chunks []entity.RetrievedChunk) string {
	parts := make([]string, len(chunks))
	for i, ch := range chunks {
		parts[i] = ch.Content
	}
	return strings.Join(parts, contextSeparator)
}
