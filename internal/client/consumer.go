package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/neuraltalk/chat-backend/internal/config"
	"github.com/neuraltalk/chat-backend/internal/entity"
	"github.com/neuraltalk/chat-backend/internal/integration/common"
	"github.com/neuraltalk/chat-backend/internal/store"
	pkghttp "github.com/neuraltalk/chat-backend/pkg/http"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const readBufferSize = 4096

// StatusError is returned when the chat endpoint answers with a non-2xx status
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("chat request failed: %s", e.Status)
}

// SendRequest is one user message sent into a conversation
type SendRequest struct {
	Conversation  entity.Conversation
	Conversations []entity.Conversation
	Message       string
	// Namespace scopes retrieval on the server
	Namespace string
	// Scope is the conversation store namespace; defaults to Namespace
	Scope string
	// DeleteCount drops that many trailing messages first (edit and regenerate)
	DeleteCount int
	// OnUpdate receives a copy of the conversation after every chunk
	OnUpdate func(entity.Conversation)
}

// Result is the settled conversation after a stream ended
type Result struct {
	Conversation  entity.Conversation
	Conversations []entity.Conversation
	// Cancelled is set when the stream was stopped through the Canceller
	Cancelled bool
	// Truncated is set when the server reported a failure or the connection broke mid-answer
	Truncated bool
}

// Consumer sends chat requests and folds the streamed answer into the conversation
type Consumer struct {
	connector *pkghttp.Connector
	endpoint  string
	store     store.ConversationStore
	canceller *Canceller
	logger    *zap.Logger
}

func NewConsumer(
	cfg config.ChatClientConfig,
	conversations store.ConversationStore,
	canceller *Canceller,
	logger *zap.Logger,
) *Consumer {
	return &Consumer{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		endpoint:  cfg.Endpoint,
		store:     conversations,
		canceller: canceller,
		logger:    logger,
	}
}

// WithCanceller returns a consumer bound to another stop flag.
// The copy shares the connection pool and the store.
func (c *Consumer) WithCanceller(canceller *Canceller) *Consumer {
	cp := *c
	cp.canceller = canceller
	return &cp
}

// Chatbot resolves a chatbot id to its record, mainly to learn its namespace
func (c *Consumer) Chatbot(ctx context.Context, id string) (*entity.Chatbot, error) {
	var bot entity.Chatbot
	if err := c.connector.DoRequest(ctx, http.MethodGet, "/chatbots/"+url.PathEscape(id), nil, &bot); err != nil {
		var httpErr *pkghttp.HTTPError
		if errors.As(err, &httpErr) {
			if httpErr.StatusCode == http.StatusNotFound {
				return nil, entity.ErrChatbotNotFound
			}
			return nil, &StatusError{StatusCode: httpErr.StatusCode, Status: httpErr.Status}
		}
		return nil, err
	}
	return &bot, nil
}

// Send appends the user message, streams the answer and persists the outcome.
// A non-2xx response returns *StatusError and persists nothing.
// When the answer settled but persisting failed, both the result and the error are returned.
func (c *Consumer) Send(ctx context.Context, req SendRequest) (*Result, error) {
	c.canceller.Reset()
	defer c.canceller.Reset()

	scope := req.Scope
	if scope == "" {
		scope = req.Namespace
	}

	conv := req.Conversation.Clone()
	if req.DeleteCount > 0 {
		keep := max(len(conv.Messages)-req.DeleteCount, 0)
		conv.Messages = conv.Messages[:keep]
	}
	conv.Messages = append(conv.Messages, entity.ChatTurn{Role: entity.RoleUser, Content: req.Message})

	body := entity.ChatRequest{
		Question:    req.Message,
		ChatHistory: entity.BuildChatHistory(conv.Messages),
		Namespace:   req.Namespace,
	}

	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.canceller.bind(cancel)
	defer c.canceller.unbind()

	resp, err := c.connector.DoStreamRequest(reqCtx, http.MethodPost, c.endpoint, body)
	if err != nil {
		var httpErr *pkghttp.HTTPError
		if errors.As(err, &httpErr) {
			return nil, &StatusError{StatusCode: httpErr.StatusCode, Status: httpErr.Status}
		}
		return nil, err
	}
	defer resp.Close()

	if len(conv.Messages) == 1 {
		conv.Name = entity.NameFromMessage(req.Message)
	}

	result := &Result{}
	reader := transform.NewReader(resp.Body, unicode.UTF8.NewDecoder())
	buf := make([]byte, readBufferSize)

	var text strings.Builder
	isFirst := true

	for {
		if c.canceller.Stopped() {
			cancel()
			result.Cancelled = true
			break
		}

		n, readErr := reader.Read(buf)
		if n > 0 {
			chunk := string(buf[:n])
			text.WriteString(chunk)

			if isFirst {
				isFirst = false
				conv.Messages = append(conv.Messages, entity.ChatTurn{Role: entity.RoleAssistant, Content: chunk})
			} else {
				conv.Messages[len(conv.Messages)-1].Content = text.String()
			}

			if req.OnUpdate != nil {
				req.OnUpdate(conv.Clone())
			}
		}

		if errors.Is(readErr, io.EOF) {
			if status := resp.Trailer().Get(entity.StreamStatusTrailer); status != "" && status != string(entity.StreamStatusComplete) {
				result.Truncated = true
			}
			break
		}
		if readErr != nil {
			if c.canceller.Stopped() {
				result.Cancelled = true
			} else {
				ctxzap.Warn(ctx, "chat stream interrupted", zap.Error(readErr))
				result.Truncated = true
			}
			break
		}
	}

	ctxzap.Debug(ctx, "chat stream settled",
		zap.Bool("cancelled", result.Cancelled),
		zap.Bool("truncated", result.Truncated),
		zap.Int("answer_length", text.Len()),
	)

	// Persisting outlives the request; a stop must not drop the partial answer.
	saveCtx := context.WithoutCancel(ctx)
	single, all, err := store.UpdateConversation(saveCtx, c.store, scope, conv, req.Conversations)
	result.Conversation = single
	result.Conversations = all
	if err != nil {
		return result, fmt.Errorf("persist conversation: %w", err)
	}

	return result, nil
}
