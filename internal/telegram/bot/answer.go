package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/neuraltalk/chat-backend/internal/client"
	"github.com/neuraltalk/chat-backend/internal/entity"
	"github.com/neuraltalk/chat-backend/internal/pkg/logger"
	"github.com/neuraltalk/chat-backend/internal/telegram/render"
	"go.uber.org/zap"
)

// ask streams the answer to question into the chat, one message edited as text arrives
func (b *Bot) ask(ctx context.Context, chatID int64, question string) {
	sess := b.sessions.get(chatID)
	if !sess.busy.CompareAndSwap(false, true) {
		b.reply(ctx, chatID, render.MsgBusy)
		return
	}
	defer sess.busy.Store(false)

	namespace, err := b.state.Namespace(ctx, chatID)
	if err != nil {
		ctxzap.Error(ctx, "failed to load chat state", zap.Error(err))
		b.reply(ctx, chatID, render.ErrGeneric)
		return
	}
	if namespace == "" {
		b.reply(ctx, chatID, render.ErrNoNamespace)
		return
	}

	ctx = logger.WithNamespace(logger.WithAction(ctx, "Ask"), namespace)
	scope := Scope(namespace, chatID)

	conv, all, err := b.selectedConversation(ctx, scope)
	if err != nil {
		ctxzap.Error(ctx, "failed to load conversation", zap.Error(err))
		b.reply(ctx, chatID, render.ErrGeneric)
		return
	}

	if _, err := b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		ctxzap.Warn(ctx, "failed to send typing action", zap.Error(err))
	}

	out := &answerStream{api: b.api, chatID: chatID, interval: b.cfg.EditInterval, now: b.now}

	res, err := b.consumer.WithCanceller(sess.canceller).Send(ctx, client.SendRequest{
		Conversation:  conv,
		Conversations: all,
		Message:       question,
		Namespace:     namespace,
		Scope:         scope,
		OnUpdate: func(c entity.Conversation) {
			out.update(ctx, assistantText(c))
		},
	})
	if res == nil {
		ctxzap.Warn(ctx, "chat request failed", zap.Error(err))
		b.sendError(ctx, chatID, err)
		return
	}
	if err != nil {
		// the answer reached the user; only the history write failed
		ctxzap.Error(ctx, "failed to persist conversation", zap.Error(err))
	}

	out.finish(ctx, assistantText(res.Conversation), res.Cancelled, res.Truncated)
}

// selectedConversation loads the chat's current conversation, starting one when there is none
func (b *Bot) selectedConversation(ctx context.Context, scope string) (entity.Conversation, []entity.Conversation, error) {
	all, err := b.conversations.LoadConversations(ctx, scope)
	if err != nil {
		return entity.Conversation{}, nil, err
	}

	selected, err := b.conversations.LoadConversation(ctx, scope)
	switch {
	case errors.Is(err, entity.ErrConversationNotFound):
		s := client.Apply(client.State{}, client.SetConversations(all), client.NewConversation(uuid.NewString()))
		return *s.Selected, s.Conversations, nil
	case err != nil:
		return entity.Conversation{}, nil, err
	}

	return *selected, all, nil
}

func assistantText(c entity.Conversation) string {
	n := len(c.Messages)
	if n == 0 || c.Messages[n-1].Role != entity.RoleAssistant {
		return ""
	}
	return strings.TrimSpace(c.Messages[n-1].Content)
}

// answerStream mirrors the growing answer into one telegram message.
// The first non-blank text is sent, later text edits it at most once per interval.
type answerStream struct {
	api      API
	chatID   int64
	interval time.Duration
	now      func() time.Time

	messageID int
	lastText  string
	lastEdit  time.Time
}

func (s *answerStream) update(ctx context.Context, text string) {
	if text == "" {
		return
	}

	if s.messageID == 0 {
		s.sendFirst(ctx, render.Answer(text, false, false))
		return
	}

	if s.now().Sub(s.lastEdit) < s.interval {
		return
	}
	s.edit(ctx, render.Answer(text, false, false))
}

// finish writes the final text, marking stopped or cut short answers
func (s *answerStream) finish(ctx context.Context, text string, cancelled, truncated bool) {
	if text == "" {
		switch {
		case s.messageID != 0:
		case cancelled:
			s.sendFirst(ctx, render.MsgStopped)
		default:
			s.sendFirst(ctx, render.ErrEmptyAnswer)
		}
		return
	}

	final := render.Answer(text, cancelled, truncated)
	if s.messageID == 0 {
		s.sendFirst(ctx, final)
		return
	}
	s.edit(ctx, final)
}

func (s *answerStream) sendFirst(ctx context.Context, text string) {
	msg, err := s.api.Send(tgbotapi.NewMessage(s.chatID, text))
	if err != nil {
		ctxzap.Error(ctx, "failed to send answer", zap.Error(err))
		return
	}
	s.messageID = msg.MessageID
	s.lastText = text
	s.lastEdit = s.now()
}

func (s *answerStream) edit(ctx context.Context, text string) {
	// telegram rejects edits that change nothing
	if text == s.lastText {
		return
	}
	if _, err := s.api.Send(tgbotapi.NewEditMessageText(s.chatID, s.messageID, text)); err != nil {
		ctxzap.Warn(ctx, "failed to edit answer", zap.Error(err))
		return
	}
	s.lastText = text
	s.lastEdit = s.now()
}
