package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/neuraltalk/chat-backend/internal/client"
	"github.com/neuraltalk/chat-backend/internal/pkg/validator"
	"github.com/neuraltalk/chat-backend/internal/store"
	"github.com/neuraltalk/chat-backend/internal/telegram/render"
	"go.uber.org/zap"
)

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	command := message.Command()
	chatID := message.Chat.ID

	ctxzap.Info(ctx, "command received", zap.String("command", command))

	switch command {
	case "start":
		b.handleStart(ctx, chatID)
	case "help":
		b.reply(ctx, chatID, render.MsgHelp)
	case "use":
		b.handleUse(ctx, chatID, strings.TrimSpace(message.CommandArguments()))
	case "new":
		b.handleNew(ctx, chatID)
	case "stop":
		b.handleStop(ctx, chatID)
	default:
		b.reply(ctx, chatID, render.ErrUnknownCommand)
	}
}

func (b *Bot) handleStart(ctx context.Context, chatID int64) {
	namespace, err := b.state.Namespace(ctx, chatID)
	if err != nil {
		ctxzap.Error(ctx, "failed to load chat state", zap.Error(err))
		b.reply(ctx, chatID, render.ErrGeneric)
		return
	}
	b.reply(ctx, chatID, render.Welcome(namespace))
}

// handleUse accepts either a namespace or a chatbot id, which is resolved to the chatbot's namespace
func (b *Bot) handleUse(ctx context.Context, chatID int64, arg string) {
	if arg == "" {
		b.reply(ctx, chatID, render.MsgUseUsage)
		return
	}

	namespace := arg
	if _, err := uuid.Parse(arg); err == nil {
		chatbot, err := b.consumer.Chatbot(ctx, arg)
		if err != nil {
			ctxzap.Warn(ctx, "failed to resolve chatbot", zap.Error(err), zap.String("chatbot_id", arg))
			b.sendError(ctx, chatID, err)
			return
		}
		namespace = chatbot.Namespace
	}

	if err := validator.ValidateNamespace(namespace); err != nil {
		b.reply(ctx, chatID, render.InvalidNamespace(namespace))
		return
	}

	if err := b.state.SetNamespace(ctx, chatID, namespace); err != nil {
		ctxzap.Error(ctx, "failed to save chat state", zap.Error(err))
		b.reply(ctx, chatID, render.ErrGeneric)
		return
	}

	b.reply(ctx, chatID, render.NamespaceSet(namespace))
}

func (b *Bot) handleNew(ctx context.Context, chatID int64) {
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

	if b.sessions.get(chatID).busy.Load() {
		b.reply(ctx, chatID, render.MsgBusy)
		return
	}

	scope := Scope(namespace, chatID)
	all, err := b.conversations.LoadConversations(ctx, scope)
	if err != nil {
		ctxzap.Error(ctx, "failed to load conversations", zap.Error(err))
		b.reply(ctx, chatID, render.ErrGeneric)
		return
	}

	s := client.Apply(client.State{}, client.SetConversations(all), client.NewConversation(uuid.NewString()))
	if _, _, err := store.UpdateConversation(ctx, b.conversations, scope, *s.Selected, s.Conversations); err != nil {
		ctxzap.Error(ctx, "failed to save new conversation", zap.Error(err))
		b.reply(ctx, chatID, render.ErrGeneric)
		return
	}

	b.reply(ctx, chatID, render.MsgNewConversation)
}

func (b *Bot) handleStop(ctx context.Context, chatID int64) {
	sess := b.sessions.get(chatID)
	if !sess.busy.Load() {
		b.reply(ctx, chatID, render.MsgNothingToStop)
		return
	}

	sess.canceller.Stop()
	b.reply(ctx, chatID, render.MsgStopped)
}

// Scope is the conversation store namespace of a chat: conversations are kept per chat and knowledge base
func Scope(namespace string, chatID int64) string {
	return fmt.Sprintf("%s:tg%d", namespace, chatID)
}
