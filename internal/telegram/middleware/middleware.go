package middleware

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Next hands the update to the rest of the chain
type Next func(ctx context.Context, update tgbotapi.Update)

type Middleware interface {
	Handle(ctx context.Context, update tgbotapi.Update, next Next)
}

// Sender is the part of the bot API the middlewares reply through
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Chain wraps final so that the first middleware runs first
func Chain(final Next, middlewares ...Middleware) Next {
	next := final
	for i := len(middlewares) - 1; i >= 0; i-- {
		mw, inner := middlewares[i], next
		next = func(ctx context.Context, update tgbotapi.Update) {
			mw.Handle(ctx, update, inner)
		}
	}
	return next
}

// origin extracts the user and chat an update came from; zero when unknown
func origin(update tgbotapi.Update) (userID, chatID int64) {
	switch {
	case update.Message != nil:
		if update.Message.From != nil {
			userID = update.Message.From.ID
		}
		if update.Message.Chat != nil {
			chatID = update.Message.Chat.ID
		}
	case update.CallbackQuery != nil:
		if update.CallbackQuery.From != nil {
			userID = update.CallbackQuery.From.ID
		}
		if update.CallbackQuery.Message != nil && update.CallbackQuery.Message.Chat != nil {
			chatID = update.CallbackQuery.Message.Chat.ID
		}
	}
	return userID, chatID
}
