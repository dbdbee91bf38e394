package render

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/neuraltalk/chat-backend/internal/client"
	"github.com/neuraltalk/chat-backend/internal/entity"
)

// MaxMessageLength is the telegram limit on message text, in characters
const MaxMessageLength = 4096

const (
	MsgWelcome = `👋 Hi! Ask me anything about the documents of your knowledge base.

Current knowledge base: %s

Send a question as a plain message. /help lists the commands.`

	MsgHelp = `🤖 Commands:

/use <namespace or chatbot id> - switch the knowledge base
/new - start a new conversation
/stop - stop the answer being written
/help - show this help

Anything else you send is treated as a question.`

	MsgNamespaceSet    = `✅ Using knowledge base "%s".`
	MsgNewConversation = `🆕 New conversation started.`
	MsgStopped         = `⏹ Stopping the answer.`
	MsgNothingToStop   = `Nothing to stop.`
	MsgBusy            = `⏳ Still answering the previous question. Send /stop to interrupt it.`
	MsgUseUsage        = `Usage: /use <namespace or chatbot id>`

	SuffixStopped   = "\n\n⏹ stopped"
	SuffixTruncated = "\n\n⚠️ the answer was cut short"

	ErrGeneric            = `❌ Something went wrong. Please try again.`
	ErrUnknownCommand     = `❌ Unknown command. Send /help for the list.`
	ErrNoNamespace        = `❌ No knowledge base selected. Pick one with /use <namespace>.`
	ErrInvalidNamespace   = `❌ "%s" is not a valid namespace.`
	ErrChatbotNotFound    = `❌ No chatbot with that id.`
	ErrEmptyAnswer        = `❌ The answer came back empty. Please try again.`
	ErrNetworkIssue       = `❌ Connection problem. Please try again later.`
	ErrServiceUnavailable = `❌ The service is temporarily unavailable. Try again in a few minutes.`
	ErrTimeout            = `❌ That took too long. Please try again.`
	ErrQuotaExceeded      = `❌ Too many requests right now. Please wait a bit.`
	ErrBadRequest         = `❌ The question was rejected: %s`
)

func Welcome(namespace string) string {
	if namespace == "" {
		namespace = "none, use /use <namespace>"
	}
	return fmt.Sprintf(MsgWelcome, namespace)
}

func NamespaceSet(namespace string) string {
	return fmt.Sprintf(MsgNamespaceSet, namespace)
}

func InvalidNamespace(namespace string) string {
	return fmt.Sprintf(ErrInvalidNamespace, Clip(namespace, 64))
}

// RateLimited tells the user how long to wait, rounded up to whole seconds
func RateLimited(wait time.Duration) string {
	seconds := int(math.Ceil(wait.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	return fmt.Sprintf("⚠️ Too many messages. Please wait %d s.", seconds)
}

// Answer renders the streamed answer text with a marker for how it ended
func Answer(text string, cancelled, truncated bool) string {
	suffix := ""
	switch {
	case cancelled:
		suffix = SuffixStopped
	case truncated:
		suffix = SuffixTruncated
	}
	return Clip(text, MaxMessageLength-utf8.RuneCountInString(suffix)) + suffix
}

// Clip keeps at most limit characters, ending with an ellipsis when cut
func Clip(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit-1]) + "…"
}

// ClassifyError maps a failed chat request to a user facing message
func ClassifyError(err error) string {
	if err == nil {
		return ErrGeneric
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}

	var statusErr *client.StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusTooManyRequests:
			return ErrQuotaExceeded
		case statusErr.StatusCode == http.StatusBadRequest:
			return fmt.Sprintf(ErrBadRequest, statusErr.Status)
		case statusErr.StatusCode >= http.StatusInternalServerError:
			return ErrServiceUnavailable
		}
		return ErrGeneric
	}

	if errors.Is(err, entity.ErrChatbotNotFound) {
		return ErrChatbotNotFound
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrTimeout
		}
		return ErrNetworkIssue
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrServiceUnavailable
	}

	return ErrGeneric
}
