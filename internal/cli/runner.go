package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/neuraltalk/chat-backend/internal/client"
	"github.com/neuraltalk/chat-backend/internal/entity"
	"github.com/neuraltalk/chat-backend/internal/pkg/logger"
	"github.com/neuraltalk/chat-backend/internal/store"
	"go.uber.org/zap"
)

const (
	cmdQuit = "/quit"
	cmdNew  = "/new"
	cmdHelp = "/help"
)

const helpText = `Type a question and press enter.
  /new   start a new conversation
  /help  show this text
  /quit  exit
Ctrl-C stops a running answer, or exits when idle.`

// InputReader yields one line of user input at a time. io.EOF ends the session.
type InputReader interface {
	ReadLine() (string, error)
}

// LineReader reads newline separated input from any reader
type LineReader struct {
	reader *bufio.Reader
}

func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{reader: bufio.NewReader(r)}
}

func (r *LineReader) ReadLine() (string, error) {
	line, err := r.reader.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Sender streams one message into a conversation
type Sender interface {
	Send(ctx context.Context, req client.SendRequest) (*client.Result, error)
}

type Config struct {
	Sender        Sender
	Canceller     *client.Canceller
	Conversations store.ConversationStore
	Namespace     string
	Input         InputReader
	Output        io.Writer
	// Prompt is printed before each line; empty for piped input
	Prompt string
	Styles Styles
}

// Runner is the interactive chat loop of the terminal client
type Runner struct {
	cfg       Config
	state     client.State
	streaming atomic.Bool
}

func NewRunner(cfg Config) *Runner {
	return &Runner{cfg: cfg}
}

// Run reads questions until /quit or end of input
func (r *Runner) Run(ctx context.Context) error {
	ctx = logger.WithNamespace(logger.WithAction(ctx, "ChatCLI"), r.cfg.Namespace)

	if err := r.load(ctx); err != nil {
		return err
	}

	r.println(r.cfg.Styles.Muted.Render(fmt.Sprintf("namespace %q, conversation %q. /help for commands.",
		r.cfg.Namespace, r.state.Selected.Name)))

	for {
		if ctx.Err() != nil {
			return nil
		}
		if r.cfg.Prompt != "" {
			r.print(r.cfg.Styles.Prompt.Render(r.cfg.Prompt))
		}

		line, err := r.cfg.Input.ReadLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}

		switch line {
		case "":
			continue
		case cmdQuit:
			return nil
		case cmdHelp:
			r.println(helpText)
		case cmdNew:
			r.newConversation(ctx)
		default:
			r.ask(ctx, line)
		}
	}
}

// Interrupt stops the answer being streamed. It reports false when nothing was running.
func (r *Runner) Interrupt() bool {
	if !r.streaming.Load() {
		return false
	}
	r.cfg.Canceller.Stop()
	return true
}

func (r *Runner) load(ctx context.Context) error {
	all, err := r.cfg.Conversations.LoadConversations(ctx, r.cfg.Namespace)
	if err != nil {
		return fmt.Errorf("load conversations: %w", err)
	}
	r.state = client.Apply(client.State{}, client.SetConversations(all))

	selected, err := r.cfg.Conversations.LoadConversation(ctx, r.cfg.Namespace)
	switch {
	case errors.Is(err, entity.ErrConversationNotFound):
		r.state = client.Apply(r.state, client.NewConversation(uuid.NewString()))
	case err != nil:
		return fmt.Errorf("load conversation: %w", err)
	default:
		r.state = client.Apply(r.state, client.SetSelected(*selected))
	}
	return nil
}

func (r *Runner) newConversation(ctx context.Context) {
	r.state = client.Apply(r.state, client.NewConversation(uuid.NewString()))

	single, all, err := store.UpdateConversation(ctx, r.cfg.Conversations, r.cfg.Namespace, *r.state.Selected, r.state.Conversations)
	if err != nil {
		ctxzap.Error(ctx, "failed to save new conversation", zap.Error(err))
		r.println(r.cfg.Styles.Error.Render("could not save the new conversation: " + err.Error()))
	}
	r.state = client.Apply(r.state, client.SetConversations(all), client.SetSelected(single))
	r.println(r.cfg.Styles.Muted.Render("started a new conversation"))
}

func (r *Runner) ask(ctx context.Context, question string) {
	r.state = client.Apply(r.state, client.SetLoading(true), client.SetStreaming(true))
	r.streaming.Store(true)
	defer func() {
		r.streaming.Store(false)
		r.state = client.Apply(r.state, client.SetLoading(false), client.SetStreaming(false))
	}()

	out := &diffPrinter{w: r.cfg.Output}
	res, err := r.cfg.Sender.Send(ctx, client.SendRequest{
		Conversation:  *r.state.Selected,
		Conversations: r.state.Conversations,
		Message:       question,
		Namespace:     r.cfg.Namespace,
		OnUpdate: func(c entity.Conversation) {
			out.update(lastAnswer(c))
		},
	})
	if res == nil {
		ctxzap.Warn(ctx, "chat request failed", zap.Error(err))
		r.println(r.cfg.Styles.Error.Render("error: " + describe(err)))
		return
	}
	out.finish()

	if err != nil {
		ctxzap.Error(ctx, "failed to persist conversation", zap.Error(err))
		r.println(r.cfg.Styles.Warning.Render("answer not saved: " + err.Error()))
	}
	switch {
	case res.Cancelled:
		r.println(r.cfg.Styles.Muted.Render("[stopped]"))
	case res.Truncated:
		r.println(r.cfg.Styles.Warning.Render("[answer cut short]"))
	case out.printed == "":
		r.println(r.cfg.Styles.Warning.Render("[empty answer]"))
	}

	r.state = client.Apply(r.state,
		client.SetConversations(res.Conversations),
		client.SetSelected(res.Conversation),
	)
}

func (r *Runner) print(s string) {
	_, _ = io.WriteString(r.cfg.Output, s)
}

func (r *Runner) println(s string) {
	_, _ = io.WriteString(r.cfg.Output, s+"\n")
}

func describe(err error) string {
	var statusErr *client.StatusError
	switch {
	case errors.As(err, &statusErr):
		return fmt.Sprintf("server answered %d %s", statusErr.StatusCode, statusErr.Status)
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case err == nil:
		return "unknown failure"
	}
	return err.Error()
}

func lastAnswer(c entity.Conversation) string {
	n := len(c.Messages)
	if n == 0 || c.Messages[n-1].Role != entity.RoleAssistant {
		return ""
	}
	return c.Messages[n-1].Content
}

// diffPrinter writes only what the answer gained since the last update
type diffPrinter struct {
	w       io.Writer
	printed string
}

func (p *diffPrinter) update(text string) {
	if strings.HasPrefix(text, p.printed) {
		_, _ = io.WriteString(p.w, text[len(p.printed):])
	} else {
		_, _ = io.WriteString(p.w, "\n"+text)
	}
	p.printed = text
}

func (p *diffPrinter) finish() {
	if p.printed != "" && !strings.HasSuffix(p.printed, "\n") {
		_, _ = io.WriteString(p.w, "\n")
	}
}
