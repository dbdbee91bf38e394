package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/neuraltalk/chat-backend/internal/builder"
	"github.com/neuraltalk/chat-backend/internal/cli"
	"github.com/neuraltalk/chat-backend/internal/pkg/validator"
	"github.com/spf13/cobra"
)

var (
	envFlag       string
	namespaceFlag string
	chatbotFlag   string
)

var rootCmd = &cobra.Command{
	Use:   "chat-cli",
	Short: "Chat with a knowledge base from the terminal",
	Long: `chat-cli streams answers from the chat backend into the terminal.
Conversations are stored per namespace and resumed on the next start.`,
	SilenceUsage: true,
	RunE:         runChat,
}

func init() {
	rootCmd.Flags().StringVar(&envFlag, "env", "local", "environment to load (local, prod, or custom)")
	rootCmd.Flags().StringVarP(&namespaceFlag, "namespace", "n", "", "knowledge base namespace (defaults to CHAT_CLIENT_NAMESPACE)")
	rootCmd.Flags().StringVarP(&chatbotFlag, "bot", "b", "", "chatbot id whose namespace to use")
	rootCmd.MarkFlagsMutuallyExclusive("namespace", "bot")
}

func runChat(cmd *cobra.Command, _ []string) error {
	c, err := builder.BuildClient(envFlag)
	if err != nil {
		return fmt.Errorf("build client: %w", err)
	}
	defer c.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	namespace := c.Namespace
	switch {
	case namespaceFlag != "":
		namespace = namespaceFlag
	case chatbotFlag != "":
		bot, err := c.Consumer.Chatbot(ctx, chatbotFlag)
		if err != nil {
			return fmt.Errorf("resolve chatbot %s: %w", chatbotFlag, err)
		}
		namespace = bot.Namespace
	}
	if err := validator.ValidateNamespace(namespace); err != nil {
		return fmt.Errorf("choose a knowledge base with --namespace or --bot: %w", err)
	}

	out := cmd.OutOrStdout()
	prompt := ""
	if isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		prompt = "> "
	}

	runner := cli.NewRunner(cli.Config{
		Sender:        c.Consumer,
		Canceller:     c.Canceller,
		Conversations: c.Conversations,
		Namespace:     namespace,
		Input:         cli.NewLineReader(cmd.InOrStdin()),
		Output:        out,
		Prompt:        prompt,
		Styles:        cli.NewStyles(out),
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	for {
		select {
		case err := <-done:
			return err
		case sig := <-sigChan:
			if sig == os.Interrupt && runner.Interrupt() {
				continue
			}
			// an idle runner is blocked on stdin, which cannot be interrupted
			cancel()
			return nil
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
