package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/forgetools/forge/cli"
	"github.com/forgetools/forge/logging"
)

// NewChatCmd creates the `chat` command. With arguments it sends a single
// message; without it starts an interactive loop.
func NewChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat [message...]",
		Short: "Chat with the model about the project",
		Long: `Send a message to the model. Conversation history is kept by the
daemon, so follow-up questions have context.

Examples:
  # One-shot question
  forge chat "where is the retry logic?"

  # Interactive session (exit with Ctrl-D or 'exit')
  forge chat
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.GetOptions(cmd)
			pretty := logging.NewPrettyLogger()
			handler := cli.NewErrorHandler(opts.Verbose)

			c, _, err := daemonClient(cmd)
			if err != nil {
				return handler.Handle(err)
			}

			if len(args) > 0 {
				reply, err := c.Chat(cmd.Context(), strings.Join(args, " "))
				if err != nil {
					return handler.Handle(err)
				}
				fmt.Println(reply)
				return nil
			}

			pretty.Info("Interactive chat. Ctrl-D or 'exit' to quit.")
			scanner := bufio.NewScanner(os.Stdin)
			scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
			for {
				fmt.Print("> ")
				if !scanner.Scan() {
					fmt.Println()
					return nil
				}
				msg := strings.TrimSpace(scanner.Text())
				if msg == "" {
					continue
				}
				if msg == "exit" || msg == "quit" {
					return nil
				}

				reply, err := c.Chat(cmd.Context(), msg)
				if err != nil {
					handler.Handle(err)
					continue
				}
				fmt.Println(reply)
			}
		},
	}
}
