package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/forgetools/forge/cli"
	"github.com/forgetools/forge/logging"
)

// NewModifyCmd creates the `modify` command, which stages a change
// without touching the file.
func NewModifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "modify <filepath> <instructions...>",
		Short: "Propose a change to an existing file",
		Long: `Ask the model to rewrite a file. The proposed change is staged as a
diff; the file on disk is untouched until you run 'forge confirm'.

Examples:
  # Stage a change
  forge modify internal/api/users.go "add pagination to the list endpoint"

  # Review, then apply or discard
  forge confirm internal/api/users.go
  forge cancel internal/api/users.go
`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.GetOptions(cmd)
			pretty := logging.NewPrettyLogger()
			handler := cli.NewErrorHandler(opts.Verbose)

			c, _, err := daemonClient(cmd)
			if err != nil {
				return handler.Handle(err)
			}

			path := args[0]
			instructions := strings.Join(args[1:], " ")

			pretty.Info("Proposing change to " + path + " ...")
			diff, err := c.Modify(cmd.Context(), path, instructions)
			if err != nil {
				return handler.Handle(err)
			}

			if strings.TrimSpace(diff) == "" {
				pretty.Warn("Model proposed no textual changes")
			} else {
				fmt.Println(diff)
			}
			pretty.Info("Staged. Run 'forge confirm " + path + "' to apply or 'forge cancel " + path + "' to discard.")
			return nil
		},
	}
}

// NewConfirmCmd creates the `confirm` command.
func NewConfirmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "confirm <filepath>",
		Short: "Apply the staged change for a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.GetOptions(cmd)
			pretty := logging.NewPrettyLogger()
			handler := cli.NewErrorHandler(opts.Verbose)

			c, _, err := daemonClient(cmd)
			if err != nil {
				return handler.Handle(err)
			}

			if err := c.Confirm(cmd.Context(), args[0]); err != nil {
				return handler.Handle(err)
			}
			pretty.Success("Applied change to " + args[0])
			return nil
		},
	}
}

// NewCancelCmd creates the `cancel` command.
func NewCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <filepath>",
		Short: "Discard the staged change for a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.GetOptions(cmd)
			pretty := logging.NewPrettyLogger()
			handler := cli.NewErrorHandler(opts.Verbose)

			c, _, err := daemonClient(cmd)
			if err != nil {
				return handler.Handle(err)
			}

			if err := c.Cancel(cmd.Context(), args[0]); err != nil {
				return handler.Handle(err)
			}
			pretty.Success("Discarded staged change for " + args[0])
			return nil
		},
	}
}
