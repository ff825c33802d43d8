package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/forgetools/forge/cli"
	"github.com/forgetools/forge/logging"
)

// NewGenerateCmd creates the `generate` command.
func NewGenerateCmd() *cobra.Command {
	var relevantFiles []string

	cmd := &cobra.Command{
		Use:   "generate <filename> <instructions...>",
		Short: "Generate a new file from instructions",
		Long: `Ask the model to create a new file under the project root. The file is
written immediately and opened in your editor.

Examples:
  # Generate a new handler
  forge generate internal/api/users.go "HTTP handler for user CRUD"

  # Give the model existing files as context
  forge generate cmd/migrate.go "migration runner" -r internal/db/db.go
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

			filename := args[0]
			instructions := strings.Join(args[1:], " ")

			pretty.Info("Generating " + filename + " ...")
			path, err := c.Generate(cmd.Context(), filename, instructions, relevantFiles)
			if err != nil {
				return handler.Handle(err)
			}

			pretty.Success("Generated " + path)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&relevantFiles, "relevant", "r", nil, "Project files to include as context (comma-separated)")
	return cmd
}
