package cmd

import (
	"github.com/spf13/cobra"

	"github.com/forgetools/forge/cli"
	"github.com/forgetools/forge/logging"
	"github.com/forgetools/forge/util/pathutil"
)

// NewRootCmd creates the `root` command, which points the daemon at a
// project directory.
func NewRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "root <path>",
		Short: "Set the active project root",
		Long: `Set the directory the daemon operates on. All file paths in other
commands are resolved relative to this root.

Examples:
  # Use the current directory
  forge root .

  # Use an absolute path
  forge root ~/src/myproject
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.GetOptions(cmd)
			pretty := logging.NewPrettyLogger()
			handler := cli.NewErrorHandler(opts.Verbose)

			abs, err := pathutil.Expand(args[0])
			if err != nil {
				return handler.Handle(err)
			}

			c, _, err := daemonClient(cmd)
			if err != nil {
				return handler.Handle(err)
			}

			root, err := c.SetProjectRoot(cmd.Context(), abs)
			if err != nil {
				return handler.Handle(err)
			}

			pretty.Success("Project root set")
			pretty.Field("root", root)
			return nil
		},
	}
}
