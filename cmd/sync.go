package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/forgetools/forge/cli"
	"github.com/forgetools/forge/logging"
)

// NewSyncCmd creates the `sync` command.
func NewSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Summarize the project",
		Long: `Send a bounded slice of the project's files to the model and print its
summary. Large files are noted rather than included.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.GetOptions(cmd)
			pretty := logging.NewPrettyLogger()
			handler := cli.NewErrorHandler(opts.Verbose)

			c, _, err := daemonClient(cmd)
			if err != nil {
				return handler.Handle(err)
			}

			pretty.Info("Summarizing project ...")
			res, err := c.Sync(cmd.Context())
			if err != nil {
				return handler.Handle(err)
			}

			if opts.JSONOutput {
				return json.NewEncoder(os.Stdout).Encode(res)
			}

			fmt.Println(res.Summary)
			pretty.Blank()
			pretty.Field("files analyzed", fmt.Sprintf("%d of %d", res.FilesAnalyzed, res.TotalFiles))
			return nil
		},
	}
}
