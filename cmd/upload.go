package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/forgetools/forge/cli"
	"github.com/forgetools/forge/logging"
)

// NewUploadCmd creates the `upload` command.
func NewUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <local-file>",
		Short: "Copy a local file into the project's upload directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.GetOptions(cmd)
			pretty := logging.NewPrettyLogger()
			handler := cli.NewErrorHandler(opts.Verbose)

			f, err := os.Open(args[0])
			if err != nil {
				return handler.Handle(err)
			}
			defer f.Close()

			c, _, err := daemonClient(cmd)
			if err != nil {
				return handler.Handle(err)
			}

			stored, err := c.Upload(cmd.Context(), args[0], f)
			if err != nil {
				return handler.Handle(err)
			}
			pretty.Success("Uploaded to " + stored)
			return nil
		},
	}
}
