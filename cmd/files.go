package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/forgetools/forge/cli"
)

// NewFilesCmd creates the `files` command.
func NewFilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "files",
		Short: "List tracked project files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.GetOptions(cmd)
			handler := cli.NewErrorHandler(opts.Verbose)

			c, _, err := daemonClient(cmd)
			if err != nil {
				return handler.Handle(err)
			}

			files, err := c.Files(cmd.Context())
			if err != nil {
				return handler.Handle(err)
			}

			if opts.JSONOutput {
				return json.NewEncoder(os.Stdout).Encode(files)
			}
			for _, f := range files {
				fmt.Println(f)
			}
			return nil
		},
	}
}

// NewCatCmd creates the `cat` command.
func NewCatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cat <filepath>",
		Short: "Print a project file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.GetOptions(cmd)
			handler := cli.NewErrorHandler(opts.Verbose)

			c, _, err := daemonClient(cmd)
			if err != nil {
				return handler.Handle(err)
			}

			content, err := c.FileContent(cmd.Context(), args[0])
			if err != nil {
				return handler.Handle(err)
			}
			fmt.Print(content)
			return nil
		},
	}
}
