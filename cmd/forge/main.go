package main

import (
	"os"

	"github.com/forgetools/forge/cli"
	"github.com/forgetools/forge/cmd"
	"github.com/forgetools/forge/version"
)

func main() {
	info := version.GetInfo()

	rootCmd := cli.NewStandardCommand(
		"forge",
		"Local assistant daemon for generating and modifying project files",
	)
	rootCmd.Version = info.Version
	cli.SetVersionTemplate(rootCmd, cli.VersionInfo{
		Version:   info.Version,
		Commit:    info.Commit,
		BuildDate: info.BuildDate,
		BuildArch: info.Platform,
	})

	rootCmd.AddCommand(cmd.NewServeCmd())
	rootCmd.AddCommand(cmd.NewRootCmd())
	rootCmd.AddCommand(cmd.NewGenerateCmd())
	rootCmd.AddCommand(cmd.NewModifyCmd())
	rootCmd.AddCommand(cmd.NewConfirmCmd())
	rootCmd.AddCommand(cmd.NewCancelCmd())
	rootCmd.AddCommand(cmd.NewSyncCmd())
	rootCmd.AddCommand(cmd.NewChatCmd())
	rootCmd.AddCommand(cmd.NewFilesCmd())
	rootCmd.AddCommand(cmd.NewCatCmd())
	rootCmd.AddCommand(cmd.NewUploadCmd())
	rootCmd.AddCommand(cmd.NewStateCmd())
	rootCmd.AddCommand(cmd.NewLogsCmd())
	rootCmd.AddCommand(cmd.NewEditCmd())
	rootCmd.AddCommand(cli.NewVersionCommand("forge", cli.VersionInfo{
		Version:   info.Version,
		Commit:    info.Commit,
		BuildDate: info.BuildDate,
		BuildArch: info.Platform,
	}))

	cli.ApplyStyledHelpRecursive(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
