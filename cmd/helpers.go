package cmd

import (
	"github.com/spf13/cobra"

	"github.com/forgetools/forge/cli"
	"github.com/forgetools/forge/config"
	"github.com/forgetools/forge/pkg/client"
)

// loadConfig resolves the effective configuration for a command, honoring
// the --config flag.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	opts := cli.GetOptions(cmd)
	if opts.ConfigFile != "" {
		return config.Load(opts.ConfigFile)
	}
	return config.LoadDefault()
}

// daemonClient builds an API client for the configured daemon address.
func daemonClient(cmd *cobra.Command) (*client.Client, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	return client.New(cfg.Server.ListenAddr), cfg, nil
}
