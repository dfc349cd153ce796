package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/example/nexiatray/internal/config"
	"github.com/example/nexiatray/internal/logging"
)

type globalOptions struct {
	debug       bool
	overlayPath string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "nexiatray",
		Short:         "Nexia command relay and system tray",
		Long:          `Nexia relays voice-session commands and backend queries from the desktop to the backend cluster.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logging.Setup(cmd.ErrOrStderr())
			if opts.debug || logging.EnableDebugFromEnv(os.Getenv("NEXIATRAY_DEBUG")) {
				logging.EnableDebug()
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRelay(cmd, opts, true)
		},
	}

	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable verbose debug logging")
	root.PersistentFlags().StringVar(&opts.overlayPath, "config", "", "YAML or TOML settings overlay file")

	root.AddCommand(
		newRunCmd(opts),
		newServeCmd(opts),
		newStatusCmd(opts),
		newQueryCmd(opts),
		newSessionCmd(opts),
		newProcessCmd(opts),
		newConfigCmd(opts),
		newMCPCmd(opts),
	)
	return root
}

func (o *globalOptions) settings() (*config.Settings, error) {
	return config.Resolve(config.ResolveSecret(), o.overlayPath)
}
