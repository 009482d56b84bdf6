package main

import (
	"fmt"
	"os"

	"github.com/heimdex/heimdex-timeline/internal/config"
	"github.com/spf13/cobra"
)

var Version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "timeline",
		Short: "Heimdex timeline editing engine",
		Long: `Heimdex timeline editing engine

Runs a local HTTP API over one multi-track editing session, with undo/redo,
drag and resize interactions, and EDL export.`,
		Version:      Version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(configPath)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to a TOML config file (default: XDG config dir)")

	root.AddCommand(
		newServeCmd(&configPath),
		newExportCmd(),
		newSettingsCmd(&configPath),
	)
	return root
}

// loadConfig reads path when given, otherwise the default lookup chain.
func loadConfig(path string) (*config.EnvConfig, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.New()
}
