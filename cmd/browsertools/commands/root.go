package commands

import (
	"fmt"

	"browsertools/internal/di"
	"browsertools/internal/infrastructure/config"
	"browsertools/internal/infrastructure/env"

	"github.com/spf13/cobra"
)

// newContainer is swapped in tests to avoid launching real engines.
var newContainer = di.NewContainer

// NewRootCmd builds the `browsertools` command tree.
func NewRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "browsertools",
		Short: "Browser automation tools for LLM agents",
		Long: `browsertools drives a single browser session through a small set of
named tools (open_browser, navigate, get_html, save_html, ...) and exposes
them over MCP, HTTP, an interactive console or scripted YAML plans.

Configuration is read from an optional YAML file and then from the
environment (.env and .env.<APP_ENV> are loaded when present).`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("config", "", "path to a YAML config file")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	root.PersistentFlags().String("env-dir", ".", "directory holding .env files")

	root.AddCommand(
		newServeCmd(version),
		newConsoleCmd(),
		newRunCmd(),
		newCaptureCmd(),
		newToolsCmd(),
	)
	return root
}

// resolveConfig loads defaults, the --config file and the environment, and
// applies --verbose.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	configPath, _ := cmd.Root().PersistentFlags().GetString("config")
	envDir, _ := cmd.Root().PersistentFlags().GetString("env-dir")
	verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")

	cfg, err := config.Load(configPath, env.NewEnvService(envDir))
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

func buildContainer(cmd *cobra.Command, logName string) (*di.Container, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return nil, err
	}
	container, err := newContainer(di.Options{Config: cfg, LogName: logName})
	if err != nil {
		return nil, fmt.Errorf("initialize: %w", err)
	}
	return container, nil
}
