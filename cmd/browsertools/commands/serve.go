package commands

import (
	"os"

	"browsertools/internal/infrastructure/transport/httpserver"
	"browsertools/internal/infrastructure/transport/mcpserver"

	"github.com/spf13/cobra"
)

func newServeCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose the browser tools to a remote controller",
	}
	cmd.AddCommand(newServeMCPCmd(version), newServeHTTPCmd())
	return cmd
}

func newServeMCPCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the tools over MCP on stdin/stdout",
		Long: `Serve the tools over the Model Context Protocol on stdin/stdout.

Logs go to the log directory only; stdout carries protocol frames.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			container, err := buildContainer(cmd, "mcp")
			if err != nil {
				return err
			}
			defer func() {
				if cerr := container.Close(); err == nil {
					err = cerr
				}
			}()

			srv := mcpserver.New(container.Tools, container.Logger, version)
			return srv.Serve(cmd.Context(), os.Stdin, os.Stdout)
		},
	}
}

func newServeHTTPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "http",
		Short: "Serve the tools over HTTP",
		Long: `Serve the tools over HTTP.

Endpoints:
  GET  /tools          tool definitions as JSON
  POST /tools/{name}   invoke a tool with a JSON object of arguments
  GET  /healthz        liveness
  GET  /metrics        prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			container, err := buildContainer(cmd, "http")
			if err != nil {
				return err
			}
			defer func() {
				if cerr := container.Close(); err == nil {
					err = cerr
				}
			}()

			addr, _ := cmd.Flags().GetString("addr")
			if addr == "" {
				addr = container.Config.HTTP.Addr
			}
			srv := httpserver.New(container.Tools, container.Logger, httpserver.Config{
				Addr:      addr,
				AccessLog: os.Stderr,
				Gatherer:  container.Registry,
			})
			return srv.ListenAndServe(cmd.Context())
		},
	}
	cmd.Flags().String("addr", "", "listen address (overrides http.addr)")
	return cmd
}
