package commands

import (
	"encoding/json"
	"fmt"

	"browsertools/internal/adapter/langchain"
	"browsertools/internal/adapter/openaiadapter"
	"browsertools/internal/di"
	"browsertools/internal/infrastructure/logger"

	"github.com/spf13/cobra"
)

type toolInfo struct {
	Name            string         `json:"name"`
	Description     string         `json:"description"`
	Parameters      map[string]any `json:"parameters"`
	RequiresSession bool           `json:"requires_session"`
}

type agentTool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func newToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Print the tool definitions",
		Long: `Print the tool definitions.

Formats:
  json       name, description, JSON schema and session requirement
  openai     OpenAI function-calling tool list
  langchain  names and descriptions as seen by langchaingo agents`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, _ := cmd.Flags().GetString("format")

			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			container, err := newContainer(di.Options{Config: cfg, Logger: logger.NewNop()})
			if err != nil {
				return err
			}
			defer container.Close()

			var payload any
			switch format {
			case "json":
				defs := container.Tools.Definitions()
				infos := make([]toolInfo, 0, len(defs))
				for _, def := range defs {
					infos = append(infos, toolInfo{
						Name:            def.Name.String(),
						Description:     def.Description,
						Parameters:      def.Parameters(),
						RequiresSession: def.RequiresSession,
					})
				}
				payload = infos
			case "openai":
				payload = openaiadapter.ToOpenAITools(container.Tools.Definitions())
			case "langchain":
				lcTools := langchain.FromInvoker(container.Tools)
				infos := make([]agentTool, 0, len(lcTools))
				for _, t := range lcTools {
					infos = append(infos, agentTool{Name: t.Name(), Description: t.Description()})
				}
				payload = infos
			default:
				return fmt.Errorf("unknown format %q, use json, openai or langchain", format)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(payload)
		},
	}
	cmd.Flags().String("format", "json", "output format: json, openai or langchain")
	return cmd
}
