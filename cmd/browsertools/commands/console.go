package commands

import (
	"browsertools/internal/infrastructure/userinteraction"

	"github.com/spf13/cobra"
)

func newConsoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Drive the browser tools interactively",
		Long: `Start an interactive console. Each line is a tool call:

  open_browser browser_type=firefox
  navigate url=https://example.com
  save_html file_path="page.html"
  close_browser`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			container, err := buildContainer(cmd, "console")
			if err != nil {
				return err
			}
			defer func() {
				if cerr := container.Close(); err == nil {
					err = cerr
				}
			}()

			console := userinteraction.NewConsole(container.Tools, container.Logger, cmd.InOrStdin(), cmd.OutOrStdout())
			return console.Run(cmd.Context())
		},
	}
}
