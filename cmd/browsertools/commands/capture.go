package commands

import (
	"fmt"

	"browsertools/internal/application/port/input"
	"browsertools/internal/domain/entity"

	"github.com/spf13/cobra"
)

func newCaptureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capture <url> <file>",
		Short: "Open a browser, load a page and store its cleaned HTML",
		Long: `Open a browser, load a page and store its cleaned HTML.

--mode save normalizes in memory and writes the result (save_html).
--mode get writes the raw HTML and then cleans the file in place (get_html).`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, _ := cmd.Flags().GetString("mode")
			browserType, _ := cmd.Flags().GetString("browser")

			var htmlTool entity.ToolName
			switch mode {
			case "save":
				htmlTool = entity.ToolSaveHTML
			case "get":
				htmlTool = entity.ToolGetHTML
			default:
				return fmt.Errorf("unknown mode %q, use 'save' or 'get'", mode)
			}

			openArgs := map[string]string{}
			if browserType != "" {
				openArgs["browser_type"] = browserType
			}

			plan := input.Plan{
				Name: "capture",
				Steps: []input.PlanStep{
					{Tool: entity.ToolOpenBrowser.String(), Args: openArgs},
					{Tool: entity.ToolNavigate.String(), Args: map[string]string{"url": args[0]}},
					{Tool: htmlTool.String(), Args: map[string]string{"file_path": args[1]}},
					{Tool: entity.ToolCloseBrowser.String()},
				},
			}
			return runPlan(cmd, "capture", plan)
		},
	}
	cmd.Flags().String("mode", "save", "save (clean then write) or get (write then clean the file)")
	cmd.Flags().String("browser", "", "chromium, firefox or webkit (defaults to browser.default_type)")
	return cmd
}
