package commands

import (
	"fmt"
	"io"

	"browsertools/internal/application/port/input"
	"browsertools/internal/di"
	"browsertools/internal/infrastructure/userinteraction"
	"browsertools/internal/usecase/executor"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <plan.yaml>",
		Short: "Execute a YAML plan of tool calls",
		Long: `Execute a YAML plan of tool calls. The browser is closed when the plan ends.

  name: example
  steps:
    - tool: open_browser
    - tool: navigate
      args: {url: "https://example.com"}
    - tool: save_html
      args: {file_path: example.html}`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := executor.LoadPlan(args[0])
			if err != nil {
				return err
			}
			return runPlan(cmd, "run", plan)
		},
	}
}

// runPlan executes plan in a fresh container and prints every observation.
// It fails when any step reported a failure.
func runPlan(cmd *cobra.Command, logName string, plan input.Plan) (err error) {
	container, err := buildContainer(cmd, logName)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := container.Close(); err == nil {
			err = cerr
		}
	}()

	return executePlan(cmd, container, plan)
}

func executePlan(cmd *cobra.Command, container *di.Container, plan input.Plan) error {
	result, err := container.PlanExecutor.Execute(cmd.Context(), plan)
	if result != nil {
		printSteps(cmd.OutOrStdout(), result)
	}
	if err != nil {
		return err
	}

	failed := 0
	for _, step := range result.Steps {
		if userinteraction.IsFailure(step.Output) {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d steps failed", failed, len(result.Steps))
	}
	return nil
}

func printSteps(w io.Writer, result *input.ExecuteResult) {
	for i, step := range result.Steps {
		c := color.New(color.FgGreen)
		if userinteraction.IsFailure(step.Output) {
			c = color.New(color.FgRed)
		}
		c.Fprintf(w, "[%d] %s: ", i+1, step.Tool)
		fmt.Fprintln(w, step.Output)
	}
}
