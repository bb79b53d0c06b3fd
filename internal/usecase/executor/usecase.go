package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"browsertools/internal/application/port/input"
	"browsertools/internal/application/port/output"
	"browsertools/internal/domain/entity"

	"gopkg.in/yaml.v3"
)

var _ input.PlanExecutor = (*UseCase)(nil)

const (
	maxSteps          = 200
	maxObservationLen = 20000
)

// UseCase runs a scripted plan of tool calls and always releases the
// browser afterwards.
type UseCase struct {
	tools  input.ToolInvoker
	logger output.LoggerPort
}

func New(tools input.ToolInvoker, logger output.LoggerPort) *UseCase {
	return &UseCase{
		tools:  tools,
		logger: logger,
	}
}

func (uc *UseCase) Execute(ctx context.Context, plan input.Plan) (*input.ExecuteResult, error) {
	if err := uc.validate(plan); err != nil {
		return nil, err
	}
	defer uc.closeBrowser(ctx)

	result := &input.ExecuteResult{Steps: make([]input.StepResult, 0, len(plan.Steps))}
	for i, step := range plan.Steps {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("plan interrupted at step %d: %w", i+1, err)
		}
		uc.logger.Debug("Starting step", "step", i+1, "tool", step.Tool)

		observation := truncateObservation(uc.tools.Invoke(ctx, step.Tool, step.Args), maxObservationLen)

		result.Steps = append(result.Steps, input.StepResult{Tool: step.Tool, Output: observation})
	}

	uc.logger.Info("Plan finished", "plan", plan.Name, "steps", len(result.Steps))
	return result, nil
}

func (uc *UseCase) validate(plan input.Plan) error {
	if len(plan.Steps) == 0 {
		return errors.New("plan has no steps")
	}
	if len(plan.Steps) > maxSteps {
		return fmt.Errorf("plan has %d steps, limit is %d", len(plan.Steps), maxSteps)
	}
	var errs []error
	for i, step := range plan.Steps {
		if !uc.tools.Has(step.Tool) {
			errs = append(errs, fmt.Errorf("step %d: unknown tool '%s'", i+1, step.Tool))
		}
	}
	return errors.Join(errs...)
}

func (uc *UseCase) closeBrowser(ctx context.Context) {
	if !uc.tools.Has(entity.ToolCloseBrowser.String()) {
		return
	}
	out := uc.tools.Invoke(context.WithoutCancel(ctx), entity.ToolCloseBrowser.String(), nil)
	uc.logger.Debug("Browser released after plan", "result", out)
}

// LoadPlan reads a YAML plan file:
//
//	name: snapshot
//	steps:
//	  - tool: open_browser
//	  - tool: navigate
//	    args: {url: https://example.com}
func LoadPlan(path string) (input.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return input.Plan{}, fmt.Errorf("read plan: %w", err)
	}
	return ParsePlan(data)
}

func ParsePlan(data []byte) (input.Plan, error) {
	var plan input.Plan
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&plan); err != nil {
		return input.Plan{}, fmt.Errorf("parse plan: %w", err)
	}
	return plan, nil
}

// truncateObservation cuts s to at most maxLen bytes on a rune boundary.
func truncateObservation(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "\n... (truncated)"
}
