package input

import (
	"context"

	"browsertools/internal/domain/entity"
)

type PlanStep struct {
	Tool string            `yaml:"tool" json:"tool"`
	Args map[string]string `yaml:"args,omitempty" json:"args,omitempty"`
}

type Plan struct {
	Name  string     `yaml:"name,omitempty" json:"name,omitempty"`
	Steps []PlanStep `yaml:"steps" json:"steps"`
}

type StepResult struct {
	Tool   string
	Output string
}

type ExecuteResult struct {
	Steps []StepResult
}

// PlanExecutor runs a fixed sequence of tool calls, the scripted counterpart
// of an agent loop.
type PlanExecutor interface {
	Execute(ctx context.Context, plan Plan) (*ExecuteResult, error)
}

// ToolInvoker is the controller-facing boundary: named string arguments in,
// one string out.
type ToolInvoker interface {
	Definitions() []entity.ToolDefinition
	Invoke(ctx context.Context, name string, args map[string]string) string
	InvokeJSON(ctx context.Context, name string, rawArgs string) string
	Has(name string) bool
}
