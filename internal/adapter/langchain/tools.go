// Package langchain exposes registry tools to langchaingo agents.
package langchain

import (
	"context"
	"fmt"
	"strings"

	"browsertools/internal/application/port/input"
	"browsertools/internal/domain/entity"

	"github.com/tmc/langchaingo/tools"
)

var _ tools.Tool = (*Tool)(nil)

// Tool forwards a langchaingo call to one registry tool. The agent's input
// is the JSON object of named arguments.
type Tool struct {
	def     entity.ToolDefinition
	invoker input.ToolInvoker
}

func NewTool(def entity.ToolDefinition, invoker input.ToolInvoker) *Tool {
	return &Tool{def: def, invoker: invoker}
}

// FromInvoker wraps every tool the invoker exposes.
func FromInvoker(invoker input.ToolInvoker) []tools.Tool {
	defs := invoker.Definitions()
	result := make([]tools.Tool, 0, len(defs))
	for _, def := range defs {
		result = append(result, NewTool(def, invoker))
	}
	return result
}

func (t *Tool) Name() string {
	return t.def.Name.String()
}

// Description appends the argument list, since langchaingo agents only see
// free text.
func (t *Tool) Description() string {
	if len(t.def.Params) == 0 {
		return t.def.Description + ". Input: {}"
	}
	parts := make([]string, 0, len(t.def.Params))
	for _, p := range t.def.Params {
		part := fmt.Sprintf("%q: %s", p.Name, p.Description)
		if !p.Required {
			part += " (optional)"
		}
		parts = append(parts, part)
	}
	return fmt.Sprintf("%s. Input: JSON object with %s", t.def.Description, strings.Join(parts, ", "))
}

// Call never returns an error: failures come back as text for the agent.
func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	return t.invoker.InvokeJSON(ctx, t.def.Name.String(), input), nil
}
