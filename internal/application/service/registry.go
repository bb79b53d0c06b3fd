package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"browsertools/internal/application/port/input"
	"browsertools/internal/application/port/output"
	"browsertools/internal/domain/entity"
)

// NotOpenMessage is returned by every session-bound tool invoked before
// open_browser.
const NotOpenMessage = "Browser is not opened. Please open browser first."

const (
	OutcomeOK           = "ok"
	OutcomeError        = "error"
	OutcomePrecondition = "precondition"
	OutcomeUnknown      = "unknown_tool"
)

// ToolHandler runs one tool. The returned string is what the controller
// sees; a non-nil error marks the call as failed for logs and metrics but is
// never passed on.
type ToolHandler func(ctx context.Context, args map[string]string) (string, error)

type Tool struct {
	Definition entity.ToolDefinition
	Handler    ToolHandler
}

var _ input.ToolInvoker = (*ToolRegistry)(nil)

// ToolRegistry dispatches controller calls by tool name. It owns the single
// BrowserSession all browser tools operate on.
type ToolRegistry struct {
	session *BrowserSession
	logger  output.LoggerPort
	metrics output.MetricsPort

	tools map[entity.ToolName]Tool
	order []entity.ToolName
}

func NewToolRegistry(session *BrowserSession, logger output.LoggerPort, metrics output.MetricsPort) *ToolRegistry {
	if metrics == nil {
		metrics = output.NopMetrics{}
	}
	return &ToolRegistry{
		session: session,
		logger:  logger,
		metrics: metrics,
		tools:   make(map[entity.ToolName]Tool),
	}
}

func (r *ToolRegistry) Session() *BrowserSession {
	return r.session
}

// Register adds or replaces a tool. Replacement keeps the original position.
func (r *ToolRegistry) Register(tool Tool) {
	name := tool.Definition.Name
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = tool
}

func (r *ToolRegistry) Get(name entity.ToolName) (Tool, bool) {
	tool, ok := r.tools[name]
	return tool, ok
}

func (r *ToolRegistry) Has(name string) bool {
	_, ok := r.tools[entity.ToolName(name)]
	return ok
}

func (r *ToolRegistry) Definitions() []entity.ToolDefinition {
	result := make([]entity.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.tools[name].Definition)
	}
	return result
}

// Invoke runs the named tool and always returns a string.
func (r *ToolRegistry) Invoke(ctx context.Context, name string, args map[string]string) (result string) {
	start := time.Now()
	outcome := OutcomeOK
	defer func() {
		r.metrics.ObserveToolCall(name, outcome, time.Since(start))
	}()

	tool, ok := r.tools[entity.ToolName(name)]
	if !ok {
		outcome = OutcomeUnknown
		r.logger.Warn("Unknown tool called", "name", name)
		return fmt.Sprintf("Error: unknown tool '%s'", name)
	}

	def := tool.Definition
	if def.RequiresSession && !r.session.IsOpen() {
		outcome = OutcomePrecondition
		r.logger.Info("Tool rejected, browser not open", "name", name)
		return NotOpenMessage
	}

	resolved, err := resolveArgs(def, args)
	if err != nil {
		outcome = OutcomeError
		r.logger.Warn("Tool called with bad arguments", "name", name, "error", err)
		return "Error: " + err.Error()
	}

	defer func() {
		if rec := recover(); rec != nil {
			outcome = OutcomeError
			r.logger.Error("Tool panicked", "name", name, "panic", fmt.Sprint(rec))
			result = fmt.Sprintf("Error: %s failed: %v", name, rec)
		}
	}()

	r.logger.Info("Executing tool", "name", name, "args", resolved)
	out, err := tool.Handler(ctx, resolved)
	if err != nil {
		outcome = OutcomeError
		r.logger.Error("Tool execution failed", "name", name, "error", err)
		if out == "" {
			out = "Error: " + err.Error()
		}
		return out
	}

	r.logger.Debug("Tool completed", "name", name, "resultLen", len(out), "duration_ms", time.Since(start).Milliseconds())
	return out
}

// InvokeJSON decodes a JSON object of named arguments and calls Invoke.
// Non-string values are stringified; an empty input means no arguments.
func (r *ToolRegistry) InvokeJSON(ctx context.Context, name string, rawArgs string) string {
	args, err := DecodeArgs(rawArgs)
	if err != nil {
		r.logger.Warn("Tool called with malformed JSON", "name", name, "error", err)
		return fmt.Sprintf("Error: invalid arguments for '%s': %v", name, err)
	}
	return r.Invoke(ctx, name, args)
}

// Close tears down the owned session.
func (r *ToolRegistry) Close() error {
	return r.session.Close()
}

// DecodeArgs turns a JSON object into named string arguments.
func DecodeArgs(raw string) (map[string]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]string{}, nil
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, err
	}

	args := make(map[string]string, len(decoded))
	for k, v := range decoded {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			args[k] = val
		default:
			b, err := json.Marshal(val)
			if err != nil {
				return nil, err
			}
			args[k] = string(b)
		}
	}
	return args, nil
}

func resolveArgs(def entity.ToolDefinition, args map[string]string) (map[string]string, error) {
	resolved := make(map[string]string, len(def.Params))
	for _, p := range def.Params {
		v, ok := args[p.Name]
		if !ok || strings.TrimSpace(v) == "" {
			if p.Required {
				return nil, fmt.Errorf("missing required argument '%s'", p.Name)
			}
			v = p.Default
		}
		resolved[p.Name] = v
	}
	return resolved, nil
}
