package userinteraction

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"browsertools/internal/application/port/input"
	"browsertools/internal/application/port/output"
	"browsertools/internal/application/service"
	"browsertools/internal/domain/entity"

	"github.com/fatih/color"
)

const maxResultDisplay = 2000

// Console is a line-oriented REPL over the tool registry:
//
//	open_browser browser_type=firefox
//	navigate url="https://example.com/a b"
type Console struct {
	invoker input.ToolInvoker
	logger  output.LoggerPort
	in      *bufio.Reader
	out     io.Writer

	mu sync.Mutex
}

func NewConsole(invoker input.ToolInvoker, logger output.LoggerPort, in io.Reader, out io.Writer) *Console {
	return &Console{
		invoker: invoker,
		logger:  logger,
		in:      bufio.NewReader(in),
		out:     out,
	}
}

// Run reads commands until exit, EOF or ctx cancellation.
func (c *Console) Run(ctx context.Context) error {
	color.New(color.FgCyan, color.Bold).Fprintln(c.out, "━━━ browsertools console ━━━")
	fmt.Fprintln(c.out, "Type 'tools' to list tools, 'help' for syntax, 'exit' to quit.")

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		fmt.Fprint(c.out, "> ")

		line, err := c.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to read user input: %w", err)
		}
		eof := errors.Is(err, io.EOF)

		if quit := c.handleLine(ctx, strings.TrimSpace(line)); quit || eof {
			if eof {
				fmt.Fprintln(c.out)
			}
			return nil
		}
	}
}

func (c *Console) handleLine(ctx context.Context, line string) bool {
	if line == "" || strings.HasPrefix(line, "#") {
		return false
	}

	switch line {
	case "exit", "quit":
		return true
	case "help":
		c.showHelp()
		return false
	case "tools":
		c.showTools()
		return false
	}

	name, args, err := ParseLine(line)
	if err != nil {
		c.ShowToolResult(ctx, "", "Error: "+err.Error(), true)
		return false
	}

	c.ShowToolStart(ctx, name, args)

	c.mu.Lock()
	result := c.invoker.Invoke(ctx, name, args)
	c.mu.Unlock()

	c.ShowToolResult(ctx, name, result, IsFailure(result))
	return false
}

func (c *Console) ShowToolStart(ctx context.Context, toolName string, args map[string]string) {
	icon, name := getToolDisplay(toolName)
	color.New(color.FgYellow, color.Bold).Fprintf(c.out, "%s %s\n", icon, name)

	if summary := formatToolArguments(args); summary != "" {
		color.New(color.Faint).Fprintf(c.out, "   %s\n", summary)
	}
}

func (c *Console) ShowToolResult(ctx context.Context, toolName, result string, isError bool) {
	if isError {
		color.New(color.FgRed).Fprint(c.out, "❌ ")
		color.New(color.Faint).Fprintln(c.out, truncate(result, maxResultDisplay))
		return
	}
	color.New(color.FgGreen).Fprintf(c.out, "✓ %s\n", truncate(result, maxResultDisplay))
}

func (c *Console) showHelp() {
	fmt.Fprintln(c.out, "Usage: <tool> [key=value ...]")
	fmt.Fprintln(c.out, `Quote values that contain spaces: save_html file_path="my page.html"`)
	fmt.Fprintln(c.out, "Commands: tools, help, exit")
}

func (c *Console) showTools() {
	for _, def := range c.invoker.Definitions() {
		icon, _ := getToolDisplay(def.Name.String())
		color.New(color.Bold).Fprintf(c.out, "%s %s", icon, def.Name)
		for _, p := range def.Params {
			if p.Required {
				fmt.Fprintf(c.out, " %s=<%s>", p.Name, p.Type)
			} else {
				fmt.Fprintf(c.out, " [%s=%s]", p.Name, p.Default)
			}
		}
		fmt.Fprintln(c.out)
		color.New(color.Faint).Fprintf(c.out, "   %s\n", def.Description)
	}
}

// IsFailure reports whether a tool result text describes a failure.
func IsFailure(result string) bool {
	for _, prefix := range []string{"Error:", "Failed", "Unsupported browser type", "Browser closed with errors"} {
		if strings.HasPrefix(result, prefix) {
			return true
		}
	}
	return result == service.NotOpenMessage
}

// ParseLine splits "tool key=value key=\"quoted value\"" into a tool name
// and its arguments. Single and double quotes are supported; a backslash
// escapes the next character inside double quotes.
func ParseLine(line string) (string, map[string]string, error) {
	tokens, err := tokenize(line)
	if err != nil {
		return "", nil, err
	}
	if len(tokens) == 0 {
		return "", nil, errors.New("empty command")
	}

	args := make(map[string]string, len(tokens)-1)
	for _, tok := range tokens[1:] {
		key, value, ok := strings.Cut(tok, "=")
		if !ok || key == "" {
			return "", nil, fmt.Errorf("argument %q is not in key=value form", tok)
		}
		args[key] = value
	}
	return tokens[0], args, nil
}

func tokenize(line string) ([]string, error) {
	var (
		tokens  []string
		current strings.Builder
		quote   rune
		escaped bool
		inToken bool
	)
	for _, r := range line {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case quote != 0:
			switch {
			case r == '\\' && quote == '"':
				escaped = true
			case r == quote:
				quote = 0
			default:
				current.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inToken = true
		case r == ' ' || r == '\t':
			if inToken {
				tokens = append(tokens, current.String())
				current.Reset()
				inToken = false
			}
		default:
			current.WriteRune(r)
			inToken = true
		}
	}
	if quote != 0 || escaped {
		return nil, errors.New("unterminated quote")
	}
	if inToken {
		tokens = append(tokens, current.String())
	}
	return tokens, nil
}

func getToolDisplay(toolName string) (string, string) {
	displays := map[entity.ToolName][2]string{
		entity.ToolOpenBrowser:    {"🚀", "Open browser"},
		entity.ToolNavigate:       {"🌐", "Navigate"},
		entity.ToolGetHTML:        {"📄", "Get HTML"},
		entity.ToolSaveHTML:       {"💾", "Save HTML"},
		entity.ToolTakeScreenshot: {"📸", "Screenshot"},
		entity.ToolCurrentPage:    {"📍", "Current page"},
		entity.ToolCloseBrowser:   {"🛑", "Close browser"},
	}

	if display, ok := displays[entity.ToolName(toolName)]; ok {
		return display[0], display[1]
	}
	return "🔧", toolName
}

func formatToolArguments(args map[string]string) string {
	if len(args) == 0 {
		return ""
	}
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, truncate(args[k], 80)))
	}
	return strings.Join(parts, ", ")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
