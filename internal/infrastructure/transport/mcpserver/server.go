// Package mcpserver exposes the tool registry over the Model Context
// Protocol on stdio.
package mcpserver

import (
	"context"
	"io"
	"log"
	"sync"

	"browsertools/internal/application/port/input"
	"browsertools/internal/application/port/output"
	"browsertools/internal/domain/entity"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const ServerName = "browsertools"

type Server struct {
	invoker input.ToolInvoker
	logger  output.LoggerPort
	mcp     *server.MCPServer

	// mu serializes calls; the browser session is single-threaded.
	mu sync.Mutex
}

func New(invoker input.ToolInvoker, logger output.LoggerPort, version string) *Server {
	s := &Server{
		invoker: invoker,
		logger:  logger,
		mcp:     server.NewMCPServer(ServerName, version, server.WithToolCapabilities(false)),
	}
	for _, def := range invoker.Definitions() {
		s.mcp.AddTool(toMCPTool(def), s.handler(def))
	}
	return s
}

// Serve speaks MCP over the given streams until ctx is done or stdin closes.
func (s *Server) Serve(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(log.New(logWriter{s.logger}, "", 0))
	s.logger.Info("MCP server listening on stdio", "tools", len(s.invoker.Definitions()))
	return stdio.Listen(ctx, stdin, stdout)
}

func (s *Server) handler(def entity.ToolDefinition) server.ToolHandlerFunc {
	name := def.Name.String()
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw := req.GetArguments()
		args := make(map[string]string, len(def.Params))
		for _, p := range def.Params {
			if v := mcp.ExtractString(raw, p.Name); v != "" {
				args[p.Name] = v
			}
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		return mcp.NewToolResultText(s.invoker.Invoke(ctx, name, args)), nil
	}
}

func toMCPTool(def entity.ToolDefinition) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(def.Description)}
	for _, p := range def.Params {
		popts := []mcp.PropertyOption{mcp.Description(p.Description)}
		if p.Required {
			popts = append(popts, mcp.Required())
		}
		if p.Default != "" {
			popts = append(popts, mcp.DefaultString(p.Default))
		}
		if len(p.Enum) > 0 {
			popts = append(popts, mcp.Enum(p.Enum...))
		}
		opts = append(opts, mcp.WithString(p.Name, popts...))
	}
	return mcp.NewTool(def.Name.String(), opts...)
}

// logWriter routes the stdio server's error log into the file logger so
// nothing but protocol frames reaches stdout.
type logWriter struct {
	logger output.LoggerPort
}

func (w logWriter) Write(p []byte) (int, error) {
	w.logger.Warn("MCP transport", "detail", string(p))
	return len(p), nil
}
