// Package registrar registers the fixer as an MCP tool.
package registrar

import (
	"context"
	"io"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/lomakinroman97/code-fixer-agent-mcp-service/pkg/fixer"
)

const (
	ServerName   = "code-fixer"
	FixToolName  = "fix_code"
	fixToolUsage = "Fix a bug in a source file under the service root. Returns the complete corrected file."
)

// Fixer is the operation behind the fix_code tool.
type Fixer interface {
	FixCode(ctx context.Context, req fixer.Request) fixer.Outcome
}

// ToolRegistrar handles tool registration
type ToolRegistrar struct {
	fixer  Fixer
	logger zerolog.Logger
}

func NewToolRegistrar(f Fixer, logger zerolog.Logger) *ToolRegistrar {
	return &ToolRegistrar{
		fixer:  f,
		logger: logger.With().Str("component", "tool_registrar").Logger(),
	}
}

// NewMCPServer creates an MCP server with the fixer tools registered.
func (tr *ToolRegistrar) NewMCPServer(version string) *server.MCPServer {
	mcpServer := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(true),
		server.WithLogging(),
	)
	tr.RegisterAll(mcpServer)
	return mcpServer
}

// RegisterAll registers all tools with the MCP server
func (tr *ToolRegistrar) RegisterAll(mcpServer *server.MCPServer) {
	fixTool := mcp.Tool{
		Name:        FixToolName,
		Description: fixToolUsage,
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"file_path": map[string]interface{}{
					"type":        "string",
					"description": "Path of the file to fix, relative to the service root",
				},
				"bug_description": map[string]interface{}{
					"type":        "string",
					"description": "What is wrong with the code",
				},
			},
			Required: []string{"file_path", "bug_description"},
		},
	}
	mcpServer.AddTool(fixTool, tr.handleFixCode)
	tr.logger.Info().Str("tool", FixToolName).Msg("Registered tool")
}

func (tr *ToolRegistrar) handleFixCode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	arguments := req.GetArguments()
	filePath, _ := arguments["file_path"].(string)
	bugDescription, _ := arguments["bug_description"].(string)

	outcome := tr.fixer.FixCode(context.WithoutCancel(ctx), fixer.Request{
		FilePath:       filePath,
		BugDescription: bugDescription,
	})

	if outcome.OK() {
		return textResult(outcome.FixedCode, false), nil
	}
	message := outcome.Failure.Detail
	if outcome.Failure.Reason == fixer.InternalError {
		message = fixer.InternalErrorMessage
	}
	return textResult(message, true), nil
}

func textResult(text string, isError bool) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: text,
			},
		},
		IsError: isError,
	}
}

// ServeStdio serves mcpServer over in and out until ctx is cancelled or in
// is closed.
func ServeStdio(ctx context.Context, mcpServer *server.MCPServer, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(mcpServer).Listen(ctx, in, out)
}
