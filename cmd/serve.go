package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/agentic-research/proflow/internal/ingest"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve pipeline tools to MCP clients over stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.ServeStdio(newMCPServer())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func newMCPServer() *server.MCPServer {
	s := server.NewMCPServer("proflow", "0.1.0", server.WithToolCapabilities(false))

	s.AddTool(mcp.NewTool("run_pipeline",
		mcp.WithDescription("Run a pipeline definition against state/config/parameters/external documents and return the final state and populated log rows"),
		mcp.WithString("definition", mcp.Required(), mcp.Description("Path to a .hcl, .yaml or .json pipeline definition")),
		mcp.WithString("state", mcp.Description("Initial state document")),
		mcp.WithString("config", mcp.Description("Config document")),
		mcp.WithString("parameters", mcp.Description("Parameters document")),
		mcp.WithString("external", mcp.Description("External data document")),
		mcp.WithString("external_select", mcp.Description("JSONPath selecting external rows")),
		mcp.WithNumber("times", mcp.Description("Number of passes (default 1)")),
	), handleRunPipeline)

	s.AddTool(mcp.NewTool("resolve_path",
		mcp.WithDescription("Resolve a dot path or JSONPath against a JSON or YAML document"),
		mcp.WithString("document", mcp.Required(), mcp.Description("Path to the document")),
		mcp.WithString("path", mcp.Required(), mcp.Description("Dot path (a.b.0, matrix._.1) or JSONPath ($.a[*])")),
	), handleResolvePath)

	return s
}

func handleRunPipeline(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	def, err := req.RequireString("definition")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	src := sources{
		Definition:     def,
		State:          req.GetString("state", ""),
		Config:         req.GetString("config", ""),
		Parameters:     req.GetString("parameters", ""),
		External:       req.GetString("external", ""),
		ExternalSelect: req.GetString("external_select", ""),
	}
	s, err := openSession(hostFS(), src)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	state, err := s.run(req.GetInt("times", 1))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	logs := make(map[string]any)
	for _, i := range s.runner.LogTable().Populated() {
		logs[fmt.Sprint(i)] = s.runner.LogTable().Row(i)
	}
	return jsonResult(map[string]any{
		"state": state,
		"logs":  logs,
		"clock": s.runner.Clock().String(),
	})
}

func handleResolvePath(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docPath, err := req.RequireString("document")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := loadDoc(hostFS(), docPath)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	v, err := ingest.Query(doc, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(v)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}
