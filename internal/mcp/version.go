package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/fund-portal/internal/config"
)

// VersionTool returns the mcp.Tool definition for get_version.
func VersionTool() mcp.Tool {
	return mcp.NewTool("get_version",
		mcp.WithDescription("Get the fund portal version. Use this to verify connectivity."),
	)
}

// VersionToolHandler reports the portal build information as JSON.
func VersionToolHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out, err := json.Marshal(config.GetBuildInfo())
		if err != nil {
			return mcp.NewToolResultError("failed to marshal version info"), nil
		}
		return mcp.NewToolResultText(string(out)), nil
	}
}
