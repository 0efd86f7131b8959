// Package mcp serves fund search, detail and comparison as MCP tools over
// streamable HTTP.
package mcp

import (
	"context"
	"net/http"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/fund-portal/internal/common"
	"github.com/bobmcallan/fund-portal/internal/config"
	"github.com/bobmcallan/fund-portal/internal/models"
)

// Service is the fund data the tools read from.
type Service interface {
	Search(ctx context.Context, query string) ([]models.SearchResult, error)
	GetFund(ctx context.Context, ticker string) (*models.Fund, error)
}

// Handler is the HTTP handler for the MCP endpoint.
// It wraps mcp-go's StreamableHTTPServer and delegates to it.
type Handler struct {
	streamable *mcpserver.StreamableHTTPServer
	logger     *common.Logger
}

// NewHandler creates the MCP handler with every fund tool registered.
func NewHandler(svc Service, logger *common.Logger) *Handler {
	mcpSrv := mcpserver.NewMCPServer(
		"fund-portal",
		config.GetVersion(),
		mcpserver.WithToolCapabilities(true),
	)

	n := RegisterTools(mcpSrv, svc, logger)

	streamable := mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithStateLess(true),
	)

	logger.Info().Int("tools", n).Msg("MCP handler initialized")

	return &Handler{
		streamable: streamable,
		logger:     logger,
	}
}

// ServeHTTP delegates to the mcp-go StreamableHTTPServer.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.streamable.ServeHTTP(w, r)
}
