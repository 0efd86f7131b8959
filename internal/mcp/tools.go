package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/fund-portal/internal/client"
	"github.com/bobmcallan/fund-portal/internal/common"
	"github.com/bobmcallan/fund-portal/internal/compare"
)

// RegisterTools adds every fund tool to s and returns how many were added.
func RegisterTools(s *server.MCPServer, svc Service, logger *common.Logger) int {
	tools := []server.ServerTool{
		{Tool: VersionTool(), Handler: VersionToolHandler()},
		{Tool: createSearchFundsTool(), Handler: handleSearchFunds(svc, logger)},
		{Tool: createGetFundTool(), Handler: handleGetFund(svc, logger)},
		{Tool: createCompareFundsTool(), Handler: handleCompareFunds(svc, logger)},
	}
	for _, t := range tools {
		s.AddTool(t.Tool, t.Handler)
	}
	return len(tools)
}

func createSearchFundsTool() mcp.Tool {
	return mcp.NewTool("search_funds",
		mcp.WithDescription("Search mutual funds by name or ticker. Returns matching tickers and fund names."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Fund name or ticker text, e.g. 'vanguard 500' or 'VFIAX'")),
	)
}

func createGetFundTool() mcp.Tool {
	return mcp.NewTool("get_fund",
		mcp.WithDescription("Get full details for one mutual fund: size, fees, holdings, Morningstar rating, category and strategy."),
		mcp.WithString("ticker", mcp.Required(), mcp.Description("Fund ticker, e.g. VFIAX")),
	)
}

func createCompareFundsTool() mcp.Tool {
	return mcp.NewTool("compare_funds",
		mcp.WithDescription(fmt.Sprintf("Compare up to %d mutual funds side by side. Extra or repeated tickers are reported and skipped.", compare.MaxFunds)),
		mcp.WithString("tickers", mcp.Required(), mcp.Description("Comma-separated tickers, e.g. 'VFIAX,FXAIX,SWPPX'")),
	)
}

func handleSearchFunds(svc Service, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil || strings.TrimSpace(query) == "" {
			return mcp.NewToolResultError("Error: query parameter is required"), nil
		}

		results, err := svc.Search(ctx, query)
		if err != nil {
			logger.Warn().Err(err).Str("query", query).Msg("search_funds failed")
			return mcp.NewToolResultError(fmt.Sprintf("Search error: %v", err)), nil
		}
		return mcp.NewToolResultText(formatSearchResults(query, results)), nil
	}
}

func handleGetFund(svc Service, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ticker, err := request.RequireString("ticker")
		if err != nil || strings.TrimSpace(ticker) == "" {
			return mcp.NewToolResultError("Error: ticker parameter is required"), nil
		}
		ticker = strings.ToUpper(strings.TrimSpace(ticker))

		f, err := svc.GetFund(ctx, ticker)
		if err != nil {
			return fundError(logger, ticker, err), nil
		}
		return mcp.NewToolResultText(formatFund(f)), nil
	}
}

func handleCompareFunds(svc Service, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := request.RequireString("tickers")
		if err != nil {
			return mcp.NewToolResultError("Error: tickers parameter is required"), nil
		}

		tickers := compare.ParseTickers(raw)
		if len(tickers) == 0 {
			return mcp.NewToolResultError("Error: tickers parameter is required"), nil
		}

		funds, rejected, err := compare.Build(ctx, svc, tickers)
		if err != nil {
			var fe *compare.FetchError
			if errors.As(err, &fe) {
				return fundError(logger, fe.Ticker, fe.Err), nil
			}
			return fundError(logger, raw, err), nil
		}
		notes := make([]string, len(rejected))
		for i, r := range rejected {
			notes[i] = fmt.Sprintf("%s skipped: %s", r.Ticker, r.Outcome.Message())
		}
		return mcp.NewToolResultText(formatComparison(funds, notes)), nil
	}
}

func fundError(logger *common.Logger, ticker string, err error) *mcp.CallToolResult {
	if client.IsNotFound(err) {
		return mcp.NewToolResultError(fmt.Sprintf("Fund %s not found", ticker))
	}
	logger.Warn().Err(err).Str("ticker", ticker).Msg("fund lookup failed")
	return mcp.NewToolResultError(fmt.Sprintf("Fund error: %v", err))
}
