package mcp

import (
	"fmt"
	"strings"

	"github.com/bobmcallan/fund-portal/internal/common"
	"github.com/bobmcallan/fund-portal/internal/models"
	"github.com/bobmcallan/fund-portal/internal/view"
)

// formatSearchResults formats search matches as a markdown table.
func formatSearchResults(query string, results []models.SearchResult) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Fund Search: %s\n\n", query))
	if len(results) == 0 {
		sb.WriteString("No results found\n")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("%d %s\n\n", len(results), common.Pluralize(len(results), "match", "matches")))
	sb.WriteString("| Ticker | Name |\n")
	sb.WriteString("|--------|------|\n")
	for _, r := range results {
		sb.WriteString(fmt.Sprintf("| %s | %s |\n", r.Ticker, escapeCell(r.Name)))
	}
	return sb.String()
}

// formatFund formats one fund's details as markdown.
func formatFund(f *models.Fund) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s (%s)\n\n", f.Name, f.Ticker))
	sb.WriteString(fmt.Sprintf("**Management Company:** %s\n", f.ManagementCompany))
	sb.WriteString(fmt.Sprintf("**Category:** %s\n", f.GlobalCategory))
	sb.WriteString(fmt.Sprintf("**Fund Type:** %s\n", common.FormatFundType(f.IsIndexFund)))
	sb.WriteString("\n## Key Metrics\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Fund Size | %s |\n", common.FormatCurrency(f.FundSizeInUSD)))
	sb.WriteString(fmt.Sprintf("| Management Fee | %s |\n", common.FormatPercentage(f.ManagementFee)))
	sb.WriteString(fmt.Sprintf("| Net Expense Ratio | %s |\n", common.FormatPercentage(f.ProspectusNetExpense)))
	sb.WriteString(fmt.Sprintf("| Number of Holdings | %s |\n", common.FormatNumber(f.NumberOfHoldings)))
	sb.WriteString(fmt.Sprintf("| Morningstar Rating | %s |\n", common.FormatStars(f.MorningstarRating)))

	if s := strings.TrimSpace(f.InvestmentStrategy); s != "" {
		sb.WriteString("\n## Investment Strategy\n\n")
		sb.WriteString(s)
		sb.WriteString("\n")
	}
	return sb.String()
}

// formatComparison formats compared funds as a metric-by-fund markdown table,
// followed by any skipped tickers.
func formatComparison(funds []models.Fund, notes []string) string {
	var sb strings.Builder
	table := view.Comparison(funds)

	sb.WriteString(fmt.Sprintf("# %s\n\n", table.Heading))
	sb.WriteString("| Metric |")
	for _, t := range table.Tickers {
		sb.WriteString(fmt.Sprintf(" %s |", t))
	}
	sb.WriteString("\n|--------|")
	for range table.Tickers {
		sb.WriteString("------|")
	}
	sb.WriteString("\n")
	for _, row := range table.Rows {
		sb.WriteString(fmt.Sprintf("| %s |", row.Label))
		for _, v := range row.Values {
			sb.WriteString(fmt.Sprintf(" %s |", escapeCell(v)))
		}
		sb.WriteString("\n")
	}

	if len(notes) > 0 {
		sb.WriteString("\n**Skipped:**\n")
		for _, n := range notes {
			sb.WriteString(fmt.Sprintf("- %s\n", n))
		}
	}
	return sb.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
