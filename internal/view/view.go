// Package view turns UI state into display structs for the page templates.
// Builders are pure; rendering lives in renderer.go.
package view

import (
	"fmt"
	"strings"

	"github.com/bobmcallan/fund-portal/internal/common"
	"github.com/bobmcallan/fund-portal/internal/compare"
	"github.com/bobmcallan/fund-portal/internal/detail"
	"github.com/bobmcallan/fund-portal/internal/models"
	"github.com/bobmcallan/fund-portal/internal/search"
)

// Status is the render state of the search dropdown or the detail panel.
type Status string

const (
	StatusLoading Status = "loading"
	StatusError   Status = "error"
	StatusEmpty   Status = "empty"
	StatusReady   Status = "ready"
)

// SearchOption is one row of the search dropdown.
type SearchOption struct {
	Index       int
	Ticker      string
	Name        string
	Highlighted bool
}

// SearchView is the search box and its dropdown.
type SearchView struct {
	Query     string
	ShowClear bool
	Open      bool
	Status    Status
	Err       string
	Options   []SearchOption
}

// Search builds the search view. The dropdown is shown only while open with a
// non-blank query. Loading takes precedence over error, error over results.
func Search(s search.State) SearchView {
	v := SearchView{
		Query:     s.Query,
		ShowClear: s.Query != "",
		Open:      s.Open && strings.TrimSpace(s.Query) != "",
	}
	switch {
	case s.Loading:
		v.Status = StatusLoading
	case s.Err != "":
		v.Status = StatusError
		v.Err = s.Err
	case len(s.Results) == 0:
		v.Status = StatusEmpty
	default:
		v.Status = StatusReady
		v.Options = make([]SearchOption, len(s.Results))
		for i, r := range s.Results {
			v.Options[i] = SearchOption{
				Index:       i,
				Ticker:      r.Ticker,
				Name:        r.Name,
				Highlighted: i == s.Highlight,
			}
		}
	}
	return v
}

// DetailView is the fund detail panel.
type DetailView struct {
	Status             Status
	Err                string
	Ticker             string
	Name               string
	ManagementCompany  string
	FundSize           string
	FundType           string
	GlobalCategory     string
	ManagementFee      string
	NetExpenseRatio    string
	InvestmentStrategy string
	Comparing          bool
}

// Detail builds the detail panel. comparing marks a fund already in the comparison.
func Detail(d detail.State, comparing bool) DetailView {
	switch {
	case d.Loading:
		return DetailView{Status: StatusLoading}
	case d.Err != "":
		return DetailView{Status: StatusError, Err: d.Err}
	case d.Fund == nil:
		return DetailView{Status: StatusEmpty}
	}
	f := d.Fund
	return DetailView{
		Status:             StatusReady,
		Ticker:             f.Ticker,
		Name:               f.Name,
		ManagementCompany:  f.ManagementCompany,
		FundSize:           common.FormatCurrency(f.FundSizeInUSD),
		FundType:           common.FormatFundType(f.IsIndexFund),
		GlobalCategory:     f.GlobalCategory,
		ManagementFee:      common.FormatPercentage(f.ManagementFee),
		NetExpenseRatio:    common.FormatPercentage(f.ProspectusNetExpense),
		InvestmentStrategy: f.InvestmentStrategy,
		Comparing:          comparing,
	}
}

// FeeBar is one horizontal bar in the fee chart.
type FeeBar struct {
	Label    string
	Value    string
	WidthPct string
}

// ChartsView holds the visualizations for the current fund.
type ChartsView struct {
	Visible  bool
	FundSize string
	FundType string
	Fees     []FeeBar
	AxisMax  string
	Stars    string
	Rating   int
	Holdings string
}

// feeHeadroom stretches the fee axis past the largest fee.
const feeHeadroom = 1.2

// Charts builds the visualizations. Nothing is visible without a fund.
func Charts(f *models.Fund) ChartsView {
	if f == nil {
		return ChartsView{}
	}

	fees := []struct {
		label string
		value float64
	}{
		{"Management Fee", f.ManagementFee},
		{"Net Expense Ratio", f.ProspectusNetExpense},
	}
	maxFee := 0.0
	for _, fee := range fees {
		if fee.value > maxFee {
			maxFee = fee.value
		}
	}
	domain := maxFee * feeHeadroom

	bars := make([]FeeBar, len(fees))
	for i, fee := range fees {
		width := 0.0
		if domain > 0 && fee.value > 0 {
			width = fee.value / domain * 100
		}
		bars[i] = FeeBar{
			Label:    fee.label,
			Value:    common.FormatPercentage(fee.value),
			WidthPct: fmt.Sprintf("%.1f", width),
		}
	}

	rating := f.MorningstarRating
	if rating < 0 {
		rating = 0
	}
	if rating > 5 {
		rating = 5
	}

	return ChartsView{
		Visible:  true,
		FundSize: common.FormatCurrency(f.FundSizeInUSD),
		FundType: common.FormatFundType(f.IsIndexFund),
		Fees:     bars,
		AxisMax:  common.FormatPercentage(domain),
		Stars:    common.FormatStars(f.MorningstarRating),
		Rating:   rating,
		Holdings: common.FormatNumber(f.NumberOfHoldings),
	}
}

// ComparisonRow is one metric across all compared funds.
type ComparisonRow struct {
	Label  string
	Values []string
	Stars  bool
}

// ComparisonView is the comparison header, tags and metric table.
type ComparisonView struct {
	Count   int
	Heading string
	Tickers []string
	Rows    []ComparisonRow
	Full    bool
}

var comparisonMetrics = []struct {
	label string
	stars bool
	value func(models.Fund) string
}{
	{"Fund Name", false, func(f models.Fund) string { return f.Name }},
	{"Management Company", false, func(f models.Fund) string { return f.ManagementCompany }},
	{"Fund Size", false, func(f models.Fund) string { return common.FormatCurrency(f.FundSizeInUSD) }},
	{"Management Fee", false, func(f models.Fund) string { return common.FormatPercentage(f.ManagementFee) }},
	{"Net Expense Ratio", false, func(f models.Fund) string { return common.FormatPercentage(f.ProspectusNetExpense) }},
	{"Number of Holdings", false, func(f models.Fund) string { return common.FormatNumber(f.NumberOfHoldings) }},
	{"Morningstar Rating", true, func(f models.Fund) string { return common.FormatStars(f.MorningstarRating) }},
	{"Fund Type", false, func(f models.Fund) string { return common.FormatFundType(f.IsIndexFund) }},
	{"Category", false, func(f models.Fund) string { return f.GlobalCategory }},
}

// Comparison builds the comparison view. Empty input yields Count 0 and no rows.
func Comparison(funds []models.Fund) ComparisonView {
	v := ComparisonView{Count: len(funds), Full: len(funds) >= compare.MaxFunds}
	if len(funds) == 0 {
		return v
	}
	v.Heading = fmt.Sprintf("Comparing %d %s", len(funds), common.Pluralize(len(funds), "fund", "funds"))
	v.Tickers = make([]string, len(funds))
	for i, f := range funds {
		v.Tickers[i] = f.Ticker
	}
	v.Rows = make([]ComparisonRow, len(comparisonMetrics))
	for i, m := range comparisonMetrics {
		values := make([]string, len(funds))
		for j, f := range funds {
			values[j] = m.value(f)
		}
		v.Rows[i] = ComparisonRow{Label: m.label, Values: values, Stars: m.stars}
	}
	return v
}

// PageView is everything the full page renders.
type PageView struct {
	Title      string
	SessionID  string
	Dark       bool
	Version    string
	DevMode    bool
	Search     SearchView
	Detail     DetailView
	Charts     ChartsView
	Comparison ComparisonView
}
