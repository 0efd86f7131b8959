package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/bobmcallan/fund-portal/internal/client"
	"github.com/bobmcallan/fund-portal/internal/common"
	"github.com/bobmcallan/fund-portal/internal/config"
	"github.com/bobmcallan/fund-portal/internal/models"
)

var testFunds = map[string]models.Fund{
	"VFIAX": {Ticker: "VFIAX", Name: "Vanguard 500 Index Admiral", ManagementCompany: "Vanguard", FundSizeInUSD: 1.35e12, ManagementFee: 0.04, ProspectusNetExpense: 0.04, NumberOfHoldings: 504, MorningstarRating: 4, IsIndexFund: true, InvestmentStrategy: "Tracks the S&P 500."},
	"FXAIX": {Ticker: "FXAIX", Name: "Fidelity 500 Index", ManagementCompany: "Fidelity", FundSizeInUSD: 5.2e11, ManagementFee: 0.015, ProspectusNetExpense: 0.015, NumberOfHoldings: 507, MorningstarRating: 5, IsIndexFund: true},
	"SWPPX": {Ticker: "SWPPX", Name: "Schwab S&P 500 Index", ManagementCompany: "Schwab", FundSizeInUSD: 9.5e10, MorningstarRating: 4, IsIndexFund: true},
	"AGTHX": {Ticker: "AGTHX", Name: "American Funds Growth Fund of America", ManagementCompany: "Capital Group", FundSizeInUSD: 2.6e11, MorningstarRating: 3},
}

// newFundService stubs the external fund service.
func newFundService(t *testing.T) *client.FundClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/api/funds/search":
			q := strings.ToLower(r.URL.Query().Get("query"))
			out := []models.SearchResult{}
			for _, f := range testFunds {
				if strings.Contains(strings.ToLower(f.Name), q) {
					out = append(out, models.SearchResult{Ticker: f.Ticker, Name: f.Name})
				}
			}
			json.NewEncoder(w).Encode(out)
		case strings.HasPrefix(r.URL.Path, "/api/funds/"):
			f, ok := testFunds[strings.TrimPrefix(r.URL.Path, "/api/funds/")]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte(`{"error":"not found"}`))
				return
			}
			json.NewEncoder(w).Encode(f)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return client.NewFundClient(srv.URL, 2*time.Second)
}

func call(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]interface{}) (*mcp.CallToolResult, string) {
	t.Helper()
	request := mcp.CallToolRequest{}
	request.Params.Arguments = args
	result, err := handler(context.Background(), request)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	return result, result.Content[0].(mcp.TextContent).Text
}

func TestHandleSearchFunds_Success(t *testing.T) {
	handler := handleSearchFunds(newFundService(t), common.NewSilentLogger())

	result, text := call(t, handler, map[string]interface{}{"query": "vanguard"})
	if result.IsError {
		t.Fatalf("Expected success, got error: %s", text)
	}
	if !strings.Contains(text, "| VFIAX | Vanguard 500 Index Admiral |") {
		t.Errorf("Result should contain the match row, got:\n%s", text)
	}
	if !strings.Contains(text, "1 match") {
		t.Error("Result should count matches")
	}
}

func TestHandleSearchFunds_NoResults(t *testing.T) {
	handler := handleSearchFunds(newFundService(t), common.NewSilentLogger())

	_, text := call(t, handler, map[string]interface{}{"query": "zzzz"})
	if !strings.Contains(text, "No results found") {
		t.Errorf("expected empty message, got %s", text)
	}
}

func TestHandleSearchFunds_MissingQuery(t *testing.T) {
	handler := handleSearchFunds(newFundService(t), common.NewSilentLogger())

	for _, args := range []map[string]interface{}{{}, {"query": "   "}} {
		result, _ := call(t, handler, args)
		if !result.IsError {
			t.Errorf("Expected error result for %v", args)
		}
	}
}

func TestHandleGetFund(t *testing.T) {
	handler := handleGetFund(newFundService(t), common.NewSilentLogger())

	result, text := call(t, handler, map[string]interface{}{"ticker": "vfiax"})
	if result.IsError {
		t.Fatalf("Expected success, got error: %s", text)
	}
	for _, want := range []string{"# Vanguard 500 Index Admiral (VFIAX)", "$1350.00B", "0.04%", "★★★★☆", "Index Fund", "Tracks the S&P 500."} {
		if !strings.Contains(text, want) {
			t.Errorf("Result should contain %q", want)
		}
	}

	result, text = call(t, handler, map[string]interface{}{"ticker": "NOPE"})
	if !result.IsError || !strings.Contains(text, "Fund NOPE not found") {
		t.Errorf("expected not found error, got %s", text)
	}
}

func TestHandleGetFund_UpstreamDown(t *testing.T) {
	handler := handleGetFund(client.NewFundClient("http://127.0.0.1:1", time.Second), common.NewSilentLogger())

	result, text := call(t, handler, map[string]interface{}{"ticker": "VFIAX"})
	if !result.IsError || !strings.Contains(text, "Fund error") {
		t.Errorf("expected upstream error, got %s", text)
	}
}

func TestHandleCompareFunds(t *testing.T) {
	handler := handleCompareFunds(newFundService(t), common.NewSilentLogger())

	result, text := call(t, handler, map[string]interface{}{"tickers": "VFIAX, fxaix,VFIAX,SWPPX,AGTHX"})
	if result.IsError {
		t.Fatalf("Expected success, got error: %s", text)
	}
	if !strings.Contains(text, "# Comparing 3 funds") {
		t.Errorf("expected heading, got:\n%s", text)
	}
	if !strings.Contains(text, "| Metric | VFIAX | FXAIX | SWPPX |") {
		t.Errorf("expected ticker header in insertion order, got:\n%s", text)
	}
	if !strings.Contains(text, "VFIAX skipped: This fund is already in comparison") {
		t.Error("expected duplicate note")
	}
	if !strings.Contains(text, "AGTHX skipped: You can compare up to 3 funds at a time") {
		t.Error("expected capacity note")
	}
	if !strings.Contains(text, "| Fund Name | Vanguard 500 Index Admiral | Fidelity 500 Index | Schwab S&P 500 Index |") {
		t.Errorf("expected fund name row, got:\n%s", text)
	}
}

func TestHandleCompareFunds_Empty(t *testing.T) {
	handler := handleCompareFunds(newFundService(t), common.NewSilentLogger())

	result, _ := call(t, handler, map[string]interface{}{"tickers": " , "})
	if !result.IsError {
		t.Error("expected error for no tickers")
	}
}

func TestVersionToolHandler(t *testing.T) {
	result, text := call(t, VersionToolHandler(), map[string]interface{}{})
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", text)
	}
	var info config.BuildInfo
	if err := json.Unmarshal([]byte(text), &info); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if info.Version != config.GetVersion() {
		t.Errorf("expected version %s, got %s", config.GetVersion(), info.Version)
	}
}

func TestHandler_ListsTools(t *testing.T) {
	h := NewHandler(newFundService(t), common.NewSilentLogger())

	body := `{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{}}`
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	for _, name := range []string{"search_funds", "get_fund", "compare_funds", "get_version"} {
		if !strings.Contains(w.Body.String(), name) {
			t.Errorf("expected tool %s in tools/list response", name)
		}
	}
}
