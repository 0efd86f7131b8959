package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bobmcallan/fund-portal/internal/models"
)

// StatusError is returned when the fund service answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fund service returned %d: %s", e.Code, e.Body)
}

// IsNotFound reports whether err is a 404 from the fund service.
func IsNotFound(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusNotFound
	}
	return false
}

// FundClient communicates with the external fund search/detail service.
type FundClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewFundClient creates a client targeting the given fund service URL.
// timeout bounds every request; zero means 10s.
func NewFundClient(baseURL string, timeout time.Duration) *FundClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &FundClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the fund service URL the client targets.
func (c *FundClient) BaseURL() string {
	return c.baseURL
}

// Search queries funds by free text.
// GET /api/funds/search?query={text} -> [SearchResult]
func (c *FundClient) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	endpoint := c.baseURL + "/api/funds/search?query=" + url.QueryEscape(query)

	var results []models.SearchResult
	if err := c.getJSON(ctx, endpoint, &results); err != nil {
		return nil, err
	}
	if results == nil {
		results = []models.SearchResult{}
	}
	return results, nil
}

// GetFund fetches one fund by ticker.
// GET /api/funds/{ticker} -> Fund
func (c *FundClient) GetFund(ctx context.Context, ticker string) (*models.Fund, error) {
	endpoint := c.baseURL + "/api/funds/" + url.PathEscape(ticker)

	var fund models.Fund
	if err := c.getJSON(ctx, endpoint, &fund); err != nil {
		return nil, err
	}
	return &fund, nil
}

func (c *FundClient) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach fund service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
