// Package api exposes fund search, detail and comparison as a versioned JSON
// API with an OpenAPI document.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bobmcallan/fund-portal/internal/client"
	"github.com/bobmcallan/fund-portal/internal/common"
	"github.com/bobmcallan/fund-portal/internal/compare"
	"github.com/bobmcallan/fund-portal/internal/models"
	"github.com/bobmcallan/fund-portal/internal/view"
)

// Service is the fund data the API reads from.
type Service interface {
	Search(ctx context.Context, query string) ([]models.SearchResult, error)
	GetFund(ctx context.Context, ticker string) (*models.Fund, error)
}

// NewServer builds the /api/v1 router.
func NewServer(svc Service, logger *common.Logger, version string) http.Handler {
	router := chi.NewMux()
	router.Use(middleware.StripSlashes)

	cfg := huma.DefaultConfig("Fund Portal API", version)
	cfg.OpenAPIPath = "/api/v1/openapi"
	cfg.DocsPath = ""
	cfg.SchemasPath = "/api/v1/schemas"
	api := humachi.New(router, cfg)

	registerFundHandlers(api, svc, logger)
	registerCompareHandlers(api, svc, logger)

	return router
}

type searchOutput struct {
	Body struct {
		Query   string                `json:"query"`
		Results []models.SearchResult `json:"results"`
	}
}

type fundOutput struct {
	Body models.Fund
}

func registerFundHandlers(api huma.API, svc Service, logger *common.Logger) {
	huma.Register(api, huma.Operation{OperationID: "search-funds", Method: http.MethodGet, Path: "/api/v1/funds/search", Summary: "Search funds by name or ticker", Tags: []string{"Funds"}},
		func(ctx context.Context, input *struct {
			Query string `query:"query" doc:"Free-text fund name or ticker. Blank returns no results without calling the fund service."`
		}) (*searchOutput, error) {
			out := &searchOutput{}
			out.Body.Query = input.Query
			out.Body.Results = []models.SearchResult{}
			if strings.TrimSpace(input.Query) == "" {
				return out, nil
			}
			results, err := svc.Search(ctx, input.Query)
			if err != nil {
				return nil, mapErr(logger, err, "search "+input.Query)
			}
			out.Body.Results = results
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "get-fund", Method: http.MethodGet, Path: "/api/v1/funds/{ticker}", Summary: "Get fund details", Tags: []string{"Funds"}},
		func(ctx context.Context, input *struct {
			Ticker string `path:"ticker" minLength:"1" doc:"Fund ticker, e.g. VFIAX"`
		}) (*fundOutput, error) {
			f, err := svc.GetFund(ctx, input.Ticker)
			if err != nil {
				return nil, mapErr(logger, err, "fund "+input.Ticker)
			}
			return &fundOutput{Body: *f}, nil
		})
}

// Rejection explains why a requested ticker was left out of a comparison.
type Rejection struct {
	Ticker  string `json:"ticker"`
	Reason  string `json:"reason" enum:"rejected_capacity,rejected_duplicate"`
	Message string `json:"message"`
}

// CompareRow is one formatted metric across the compared funds.
type CompareRow struct {
	Label  string   `json:"label"`
	Values []string `json:"values"`
}

type compareOutput struct {
	Body struct {
		Funds    []models.Fund `json:"funds"`
		Rows     []CompareRow  `json:"rows"`
		Rejected []Rejection   `json:"rejected"`
	}
}

func registerCompareHandlers(api huma.API, svc Service, logger *common.Logger) {
	huma.Register(api, huma.Operation{OperationID: "compare-funds", Method: http.MethodGet, Path: "/api/v1/compare", Summary: "Compare up to three funds side by side", Tags: []string{"Compare"}},
		func(ctx context.Context, input *struct {
			Tickers string `query:"tickers" doc:"Comma-separated tickers, at most 3 are compared"`
		}) (*compareOutput, error) {
			tickers := compare.ParseTickers(input.Tickers)
			if len(tickers) == 0 {
				return nil, huma.Error400BadRequest("tickers is required")
			}

			funds, rejected, err := compare.Build(ctx, svc, tickers)
			if err != nil {
				var fe *compare.FetchError
				if errors.As(err, &fe) {
					return nil, mapErr(logger, fe.Err, "fund "+fe.Ticker)
				}
				return nil, mapErr(logger, err, "compare")
			}

			out := &compareOutput{}
			out.Body.Rejected = make([]Rejection, len(rejected))
			for i, r := range rejected {
				out.Body.Rejected[i] = Rejection{Ticker: r.Ticker, Reason: r.Outcome.String(), Message: r.Outcome.Message()}
			}
			out.Body.Funds = funds
			table := view.Comparison(out.Body.Funds)
			out.Body.Rows = make([]CompareRow, len(table.Rows))
			for i, r := range table.Rows {
				out.Body.Rows[i] = CompareRow{Label: r.Label, Values: r.Values}
			}
			return out, nil
		})
}

// mapErr converts fund service failures to HTTP errors: unknown funds are 404,
// everything else is an upstream failure.
func mapErr(logger *common.Logger, err error, what string) error {
	if client.IsNotFound(err) {
		return huma.Error404NotFound(fmt.Sprintf("%s not found", what))
	}
	logger.Warn().Err(err).Str("request", what).Msg("fund service request failed")
	return huma.Error502BadGateway("fund service unavailable")
}
