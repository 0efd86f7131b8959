package models

// Fund is a snapshot of one mutual fund as returned by the fund service.
// Values are replaced wholesale, never mutated in place.
type Fund struct {
	Ticker                   string  `json:"ticker"`
	SecID                    string  `json:"secid"`
	Name                     string  `json:"name"`
	ManagementCompany        string  `json:"managementCompany"`
	GlobalCategory           string  `json:"globalCategory"`
	GlobalBroadCategoryGroup string  `json:"globalBroadCategoryGroup"`
	InvestmentStrategy       string  `json:"investmentStrategy"`
	FundSizeInUSD            float64 `json:"fundSizeInUSD"`
	ManagementFee            float64 `json:"managementFee"`
	ProspectusNetExpense     float64 `json:"prospectusNetExpense"`
	NumberOfHoldings         int     `json:"numberOfHoldings"`
	MorningstarRating        int     `json:"morningstarRating"`
	IsIndexFund              bool    `json:"isIndexFund"`
}

// SearchResult is one entry in a fund search response.
type SearchResult struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
}
