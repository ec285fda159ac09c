package market

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const coinGeckoBaseURL = "https://api.coingecko.com/api/v3"

// defaultCoinIDs is the price board shown before the user picks anything.
var defaultCoinIDs = []string{"bitcoin", "ethereum", "solana", "cardano", "polkadot"}

// TokenPrice is one row of the CoinGecko markets listing.
type TokenPrice struct {
	ID                 string  `json:"id"`
	Symbol             string  `json:"symbol"`
	Name               string  `json:"name"`
	CurrentPrice       float64 `json:"current_price"`
	PriceChange24h     float64 `json:"price_change_24h"`
	PriceChangePct24h  float64 `json:"price_change_percentage_24h"`
	MarketCap          float64 `json:"market_cap"`
	TotalVolume        float64 `json:"total_volume"`
	High24h            float64 `json:"high_24h"`
	Low24h             float64 `json:"low_24h"`
	Image              string  `json:"image,omitempty"`
}

// MarketChart is time-series data; each point is [unix millis, value].
type MarketChart struct {
	Prices       [][2]float64 `json:"prices"`
	MarketCaps   [][2]float64 `json:"market_caps"`
	TotalVolumes [][2]float64 `json:"total_volumes"`
}

// SearchResult is a coin matched by the search endpoint.
type SearchResult struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Thumb  string `json:"thumb,omitempty"`
}

// CoinGecko fetches token prices and charts. Best-effort: every method
// degrades to an empty or zero value when the API is unreachable, so
// price widgets never block wallet operations.
type CoinGecko struct {
	baseURL string
	api     *apiClient
}

// NewCoinGecko builds a client against the public free-tier API.
func NewCoinGecko() *CoinGecko {
	// Free tier allows roughly 30 calls/min.
	return &CoinGecko{baseURL: coinGeckoBaseURL, api: newAPIClient(2*time.Second, 5)}
}

// TokenPrices returns market rows for the given coin IDs, or the default
// board when ids is empty. Returns nil on any failure.
func (g *CoinGecko) TokenPrices(ctx context.Context, ids []string) []TokenPrice {
	if len(ids) == 0 {
		ids = defaultCoinIDs
	}
	u := fmt.Sprintf("%s/coins/markets?vs_currency=usd&ids=%s&order=market_cap_desc&sparkline=false",
		g.baseURL, url.QueryEscape(strings.Join(ids, ",")))
	var out []TokenPrice
	if err := g.api.getJSON(ctx, u, &out); err != nil {
		return nil
	}
	return out
}

// TokenPrice returns the USD price of a single coin, 0 when unavailable.
func (g *CoinGecko) TokenPrice(ctx context.Context, id string) float64 {
	u := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd&include_24hr_change=true",
		g.baseURL, url.QueryEscape(id))
	var out map[string]struct {
		USD float64 `json:"usd"`
	}
	if err := g.api.getJSON(ctx, u, &out); err != nil {
		return 0
	}
	return out[id].USD
}

// MarketChart returns historical prices for a coin over the given number
// of days, nil when unavailable.
func (g *CoinGecko) MarketChart(ctx context.Context, id string, days int) *MarketChart {
	if days <= 0 {
		days = 7
	}
	u := fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=usd&days=%d",
		g.baseURL, url.PathEscape(id), days)
	var out MarketChart
	if err := g.api.getJSON(ctx, u, &out); err != nil {
		return nil
	}
	return &out
}

// Trending returns the coins currently trending on CoinGecko search.
func (g *CoinGecko) Trending(ctx context.Context) []SearchResult {
	var out struct {
		Coins []struct {
			Item SearchResult `json:"item"`
		} `json:"coins"`
	}
	if err := g.api.getJSON(ctx, g.baseURL+"/search/trending", &out); err != nil {
		return nil
	}
	results := make([]SearchResult, 0, len(out.Coins))
	for _, c := range out.Coins {
		results = append(results, c.Item)
	}
	return results
}

// Search looks up coins by name or symbol.
func (g *CoinGecko) Search(ctx context.Context, query string) []SearchResult {
	var out struct {
		Coins []SearchResult `json:"coins"`
	}
	u := g.baseURL + "/search?query=" + url.QueryEscape(query)
	if err := g.api.getJSON(ctx, u, &out); err != nil {
		return nil
	}
	return out.Coins
}
