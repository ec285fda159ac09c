// ABOUTME: Bonding-curve pricing math and trending token feed for pump.fun
// ABOUTME: style launches. The math is pure; only the feed touches the network.
package market

import (
	"context"
	"math"
	"time"
)

const pumpFunBaseURL = "https://pump.fun/api"

// CurveType selects the price function of a bonding curve.
type CurveType string

const (
	CurveLinear      CurveType = "linear"
	CurveExponential CurveType = "exponential"
	CurveLogarithmic CurveType = "logarithmic"
)

// BondingCurve describes a token launch curve from initial to target price
// over a fixed max supply.
type BondingCurve struct {
	InitialPrice float64
	TargetPrice  float64
	Supply       float64
	Curve        CurveType
}

// PriceAt returns the token price when `supply` tokens have been minted.
// Unknown curve types fall back to the initial price.
func (c BondingCurve) PriceAt(supply float64) float64 {
	progress := supply / c.Supply

	switch c.Curve {
	case CurveLinear:
		return c.InitialPrice + (c.TargetPrice-c.InitialPrice)*progress
	case CurveExponential:
		k := math.Log(c.TargetPrice / c.InitialPrice)
		return c.InitialPrice * math.Exp(k*progress)
	case CurveLogarithmic:
		scale := c.TargetPrice - c.InitialPrice
		return c.InitialPrice + scale*math.Log(1+9*progress)/math.Log(10)
	default:
		return c.InitialPrice
	}
}

// MarketCap is price times circulating supply.
func MarketCap(price, supply float64) float64 {
	return price * supply
}

// DefaultSlippagePct is applied when an estimate is requested with a
// non-positive slippage.
const DefaultSlippagePct = 0.5

// EstimateBuy returns the token amount an investment buys at the current
// price, reduced by the slippage tolerance (a percentage, e.g. 0.5).
func EstimateBuy(investAmount, currentPrice, slippagePct float64) float64 {
	if slippagePct <= 0 {
		slippagePct = DefaultSlippagePct
	}
	return (investAmount / currentPrice) * (1 - slippagePct/100)
}

// EstimateSell returns the proceeds of selling a token amount at the
// current price, reduced by the slippage tolerance.
func EstimateSell(tokenAmount, currentPrice, slippagePct float64) float64 {
	if slippagePct <= 0 {
		slippagePct = DefaultSlippagePct
	}
	return (tokenAmount * currentPrice) * (1 - slippagePct/100)
}

// TokenQuote is one trending launch token.
type TokenQuote struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Change24h float64 `json:"change24h"`
	Volume24h float64 `json:"volume24h"`
	MarketCap float64 `json:"marketCap"`
}

// PumpFun fetches trending launch tokens. Best-effort.
type PumpFun struct {
	baseURL string
	api     *apiClient
}

// NewPumpFun builds a client against the public API.
func NewPumpFun() *PumpFun {
	return &PumpFun{baseURL: pumpFunBaseURL, api: newAPIClient(time.Second, 2)}
}

// TrendingTokens returns the current trending launches, nil when the feed
// is unreachable.
func (p *PumpFun) TrendingTokens(ctx context.Context) []TokenQuote {
	var out []TokenQuote
	if err := p.api.getJSON(ctx, p.baseURL+"/trending", &out); err != nil {
		return nil
	}
	return out
}
