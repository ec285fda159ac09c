// ABOUTME: Aave v3 pool reserves via subgraph GraphQL, plus the pure
// ABOUTME: lending math (utilization, APY, health factor, max borrow).
package market

import (
	"context"
	"math"
	"strconv"
	"time"
)

// AaveChain selects which deployment's subgraph to query.
type AaveChain string

const (
	AaveMainnet   AaveChain = "mainnet"
	AavePolygon   AaveChain = "polygon"
	AaveAvalanche AaveChain = "avalanche"
)

var aaveSubgraphs = map[AaveChain]string{
	AaveMainnet:   "https://api.thegraph.com/subgraphs/name/aave/protocol-v3",
	AavePolygon:   "https://api.thegraph.com/subgraphs/name/aave/protocol-v3-polygon",
	AaveAvalanche: "https://api.thegraph.com/subgraphs/name/aave/protocol-v3-avalanche",
}

// Pool is one lending reserve with derived rates.
type Pool struct {
	ID                 string
	Name               string
	Symbol             string
	TotalLiquidity     float64
	TotalBorrowed      float64
	AvailableLiquidity float64
	UtilizationPct     float64
	SupplyAPY          float64
	BorrowAPY          float64
}

// Aave fetches lending pool state. Best-effort.
type Aave struct {
	url string
	api *apiClient
}

// NewAave builds a client for a chain's subgraph (mainnet default).
func NewAave(chain AaveChain) *Aave {
	u, ok := aaveSubgraphs[chain]
	if !ok {
		u = aaveSubgraphs[AaveMainnet]
	}
	return &Aave{url: u, api: newAPIClient(time.Second, 3)}
}

const reservesQuery = `{
  reserves(first: 25, orderBy: totalLiquidity, orderDirection: desc) {
    id
    name
    symbol
    totalLiquidity
    availableLiquidity
    totalCurrentVariableDebt
    liquidityRate
    variableBorrowRate
  }
}`

type graphQLRequest struct {
	Query string `json:"query"`
}

// rayToAPY converts a per-second ray rate (27 decimals) to a percent APY.
func rayToAPY(ray string) float64 {
	v, err := strconv.ParseFloat(ray, 64)
	if err != nil {
		return 0
	}
	return v / 1e27 * 100
}

// Pools returns lending reserves ordered by liquidity, nil when the
// subgraph is unreachable.
func (a *Aave) Pools(ctx context.Context) []Pool {
	var out struct {
		Data struct {
			Reserves []struct {
				ID                       string `json:"id"`
				Name                     string `json:"name"`
				Symbol                   string `json:"symbol"`
				TotalLiquidity           string `json:"totalLiquidity"`
				AvailableLiquidity       string `json:"availableLiquidity"`
				TotalCurrentVariableDebt string `json:"totalCurrentVariableDebt"`
				LiquidityRate            string `json:"liquidityRate"`
				VariableBorrowRate       string `json:"variableBorrowRate"`
			} `json:"reserves"`
		} `json:"data"`
	}
	if err := a.api.postJSON(ctx, a.url, graphQLRequest{Query: reservesQuery}, &out); err != nil {
		return nil
	}

	pools := make([]Pool, 0, len(out.Data.Reserves))
	for _, r := range out.Data.Reserves {
		liquidity, _ := strconv.ParseFloat(r.TotalLiquidity, 64)
		available, _ := strconv.ParseFloat(r.AvailableLiquidity, 64)
		borrowed, _ := strconv.ParseFloat(r.TotalCurrentVariableDebt, 64)
		p := Pool{
			ID:                 r.ID,
			Name:               r.Name,
			Symbol:             r.Symbol,
			TotalLiquidity:     liquidity,
			TotalBorrowed:      borrowed,
			AvailableLiquidity: available,
			SupplyAPY:          rayToAPY(r.LiquidityRate),
			BorrowAPY:          rayToAPY(r.VariableBorrowRate),
		}
		if liquidity > 0 {
			p.UtilizationPct = borrowed / liquidity * 100
		}
		pools = append(pools, p)
	}
	return pools
}

// DefaultLiquidationThreshold is the fraction of collateral value counted
// toward loan coverage when a position-specific threshold is unknown.
const DefaultLiquidationThreshold = 0.8

// HealthFactor returns collateral coverage of a borrow position. A value
// below 1.0 is liquidatable; no debt means +Inf.
func HealthFactor(collateralValue, borrowValue, liquidationThreshold float64) float64 {
	if liquidationThreshold <= 0 {
		liquidationThreshold = DefaultLiquidationThreshold
	}
	if borrowValue == 0 {
		return math.Inf(1)
	}
	return collateralValue * liquidationThreshold / borrowValue
}

// MaxBorrow returns how much more can be borrowed while keeping the
// position at or above the target health factor.
func MaxBorrow(collateralValue, existingBorrow, liquidationThreshold, targetHealthFactor float64) float64 {
	if liquidationThreshold <= 0 {
		liquidationThreshold = DefaultLiquidationThreshold
	}
	if targetHealthFactor <= 0 {
		targetHealthFactor = 1.5
	}
	max := collateralValue * liquidationThreshold / targetHealthFactor
	return math.Max(0, max-existingBorrow)
}
