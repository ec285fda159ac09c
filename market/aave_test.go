package market

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestAavePools(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req graphQLRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode query: %v", err)
		}
		if !strings.Contains(req.Query, "reserves(") {
			t.Errorf("unexpected query: %s", req.Query)
		}
		// Ray rates: 4.5% supply, 6.8% borrow.
		fmt.Fprint(w, `{"data":{"reserves":[{
			"id":"usdc","name":"USD Coin","symbol":"USDC",
			"totalLiquidity":"10000000","availableLiquidity":"3000000",
			"totalCurrentVariableDebt":"7000000",
			"liquidityRate":"45000000000000000000000000",
			"variableBorrowRate":"68000000000000000000000000"}]}}`)
	}))
	defer srv.Close()

	a := &Aave{url: srv.URL, api: newAPIClient(time.Millisecond, 5)}
	pools := a.Pools(context.Background())
	if len(pools) != 1 {
		t.Fatalf("got %d pools", len(pools))
	}
	p := pools[0]
	if p.Symbol != "USDC" || !almostEqual(p.TotalLiquidity, 1e7) {
		t.Errorf("pool = %+v", p)
	}
	if !almostEqual(p.UtilizationPct, 70) {
		t.Errorf("utilization = %v", p.UtilizationPct)
	}
	if !almostEqual(p.SupplyAPY, 4.5) || !almostEqual(p.BorrowAPY, 6.8) {
		t.Errorf("APYs = %v / %v", p.SupplyAPY, p.BorrowAPY)
	}
}

func TestAavePoolsDegradesToNil(t *testing.T) {
	a := &Aave{url: "http://127.0.0.1:1", api: newAPIClient(time.Millisecond, 5)}
	if pools := a.Pools(context.Background()); pools != nil {
		t.Errorf("pools on failure = %+v", pools)
	}
}

func TestHealthFactor(t *testing.T) {
	if hf := HealthFactor(1000, 0, 0.8); !math.IsInf(hf, 1) {
		t.Errorf("no debt should be +Inf, got %v", hf)
	}
	if hf := HealthFactor(1000, 400, 0.8); !almostEqual(hf, 2) {
		t.Errorf("health factor = %v", hf)
	}
	if hf := HealthFactor(1000, 900, 0.8); hf >= 1 {
		t.Errorf("overleveraged position should be below 1: %v", hf)
	}
}

func TestMaxBorrow(t *testing.T) {
	// 1000 collateral, 0.8 threshold, target 1.5 allows 533.33.
	got := MaxBorrow(1000, 0, 0.8, 1.5)
	if !almostEqual(got, 1000*0.8/1.5) {
		t.Errorf("max borrow = %v", got)
	}
	// Existing debt subtracts.
	if got := MaxBorrow(1000, 500, 0.8, 1.5); !almostEqual(got, 1000*0.8/1.5-500) {
		t.Errorf("max borrow with debt = %v", got)
	}
	// Never negative.
	if got := MaxBorrow(100, 500, 0.8, 1.5); got != 0 {
		t.Errorf("max borrow should floor at 0: %v", got)
	}
}

func TestFormatHelpers(t *testing.T) {
	if got := FormatUSD(1234.5); got != "$1234.50" {
		t.Errorf("FormatUSD = %q", got)
	}
	if got := FormatUSD(0.00012345); got != "$0.00012345" {
		t.Errorf("FormatUSD small = %q", got)
	}
	if got := FormatPercent(4.567); got != "+4.57%" {
		t.Errorf("FormatPercent = %q", got)
	}
	if got := FormatPercent(-12.3); got != "-12.30%" {
		t.Errorf("FormatPercent negative = %q", got)
	}
	if got := FormatCompact(1500000); got != "1.50M" {
		t.Errorf("FormatCompact = %q", got)
	}
	if got := FormatTVL(2.5e9); got != "$2.50B" {
		t.Errorf("FormatTVL = %q", got)
	}
	if got := FormatHealthFactor(math.Inf(1)); got != "inf" {
		t.Errorf("FormatHealthFactor = %q", got)
	}
}
