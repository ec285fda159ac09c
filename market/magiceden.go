package market

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

const magicEdenBaseURL = "https://api-mainnet.magiceden.dev/v2"

// CollectionStats summarizes an NFT collection's market state. Prices are
// in lamports as returned by the API.
type CollectionStats struct {
	Symbol       string  `json:"symbol"`
	FloorPrice   float64 `json:"floorPrice"`
	ListedCount  int     `json:"listedCount"`
	VolumeAll    float64 `json:"volumeAll"`
	AvgPrice24hr float64 `json:"avgPrice24hr"`
}

// Collection is a marketplace collection listing.
type Collection struct {
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

// Activity is one marketplace event on a collection.
type Activity struct {
	Signature  string  `json:"signature"`
	Type       string  `json:"type"`
	TokenMint  string  `json:"tokenMint"`
	Collection string  `json:"collection"`
	Price      float64 `json:"price"`
	Buyer      string  `json:"buyer,omitempty"`
	Seller     string  `json:"seller,omitempty"`
	BlockTime  int64   `json:"blockTime"`
}

// MagicEden fetches NFT collection data. Best-effort like the other
// providers in this package.
type MagicEden struct {
	baseURL string
	api     *apiClient
}

// NewMagicEden builds a client against the public v2 API.
func NewMagicEden() *MagicEden {
	// Public API allows 2 requests/sec.
	return &MagicEden{baseURL: magicEdenBaseURL, api: newAPIClient(500*time.Millisecond, 2)}
}

// CollectionStats returns market stats for a collection, nil when
// unavailable.
func (m *MagicEden) CollectionStats(ctx context.Context, symbol string) *CollectionStats {
	var out CollectionStats
	u := fmt.Sprintf("%s/collections/%s/stats", m.baseURL, url.PathEscape(symbol))
	if err := m.api.getJSON(ctx, u, &out); err != nil {
		return nil
	}
	return &out
}

// TrendingCollections returns the marketplace's popular collections.
func (m *MagicEden) TrendingCollections(ctx context.Context, limit int) []Collection {
	if limit <= 0 {
		limit = 20
	}
	var out []Collection
	u := fmt.Sprintf("%s/marketplace/popular_collections?limit=%d", m.baseURL, limit)
	if err := m.api.getJSON(ctx, u, &out); err != nil {
		return nil
	}
	return out
}

// CollectionActivity returns recent marketplace events for a collection.
func (m *MagicEden) CollectionActivity(ctx context.Context, symbol string, limit int) []Activity {
	if limit <= 0 {
		limit = 100
	}
	var out []Activity
	u := fmt.Sprintf("%s/collections/%s/activities?limit=%d", m.baseURL, url.PathEscape(symbol), limit)
	if err := m.api.getJSON(ctx, u, &out); err != nil {
		return nil
	}
	return out
}

// SearchCollections looks up collections by name.
func (m *MagicEden) SearchCollections(ctx context.Context, query string) []Collection {
	var out []Collection
	u := m.baseURL + "/collections?search=" + url.QueryEscape(query)
	if err := m.api.getJSON(ctx, u, &out); err != nil {
		return nil
	}
	return out
}
