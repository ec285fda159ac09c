// ABOUTME: HTTP client for a Demos Network node (balance, nonce, broadcast).
// ABOUTME: The node is an external collaborator; this package defines no chain logic.
package demos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/demos-labs/walletkit/wallet"
)

// Network selects a Demos deployment.
type Network string

const (
	Mainnet Network = "mainnet"
	Testnet Network = "testnet"
)

// NetworkConfig carries per-network endpoints.
type NetworkConfig struct {
	RPCURL   string
	ChainID  uint64
	Explorer string
}

var networks = map[Network]NetworkConfig{
	Mainnet: {RPCURL: "https://rpc.demos.network", ChainID: 1234567, Explorer: "https://explorer.demos.sh"},
	Testnet: {RPCURL: "https://testnet-rpc.demos.network", ChainID: 123456, Explorer: "https://explorer.demos.sh"},
}

// ConfigFor returns the built-in config for a network (testnet default).
func ConfigFor(network Network) NetworkConfig {
	if cfg, ok := networks[network]; ok {
		return cfg
	}
	return networks[Testnet]
}

// ClientConfig controls the node client.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

// Client performs node RPCs. All amounts are base-unit integer strings
// (18-decimal fixed point).
type Client struct {
	cfg ClientConfig
	hc  *http.Client
}

// NewClient builds a client with optional timeout override.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = ConfigFor(Testnet).RPCURL
	}
	to := cfg.Timeout
	if to == 0 {
		to = 10 * time.Second
	}
	return &Client{
		cfg: cfg,
		hc:  &http.Client{Timeout: to},
	}
}

// Account is the node's view of an address.
type Account struct {
	Address   string `json:"address"`
	PublicKey string `json:"public_key"`
	Balance   string `json:"balance"` // base units
	Nonce     uint64 `json:"nonce"`
}

// ConnectWallet derives the identity from a mnemonic and loads its account
// state from the node. Balance falls back to "0" only if the node omits it.
func (c *Client) ConnectWallet(ctx context.Context, phrase string) (Account, error) {
	id, err := wallet.DeriveIdentity(phrase)
	if err != nil {
		return Account{}, err
	}

	balance, err := c.GetBalance(ctx, id.Address)
	if err != nil {
		return Account{}, err
	}
	nonce, err := c.GetNonce(ctx, id.Address)
	if err != nil {
		return Account{}, err
	}

	return Account{
		Address:   id.Address,
		PublicKey: id.PublicKey,
		Balance:   balance,
		Nonce:     nonce,
	}, nil
}

type addressInfo struct {
	Balance string `json:"balance"`
	Nonce   uint64 `json:"nonce"`
}

// GetBalance returns the base-unit balance for an address.
func (c *Client) GetBalance(ctx context.Context, address string) (string, error) {
	if !IsValidAddress(address) {
		return "", fmt.Errorf("invalid address %q", ShortenAddress(address, 4))
	}
	var info addressInfo
	if err := c.getJSON(ctx, "/v1/address/"+url.PathEscape(address), &info); err != nil {
		return "", err
	}
	if info.Balance == "" {
		return "0", nil
	}
	return info.Balance, nil
}

// GetNonce returns the transaction count for an address.
func (c *Client) GetNonce(ctx context.Context, address string) (uint64, error) {
	if !IsValidAddress(address) {
		return 0, fmt.Errorf("invalid address %q", ShortenAddress(address, 4))
	}
	var info addressInfo
	if err := c.getJSON(ctx, "/v1/address/"+url.PathEscape(address), &info); err != nil {
		return 0, err
	}
	return info.Nonce, nil
}

// Tx is an outbound transfer request. Value is a base-unit integer string.
type Tx struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Value string `json:"value"`
	Data  string `json:"data,omitempty"`
	Nonce uint64 `json:"nonce"`
}

// Receipt is the node's acknowledgement of a broadcast transaction.
type Receipt struct {
	Hash  string `json:"hash"`
	From  string `json:"from"`
	To    string `json:"to"`
	Value string `json:"value"`
	Nonce uint64 `json:"nonce"`
}

// SendTransaction broadcasts a transfer. Never retried here or by callers:
// a timeout is NOT proof the transaction failed to land.
func (c *Client) SendTransaction(ctx context.Context, tx Tx) (Receipt, error) {
	if !IsValidAddress(tx.To) {
		return Receipt{}, fmt.Errorf("invalid recipient %q", ShortenAddress(tx.To, 4))
	}
	var out Receipt
	if err := c.postJSON(ctx, "/v1/tx/broadcast", tx, &out); err != nil {
		return Receipt{}, err
	}
	return out, nil
}

// GetTransactionReceipt fetches a broadcast transaction by hash.
func (c *Client) GetTransactionReceipt(ctx context.Context, hash string) (Receipt, error) {
	var out Receipt
	if err := c.getJSON(ctx, "/v1/tx/"+url.PathEscape(hash), &out); err != nil {
		return Receipt{}, err
	}
	return out, nil
}

// GetTransactionHistory lists recent transactions touching an address.
func (c *Client) GetTransactionHistory(ctx context.Context, address string, limit int) ([]Receipt, error) {
	if limit <= 0 {
		limit = 100
	}
	var out struct {
		Items []Receipt `json:"items"`
	}
	path := fmt.Sprintf("/v1/address/%s/txs?limit=%d", url.PathEscape(address), limit)
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// GetBlockNumber returns the latest block height.
func (c *Client) GetBlockNumber(ctx context.Context) (uint64, error) {
	var out struct {
		Number uint64 `json:"number"`
	}
	if err := c.getJSON(ctx, "/v1/block/latest", &out); err != nil {
		return 0, err
	}
	return out.Number, nil
}

// GetGasPrice returns the current gas price in base units.
func (c *Client) GetGasPrice(ctx context.Context) (string, error) {
	var out struct {
		GasPrice string `json:"gas_price"`
	}
	if err := c.getJSON(ctx, "/v1/gasprice", &out); err != nil {
		return "", err
	}
	if out.GasPrice == "" {
		return "0", nil
	}
	return out.GasPrice, nil
}

// ExplorerTxURL builds an explorer link for a transaction hash.
func ExplorerTxURL(network Network, hash string) string {
	return ConfigFor(network).Explorer + "/tx/" + hash
}

// ExplorerAddressURL builds an explorer link for an address.
func ExplorerAddressURL(network Network, address string) string {
	return ConfigFor(network).Explorer + "/address/" + address
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", wallet.ErrNetworkUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: node returned %s", wallet.ErrNetworkUnavailable, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
