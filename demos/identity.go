// ABOUTME: Demos identity registry API plus a local identity cache.
// ABOUTME: Registry availability is best-effort; local identity info always works.
package demos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/demos-labs/walletkit/wallet"
)

const identityCacheKey = "demos_identity"

// IdentityInfo describes an identity's presence on the Demos registry.
type IdentityInfo struct {
	Address   string `json:"address"`
	PublicKey string `json:"public_key"`
	Exists    bool   `json:"exists"`
	Balance   string `json:"balance,omitempty"`
	Nonce     uint64 `json:"nonce,omitempty"`
}

// IdentityAPI talks to the Demos identity registry.
type IdentityAPI struct {
	baseURL string
	hc      *http.Client
}

// NewIdentityAPI builds a registry client. The registry may not be deployed
// on all networks; lookups degrade to local identity info when unreachable.
func NewIdentityAPI(baseURL string) *IdentityAPI {
	if baseURL == "" {
		baseURL = "https://api.demos.network"
	}
	return &IdentityAPI{
		baseURL: baseURL,
		hc:      &http.Client{Timeout: 10 * time.Second},
	}
}

// Check derives the identity locally and asks the registry whether it
// exists. Registry unavailability is not an error: the caller still gets
// the locally derived address and public key with Exists=false.
func (a *IdentityAPI) Check(ctx context.Context, phrase string) (IdentityInfo, error) {
	id, err := wallet.DeriveIdentity(phrase)
	if err != nil {
		return IdentityInfo{}, err
	}
	info := IdentityInfo{Address: id.Address, PublicKey: id.PublicKey}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/identity/"+url.PathEscape(id.Address), nil)
	if err != nil {
		return info, nil
	}
	resp, err := a.hc.Do(req)
	if err != nil {
		return info, nil // registry offline: local info only
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusOK:
		var body struct {
			Balance string `json:"balance"`
			Nonce   uint64 `json:"nonce"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return info, nil
		}
		info.Exists = true
		info.Balance = body.Balance
		info.Nonce = body.Nonce
		return info, nil
	case http.StatusNotFound:
		return info, nil
	default:
		return info, nil
	}
}

// Create registers the identity with the registry. Unlike Check, an
// unreachable registry is surfaced: creation is an explicit user action.
func (a *IdentityAPI) Create(ctx context.Context, phrase string) (IdentityInfo, error) {
	id, err := wallet.DeriveIdentity(phrase)
	if err != nil {
		return IdentityInfo{}, err
	}

	payload, err := json.Marshal(map[string]string{
		"address":   id.Address,
		"publicKey": id.PublicKey,
	})
	if err != nil {
		return IdentityInfo{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/identity/create", bytes.NewReader(payload))
	if err != nil {
		return IdentityInfo{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.hc.Do(req)
	if err != nil {
		return IdentityInfo{}, fmt.Errorf("%w: identity registry: %v", wallet.ErrNetworkUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return IdentityInfo{}, fmt.Errorf("%w: identity registry returned %s", wallet.ErrNetworkUnavailable, resp.Status)
	}

	return IdentityInfo{Address: id.Address, PublicKey: id.PublicKey, Exists: true}, nil
}

// CachedAccount is the persisted identity cache entry read by dependent
// views between refreshes.
type CachedAccount struct {
	ID        string  `json:"id"` // ULID of the refresh that wrote this entry
	Account   Account `json:"account"`
	UpdatedAt int64   `json:"updated_at"` // unix seconds
}

// SaveCachedAccount persists the identity cache.
func SaveCachedAccount(storage wallet.Storage, acct Account) error {
	entry := CachedAccount{
		ID:        ulid.Make().String(),
		Account:   acct,
		UpdatedAt: time.Now().Unix(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return storage.Set(identityCacheKey, string(data))
}

// LoadCachedAccount reads the identity cache, if present.
func LoadCachedAccount(storage wallet.Storage) (CachedAccount, bool, error) {
	raw, ok, err := storage.Get(identityCacheKey)
	if err != nil || !ok || raw == "" {
		return CachedAccount{}, false, err
	}
	var entry CachedAccount
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return CachedAccount{}, false, fmt.Errorf("identity cache corrupted: %w", err)
	}
	return entry, true, nil
}

// ClearCachedAccount removes the identity cache (wallet disconnect).
func ClearCachedAccount(storage wallet.Storage) error {
	return storage.Delete(identityCacheKey)
}
