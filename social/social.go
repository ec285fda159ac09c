// ABOUTME: Social account linking for the active wallet (contribution tracking).
// ABOUTME: Connection records are stored per platform under one storage key.
package social

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/demos-labs/walletkit/wallet"
)

// Platform identifies a supported social provider.
type Platform string

const (
	Twitter  Platform = "twitter"
	Discord  Platform = "discord"
	Telegram Platform = "telegram"
	Github   Platform = "github"
)

// Sentinel errors for programmatic handling.
var (
	ErrInvalidState = errors.New("invalid oauth state")
	ErrCancelled    = errors.New("oauth flow cancelled")
)

// Connection is a linked third-party account. One entry per platform;
// connecting or disconnecting one platform never touches the others.
type Connection struct {
	Platform    Platform `json:"platform"`
	Connected   bool     `json:"connected"`
	Username    string   `json:"username"`
	UserID      string   `json:"userId,omitempty"`
	AccessToken string   `json:"accessToken,omitempty"`
	ProfileURL  string   `json:"profileUrl,omitempty"`
	Avatar      string   `json:"avatar,omitempty"`
}

const connectionsKey = "social_connections"

// Connections persists the per-platform connection mapping.
type Connections struct {
	storage wallet.Storage
}

// NewConnections wraps a storage backend.
func NewConnections(storage wallet.Storage) *Connections {
	return &Connections{storage: storage}
}

// All returns the stored mapping. An absent or empty key is an empty map.
func (c *Connections) All() (map[Platform]Connection, error) {
	raw, ok, err := c.storage.Get(connectionsKey)
	if err != nil {
		return nil, err
	}
	out := make(map[Platform]Connection)
	if !ok || raw == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("social connections corrupted: %w", err)
	}
	return out, nil
}

// Get returns the connection for one platform, if present.
func (c *Connections) Get(platform Platform) (Connection, bool, error) {
	all, err := c.All()
	if err != nil {
		return Connection{}, false, err
	}
	conn, ok := all[platform]
	return conn, ok, nil
}

// Store upserts a connection, keyed by its platform.
func (c *Connections) Store(conn Connection) error {
	all, err := c.All()
	if err != nil {
		return err
	}
	all[conn.Platform] = conn
	return c.save(all)
}

// Disconnect removes one platform's connection.
func (c *Connections) Disconnect(platform Platform) error {
	all, err := c.All()
	if err != nil {
		return err
	}
	delete(all, platform)
	return c.save(all)
}

// Clear removes all connections.
func (c *Connections) Clear() error {
	return c.storage.Delete(connectionsKey)
}

func (c *Connections) save(all map[Platform]Connection) error {
	data, err := json.Marshal(all)
	if err != nil {
		return err
	}
	return c.storage.Set(connectionsKey, string(data))
}
