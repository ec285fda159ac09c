package social

import (
	"testing"

	"github.com/demos-labs/walletkit/wallet"
)

func TestConnectionsPerPlatformLifecycle(t *testing.T) {
	c := NewConnections(wallet.NewMemoryStorage())

	if err := c.Store(Connection{Platform: Twitter, Connected: true, Username: "alice"}); err != nil {
		t.Fatalf("store twitter: %v", err)
	}
	if err := c.Store(Connection{Platform: Github, Connected: true, Username: "alice-gh"}); err != nil {
		t.Fatalf("store github: %v", err)
	}

	all, err := c.All()
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 connections, got %d", len(all))
	}

	// Disconnecting one platform leaves the other untouched.
	if err := c.Disconnect(Twitter); err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	if _, ok, _ := c.Get(Twitter); ok {
		t.Error("twitter connection should be gone")
	}
	gh, ok, err := c.Get(Github)
	if err != nil || !ok {
		t.Fatalf("github connection lost: %v %v", ok, err)
	}
	if gh.Username != "alice-gh" {
		t.Errorf("github connection mutated: %+v", gh)
	}
}

func TestConnectionsUpsertByPlatform(t *testing.T) {
	c := NewConnections(wallet.NewMemoryStorage())

	if err := c.Store(Connection{Platform: Discord, Connected: true, Username: "old#0001"}); err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := c.Store(Connection{Platform: Discord, Connected: true, Username: "new#0002"}); err != nil {
		t.Fatalf("restore: %v", err)
	}

	all, err := c.All()
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("platform key must be unique, got %d entries", len(all))
	}
	if all[Discord].Username != "new#0002" {
		t.Errorf("upsert did not replace: %+v", all[Discord])
	}
}

func TestConnectionsClear(t *testing.T) {
	c := NewConnections(wallet.NewMemoryStorage())
	if err := c.Store(Connection{Platform: Telegram, Connected: true, Username: "tg"}); err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := c.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	all, err := c.All()
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("expected empty map after clear, got %v", all)
	}
}
