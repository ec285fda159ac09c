// ABOUTME: Tests for the OAuth flow: state verification, config gating,
// ABOUTME: and callback persistence against a fake provider.
package social

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/oauth2"

	"github.com/demos-labs/walletkit/wallet"
)

type fakeExchanger struct {
	token string
	calls int
}

func (f *fakeExchanger) Exchange(ctx context.Context, cfg *oauth2.Config, platform Platform, code string) (*oauth2.Token, error) {
	f.calls++
	return &oauth2.Token{AccessToken: f.token}, nil
}

func testService(t *testing.T, exchanger Exchanger) (*Service, *wallet.MemoryStorage) {
	t.Helper()
	storage := wallet.NewMemoryStorage()
	cfg := Config{
		TwitterClientID: "twitter-client",
		DiscordClientID: "discord-client",
		GithubClientID:  "github-client",
		RedirectURL:     "http://127.0.0.1:18443/oauth/callback",
	}
	return NewService(cfg, storage, exchanger), storage
}

func TestAuthURLStoresState(t *testing.T) {
	s, storage := testService(t, nil)

	u, state, err := s.AuthURL(Github)
	if err != nil {
		t.Fatalf("AuthURL: %v", err)
	}
	if state == "" {
		t.Fatal("empty state token")
	}
	if !strings.Contains(u, "state="+state) {
		t.Errorf("authorize URL missing state: %s", u)
	}
	if !strings.Contains(u, "client_id=github-client") {
		t.Errorf("authorize URL missing client id: %s", u)
	}

	stored, ok, _ := storage.Get("oauth_state")
	if !ok || stored != state {
		t.Errorf("state not persisted: %q %v", stored, ok)
	}
}

func TestAuthURLTwitterPKCE(t *testing.T) {
	s, _ := testService(t, nil)
	u, _, err := s.AuthURL(Twitter)
	if err != nil {
		t.Fatalf("AuthURL: %v", err)
	}
	if !strings.Contains(u, "code_challenge=challenge") || !strings.Contains(u, "code_challenge_method=plain") {
		t.Errorf("twitter URL missing PKCE params: %s", u)
	}
}

func TestAuthURLNotConfigured(t *testing.T) {
	s := NewService(Config{}, wallet.NewMemoryStorage(), nil)
	_, _, err := s.AuthURL(Github)
	if !errors.Is(err, wallet.ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
	if err == nil || !strings.Contains(err.Error(), "WALLETKIT_GITHUB_CLIENT_ID") {
		t.Errorf("error should name the missing variable: %v", err)
	}
}

func TestHandleCallbackInvalidState(t *testing.T) {
	ex := &fakeExchanger{token: "tok"}
	s, _ := testService(t, ex)

	if _, _, err := s.AuthURL(Github); err != nil {
		t.Fatalf("AuthURL: %v", err)
	}

	_, err := s.HandleCallback(context.Background(), "code", "forged-state", Github)
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if ex.calls != 0 {
		t.Error("token exchange must not run on state mismatch")
	}

	// Nothing persisted.
	all, err := s.Connections().All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("connection persisted despite invalid state: %v", all)
	}
}

func TestHandleCallbackPlatformMismatch(t *testing.T) {
	ex := &fakeExchanger{token: "tok"}
	s, _ := testService(t, ex)

	_, state, err := s.AuthURL(Github)
	if err != nil {
		t.Fatalf("AuthURL: %v", err)
	}

	// Valid state, but the flow was started for github, not discord.
	_, err = s.HandleCallback(context.Background(), "code", state, Discord)
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if ex.calls != 0 {
		t.Error("token exchange must not run for a platform that never initiated")
	}
	all, err := s.Connections().All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("connection persisted despite platform mismatch: %v", all)
	}
}

func TestHandleCallbackPersistsConnection(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 7, "login": "octocat", "html_url": "https://github.com/octocat", "avatar_url": "https://a.example/7.png"}`))
	}))
	defer provider.Close()

	s, _ := testService(t, &fakeExchanger{token: "tok"})
	s.profiles.baseURLs[Github] = provider.URL

	_, state, err := s.AuthURL(Github)
	if err != nil {
		t.Fatalf("AuthURL: %v", err)
	}

	conn, err := s.HandleCallback(context.Background(), "code", state, Github)
	if err != nil {
		t.Fatalf("HandleCallback: %v", err)
	}
	if !conn.Connected || conn.Username != "octocat" || conn.UserID != "7" {
		t.Errorf("unexpected connection: %+v", conn)
	}
	if conn.AccessToken != "tok" {
		t.Errorf("access token not recorded: %+v", conn)
	}

	stored, ok, err := s.Connections().Get(Github)
	if err != nil || !ok {
		t.Fatalf("connection not stored: %v %v", ok, err)
	}
	if stored.Username != "octocat" {
		t.Errorf("stored connection: %+v", stored)
	}

	// A second callback with the consumed state must fail.
	if _, err := s.HandleCallback(context.Background(), "code", state, Github); !errors.Is(err, ErrInvalidState) {
		t.Errorf("state should be single-use, got %v", err)
	}
}

func TestTelegramWidgetURL(t *testing.T) {
	s := NewService(Config{TelegramBotUsername: "demos_bot", RedirectURL: "http://127.0.0.1:1/cb"}, wallet.NewMemoryStorage(), nil)
	u, _, err := s.AuthURL(Telegram)
	if err != nil {
		t.Fatalf("AuthURL: %v", err)
	}
	if !strings.HasPrefix(u, "https://oauth.telegram.org/auth?") || !strings.Contains(u, "bot_id=demos_bot") {
		t.Errorf("unexpected widget URL: %s", u)
	}

	s2 := NewService(Config{}, wallet.NewMemoryStorage(), nil)
	if _, _, err := s2.AuthURL(Telegram); !errors.Is(err, wallet.ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}
