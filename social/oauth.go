// ABOUTME: OAuth authorization-code flow against Twitter/Discord/GitHub.
// ABOUTME: Telegram uses the login-widget URL scheme and has no code exchange.
package social

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/demos-labs/walletkit/wallet"
)

// Session-scoped keys holding the in-flight flow's anti-forgery token.
const (
	stateKey         = "oauth_state"
	platformStateKey = "oauth_platform"
)

// Config carries OAuth client IDs and the Telegram bot username. Client IDs
// come from the environment; a missing ID fails fast with instructions
// before any network call.
type Config struct {
	TwitterClientID     string
	DiscordClientID     string
	GithubClientID      string
	TelegramBotUsername string
	RedirectURL         string
}

// ConfigFromEnv reads WALLETKIT_* variables.
func ConfigFromEnv() Config {
	return Config{
		TwitterClientID:     os.Getenv("WALLETKIT_TWITTER_CLIENT_ID"),
		DiscordClientID:     os.Getenv("WALLETKIT_DISCORD_CLIENT_ID"),
		GithubClientID:      os.Getenv("WALLETKIT_GITHUB_CLIENT_ID"),
		TelegramBotUsername: os.Getenv("WALLETKIT_TELEGRAM_BOT_USERNAME"),
		RedirectURL:         os.Getenv("WALLETKIT_OAUTH_REDIRECT_URL"),
	}
}

var providerEndpoints = map[Platform]oauth2.Endpoint{
	Twitter: {
		AuthURL:  "https://twitter.com/i/oauth2/authorize",
		TokenURL: "https://api.twitter.com/2/oauth2/token",
	},
	Discord: {
		AuthURL:  "https://discord.com/api/oauth2/authorize",
		TokenURL: "https://discord.com/api/oauth2/token",
	},
	Github: {
		AuthURL:  "https://github.com/login/oauth/authorize",
		TokenURL: "https://github.com/login/oauth/access_token",
	},
}

var providerScopes = map[Platform][]string{
	Twitter: {"tweet.read", "users.read", "offline.access"},
	Discord: {"identify", "email"},
	Github:  {"read:user"},
}

// Exchanger swaps an authorization code for an access token.
//
// The default implementation performs the exchange as a public client, the
// way the original browser flow does. Providers that require a client
// secret make this a confidential operation; deployments needing that must
// supply an Exchanger that delegates to a trusted backend instead of
// shipping the secret to end users.
type Exchanger interface {
	Exchange(ctx context.Context, cfg *oauth2.Config, platform Platform, code string) (*oauth2.Token, error)
}

type publicExchanger struct{}

func (publicExchanger) Exchange(ctx context.Context, cfg *oauth2.Config, platform Platform, code string) (*oauth2.Token, error) {
	opts := []oauth2.AuthCodeOption{}
	if platform == Twitter {
		// Plain PKCE with the fixed challenge used at authorization time.
		opts = append(opts, oauth2.SetAuthURLParam("code_verifier", twitterPKCEChallenge))
	}
	tok, err := cfg.Exchange(ctx, code, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange: %v", wallet.ErrNetworkUnavailable, err)
	}
	return tok, nil
}

const twitterPKCEChallenge = "challenge"

// Service runs OAuth flows and records resulting connections.
type Service struct {
	cfg         Config
	storage     wallet.Storage
	connections *Connections
	exchanger   Exchanger
	profiles    profileClient
}

// NewService builds a Service over a storage backend. A nil exchanger uses
// the public-client exchange.
func NewService(cfg Config, storage wallet.Storage, exchanger Exchanger) *Service {
	if exchanger == nil {
		exchanger = publicExchanger{}
	}
	return &Service{
		cfg:         cfg,
		storage:     storage,
		connections: NewConnections(storage),
		exchanger:   exchanger,
		profiles:    newProfileClient(10 * time.Second),
	}
}

// Connections exposes the underlying connection records.
func (s *Service) Connections() *Connections {
	return s.connections
}

func (s *Service) clientID(platform Platform) string {
	switch platform {
	case Twitter:
		return s.cfg.TwitterClientID
	case Discord:
		return s.cfg.DiscordClientID
	case Github:
		return s.cfg.GithubClientID
	}
	return ""
}

func (s *Service) checkConfigured(platform Platform) error {
	if platform == Telegram {
		if s.cfg.TelegramBotUsername == "" {
			return fmt.Errorf("%w: telegram login is not configured; create a bot via @BotFather and set WALLETKIT_TELEGRAM_BOT_USERNAME", wallet.ErrNotConfigured)
		}
		return nil
	}
	if s.clientID(platform) == "" {
		return fmt.Errorf("%w: %s OAuth is not configured; create an OAuth app and set WALLETKIT_%s_CLIENT_ID",
			wallet.ErrNotConfigured, platform, strings.ToUpper(string(platform)))
	}
	return nil
}

func (s *Service) oauthConfig(platform Platform) *oauth2.Config {
	return &oauth2.Config{
		ClientID:    s.clientID(platform),
		Endpoint:    providerEndpoints[platform],
		RedirectURL: s.cfg.RedirectURL,
		Scopes:      providerScopes[platform],
	}
}

// AuthURL builds the provider authorize URL with a fresh anti-forgery state
// token, which is persisted for the later callback check.
func (s *Service) AuthURL(platform Platform) (string, string, error) {
	if err := s.checkConfigured(platform); err != nil {
		return "", "", err
	}
	if platform == Telegram {
		return s.telegramWidgetURL(), "", nil
	}

	state := uuid.NewString()
	if err := s.storage.Set(stateKey, state); err != nil {
		return "", "", err
	}
	if err := s.storage.Set(platformStateKey, string(platform)); err != nil {
		return "", "", err
	}

	opts := []oauth2.AuthCodeOption{}
	if platform == Twitter {
		opts = append(opts,
			oauth2.SetAuthURLParam("code_challenge", twitterPKCEChallenge),
			oauth2.SetAuthURLParam("code_challenge_method", "plain"),
		)
	}
	return s.oauthConfig(platform).AuthCodeURL(state, opts...), state, nil
}

// HandleCallback verifies the anti-forgery state, exchanges the code,
// fetches the user profile, and persists the connection. On ErrInvalidState
// nothing is persisted.
func (s *Service) HandleCallback(ctx context.Context, code, state string, platform Platform) (Connection, error) {
	stored, ok, err := s.storage.Get(stateKey)
	if err != nil {
		return Connection{}, err
	}
	if !ok || stored == "" || state != stored {
		return Connection{}, ErrInvalidState
	}
	// The state token is single-use and bound to the platform that started
	// the flow; a callback for any other platform is forged.
	startedFor, ok, err := s.storage.Get(platformStateKey)
	if err != nil {
		return Connection{}, err
	}
	if !ok || Platform(startedFor) != platform {
		return Connection{}, ErrInvalidState
	}

	tok, err := s.exchanger.Exchange(ctx, s.oauthConfig(platform), platform, code)
	if err != nil {
		return Connection{}, err
	}

	profile, err := s.profiles.fetch(ctx, platform, tok.AccessToken)
	if err != nil {
		return Connection{}, err
	}

	conn := Connection{
		Platform:    platform,
		Connected:   true,
		Username:    profile.Username,
		UserID:      profile.ID,
		AccessToken: tok.AccessToken,
		ProfileURL:  profile.URL,
		Avatar:      profile.Avatar,
	}
	if err := s.connections.Store(conn); err != nil {
		return Connection{}, err
	}

	_ = s.storage.Delete(stateKey)
	_ = s.storage.Delete(platformStateKey)
	return conn, nil
}

// telegramWidgetURL builds the Telegram login-widget URL. Telegram does not
// use the authorization-code flow.
func (s *Service) telegramWidgetURL() string {
	q := url.Values{}
	q.Set("bot_id", s.cfg.TelegramBotUsername)
	q.Set("origin", s.cfg.RedirectURL)
	return "https://oauth.telegram.org/auth?" + q.Encode()
}
