package social

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/demos-labs/walletkit/wallet"
)

// profile is the provider-independent shape of a fetched user profile.
type profile struct {
	ID       string
	Username string
	URL      string
	Avatar   string
}

type profileClient struct {
	hc *http.Client

	// Overridable in tests.
	baseURLs map[Platform]string
}

func newProfileClient(timeout time.Duration) profileClient {
	return profileClient{
		hc: &http.Client{Timeout: timeout},
		baseURLs: map[Platform]string{
			Twitter: "https://api.twitter.com",
			Discord: "https://discord.com",
			Github:  "https://api.github.com",
		},
	}
}

func (p profileClient) fetch(ctx context.Context, platform Platform, accessToken string) (profile, error) {
	var path string
	switch platform {
	case Twitter:
		path = "/2/users/me"
	case Discord:
		path = "/api/users/@me"
	case Github:
		path = "/user"
	default:
		return profile{}, fmt.Errorf("unknown platform: %s", platform)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURLs[platform]+path, nil)
	if err != nil {
		return profile{}, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.hc.Do(req)
	if err != nil {
		return profile{}, fmt.Errorf("%w: fetch profile: %v", wallet.ErrNetworkUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return profile{}, fmt.Errorf("%w: fetch profile: %s", wallet.ErrNetworkUnavailable, resp.Status)
	}

	switch platform {
	case Twitter:
		var body struct {
			Data struct {
				ID              string `json:"id"`
				Username        string `json:"username"`
				ProfileImageURL string `json:"profile_image_url"`
			} `json:"data"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return profile{}, err
		}
		return profile{
			ID:       body.Data.ID,
			Username: body.Data.Username,
			URL:      "https://twitter.com/" + body.Data.Username,
			Avatar:   body.Data.ProfileImageURL,
		}, nil

	case Discord:
		var body struct {
			ID            string `json:"id"`
			Username      string `json:"username"`
			Discriminator string `json:"discriminator"`
			Avatar        string `json:"avatar"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return profile{}, err
		}
		out := profile{
			ID:       body.ID,
			Username: body.Username + "#" + body.Discriminator,
			URL:      "https://discord.com/users/" + body.ID,
		}
		if body.Avatar != "" {
			out.Avatar = fmt.Sprintf("https://cdn.discordapp.com/avatars/%s/%s.png", body.ID, body.Avatar)
		}
		return out, nil

	default: // Github
		var body struct {
			ID        int64  `json:"id"`
			Login     string `json:"login"`
			HTMLURL   string `json:"html_url"`
			AvatarURL string `json:"avatar_url"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return profile{}, err
		}
		return profile{
			ID:       fmt.Sprintf("%d", body.ID),
			Username: body.Login,
			URL:      body.HTMLURL,
			Avatar:   body.AvatarURL,
		}, nil
	}
}
