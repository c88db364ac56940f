package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/stocklane/inventory-management/internal"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// OAuthProviders holds the configured oauth2 clients, keyed by provider
// name. Google is wired up today; further providers only need an endpoint
// and a user-info fetcher.
type OAuthProviders struct {
	configs map[string]*oauth2.Config
}

func NewOAuthProviders(cfg internal.OAuthConfig) *OAuthProviders {
	p := &OAuthProviders{configs: make(map[string]*oauth2.Config)}

	if cfg.Google.Enabled() {
		p.configs["google"] = &oauth2.Config{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  cfg.Google.RedirectURL,
			Scopes: []string{
				"openid",
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		}
	}

	return p
}

func (p *OAuthProviders) Enabled(provider string) bool {
	_, ok := p.configs[provider]
	return ok
}

func (p *OAuthProviders) AuthCodeURL(provider, state string) (string, error) {
	cfg, ok := p.configs[provider]
	if !ok {
		return "", fmt.Errorf("unsupported provider: %s", provider)
	}
	return cfg.AuthCodeURL(state, oauth2.AccessTypeOffline), nil
}

func (p *OAuthProviders) Exchange(ctx context.Context, provider, code string) (*oauth2.Token, error) {
	cfg, ok := p.configs[provider]
	if !ok {
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
	return cfg.Exchange(ctx, code)
}

// FetchUserInfo calls the provider's user-info endpoint with the exchanged
// token and normalizes the response to {id, email}.
func (p *OAuthProviders) FetchUserInfo(ctx context.Context, provider string, token *oauth2.Token) (OAuthUserInfo, error) {
	cfg, ok := p.configs[provider]
	if !ok {
		return OAuthUserInfo{}, fmt.Errorf("unsupported provider: %s", provider)
	}

	switch provider {
	case "google":
		return fetchGoogleUserInfo(ctx, cfg, token)
	default:
		return OAuthUserInfo{}, fmt.Errorf("no user-info fetcher for provider: %s", provider)
	}
}

func fetchGoogleUserInfo(ctx context.Context, cfg *oauth2.Config, token *oauth2.Token) (OAuthUserInfo, error) {
	client := cfg.Client(ctx, token)
	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		return OAuthUserInfo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return OAuthUserInfo{}, fmt.Errorf("user-info endpoint returned %d", resp.StatusCode)
	}

	var info OAuthUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return OAuthUserInfo{}, err
	}
	return info, nil
}
