package oauth

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

const (
	defaultGithubAuthURL  = "https://github.com/login/oauth/authorize"
	defaultGithubTokenURL = "https://github.com/login/oauth/access_token"
	defaultGithubUserURL  = "https://api.github.com/user"
)

// GithubConfig configures the GitHub provider.
type GithubConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	AuthURL  string
	TokenURL string
	UserURL  string
}

// GithubProvider implements Provider for GitHub OAuth.
type GithubProvider struct {
	config GithubConfig
}

// NewGithubProvider builds the provider with default endpoints.
func NewGithubProvider(config GithubConfig) *GithubProvider {
	if config.AuthURL == "" {
		config.AuthURL = defaultGithubAuthURL
	}
	if config.TokenURL == "" {
		config.TokenURL = defaultGithubTokenURL
	}
	if config.UserURL == "" {
		config.UserURL = defaultGithubUserURL
	}
	return &GithubProvider{config: config}
}

func (p *GithubProvider) Name() string { return "GITHUB" }

// LoginURL builds the consent URL requesting the user's email scope.
func (p *GithubProvider) LoginURL(state string) string {
	params := url.Values{
		"client_id":    {p.config.ClientID},
		"redirect_uri": {p.config.RedirectURL},
		"scope":        {"read:user user:email"},
		"state":        {state},
	}
	return p.config.AuthURL + "?" + params.Encode()
}

type githubTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

// ExchangeCode trades the authorization code for a profile. GitHub accounts
// without a public email are rejected; the caller cannot provision a
// credential without an address.
func (p *GithubProvider) ExchangeCode(ctx context.Context, code string) (*Profile, error) {
	data := url.Values{
		"code":          {code},
		"client_id":     {p.config.ClientID},
		"client_secret": {p.config.ClientSecret},
		"redirect_uri":  {p.config.RedirectURL},
	}

	var tokenResp githubTokenResponse
	if err := postForm(ctx, p.config.TokenURL, data, &tokenResp); err != nil {
		return nil, fmt.Errorf("github token exchange: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("github token exchange: empty access token")
	}

	var user githubUser
	if err := getJSON(ctx, p.config.UserURL, tokenResp.AccessToken, &user); err != nil {
		return nil, fmt.Errorf("github user info: %w", err)
	}
	if user.ID == 0 {
		return nil, fmt.Errorf("github user info: empty id")
	}
	if user.Email == "" {
		return nil, fmt.Errorf("github account has no public email; use another login method")
	}

	return &Profile{
		ProviderID: strconv.FormatInt(user.ID, 10),
		Email:      user.Email,
		Username:   user.Login,
		AvatarURL:  user.AvatarURL,
	}, nil
}
