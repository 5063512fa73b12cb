package handlers

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/spec-kit/apihub-auth/internal/api/dto"
	"github.com/spec-kit/apihub-auth/internal/oauth"
	"github.com/spec-kit/apihub-auth/internal/service"
	apperrors "github.com/spec-kit/apihub-auth/pkg/util"
)

const (
	oauthStateCookie = "oauthState"
	oauthStateTTL    = 10 * time.Minute
)

// OAuthHandler runs the authorization-code flow for the configured providers.
type OAuthHandler struct {
	auth          *service.AuthService
	providers     map[string]oauth.Provider
	redirectURL   string
	secureCookies bool
}

// NewOAuthHandler constructs handler. redirectURL is the client page tokens
// are forwarded to after a successful callback; when empty the callback
// answers with a JSON envelope instead.
func NewOAuthHandler(authService *service.AuthService, providers []oauth.Provider, redirectURL string, secureCookies bool) *OAuthHandler {
	byName := make(map[string]oauth.Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &OAuthHandler{
		auth:          authService,
		providers:     byName,
		redirectURL:   redirectURL,
		secureCookies: secureCookies,
	}
}

// Login redirects the browser to the provider's consent screen. A random
// state value is pinned in a short-lived cookie and checked on callback.
func (h *OAuthHandler) Login(providerName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		provider, ok := h.providers[providerName]
		if !ok {
			return apperrors.NewNotFound("unknown oauth provider")
		}

		state := uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     oauthStateCookie,
			Value:    state,
			Path:     "/",
			Expires:  time.Now().Add(oauthStateTTL),
			HTTPOnly: true,
			Secure:   h.secureCookies,
		})
		return c.Redirect(provider.LoginURL(state), http.StatusTemporaryRedirect)
	}
}

// Callback completes the flow: state check, code exchange, then login or
// just-in-time provisioning of the external identity.
func (h *OAuthHandler) Callback(providerName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		provider, ok := h.providers[providerName]
		if !ok {
			return apperrors.NewNotFound("unknown oauth provider")
		}

		if errParam := c.Query("error"); errParam != "" {
			return apperrors.NewUnauthorized("provider denied the authorization request")
		}

		state := c.Query("state")
		if state == "" || state != c.Cookies(oauthStateCookie) {
			return apperrors.NewUnauthorized("oauth state mismatch")
		}
		c.Cookie(&fiber.Cookie{
			Name:     oauthStateCookie,
			Value:    "",
			Path:     "/",
			Expires:  time.Now().Add(-time.Hour),
			HTTPOnly: true,
			Secure:   h.secureCookies,
		})

		code := c.Query("code")
		if code == "" {
			return apperrors.NewValidationError("missing authorization code", nil)
		}

		profile, err := provider.ExchangeCode(c.UserContext(), code)
		if err != nil {
			return apperrors.NewUnauthorized("code exchange failed")
		}

		user, pair, err := h.auth.LoginWithOAuth(c.UserContext(), provider.Name(), profile)
		if err != nil {
			return err
		}

		SetAuthCookies(c, pair, h.secureCookies)
		if h.redirectURL != "" {
			target := h.redirectURL + "?accessToken=" + url.QueryEscape(pair.AccessToken) +
				"&refreshToken=" + url.QueryEscape(pair.RefreshToken)
			return c.Redirect(target, http.StatusTemporaryRedirect)
		}
		return c.JSON(dto.NewEnvelope(http.StatusOK, "login user successfully", dto.AuthData{
			User:         user.Public(),
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
		}))
	}
}
