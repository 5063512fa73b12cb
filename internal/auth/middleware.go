package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/apihub-auth/internal/domain"
	apperrors "github.com/spec-kit/apihub-auth/pkg/util"
)

const principalKey = "auth_principal"

// Cookie names shared by the gate and the auth handlers.
const (
	CookieAccessToken  = "accessToken"
	CookieRefreshToken = "refreshToken"
)

// UserLoader loads credentials for the gate.
type UserLoader interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// PrincipalCache is an optional read-through cache in front of the loader.
type PrincipalCache interface {
	Get(ctx context.Context, id string) (*domain.User, bool)
	Set(ctx context.Context, user *domain.User)
}

// AuthMiddleware validates bearer credentials and loads principals.
type AuthMiddleware struct {
	tokens *TokenManager
	users  UserLoader
	cache  PrincipalCache
}

// NewAuthMiddleware constructs the gate. cache may be nil.
func NewAuthMiddleware(tokens *TokenManager, users UserLoader, cache PrincipalCache) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users, cache: cache}
}

// Handle enforces authentication for protected routes. The access token is
// read from the accessToken cookie first, then from the Authorization header;
// the cookie wins when both are present.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	tokenStr := c.Cookies(CookieAccessToken)
	if tokenStr == "" {
		tokenStr = bearerToken(c.Get(fiber.HeaderAuthorization))
	}
	if tokenStr == "" {
		return apperrors.NewUnauthorized("no token provided")
	}

	claims, err := m.tokens.ParseToken(tokenStr, TokenUseAccess)
	if err != nil {
		if err == ErrTokenExpired {
			return apperrors.NewUnauthorized("access token expired")
		}
		return apperrors.NewUnauthorized("invalid access token")
	}

	user, err := m.loadUser(c.UserContext(), claims.Subject)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewUnauthorized("invalid access token: user not found")
		}
		return apperrors.MapError(err)
	}

	c.Locals(principalKey, user.Sanitized())
	return c.Next()
}

func (m *AuthMiddleware) loadUser(ctx context.Context, id string) (*domain.User, error) {
	if m.cache != nil {
		if user, ok := m.cache.Get(ctx, id); ok {
			return user, nil
		}
	}
	user, err := m.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.cache != nil {
		m.cache.Set(ctx, user.Sanitized())
	}
	return user, nil
}

// RequireRoles restricts a route to the given roles. No roles means any
// authenticated principal passes.
func RequireRoles(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := CurrentUser(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Role]; !exists {
			return apperrors.NewForbidden("permission not allowed for this user")
		}
		return c.Next()
	}
}

// RequireStatuses restricts a route to principals in the given statuses.
func RequireStatuses(allowed ...domain.Status) fiber.Handler {
	allowedSet := make(map[domain.Status]struct{}, len(allowed))
	for _, status := range allowed {
		allowedSet[status] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := CurrentUser(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Status]; !exists {
			return apperrors.NewForbidden("your account is not active")
		}
		return c.Next()
	}
}

// CurrentUser retrieves the authenticated principal.
func CurrentUser(c *fiber.Ctx) (*domain.User, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*domain.User)
	return principal, ok
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
