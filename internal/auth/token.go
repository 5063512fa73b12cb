package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/apihub-auth/internal/domain"
)

// TokenUse separates the two signed token families so one can never stand in
// for the other.
type TokenUse string

const (
	TokenUseAccess  TokenUse = "access"
	TokenUseRefresh TokenUse = "refresh"
)

var (
	// ErrTokenExpired marks a well-formed token past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid covers bad signatures, malformed tokens, and wrong use.
	ErrTokenInvalid = errors.New("invalid token")
)

// TokenManager issues and validates the signed access/refresh token pair.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, accessTTLMinutes, refreshTTLMinutes int) *TokenManager {
	if accessTTLMinutes <= 0 {
		accessTTLMinutes = 24 * 60
	}
	if refreshTTLMinutes <= 0 {
		refreshTTLMinutes = 7 * 24 * 60
	}
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  time.Duration(accessTTLMinutes) * time.Minute,
		refreshTTL: time.Duration(refreshTTLMinutes) * time.Minute,
	}
}

// Claims describes the JWT payload.
type Claims struct {
	Role     domain.Role `json:"role,omitempty"`
	TokenUse TokenUse    `json:"token_use"`
	jwt.RegisteredClaims
}

// GenerateAccessToken signs a short-lived token carrying id and role.
func (tm *TokenManager) GenerateAccessToken(userID string, role domain.Role) (string, time.Time, error) {
	return tm.generate(userID, role, TokenUseAccess, tm.accessTTL)
}

// GenerateRefreshToken signs a long-lived token used only for rotation.
func (tm *TokenManager) GenerateRefreshToken(userID string, role domain.Role) (string, time.Time, error) {
	return tm.generate(userID, role, TokenUseRefresh, tm.refreshTTL)
}

func (tm *TokenManager) generate(userID string, role domain.Role, use TokenUse, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := &Claims{
		Role:     role,
		TokenUse: use,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken validates signature, expiry, and token use, and returns claims.
func (tm *TokenManager) ParseToken(tokenStr string, expected TokenUse) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.TokenUse != expected {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
