package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/apihub-auth/internal/auth"
	"github.com/spec-kit/apihub-auth/internal/cache"
	"github.com/spec-kit/apihub-auth/internal/config"
	"github.com/spec-kit/apihub-auth/internal/domain"
	"github.com/spec-kit/apihub-auth/internal/events"
	"github.com/spec-kit/apihub-auth/internal/oauth"
	"github.com/spec-kit/apihub-auth/internal/observability"
	"github.com/spec-kit/apihub-auth/internal/repository"
	apperrors "github.com/spec-kit/apihub-auth/pkg/util"
)

// TokenPair bundles the signed access/refresh tokens issued together.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// AuthService coordinates the session lifecycle: registration, login,
// refresh, logout, password change/reset, email verification, role changes.
type AuthService struct {
	users        repository.UserRepository
	tokenMgr     *auth.TokenManager
	cache        *cache.UserCache
	dispatcher   events.Dispatcher
	metrics      *observability.Metrics
	logger       *zap.Logger
	bcryptCost   int
	tempTokenTTL time.Duration
}

// AuthDependencies encapsulates collaborator requirements for auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Cache      *cache.UserCache
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:        deps.UserRepo,
		tokenMgr:     auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes, cfg.Auth.RefreshTokenTTLMinutes),
		cache:        deps.Cache,
		dispatcher:   deps.Dispatcher,
		metrics:      deps.Metrics,
		logger:       deps.Logger,
		bcryptCost:   cfg.Auth.BcryptCost,
		tempTokenTTL: time.Duration(cfg.Auth.TempTokenTTLMinutes) * time.Minute,
	}
}

// Register creates a credential and emails a verification link. The email is
// a best-effort side effect; a failed send never rolls the account back.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Username:     strings.TrimSpace(username),
		Email:        normalizeEmail(email),
		PasswordHash: hash,
		Role:         domain.RoleUser,
		Status:       domain.StatusActive,
		LoginType:    domain.LoginTypePassword,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("email or username already exists", nil)
		}
		return nil, apperrors.MapError(err)
	}

	s.metrics.RecordAuthEvent("registration")
	if err := s.issueEmailVerification(ctx, user); err != nil {
		s.logger.Warn("verification token issue failed after registration",
			zap.String("user_id", user.ID), zap.Error(err))
	}
	return user, nil
}

// Login authenticates a password credential and issues a token pair. The new
// refresh token is persisted before the pair is returned.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, *TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.metrics.RecordAuthEvent("login_failure")
			return nil, nil, apperrors.NewNotFound("user not found")
		}
		return nil, nil, apperrors.MapError(err)
	}

	if user.LoginType != domain.LoginTypePassword {
		return nil, nil, apperrors.NewConflict(
			"you have previously registered using "+strings.ToLower(string(user.LoginType))+"; please use that login option", nil)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		s.metrics.RecordAuthEvent("login_failure")
		return nil, nil, apperrors.NewForbidden("Invalid password")
	}
	if user.Status != domain.StatusActive {
		return nil, nil, apperrors.NewForbidden("your account is not active")
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	s.metrics.RecordAuthEvent("login_success")
	return user, pair, nil
}

// LoginWithOAuth finds or creates a credential for a verified external
// profile and issues tokens identically to password login. A pre-existing
// account with a different provenance is a conflict, never a silent login.
func (s *AuthService) LoginWithOAuth(ctx context.Context, provider string, profile *oauth.Profile) (*domain.User, *TokenPair, error) {
	loginType := domain.LoginType(provider)
	if profile.Email == "" {
		return nil, nil, apperrors.NewValidationError("provider profile has no email", nil)
	}

	user, err := s.users.GetByEmail(ctx, normalizeEmail(profile.Email))
	switch {
	case err == nil:
		if user.LoginType != loginType {
			return nil, nil, apperrors.NewConflict(
				"you have previously registered using "+strings.ToLower(string(user.LoginType))+"; please use that login option", nil)
		}
	case errors.Is(err, pgx.ErrNoRows):
		user, err = s.provisionOAuthUser(ctx, loginType, profile)
		if err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, apperrors.MapError(err)
	}

	if user.Status != domain.StatusActive {
		return nil, nil, apperrors.NewForbidden("your account is not active")
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	s.metrics.RecordAuthEvent("login_success")
	return user, pair, nil
}

// Refresh rotates the token pair. The presented refresh token must verify
// AND match the stored one, so logout and rotation revoke older tokens.
func (s *AuthService) Refresh(ctx context.Context, presented string) (*domain.User, *TokenPair, error) {
	claims, err := s.tokenMgr.ParseToken(presented, auth.TokenUseRefresh)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, nil, apperrors.NewUnauthorized("refresh token expired")
		}
		return nil, nil, apperrors.NewUnauthorized("invalid refresh token")
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewUnauthorized("invalid refresh token: user not found")
		}
		return nil, nil, apperrors.MapError(err)
	}
	if user.RefreshToken == "" || user.RefreshToken != presented {
		return nil, nil, apperrors.NewUnauthorized("refresh token no longer active")
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	s.metrics.RecordAuthEvent("token_refresh")
	return user, pair, nil
}

// Logout clears the stored refresh token; the access token simply ages out.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.users.ClearRefreshToken(ctx, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("current user not found")
		}
		return apperrors.MapError(err)
	}
	s.cache.Invalidate(ctx, userID)
	return nil
}

// ChangePassword verifies the old password before re-hashing the new one.
func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("current user not found")
		}
		return apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, oldPassword); err != nil {
		return apperrors.NewValidationError("Invalid old password", nil)
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return apperrors.MapError(err)
	}

	s.publish(ctx, events.EventPasswordChanged, user, nil)
	return nil
}

// ForgotPassword issues a reset token and emails it. An unknown email gets
// the same outcome as a known one so accounts cannot be enumerated.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Info("password reset requested for unknown email")
			return nil
		}
		return apperrors.MapError(err)
	}

	token, err := auth.NewTemporaryToken(s.tempTokenTTL)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := s.users.SetPasswordResetToken(ctx, user.ID, token.Hashed, token.ExpiresAt); err != nil {
		return apperrors.MapError(err)
	}

	s.publish(ctx, events.EventPasswordResetRequested, user, events.OneTimeTokenPayload{
		Token:     token.Unhashed,
		ExpiresAt: token.ExpiresAt,
	})
	return nil
}

// ResetPassword redeems a reset token. Redemption clears the token pair in
// the same statement that swaps the password, so replays always fail.
func (s *AuthService) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	user, err := s.users.RedeemPasswordReset(ctx, auth.HashTemporaryToken(rawToken), hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewInvalidToken("Token is invalid or expired")
		}
		return apperrors.MapError(err)
	}

	s.metrics.RecordAuthEvent("password_reset")
	s.publish(ctx, events.EventPasswordChanged, user, nil)
	return nil
}

// VerifyEmail redeems a verification token.
func (s *AuthService) VerifyEmail(ctx context.Context, rawToken string) (*domain.User, error) {
	user, err := s.users.RedeemEmailVerification(ctx, auth.HashTemporaryToken(rawToken))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewInvalidToken("Token is invalid or expired")
		}
		return nil, apperrors.MapError(err)
	}

	s.cache.Invalidate(ctx, user.ID)
	s.metrics.RecordAuthEvent("email_verified")
	return user, nil
}

// ResendVerification reissues the verification token, replacing any pending
// one. Already verified accounts get a conflict.
func (s *AuthService) ResendVerification(ctx context.Context, userID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("current user not found")
		}
		return apperrors.MapError(err)
	}
	if user.EmailVerified {
		return apperrors.NewConflict("email is already verified", nil)
	}
	if err := s.issueEmailVerification(ctx, user); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// AssignRole sets the target principal's role. The admin check lives at the
// gate; this only validates and applies.
func (s *AuthService) AssignRole(ctx context.Context, targetID string, role domain.Role) error {
	if !role.Valid() {
		return apperrors.NewValidationError("unknown role", map[string]any{"role": role})
	}
	if err := s.users.UpdateRole(ctx, targetID, role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user does not exist")
		}
		return apperrors.MapError(err)
	}

	s.cache.Invalidate(ctx, targetID)
	s.publish(ctx, events.EventRoleAssigned, &domain.User{ID: targetID}, events.RoleAssignedPayload{Role: string(role)})
	return nil
}

// GetUser loads a credential by id.
func (s *AuthService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user not found")
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) issueTokenPair(ctx context.Context, user *domain.User) (*TokenPair, error) {
	access, accessExp, err := s.tokenMgr.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	refresh, refreshExp, err := s.tokenMgr.GenerateRefreshToken(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	// The rotation must be durable before the client sees the tokens.
	if err := s.users.UpdateRefreshToken(ctx, user.ID, refresh); err != nil {
		return nil, apperrors.MapError(err)
	}
	user.RefreshToken = refresh

	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (s *AuthService) provisionOAuthUser(ctx context.Context, loginType domain.LoginType, profile *oauth.Profile) (*domain.User, error) {
	// The credential still needs a secret; OAuth principals never use it.
	placeholder, err := auth.NewTemporaryToken(time.Minute)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	hash, err := auth.HashPassword(placeholder.Unhashed, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Username:      s.availableUsername(ctx, profile),
		Email:         normalizeEmail(profile.Email),
		PasswordHash:  hash,
		Role:          domain.RoleUser,
		Status:        domain.StatusActive,
		LoginType:     loginType,
		AvatarURL:     profile.AvatarURL,
		EmailVerified: true, // the provider already verified the address
	}
	if err := s.users.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("email or username already exists", nil)
		}
		return nil, apperrors.MapError(err)
	}

	s.metrics.RecordAuthEvent("registration")
	s.publish(ctx, events.EventUserRegistered, user, nil)
	return user, nil
}

func (s *AuthService) availableUsername(ctx context.Context, profile *oauth.Profile) string {
	candidates := []string{profile.Username, localPart(profile.Email)}
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if _, err := s.users.GetByUsername(ctx, candidate); errors.Is(err, pgx.ErrNoRows) {
			return candidate
		}
	}
	return localPart(profile.Email) + "-" + uuid.NewString()[:8]
}

func (s *AuthService) issueEmailVerification(ctx context.Context, user *domain.User) error {
	token, err := auth.NewTemporaryToken(s.tempTokenTTL)
	if err != nil {
		return err
	}
	if err := s.users.SetEmailVerificationToken(ctx, user.ID, token.Hashed, token.ExpiresAt); err != nil {
		return err
	}

	s.publish(ctx, events.EventEmailVerificationRequested, user, events.OneTimeTokenPayload{
		Token:     token.Unhashed,
		ExpiresAt: token.ExpiresAt,
	})
	return nil
}

func (s *AuthService) publish(ctx context.Context, eventType events.EventType, user *domain.User, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    user.ID,
		Email:     user.Email,
		Username:  user.Username,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func localPart(email string) string {
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}
