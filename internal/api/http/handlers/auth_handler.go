package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/apihub-auth/internal/api/dto"
	"github.com/spec-kit/apihub-auth/internal/auth"
	"github.com/spec-kit/apihub-auth/internal/domain"
	"github.com/spec-kit/apihub-auth/internal/service"
	apperrors "github.com/spec-kit/apihub-auth/pkg/util"
)

// AuthHandler exposes the session lifecycle endpoints.
type AuthHandler struct {
	auth          *service.AuthService
	secureCookies bool
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, secureCookies bool) *AuthHandler {
	return &AuthHandler{auth: authService, secureCookies: secureCookies}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Username == "" || req.Password == "" {
		return apperrors.NewValidationError("email, username and password are required", nil)
	}

	user, err := h.auth.Register(c.UserContext(), req.Username, req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(
		dto.NewEnvelope(http.StatusCreated, "register user successfully", user.Public()))
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("please enter a valid email and password", nil)
	}

	user, pair, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	h.setAuthCookies(c, pair)
	return c.JSON(dto.NewEnvelope(http.StatusOK, "login user successfully", dto.AuthData{
		User:         user.Public(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}))
}

// RefreshToken handles POST /auth/refresh-token. The refresh token travels
// in its cookie; a bearer-style body is not accepted.
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	presented := c.Cookies(auth.CookieRefreshToken)
	if presented == "" {
		return apperrors.NewUnauthorized("missing refresh token")
	}

	user, pair, err := h.auth.Refresh(c.UserContext(), presented)
	if err != nil {
		return err
	}

	h.setAuthCookies(c, pair)
	return c.JSON(dto.NewEnvelope(http.StatusOK, "token pair refreshed", dto.AuthData{
		User:         user.Public(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}))
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, ok := auth.CurrentUser(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	if err := h.auth.Logout(c.UserContext(), principal.ID); err != nil {
		return err
	}

	h.clearAuthCookies(c)
	return c.JSON(dto.NewEnvelope(http.StatusOK, "logout current user successfully", nil))
}

// CurrentUser handles GET /auth/current-user.
func (h *AuthHandler) CurrentUser(c *fiber.Ctx) error {
	principal, ok := auth.CurrentUser(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	return c.JSON(dto.NewEnvelope(http.StatusOK, "current user fetched successfully", principal.Public()))
}

// ChangePassword handles POST /auth/change-password.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	principal, ok := auth.CurrentUser(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.OldPassword == "" || req.NewPassword == "" {
		return apperrors.NewValidationError("old and new password are required", nil)
	}

	if err := h.auth.ChangePassword(c.UserContext(), principal.ID, req.OldPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(dto.NewEnvelope(http.StatusOK, "password changed successfully", nil))
}

// ForgotPassword handles POST /auth/forgot-password. The response is the
// same whether or not the email exists.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" {
		return apperrors.NewValidationError("email is required", nil)
	}

	if err := h.auth.ForgotPassword(c.UserContext(), req.Email); err != nil {
		return err
	}
	return c.JSON(dto.NewEnvelope(http.StatusOK, "password reset mail has been sent on your mail id", nil))
}

// ResetPassword handles POST /auth/reset-password/:resetToken.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.NewPassword == "" {
		return apperrors.NewValidationError("new password is required", nil)
	}

	if err := h.auth.ResetPassword(c.UserContext(), c.Params("resetToken"), req.NewPassword); err != nil {
		return err
	}
	return c.JSON(dto.NewEnvelope(http.StatusOK, "password reset successfully", nil))
}

// VerifyEmail handles GET /auth/verify-email/:verificationToken.
func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	user, err := h.auth.VerifyEmail(c.UserContext(), c.Params("verificationToken"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewEnvelope(http.StatusOK, "email verified successfully", user.Public()))
}

// ResendVerification handles GET /auth/resend-verify-email.
func (h *AuthHandler) ResendVerification(c *fiber.Ctx) error {
	principal, ok := auth.CurrentUser(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	if err := h.auth.ResendVerification(c.UserContext(), principal.ID); err != nil {
		return err
	}
	return c.JSON(dto.NewEnvelope(http.StatusOK, "verification mail has been sent on your mail id", nil))
}

// AssignRole handles POST /auth/assign-role/:userId; the admin restriction
// is enforced by the gate on the route.
func (h *AuthHandler) AssignRole(c *fiber.Ctx) error {
	var req dto.AssignRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Role == "" {
		return apperrors.NewValidationError("role is required", nil)
	}

	if err := h.auth.AssignRole(c.UserContext(), c.Params("userId"), domain.Role(req.Role)); err != nil {
		return err
	}
	return c.JSON(dto.NewEnvelope(http.StatusOK, "role changed for the user", nil))
}

func (h *AuthHandler) setAuthCookies(c *fiber.Ctx, pair *service.TokenPair) {
	SetAuthCookies(c, pair, h.secureCookies)
}

func (h *AuthHandler) clearAuthCookies(c *fiber.Ctx) {
	ClearAuthCookies(c, h.secureCookies)
}

// SetAuthCookies writes the token pair as http-only cookies on path /.
func SetAuthCookies(c *fiber.Ctx, pair *service.TokenPair, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     auth.CookieAccessToken,
		Value:    pair.AccessToken,
		Path:     "/",
		Expires:  pair.AccessExpiresAt,
		HTTPOnly: true,
		Secure:   secure,
	})
	c.Cookie(&fiber.Cookie{
		Name:     auth.CookieRefreshToken,
		Value:    pair.RefreshToken,
		Path:     "/",
		Expires:  pair.RefreshExpiresAt,
		HTTPOnly: true,
		Secure:   secure,
	})
}

// ClearAuthCookies expires both auth cookies.
func ClearAuthCookies(c *fiber.Ctx, secure bool) {
	expired := time.Now().Add(-time.Hour)
	for _, name := range []string{auth.CookieAccessToken, auth.CookieRefreshToken} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Expires:  expired,
			HTTPOnly: true,
			Secure:   secure,
		})
	}
}
