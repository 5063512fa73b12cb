package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/apihub-auth/internal/api/http/handlers"
	"github.com/spec-kit/apihub-auth/internal/auth"
	"github.com/spec-kit/apihub-auth/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	OAuth          *handlers.OAuthHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/api/v1/auth")

	// Unsecured: credential creation and the one-time token flows.
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/refresh-token", cfg.Auth.RefreshToken)
	authGroup.Post("/forgot-password", cfg.Auth.ForgotPassword)
	authGroup.Post("/reset-password/:resetToken", cfg.Auth.ResetPassword)
	authGroup.Get("/verify-email/:verificationToken", cfg.Auth.VerifyEmail)

	if cfg.OAuth != nil {
		authGroup.Get("/google", cfg.OAuth.Login(string(domain.LoginTypeGoogle)))
		authGroup.Get("/google/callback", cfg.OAuth.Callback(string(domain.LoginTypeGoogle)))
		authGroup.Get("/github", cfg.OAuth.Login(string(domain.LoginTypeGithub)))
		authGroup.Get("/github/callback", cfg.OAuth.Callback(string(domain.LoginTypeGithub)))
	}

	// Secured: a verified access token is required.
	protected := authGroup.Group("", cfg.AuthMiddleware.Handle)
	protected.Post("/logout", cfg.Auth.Logout)
	protected.Get("/current-user", cfg.Auth.CurrentUser)
	protected.Post("/change-password", cfg.Auth.ChangePassword)
	protected.Get("/resend-verify-email", cfg.Auth.ResendVerification)

	admin := protected.Group("",
		auth.RequireRoles(domain.RoleAdmin),
		auth.RequireStatuses(domain.StatusActive))
	admin.Post("/assign-role/:userId", cfg.Auth.AssignRole)
}
