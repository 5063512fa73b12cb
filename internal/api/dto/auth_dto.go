package dto

import "github.com/spec-kit/apihub-auth/internal/domain"

// Envelope is the response shape carried by every endpoint, success or not.
type Envelope struct {
	StatusCode int    `json:"statusCode"`
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Data       any    `json:"data,omitempty"`
	Errors     any    `json:"errors,omitempty"`
}

// NewEnvelope builds a response envelope; success derives from the status.
func NewEnvelope(statusCode int, message string, data any) Envelope {
	return Envelope{
		StatusCode: statusCode,
		Success:    statusCode < 400,
		Message:    message,
		Data:       data,
	}
}

// RegisterRequest payload for new credentials.
type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest payload for password login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ChangePasswordRequest payload.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// ForgotPasswordRequest payload.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest payload; the token travels in the path.
type ResetPasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

// AssignRoleRequest payload.
type AssignRoleRequest struct {
	Role string `json:"role"`
}

// AuthData is the login/refresh response body. Tokens are also set as
// cookies; the body copy serves non-browser clients.
type AuthData struct {
	User         domain.PublicUser `json:"user"`
	AccessToken  string            `json:"accessToken"`
	RefreshToken string            `json:"refreshToken"`
}
