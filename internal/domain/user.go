package domain

import "time"

// Role governs authorization decisions at the gate.
type Role string

const (
	RoleUser   Role = "USER"
	RoleAdmin  Role = "ADMIN"
	RoleSeller Role = "SELLER"
)

// Valid reports whether r belongs to the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSeller:
		return true
	}
	return false
}

// Status decides whether an otherwise valid token is still honored.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

// LoginType records how the account was provisioned. An account provisioned
// through one provider must not authenticate through another.
type LoginType string

const (
	LoginTypePassword LoginType = "EMAIL_PASSWORD"
	LoginTypeGoogle   LoginType = "GOOGLE"
	LoginTypeGithub   LoginType = "GITHUB"
)

// User is the credential record for a principal.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	Status       Status
	LoginType    LoginType
	AvatarURL    string

	EmailVerified bool

	// RefreshToken holds the single active refresh token; empty means the
	// principal has no refreshable session.
	RefreshToken string

	// One-time token pairs: sha256 hex of the secret plus absolute expiry.
	// Each pair is set and cleared together.
	ForgotPasswordToken     string
	ForgotPasswordExpiry    *time.Time
	EmailVerificationToken  string
	EmailVerificationExpiry *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PublicUser is the only user shape that crosses the HTTP boundary.
type PublicUser struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	Role          Role      `json:"role"`
	Status        Status    `json:"status"`
	LoginType     LoginType `json:"loginType"`
	AvatarURL     string    `json:"avatar,omitempty"`
	EmailVerified bool      `json:"isEmailVerify"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Public projects the user without its password hash, refresh token, or
// one-time token fields, so those can never leak regardless of call site.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		Role:          u.Role,
		Status:        u.Status,
		LoginType:     u.LoginType,
		AvatarURL:     u.AvatarURL,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// Sanitized returns a copy safe to attach to a request context: the public
// fields plus nothing secret.
func (u *User) Sanitized() *User {
	clone := *u
	clone.PasswordHash = ""
	clone.RefreshToken = ""
	clone.ForgotPasswordToken = ""
	clone.ForgotPasswordExpiry = nil
	clone.EmailVerificationToken = ""
	clone.EmailVerificationExpiry = nil
	return &clone
}
