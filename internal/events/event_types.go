package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered             EventType = "user_registered"
	EventEmailVerificationRequested EventType = "email_verification_requested"
	EventPasswordResetRequested     EventType = "password_reset_requested"
	EventPasswordChanged            EventType = "password_changed"
	EventRoleAssigned               EventType = "role_assigned"
)

// Event represents a session lifecycle event emitted by the auth service.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id"`
	Email     string      `json:"email"`
	Username  string      `json:"username"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// OneTimeTokenPayload carries the raw one-time secret for the notification
// path. It exists only in flight; the store keeps the hash.
type OneTimeTokenPayload struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RoleAssignedPayload payload.
type RoleAssignedPayload struct {
	Role string `json:"role"`
}
