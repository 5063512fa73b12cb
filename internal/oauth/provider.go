// Package oauth implements the authorization-code flow against external
// identity providers. Providers are explicit values constructed at startup
// and passed into the router; there is no process-wide strategy registry.
package oauth

import "context"

// Profile is the verified external identity a provider hands back.
type Profile struct {
	ProviderID string
	Email      string
	Username   string
	AvatarURL  string
}

// Provider abstracts one external identity provider.
type Provider interface {
	// Name matches a domain.LoginType value ("GOOGLE", "GITHUB").
	Name() string
	// LoginURL builds the provider's authorization URL for the given state.
	LoginURL(state string) string
	// ExchangeCode trades an authorization code for a verified profile.
	ExchangeCode(ctx context.Context, code string) (*Profile, error)
}
