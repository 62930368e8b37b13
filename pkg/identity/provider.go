package identity

import (
	"context"
	"net/http"
)

// Provider is the pluggable identity provider contract.
type Provider interface {
	// ID returns the provider id the registry keys on.
	ID() string

	// Label returns the human-readable provider name.
	Label() string

	// LoginPrompt returns the UI descriptor or redirect instruction for a
	// new login attempt. Implementations must return the retry prompt when
	// the inbound request carries an error indicator.
	LoginPrompt(r *http.Request) (*Prompt, error)

	// HandleCallback processes the provider's return and resolves the
	// external identity. Provider-reported failures yield an *AuthError.
	HandleCallback(ctx context.Context, r *http.Request) (*ExternalIdentity, error)

	// DefaultConfig returns the provider's default configuration.
	DefaultConfig() Config

	// ValidateConfig checks a configuration before it is applied.
	ValidateConfig(cfg Config) error
}

// NewProvider builds a provider instance from its configuration. Providers
// are selected by configured id, never by dynamic type discovery.
func NewProvider(ctx context.Context, cfg Config) (Provider, error) {
	switch cfg.ID {
	case ProviderDummy:
		return NewDummyProvider(cfg)
	case ProviderMembershipSSO:
		return NewMembershipSSOProvider(cfg)
	case ProviderOIDC:
		return NewOIDCProvider(ctx, cfg)
	default:
		return nil, configErrorf("unknown provider id %q", cfg.ID)
	}
}

// Known provider ids.
const (
	ProviderDummy         = "dummy"
	ProviderMembershipSSO = "membership_sso"
	ProviderOIDC          = "oidc"
)
