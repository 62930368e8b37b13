package identity

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// OIDCProvider authenticates against an OpenID Connect issuer. The verified
// id_token claims become the member object, so membership_field can name any
// claim (for example a "membership_level" custom claim).
type OIDCProvider struct {
	cfg      Config
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
	oauth    *oauth2.Config
}

// NewOIDCProvider discovers the issuer and builds the provider.
func NewOIDCProvider(ctx context.Context, cfg Config) (*OIDCProvider, error) {
	p := &OIDCProvider{cfg: cfg}
	if err := p.ValidateConfig(cfg); err != nil {
		return nil, err
	}

	provider, err := oidc.NewProvider(ctx, cfg.OIDC.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("discover OIDC issuer: %w", err)
	}
	p.provider = provider
	p.verifier = provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})

	scopes := cfg.OIDC.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}
	p.oauth = &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     provider.Endpoint(),
		RedirectURL:  cfg.OIDC.RedirectURL,
		Scopes:       scopes,
	}
	return p, nil
}

func (p *OIDCProvider) ID() string    { return ProviderOIDC }
func (p *OIDCProvider) Label() string { return p.cfg.Label }

// LoginPrompt mirrors the MembershipSSO state machine, including the retry
// prompt on an inbound error indicator.
func (p *OIDCProvider) LoginPrompt(r *http.Request) (*Prompt, error) {
	if r.URL.Query().Has("error") {
		code := r.URL.Query().Get("error")
		return &Prompt{
			Kind:      PromptRetry,
			State:     StateAwaitingUserAction,
			Label:     "Try again",
			Message:   p.cfg.ErrorMessage(code) + " " + p.cfg.ErrorAccompanyingMessage,
			ActionURL: callbackPath(ProviderOIDC),
		}, nil
	}

	authURL := p.oauth.AuthCodeURL(r.URL.Query().Get("state"))
	if p.cfg.LoginMode == LoginModePresentButton {
		return &Prompt{
			Kind:      PromptButton,
			State:     StateAwaitingUserAction,
			Label:     "Continue with " + p.cfg.Label,
			ActionURL: authURL,
		}, nil
	}
	h := http.Header{}
	h.Set("Cache-Control", "no-cache")
	return &Prompt{
		Kind:        PromptRedirect,
		State:       StateRedirecting,
		RedirectURL: authURL,
		Headers:     h,
	}, nil
}

// HandleCallback exchanges the code and verifies the id_token.
func (p *OIDCProvider) HandleCallback(ctx context.Context, r *http.Request) (*ExternalIdentity, error) {
	q := r.URL.Query()
	if q.Has("error") {
		return nil, NewAuthError(p.cfg, q.Get("error"))
	}
	code := q.Get("code")
	if code == "" {
		return nil, NewAuthError(p.cfg, "invalid")
	}

	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("token exchange: %w", err)
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, fmt.Errorf("missing id_token in token response")
	}
	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("verify id_token: %w", err)
	}

	var claims map[string]interface{}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("parse claims: %w", err)
	}

	email := stringAttr(claims, "email")
	if idToken.Subject == "" || email == "" {
		return nil, NewAuthError(p.cfg, "not_found")
	}

	return &ExternalIdentity{
		ID:    idToken.Subject,
		Email: email,
		Name:  stringAttr(claims, "name"),
		ExtraData: map[string]interface{}{
			"member": claims,
		},
	}, nil
}

// DefaultConfig returns the OIDC defaults.
func (p *OIDCProvider) DefaultConfig() Config {
	return Config{
		ID:                       ProviderOIDC,
		Label:                    "OpenID Connect",
		MembershipField:          "membership_level",
		RequireActive:            true,
		LoginMode:                LoginModePresentButton,
		ErrorAccessDenied:        "That user does not have access to Virtual Y.",
		ErrorAccompanyingMessage: "Please contact us if you have any questions.",
		ErrorInvalid:             "Something went wrong.",
		ErrorNotFound:            "That user was not found.",
		OIDC: &OIDCSettings{
			Scopes: []string{oidc.ScopeOpenID, "profile", "email"},
		},
	}
}

// ValidateConfig checks the OIDC-specific configuration.
func (p *OIDCProvider) ValidateConfig(cfg Config) error {
	if cfg.OIDC == nil {
		return configErrorf("oidc settings are required")
	}
	if cfg.OIDC.IssuerURL == "" {
		return configErrorf("oidc issuer_url is required")
	}
	if cfg.ClientID == "" {
		return configErrorf("client_id is required")
	}
	if cfg.MembershipField == "" {
		return configErrorf("membership_field is required")
	}
	return nil
}
