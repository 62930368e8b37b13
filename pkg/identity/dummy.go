package identity

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"net/http"
)

// DummyProvider is the no-op provider variant. It authenticates anyone who
// presses the button by synthesizing an identity from the client address.
// Meant for development and demo sites only.
type DummyProvider struct {
	cfg Config
}

// NewDummyProvider creates a dummy provider from configuration.
func NewDummyProvider(cfg Config) (*DummyProvider, error) {
	p := &DummyProvider{cfg: cfg}
	if err := p.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *DummyProvider) ID() string    { return ProviderDummy }
func (p *DummyProvider) Label() string { return p.cfg.Label }

// LoginPrompt always presents the login button; the dummy flow has no
// provider round trip that could fail, but a stray error indicator still
// renders the retry prompt for consistency with the contract.
func (p *DummyProvider) LoginPrompt(r *http.Request) (*Prompt, error) {
	if r.URL.Query().Has("error") {
		return &Prompt{
			Kind:      PromptRetry,
			State:     StateAwaitingUserAction,
			Label:     "Try again",
			Message:   p.cfg.ErrorAccompanyingMessage,
			ActionURL: callbackPath(ProviderDummy),
		}, nil
	}
	return &Prompt{
		Kind:       PromptButton,
		State:      StateAwaitingUserAction,
		Label:      "Enter Virtual Y",
		ActionURL:  callbackPath(ProviderDummy),
		Autosubmit: p.cfg.Autosubmit,
	}, nil
}

// HandleCallback synthesizes an identity from the client address and a random
// suffix, so repeated dummy logins never collide on the same account name.
func (p *DummyProvider) HandleCallback(_ context.Context, r *http.Request) (*ExternalIdentity, error) {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	name := fmt.Sprintf("dummy+%s+%d", host, rand.Intn(10000))
	return &ExternalIdentity{
		ID:    name,
		Email: name + "@virtualy.org",
		Name:  name,
	}, nil
}

// DefaultConfig returns the dummy provider defaults.
func (p *DummyProvider) DefaultConfig() Config {
	return Config{
		ID:         ProviderDummy,
		Label:      "Dummy provider",
		LoginMode:  LoginModePresentButton,
		Autosubmit: false,
	}
}

// ValidateConfig checks the dummy configuration. The dummy flow only ever
// presents a button; redirect_immediately makes no sense without a provider
// to redirect to.
func (p *DummyProvider) ValidateConfig(cfg Config) error {
	if cfg.LoginMode == LoginModeRedirectImmediately {
		return configErrorf("dummy provider does not support login_mode %q", cfg.LoginMode)
	}
	return nil
}

func callbackPath(providerID string) string {
	return "/gate/providers/" + providerID + "/callback"
}
