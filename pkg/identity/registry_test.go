package identity

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registryConfigs() []Config {
	return []Config{
		{ID: ProviderDummy, Label: "Dummy"},
		{
			ID:                  ProviderMembershipSSO,
			Label:               "Vendor",
			AuthorizationServer: "https://vendor.example.org",
			ClientID:            "client",
			ClientSecret:        "secret",
			MembershipField:     "PackageName",
			LoginMode:           LoginModePresentButton,
		},
	}
}

func TestRegistry_ExactlyOneActiveProvider(t *testing.T) {
	r, err := NewRegistry(context.Background(), ProviderMembershipSSO, registryConfigs())
	require.NoError(t, err)

	assert.Equal(t, ProviderMembershipSSO, r.ActiveID())

	p, cfg, err := r.Get(ProviderMembershipSSO)
	require.NoError(t, err)
	assert.Equal(t, ProviderMembershipSSO, p.ID())
	assert.Equal(t, "Vendor", cfg.Label)

	// The dummy provider stays registered but cannot authorize.
	_, _, err = r.Get(ProviderDummy)
	assert.ErrorIs(t, err, ErrProviderNotActive)

	_, _, err = r.Get("saml")
	assert.ErrorIs(t, err, ErrProviderNotFound)
}

func TestRegistry_UnknownActiveProviderIsFatal(t *testing.T) {
	_, err := NewRegistry(context.Background(), "saml", registryConfigs())
	assert.ErrorIs(t, err, ErrConfig)
}

func TestRegistry_InvalidProviderConfigIsFatal(t *testing.T) {
	configs := []Config{{ID: ProviderMembershipSSO}} // missing everything
	_, err := NewRegistry(context.Background(), ProviderMembershipSSO, configs)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestRegistry_ReloadSwapsActiveProvider(t *testing.T) {
	r, err := NewRegistry(context.Background(), ProviderDummy, registryConfigs())
	require.NoError(t, err)

	require.NoError(t, r.Reload(context.Background(), ProviderMembershipSSO, registryConfigs()))
	assert.Equal(t, ProviderMembershipSSO, r.ActiveID())

	_, _, err = r.Get(ProviderDummy)
	assert.ErrorIs(t, err, ErrProviderNotActive)
}

func TestRegistry_ReloadRejectsBrokenSetAndKeepsOld(t *testing.T) {
	r, err := NewRegistry(context.Background(), ProviderDummy, registryConfigs())
	require.NoError(t, err)

	err = r.Reload(context.Background(), "missing", registryConfigs())
	require.Error(t, err)

	// The previous configuration stays in effect.
	assert.Equal(t, ProviderDummy, r.ActiveID())
}

func TestRegistry_LoginFormDelegatesToActiveProvider(t *testing.T) {
	r, err := NewRegistry(context.Background(), ProviderDummy, registryConfigs())
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/gate/login", nil)
	prompt, err := r.LoginForm(req)
	require.NoError(t, err)
	assert.Equal(t, PromptButton, prompt.Kind)
}
