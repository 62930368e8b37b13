package identity

import (
	"context"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDummyProvider_LoginPromptPresentsButton(t *testing.T) {
	p, err := NewDummyProvider(Config{ID: ProviderDummy, Label: "Dummy", Autosubmit: true})
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/gate/login", nil)
	prompt, err := p.LoginPrompt(r)
	require.NoError(t, err)

	assert.Equal(t, PromptButton, prompt.Kind)
	assert.Equal(t, StateAwaitingUserAction, prompt.State)
	assert.Equal(t, "/gate/providers/dummy/callback", prompt.ActionURL)
	assert.True(t, prompt.Autosubmit)
}

func TestDummyProvider_LoginPromptWithErrorIndicatorIsRetry(t *testing.T) {
	p, err := NewDummyProvider(Config{ID: ProviderDummy, ErrorAccompanyingMessage: "Contact us."})
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/gate/login?error=invalid", nil)
	prompt, err := p.LoginPrompt(r)
	require.NoError(t, err)

	assert.Equal(t, PromptRetry, prompt.Kind)
	assert.Empty(t, prompt.RedirectURL)
	assert.Equal(t, "Contact us.", prompt.Message)
}

func TestDummyProvider_HandleCallbackSynthesizesIdentity(t *testing.T) {
	p, err := NewDummyProvider(Config{ID: ProviderDummy})
	require.NoError(t, err)

	r := httptest.NewRequest("POST", "/gate/providers/dummy/callback", nil)
	r.RemoteAddr = "203.0.113.7:51234"

	ident, err := p.HandleCallback(context.Background(), r)
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^dummy\+203\.0\.113\.7\+\d{1,4}$`), ident.ID)
	assert.Equal(t, ident.ID+"@virtualy.org", ident.Email)
}

func TestDummyProvider_RejectsRedirectMode(t *testing.T) {
	_, err := NewDummyProvider(Config{ID: ProviderDummy, LoginMode: LoginModeRedirectImmediately})
	assert.ErrorIs(t, err, ErrConfig)
}
