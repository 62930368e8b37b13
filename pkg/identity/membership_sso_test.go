package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ssoConfig(server string) Config {
	return Config{
		ID:                       ProviderMembershipSSO,
		Label:                    "Test Vendor",
		AuthorizationServer:      server,
		ClientID:                 "client",
		ClientSecret:             "secret",
		RedirectURL:              "https://gym.example.org/gate/providers/membership_sso/callback",
		MembershipField:          "PackageName",
		LoginMode:                LoginModePresentButton,
		ErrorAccessDenied:        "That user does not have access to Virtual Y.",
		ErrorNotFound:            "That user was not found.",
		ErrorInvalid:             "Something went wrong.",
		ErrorAccompanyingMessage: "Please contact us if you have any questions.",
	}
}

// memberVendor fakes the vendor's token and member endpoints.
func memberVendor(t *testing.T, memberStatus int, member map[string]interface{}) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "tok",
			"token_type":   "Bearer",
		})
	})
	mux.HandleFunc("/api/members/me", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); !strings.Contains(got, "tok") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if memberStatus != http.StatusOK {
			w.WriteHeader(memberStatus)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"member": member})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestMembershipSSO_LoginPromptButtonMode(t *testing.T) {
	p, err := NewMembershipSSOProvider(ssoConfig("https://vendor.example.org"))
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/gate/login", nil)
	prompt, err := p.LoginPrompt(r)
	require.NoError(t, err)

	assert.Equal(t, PromptButton, prompt.Kind)
	assert.Contains(t, prompt.ActionURL, "https://vendor.example.org/oauth/authorize")
	assert.Contains(t, prompt.ActionURL, "client_id=client")
}

func TestMembershipSSO_LoginPromptRedirectMode(t *testing.T) {
	cfg := ssoConfig("https://vendor.example.org")
	cfg.LoginMode = LoginModeRedirectImmediately
	p, err := NewMembershipSSOProvider(cfg)
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/gate/login", nil)
	prompt, err := p.LoginPrompt(r)
	require.NoError(t, err)

	assert.Equal(t, PromptRedirect, prompt.Kind)
	assert.Equal(t, StateRedirecting, prompt.State)
	assert.Contains(t, prompt.RedirectURL, "/oauth/authorize")
	assert.Equal(t, "no-cache", prompt.Headers.Get("Cache-Control"))
}

func TestMembershipSSO_ErrorIndicatorNeverRedirectsAgain(t *testing.T) {
	// Even in redirect mode, a failed attempt coming back with an error
	// indicator must render the retry prompt, or the browser would bounce
	// between us and the failing provider forever.
	cfg := ssoConfig("https://vendor.example.org")
	cfg.LoginMode = LoginModeRedirectImmediately
	p, err := NewMembershipSSOProvider(cfg)
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/gate/login?error=access_denied", nil)
	prompt, err := p.LoginPrompt(r)
	require.NoError(t, err)

	assert.Equal(t, PromptRetry, prompt.Kind)
	assert.Empty(t, prompt.RedirectURL)
	assert.Equal(t,
		"That user does not have access to Virtual Y. Please contact us if you have any questions.",
		prompt.Message)
}

func TestMembershipSSO_HandleCallbackSuccess(t *testing.T) {
	vendor := memberVendor(t, http.StatusOK, map[string]interface{}{
		"MemberId":    "M-100",
		"Email":       "pat@example.org",
		"FirstName":   "Pat",
		"LastName":    "Miller",
		"PackageName": "GOLD",
	})
	p, err := NewMembershipSSOProvider(ssoConfig(vendor.URL))
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/gate/providers/membership_sso/callback?code=abc", nil)
	ident, err := p.HandleCallback(context.Background(), r)
	require.NoError(t, err)

	assert.Equal(t, "M-100", ident.ID)
	assert.Equal(t, "pat@example.org", ident.Email)
	assert.Equal(t, "Pat Miller", ident.Name)

	member, ok := ident.ExtraData["member"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "GOLD", member["PackageName"])
}

func TestMembershipSSO_HandleCallbackProviderError(t *testing.T) {
	p, err := NewMembershipSSOProvider(ssoConfig("https://vendor.example.org"))
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/gate/providers/membership_sso/callback?error=access_denied", nil)
	_, err = p.HandleCallback(context.Background(), r)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "access_denied", authErr.Code)
	assert.Equal(t, "That user does not have access to Virtual Y.", authErr.Message)
}

func TestMembershipSSO_HandleCallbackMissingCode(t *testing.T) {
	p, err := NewMembershipSSOProvider(ssoConfig("https://vendor.example.org"))
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/gate/providers/membership_sso/callback", nil)
	_, err = p.HandleCallback(context.Background(), r)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "invalid", authErr.Code)
}

func TestMembershipSSO_MemberNotFound(t *testing.T) {
	vendor := memberVendor(t, http.StatusNotFound, nil)
	p, err := NewMembershipSSOProvider(ssoConfig(vendor.URL))
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/gate/providers/membership_sso/callback?code=abc", nil)
	_, err = p.HandleCallback(context.Background(), r)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "not_found", authErr.Code)
	assert.Equal(t, "That user was not found.", authErr.Message)
}

func TestMembershipSSO_MemberAccessDenied(t *testing.T) {
	vendor := memberVendor(t, http.StatusForbidden, nil)
	p, err := NewMembershipSSOProvider(ssoConfig(vendor.URL))
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/gate/providers/membership_sso/callback?code=abc", nil)
	_, err = p.HandleCallback(context.Background(), r)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "access_denied", authErr.Code)
}

func TestMembershipSSO_ValidateConfig(t *testing.T) {
	base := ssoConfig("https://vendor.example.org")
	p, err := NewMembershipSSOProvider(base)
	require.NoError(t, err)

	broken := base
	broken.ClientID = ""
	assert.ErrorIs(t, p.ValidateConfig(broken), ErrConfig)

	broken = base
	broken.MembershipField = ""
	assert.ErrorIs(t, p.ValidateConfig(broken), ErrConfig)

	broken = base
	broken.LoginMode = "popup"
	assert.ErrorIs(t, p.ValidateConfig(broken), ErrConfig)
}
