package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

// MembershipSSOProvider authenticates against a membership vendor's OAuth2
// authorization server and fetches the member record the role mapping engine
// consumes. The vendor exposes standard authorize/token endpoints plus a
// member endpoint under the configured authorization server.
type MembershipSSOProvider struct {
	cfg    Config
	oauth  *oauth2.Config
	client *http.Client
}

// NewMembershipSSOProvider creates the SSO provider from configuration.
func NewMembershipSSOProvider(cfg Config) (*MembershipSSOProvider, error) {
	p := &MembershipSSOProvider{cfg: cfg}
	if err := p.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	server := strings.TrimRight(cfg.AuthorizationServer, "/")
	p.oauth = &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  server + "/oauth/authorize",
			TokenURL: server + "/oauth/token",
		},
		RedirectURL: cfg.RedirectURL,
		Scopes:      []string{"member:read"},
	}
	p.client = http.DefaultClient
	return p, nil
}

func (p *MembershipSSOProvider) ID() string    { return ProviderMembershipSSO }
func (p *MembershipSSOProvider) Label() string { return p.cfg.Label }

// LoginPrompt implements the login-mode state machine. An inbound error
// indicator always wins: the user gets the retry prompt instead of another
// automatic redirect, which would loop between us and a failing provider.
func (p *MembershipSSOProvider) LoginPrompt(r *http.Request) (*Prompt, error) {
	if r.URL.Query().Has("error") {
		code := r.URL.Query().Get("error")
		return &Prompt{
			Kind:      PromptRetry,
			State:     StateAwaitingUserAction,
			Label:     "Try again",
			Message:   p.cfg.ErrorMessage(code) + " " + p.cfg.ErrorAccompanyingMessage,
			ActionURL: callbackPath(ProviderMembershipSSO),
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

	// Redirect immediately. The redirect must not be cached or the browser
	// can replay it after the provider config changes.
	h := http.Header{}
	h.Set("Cache-Control", "no-cache")
	return &Prompt{
		Kind:        PromptRedirect,
		State:       StateRedirecting,
		RedirectURL: authURL,
		Headers:     h,
	}, nil
}

// memberEnvelope is the vendor response for the authenticated member.
type memberEnvelope struct {
	Member map[string]interface{} `json:"member"`
}

// HandleCallback exchanges the authorization code and resolves the member
// record into an ExternalIdentity carrying the raw member object.
func (p *MembershipSSOProvider) HandleCallback(ctx context.Context, r *http.Request) (*ExternalIdentity, error) {
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

	member, err := p.fetchMember(ctx, token)
	if err != nil {
		return nil, err
	}

	id := stringAttr(member, "MemberId")
	if id == "" {
		id = stringAttr(member, "Id")
	}
	email := stringAttr(member, "Email")
	if id == "" || email == "" {
		return nil, NewAuthError(p.cfg, "not_found")
	}

	name := strings.TrimSpace(stringAttr(member, "FirstName") + " " + stringAttr(member, "LastName"))
	return &ExternalIdentity{
		ID:    id,
		Email: email,
		Name:  name,
		ExtraData: map[string]interface{}{
			"member": member,
		},
	}, nil
}

func (p *MembershipSSOProvider) fetchMember(ctx context.Context, token *oauth2.Token) (map[string]interface{}, error) {
	url := strings.TrimRight(p.cfg.AuthorizationServer, "/") + "/api/members/me"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	token.SetAuthHeader(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("member lookup: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, NewAuthError(p.cfg, "not_found")
	case resp.StatusCode == http.StatusForbidden:
		return nil, NewAuthError(p.cfg, "access_denied")
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("member lookup returned %d: %s", resp.StatusCode, body)
	}

	var envelope memberEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode member response: %w", err)
	}
	if envelope.Member == nil {
		return nil, NewAuthError(p.cfg, "not_found")
	}
	return envelope.Member, nil
}

// DefaultConfig returns the vendor defaults, including the documented error
// strings shown to members on failed logins.
func (p *MembershipSSOProvider) DefaultConfig() Config {
	return Config{
		ID:                       ProviderMembershipSSO,
		Label:                    "Membership SSO",
		AuthorizationServer:      "https://example.membership-vendor.com",
		MembershipField:          "PackageName",
		PermissionsMapping:       "",
		RequireActive:            true,
		LoginMode:                LoginModePresentButton,
		ErrorAccessDenied:        "That user does not have access to Virtual Y.",
		ErrorAccompanyingMessage: "Please contact us if you have any questions.",
		ErrorInvalid:             "Something went wrong.",
		ErrorNotFound:            "That user was not found.",
	}
}

// ValidateConfig checks the fields the OAuth2 flow cannot run without.
func (p *MembershipSSOProvider) ValidateConfig(cfg Config) error {
	if cfg.AuthorizationServer == "" {
		return configErrorf("authorization_server is required")
	}
	if cfg.ClientID == "" {
		return configErrorf("client_id is required")
	}
	if cfg.ClientSecret == "" {
		return configErrorf("client_secret is required")
	}
	if cfg.MembershipField == "" {
		return configErrorf("membership_field is required")
	}
	switch cfg.LoginMode {
	case LoginModePresentButton, LoginModeRedirectImmediately:
	default:
		return configErrorf("unknown login_mode %q", cfg.LoginMode)
	}
	return nil
}

func stringAttr(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
