package identity

import "net/http"

// LoginMode controls how the login prompt behaves for a provider.
type LoginMode string

const (
	// LoginModePresentButton renders a login button and waits for the user.
	LoginModePresentButton LoginMode = "present_login_button"
	// LoginModeRedirectImmediately sends the browser straight to the provider.
	LoginModeRedirectImmediately LoginMode = "redirect_immediately"
)

// LoginState represents the state of one login attempt.
type LoginState string

const (
	StateAwaitingUserAction LoginState = "awaiting_user_action"
	StateRedirecting        LoginState = "redirecting"
	StateAuthenticated      LoginState = "authenticated"
	StateError              LoginState = "error"
)

// PromptKind discriminates the outcome of LoginPrompt.
type PromptKind string

const (
	// PromptButton is a UI descriptor for a user-triggered login.
	PromptButton PromptKind = "button"
	// PromptRetry is a UI descriptor shown after a failed attempt.
	PromptRetry PromptKind = "retry"
	// PromptRedirect is an instruction to redirect to the provider.
	PromptRedirect PromptKind = "redirect"
)

// Prompt is either a UI descriptor (button/retry) or a redirect instruction.
type Prompt struct {
	Kind        PromptKind  `json:"kind"`
	State       LoginState  `json:"state"`
	Label       string      `json:"label,omitempty"`
	ActionURL   string      `json:"action_url,omitempty"`
	Autosubmit  bool        `json:"autosubmit,omitempty"`
	Message     string      `json:"message,omitempty"`
	RedirectURL string      `json:"-"`
	Headers     http.Header `json:"-"`
}

// ExternalIdentity is the normalized result of a provider callback.
type ExternalIdentity struct {
	// ID is the provider-scoped identifier for the user.
	ID    string
	Email string
	Name  string
	// ExtraData carries opaque provider payloads. Providers that expose
	// membership data place it under the "member" key as a
	// map[string]interface{}; the role mapping engine reads it from there.
	ExtraData map[string]interface{}
}

// OIDCSettings holds the extra configuration the OIDC variant needs.
type OIDCSettings struct {
	IssuerURL   string   `yaml:"issuer_url" json:"issuer_url"`
	RedirectURL string   `yaml:"redirect_url" json:"redirect_url"`
	Scopes      []string `yaml:"scopes" json:"scopes"`
}

// Config is the persisted configuration for one provider instance.
type Config struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`

	AuthorizationServer string `yaml:"authorization_server" json:"authorization_server"`
	ClientID            string `yaml:"client_id" json:"client_id"`
	ClientSecret        string `yaml:"client_secret" json:"-"`
	RedirectURL         string `yaml:"redirect_url" json:"redirect_url"`

	// MembershipField names the attribute of the external member object the
	// mapping rules are matched against.
	MembershipField string `yaml:"membership_field" json:"membership_field"`
	// PermissionsMapping is the serialized mapping table,
	// "pattern:role;pattern:role;...". Patterns are compared with exact
	// string equality against the membership field value.
	PermissionsMapping string `yaml:"permissions_mapping" json:"permissions_mapping"`
	// RequireActive grants the baseline gated-content role to members whose
	// membership value is non-empty but matches no mapping rule.
	RequireActive bool      `yaml:"require_active" json:"require_active"`
	LoginMode     LoginMode `yaml:"login_mode" json:"login_mode"`

	// Autosubmit makes the Dummy login button submit itself on page load.
	Autosubmit bool `yaml:"autosubmit" json:"autosubmit"`

	OIDC *OIDCSettings `yaml:"oidc,omitempty" json:"oidc,omitempty"`

	// User-facing error strings, keyed by the provider's error indicator.
	ErrorAccessDenied        string `yaml:"error_access_denied" json:"error_access_denied"`
	ErrorNotFound            string `yaml:"error_not_found" json:"error_not_found"`
	ErrorInvalid             string `yaml:"error_invalid" json:"error_invalid"`
	ErrorAccompanyingMessage string `yaml:"error_accompanying_message" json:"error_accompanying_message"`
}

// ErrorMessage returns the configured user-facing string for a provider error
// indicator, falling back to the generic invalid message.
func (c Config) ErrorMessage(code string) string {
	switch code {
	case "access_denied":
		return c.ErrorAccessDenied
	case "not_found":
		return c.ErrorNotFound
	default:
		return c.ErrorInvalid
	}
}
