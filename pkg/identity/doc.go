// Package identity defines the pluggable identity provider contract used to
// authenticate members of a gated content site.
//
// A Provider knows how to render its login prompt, process the provider
// callback into an ExternalIdentity, and validate its own configuration. The
// Registry holds every configured provider keyed by id and resolves the single
// active provider; authentication through any other provider is rejected.
//
// Concrete variants:
//
//	Dummy         no-op flow for development sites, synthesizes an identity
//	MembershipSSO OAuth2 authorization-code flow against a membership vendor,
//	              carries the vendor "member" object for role mapping
//	OIDC          OpenID Connect flow, id_token claims become the member object
//
// Login-mode state machine
//
// Each provider starts a login attempt in one of two states depending on its
// configured login_mode:
//
//	present_login_button  -> AwaitingUserAction
//	redirect_immediately  -> Redirecting
//
// The callback moves the attempt to Authenticated or Error. A request that
// already carries an error indicator always yields the retry prompt, never
// another automatic redirect, so a failing provider cannot bounce the browser
// in a loop.
package identity
