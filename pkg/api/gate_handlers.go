package api

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/membergate/pkg/gate"
	"github.com/platinummonkey/membergate/pkg/httputil"
	"github.com/platinummonkey/membergate/pkg/identity"
	"github.com/platinummonkey/membergate/pkg/observability"
	"github.com/platinummonkey/membergate/pkg/session"
)

// loginPrompt handles GET /gate/login. The active provider decides what the
// anonymous visitor sees: a prompt payload the UI renders, or a redirect to
// the provider. When the request already carries an error indicator the
// prompt is always a retry, never another redirect.
func (s *Server) loginPrompt(w http.ResponseWriter, r *http.Request) {
	prompt, err := s.opts.Registry.LoginForm(r)
	if err != nil {
		observability.FromContext(r.Context()).WithError(err).Error("building login prompt")
		httputil.WriteInternalError(w, err)
		return
	}

	s.opts.Metrics.LoginPromptsTotal.WithLabelValues(string(prompt.Kind)).Inc()

	for key, values := range prompt.Headers {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}

	if prompt.Kind == identity.PromptRedirect {
		http.Redirect(w, r, prompt.RedirectURL, http.StatusFound)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, prompt)
}

// providerCallback handles GET|POST /gate/providers/{id}/callback. Only the
// active provider's callback authorizes; a stale URL for a deactivated
// provider is rejected.
func (s *Server) providerCallback(w http.ResponseWriter, r *http.Request) {
	providerID := mux.Vars(r)["id"]
	logger := observability.FromContext(r.Context()).WithField("provider", providerID)

	provider, _, err := s.opts.Registry.Get(providerID)
	switch {
	case errors.Is(err, identity.ErrProviderNotFound):
		httputil.WriteErrorMessage(w, http.StatusNotFound, "unknown provider")
		return
	case errors.Is(err, identity.ErrProviderNotActive):
		httputil.WriteErrorMessage(w, http.StatusForbidden, "provider is not active")
		return
	case err != nil:
		httputil.WriteInternalError(w, err)
		return
	}

	ident, err := provider.HandleCallback(r.Context(), r)
	if err != nil {
		var authErr *identity.AuthError
		if errors.As(err, &authErr) {
			logger.WithField("code", authErr.Code).Info("login rejected by provider")
			s.redirectToLogin(w, r, authErr.Code)
			return
		}
		logger.WithError(err).Error("provider callback failed")
		s.redirectToLogin(w, r, "invalid")
		return
	}

	_, sessionID, err := s.opts.Authorizer.AuthorizeUser(
		r.Context(), providerID, ident.ID, ident.Email, ident.ExtraData)
	if err != nil {
		logger.WithError(err).Error("authorization failed")
		s.redirectToLogin(w, r, "invalid")
		return
	}

	session.SetSessionCookie(w, sessionID)
	http.Redirect(w, r, s.opts.PostLoginURL, http.StatusFound)
}

// redirectToLogin sends the browser back to the login prompt with an error
// indicator. The login handler maps the indicator to a retry prompt, so this
// redirect can never loop.
func (s *Server) redirectToLogin(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, "/gate/login?error="+url.QueryEscape(code), http.StatusFound)
}

// accessResponse is the region decision for one content reference.
type accessResponse struct {
	ContentRef    string `json:"content_ref"`
	Gated         bool   `json:"gated"`
	Authenticated bool   `json:"authenticated"`
	Region        string `json:"region,omitempty"`
}

// contentAccess handles GET /gate/content/{ref}/access.
func (s *Server) contentAccess(w http.ResponseWriter, r *http.Request) {
	ref := mux.Vars(r)["ref"]

	gated, err := s.opts.Detector.IsGatedContentPresent(r.Context(), ref)
	if err != nil {
		observability.FromContext(r.Context()).WithError(err).
			WithField("content_ref", ref).Error("gated content detection failed")
		httputil.WriteInternalError(w, err)
		return
	}

	authenticated := false
	if cookie, err := r.Cookie(session.CookieName); err == nil {
		if _, err := s.opts.Sessions.Get(r.Context(), cookie.Value); err == nil {
			authenticated = true
		}
	}

	httputil.WriteJSON(w, http.StatusOK, accessResponse{
		ContentRef:    ref,
		Gated:         gated,
		Authenticated: authenticated,
		Region:        gate.RegionFor(gated, authenticated),
	})
}
