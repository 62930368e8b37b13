// Package api wires the HTTP surface of the gated-content service.
//
// The gate endpoints live under /gate:
//
//	GET  /gate/login                      serve the active provider's prompt
//	GET  /gate/providers/{id}/callback    provider callback (also POST)
//	POST /gate/autologout                 terminate the caller's session
//	POST /gate/heartbeat                  record activity and playback state
//	GET  /gate/content/{ref}/access       region decision for a content ref
//
// Callback failures redirect back to /gate/login with an error indicator in
// the query string; the login handler turns that indicator into a retry
// prompt instead of redirecting again, so a misconfigured provider can
// never trap the browser in a redirect loop.
//
// Liveness, readiness, and metrics are served by a separate server on the
// health port so probes stay available while the main listener drains.
package api
