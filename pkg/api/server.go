package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/platinummonkey/membergate/pkg/authorizer"
	"github.com/platinummonkey/membergate/pkg/gate"
	"github.com/platinummonkey/membergate/pkg/httputil"
	"github.com/platinummonkey/membergate/pkg/identity"
	"github.com/platinummonkey/membergate/pkg/observability"
	"github.com/platinummonkey/membergate/pkg/session"
)

// Options carries the collaborators the server routes requests to.
type Options struct {
	Registry   *identity.Registry
	Authorizer *authorizer.Authorizer
	Sessions   session.Store
	Detector   gate.Detector

	// SessionHandlers serves /gate/autologout and /gate/heartbeat.
	SessionHandlers *session.Handlers

	// PostLoginURL is where successful callbacks send the browser.
	PostLoginURL string

	// TracingEnabled wraps the router in otelhttp when set.
	TracingEnabled bool

	Logger  *observability.Logger
	Metrics *observability.Metrics
}

// Server is the gate HTTP server.
type Server struct {
	opts    Options
	router  *mux.Router
	handler http.Handler
}

// NewServer creates the gate server and sets up its routes.
func NewServer(opts Options) *Server {
	if opts.PostLoginURL == "" {
		opts.PostLoginURL = "/"
	}
	s := &Server{
		opts:   opts,
		router: mux.NewRouter(),
	}
	s.setupRoutes()
	s.handler = s.buildMiddleware()
	return s
}

// setupRoutes configures all the gate routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/gate/login", s.loginPrompt).Methods(http.MethodGet)
	s.router.HandleFunc("/gate/providers/{id}/callback", s.providerCallback).
		Methods(http.MethodGet, http.MethodPost)
	s.router.HandleFunc("/gate/content/{ref}/access", s.contentAccess).Methods(http.MethodGet)

	if s.opts.SessionHandlers != nil {
		s.opts.SessionHandlers.RegisterRoutes(s.router)
	}
}

func (s *Server) buildMiddleware() http.Handler {
	var handler http.Handler = s.router
	handler = s.opts.Metrics.InstrumentHandler("/gate", handler)
	if s.opts.TracingEnabled {
		handler = otelhttp.NewHandler(handler, "membergate")
	}
	handler = httputil.LoggingMiddleware(s.opts.Logger)(handler)
	handler = httputil.RecoveryMiddleware(s.opts.Logger)(handler)
	handler = httputil.RequestIDMiddleware(handler)
	return handler
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// HealthHandler builds the handler for the separate health/metrics port.
func HealthHandler(checker *observability.HealthChecker, metrics *observability.Metrics) http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/health/live", checker.Liveness).Methods(http.MethodGet)
	router.HandleFunc("/health/ready", checker.Readiness).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	return router
}
