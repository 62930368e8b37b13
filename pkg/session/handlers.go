package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/membergate/pkg/httputil"
	"github.com/platinummonkey/membergate/pkg/observability"
)

// ActivitySink receives best-effort notifications about session activity.
// Implementations must not block the request path on failures.
type ActivitySink interface {
	SessionTerminated(ctx context.Context, accountID int64)
	SessionActive(ctx context.Context, accountID int64)
}

// Handlers exposes the termination and heartbeat endpoints.
type Handlers struct {
	store   Store
	sink    ActivitySink
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewHandlers creates session handlers.
func NewHandlers(store Store, logger *observability.Logger, metrics *observability.Metrics) *Handlers {
	return &Handlers{store: store, logger: logger, metrics: metrics}
}

// WithActivitySink attaches an activity sink. Pass nil to detach.
func (h *Handlers) WithActivitySink(sink ActivitySink) *Handlers {
	h.sink = sink
	return h
}

// RegisterRoutes registers the session endpoints.
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/gate/autologout", h.Terminate).Methods(http.MethodPost)
	router.HandleFunc("/gate/heartbeat", h.Heartbeat).Methods(http.MethodPost)
}

// Terminate invalidates the caller's session. The response class is part of
// the client monitor's contract: 204 on success, 401 without a session
// cookie, 404 when the session is already gone, 500 on a store failure.
func (h *Handlers) Terminate(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		h.metrics.SessionTerminationsTotal.WithLabelValues("no_session").Inc()
		httputil.WriteErrorMessage(w, http.StatusUnauthorized, "no session")
		return
	}

	state, err := h.store.Get(r.Context(), cookie.Value)
	if err != nil {
		h.logger.WithError(err).Debug("session lookup before invalidation failed")
	}

	err = h.store.Invalidate(r.Context(), cookie.Value)
	switch {
	case errors.Is(err, ErrSessionNotFound):
		h.metrics.SessionTerminationsTotal.WithLabelValues("already_gone").Inc()
		httputil.WriteErrorMessage(w, http.StatusNotFound, "session not found")
	case err != nil:
		h.metrics.SessionTerminationsTotal.WithLabelValues("error").Inc()
		h.logger.WithError(err).Error("session invalidation failed")
		httputil.WriteInternalError(w, err)
	default:
		h.metrics.SessionTerminationsTotal.WithLabelValues("terminated").Inc()
		if h.sink != nil && state != nil {
			h.sink.SessionTerminated(r.Context(), state.AccountID)
		}
		clearSessionCookie(w)
		w.WriteHeader(http.StatusNoContent)
	}
}

type heartbeatRequest struct {
	MediaPlaying bool `json:"media_playing"`
}

// Heartbeat records client activity and the current media playback flag.
func (h *Handlers) Heartbeat(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		httputil.WriteErrorMessage(w, http.StatusUnauthorized, "no session")
		return
	}

	var req heartbeatRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.WriteErrorMessage(w, http.StatusBadRequest, "invalid heartbeat body")
			return
		}
	}

	err = h.store.Touch(r.Context(), cookie.Value, time.Now(), req.MediaPlaying)
	switch {
	case errors.Is(err, ErrSessionNotFound):
		httputil.WriteErrorMessage(w, http.StatusUnauthorized, "session expired")
	case err != nil:
		h.logger.WithError(err).Error("session heartbeat failed")
		httputil.WriteInternalError(w, err)
	default:
		h.metrics.SessionHeartbeatsTotal.Inc()
		if h.sink != nil {
			if state, err := h.store.Get(r.Context(), cookie.Value); err == nil {
				h.sink.SessionActive(r.Context(), state.AccountID)
			}
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// SetSessionCookie writes the session cookie after a successful login.
func SetSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: CookieName, MaxAge: -1, Path: "/"})
}
