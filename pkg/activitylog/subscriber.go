package activitylog

import (
	"context"

	"github.com/platinummonkey/membergate/pkg/authorizer"
	"github.com/platinummonkey/membergate/pkg/observability"
)

// Subscriber records login events on the event bus. Recording is best
// effort: a logging failure must never abort a login, so errors are logged
// and swallowed.
type Subscriber struct {
	store   *Store
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewSubscriber builds the login-event recorder.
func NewSubscriber(store *Store, logger *observability.Logger, metrics *observability.Metrics) *Subscriber {
	return &Subscriber{store: store, logger: logger, metrics: metrics}
}

// Name identifies the subscriber on the event bus.
func (s *Subscriber) Name() string { return "activitylog" }

// OnLogin records the login.
func (s *Subscriber) OnLogin(ctx context.Context, event *authorizer.LoginEvent) error {
	if event.Account == nil {
		return nil
	}
	if err := s.store.Record(ctx, event.Account.Email, EventLogin); err != nil {
		s.logger.WithError(err).WithField("email", event.Account.Email).
			Warn("failed to record login event")
		return nil
	}
	s.metrics.ActivityEventsTotal.WithLabelValues(EventLogin).Inc()
	return nil
}

// RecordLogout logs a session termination for the given email.
func (s *Subscriber) RecordLogout(ctx context.Context, email string) {
	if err := s.store.Record(ctx, email, EventLogout); err != nil {
		s.logger.WithError(err).WithField("email", email).
			Warn("failed to record logout event")
		return
	}
	s.metrics.ActivityEventsTotal.WithLabelValues(EventLogout).Inc()
}

// RecordActivity logs heartbeat activity for the given email.
func (s *Subscriber) RecordActivity(ctx context.Context, email string) {
	if err := s.store.Record(ctx, email, EventActivity); err != nil {
		s.logger.WithError(err).WithField("email", email).
			Warn("failed to record activity event")
		return
	}
	s.metrics.ActivityEventsTotal.WithLabelValues(EventActivity).Inc()
}
