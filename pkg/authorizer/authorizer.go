package authorizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/platinummonkey/membergate/pkg/observability"
)

// SessionOpener is the narrow slice of the session store the authorizer
// needs: establish a session for an account, and tear one down again when a
// login has to be aborted.
type SessionOpener interface {
	Establish(ctx context.Context, accountID int64) (sessionID string, err error)
	Invalidate(ctx context.Context, sessionID string) error
}

// Authorizer logs external identities into local accounts.
type Authorizer struct {
	accounts AccountStore
	sessions SessionOpener
	bus      *EventBus
	logger   *observability.Logger
	metrics  *observability.Metrics
	now      func() time.Time
}

// New creates an Authorizer.
func New(accounts AccountStore, sessions SessionOpener, bus *EventBus, logger *observability.Logger, metrics *observability.Metrics) *Authorizer {
	return &Authorizer{
		accounts: accounts,
		sessions: sessions,
		bus:      bus,
		logger:   logger,
		metrics:  metrics,
		now:      time.Now,
	}
}

// AuthorizeUser finds or creates the account for email, establishes the
// session, and publishes the login event. The returned session id identifies
// the live session on success.
//
// Publication is fail-closed: a subscriber error aborts the authorization,
// the session is invalidated best-effort, and the caller must surface a
// failure to the user.
func (a *Authorizer) AuthorizeUser(ctx context.Context, providerID, identifier, email string, extraData map[string]interface{}) (*Account, string, error) {
	if identifier == "" || email == "" {
		return nil, "", fmt.Errorf("identifier and email are required")
	}

	account, err := a.accounts.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, ErrAccountNotFound):
		account, err = a.createAccount(ctx, providerID, identifier, email)
		if err != nil {
			return nil, "", fmt.Errorf("create account: %w", err)
		}
	case err != nil:
		return nil, "", fmt.Errorf("look up account: %w", err)
	default:
		if err := a.accounts.TouchLogin(ctx, account.ID, a.now()); err != nil {
			return nil, "", fmt.Errorf("touch account: %w", err)
		}
	}

	sessionID, err := a.sessions.Establish(ctx, account.ID)
	if err != nil {
		return nil, "", fmt.Errorf("establish session: %w", err)
	}

	event := &LoginEvent{Account: account, ProviderID: providerID, ExtraData: extraData}
	if err := a.bus.Publish(ctx, event); err != nil {
		// Fail closed: no subscriber may be skipped, so the login itself is
		// rolled back rather than completing with unsynchronized roles.
		if invErr := a.sessions.Invalidate(ctx, sessionID); invErr != nil {
			a.logger.WithError(invErr).WithField("session_id", sessionID).
				Error("failed to invalidate session after aborted login")
		}
		a.metrics.LoginsTotal.WithLabelValues(providerID, "failed").Inc()
		return nil, "", err
	}

	a.metrics.LoginsTotal.WithLabelValues(providerID, "success").Inc()
	a.logger.WithFields(map[string]interface{}{
		"provider": providerID,
		"account":  account.ID,
	}).Info("user authorized")
	return account, sessionID, nil
}

func (a *Authorizer) createAccount(ctx context.Context, providerID, identifier, email string) (*Account, error) {
	account := &Account{
		Username:    generateUsername(providerID, identifier),
		Email:       email,
		Roles:       nil, // minimal default privileges; role mapping grants access
		CreatedAt:   a.now(),
		LastLoginAt: a.now(),
	}
	if err := a.accounts.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// generateUsername derives a collision-resistant username from the provider
// id and external identifier.
func generateUsername(providerID, identifier string) string {
	suffix := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("%s+%s+%s", providerID, identifier, suffix)
}
