package activitylog

import (
	"context"

	"github.com/platinummonkey/membergate/pkg/authorizer"
)

// SessionSink adapts the recorder to the session handlers' activity hook,
// resolving account ids to emails through the account store.
type SessionSink struct {
	recorder *Subscriber
	accounts authorizer.AccountStore
}

// NewSessionSink builds the adapter.
func NewSessionSink(recorder *Subscriber, accounts authorizer.AccountStore) *SessionSink {
	return &SessionSink{recorder: recorder, accounts: accounts}
}

// SessionTerminated records a logout event.
func (s *SessionSink) SessionTerminated(ctx context.Context, accountID int64) {
	if account, err := s.accounts.FindByID(ctx, accountID); err == nil {
		s.recorder.RecordLogout(ctx, account.Email)
	}
}

// SessionActive records an activity event.
func (s *SessionSink) SessionActive(ctx context.Context, accountID int64) {
	if account, err := s.accounts.FindByID(ctx, accountID); err == nil {
		s.recorder.RecordActivity(ctx, account.Email)
	}
}
