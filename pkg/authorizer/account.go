package authorizer

import (
	"context"
	"errors"
	"time"
)

// Account is a local user account. Roles holds role identifiers; roles whose
// identifier contains the managed marker are owned by the role mapping
// engine and may be rewritten on every login.
type Account struct {
	ID          int64
	Username    string
	Email       string
	FullName    string
	Roles       []string
	CreatedAt   time.Time
	LastLoginAt time.Time
}

// HasRole reports whether the account currently holds the role.
func (a *Account) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// ErrAccountNotFound is returned by AccountStore lookups that find no row.
var ErrAccountNotFound = errors.New("account not found")

// AccountStore is the external account store boundary. The core only needs
// lookups, creation, role replacement and a login-time touch.
type AccountStore interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByID(ctx context.Context, accountID int64) (*Account, error)
	Create(ctx context.Context, account *Account) error
	ReplaceRoles(ctx context.Context, accountID int64, roles []string) error
	TouchLogin(ctx context.Context, accountID int64, at time.Time) error
}
