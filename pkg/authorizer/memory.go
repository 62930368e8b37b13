package authorizer

import (
	"context"
	"sync"
	"time"
)

// MemoryAccountStore is an in-memory AccountStore for tests and development
// sites that run the dummy provider without a database.
type MemoryAccountStore struct {
	mu      sync.Mutex
	nextID  int64
	byEmail map[string]*Account
}

// NewMemoryAccountStore creates an empty store.
func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{nextID: 1, byEmail: make(map[string]*Account)}
}

func (s *MemoryAccountStore) FindByEmail(_ context.Context, email string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.byEmail[email]
	if !ok {
		return nil, ErrAccountNotFound
	}
	cp := *account
	cp.Roles = append([]string(nil), account.Roles...)
	return &cp, nil
}

func (s *MemoryAccountStore) FindByID(_ context.Context, accountID int64) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, account := range s.byEmail {
		if account.ID == accountID {
			cp := *account
			cp.Roles = append([]string(nil), account.Roles...)
			return &cp, nil
		}
	}
	return nil, ErrAccountNotFound
}

func (s *MemoryAccountStore) Create(_ context.Context, account *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account.ID = s.nextID
	s.nextID++
	cp := *account
	cp.Roles = append([]string(nil), account.Roles...)
	s.byEmail[account.Email] = &cp
	return nil
}

func (s *MemoryAccountStore) ReplaceRoles(_ context.Context, accountID int64, roles []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, account := range s.byEmail {
		if account.ID == accountID {
			account.Roles = append([]string(nil), roles...)
			return nil
		}
	}
	return ErrAccountNotFound
}

func (s *MemoryAccountStore) TouchLogin(_ context.Context, accountID int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, account := range s.byEmail {
		if account.ID == accountID {
			account.LastLoginAt = at
			return nil
		}
	}
	return ErrAccountNotFound
}
