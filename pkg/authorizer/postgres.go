package authorizer

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// PostgresAccountStore is the production AccountStore backed by postgres.
// Roles are stored as a text[] column so role replacement is a single write.
type PostgresAccountStore struct {
	db *sql.DB
}

// NewPostgresAccountStore wraps an open database handle.
func NewPostgresAccountStore(db *sql.DB) *PostgresAccountStore {
	return &PostgresAccountStore{db: db}
}

// Migrate creates the accounts table if it does not exist.
func (s *PostgresAccountStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS gc_accounts (
			id BIGSERIAL PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			full_name TEXT NOT NULL DEFAULT '',
			roles TEXT[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_login_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("migrate accounts: %w", err)
	}
	return nil
}

// FindByEmail looks up an account by email.
func (s *PostgresAccountStore) FindByEmail(ctx context.Context, email string) (*Account, error) {
	account := &Account{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, email, full_name, roles, created_at, last_login_at
		FROM gc_accounts WHERE email = $1
	`, email).Scan(&account.ID, &account.Username, &account.Email, &account.FullName,
		pq.Array(&account.Roles), &account.CreatedAt, &account.LastLoginAt)
	if err == sql.ErrNoRows {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	return account, nil
}

// FindByID looks up an account by id.
func (s *PostgresAccountStore) FindByID(ctx context.Context, accountID int64) (*Account, error) {
	account := &Account{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, email, full_name, roles, created_at, last_login_at
		FROM gc_accounts WHERE id = $1
	`, accountID).Scan(&account.ID, &account.Username, &account.Email, &account.FullName,
		pq.Array(&account.Roles), &account.CreatedAt, &account.LastLoginAt)
	if err == sql.ErrNoRows {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	return account, nil
}

// Create inserts the account and fills in its generated id.
func (s *PostgresAccountStore) Create(ctx context.Context, account *Account) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO gc_accounts (username, email, full_name, roles, created_at, last_login_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id
	`, account.Username, account.Email, account.FullName, pq.Array(account.Roles)).Scan(&account.ID)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// ReplaceRoles overwrites the account's role set.
func (s *PostgresAccountStore) ReplaceRoles(ctx context.Context, accountID int64, roles []string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE gc_accounts SET roles = $1 WHERE id = $2
	`, pq.Array(roles), accountID)
	if err != nil {
		return fmt.Errorf("replace roles: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("replace roles: %w", err)
	}
	if n == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// TouchLogin records a successful login on an existing account.
func (s *PostgresAccountStore) TouchLogin(ctx context.Context, accountID int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE gc_accounts SET last_login_at = $1 WHERE id = $2
	`, at, accountID)
	if err != nil {
		return fmt.Errorf("touch login: %w", err)
	}
	return nil
}
