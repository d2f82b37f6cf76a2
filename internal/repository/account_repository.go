package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/iliyamo/beta-access-portal/internal/model"
)

// AccountRepo persists account records in the 'accounts' table.
type AccountRepo struct{ DB *sql.DB }

func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{DB: db} }

// NormalizeEmail lower-cases and trims an email the same way on every
// path so lookups and the uniqueness constraint agree.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create inserts an account and returns its id. The email is
// normalized here as a last line of defence; duplicate emails map to
// ErrEmailExists via the MySQL 1062 duplicate-key error.
func (r *AccountRepo) Create(ctx context.Context, a *model.Account) (uint64, error) {
	a.Email = NormalizeEmail(a.Email)
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO accounts (email, first_name, last_name, password_digest, notifications_enabled, created_at, last_login_at)
		 VALUES (?,?,?,?,?,?,?)`,
		a.Email, a.FirstName, a.LastName, a.PasswordDigest, a.NotificationsEnabled, a.CreatedAt, a.LastLoginAt)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, fmt.Errorf("insert account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

const accountCols = "id,email,first_name,last_name,password_digest,notifications_enabled,created_at,last_login_at"

func scanAccount(row *sql.Row) (model.Account, error) {
	var a model.Account
	err := row.Scan(&a.ID, &a.Email, &a.FirstName, &a.LastName, &a.PasswordDigest,
		&a.NotificationsEnabled, &a.CreatedAt, &a.LastLoginAt)
	if err == sql.ErrNoRows {
		return a, ErrNotFound
	}
	return a, err
}

// GetByEmail fetches an account by normalized email.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	return scanAccount(r.DB.QueryRowContext(ctx,
		"SELECT "+accountCols+" FROM accounts WHERE email=? LIMIT 1", NormalizeEmail(email)))
}

// GetByID fetches an account by id.
func (r *AccountRepo) GetByID(ctx context.Context, id uint64) (model.Account, error) {
	return scanAccount(r.DB.QueryRowContext(ctx,
		"SELECT "+accountCols+" FROM accounts WHERE id=? LIMIT 1", id))
}

// Update writes the mutable fields of an account back to its row.
// Field merging happens in the service layer; the repository always
// persists the full record.
func (r *AccountRepo) Update(ctx context.Context, a *model.Account) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE accounts SET email=?, first_name=?, last_name=?, password_digest=?, notifications_enabled=?, last_login_at=?
		 WHERE id=?`,
		NormalizeEmail(a.Email), a.FirstName, a.LastName, a.PasswordDigest, a.NotificationsEnabled, a.LastLoginAt, a.ID)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// Row may exist with identical values; confirm before reporting absence.
		if _, err := r.GetByID(ctx, a.ID); err != nil {
			return err
		}
	}
	return nil
}

// List returns all accounts ordered by creation time, newest first.
// Used by the operator view.
func (r *AccountRepo) List(ctx context.Context) ([]model.Account, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+accountCols+" FROM accounts ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []model.Account
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.ID, &a.Email, &a.FirstName, &a.LastName, &a.PasswordDigest,
			&a.NotificationsEnabled, &a.CreatedAt, &a.LastLoginAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
