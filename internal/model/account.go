package model

import "time"

// Account represents a registered visitor as stored in the `accounts`
// table. Emails are normalized (lower-cased and trimmed) before they
// reach the repository, and the table enforces uniqueness on the
// normalized value. Passwords are never stored in plain form; only the
// bcrypt digest is kept.
//
// Fields:
//  ID                   – primary key identifier of the account.
//  Email                – unique normalized email address.
//  FirstName            – given name, trimmed.
//  LastName             – family name, trimmed.
//  PasswordDigest       – bcrypt hash of the password.
//  NotificationsEnabled – whether the account opted into notifications.
//  CreatedAt            – timestamp of registration.
//  LastLoginAt          – timestamp of the most recent successful login.
type Account struct {
	ID                   uint64    // accounts.id
	Email                string    // accounts.email
	FirstName            string    // accounts.first_name
	LastName             string    // accounts.last_name
	PasswordDigest       string    // accounts.password_digest
	NotificationsEnabled bool      // accounts.notifications_enabled
	CreatedAt            time.Time // accounts.created_at
	LastLoginAt          time.Time // accounts.last_login_at
}
