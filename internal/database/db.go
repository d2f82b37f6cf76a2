package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// SchemaVersion is bumped whenever the table layout changes in a way
// existing rows cannot absorb. See EnsureSchema for upgrade policy.
const SchemaVersion = 1

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// tables lists every collection the service owns, in creation order.
var tables = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		email VARCHAR(255) NOT NULL,
		first_name VARCHAR(100) NOT NULL,
		last_name VARCHAR(100) NOT NULL,
		password_digest VARCHAR(100) NOT NULL,
		notifications_enabled TINYINT(1) NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		last_login_at DATETIME NOT NULL,
		UNIQUE KEY uq_accounts_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS beta_requests (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		account_id BIGINT UNSIGNED NOT NULL,
		email VARCHAR(255) NOT NULL,
		first_name VARCHAR(100) NOT NULL,
		last_name VARCHAR(100) NOT NULL,
		reason TEXT NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'pending',
		operator_comment TEXT NULL,
		created_at DATETIME NOT NULL,
		processed_at DATETIME NULL,
		KEY idx_beta_requests_account (account_id),
		KEY idx_beta_requests_status (status)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS team_requests (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		account_id BIGINT UNSIGNED NOT NULL,
		email VARCHAR(255) NOT NULL,
		first_name VARCHAR(100) NOT NULL,
		last_name VARCHAR(100) NOT NULL,
		role VARCHAR(100) NOT NULL,
		years_experience INT NOT NULL DEFAULT 0,
		skills TEXT NOT NULL,
		motivation TEXT NOT NULL,
		portfolio VARCHAR(512) NOT NULL DEFAULT '',
		status VARCHAR(16) NOT NULL DEFAULT 'pending',
		operator_comment TEXT NULL,
		created_at DATETIME NOT NULL,
		processed_at DATETIME NULL,
		KEY idx_team_requests_account (account_id),
		KEY idx_team_requests_status (status)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS notices (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		account_id BIGINT UNSIGNED NOT NULL,
		title VARCHAR(255) NOT NULL,
		body TEXT NOT NULL,
		kind VARCHAR(16) NOT NULL DEFAULT 'info',
		is_read TINYINT(1) NOT NULL DEFAULT 0,
		linked_request_id BIGINT UNSIGNED NULL,
		operator_comment TEXT NULL,
		created_at DATETIME NOT NULL,
		KEY idx_notices_account (account_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS site_content (
		id VARCHAR(32) NOT NULL PRIMARY KEY,
		hero_title VARCHAR(255) NOT NULL,
		hero_subtitle VARCHAR(512) NOT NULL,
		release_date VARCHAR(100) NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

var tableNames = []string{"accounts", "beta_requests", "team_requests", "notices", "site_content"}

// EnsureSchema creates the tables on first run and checks the stored
// schema version on every start. When the stored version is older than
// SchemaVersion the function refuses to continue unless resetOnUpgrade
// is set, in which case every table is dropped and recreated. The
// original demo dropped stores silently on a version bump; here data
// loss requires the explicit opt-in.
func EnsureSchema(ctx context.Context, db *sql.DB, resetOnUpgrade bool) error {
	if _, err := db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS schema_meta (id TINYINT NOT NULL PRIMARY KEY, version INT NOT NULL)`); err != nil {
		return fmt.Errorf("create schema_meta: %w", err)
	}

	var stored int
	err := db.QueryRowContext(ctx, `SELECT version FROM schema_meta WHERE id=1`).Scan(&stored)
	switch {
	case err == sql.ErrNoRows:
		// fresh database
		if err := createAll(ctx, db); err != nil {
			return err
		}
		_, err = db.ExecContext(ctx, `INSERT INTO schema_meta (id, version) VALUES (1, ?)`, SchemaVersion)
		return err
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	}

	switch {
	case stored == SchemaVersion:
		return createAll(ctx, db) // idempotent
	case stored > SchemaVersion:
		return fmt.Errorf("database schema version %d is newer than supported %d", stored, SchemaVersion)
	}

	// stored < SchemaVersion: an upgrade is required.
	if !resetOnUpgrade {
		return fmt.Errorf("schema upgrade from %d to %d requires STORE_RESET_ON_UPGRADE=true (all data will be discarded)",
			stored, SchemaVersion)
	}
	log.Printf("schema upgrade %d -> %d: dropping all tables (STORE_RESET_ON_UPGRADE)", stored, SchemaVersion)
	for _, name := range tableNames {
		if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+name); err != nil {
			return fmt.Errorf("drop %s: %w", name, err)
		}
	}
	if err := createAll(ctx, db); err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `UPDATE schema_meta SET version=? WHERE id=1`, SchemaVersion)
	return err
}

func createAll(ctx context.Context, db *sql.DB) error {
	for _, ddl := range tables {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}
