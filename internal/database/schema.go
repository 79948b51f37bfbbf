package database

import (
	"context"
	"database/sql"
)

// Schema holds the DDL for the two tables owned by the reservation
// core.  The statements stick to the dialect-neutral subset shared by
// MySQL and SQLite: inline UNIQUE constraints instead of separate
// CREATE INDEX statements, DATETIME columns written as formatted UTC
// strings by the repositories, and no vendor-specific column options.
//
// A provider cannot publish two slots with the same start time, and a
// cancellation token cannot refer to more than one booking; both rules
// are enforced here with UNIQUE constraints.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS slots (
		id          CHAR(36)    NOT NULL PRIMARY KEY,
		provider_id CHAR(36)    NOT NULL,
		service_id  CHAR(36)    NOT NULL,
		staff_id    CHAR(36)    NULL,
		start_at    DATETIME    NOT NULL,
		end_at      DATETIME    NOT NULL,
		status      VARCHAR(16) NOT NULL DEFAULT 'OPEN',
		booking_id  CHAR(36)    NULL,
		created_at  DATETIME    NOT NULL,
		updated_at  DATETIME    NOT NULL,
		UNIQUE (provider_id, start_at)
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id               CHAR(36)    NOT NULL PRIMARY KEY,
		client_id        CHAR(36)    NOT NULL,
		slot_id          CHAR(36)    NOT NULL,
		status           VARCHAR(16) NOT NULL DEFAULT 'CONFIRMED',
		cancel_token     CHAR(64)    NOT NULL,
		token_expires_at DATETIME    NOT NULL,
		created_at       DATETIME    NOT NULL,
		updated_at       DATETIME    NOT NULL,
		UNIQUE (cancel_token)
	)`,
}

// EnsureSchema creates the reservation tables when they do not exist.
// It is called once at startup and by the test fixtures.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range Schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
