package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is applied on every start; each statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id    TEXT PRIMARY KEY,
		name  TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id   TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		id                 TEXT PRIMARY KEY,
		title              TEXT NOT NULL,
		annotation         TEXT NOT NULL,
		description        TEXT NOT NULL,
		category_id        TEXT NOT NULL REFERENCES categories (id),
		initiator_id       TEXT NOT NULL REFERENCES users (id),
		lat                DOUBLE PRECISION NOT NULL,
		lon                DOUBLE PRECISION NOT NULL,
		event_date         TIMESTAMPTZ NOT NULL,
		paid               BOOLEAN NOT NULL DEFAULT FALSE,
		participant_limit  INTEGER NOT NULL DEFAULT 0 CHECK (participant_limit >= 0),
		request_moderation BOOLEAN NOT NULL DEFAULT TRUE,
		created_on         TIMESTAMPTZ NOT NULL,
		published_on       TIMESTAMPTZ,
		state              TEXT NOT NULL,
		CHECK ((state = 'PUBLISHED') = (published_on IS NOT NULL))
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_state_date ON events (state, event_date)`,
	`CREATE INDEX IF NOT EXISTS idx_events_initiator ON events (initiator_id)`,
	`CREATE TABLE IF NOT EXISTS requests (
		id           TEXT PRIMARY KEY,
		event_id     TEXT NOT NULL REFERENCES events (id),
		requester_id TEXT NOT NULL REFERENCES users (id),
		status       TEXT NOT NULL,
		created      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_requests_active
		ON requests (event_id, requester_id) WHERE status <> 'CANCELED'`,
	`CREATE INDEX IF NOT EXISTS idx_requests_event_status ON requests (event_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_requests_requester ON requests (requester_id)`,
}

// Migrate creates the tables and indexes the repositories rely on.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i, err)
		}
	}
	return nil
}
