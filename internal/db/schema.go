package db

import (
	"fmt"
)

// sqliteSchema is the full SQLite schema, one statement per entry.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    is_staff      BOOLEAN NOT NULL DEFAULT 0,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
	`CREATE TABLE IF NOT EXISTS tokens (
    user_id    INTEGER PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
    key        TEXT NOT NULL UNIQUE,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
	`CREATE TABLE IF NOT EXISTS items (
    id          INTEGER PRIMARY KEY,
    uuid        TEXT NOT NULL UNIQUE,
    user_id     INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    name        TEXT NOT NULL,
    category    TEXT NOT NULL CHECK (category IN ('electronics', 'documents', 'clothing', 'accessories', 'other')),
    description TEXT NOT NULL DEFAULT '',
    date_found  TEXT NOT NULL,
    image       TEXT,
    created_at  DATETIME NOT NULL,
    claimed     BOOLEAN NOT NULL DEFAULT 0
)`,
	`CREATE INDEX IF NOT EXISTS idx_items_created_at ON items(created_at DESC, id DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_items_user_id ON items(user_id)`,
}

// postgresSchema mirrors sqliteSchema for PostgreSQL.
var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
    id            BIGSERIAL PRIMARY KEY,
    username      TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    is_staff      BOOLEAN NOT NULL DEFAULT FALSE,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE TABLE IF NOT EXISTS tokens (
    user_id    BIGINT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
    key        TEXT NOT NULL UNIQUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE TABLE IF NOT EXISTS items (
    id          BIGSERIAL PRIMARY KEY,
    uuid        TEXT NOT NULL UNIQUE,
    user_id     BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    name        TEXT NOT NULL,
    category    TEXT NOT NULL CHECK (category IN ('electronics', 'documents', 'clothing', 'accessories', 'other')),
    description TEXT NOT NULL DEFAULT '',
    date_found  TEXT NOT NULL,
    image       TEXT,
    created_at  TIMESTAMPTZ NOT NULL,
    claimed     BOOLEAN NOT NULL DEFAULT FALSE
)`,
	`CREATE INDEX IF NOT EXISTS idx_items_created_at ON items(created_at DESC, id DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_items_user_id ON items(user_id)`,
}

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(d *DB) error {
	stmts := sqliteSchema
	if d.Driver == DriverPostgres {
		stmts = postgresSchema
	}
	for i, stmt := range stmts {
		if _, err := d.Exec(stmt); err != nil {
			return fmt.Errorf("creating schema (statement %d): %w", i+1, err)
		}
	}
	return nil
}
