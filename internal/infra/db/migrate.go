package db

import (
	"database/sql"
	"fmt"
)

// schema is applied in order; every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
    id              TEXT PRIMARY KEY,
    email           TEXT NOT NULL UNIQUE,
    first_name      TEXT NOT NULL DEFAULT '',
    completed_steps JSONB NOT NULL DEFAULT '[]'::jsonb,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE TABLE IF NOT EXISTS subscriptions (
    id         TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    plan_id    TEXT NOT NULL,
    status     VARCHAR(20) NOT NULL DEFAULT 'active',
    start_date TIMESTAMPTZ NOT NULL DEFAULT now(),
    end_date   TIMESTAMPTZ
)`,
	`CREATE TABLE IF NOT EXISTS testimonials (
    id         TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
    name       TEXT NOT NULL,
    content    TEXT NOT NULL,
    avatar     TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE TABLE IF NOT EXISTS weekly_sessions (
    id           TEXT PRIMARY KEY,
    title        TEXT NOT NULL,
    description  TEXT NOT NULL DEFAULT '',
    youtube_url  TEXT NOT NULL,
    session_date TIMESTAMPTZ NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE TABLE IF NOT EXISTS session_topics (
    id         TEXT PRIMARY KEY,
    session_id TEXT NOT NULL REFERENCES weekly_sessions(id) ON DELETE CASCADE,
    timestamp  TEXT NOT NULL,
    topic      TEXT NOT NULL,
    "order"    INTEGER NOT NULL DEFAULT 0
)`,
	// 有効サブスクリプション判定用
	`CREATE INDEX IF NOT EXISTS idx_subscriptions_user_status ON subscriptions(user_id, status)`,
	// 一覧は新しい順
	`CREATE INDEX IF NOT EXISTS idx_testimonials_created_at ON testimonials(created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_weekly_sessions_date ON weekly_sessions(session_date DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_session_topics_session ON session_topics(session_id, "order")`,
}

// MigrateUp creates the tables and indexes.
func MigrateUp(db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate up step %d: %w", i+1, err)
		}
	}
	return nil
}

// MigrateDown drops every table created by MigrateUp.
// Use with caution: this deletes all data.
func MigrateDown(db *sql.DB) error {
	drops := []string{
		`DROP TABLE IF EXISTS session_topics CASCADE`,
		`DROP TABLE IF EXISTS weekly_sessions CASCADE`,
		`DROP TABLE IF EXISTS testimonials CASCADE`,
		`DROP TABLE IF EXISTS subscriptions CASCADE`,
		`DROP TABLE IF EXISTS users CASCADE`,
	}
	for _, stmt := range drops {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
	}
	return nil
}
