// Package store persists quests, objectives, domains and settings in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS domains (
	id    TEXT PRIMARY KEY,
	name  TEXT NOT NULL UNIQUE,
	color TEXT NOT NULL DEFAULT '#c8a84e'
);

CREATE TABLE IF NOT EXISTS quests (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	goal         TEXT NOT NULL DEFAULT '',
	description  TEXT NOT NULL DEFAULT '',
	domain       TEXT NOT NULL DEFAULT '',
	active       INTEGER NOT NULL DEFAULT 0,
	waiting_for  TEXT,
	priority     INTEGER NOT NULL DEFAULT 0,
	completed_at TEXT,
	created_at   TEXT NOT NULL,
	updated_at   TEXT NOT NULL,
	source_file  TEXT
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_quests_source_file ON quests(source_file);
CREATE INDEX IF NOT EXISTS idx_quests_domain ON quests(domain);

CREATE TABLE IF NOT EXISTS objectives (
	id         TEXT PRIMARY KEY,
	quest_id   TEXT NOT NULL REFERENCES quests(id) ON DELETE CASCADE,
	text       TEXT NOT NULL,
	completed  INTEGER NOT NULL DEFAULT 0,
	sort_order INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_objectives_quest ON objectives(quest_id, sort_order);

CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// Columns added after the first release. "duplicate column" is expected on
// databases that already have them.
var alterStmts = []string{
	`ALTER TABLE domains ADD COLUMN sort_order INTEGER NOT NULL DEFAULT 0`,
}

// Data fixes applied on every open.
var dataStmts = []string{
	`UPDATE quests SET priority = 0 WHERE priority = 50`,
}

const timeLayout = time.RFC3339Nano

// DB wraps a sql.DB with quest-specific operations.
type DB struct {
	conn *sql.DB
	now  func() time.Time
}

// Open opens (or creates) the SQLite database and applies the schema and migrations.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	// One connection: statements never interleave.
	conn.SetMaxOpenConns(1)
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, err
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply fts schema: %w", err)
	}
	return &DB{conn: conn, now: time.Now}, nil
}

func migrate(conn *sql.DB) error {
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		return fmt.Errorf("store: apply core schema: %w", err)
	}
	for _, stmt := range alterStmts {
		if _, err := conn.Exec(stmt); err != nil && !strings.Contains(err.Error(), "duplicate column") {
			return fmt.Errorf("store: migrate alter: %w", err)
		}
	}
	for _, stmt := range dataStmts {
		if _, err := conn.Exec(stmt); err != nil {
			return fmt.Errorf("store: migrate data: %w", err)
		}
	}
	return nil
}

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func newID() string {
	return uuid.NewString()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("store: parse time %q: %w", s, err)
	}
	return t, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
