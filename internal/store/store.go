package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const currentVersion = 1

type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	// Configure pragmas.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS task_definitions (
		id                  INTEGER PRIMARY KEY AUTOINCREMENT,
		name                TEXT NOT NULL,
		description         TEXT NOT NULL DEFAULT '',
		duration_minutes    INTEGER NOT NULL,
		points_reward       INTEGER NOT NULL DEFAULT 0,
		requires_screenshot INTEGER NOT NULL DEFAULT 0,
		kind                TEXT NOT NULL DEFAULT 'study',
		allowed_apps        TEXT,
		is_template         INTEGER NOT NULL DEFAULT 0,
		template_name       TEXT,
		created_at          TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		updated_at          TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE TABLE IF NOT EXISTS task_plans (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		name            TEXT NOT NULL,
		available_start TEXT,
		available_end   TEXT,
		bonus_points    INTEGER NOT NULL DEFAULT 0,
		break_seconds   INTEGER NOT NULL DEFAULT 0,
		created_at      TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		updated_at      TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE TABLE IF NOT EXISTS plan_items (
		plan_id  INTEGER NOT NULL REFERENCES task_plans(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		task_id  INTEGER NOT NULL REFERENCES task_definitions(id) ON DELETE CASCADE,
		PRIMARY KEY (plan_id, position)
	);

	CREATE TABLE IF NOT EXISTS plan_overrides (
		plan_id          INTEGER NOT NULL REFERENCES task_plans(id) ON DELETE CASCADE,
		task_id          INTEGER NOT NULL REFERENCES task_definitions(id) ON DELETE CASCADE,
		duration_minutes INTEGER NOT NULL,
		PRIMARY KEY (plan_id, task_id)
	);

	CREATE TABLE IF NOT EXISTS task_sessions (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id         INTEGER REFERENCES task_definitions(id) ON DELETE SET NULL,
		plan_id         INTEGER REFERENCES task_plans(id) ON DELETE SET NULL,
		plan_task_index INTEGER,
		status          TEXT NOT NULL DEFAULT 'pending',
		started_at      TEXT,
		ended_at        TEXT,
		actual_seconds  INTEGER NOT NULL DEFAULT 0,
		points_earned   INTEGER NOT NULL DEFAULT 0,
		activity_score  INTEGER NOT NULL DEFAULT 0,
		created_at      TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_task ON task_sessions(task_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_plan ON task_sessions(plan_id);

	CREATE TABLE IF NOT EXISTS screenshots (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id     INTEGER NOT NULL REFERENCES task_sessions(id) ON DELETE CASCADE,
		file_path      TEXT NOT NULL,
		thumbnail_path TEXT,
		file_size      INTEGER NOT NULL DEFAULT 0,
		captured_at    TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE TABLE IF NOT EXISTS usage_logs (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id       INTEGER NOT NULL REFERENCES task_sessions(id) ON DELETE CASCADE,
		kind             TEXT NOT NULL,
		app_id           TEXT,
		duration_seconds INTEGER NOT NULL DEFAULT 0,
		notes            TEXT NOT NULL DEFAULT '',
		logged_at        TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE TABLE IF NOT EXISTS rewards (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		name              TEXT NOT NULL,
		description       TEXT NOT NULL DEFAULT '',
		points_cost       INTEGER NOT NULL,
		kind              TEXT NOT NULL DEFAULT 'custom',
		game_time_minutes INTEGER,
		unlock_apps       TEXT,
		icon              TEXT NOT NULL DEFAULT 'gift',
		enabled           INTEGER NOT NULL DEFAULT 1,
		is_preset         INTEGER NOT NULL DEFAULT 0,
		created_at        TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE TABLE IF NOT EXISTS point_transactions (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		amount        INTEGER NOT NULL,
		kind          TEXT NOT NULL,
		description   TEXT NOT NULL DEFAULT '',
		session_id    INTEGER REFERENCES task_sessions(id) ON DELETE SET NULL,
		reward_id     INTEGER REFERENCES rewards(id) ON DELETE SET NULL,
		balance_after INTEGER NOT NULL,
		created_at    TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_created ON point_transactions(created_at);

	CREATE TABLE IF NOT EXISTS app_settings (
		id                       INTEGER PRIMARY KEY CHECK (id = 1),
		points_balance           INTEGER NOT NULL DEFAULT 0,
		streak_count             INTEGER NOT NULL DEFAULT 0,
		last_completed_at        TEXT,
		sound_enabled            INTEGER NOT NULL DEFAULT 1,
		inactivity_alert_seconds INTEGER NOT NULL DEFAULT 60,
		blocked_apps             TEXT,
		game_apps                TEXT,
		game_time_remaining      INTEGER NOT NULL DEFAULT 0,
		game_time_started_at     TEXT
	);

	CREATE TABLE IF NOT EXISTS secrets (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(ddl)
	return err
}

// DefaultDBPath returns ~/.config/taskward/taskward.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "taskward", "taskward.db"), nil
}
