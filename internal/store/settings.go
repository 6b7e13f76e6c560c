package store

import (
	"database/sql"
	"fmt"
	"time"
)

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// The settings row is a singleton (id = 1), created lazily the first time
// anything touches it.
func ensureSettingsRow(e execer) error {
	_, err := e.Exec(`INSERT OR IGNORE INTO app_settings (id) VALUES (1)`)
	if err != nil {
		return fmt.Errorf("ensure settings row: %w", err)
	}
	return nil
}

func (s *Store) GetSettings() (*Settings, error) {
	if err := ensureSettingsRow(s.db); err != nil {
		return nil, err
	}

	st := &Settings{}
	var lastCompleted, gameStarted, blocked, game sql.NullString
	var sound int
	err := s.db.QueryRow(
		`SELECT points_balance, streak_count, last_completed_at, sound_enabled, inactivity_alert_seconds,
		        blocked_apps, game_apps, game_time_remaining, game_time_started_at
		 FROM app_settings WHERE id = 1`,
	).Scan(&st.PointsBalance, &st.StreakCount, &lastCompleted, &sound, &st.InactivityAlertSeconds,
		&blocked, &game, &st.GameTimeRemaining, &gameStarted)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	st.SoundEnabled = sound == 1
	st.LastCompletedAt = parseTimePtr(lastCompleted)
	st.GameTimeStartedAt = parseTimePtr(gameStarted)
	if st.BlockedApps, err = decodeApps(blocked); err != nil {
		return nil, fmt.Errorf("decode blocked apps: %w", err)
	}
	if st.GameApps, err = decodeApps(game); err != nil {
		return nil, fmt.Errorf("decode game apps: %w", err)
	}
	return st, nil
}

func (s *Store) SaveSettings(st *Settings) error {
	if err := ensureSettingsRow(s.db); err != nil {
		return err
	}
	blocked, err := encodeApps(st.BlockedApps)
	if err != nil {
		return fmt.Errorf("encode blocked apps: %w", err)
	}
	game, err := encodeApps(st.GameApps)
	if err != nil {
		return fmt.Errorf("encode game apps: %w", err)
	}
	_, err = s.db.Exec(
		`UPDATE app_settings
		 SET points_balance = ?, streak_count = ?, last_completed_at = ?, sound_enabled = ?,
		     inactivity_alert_seconds = ?, blocked_apps = ?, game_apps = ?,
		     game_time_remaining = ?, game_time_started_at = ?
		 WHERE id = 1`,
		st.PointsBalance, st.StreakCount, formatTimePtr(st.LastCompletedAt), st.SoundEnabled,
		st.InactivityAlertSeconds, blocked, game,
		st.GameTimeRemaining, formatTimePtr(st.GameTimeStartedAt),
	)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// UpdateStreak persists the streak counter and the last-completion
// timestamp together.
func (s *Store) UpdateStreak(count int, lastCompleted time.Time) error {
	if err := ensureSettingsRow(s.db); err != nil {
		return err
	}
	_, err := s.db.Exec(
		`UPDATE app_settings SET streak_count = ?, last_completed_at = ? WHERE id = 1`,
		count, lastCompleted.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("update streak: %w", err)
	}
	return nil
}

// Secrets is the durable key-value store backing the credential guard.
// Values are hashes or counters, never plaintext secrets.

func (s *Store) GetSecret(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM secrets WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get secret %q: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) SetSecret(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO secrets (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set secret %q: %w", key, err)
	}
	return nil
}

func (s *Store) DeleteSecret(key string) error {
	_, err := s.db.Exec(`DELETE FROM secrets WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("delete secret %q: %w", key, err)
	}
	return nil
}
