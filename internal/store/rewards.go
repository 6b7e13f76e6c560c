package store

import (
	"database/sql"
	"fmt"
	"time"
)

func (s *Store) CreateReward(r *Reward) (*Reward, error) {
	apps, err := encodeApps(r.UnlockApps)
	if err != nil {
		return nil, fmt.Errorf("encode unlock apps: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(
		`INSERT INTO rewards (name, description, points_cost, kind, game_time_minutes, unlock_apps, icon, enabled, is_preset, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Name, r.Description, r.PointsCost, string(r.Kind), r.GameTimeMinutes, apps, r.Icon, r.Enabled, r.IsPreset, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert reward: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetReward(id)
}

func (s *Store) GetReward(id int64) (*Reward, error) {
	row := s.db.QueryRow(
		`SELECT id, name, description, points_cost, kind, game_time_minutes, unlock_apps, icon, enabled, is_preset, created_at
		 FROM rewards WHERE id = ?`, id,
	)
	r, err := scanReward(row)
	if err != nil {
		return nil, fmt.Errorf("get reward %d: %w", id, err)
	}
	return r, nil
}

func scanReward(row rowScanner) (*Reward, error) {
	r := &Reward{}
	var kind, createdAt string
	var minutes sql.NullInt64
	var apps sql.NullString
	var enabled, preset int
	err := row.Scan(&r.ID, &r.Name, &r.Description, &r.PointsCost, &kind, &minutes, &apps,
		&r.Icon, &enabled, &preset, &createdAt)
	if err != nil {
		return nil, err
	}
	if r.Kind, err = ParseRewardKind(kind); err != nil {
		return nil, err
	}
	if r.UnlockApps, err = decodeApps(apps); err != nil {
		return nil, fmt.Errorf("decode unlock apps: %w", err)
	}
	r.GameTimeMinutes = intPtr(minutes)
	r.Enabled = enabled == 1
	r.IsPreset = preset == 1
	r.CreatedAt = parseTime(createdAt)
	return r, nil
}

func (s *Store) ListRewards(enabledOnly bool) ([]Reward, error) {
	query := `SELECT id, name, description, points_cost, kind, game_time_minutes, unlock_apps, icon, enabled, is_preset, created_at
	          FROM rewards`
	if enabledOnly {
		query += ` WHERE enabled = 1`
	}
	query += ` ORDER BY points_cost, name`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list rewards: %w", err)
	}
	defer rows.Close()

	var rewards []Reward
	for rows.Next() {
		r, err := scanReward(rows)
		if err != nil {
			return nil, err
		}
		rewards = append(rewards, *r)
	}
	return rewards, rows.Err()
}

func (s *Store) DeleteReward(id int64) error {
	_, err := s.db.Exec(`DELETE FROM rewards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete reward %d: %w", id, err)
	}
	return nil
}
