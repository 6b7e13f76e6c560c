package store

import (
	"database/sql"
	"fmt"
	"time"
)

func (s *Store) CreatePlan(p *TaskPlan) (*TaskPlan, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(
		`INSERT INTO task_plans (name, available_start, available_end, bonus_points, break_seconds, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.AvailableStart, p.AvailableEnd, p.BonusPoints, p.BreakSeconds, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert plan: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetPlan(id)
}

func (s *Store) GetPlan(id int64) (*TaskPlan, error) {
	p := &TaskPlan{}
	var start, end sql.NullString
	var createdAt, updatedAt string
	err := s.db.QueryRow(
		`SELECT id, name, available_start, available_end, bonus_points, break_seconds, created_at, updated_at
		 FROM task_plans WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &start, &end, &p.BonusPoints, &p.BreakSeconds, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("get plan %d: %w", id, err)
	}
	p.AvailableStart = stringPtr(start)
	p.AvailableEnd = stringPtr(end)
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return p, nil
}

func (s *Store) ListPlans() ([]TaskPlan, error) {
	rows, err := s.db.Query(
		`SELECT id, name, available_start, available_end, bonus_points, break_seconds, created_at, updated_at
		 FROM task_plans ORDER BY name, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var plans []TaskPlan
	for rows.Next() {
		var p TaskPlan
		var start, end sql.NullString
		var createdAt, updatedAt string
		if err := rows.Scan(&p.ID, &p.Name, &start, &end, &p.BonusPoints, &p.BreakSeconds, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		p.AvailableStart = stringPtr(start)
		p.AvailableEnd = stringPtr(end)
		p.CreatedAt = parseTime(createdAt)
		p.UpdatedAt = parseTime(updatedAt)
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

func (s *Store) UpdatePlan(p *TaskPlan) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`UPDATE task_plans SET name = ?, available_start = ?, available_end = ?, bonus_points = ?, break_seconds = ?, updated_at = ?
		 WHERE id = ?`,
		p.Name, p.AvailableStart, p.AvailableEnd, p.BonusPoints, p.BreakSeconds, now, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update plan %d: %w", p.ID, err)
	}
	return nil
}

func (s *Store) DeletePlan(id int64) error {
	_, err := s.db.Exec(`DELETE FROM task_plans WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete plan %d: %w", id, err)
	}
	return nil
}

// SetPlanItems replaces the plan's ordered task sequence. The sequence is
// the sole persisted representation of plan contents; duplicates are
// allowed and position is contiguous from 0.
func (s *Store) SetPlanItems(planID int64, taskIDs []int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM plan_items WHERE plan_id = ?`, planID); err != nil {
		return fmt.Errorf("clear plan items: %w", err)
	}
	for pos, taskID := range taskIDs {
		if _, err := tx.Exec(
			`INSERT INTO plan_items (plan_id, position, task_id) VALUES (?, ?, ?)`,
			planID, pos, taskID,
		); err != nil {
			return fmt.Errorf("insert plan item %d: %w", pos, err)
		}
	}
	return tx.Commit()
}

// PlanItemIDs returns the plan's task ids in sequence order, repeats
// included.
func (s *Store) PlanItemIDs(planID int64) ([]int64, error) {
	rows, err := s.db.Query(
		`SELECT task_id FROM plan_items WHERE plan_id = ? ORDER BY position`, planID,
	)
	if err != nil {
		return nil, fmt.Errorf("plan items: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) SetPlanOverride(planID, taskID int64, durationMinutes int) error {
	_, err := s.db.Exec(
		`INSERT INTO plan_overrides (plan_id, task_id, duration_minutes) VALUES (?, ?, ?)
		 ON CONFLICT(plan_id, task_id) DO UPDATE SET duration_minutes = excluded.duration_minutes`,
		planID, taskID, durationMinutes,
	)
	if err != nil {
		return fmt.Errorf("set plan override: %w", err)
	}
	return nil
}

func (s *Store) ClearPlanOverride(planID, taskID int64) error {
	_, err := s.db.Exec(
		`DELETE FROM plan_overrides WHERE plan_id = ? AND task_id = ?`, planID, taskID,
	)
	if err != nil {
		return fmt.Errorf("clear plan override: %w", err)
	}
	return nil
}

// PlanOverrides returns the plan's duration overrides keyed by task id.
func (s *Store) PlanOverrides(planID int64) (map[int64]int, error) {
	rows, err := s.db.Query(
		`SELECT task_id, duration_minutes FROM plan_overrides WHERE plan_id = ?`, planID,
	)
	if err != nil {
		return nil, fmt.Errorf("plan overrides: %w", err)
	}
	defer rows.Close()

	overrides := make(map[int64]int)
	for rows.Next() {
		var taskID int64
		var minutes int
		if err := rows.Scan(&taskID, &minutes); err != nil {
			return nil, err
		}
		overrides[taskID] = minutes
	}
	return overrides, rows.Err()
}
