package store

import (
	"database/sql"
	"fmt"
	"time"
)

func (s *Store) CreateTask(t *TaskDefinition) (*TaskDefinition, error) {
	apps, err := encodeApps(t.AllowedApps)
	if err != nil {
		return nil, fmt.Errorf("encode allowed apps: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(
		`INSERT INTO task_definitions
		 (name, description, duration_minutes, points_reward, requires_screenshot, kind, allowed_apps, is_template, template_name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Name, t.Description, t.DurationMinutes, t.PointsReward, t.RequiresScreenshot,
		string(t.Kind), apps, t.IsTemplate, t.TemplateName, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetTask(id)
}

func (s *Store) GetTask(id int64) (*TaskDefinition, error) {
	row := s.db.QueryRow(
		`SELECT id, name, description, duration_minutes, points_reward, requires_screenshot, kind, allowed_apps, is_template, template_name, created_at, updated_at
		 FROM task_definitions WHERE id = ?`, id,
	)
	t, err := scanTask(row)
	if err != nil {
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}
	return t, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*TaskDefinition, error) {
	t := &TaskDefinition{}
	var kind, createdAt, updatedAt string
	var apps, templateName sql.NullString
	var screenshot, template int
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.DurationMinutes, &t.PointsReward,
		&screenshot, &kind, &apps, &template, &templateName, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if t.Kind, err = ParseTaskKind(kind); err != nil {
		return nil, err
	}
	if t.AllowedApps, err = decodeApps(apps); err != nil {
		return nil, fmt.Errorf("decode allowed apps: %w", err)
	}
	t.RequiresScreenshot = screenshot == 1
	t.IsTemplate = template == 1
	t.TemplateName = stringPtr(templateName)
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	return t, nil
}

// ListTasks returns task definitions, optionally filtered to templates only.
func (s *Store) ListTasks(templatesOnly bool) ([]TaskDefinition, error) {
	query := `SELECT id, name, description, duration_minutes, points_reward, requires_screenshot, kind, allowed_apps, is_template, template_name, created_at, updated_at
	          FROM task_definitions`
	if templatesOnly {
		query += ` WHERE is_template = 1`
	}
	query += ` ORDER BY name, id`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []TaskDefinition
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (s *Store) UpdateTask(t *TaskDefinition) error {
	apps, err := encodeApps(t.AllowedApps)
	if err != nil {
		return fmt.Errorf("encode allowed apps: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.Exec(
		`UPDATE task_definitions
		 SET name = ?, description = ?, duration_minutes = ?, points_reward = ?, requires_screenshot = ?, kind = ?, allowed_apps = ?, is_template = ?, template_name = ?, updated_at = ?
		 WHERE id = ?`,
		t.Name, t.Description, t.DurationMinutes, t.PointsReward, t.RequiresScreenshot,
		string(t.Kind), apps, t.IsTemplate, t.TemplateName, now, t.ID,
	)
	if err != nil {
		return fmt.Errorf("update task %d: %w", t.ID, err)
	}
	return nil
}

// DeleteTask removes a task definition. Plan sequence entries referencing it
// cascade away; sessions keep their copied values and lose only the back
// reference.
func (s *Store) DeleteTask(id int64) error {
	_, err := s.db.Exec(`DELETE FROM task_definitions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	return nil
}
