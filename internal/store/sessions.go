package store

import (
	"database/sql"
	"fmt"
	"time"
)

// CreateSession inserts a pending session scoped to a task, a plan, or both.
func (s *Store) CreateSession(taskID, planID *int64, planTaskIndex *int) (*TaskSession, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(
		`INSERT INTO task_sessions (task_id, plan_id, plan_task_index, status, created_at)
		 VALUES (?, ?, ?, 'pending', ?)`,
		taskID, planID, planTaskIndex, now,
	)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetSession(id)
}

func (s *Store) GetSession(id int64) (*TaskSession, error) {
	row := s.db.QueryRow(
		`SELECT id, task_id, plan_id, plan_task_index, status, started_at, ended_at, actual_seconds, points_earned, activity_score, created_at
		 FROM task_sessions WHERE id = ?`, id,
	)
	sess, err := scanSession(row)
	if err != nil {
		return nil, fmt.Errorf("get session %d: %w", id, err)
	}
	return sess, nil
}

func scanSession(row rowScanner) (*TaskSession, error) {
	sess := &TaskSession{}
	var taskID, planID, planIdx sql.NullInt64
	var status, createdAt string
	var startedAt, endedAt sql.NullString
	err := row.Scan(&sess.ID, &taskID, &planID, &planIdx, &status, &startedAt, &endedAt,
		&sess.ActualSeconds, &sess.PointsEarned, &sess.ActivityScore, &createdAt)
	if err != nil {
		return nil, err
	}
	if sess.Status, err = ParseSessionStatus(status); err != nil {
		return nil, err
	}
	sess.TaskID = int64Ptr(taskID)
	sess.PlanID = int64Ptr(planID)
	sess.PlanTaskIndex = intPtr(planIdx)
	sess.StartedAt = parseTimePtr(startedAt)
	sess.EndedAt = parseTimePtr(endedAt)
	sess.CreatedAt = parseTime(createdAt)
	return sess, nil
}

// StartSession marks the session in progress with the given start time.
func (s *Store) StartSession(id int64, startedAt time.Time) error {
	_, err := s.db.Exec(
		`UPDATE task_sessions SET status = 'in_progress', started_at = ? WHERE id = ?`,
		startedAt.UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("start session %d: %w", id, err)
	}
	return nil
}

// EndSession records a terminal status with the wall-clock end, the actual
// elapsed seconds, and the points earned (zero for abandonment).
func (s *Store) EndSession(id int64, status SessionStatus, endedAt time.Time, actualSeconds, pointsEarned int) error {
	if !status.Terminal() {
		return fmt.Errorf("end session %d: non-terminal status %q", id, status)
	}
	_, err := s.db.Exec(
		`UPDATE task_sessions SET status = ?, ended_at = ?, actual_seconds = ?, points_earned = ? WHERE id = ?`,
		string(status), endedAt.UTC().Format(time.RFC3339), actualSeconds, pointsEarned, id,
	)
	if err != nil {
		return fmt.Errorf("end session %d: %w", id, err)
	}
	return nil
}

// SetSessionPlanIndex advances a plan session's position marker.
func (s *Store) SetSessionPlanIndex(id int64, index int) error {
	_, err := s.db.Exec(
		`UPDATE task_sessions SET plan_task_index = ? WHERE id = ?`, index, id,
	)
	if err != nil {
		return fmt.Errorf("set session %d plan index: %w", id, err)
	}
	return nil
}

func (s *Store) ListSessions(limit int) ([]TaskSession, error) {
	query := `SELECT id, task_id, plan_id, plan_task_index, status, started_at, ended_at, actual_seconds, points_earned, activity_score, created_at
	          FROM task_sessions ORDER BY id DESC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []TaskSession
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}

// AddScreenshot attaches a screenshot record to a session.
func (s *Store) AddScreenshot(sessionID int64, filePath string, thumbnailPath *string, fileSize int64) (*Screenshot, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(
		`INSERT INTO screenshots (session_id, file_path, thumbnail_path, file_size, captured_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sessionID, filePath, thumbnailPath, fileSize, now,
	)
	if err != nil {
		return nil, fmt.Errorf("add screenshot: %w", err)
	}
	id, _ := res.LastInsertId()
	return &Screenshot{
		ID: id, SessionID: sessionID, FilePath: filePath,
		ThumbnailPath: thumbnailPath, FileSize: fileSize, CapturedAt: parseTime(now),
	}, nil
}

func (s *Store) ListScreenshots(sessionID int64) ([]Screenshot, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, file_path, thumbnail_path, file_size, captured_at
		 FROM screenshots WHERE session_id = ? ORDER BY id`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list screenshots: %w", err)
	}
	defer rows.Close()

	var shots []Screenshot
	for rows.Next() {
		var sc Screenshot
		var thumb sql.NullString
		var capturedAt string
		if err := rows.Scan(&sc.ID, &sc.SessionID, &sc.FilePath, &thumb, &sc.FileSize, &capturedAt); err != nil {
			return nil, err
		}
		sc.ThumbnailPath = stringPtr(thumb)
		sc.CapturedAt = parseTime(capturedAt)
		shots = append(shots, sc)
	}
	return shots, rows.Err()
}

// AddUsageLog attaches a usage log entry to a session.
func (s *Store) AddUsageLog(sessionID int64, kind UsageLogKind, appID *string, durationSeconds int, notes string) (*UsageLog, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(
		`INSERT INTO usage_logs (session_id, kind, app_id, duration_seconds, notes, logged_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, string(kind), appID, durationSeconds, notes, now,
	)
	if err != nil {
		return nil, fmt.Errorf("add usage log: %w", err)
	}
	id, _ := res.LastInsertId()
	return &UsageLog{
		ID: id, SessionID: sessionID, Kind: kind, AppID: appID,
		DurationSeconds: durationSeconds, Notes: notes, LoggedAt: parseTime(now),
	}, nil
}

func (s *Store) ListUsageLogs(sessionID int64) ([]UsageLog, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, kind, app_id, duration_seconds, notes, logged_at
		 FROM usage_logs WHERE session_id = ? ORDER BY id`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list usage logs: %w", err)
	}
	defer rows.Close()

	var logs []UsageLog
	for rows.Next() {
		var l UsageLog
		var kind, loggedAt string
		var appID sql.NullString
		if err := rows.Scan(&l.ID, &l.SessionID, &kind, &appID, &l.DurationSeconds, &l.Notes, &loggedAt); err != nil {
			return nil, err
		}
		if l.Kind, err = ParseUsageLogKind(kind); err != nil {
			return nil, err
		}
		l.AppID = stringPtr(appID)
		l.LoggedAt = parseTime(loggedAt)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
