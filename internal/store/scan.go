package store

import (
	"database/sql"
	"encoding/json"
	"time"
)

// App identifier sets persist as JSON arrays; empty sets persist as NULL.

func encodeApps(apps []string) (any, error) {
	if len(apps) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(apps)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func decodeApps(raw sql.NullString) ([]string, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var apps []string
	if err := json.Unmarshal([]byte(raw.String), &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func parseTimePtr(raw sql.NullString) *time.Time {
	if !raw.Valid {
		return nil
	}
	t := parseTime(raw.String)
	return &t
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func stringPtr(raw sql.NullString) *string {
	if !raw.Valid {
		return nil
	}
	s := raw.String
	return &s
}

func int64Ptr(raw sql.NullInt64) *int64 {
	if !raw.Valid {
		return nil
	}
	v := raw.Int64
	return &v
}

func intPtr(raw sql.NullInt64) *int {
	if !raw.Valid {
		return nil
	}
	v := int(raw.Int64)
	return &v
}
