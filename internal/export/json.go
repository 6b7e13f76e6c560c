package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/taskward/taskward/internal/store"
)

type jsonExport struct {
	ExportedAt   string            `json:"exported_at"`
	Transactions []jsonTransaction `json:"transactions,omitempty"`
	Sessions     []jsonSession     `json:"sessions,omitempty"`
}

type jsonTransaction struct {
	ID           int64  `json:"id"`
	Time         string `json:"time"`
	Kind         string `json:"kind"`
	Amount       int    `json:"amount"`
	BalanceAfter int    `json:"balance_after"`
	Description  string `json:"description,omitempty"`
	SessionID    *int64 `json:"session_id,omitempty"`
	RewardID     *int64 `json:"reward_id,omitempty"`
}

type jsonSession struct {
	ID           int64  `json:"id"`
	TaskID       *int64 `json:"task_id,omitempty"`
	PlanID       *int64 `json:"plan_id,omitempty"`
	Status       string `json:"status"`
	Started      string `json:"started,omitempty"`
	Ended        string `json:"ended,omitempty"`
	ElapsedSec   int    `json:"elapsed_seconds"`
	Elapsed      string `json:"elapsed"`
	PointsEarned int    `json:"points_earned"`
}

// ToJSON writes the audit trail and session history as a single document.
// Either slice may be nil to export only the other.
func ToJSON(txs []store.PointTransaction, sessions []store.TaskSession, path string) error {
	doc := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
	}

	for _, t := range txs {
		doc.Transactions = append(doc.Transactions, jsonTransaction{
			ID:           t.ID,
			Time:         t.CreatedAt.Local().Format(time.RFC3339),
			Kind:         string(t.Kind),
			Amount:       t.Amount,
			BalanceAfter: t.BalanceAfter,
			Description:  t.Description,
			SessionID:    t.SessionID,
			RewardID:     t.RewardID,
		})
	}

	for _, s := range sessions {
		doc.Sessions = append(doc.Sessions, jsonSession{
			ID:           s.ID,
			TaskID:       s.TaskID,
			PlanID:       s.PlanID,
			Status:       string(s.Status),
			Started:      formatTime(s.StartedAt),
			Ended:        formatTime(s.EndedAt),
			ElapsedSec:   s.ActualSeconds,
			Elapsed:      formatDuration(s.ActualSeconds),
			PointsEarned: s.PointsEarned,
		})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
