package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/taskward/taskward/internal/store"
)

// LedgerToCSV writes the point-transaction audit trail, oldest first.
func LedgerToCSV(txs []store.PointTransaction, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	// Header
	if err := w.Write([]string{"ID", "Time", "Kind", "Amount", "Balance After", "Description"}); err != nil {
		return err
	}

	for _, t := range txs {
		row := []string{
			fmt.Sprintf("%d", t.ID),
			t.CreatedAt.Local().Format(time.RFC3339),
			string(t.Kind),
			fmt.Sprintf("%d", t.Amount),
			fmt.Sprintf("%d", t.BalanceAfter),
			t.Description,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

// SessionsToCSV writes session history with task/plan references and
// outcomes.
func SessionsToCSV(sessions []store.TaskSession, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"ID", "Task", "Plan", "Status", "Started", "Ended", "Elapsed", "Points"}); err != nil {
		return err
	}

	for _, s := range sessions {
		row := []string{
			fmt.Sprintf("%d", s.ID),
			formatRef(s.TaskID),
			formatRef(s.PlanID),
			string(s.Status),
			formatTime(s.StartedAt),
			formatTime(s.EndedAt),
			formatDuration(s.ActualSeconds),
			fmt.Sprintf("%d", s.PointsEarned),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

func formatRef(id *int64) string {
	if id == nil {
		return ""
	}
	return fmt.Sprintf("%d", *id)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Local().Format(time.RFC3339)
}

func formatDuration(secs int) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
