package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/taskward/taskward/internal/store"
)

func sampleData() ([]store.PointTransaction, []store.TaskSession) {
	now := time.Now().UTC()
	started := now.Add(-25 * time.Minute)
	ended := now
	taskID := int64(3)
	planID := int64(7)
	sessionID := int64(1)

	txs := []store.PointTransaction{
		{ID: 1, Amount: 10, Kind: store.TxEarn, Description: "task: math", SessionID: &sessionID, BalanceAfter: 10, CreatedAt: now.Add(-time.Hour)},
		{ID: 2, Amount: -4, Kind: store.TxSpend, Description: "redeem: game time", BalanceAfter: 6, CreatedAt: now},
	}

	sessions := []store.TaskSession{
		{ID: 1, TaskID: &taskID, Status: store.SessionCompleted, StartedAt: &started, EndedAt: &ended, ActualSeconds: 1500, PointsEarned: 10, CreatedAt: now},
		{ID: 2, PlanID: &planID, Status: store.SessionAbandoned, StartedAt: &started, ActualSeconds: 300, CreatedAt: now},
		{ID: 3, TaskID: &taskID, Status: store.SessionPending, CreatedAt: now},
	}

	return txs, sessions
}

// ============================================================
// CSV
// ============================================================

func TestLedgerToCSV(t *testing.T) {
	txs, _ := sampleData()
	path := filepath.Join(t.TempDir(), "ledger.csv")

	if err := LedgerToCSV(txs, path); err != nil {
		t.Fatalf("LedgerToCSV: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	// header + 2 data rows
	if len(records) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(records))
	}

	header := records[0]
	expectedHeader := []string{"ID", "Time", "Kind", "Amount", "Balance After", "Description"}
	for i, h := range expectedHeader {
		if header[i] != h {
			t.Fatalf("header[%d] = %q, want %q", i, header[i], h)
		}
	}

	row := records[1]
	if row[2] != "earn" || row[3] != "10" || row[4] != "10" {
		t.Fatalf("unexpected first row: %v", row)
	}
	if records[2][3] != "-4" {
		t.Fatalf("spend amount not preserved: %v", records[2])
	}
}

func TestSessionsToCSV(t *testing.T) {
	_, sessions := sampleData()
	path := filepath.Join(t.TempDir(), "sessions.csv")

	if err := SessionsToCSV(sessions, path); err != nil {
		t.Fatalf("SessionsToCSV: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[1], "completed") || !strings.Contains(lines[1], "00:25:00") {
		t.Fatalf("unexpected completed row: %s", lines[1])
	}
	// Pending session has empty start/end columns, not garbage.
	if strings.Contains(lines[3], "0001-01-01") {
		t.Fatalf("zero time leaked into export: %s", lines[3])
	}
}

// ============================================================
// JSON
// ============================================================

func TestToJSON(t *testing.T) {
	txs, sessions := sampleData()
	path := filepath.Join(t.TempDir(), "export.json")

	if err := ToJSON(txs, sessions, path); err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var doc struct {
		ExportedAt   string `json:"exported_at"`
		Transactions []struct {
			Kind         string `json:"kind"`
			Amount       int    `json:"amount"`
			BalanceAfter int    `json:"balance_after"`
			SessionID    *int64 `json:"session_id"`
		} `json:"transactions"`
		Sessions []struct {
			Status     string `json:"status"`
			Elapsed    string `json:"elapsed"`
			ElapsedSec int    `json:"elapsed_seconds"`
		} `json:"sessions"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if doc.ExportedAt == "" {
		t.Fatal("exported_at missing")
	}
	if len(doc.Transactions) != 2 || len(doc.Sessions) != 3 {
		t.Fatalf("expected 2 transactions and 3 sessions, got %d/%d", len(doc.Transactions), len(doc.Sessions))
	}
	if doc.Transactions[0].Kind != "earn" || doc.Transactions[0].BalanceAfter != 10 {
		t.Fatalf("unexpected transaction: %+v", doc.Transactions[0])
	}
	if doc.Transactions[0].SessionID == nil || *doc.Transactions[0].SessionID != 1 {
		t.Fatalf("session reference lost: %+v", doc.Transactions[0])
	}
	if doc.Sessions[0].Elapsed != "00:25:00" || doc.Sessions[0].ElapsedSec != 1500 {
		t.Fatalf("unexpected session: %+v", doc.Sessions[0])
	}
}

func TestToJSONEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	if err := ToJSON(nil, nil, path); err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	data, _ := os.ReadFile(path)
	if !json.Valid(data) {
		t.Fatal("invalid json output")
	}
}
