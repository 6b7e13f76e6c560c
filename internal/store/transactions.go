package store

import (
	"database/sql"
	"fmt"
	"time"
)

// AppendTransaction applies a balance delta and records the ledger row in a
// single SQL transaction, so the live balance and the audit trail cannot
// diverge. The settings row is created lazily if missing. Returns the
// balance after the mutation, as snapshotted on the row.
func (s *Store) AppendTransaction(amount int, kind TransactionKind, description string, sessionID, rewardID *int64) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := ensureSettingsRow(tx); err != nil {
		return 0, err
	}

	var balance int
	if err := tx.QueryRow(`SELECT points_balance FROM app_settings WHERE id = 1`).Scan(&balance); err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}

	balance += amount
	if balance < 0 {
		return 0, fmt.Errorf("transaction would leave balance negative (%d)", balance)
	}

	if _, err := tx.Exec(`UPDATE app_settings SET points_balance = ? WHERE id = 1`, balance); err != nil {
		return 0, fmt.Errorf("update balance: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.Exec(
		`INSERT INTO point_transactions (amount, kind, description, session_id, reward_id, balance_after, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		amount, string(kind), description, sessionID, rewardID, balance, now,
	); err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return balance, nil
}

func (s *Store) ListTransactions(limit int) ([]PointTransaction, error) {
	query := `SELECT id, amount, kind, description, session_id, reward_id, balance_after, created_at
	          FROM point_transactions ORDER BY id DESC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []PointTransaction
	for rows.Next() {
		var t PointTransaction
		var kind, createdAt string
		var sessionID, rewardID sql.NullInt64
		if err := rows.Scan(&t.ID, &t.Amount, &kind, &t.Description, &sessionID, &rewardID, &t.BalanceAfter, &createdAt); err != nil {
			return nil, err
		}
		if t.Kind, err = ParseTransactionKind(kind); err != nil {
			return nil, err
		}
		t.SessionID = int64Ptr(sessionID)
		t.RewardID = int64Ptr(rewardID)
		t.CreatedAt = parseTime(createdAt)
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// LedgerSum recomputes the balance as a derived sum over the ledger, for
// reconciliation against the live settings field.
func (s *Store) LedgerSum() (int, error) {
	var sum sql.NullInt64
	err := s.db.QueryRow(`SELECT COALESCE(SUM(amount), 0) FROM point_transactions`).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("ledger sum: %w", err)
	}
	return int(sum.Int64), nil
}
