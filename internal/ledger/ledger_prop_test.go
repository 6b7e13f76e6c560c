package ledger

import (
	"testing"
	"time"

	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/taskward/taskward/internal/clock"
	"github.com/taskward/taskward/internal/store"
)

// TestBalanceNeverNegative drives a random sequence of earns, spends and
// adjustments and verifies the balance invariant holds throughout.
func TestBalanceNeverNegative(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s, err := store.NewMemory()
		if err != nil {
			t.Fatal(err)
		}
		defer s.Close()
		l := New(s, clock.NewFake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)), zap.NewNop())

		n := rapid.IntRange(1, 40).Draw(t, "ops")
		for i := 0; i < n; i++ {
			switch rapid.IntRange(0, 2).Draw(t, "op") {
			case 0:
				amount := rapid.IntRange(1, 100).Draw(t, "earn")
				if _, err := l.Earn(amount, "earn", nil); err != nil {
					t.Fatalf("earn: %v", err)
				}
			case 1:
				amount := rapid.IntRange(1, 150).Draw(t, "spend")
				if _, err := l.Spend(amount, "spend", nil); err != nil {
					t.Fatalf("spend: %v", err)
				}
			case 2:
				delta := rapid.IntRange(-150, 150).Draw(t, "adjust")
				if _, err := l.Adjust(delta, "adjust"); err != nil {
					t.Fatalf("adjust: %v", err)
				}
			}

			balance, err := l.Balance()
			if err != nil {
				t.Fatal(err)
			}
			if balance < 0 {
				t.Fatalf("balance went negative: %d", balance)
			}
		}
	})
}

// TestLedgerReconciles verifies that after any operation sequence the live
// balance equals the sum over the audit trail, and each row's balance_after
// snapshot is consistent with a replay.
func TestLedgerReconciles(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s, err := store.NewMemory()
		if err != nil {
			t.Fatal(err)
		}
		defer s.Close()
		l := New(s, clock.NewFake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)), zap.NewNop())

		n := rapid.IntRange(1, 30).Draw(t, "ops")
		for i := 0; i < n; i++ {
			if rapid.Bool().Draw(t, "earn?") {
				l.Earn(rapid.IntRange(1, 50).Draw(t, "amount"), "", nil)
			} else {
				l.Spend(rapid.IntRange(1, 60).Draw(t, "amount"), "", nil)
			}
		}

		balance, err := l.Balance()
		if err != nil {
			t.Fatal(err)
		}
		sum, err := s.LedgerSum()
		if err != nil {
			t.Fatal(err)
		}
		if balance != sum {
			t.Fatalf("balance %d != ledger sum %d", balance, sum)
		}

		// Replay oldest-to-newest; every snapshot must match.
		txs, err := s.ListTransactions(0)
		if err != nil {
			t.Fatal(err)
		}
		running := 0
		for i := len(txs) - 1; i >= 0; i-- {
			running += txs[i].Amount
			if txs[i].BalanceAfter != running {
				t.Fatalf("row %d: balance_after %d, replay %d", txs[i].ID, txs[i].BalanceAfter, running)
			}
		}
	})
}
