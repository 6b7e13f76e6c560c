// Package ledger tracks the point balance as an append-only transaction
// trail and computes streak continuity.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/taskward/taskward/internal/clock"
	"github.com/taskward/taskward/internal/store"
)

// Completions further apart than this reset the streak.
const streakWindow = 24 * time.Hour

var (
	ErrNonPositiveAmount = errors.New("amount must be positive")
	ErrRewardDisabled    = errors.New("reward is disabled")
)

type Ledger struct {
	store *store.Store
	clock clock.Clock
	log   *zap.Logger
}

func New(s *store.Store, clk clock.Clock, log *zap.Logger) *Ledger {
	return &Ledger{store: s, clock: clk, log: log}
}

// Earn appends an earn transaction and returns the new balance.
func (l *Ledger) Earn(amount int, description string, sessionID *int64) (int, error) {
	if amount <= 0 {
		return 0, ErrNonPositiveAmount
	}
	balance, err := l.store.AppendTransaction(amount, store.TxEarn, description, sessionID, nil)
	if err != nil {
		return 0, fmt.Errorf("earn: %w", err)
	}
	return balance, nil
}

// Spend fails closed when amount exceeds the balance: no transaction is
// recorded and (false, nil) is returned. Spending the exact balance
// succeeds and leaves it at zero.
func (l *Ledger) Spend(amount int, description string, rewardID *int64) (bool, error) {
	if amount <= 0 {
		return false, ErrNonPositiveAmount
	}
	balance, err := l.Balance()
	if err != nil {
		return false, err
	}
	if amount > balance {
		return false, nil
	}
	if _, err := l.store.AppendTransaction(-amount, store.TxSpend, description, nil, rewardID); err != nil {
		return false, fmt.Errorf("spend: %w", err)
	}
	return true, nil
}

// Adjust applies an unconditional parent override. A negative delta that
// would take the balance below zero is clamped so the result is exactly
// zero; the recorded transaction amount reflects the clamped delta.
func (l *Ledger) Adjust(amount int, description string) (int, error) {
	balance, err := l.Balance()
	if err != nil {
		return 0, err
	}
	if amount < -balance {
		amount = -balance
	}
	if amount == 0 {
		return balance, nil
	}
	newBalance, err := l.store.AppendTransaction(amount, store.TxAdjust, description, nil, nil)
	if err != nil {
		return 0, fmt.Errorf("adjust: %w", err)
	}
	return newBalance, nil
}

// RecordStreak advances the completion streak. Called exactly once per
// session completion: once for a standalone task, once for a whole plan.
func (l *Ledger) RecordStreak(now time.Time) (int, error) {
	settings, err := l.store.GetSettings()
	if err != nil {
		return 0, err
	}

	count := 1
	if last := settings.LastCompletedAt; last != nil && now.Sub(*last) <= streakWindow {
		count = settings.StreakCount + 1
	}

	if err := l.store.UpdateStreak(count, now); err != nil {
		return 0, err
	}
	return count, nil
}

func (l *Ledger) Balance() (int, error) {
	settings, err := l.store.GetSettings()
	if err != nil {
		return 0, err
	}
	return settings.PointsBalance, nil
}

func (l *Ledger) Streak() (int, error) {
	settings, err := l.store.GetSettings()
	if err != nil {
		return 0, err
	}
	return settings.StreakCount, nil
}

// History returns the most recent transactions, newest first.
func (l *Ledger) History(limit int) ([]store.PointTransaction, error) {
	return l.store.ListTransactions(limit)
}

// Redeem spends a reward's cost. For game-time rewards a successful spend
// also opens the game-time window in settings; lifting app restriction is
// the caller's concern.
func (l *Ledger) Redeem(rewardID int64) (bool, error) {
	reward, err := l.store.GetReward(rewardID)
	if err != nil {
		return false, err
	}
	if !reward.Enabled {
		return false, ErrRewardDisabled
	}

	ok, err := l.Spend(reward.PointsCost, fmt.Sprintf("redeem: %s", reward.Name), &reward.ID)
	if err != nil || !ok {
		return ok, err
	}

	if reward.Kind == store.RewardGameTime && reward.GameTimeMinutes != nil {
		settings, err := l.store.GetSettings()
		if err != nil {
			return true, err
		}
		now := l.clock.Now()
		settings.GameTimeRemaining = *reward.GameTimeMinutes * 60
		settings.GameTimeStartedAt = &now
		settings.GameApps = reward.UnlockApps
		if err := l.store.SaveSettings(settings); err != nil {
			// The spend already stands; surface the window failure.
			l.log.Warn("game time window not persisted", zap.Error(err))
			return true, err
		}
		l.log.Info("game time started",
			zap.String("reward", reward.Name),
			zap.Int("minutes", *reward.GameTimeMinutes))
	}
	return true, nil
}

// ExpireGameTime sweeps the game-time window, closing it once the redeemed
// minutes have lapsed. Returns the seconds still remaining, zero when no
// window is open.
func (l *Ledger) ExpireGameTime() (int, error) {
	settings, err := l.store.GetSettings()
	if err != nil {
		return 0, err
	}
	if settings.GameTimeStartedAt == nil || settings.GameTimeRemaining <= 0 {
		return 0, nil
	}
	left := settings.GameTimeRemaining - int(l.clock.Now().Sub(*settings.GameTimeStartedAt).Seconds())
	if left > 0 {
		return left, nil
	}
	settings.GameTimeRemaining = 0
	settings.GameTimeStartedAt = nil
	settings.GameApps = nil
	if err := l.store.SaveSettings(settings); err != nil {
		return 0, err
	}
	l.log.Info("game time expired")
	return 0, nil
}
