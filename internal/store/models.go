package store

import (
	"fmt"
	"time"
)

// TaskKind distinguishes study tasks (which may restrict the device to a
// fixed app set) from rest tasks.
type TaskKind string

const (
	TaskStudy TaskKind = "study"
	TaskRest  TaskKind = "rest"
)

// SessionStatus is the lifecycle state of a task or plan session.
type SessionStatus string

const (
	SessionPending    SessionStatus = "pending"
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionAbandoned  SessionStatus = "abandoned"
)

// TransactionKind is the business reason for a point transaction.
type TransactionKind string

const (
	TxEarn   TransactionKind = "earn"
	TxSpend  TransactionKind = "spend"
	TxAdjust TransactionKind = "adjust"
	TxBonus  TransactionKind = "bonus"
)

// RewardKind distinguishes game-time rewards from custom ones that need
// parent confirmation.
type RewardKind string

const (
	RewardGameTime RewardKind = "game_time"
	RewardCustom   RewardKind = "custom"
)

// UsageLogKind categorizes app usage log entries recorded during a session.
type UsageLogKind string

const (
	LogAppSwitch  UsageLogKind = "app_switch"
	LogViolation  UsageLogKind = "violation"
	LogInactivity UsageLogKind = "inactivity"
)

// Unknown persisted enum values are surfaced as errors rather than silently
// mapped to a default, so corrupted rows fail loudly.

func ParseTaskKind(s string) (TaskKind, error) {
	switch k := TaskKind(s); k {
	case TaskStudy, TaskRest:
		return k, nil
	}
	return "", fmt.Errorf("unknown task kind %q", s)
}

func ParseSessionStatus(s string) (SessionStatus, error) {
	switch st := SessionStatus(s); st {
	case SessionPending, SessionInProgress, SessionCompleted, SessionAbandoned:
		return st, nil
	}
	return "", fmt.Errorf("unknown session status %q", s)
}

func ParseTransactionKind(s string) (TransactionKind, error) {
	switch k := TransactionKind(s); k {
	case TxEarn, TxSpend, TxAdjust, TxBonus:
		return k, nil
	}
	return "", fmt.Errorf("unknown transaction kind %q", s)
}

func ParseRewardKind(s string) (RewardKind, error) {
	switch k := RewardKind(s); k {
	case RewardGameTime, RewardCustom:
		return k, nil
	}
	return "", fmt.Errorf("unknown reward kind %q", s)
}

func ParseUsageLogKind(s string) (UsageLogKind, error) {
	switch k := UsageLogKind(s); k {
	case LogAppSwitch, LogViolation, LogInactivity:
		return k, nil
	}
	return "", fmt.Errorf("unknown usage log kind %q", s)
}

// Terminal reports whether the status is an end state.
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionAbandoned
}

type TaskDefinition struct {
	ID                 int64
	Name               string
	Description        string
	DurationMinutes    int
	PointsReward       int
	RequiresScreenshot bool
	Kind               TaskKind
	AllowedApps        []string // app identifiers the task restricts activity to
	IsTemplate         bool
	TemplateName       *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type TaskPlan struct {
	ID             int64
	Name           string
	AvailableStart *string // "HH:MM" time of day, both set or both nil
	AvailableEnd   *string
	BonusPoints    int
	BreakSeconds   int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PlanItem is one position in a plan's ordered task sequence. The sequence
// is the sole source of truth for plan contents; duplicates are allowed.
type PlanItem struct {
	PlanID   int64
	Position int
	TaskID   int64
}

type TaskSession struct {
	ID            int64
	TaskID        *int64
	PlanID        *int64
	PlanTaskIndex *int
	Status        SessionStatus
	StartedAt     *time.Time
	EndedAt       *time.Time
	ActualSeconds int
	PointsEarned  int
	ActivityScore int // 0-100, reserved for anti-idle scoring
	CreatedAt     time.Time
}

type Screenshot struct {
	ID            int64
	SessionID     int64
	FilePath      string
	ThumbnailPath *string
	FileSize      int64
	CapturedAt    time.Time
}

type UsageLog struct {
	ID              int64
	SessionID       int64
	Kind            UsageLogKind
	AppID           *string
	DurationSeconds int
	Notes           string
	LoggedAt        time.Time
}

// PointTransaction is an append-only ledger row. BalanceAfter snapshots the
// balance this mutation produced, independent of the live settings field.
type PointTransaction struct {
	ID           int64
	Amount       int // positive = earn, negative = spend
	Kind         TransactionKind
	Description  string
	SessionID    *int64
	RewardID     *int64
	BalanceAfter int
	CreatedAt    time.Time
}

type Reward struct {
	ID              int64
	Name            string
	Description     string
	PointsCost      int
	Kind            RewardKind
	GameTimeMinutes *int
	UnlockApps      []string
	Icon            string
	Enabled         bool
	IsPreset        bool
	CreatedAt       time.Time
}

// Settings is the singleton per-installation record, created lazily on
// first access.
type Settings struct {
	PointsBalance          int
	StreakCount            int
	LastCompletedAt        *time.Time
	SoundEnabled           bool
	InactivityAlertSeconds int
	BlockedApps            []string // permanently restricted
	GameApps               []string // unlocked during game time
	GameTimeRemaining      int      // seconds
	GameTimeStartedAt      *time.Time
}
