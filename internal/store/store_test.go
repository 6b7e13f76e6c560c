package store

import (
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// newTask is a test helper that inserts a minimal study task.
func newTask(t *testing.T, s *Store, name string, minutes, points int) *TaskDefinition {
	t.Helper()
	task, err := s.CreateTask(&TaskDefinition{
		Name:            name,
		DurationMinutes: minutes,
		PointsReward:    points,
		Kind:            TaskStudy,
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task
}

// ============================================================
// Store initialization
// ============================================================

func TestNewMemory(t *testing.T) {
	s, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	var version int
	s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != 1 {
		t.Fatalf("expected user_version 1, got %d", version)
	}
}

func TestNewWithPath(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/sub/taskward.db"
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	// Reopen: should succeed and not re-migrate
	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	s2.Close()
}

func TestPragmasConfigured(t *testing.T) {
	s := newTestStore(t)

	var fk int
	s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk)
	if fk != 1 {
		t.Fatalf("expected foreign_keys=1, got %d", fk)
	}
}

func TestMigrationIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.migrate(); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
}

// ============================================================
// Task definitions
// ============================================================

func TestCreateAndGetTask(t *testing.T) {
	s := newTestStore(t)
	task, err := s.CreateTask(&TaskDefinition{
		Name:            "Math homework",
		Description:     "Chapter 4",
		DurationMinutes: 25,
		PointsReward:    10,
		Kind:            TaskStudy,
		AllowedApps:     []string{"com.books", "com.notes"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if task.ID == 0 {
		t.Fatal("expected non-zero ID")
	}

	got, err := s.GetTask(task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Math homework" || got.DurationMinutes != 25 || got.PointsReward != 10 {
		t.Fatalf("unexpected task: %+v", got)
	}
	if got.Kind != TaskStudy {
		t.Fatalf("expected study kind, got %s", got.Kind)
	}
	if len(got.AllowedApps) != 2 || got.AllowedApps[0] != "com.books" {
		t.Fatalf("allowed apps not round-tripped: %v", got.AllowedApps)
	}
	if got.CreatedAt.IsZero() {
		t.Fatal("CreatedAt should be set")
	}
}

func TestGetTaskNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetTask(999)
	if err == nil {
		t.Fatal("expected error for missing task")
	}
}

func TestListTasksTemplatesOnly(t *testing.T) {
	s := newTestStore(t)
	newTask(t, s, "Concrete", 20, 5)
	_, err := s.CreateTask(&TaskDefinition{
		Name: "Reading template", DurationMinutes: 30, Kind: TaskRest, IsTemplate: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	all, err := s.ListTasks(false)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(all))
	}

	templates, err := s.ListTasks(true)
	if err != nil {
		t.Fatal(err)
	}
	if len(templates) != 1 || !templates[0].IsTemplate {
		t.Fatalf("expected 1 template, got %+v", templates)
	}
}

func TestUpdateTask(t *testing.T) {
	s := newTestStore(t)
	task := newTask(t, s, "Old", 20, 5)
	task.Name = "New"
	task.DurationMinutes = 45
	task.Kind = TaskRest
	if err := s.UpdateTask(task); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetTask(task.ID)
	if got.Name != "New" || got.DurationMinutes != 45 || got.Kind != TaskRest {
		t.Fatalf("update failed: %+v", got)
	}
}

func TestDeleteTaskCascadesPlanItems(t *testing.T) {
	s := newTestStore(t)
	task := newTask(t, s, "Doomed", 10, 5)
	keep := newTask(t, s, "Kept", 10, 5)
	plan, _ := s.CreatePlan(&TaskPlan{Name: "Evening"})
	if err := s.SetPlanItems(plan.ID, []int64{task.ID, keep.ID, task.ID}); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteTask(task.ID); err != nil {
		t.Fatal(err)
	}
	ids, err := s.PlanItemIDs(plan.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != keep.ID {
		t.Fatalf("expected deleted task gone from sequence, got %v", ids)
	}
}

// ============================================================
// Plans, items and overrides
// ============================================================

func TestCreatePlanWithWindow(t *testing.T) {
	s := newTestStore(t)
	start, end := "16:00", "19:30"
	plan, err := s.CreatePlan(&TaskPlan{
		Name:           "After school",
		AvailableStart: &start,
		AvailableEnd:   &end,
		BonusPoints:    20,
		BreakSeconds:   300,
	})
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.GetPlan(plan.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.AvailableStart == nil || *got.AvailableStart != "16:00" {
		t.Fatalf("window start not round-tripped: %+v", got)
	}
	if got.BonusPoints != 20 || got.BreakSeconds != 300 {
		t.Fatalf("unexpected plan: %+v", got)
	}
}

func TestSetPlanItemsReplacesSequence(t *testing.T) {
	s := newTestStore(t)
	a := newTask(t, s, "A", 10, 1)
	b := newTask(t, s, "B", 10, 2)
	plan, _ := s.CreatePlan(&TaskPlan{Name: "P"})

	if err := s.SetPlanItems(plan.ID, []int64{a.ID, b.ID, a.ID}); err != nil {
		t.Fatal(err)
	}
	ids, _ := s.PlanItemIDs(plan.ID)
	if len(ids) != 3 || ids[0] != a.ID || ids[1] != b.ID || ids[2] != a.ID {
		t.Fatalf("unexpected sequence: %v", ids)
	}

	// Replace wholesale
	if err := s.SetPlanItems(plan.ID, []int64{b.ID}); err != nil {
		t.Fatal(err)
	}
	ids, _ = s.PlanItemIDs(plan.ID)
	if len(ids) != 1 || ids[0] != b.ID {
		t.Fatalf("sequence not replaced: %v", ids)
	}
}

func TestPlanOverridesUpsert(t *testing.T) {
	s := newTestStore(t)
	task := newTask(t, s, "A", 30, 5)
	plan, _ := s.CreatePlan(&TaskPlan{Name: "P"})

	if err := s.SetPlanOverride(plan.ID, task.ID, 15); err != nil {
		t.Fatal(err)
	}
	if err := s.SetPlanOverride(plan.ID, task.ID, 20); err != nil {
		t.Fatal(err)
	}
	overrides, err := s.PlanOverrides(plan.ID)
	if err != nil {
		t.Fatal(err)
	}
	if overrides[task.ID] != 20 {
		t.Fatalf("expected upserted override 20, got %d", overrides[task.ID])
	}

	if err := s.ClearPlanOverride(plan.ID, task.ID); err != nil {
		t.Fatal(err)
	}
	overrides, _ = s.PlanOverrides(plan.ID)
	if len(overrides) != 0 {
		t.Fatalf("override not cleared: %v", overrides)
	}
}

func TestDeletePlanCascades(t *testing.T) {
	s := newTestStore(t)
	task := newTask(t, s, "A", 10, 1)
	plan, _ := s.CreatePlan(&TaskPlan{Name: "P"})
	s.SetPlanItems(plan.ID, []int64{task.ID})
	s.SetPlanOverride(plan.ID, task.ID, 5)

	if err := s.DeletePlan(plan.ID); err != nil {
		t.Fatal(err)
	}
	var n int
	s.db.QueryRow(`SELECT COUNT(*) FROM plan_items`).Scan(&n)
	if n != 0 {
		t.Fatalf("plan items not cascaded: %d", n)
	}
	s.db.QueryRow(`SELECT COUNT(*) FROM plan_overrides`).Scan(&n)
	if n != 0 {
		t.Fatalf("plan overrides not cascaded: %d", n)
	}
}

// ============================================================
// Sessions
// ============================================================

func TestSessionLifecycle(t *testing.T) {
	s := newTestStore(t)
	task := newTask(t, s, "A", 10, 5)

	sess, err := s.CreateSession(&task.ID, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if sess.Status != SessionPending {
		t.Fatalf("expected pending, got %s", sess.Status)
	}

	start := time.Now().UTC().Truncate(time.Second)
	if err := s.StartSession(sess.ID, start); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetSession(sess.ID)
	if got.Status != SessionInProgress {
		t.Fatalf("expected in_progress, got %s", got.Status)
	}
	if got.StartedAt == nil || !got.StartedAt.Equal(start) {
		t.Fatalf("started_at not persisted: %+v", got.StartedAt)
	}

	end := start.Add(90 * time.Second)
	if err := s.EndSession(sess.ID, SessionCompleted, end, 90, 5); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetSession(sess.ID)
	if got.Status != SessionCompleted || got.ActualSeconds != 90 || got.PointsEarned != 5 {
		t.Fatalf("unexpected ended session: %+v", got)
	}
}

func TestEndSessionRejectsNonTerminal(t *testing.T) {
	s := newTestStore(t)
	task := newTask(t, s, "A", 10, 5)
	sess, _ := s.CreateSession(&task.ID, nil, nil)
	err := s.EndSession(sess.ID, SessionInProgress, time.Now(), 0, 0)
	if err == nil {
		t.Fatal("expected error for non-terminal status")
	}
}

func TestSetSessionPlanIndex(t *testing.T) {
	s := newTestStore(t)
	plan, _ := s.CreatePlan(&TaskPlan{Name: "P"})
	idx := 0
	sess, err := s.CreateSession(nil, &plan.ID, &idx)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetSessionPlanIndex(sess.ID, 2); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetSession(sess.ID)
	if got.PlanTaskIndex == nil || *got.PlanTaskIndex != 2 {
		t.Fatalf("plan index not persisted: %+v", got.PlanTaskIndex)
	}
}

func TestScreenshotsAndUsageLogs(t *testing.T) {
	s := newTestStore(t)
	task := newTask(t, s, "A", 10, 5)
	sess, _ := s.CreateSession(&task.ID, nil, nil)

	if _, err := s.AddScreenshot(sess.ID, "/tmp/shot1.png", nil, 1024); err != nil {
		t.Fatal(err)
	}
	shots, err := s.ListScreenshots(sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(shots) != 1 || shots[0].FilePath != "/tmp/shot1.png" {
		t.Fatalf("unexpected screenshots: %+v", shots)
	}

	appID := "com.game"
	if _, err := s.AddUsageLog(sess.ID, LogViolation, &appID, 12, "opened game"); err != nil {
		t.Fatal(err)
	}
	logs, err := s.ListUsageLogs(sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 || logs[0].Kind != LogViolation || *logs[0].AppID != "com.game" {
		t.Fatalf("unexpected usage logs: %+v", logs)
	}
}

// ============================================================
// Transactions and balance
// ============================================================

func TestAppendTransactionTracksBalance(t *testing.T) {
	s := newTestStore(t)

	balance, err := s.AppendTransaction(10, TxEarn, "task", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if balance != 10 {
		t.Fatalf("expected balance 10, got %d", balance)
	}

	balance, err = s.AppendTransaction(-4, TxSpend, "reward", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if balance != 6 {
		t.Fatalf("expected balance 6, got %d", balance)
	}

	settings, _ := s.GetSettings()
	if settings.PointsBalance != 6 {
		t.Fatalf("settings balance diverged: %d", settings.PointsBalance)
	}
}

func TestAppendTransactionRefusesNegativeBalance(t *testing.T) {
	s := newTestStore(t)
	s.AppendTransaction(5, TxEarn, "", nil, nil)

	_, err := s.AppendTransaction(-6, TxSpend, "", nil, nil)
	if err == nil {
		t.Fatal("expected error for overdraft")
	}

	// Nothing recorded, balance unchanged
	txs, _ := s.ListTransactions(0)
	if len(txs) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txs))
	}
	settings, _ := s.GetSettings()
	if settings.PointsBalance != 5 {
		t.Fatalf("balance changed on failed spend: %d", settings.PointsBalance)
	}
}

func TestLedgerSumMatchesBalance(t *testing.T) {
	s := newTestStore(t)
	s.AppendTransaction(10, TxEarn, "", nil, nil)
	s.AppendTransaction(7, TxEarn, "", nil, nil)
	s.AppendTransaction(-3, TxSpend, "", nil, nil)

	sum, err := s.LedgerSum()
	if err != nil {
		t.Fatal(err)
	}
	settings, _ := s.GetSettings()
	if sum != settings.PointsBalance {
		t.Fatalf("ledger sum %d != balance %d", sum, settings.PointsBalance)
	}
}

func TestListTransactionsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	s.AppendTransaction(1, TxEarn, "first", nil, nil)
	s.AppendTransaction(2, TxEarn, "second", nil, nil)

	txs, err := s.ListTransactions(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != 2 || txs[0].Description != "second" {
		t.Fatalf("expected newest first, got %+v", txs)
	}

	limited, _ := s.ListTransactions(1)
	if len(limited) != 1 {
		t.Fatalf("limit ignored: %d rows", len(limited))
	}
}

// ============================================================
// Settings and secrets
// ============================================================

func TestSettingsLazyDefaults(t *testing.T) {
	s := newTestStore(t)
	settings, err := s.GetSettings()
	if err != nil {
		t.Fatal(err)
	}
	if settings.PointsBalance != 0 || settings.StreakCount != 0 {
		t.Fatalf("unexpected defaults: %+v", settings)
	}
	if !settings.SoundEnabled || settings.InactivityAlertSeconds != 60 {
		t.Fatalf("unexpected defaults: %+v", settings)
	}
}

func TestSaveSettingsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC().Truncate(time.Second)
	in := &Settings{
		PointsBalance:          42,
		StreakCount:            3,
		LastCompletedAt:        &now,
		SoundEnabled:           false,
		InactivityAlertSeconds: 120,
		BlockedApps:            []string{"com.game"},
		GameApps:               []string{"com.puzzle"},
		GameTimeRemaining:      600,
		GameTimeStartedAt:      &now,
	}
	if err := s.SaveSettings(in); err != nil {
		t.Fatal(err)
	}
	out, err := s.GetSettings()
	if err != nil {
		t.Fatal(err)
	}
	if out.PointsBalance != 42 || out.StreakCount != 3 || out.SoundEnabled {
		t.Fatalf("round trip failed: %+v", out)
	}
	if len(out.BlockedApps) != 1 || out.BlockedApps[0] != "com.game" {
		t.Fatalf("blocked apps lost: %v", out.BlockedApps)
	}
	if out.LastCompletedAt == nil || !out.LastCompletedAt.Equal(now) {
		t.Fatalf("last completed lost: %+v", out.LastCompletedAt)
	}
}

func TestSecretsRoundTrip(t *testing.T) {
	s := newTestStore(t)

	_, ok, err := s.GetSecret("missing")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected missing secret")
	}

	if err := s.SetSecret("k", "v1"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetSecret("k", "v2"); err != nil {
		t.Fatal(err)
	}
	v, ok, err := s.GetSecret("k")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || v != "v2" {
		t.Fatalf("expected upserted v2, got %q ok=%v", v, ok)
	}

	if err := s.DeleteSecret("k"); err != nil {
		t.Fatal(err)
	}
	_, ok, _ = s.GetSecret("k")
	if ok {
		t.Fatal("secret not deleted")
	}
}

// ============================================================
// Rewards
// ============================================================

func TestRewardRoundTrip(t *testing.T) {
	s := newTestStore(t)
	minutes := 30
	r, err := s.CreateReward(&Reward{
		Name:            "Game time",
		PointsCost:      50,
		Kind:            RewardGameTime,
		GameTimeMinutes: &minutes,
		UnlockApps:      []string{"com.puzzle"},
		Icon:            "gamecontroller",
		Enabled:         true,
	})
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.GetReward(r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind != RewardGameTime || got.GameTimeMinutes == nil || *got.GameTimeMinutes != 30 {
		t.Fatalf("unexpected reward: %+v", got)
	}
	if len(got.UnlockApps) != 1 || got.UnlockApps[0] != "com.puzzle" {
		t.Fatalf("unlock apps lost: %v", got.UnlockApps)
	}
}

func TestListRewardsEnabledOnly(t *testing.T) {
	s := newTestStore(t)
	s.CreateReward(&Reward{Name: "On", PointsCost: 10, Kind: RewardCustom, Enabled: true})
	s.CreateReward(&Reward{Name: "Off", PointsCost: 10, Kind: RewardCustom, Enabled: false})

	all, _ := s.ListRewards(false)
	if len(all) != 2 {
		t.Fatalf("expected 2 rewards, got %d", len(all))
	}
	enabled, _ := s.ListRewards(true)
	if len(enabled) != 1 || enabled[0].Name != "On" {
		t.Fatalf("expected only enabled reward, got %+v", enabled)
	}
}

// ============================================================
// Enum parsing
// ============================================================

func TestParseEnumsRejectUnknown(t *testing.T) {
	if _, err := ParseTaskKind("play"); err == nil {
		t.Fatal("expected error for unknown task kind")
	}
	if _, err := ParseSessionStatus("done"); err == nil {
		t.Fatal("expected error for unknown status")
	}
	if _, err := ParseTransactionKind("gift"); err == nil {
		t.Fatal("expected error for unknown transaction kind")
	}
	if _, err := ParseRewardKind("toy"); err == nil {
		t.Fatal("expected error for unknown reward kind")
	}
}
