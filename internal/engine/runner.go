package engine

import (
	"time"

	"go.uber.org/zap"

	"github.com/taskward/taskward/internal/store"
)

// TaskRunner executes one task's countdown. Status moves
// Pending → InProgress → {Completed | Abandoned}; the paused flag is
// orthogonal and never changes the persisted status. Plan children run
// without their own session row; the in-memory runner is the source of
// truth either way, and store writes are soft.
type TaskRunner struct {
	engine *Engine

	task            store.TaskDefinition
	durationMinutes int
	session         *store.TaskSession // nil for plan children

	status       store.SessionStatus
	startedAt    time.Time
	remaining    int // seconds
	paused       bool
	backgroundAt *time.Time
	shieldOn     bool

	// onTerminal fires exactly once, after the terminal state is recorded
	// and restriction is lifted.
	onTerminal func(completed bool, points int)
}

func newTaskRunner(e *Engine, task store.TaskDefinition, durationMinutes int, session *store.TaskSession) *TaskRunner {
	return &TaskRunner{
		engine:          e,
		task:            task,
		durationMinutes: durationMinutes,
		session:         session,
		status:          store.SessionPending,
		remaining:       durationMinutes * 60,
	}
}

func (r *TaskRunner) Task() store.TaskDefinition { return r.task }
func (r *TaskRunner) Status() store.SessionStatus { return r.status }
func (r *TaskRunner) Remaining() int { return r.remaining }
func (r *TaskRunner) Paused() bool { return r.paused }
func (r *TaskRunner) PointsEarned() int {
	if r.status == store.SessionCompleted {
		return r.task.PointsReward
	}
	return 0
}

// Session returns the persisted session row, if one exists.
func (r *TaskRunner) Session() *store.TaskSession { return r.session }

// RestrictionActive reports whether this runner started app restriction.
// False when the shield is unauthorized, so surfaces can show that
// restriction is inactive.
func (r *TaskRunner) RestrictionActive() bool { return r.shieldOn }

// Start transitions to InProgress and, for study tasks with a restricted
// app list, begins app restriction for the duration of the session.
func (r *TaskRunner) Start() error {
	if r.status != store.SessionPending {
		return ErrAlreadyStarted
	}
	r.status = store.SessionInProgress
	r.startedAt = r.engine.clock.Now()

	if r.session != nil {
		if err := r.engine.store.StartSession(r.session.ID, r.startedAt); err != nil {
			r.engine.log.Warn("session start not persisted", zap.Error(err))
		}
	}

	if r.task.Kind == store.TaskStudy && len(r.task.AllowedApps) > 0 {
		if err := r.engine.shield.BeginRestriction(r.task.AllowedApps); err != nil {
			// Degrade gracefully: the task proceeds unrestricted.
			r.engine.log.Warn("restriction not started", zap.Error(err))
		} else {
			r.shieldOn = true
		}
	}
	return nil
}

// Tick advances the countdown by one second. It is a no-op while paused or
// outside InProgress. Reaching zero triggers the natural completion path
// with the full point reward.
func (r *TaskRunner) Tick() {
	if r.status != store.SessionInProgress || r.paused {
		return
	}
	if r.remaining > 0 {
		r.remaining--
	}
	if r.remaining == 0 {
		r.complete()
	}
}

func (r *TaskRunner) Pause() error {
	if r.status != store.SessionInProgress {
		return ErrNotRunning
	}
	r.paused = true
	return nil
}

func (r *TaskRunner) Resume() error {
	if r.status != store.SessionInProgress {
		return ErrNotRunning
	}
	r.paused = false
	return nil
}

// CompleteEarly is the caller-confirmed manual completion. The full reward
// is granted, identical to natural expiry; points are never prorated.
func (r *TaskRunner) CompleteEarly() error {
	if r.status.Terminal() {
		return ErrAlreadyEnded
	}
	if r.status != store.SessionInProgress {
		return ErrNotRunning
	}
	r.complete()
	return nil
}

// Abandon ends the session with zero points.
func (r *TaskRunner) Abandon() error {
	if r.status.Terminal() {
		return ErrAlreadyEnded
	}
	if r.status != store.SessionInProgress {
		return ErrNotRunning
	}
	r.end(store.SessionAbandoned, 0)
	return nil
}

// EnterBackground records the suspension timestamp. A paused session
// carries nothing across the boundary: pause must not elapse.
func (r *TaskRunner) EnterBackground() {
	if r.status != store.SessionInProgress || r.paused {
		return
	}
	now := r.engine.clock.Now()
	r.backgroundAt = &now
}

// ExitForeground reconciles wall-clock time that elapsed while suspended,
// flooring remaining at zero and completing if it ran out.
func (r *TaskRunner) ExitForeground() {
	bg := r.backgroundAt
	r.backgroundAt = nil
	if bg == nil || r.paused || r.status != store.SessionInProgress {
		return
	}
	elapsed := int(r.engine.clock.Now().Sub(*bg).Seconds())
	if elapsed <= 0 {
		return
	}
	r.remaining -= elapsed
	if r.remaining <= 0 {
		r.remaining = 0
		r.complete()
	}
}

func (r *TaskRunner) complete() {
	r.end(store.SessionCompleted, r.task.PointsReward)
}

// end performs the terminal transition: it persists the outcome, lifts app
// restriction unconditionally, and fires the terminal hook once.
func (r *TaskRunner) end(status store.SessionStatus, points int) {
	now := r.engine.clock.Now()
	actual := int(now.Sub(r.startedAt).Seconds())
	r.status = status
	r.remaining = max(r.remaining, 0)

	if r.session != nil {
		if err := r.engine.store.EndSession(r.session.ID, status, now, actual, points); err != nil {
			r.engine.log.Warn("session end not persisted", zap.Error(err))
		}
	}

	// Always stop restriction on a terminal transition, even if it never
	// started; EndRestriction is idempotent.
	if err := r.engine.shield.EndRestriction(); err != nil {
		r.engine.log.Warn("restriction not stopped", zap.Error(err))
	}
	r.shieldOn = false

	if r.onTerminal != nil {
		hook := r.onTerminal
		r.onTerminal = nil
		hook(status == store.SessionCompleted, points)
	}
}
