package engine

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/taskward/taskward/internal/store"
)

// PlanStep is one resolved position in a plan's sequence: the task plus
// the duration effective within this plan.
type PlanStep struct {
	Task            store.TaskDefinition
	DurationMinutes int
}

// PlanRunner sequences a plan's tasks end to end. One session row scopes
// the whole plan; per-task point transactions post immediately on each
// completion, the bonus posts at the end, and the streak advances exactly
// once for the whole plan.
type PlanRunner struct {
	engine *Engine

	plan    store.TaskPlan
	steps   []PlanStep
	session *store.TaskSession

	status    store.SessionStatus
	startedAt time.Time
	index     int
	earned    int
	current   *TaskRunner
}

// StartPlan resolves the plan's ordered tasks and begins executing the
// first one. An empty plan is refused.
func (e *Engine) StartPlan(planID int64) (*PlanRunner, error) {
	plan, err := e.catalog.GetPlan(planID)
	if err != nil {
		return nil, err
	}
	tasks, err := e.catalog.OrderedTasks(planID)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, ErrEmptyPlan
	}

	steps := make([]PlanStep, len(tasks))
	for i, t := range tasks {
		d, err := e.catalog.EffectiveDuration(planID, &t)
		if err != nil {
			return nil, err
		}
		steps[i] = PlanStep{Task: t, DurationMinutes: d}
	}

	idx := 0
	session, err := e.store.CreateSession(nil, &plan.ID, &idx)
	if err != nil {
		e.log.Warn("plan session row not created", zap.Error(err))
		session = nil
	}

	p := &PlanRunner{
		engine:    e,
		plan:      *plan,
		steps:     steps,
		session:   session,
		status:    store.SessionInProgress,
		startedAt: e.clock.Now(),
	}

	if session != nil {
		if err := e.store.StartSession(session.ID, p.startedAt); err != nil {
			e.log.Warn("plan session start not persisted", zap.Error(err))
		}
	}

	if err := p.startCurrent(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *PlanRunner) Plan() store.TaskPlan { return p.plan }
func (p *PlanRunner) Steps() []PlanStep { return p.steps }
func (p *PlanRunner) Status() store.SessionStatus { return p.status }
func (p *PlanRunner) Index() int { return p.index }
func (p *PlanRunner) PointsEarned() int { return p.earned }
func (p *PlanRunner) Session() *store.TaskSession { return p.session }
func (p *PlanRunner) Current() *TaskRunner { return p.current }

// Paused reports whether the active child is paused.
func (p *PlanRunner) Paused() bool { return p.current != nil && p.current.Paused() }

// BreakSeconds is the advisory inter-task break from the plan. The engine
// never gates progression on it.
func (p *PlanRunner) BreakSeconds() int { return p.plan.BreakSeconds }

func (p *PlanRunner) startCurrent() error {
	step := p.steps[p.index]
	runner := newTaskRunner(p.engine, step.Task, step.DurationMinutes, nil)
	runner.onTerminal = p.childEnded
	p.current = runner
	return runner.Start()
}

// childEnded handles a child task reaching a terminal state: completion
// posts points and advances or finishes the plan; abandonment abandons the
// plan immediately. Already-posted earns always stand.
func (p *PlanRunner) childEnded(completed bool, points int) {
	if p.status.Terminal() {
		return
	}

	if !completed {
		p.endPlan(store.SessionAbandoned)
		return
	}

	p.earned += points
	p.postEarn(points, fmt.Sprintf("plan %s: %s", p.plan.Name, p.steps[p.index].Task.Name))

	p.index++
	if p.index < len(p.steps) {
		if p.session != nil {
			if err := p.engine.store.SetSessionPlanIndex(p.session.ID, p.index); err != nil {
				p.engine.log.Warn("plan index not persisted", zap.Error(err))
			}
		}
		if err := p.startCurrent(); err != nil {
			p.engine.log.Warn("next plan task not started", zap.Error(err))
		}
		return
	}

	if p.plan.BonusPoints > 0 {
		p.earned += p.plan.BonusPoints
		p.postEarn(p.plan.BonusPoints, fmt.Sprintf("plan %s: completion bonus", p.plan.Name))
	}
	p.endPlan(store.SessionCompleted)

	if _, err := p.engine.ledger.RecordStreak(p.engine.clock.Now()); err != nil {
		p.engine.log.Warn("streak not recorded", zap.Error(err))
	}
}

func (p *PlanRunner) postEarn(points int, description string) {
	var sessionID *int64
	if p.session != nil {
		sessionID = &p.session.ID
	}
	if _, err := p.engine.ledger.Earn(points, description, sessionID); err != nil {
		p.engine.log.Warn("points not posted", zap.Error(err))
	}
}

func (p *PlanRunner) endPlan(status store.SessionStatus) {
	p.status = status
	p.current = nil
	if p.session == nil {
		return
	}
	now := p.engine.clock.Now()
	actual := int(now.Sub(p.startedAt).Seconds())
	if err := p.engine.store.EndSession(p.session.ID, status, now, actual, p.earned); err != nil {
		p.engine.log.Warn("plan session end not persisted", zap.Error(err))
	}
}

// Tick advances the active child's countdown.
func (p *PlanRunner) Tick() {
	if p.current != nil {
		p.current.Tick()
	}
}

func (p *PlanRunner) Pause() error {
	if p.current == nil {
		return ErrNotRunning
	}
	return p.current.Pause()
}

func (p *PlanRunner) Resume() error {
	if p.current == nil {
		return ErrNotRunning
	}
	return p.current.Resume()
}

func (p *PlanRunner) CompleteEarly() error {
	if p.current == nil {
		return ErrNotRunning
	}
	return p.current.CompleteEarly()
}

// Abandon gives up the current task, which abandons the plan as a whole.
func (p *PlanRunner) Abandon() error {
	if p.current == nil {
		return ErrNotRunning
	}
	return p.current.Abandon()
}

func (p *PlanRunner) EnterBackground() {
	if p.current != nil {
		p.current.EnterBackground()
	}
}

func (p *PlanRunner) ExitForeground() {
	if p.current != nil {
		p.current.ExitForeground()
	}
}
