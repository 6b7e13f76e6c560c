// Package engine drives timed task execution: a one-second countdown with
// pause, abandonment, early completion and background-elapsed
// reconciliation, plus sequential execution of multi-task plans with point
// accrual and a completion bonus.
//
// The engine is single-threaded by contract: one tick source advances
// state, and all other entry points are invoked synchronously by the
// caller. It owns no goroutines and no timers.
package engine

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/taskward/taskward/internal/catalog"
	"github.com/taskward/taskward/internal/clock"
	"github.com/taskward/taskward/internal/ledger"
	"github.com/taskward/taskward/internal/shield"
	"github.com/taskward/taskward/internal/store"
)

var (
	ErrEmptyPlan      = errors.New("plan has no tasks")
	ErrAlreadyStarted = errors.New("session already started")
	ErrNotRunning     = errors.New("session is not running")
	ErrAlreadyEnded   = errors.New("session already ended")
)

type Engine struct {
	store   *store.Store
	catalog *catalog.Catalog
	ledger  *ledger.Ledger
	shield  shield.Restrictor
	clock   clock.Clock
	log     *zap.Logger
}

func New(s *store.Store, cat *catalog.Catalog, led *ledger.Ledger, restrictor shield.Restrictor, clk clock.Clock, log *zap.Logger) *Engine {
	return &Engine{store: s, catalog: cat, ledger: led, shield: restrictor, clock: clk, log: log}
}

// StartTask begins a standalone timed session for one task definition.
// Completion posts one earn transaction and advances the streak once.
func (e *Engine) StartTask(taskID int64) (*TaskRunner, error) {
	task, err := e.catalog.GetTask(taskID)
	if err != nil {
		return nil, err
	}

	session, err := e.store.CreateSession(&task.ID, nil, nil)
	if err != nil {
		// Soft persistence failure: run in memory, history row is lost.
		e.log.Warn("session row not created", zap.Error(err))
		session = nil
	}

	runner := newTaskRunner(e, *task, task.DurationMinutes, session)
	runner.onTerminal = func(completed bool, points int) {
		if !completed {
			return
		}
		var sessionID *int64
		if session != nil {
			sessionID = &session.ID
		}
		if _, err := e.ledger.Earn(points, fmt.Sprintf("task: %s", task.Name), sessionID); err != nil {
			e.log.Warn("points not posted", zap.Error(err))
		}
		if _, err := e.ledger.RecordStreak(e.clock.Now()); err != nil {
			e.log.Warn("streak not recorded", zap.Error(err))
		}
	}

	if err := runner.Start(); err != nil {
		return nil, err
	}
	return runner, nil
}
