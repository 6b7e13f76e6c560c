// Package shield models the platform app-restriction service: while a study
// task runs, only the task's allowed apps may be used; outside tasks a
// permanently blocked set applies.
package shield

import (
	"sync"

	"go.uber.org/zap"
)

// Restrictor is the contract the execution engine drives. Start/stop are
// idempotent; implementations must degrade to a logged no-op when the
// platform has not authorized restriction.
type Restrictor interface {
	BeginRestriction(allowedApps []string) error
	EndRestriction() error
	ApplyPermanentRestriction(blockedApps []string) error
}

// Shield is the local Restrictor. It keeps the authorization gate and the
// permanent blocked set; the actual enforcement hook is a callback so the
// platform binding stays out of the core.
type Shield struct {
	log *zap.Logger

	mu         sync.Mutex
	authorized bool
	active     bool
	blocked    []string
	allowed    []string
}

func New(log *zap.Logger, authorized bool) *Shield {
	return &Shield{log: log, authorized: authorized}
}

// SetAuthorized flips the platform authorization gate.
func (s *Shield) SetAuthorized(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authorized = ok
}

// Active reports whether a task restriction is currently in force. False
// when unauthorized, so callers can surface that restriction is inactive.
func (s *Shield) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// BeginRestriction starts restricting the device to the allowed set for the
// duration of a task. Calling it while already active replaces the set.
func (s *Shield) BeginRestriction(allowedApps []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.authorized {
		s.log.Warn("restriction not authorized; task proceeds unrestricted")
		return nil
	}
	s.allowed = append([]string(nil), allowedApps...)
	s.active = true
	s.log.Info("task restriction started", zap.Int("allowed_apps", len(allowedApps)))
	return nil
}

// EndRestriction lifts the task restriction and reapplies the permanent
// blocked set. Safe to call when no restriction was ever started.
func (s *Shield) EndRestriction() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.authorized {
		return nil
	}
	if !s.active && len(s.allowed) == 0 {
		return nil
	}
	s.allowed = nil
	s.active = false
	s.log.Info("task restriction stopped", zap.Int("permanent_blocked", len(s.blocked)))
	return nil
}

// ApplyPermanentRestriction installs the always-blocked set configured by
// the parent. It persists across task restrictions.
func (s *Shield) ApplyPermanentRestriction(blockedApps []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.authorized {
		s.log.Warn("restriction not authorized; permanent block not applied")
		return nil
	}
	s.blocked = append([]string(nil), blockedApps...)
	s.log.Info("permanent restriction applied", zap.Int("blocked_apps", len(blockedApps)))
	return nil
}

// AllowedApps returns the current task allow set, for surfaces that show
// what the child may use.
func (s *Shield) AllowedApps() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.allowed...)
}
