// Package catalog manages the reusable task definitions, templates, and
// ordered multi-task plans that feed the execution engine.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/taskward/taskward/internal/store"
)

// Task durations must land in a sane authoring range.
const (
	MinDurationMinutes = 1
	MaxDurationMinutes = 720
)

var (
	ErrEmptyName      = errors.New("name must not be empty")
	ErrBadDuration    = fmt.Errorf("duration must be between %d and %d minutes", MinDurationMinutes, MaxDurationMinutes)
	ErrNegativePoints = errors.New("points must not be negative")
	ErrBadWindow      = errors.New("availability window must be HH:MM with start before end")
)

type Catalog struct {
	store *store.Store
}

func New(s *store.Store) *Catalog {
	return &Catalog{store: s}
}

func validateTask(t *store.TaskDefinition) error {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return ErrEmptyName
	}
	if t.DurationMinutes < MinDurationMinutes || t.DurationMinutes > MaxDurationMinutes {
		return ErrBadDuration
	}
	if t.PointsReward < 0 {
		return ErrNegativePoints
	}
	if _, err := store.ParseTaskKind(string(t.Kind)); err != nil {
		return err
	}
	return nil
}

func (c *Catalog) CreateTask(t *store.TaskDefinition) (*store.TaskDefinition, error) {
	if err := validateTask(t); err != nil {
		return nil, err
	}
	return c.store.CreateTask(t)
}

func (c *Catalog) UpdateTask(t *store.TaskDefinition) error {
	if err := validateTask(t); err != nil {
		return err
	}
	return c.store.UpdateTask(t)
}

func (c *Catalog) GetTask(id int64) (*store.TaskDefinition, error) {
	return c.store.GetTask(id)
}

func (c *Catalog) ListTasks() ([]store.TaskDefinition, error) {
	return c.store.ListTasks(false)
}

func (c *Catalog) ListTemplates() ([]store.TaskDefinition, error) {
	return c.store.ListTasks(true)
}

// DeleteTask removes a definition. Plans referencing it simply lose those
// sequence positions; completed sessions keep their copied values.
func (c *Catalog) DeleteTask(id int64) error {
	return c.store.DeleteTask(id)
}

// Instantiate clones a template into a concrete task carrying the template
// name for provenance.
func (c *Catalog) Instantiate(templateID int64) (*store.TaskDefinition, error) {
	tmpl, err := c.store.GetTask(templateID)
	if err != nil {
		return nil, err
	}
	if !tmpl.IsTemplate {
		return nil, fmt.Errorf("task %d is not a template", templateID)
	}
	task := *tmpl
	task.ID = 0
	task.IsTemplate = false
	name := tmpl.Name
	task.TemplateName = &name
	return c.store.CreateTask(&task)
}

func validateWindow(start, end *string) error {
	if start == nil && end == nil {
		return nil
	}
	if start == nil || end == nil {
		return ErrBadWindow
	}
	if !validTimeOfDay(*start) || !validTimeOfDay(*end) || *start >= *end {
		return ErrBadWindow
	}
	return nil
}

func validTimeOfDay(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	hh := s[:2]
	mm := s[3:]
	for _, c := range hh + mm {
		if c < '0' || c > '9' {
			return false
		}
	}
	return hh <= "23" && mm <= "59"
}

func (c *Catalog) CreatePlan(p *store.TaskPlan, taskIDs []int64) (*store.TaskPlan, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return nil, ErrEmptyName
	}
	if p.BonusPoints < 0 {
		return nil, ErrNegativePoints
	}
	if err := validateWindow(p.AvailableStart, p.AvailableEnd); err != nil {
		return nil, err
	}
	created, err := c.store.CreatePlan(p)
	if err != nil {
		return nil, err
	}
	if err := c.store.SetPlanItems(created.ID, taskIDs); err != nil {
		return nil, err
	}
	return created, nil
}

func (c *Catalog) UpdatePlan(p *store.TaskPlan) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return ErrEmptyName
	}
	if p.BonusPoints < 0 {
		return ErrNegativePoints
	}
	if err := validateWindow(p.AvailableStart, p.AvailableEnd); err != nil {
		return err
	}
	return c.store.UpdatePlan(p)
}

func (c *Catalog) GetPlan(id int64) (*store.TaskPlan, error) {
	return c.store.GetPlan(id)
}

func (c *Catalog) ListPlans() ([]store.TaskPlan, error) {
	return c.store.ListPlans()
}

func (c *Catalog) DeletePlan(id int64) error {
	return c.store.DeletePlan(id)
}

// SetPlanItems replaces the plan's ordered sequence. Repeats are allowed;
// the sequence is the only persisted representation of plan contents.
func (c *Catalog) SetPlanItems(planID int64, taskIDs []int64) error {
	return c.store.SetPlanItems(planID, taskIDs)
}

func (c *Catalog) SetOverride(planID, taskID int64, durationMinutes int) error {
	if durationMinutes < MinDurationMinutes || durationMinutes > MaxDurationMinutes {
		return ErrBadDuration
	}
	return c.store.SetPlanOverride(planID, taskID, durationMinutes)
}

func (c *Catalog) ClearOverride(planID, taskID int64) error {
	return c.store.ClearPlanOverride(planID, taskID)
}

// EffectiveDuration returns the per-plan override for the task if present,
// else the task's own default.
func (c *Catalog) EffectiveDuration(planID int64, task *store.TaskDefinition) (int, error) {
	overrides, err := c.store.PlanOverrides(planID)
	if err != nil {
		return 0, err
	}
	if d, ok := overrides[task.ID]; ok {
		return d, nil
	}
	return task.DurationMinutes, nil
}

// OrderedTasks resolves the plan's sequence against current task records,
// repeats included. Positions whose task was deleted are already gone from
// the sequence.
func (c *Catalog) OrderedTasks(planID int64) ([]store.TaskDefinition, error) {
	ids, err := c.store.PlanItemIDs(planID)
	if err != nil {
		return nil, err
	}
	tasks := make([]store.TaskDefinition, 0, len(ids))
	cache := make(map[int64]*store.TaskDefinition)
	for _, id := range ids {
		t, ok := cache[id]
		if !ok {
			if t, err = c.store.GetTask(id); err != nil {
				return nil, err
			}
			cache[id] = t
		}
		tasks = append(tasks, *t)
	}
	return tasks, nil
}

// DistinctTaskIDs derives the member set from the sequence, first
// occurrence order preserved.
func (c *Catalog) DistinctTaskIDs(planID int64) ([]int64, error) {
	ids, err := c.store.PlanItemIDs(planID)
	if err != nil {
		return nil, err
	}
	seen := make(map[int64]bool, len(ids))
	var distinct []int64
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			distinct = append(distinct, id)
		}
	}
	return distinct, nil
}

// TotalDuration sums effective durations across the sequence. Recomputed on
// demand, never cached, so it always reflects current overrides and
// contents.
func (c *Catalog) TotalDuration(planID int64) (int, error) {
	tasks, err := c.OrderedTasks(planID)
	if err != nil {
		return 0, err
	}
	overrides, err := c.store.PlanOverrides(planID)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, t := range tasks {
		if d, ok := overrides[t.ID]; ok {
			total += d
		} else {
			total += t.DurationMinutes
		}
	}
	return total, nil
}

// TotalPoints sums per-task rewards across the sequence plus the plan's
// completion bonus.
func (c *Catalog) TotalPoints(planID int64) (int, error) {
	tasks, err := c.OrderedTasks(planID)
	if err != nil {
		return 0, err
	}
	plan, err := c.store.GetPlan(planID)
	if err != nil {
		return 0, err
	}
	total := plan.BonusPoints
	for _, t := range tasks {
		total += t.PointsReward
	}
	return total, nil
}
