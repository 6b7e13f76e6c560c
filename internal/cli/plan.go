package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/taskward/taskward/internal/store"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Manage multi-task plans",
	Long: `Plans sequence tasks in a fixed order, optionally with per-plan duration
overrides, an availability window, and a completion bonus. The same task
may appear more than once in a sequence.`,
}

var (
	planAddBonus int
	planAddBreak int
	planAddStart string
	planAddEnd   string
	planAddTasks []int64
)

var planAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a plan from an ordered task list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireParent(); err != nil {
			return err
		}
		p := store.TaskPlan{
			Name:         args[0],
			BonusPoints:  planAddBonus,
			BreakSeconds: planAddBreak,
		}
		if planAddStart != "" || planAddEnd != "" {
			p.AvailableStart = &planAddStart
			p.AvailableEnd = &planAddEnd
		}
		plan, err := app.catalog.CreatePlan(&p, planAddTasks)
		if err != nil {
			return err
		}
		fmt.Printf("Created plan %d: %s (%d tasks)\n", plan.ID, plan.Name, len(planAddTasks))
		return nil
	},
}

var planListCmd = &cobra.Command{
	Use:   "list",
	Short: "List plans with totals",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireParent(); err != nil {
			return err
		}
		plans, err := app.catalog.ListPlans()
		if err != nil {
			return err
		}
		for _, p := range plans {
			dur, err := app.catalog.TotalDuration(p.ID)
			if err != nil {
				return err
			}
			pts, err := app.catalog.TotalPoints(p.ID)
			if err != nil {
				return err
			}
			line := fmt.Sprintf("%4d %-24s %4d min %4d pts", p.ID, p.Name, dur, pts)
			if p.AvailableStart != nil && p.AvailableEnd != nil {
				line += fmt.Sprintf("  %s-%s", *p.AvailableStart, *p.AvailableEnd)
			}
			fmt.Println(line)
		}
		return nil
	},
}

var planShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a plan's ordered sequence",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireParent(); err != nil {
			return err
		}
		id, err := parseID(args[0], "plan")
		if err != nil {
			return err
		}
		plan, err := app.catalog.GetPlan(id)
		if err != nil {
			return err
		}
		tasks, err := app.catalog.OrderedTasks(id)
		if err != nil {
			return err
		}
		fmt.Printf("%s (bonus %d pts, break %ds)\n", plan.Name, plan.BonusPoints, plan.BreakSeconds)
		for i, t := range tasks {
			d, err := app.catalog.EffectiveDuration(id, &t)
			if err != nil {
				return err
			}
			note := ""
			if d != t.DurationMinutes {
				note = fmt.Sprintf(" (default %d)", t.DurationMinutes)
			}
			fmt.Printf("  %2d. %-24s %4d min%s %4d pts\n", i+1, t.Name, d, note, t.PointsReward)
		}
		return nil
	},
}

var planItemsCmd = &cobra.Command{
	Use:   "items <id> <task-id>...",
	Short: "Replace a plan's ordered task sequence",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireParent(); err != nil {
			return err
		}
		id, err := parseID(args[0], "plan")
		if err != nil {
			return err
		}
		taskIDs := make([]int64, 0, len(args)-1)
		for _, a := range args[1:] {
			tid, err := parseID(a, "task")
			if err != nil {
				return err
			}
			taskIDs = append(taskIDs, tid)
		}
		return app.catalog.SetPlanItems(id, taskIDs)
	},
}

var overrideClear bool

var planOverrideCmd = &cobra.Command{
	Use:   "override <plan-id> <task-id> [minutes]",
	Short: "Set or clear a per-plan duration override",
	Long: `Override a task's duration within one plan without touching the task's
default. Pass --clear to remove the override.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireParent(); err != nil {
			return err
		}
		planID, err := parseID(args[0], "plan")
		if err != nil {
			return err
		}
		taskID, err := parseID(args[1], "task")
		if err != nil {
			return err
		}
		if overrideClear {
			return app.catalog.ClearOverride(planID, taskID)
		}
		if len(args) < 3 {
			return fmt.Errorf("minutes required unless --clear is given")
		}
		minutes, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("parse minutes %q: %w", args[2], err)
		}
		return app.catalog.SetOverride(planID, taskID, minutes)
	},
}

var planRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireParent(); err != nil {
			return err
		}
		id, err := parseID(args[0], "plan")
		if err != nil {
			return err
		}
		return app.catalog.DeletePlan(id)
	},
}

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s id %q: %w", what, s, err)
	}
	return id, nil
}

func init() {
	planAddCmd.Flags().IntVar(&planAddBonus, "bonus", 0, "points awarded for completing the whole plan")
	planAddCmd.Flags().IntVar(&planAddBreak, "break", 0, "suggested break between tasks in seconds")
	planAddCmd.Flags().StringVar(&planAddStart, "start", "", "availability window start (HH:MM)")
	planAddCmd.Flags().StringVar(&planAddEnd, "end", "", "availability window end (HH:MM)")
	planAddCmd.Flags().Int64SliceVar(&planAddTasks, "tasks", nil, "ordered task ids")
	planOverrideCmd.Flags().BoolVar(&overrideClear, "clear", false, "remove the override")

	planCmd.AddCommand(planAddCmd)
	planCmd.AddCommand(planListCmd)
	planCmd.AddCommand(planShowCmd)
	planCmd.AddCommand(planItemsCmd)
	planCmd.AddCommand(planOverrideCmd)
	planCmd.AddCommand(planRmCmd)
	parentCmd.AddCommand(planCmd)
}
