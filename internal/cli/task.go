package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/taskward/taskward/internal/store"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage task definitions and templates",
}

var (
	taskAddMinutes    int
	taskAddPoints     int
	taskAddKind       string
	taskAddDesc       string
	taskAddApps       []string
	taskAddScreenshot bool
	taskAddTemplate   bool
)

var taskAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a task definition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireParent(); err != nil {
			return err
		}
		kind, err := store.ParseTaskKind(taskAddKind)
		if err != nil {
			return err
		}
		task, err := app.catalog.CreateTask(&store.TaskDefinition{
			Name:               args[0],
			Description:        taskAddDesc,
			DurationMinutes:    taskAddMinutes,
			PointsReward:       taskAddPoints,
			RequiresScreenshot: taskAddScreenshot,
			Kind:               kind,
			AllowedApps:        taskAddApps,
			IsTemplate:         taskAddTemplate,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Created task %d: %s (%d min, %d pts)\n",
			task.ID, task.Name, task.DurationMinutes, task.PointsReward)
		return nil
	},
}

var taskListTemplates bool

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List task definitions",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireParent(); err != nil {
			return err
		}
		var (
			tasks []store.TaskDefinition
			err   error
		)
		if taskListTemplates {
			tasks, err = app.catalog.ListTemplates()
		} else {
			tasks, err = app.catalog.ListTasks()
		}
		if err != nil {
			return err
		}
		for _, t := range tasks {
			marker := " "
			if t.IsTemplate {
				marker = "T"
			}
			line := fmt.Sprintf("%4d %s %-24s %5s %4d min %4d pts",
				t.ID, marker, t.Name, t.Kind, t.DurationMinutes, t.PointsReward)
			if len(t.AllowedApps) > 0 {
				line += "  apps: " + strings.Join(t.AllowedApps, ",")
			}
			fmt.Println(line)
		}
		return nil
	},
}

var taskRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a task definition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireParent(); err != nil {
			return err
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("parse task id %q: %w", args[0], err)
		}
		return app.catalog.DeleteTask(id)
	},
}

var taskInstantiateCmd = &cobra.Command{
	Use:   "instantiate <template-id>",
	Short: "Clone a template into a concrete task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireParent(); err != nil {
			return err
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("parse template id %q: %w", args[0], err)
		}
		task, err := app.catalog.Instantiate(id)
		if err != nil {
			return err
		}
		fmt.Printf("Created task %d from template %s\n", task.ID, *task.TemplateName)
		return nil
	},
}

func init() {
	taskAddCmd.Flags().IntVar(&taskAddMinutes, "minutes", 25, "task duration in minutes")
	taskAddCmd.Flags().IntVar(&taskAddPoints, "points", 10, "points awarded on completion")
	taskAddCmd.Flags().StringVar(&taskAddKind, "kind", "study", "task kind: study or rest")
	taskAddCmd.Flags().StringVar(&taskAddDesc, "desc", "", "task description")
	taskAddCmd.Flags().StringSliceVar(&taskAddApps, "apps", nil, "apps allowed while the task runs")
	taskAddCmd.Flags().BoolVar(&taskAddScreenshot, "screenshot", false, "require periodic screenshots")
	taskAddCmd.Flags().BoolVar(&taskAddTemplate, "template", false, "create as a reusable template")
	taskListCmd.Flags().BoolVar(&taskListTemplates, "templates", false, "list only templates")

	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskRmCmd)
	taskCmd.AddCommand(taskInstantiateCmd)
	parentCmd.AddCommand(taskCmd)
}
