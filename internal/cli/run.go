package cli

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskward/taskward/internal/engine"
	"github.com/taskward/taskward/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a task or plan session",
	Long: `Run a timed session in the foreground. While it runs, single-letter
commands on stdin control it: p pauses, r resumes, c completes early
with full points, a (or Ctrl-C) abandons with none.`,
}

// sessionControl is what the loop needs from either runner kind.
type sessionControl interface {
	Tick()
	Pause() error
	Resume() error
	CompleteEarly() error
	Abandon() error
	Status() store.SessionStatus
	Paused() bool
	PointsEarned() int
}

var runTaskCmd = &cobra.Command{
	Use:   "task <id>",
	Short: "Run a single task session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "task")
		if err != nil {
			return err
		}
		runner, err := app.engine.StartTask(id)
		if err != nil {
			return err
		}
		fmt.Printf("Running %s (%d min)\n", runner.Task().Name, runner.Task().DurationMinutes)
		return driveSession(runner, func() (string, int) {
			return runner.Task().Name, runner.Remaining()
		})
	},
}

var runPlanCmd = &cobra.Command{
	Use:   "plan <id>",
	Short: "Run a plan's tasks in sequence",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "plan")
		if err != nil {
			return err
		}
		runner, err := app.engine.StartPlan(id)
		if err != nil {
			return err
		}
		fmt.Printf("Running plan %s (%d tasks)\n", runner.Plan().Name, len(runner.Steps()))
		return driveSession(runner, func() (string, int) {
			cur := runner.Current()
			if cur == nil {
				return runner.Plan().Name, 0
			}
			label := fmt.Sprintf("%d/%d %s", runner.Index()+1, len(runner.Steps()), cur.Task().Name)
			return label, cur.Remaining()
		})
	},
}

// driveSession owns the tick loop. The engine holds no timers; this loop is
// the single tick source, and every control call happens on this goroutine.
func driveSession(s sessionControl, progress func() (label string, remaining int)) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)

	keys := make(chan string)
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			keys <- sc.Text()
		}
	}()

	for {
		select {
		case <-ticker.C:
			s.Tick()
		case <-sigs:
			if err := s.Abandon(); err != nil && err != engine.ErrAlreadyEnded {
				return err
			}
		case k := <-keys:
			var err error
			switch k {
			case "p":
				err = s.Pause()
			case "r":
				err = s.Resume()
			case "c":
				err = s.CompleteEarly()
			case "a":
				err = s.Abandon()
			}
			if err != nil && err != engine.ErrAlreadyEnded {
				fmt.Fprintf(os.Stderr, "\n%v\n", err)
			}
		}

		if s.Status().Terminal() {
			break
		}
		label, remaining := progress()
		state := ""
		if s.Paused() {
			state = " [paused]"
		}
		fmt.Printf("\r%-40s %02d:%02d%s ", label, remaining/60, remaining%60, state)
	}

	fmt.Println()
	switch s.Status() {
	case store.SessionCompleted:
		fmt.Printf("Completed. Earned %d points.\n", s.PointsEarned())
	case store.SessionAbandoned:
		fmt.Printf("Abandoned. Earned %d points.\n", s.PointsEarned())
	}
	return nil
}

func init() {
	runCmd.AddCommand(runTaskCmd)
	runCmd.AddCommand(runPlanCmd)
	rootCmd.AddCommand(runCmd)
}
