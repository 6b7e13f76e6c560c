package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the point balance and streak",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := app.store.GetSettings()
		if err != nil {
			return err
		}
		fmt.Printf("Points: %d\n", settings.PointsBalance)
		fmt.Printf("Streak: %d\n", settings.StreakCount)
		left, err := app.ledger.ExpireGameTime()
		if err != nil {
			return err
		}
		if left > 0 {
			fmt.Printf("Game time: %d:%02d remaining\n", left/60, left%60)
		}
		return nil
	},
}

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent point transactions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		txs, err := app.ledger.History(historyLimit)
		if err != nil {
			return err
		}
		for _, t := range txs {
			fmt.Printf("%s %-6s %+5d -> %5d  %s\n",
				t.CreatedAt.Local().Format(time.DateTime), t.Kind, t.Amount, t.BalanceAfter, t.Description)
		}
		return nil
	},
}

var sessionsLimit int

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Show recent session history",
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, err := app.store.ListSessions(sessionsLimit)
		if err != nil {
			return err
		}
		for _, s := range sessions {
			ref := "-"
			if s.TaskID != nil {
				ref = fmt.Sprintf("task %d", *s.TaskID)
			} else if s.PlanID != nil {
				ref = fmt.Sprintf("plan %d", *s.PlanID)
			}
			started := "-"
			if s.StartedAt != nil {
				started = s.StartedAt.Local().Format(time.DateTime)
			}
			fmt.Printf("%4d %-10s %-11s %s  %4ds %4d pts\n",
				s.ID, ref, s.Status, started, s.ActualSeconds, s.PointsEarned)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum rows")
	sessionsCmd.Flags().IntVar(&sessionsLimit, "limit", 20, "maximum rows")

	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(sessionsCmd)
}
