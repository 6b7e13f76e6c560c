package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskward/taskward/internal/store"
)

var rewardCmd = &cobra.Command{
	Use:   "reward",
	Short: "Manage redeemable rewards",
}

var (
	rewardAddCost     int
	rewardAddKind     string
	rewardAddDesc     string
	rewardAddMinutes  int
	rewardAddApps     []string
	rewardAddIcon     string
	rewardAddDisabled bool
)

var rewardAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a reward",
	Long: `Create a reward the child can redeem with points. Game-time rewards
open a timed window during which the unlock apps are usable; custom
rewards are fulfilled by the parent outside the device.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireParent(); err != nil {
			return err
		}
		kind, err := store.ParseRewardKind(rewardAddKind)
		if err != nil {
			return err
		}
		r := store.Reward{
			Name:        args[0],
			Description: rewardAddDesc,
			PointsCost:  rewardAddCost,
			Kind:        kind,
			UnlockApps:  rewardAddApps,
			Icon:        rewardAddIcon,
			Enabled:     !rewardAddDisabled,
		}
		if kind == store.RewardGameTime {
			minutes := rewardAddMinutes
			r.GameTimeMinutes = &minutes
		}
		reward, err := app.store.CreateReward(&r)
		if err != nil {
			return err
		}
		fmt.Printf("Created reward %d: %s (%d pts)\n", reward.ID, reward.Name, reward.PointsCost)
		return nil
	},
}

var rewardListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rewards",
	RunE: func(cmd *cobra.Command, args []string) error {
		rewards, err := app.store.ListRewards(false)
		if err != nil {
			return err
		}
		for _, r := range rewards {
			state := ""
			if !r.Enabled {
				state = " (disabled)"
			}
			extra := ""
			if r.Kind == store.RewardGameTime && r.GameTimeMinutes != nil {
				extra = fmt.Sprintf("  %d min game time", *r.GameTimeMinutes)
			}
			fmt.Printf("%4d %-24s %4d pts  %s%s%s\n", r.ID, r.Name, r.PointsCost, r.Kind, extra, state)
		}
		return nil
	},
}

var rewardRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a reward",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireParent(); err != nil {
			return err
		}
		id, err := parseID(args[0], "reward")
		if err != nil {
			return err
		}
		return app.store.DeleteReward(id)
	},
}

var redeemCmd = &cobra.Command{
	Use:   "redeem <reward-id>",
	Short: "Spend points on a reward",
	Long: `Redeem a reward. The spend fails without recording anything when the
balance is short. A game-time reward starts its unlock window
immediately.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "reward")
		if err != nil {
			return err
		}
		ok, err := app.ledger.Redeem(id)
		if err != nil {
			return err
		}
		if !ok {
			balance, berr := app.ledger.Balance()
			if berr != nil {
				return berr
			}
			return fmt.Errorf("not enough points (balance %d)", balance)
		}
		balance, err := app.ledger.Balance()
		if err != nil {
			return err
		}
		fmt.Printf("Redeemed. Balance: %d\n", balance)
		return nil
	},
}

func init() {
	rewardAddCmd.Flags().IntVar(&rewardAddCost, "cost", 50, "points cost")
	rewardAddCmd.Flags().StringVar(&rewardAddKind, "kind", "custom", "reward kind: game_time or custom")
	rewardAddCmd.Flags().StringVar(&rewardAddDesc, "desc", "", "reward description")
	rewardAddCmd.Flags().IntVar(&rewardAddMinutes, "minutes", 30, "game-time minutes (game_time only)")
	rewardAddCmd.Flags().StringSliceVar(&rewardAddApps, "apps", nil, "apps unlocked during game time")
	rewardAddCmd.Flags().StringVar(&rewardAddIcon, "icon", "", "display icon name")
	rewardAddCmd.Flags().BoolVar(&rewardAddDisabled, "disabled", false, "create disabled")

	rewardCmd.AddCommand(rewardAddCmd)
	rewardCmd.AddCommand(rewardListCmd)
	rewardCmd.AddCommand(rewardRmCmd)
	parentCmd.AddCommand(rewardCmd)
	rootCmd.AddCommand(redeemCmd)
}
