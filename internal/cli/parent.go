package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var parentPasscode string

var parentCmd = &cobra.Command{
	Use:   "parent",
	Short: "Parent administration (passcode required)",
	Long: `Administrative commands gated by the parent passcode: tasks, plans,
rewards, point adjustments, app restriction and credential management.
Pass the passcode with --passcode; repeated failures trigger a lockout.`,
}

// requireParent verifies the passcode before any administrative action runs.
func requireParent() error {
	has, err := app.guard.HasCredential()
	if err != nil {
		return err
	}
	if !has {
		return errors.New("no parent passcode set; run 'taskward parent init' first")
	}
	if parentPasscode == "" {
		return errors.New("parent passcode required (--passcode)")
	}
	ok, err := app.guard.Verify(parentPasscode)
	if err != nil {
		return err
	}
	if !ok {
		if until, locked, lerr := app.guard.LockedUntil(); lerr == nil && locked {
			return fmt.Errorf("too many failed attempts; locked until %s", until.Local().Format("15:04:05"))
		}
		return errors.New("wrong passcode")
	}
	return nil
}

var (
	initQuestion string
	initAnswer   string
)

var parentInitCmd = &cobra.Command{
	Use:   "init <passcode>",
	Short: "Set the parent passcode and optional recovery question",
	Long: `Set the 6-digit parent passcode. If a passcode already exists it must
be supplied with --passcode before it can be replaced. A recovery
question and answer can be registered at the same time.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		has, err := app.guard.HasCredential()
		if err != nil {
			return err
		}
		if has {
			if err := requireParent(); err != nil {
				return err
			}
		}
		if err := app.guard.SetCredential(args[0]); err != nil {
			return err
		}
		if initQuestion != "" || initAnswer != "" {
			if err := app.guard.SetRecovery(initQuestion, initAnswer); err != nil {
				return err
			}
		}
		fmt.Println("Parent passcode set.")
		return nil
	},
}

var recoverNewPasscode string

var parentRecoverCmd = &cobra.Command{
	Use:   "recover <answer>",
	Short: "Recover access with the security answer",
	Long: `Answer the registered security question to clear any lockout and set a
new passcode. Answers are compared case-insensitively with surrounding
whitespace ignored.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ok, err := app.guard.VerifyRecoveryAnswer(args[0])
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("wrong answer")
		}
		if recoverNewPasscode != "" {
			if err := app.guard.SetCredential(recoverNewPasscode); err != nil {
				return err
			}
			fmt.Println("Passcode replaced.")
			return nil
		}
		fmt.Println("Lockout cleared.")
		return nil
	},
}

var parentStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show guard status",
	RunE: func(cmd *cobra.Command, args []string) error {
		has, err := app.guard.HasCredential()
		if err != nil {
			return err
		}
		fmt.Printf("Passcode set:   %v\n", has)
		if q, ok, err := app.guard.Question(); err != nil {
			return err
		} else if ok {
			fmt.Printf("Recovery:       %s\n", q)
		}
		if until, locked, err := app.guard.LockedUntil(); err != nil {
			return err
		} else if locked {
			fmt.Printf("Locked until:   %s\n", until.Local().Format("15:04:05"))
		}
		return nil
	},
}

var adjustReason string

var parentAdjustCmd = &cobra.Command{
	Use:   "adjust <delta>",
	Short: "Adjust the point balance by a signed amount",
	Long: `Apply a manual point correction. Negative deltas never take the balance
below zero; the recorded transaction reflects the clamped amount.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireParent(); err != nil {
			return err
		}
		var delta int
		if _, err := fmt.Sscanf(args[0], "%d", &delta); err != nil {
			return fmt.Errorf("parse delta %q: %w", args[0], err)
		}
		balance, err := app.ledger.Adjust(delta, adjustReason)
		if err != nil {
			return err
		}
		fmt.Printf("Balance: %d\n", balance)
		return nil
	},
}

var parentRestrictCmd = &cobra.Command{
	Use:   "restrict [app-id]...",
	Short: "Set the permanently blocked app list",
	Long: `Replace the always-blocked app set. With no arguments the permanent
restriction is cleared. Requires platform authorization; without it the
command logs a warning and changes nothing on the device.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireParent(); err != nil {
			return err
		}
		if err := app.shield.ApplyPermanentRestriction(args); err != nil {
			return err
		}
		settings, err := app.store.GetSettings()
		if err != nil {
			return err
		}
		settings.BlockedApps = args
		if err := app.store.SaveSettings(settings); err != nil {
			return err
		}
		fmt.Printf("Blocked apps: %d\n", len(args))
		return nil
	},
}

func init() {
	parentCmd.PersistentFlags().StringVar(&parentPasscode, "passcode", "", "parent passcode")

	parentInitCmd.Flags().StringVar(&initQuestion, "question", "", "recovery security question")
	parentInitCmd.Flags().StringVar(&initAnswer, "answer", "", "recovery answer")
	parentRecoverCmd.Flags().StringVar(&recoverNewPasscode, "new-passcode", "", "replacement 6-digit passcode")
	parentAdjustCmd.Flags().StringVar(&adjustReason, "reason", "manual adjustment", "description recorded in the ledger")

	parentCmd.AddCommand(parentInitCmd)
	parentCmd.AddCommand(parentRecoverCmd)
	parentCmd.AddCommand(parentStatusCmd)
	parentCmd.AddCommand(parentAdjustCmd)
	parentCmd.AddCommand(parentRestrictCmd)
	rootCmd.AddCommand(parentCmd)
}
