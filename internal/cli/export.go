package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskward/taskward/internal/export"
)

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export <path>",
	Short: "Export the audit trail and session history",
	Long: `Write the full point-transaction trail and session history to a file.
CSV exports write two files: <path>.ledger.csv and <path>.sessions.csv;
JSON writes a single document at <path>.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireParent(); err != nil {
			return err
		}
		txs, err := app.ledger.History(0)
		if err != nil {
			return err
		}
		// Oldest first reads better in an export.
		for i, j := 0, len(txs)-1; i < j; i, j = i+1, j-1 {
			txs[i], txs[j] = txs[j], txs[i]
		}
		sessions, err := app.store.ListSessions(0)
		if err != nil {
			return err
		}

		switch exportFormat {
		case "csv":
			if err := export.LedgerToCSV(txs, args[0]+".ledger.csv"); err != nil {
				return err
			}
			if err := export.SessionsToCSV(sessions, args[0]+".sessions.csv"); err != nil {
				return err
			}
		case "json":
			if err := export.ToJSON(txs, sessions, args[0]); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown format %q (csv or json)", exportFormat)
		}
		fmt.Printf("Exported %d transactions, %d sessions\n", len(txs), len(sessions))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "export format: csv or json")
	parentCmd.AddCommand(exportCmd)
}
