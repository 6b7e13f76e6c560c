// Package cli wires the taskward commands: parent administration behind the
// passcode guard, child-facing session execution, and the audit surfaces.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/taskward/taskward/internal/catalog"
	"github.com/taskward/taskward/internal/clock"
	"github.com/taskward/taskward/internal/config"
	"github.com/taskward/taskward/internal/engine"
	"github.com/taskward/taskward/internal/guard"
	"github.com/taskward/taskward/internal/ledger"
	"github.com/taskward/taskward/internal/shield"
	"github.com/taskward/taskward/internal/store"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var configPath string

// app holds the wired components for the lifetime of one command.
var app struct {
	cfg     *config.Config
	log     *zap.Logger
	store   *store.Store
	guard   *guard.Guard
	catalog *catalog.Catalog
	ledger  *ledger.Ledger
	shield  *shield.Shield
	engine  *engine.Engine
}

var rootCmd = &cobra.Command{
	Use:   "taskward",
	Short: "Task, reward and screen-time engine for supervised tablets",
	Long: `Taskward runs timed study and rest tasks, pays out points into an
append-only ledger, sequences multi-task plans with completion bonuses,
and gates all administration behind a parent passcode with lockout.`,
	SilenceUsage:      true,
	PersistentPreRunE: initApp,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeApp()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("taskward %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func initApp(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := buildLogger(cfg.Logging.Level)
	if err != nil {
		return err
	}

	dbPath := cfg.Database.Path
	if dbPath == "" {
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return err
		}
	}
	st, err := store.New(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	clk := clock.System()
	app.cfg = cfg
	app.log = log
	app.store = st
	app.guard = guard.New(st, clk, cfg.Guard.MaxAttempts, cfg.Guard.LockoutDuration())
	app.catalog = catalog.New(st)
	app.ledger = ledger.New(st, clk, log)
	app.shield = shield.New(log, cfg.Shield.Authorized)
	app.engine = engine.New(st, app.catalog, app.ledger, app.shield, clk, log)
	return nil
}

func closeApp() error {
	if app.log != nil {
		_ = app.log.Sync()
	}
	if app.store != nil {
		return app.store.Close()
	}
	return nil
}

func buildLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	zc := zap.NewProductionConfig()
	zc.Level = lvl
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/taskward/config.yaml)")
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
