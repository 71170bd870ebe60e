// Package cmd implements the paysplit CLI commands.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/paysplit/internal/budget"
	"github.com/theirongolddev/paysplit/internal/cli"
	"github.com/theirongolddev/paysplit/internal/config"
	"github.com/theirongolddev/paysplit/internal/logging"
	"github.com/theirongolddev/paysplit/internal/pipeline"
	"github.com/theirongolddev/paysplit/internal/store"
)

var (
	flagDB        string
	flagPaycheck  string
	flagCadence   string
	flagQuiet     bool
	flagLogLevel  string
	flagLogFormat string
)

// cfg is the effective configuration: file, then .env and PAYSPLIT_*, then
// flags.
var cfg = config.DefaultConfig()

var rootCmd = &cobra.Command{
	Use:               "paysplit",
	Short:             "Paycheck budget planner",
	Long:              "Split each paycheck across debts, needs, wants and savings, and compare it with recommended and 50/30/20 budgets.",
	SilenceUsage:      true,
	PersistentPreRunE: loadSettings,
	RunE:              runBudget,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "Catalog database path (default $XDG_DATA_HOME/paysplit/paysplit.db)")
	rootCmd.PersistentFlags().StringVar(&flagPaycheck, "paycheck", "", "Override the paycheck amount")
	rootCmd.PersistentFlags().StringVar(&flagCadence, "cadence", "", "Override the pay cadence (weekly, bi-weekly, semi-monthly, monthly)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress hints and progress output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")
	rootCmd.Flags().StringVar(&flagView, "view", "entered", "Budget view: entered, recommended or perfect")
}

func loadSettings(cmd *cobra.Command, _ []string) error {
	if err := logging.Setup(flagLogLevel, flagLogFormat); err != nil {
		return err
	}

	loaded, err := config.Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		loaded.General.DBPath = flagDB
	}
	if flags.Changed("paycheck") {
		amount, err := cli.ParseAmount(flagPaycheck)
		if err != nil {
			return fmt.Errorf("--paycheck: %w", err)
		}
		loaded.Budget.Paycheck = amount
	}
	if flags.Changed("cadence") {
		loaded.Budget.Cadence = flagCadence
	}
	if flags.Changed("quiet") {
		loaded.General.Quiet = flagQuiet
	}

	if err := loaded.Validate(); err != nil {
		return err
	}
	cfg = loaded
	return nil
}

// hint prints to stderr unless quiet.
func hint(format string, args ...any) {
	if cfg.General.Quiet {
		return
	}
	fmt.Fprintf(os.Stderr, format, args...)
}

// openPlanner opens the catalog database and wires an engine over it with
// the configured paycheck and cadence. The caller must close the store.
func openPlanner() (*pipeline.Planner, *store.Store, error) {
	st, err := store.Open(cfg.DBPath())
	if err != nil {
		return nil, nil, fmt.Errorf("opening catalog: %w", err)
	}
	cadence, err := cfg.Cadence()
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	engine := budget.New(cfg.Budget.Paycheck, cadence)
	return pipeline.NewPlanner(st, engine), st, nil
}

// loadBudget opens the catalog and runs one full computation.
func loadBudget(ctx context.Context) (*pipeline.Result, error) {
	planner, st, err := openPlanner()
	if err != nil {
		return nil, err
	}
	defer st.Close()

	res, err := planner.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	if len(res.Categories) == 0 {
		hint("\n  The catalog is empty. Run `paysplit setup` or `paysplit catalog seed`.\n")
	} else if cfg.Budget.Paycheck == 0 {
		hint("\n  No paycheck configured. Run `paysplit setup` or pass --paycheck.\n")
	}
	return res, nil
}

// withStore runs fn against the catalog database.
func withStore(fn func(st *store.Store) error) error {
	st, err := store.Open(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("opening catalog: %w", err)
	}
	defer st.Close()
	return fn(st)
}
