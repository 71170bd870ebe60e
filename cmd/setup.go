package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/paysplit/internal/config"
	"github.com/theirongolddev/paysplit/internal/store"
	"github.com/theirongolddev/paysplit/internal/tui"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Answer the onboarding questions (paycheck, cadence, categories)",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	// Start from the file so flag and env overrides are not persisted.
	fileCfg, err := config.Load()
	if err != nil {
		return err
	}

	return withStore(func(st *store.Store) error {
		categories, err := st.Categories(ctx)
		if err != nil {
			return err
		}

		vals := tui.DefaultSetupValues(fileCfg, categories)
		if err := tui.NewSetupForm(&vals, categories).Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				fmt.Println("  Setup cancelled. Nothing was saved.")
				return nil
			}
			return fmt.Errorf("setup form: %w", err)
		}

		updated, err := tui.ApplySetup(ctx, st, fileCfg, vals, time.Now())
		if err != nil {
			return err
		}
		if err := config.Save(updated); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}

		fmt.Println()
		fmt.Printf("  Saved to %s\n", config.ConfigPath())
		fmt.Printf("  %d categories selected. Run `paysplit` to see your budget.\n", len(updated.Onboarding.Categories))
		fmt.Println("  Run `paysplit setup` anytime to reconfigure.")
		fmt.Println()
		return nil
	})
}
