package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/paysplit/internal/catalog"
	"github.com/theirongolddev/paysplit/internal/cli"
	"github.com/theirongolddev/paysplit/internal/model"
	"github.com/theirongolddev/paysplit/internal/store"
)

var (
	flagSubPercentage float64
	flagSubAmount     string
	flagSubPriority   int
)

var subcategoriesCmd = &cobra.Command{
	Use:     "subcategories",
	Aliases: []string{"sub", "subs"},
	Short:   "Maintain subcategories (refer to them as CATEGORY/SUBCATEGORY or by ID)",
}

var subcategoriesAddCmd = &cobra.Command{
	Use:   "add CATEGORY NAME",
	Short: "Add a subcategory to a category",
	Args:  cobra.ExactArgs(2),
	RunE:  runSubcategoriesAdd,
}

var subcategoriesRemoveCmd = &cobra.Command{
	Use:   "remove CATEGORY/SUBCATEGORY|ID",
	Short: "Remove a subcategory",
	Args:  cobra.ExactArgs(1),
	RunE:  runSubcategoriesRemove,
}

var subcategoriesSelectCmd = &cobra.Command{
	Use:   "select CATEGORY/SUBCATEGORY|ID...",
	Short: "Include subcategories in the budget",
	Args:  cobra.MinimumNArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setSelected(cmd, args, true) },
}

var subcategoriesDeselectCmd = &cobra.Command{
	Use:   "deselect CATEGORY/SUBCATEGORY|ID...",
	Short: "Exclude subcategories from the budget",
	Args:  cobra.MinimumNArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setSelected(cmd, args, false) },
}

var subcategoriesAmountCmd = &cobra.Command{
	Use:   "amount CATEGORY/SUBCATEGORY|ID AMOUNT",
	Short: "Set a subcategory amount (\"none\" clears it)",
	Args:  cobra.ExactArgs(2),
	RunE:  runAmount,
}

func init() {
	subcategoriesAddCmd.Flags().Float64Var(&flagSubPercentage, "percentage", 0, "Share of the category's recommended amount (0-100)")
	subcategoriesAddCmd.Flags().StringVar(&flagSubAmount, "amount", "", "Amount")
	subcategoriesAddCmd.Flags().IntVar(&flagSubPriority, "priority", 0, "Priority (default: after the last subcategory)")

	subcategoriesCmd.AddCommand(
		subcategoriesAddCmd,
		subcategoriesRemoveCmd,
		subcategoriesSelectCmd,
		subcategoriesDeselectCmd,
		subcategoriesAmountCmd,
	)
	rootCmd.AddCommand(subcategoriesCmd)
}

func runSubcategoriesAdd(cmd *cobra.Command, args []string) error {
	amount, err := cli.ParseOptionalAmount(flagSubAmount)
	if err != nil {
		return err
	}
	return withStore(func(st *store.Store) error {
		c, err := resolveCategory(cmd, st, args[0])
		if err != nil {
			return err
		}

		prio := flagSubPriority
		if !cmd.Flags().Changed("priority") {
			for _, s := range c.Subcategories {
				prio = max(prio, s.Priority)
			}
			prio++
		}

		s, err := st.AddSubcategory(cmd.Context(), c.ID, model.Subcategory{
			Name:                 args[1],
			Priority:             prio,
			Amount:               amount,
			AllocationPercentage: flagSubPercentage,
			Selected:             true,
		})
		if err != nil {
			return err
		}
		fmt.Printf("  Added %s/%s (%s of recommended)\n", c.Name, s.Name, cli.FormatPercent(s.AllocationPercentage/100))
		return nil
	})
}

func runSubcategoriesRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	planner, st, err := openPlanner()
	if err != nil {
		return err
	}
	defer st.Close()

	categories, err := st.Categories(ctx)
	if err != nil {
		return err
	}
	it, err := catalog.ResolveItem(categories, args[0])
	if err != nil {
		return err
	}
	sub, ok := it.(model.Subcategory)
	if !ok {
		return fmt.Errorf("%s is a category; use `paysplit categories delete`", it.Description())
	}

	removed, err := planner.RemoveSubcategory(ctx, sub.ID)
	if err != nil {
		return err
	}
	fmt.Printf("  Removed %s\n", removed.Name)
	return nil
}
