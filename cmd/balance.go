package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/paysplit/internal/cli"
	"github.com/theirongolddev/paysplit/internal/model"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the surplus or deficit and what to do about it",
	RunE:  runBalance,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func runBalance(cmd *cobra.Command, _ []string) error {
	res, err := loadBudget(cmd.Context())
	if err != nil {
		return err
	}

	plan := res.Plan
	paycheck := res.Snapshot.Paycheck
	allocated := paycheck - plan.Balance

	fmt.Println()
	fmt.Println(cli.RenderTitle("BALANCE"))
	fmt.Println()
	fmt.Printf("  Paycheck:  %s\n", cli.FormatMoney(paycheck))
	fmt.Printf("  Allocated: %s  %s\n", cli.FormatMoney(allocated), cli.RenderUsageBar(allocated, paycheck, 30))
	fmt.Println()
	for _, t := range model.CategoryTypes {
		fmt.Println(cli.RenderHorizontalBar(t.Label(), res.Summary.Entered[t], paycheck, 30))
	}
	fmt.Println()

	switch {
	case plan.Deficit():
		fmt.Println(cli.RenderBanner(fmt.Sprintf("Over budget by %s", cli.FormatMoney(-plan.Balance)), true))
		if len(plan.Highlighted) == 0 {
			return nil
		}
		fmt.Println()
		rows := make([][]string, 0, len(plan.Highlighted))
		for _, c := range plan.Highlighted {
			rows = append(rows, []string{
				c.Name,
				c.Type.Label(),
				strconv.Itoa(c.Priority),
				cli.FormatMoney(res.Snapshot.Allocations[c.ID]),
			})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Trim these first (least important)",
			Headers: []string{"Category", "Type", "Prio", "Allocated"},
			Rows:    rows,
		}))

	case plan.Balance == 0:
		fmt.Println(cli.RenderBanner("Every dollar is allocated", false))

	default:
		fmt.Println(cli.RenderBanner(fmt.Sprintf("Surplus of %s", cli.FormatMoney(plan.Balance)), false))
		if len(plan.Additions) == 0 {
			fmt.Println(cli.Muted("\n  Every category is already selected."))
			return nil
		}
		fmt.Println()
		rows := make([][]string, 0, len(plan.Additions))
		for _, a := range plan.Additions {
			rows = append(rows, []string{
				a.Category.Name,
				a.Category.Type.Label(),
				strconv.Itoa(a.Category.Priority),
				cli.FormatMoney(a.Amount),
			})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Consider adding",
			Headers: []string{"Category", "Type", "Prio", "Suggested"},
			Rows:    rows,
		}))
		hint("\n  Add one with `paysplit categories select NAME`.\n")
	}
	return nil
}
