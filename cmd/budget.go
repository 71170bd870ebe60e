package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/paysplit/internal/cli"
	"github.com/theirongolddev/paysplit/internal/model"
	"github.com/theirongolddev/paysplit/internal/pipeline"
)

var flagView string

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Show the entered, recommended or perfect budget",
	RunE:  runBudget,
}

func init() {
	budgetCmd.Flags().StringVar(&flagView, "view", "entered", "Budget view: entered, recommended or perfect")
	rootCmd.AddCommand(budgetCmd)
}

func runBudget(cmd *cobra.Command, _ []string) error {
	view, err := pipeline.ParseView(flagView)
	if err != nil {
		return err
	}

	res, err := loadBudget(cmd.Context())
	if err != nil {
		return err
	}

	if len(res.Selected()) == 0 {
		fmt.Println("\n  No categories selected.")
		fmt.Println("  Select some with `paysplit categories select NAME`.")
		return nil
	}

	snap := res.Snapshot
	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("%s  %s %s",
		strings.ToUpper(view.Title()), cli.FormatMoney(snap.Paycheck), snap.Cadence.Label())))
	fmt.Println()

	fmt.Print(cli.RenderTable(budgetTable(res, view, time.Now())))
	fmt.Println()
	fmt.Print(cli.RenderTable(totalsTable(res, view)))

	fmt.Printf("\n  Monthly income: %s\n", cli.FormatMoney(snap.MonthlyIncome))
	return nil
}

func budgetTable(res *pipeline.Result, view pipeline.View, now time.Time) cli.Table {
	due := make(map[string]*time.Time)
	for _, c := range res.Categories {
		if c.Type == model.Debt {
			due[c.ID] = c.DueDate
		}
	}

	var (
		rows     [][]string
		total    []float64
		lastType model.CategoryType
	)
	for i, r := range pipeline.BuildRows(res) {
		if i > 0 && !r.Sub && r.Type != lastType {
			rows = append(rows, []string{"---"})
		}
		lastType = r.Type

		name := r.Name
		if r.Sub {
			name = "  " + name
		} else {
			total = append(total, r.Value(view))
		}

		note := ""
		if d, ok := due[r.ID]; ok && view == pipeline.ViewEntered {
			note = "due " + cli.FormatDue(d, now)
		}
		if r.Highlighted && view == pipeline.ViewEntered {
			note = strings.TrimSpace(note + " trim")
		}

		prio := ""
		if !r.Sub {
			prio = strconv.Itoa(r.Priority)
		}
		rows = append(rows, []string{name, r.Type.Label(), prio, cli.FormatMoney(r.Value(view)), note})
	}
	rows = append(rows, []string{"---"})
	rows = append(rows, []string{"Total", "", "", cli.FormatMoney(cli.SumMoney(total...)), ""})

	return cli.Table{
		Headers: []string{"Category", "Type", "Prio", "Amount", "Note"},
		Rows:    rows,
	}
}

func totalsTable(res *pipeline.Result, view pipeline.View) cli.Table {
	totals := view.Totals(res.Summary)
	paycheck := res.Snapshot.Paycheck

	var rows [][]string
	for _, t := range model.CategoryTypes {
		v := totals[t]
		share := "-"
		if paycheck > 0 {
			share = cli.FormatPercent(v / paycheck)
		}
		rows = append(rows, []string{t.Label(), cli.FormatMoney(v), share})
	}
	rows = append(rows, []string{"---"})
	rows = append(rows, []string{"Total", cli.FormatMoney(totals.Total()), cli.FormatPercent(safeRatio(totals.Total(), paycheck))})

	return cli.Table{
		Title:   "By type",
		Headers: []string{"Type", "Amount", "Of paycheck"},
		Rows:    rows,
	}
}

func safeRatio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
