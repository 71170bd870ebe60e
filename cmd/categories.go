package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/paysplit/internal/catalog"
	"github.com/theirongolddev/paysplit/internal/cli"
	"github.com/theirongolddev/paysplit/internal/model"
	"github.com/theirongolddev/paysplit/internal/store"
)

var (
	flagCatAll      bool
	flagCatType     string
	flagCatPriority int
	flagCatAmount   string
	flagCatDue      string
	flagCatSelect   bool
	flagCatName     string
	flagCatPosition int
)

var categoriesCmd = &cobra.Command{
	Use:     "categories",
	Aliases: []string{"cat", "category"},
	Short:   "List and maintain budget categories",
	RunE:    runCategoriesList,
}

var categoriesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories (selected only unless --all)",
	Args:  cobra.NoArgs,
	RunE:  runCategoriesList,
}

var categoriesAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Add a category",
	Args:  cobra.ExactArgs(1),
	RunE:  runCategoriesAdd,
}

var categoriesDeleteCmd = &cobra.Command{
	Use:   "delete [NAME|ID]",
	Short: "Delete a category and its subcategories",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCategoriesDelete,
}

var categoriesUpdateCmd = &cobra.Command{
	Use:   "update NAME|ID",
	Short: "Rename a category or change its type or priority",
	Args:  cobra.ExactArgs(1),
	RunE:  runCategoriesUpdate,
}

var categoriesSelectCmd = &cobra.Command{
	Use:   "select NAME|ID...",
	Short: "Include categories or subcategories in the budget",
	Args:  cobra.MinimumNArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setSelected(cmd, args, true) },
}

var categoriesDeselectCmd = &cobra.Command{
	Use:   "deselect NAME|ID...",
	Short: "Exclude categories or subcategories from the budget",
	Args:  cobra.MinimumNArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setSelected(cmd, args, false) },
}

var categoriesAmountCmd = &cobra.Command{
	Use:   "amount NAME|ID AMOUNT",
	Short: "Set a debt, savings or subcategory amount (\"none\" clears it)",
	Args:  cobra.ExactArgs(2),
	RunE:  runAmount,
}

var categoriesDueCmd = &cobra.Command{
	Use:   "due NAME|ID YYYY-MM-DD",
	Short: "Set a debt's due date (\"none\" clears it)",
	Args:  cobra.ExactArgs(2),
	RunE:  runCategoriesDue,
}

func init() {
	categoriesCmd.PersistentFlags().BoolVarP(&flagCatAll, "all", "a", false, "Include unselected categories")

	categoriesAddCmd.Flags().StringVarP(&flagCatType, "type", "t", "", "Category type: debt, need, want or saving (required)")
	categoriesAddCmd.Flags().IntVar(&flagCatPriority, "priority", 0, "Priority, lower is more important (default: after the last of its type)")
	categoriesAddCmd.Flags().StringVar(&flagCatAmount, "amount", "", "Amount")
	categoriesAddCmd.Flags().StringVar(&flagCatDue, "due", "", "Due date for debts (YYYY-MM-DD)")
	categoriesAddCmd.Flags().BoolVar(&flagCatSelect, "select", true, "Select the category")
	_ = categoriesAddCmd.MarkFlagRequired("type")

	categoriesDeleteCmd.Flags().IntVar(&flagCatPosition, "position", -1, "Delete by list position (0-based, as shown by list --all)")

	categoriesUpdateCmd.Flags().StringVar(&flagCatName, "name", "", "New name")
	categoriesUpdateCmd.Flags().StringVarP(&flagCatType, "type", "t", "", "New type")
	categoriesUpdateCmd.Flags().IntVar(&flagCatPriority, "priority", 0, "New priority")

	categoriesCmd.AddCommand(
		categoriesListCmd,
		categoriesAddCmd,
		categoriesDeleteCmd,
		categoriesUpdateCmd,
		categoriesSelectCmd,
		categoriesDeselectCmd,
		categoriesAmountCmd,
		categoriesDueCmd,
	)
	rootCmd.AddCommand(categoriesCmd)
}

func runCategoriesList(cmd *cobra.Command, _ []string) error {
	return withStore(func(st *store.Store) error {
		categories, err := st.Categories(cmd.Context())
		if err != nil {
			return err
		}
		if len(categories) == 0 {
			fmt.Println("\n  The catalog is empty. Run `paysplit catalog seed` to load the defaults.")
			return nil
		}

		now := time.Now()
		var rows [][]string
		for i, c := range categories {
			if !flagCatAll && !c.Selected {
				continue
			}
			due := ""
			if c.Type == model.Debt {
				due = cli.FormatDue(c.DueDate, now)
			}
			rows = append(rows, []string{
				strconv.Itoa(i),
				c.Name,
				c.Type.Label(),
				strconv.Itoa(c.Priority),
				cli.FormatOptional(c.Amount),
				due,
				mark(c.Selected),
			})
			if !flagCatAll {
				continue
			}
			for _, s := range c.Subcategories {
				rows = append(rows, []string{
					"",
					"  " + s.Name,
					cli.FormatPercent(s.AllocationPercentage / 100),
					strconv.Itoa(s.Priority),
					cli.FormatOptional(s.Amount),
					"",
					mark(s.Selected),
				})
			}
		}

		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"#", "Category", "Type", "Prio", "Amount", "Due", "Sel"},
			Rows:    rows,
		}))
		if !flagCatAll {
			hint("\n  Showing selected categories. Use --all for the full catalog.\n")
		}
		return nil
	})
}

func mark(b bool) string {
	if b {
		return "✓"
	}
	return ""
}

func runCategoriesAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	typ, err := model.ParseCategoryType(flagCatType)
	if err != nil {
		return err
	}
	amount, err := cli.ParseOptionalAmount(flagCatAmount)
	if err != nil {
		return err
	}
	due, err := cli.ParseDate(flagCatDue)
	if err != nil {
		return err
	}
	if due != nil && typ != model.Debt {
		return errors.New("--due only applies to debt categories")
	}
	if amount != nil && catalog.DerivesAmount(typ) {
		return fmt.Errorf("--amount does not apply to %s categories: %w", typ, catalog.ErrDerivedAmount)
	}

	return withStore(func(st *store.Store) error {
		prio := flagCatPriority
		if !cmd.Flags().Changed("priority") {
			existing, err := st.Categories(ctx)
			if err != nil {
				return err
			}
			prio = nextPriority(existing, typ)
		}

		c, err := st.AddCategory(ctx, model.Category{
			Name:     args[0],
			Type:     typ,
			Priority: prio,
			Amount:   amount,
			DueDate:  due,
			Selected: flagCatSelect,
		})
		if err != nil {
			return err
		}
		fmt.Printf("  Added %s (%s, priority %d)\n", c.Name, c.Type.Label(), c.Priority)
		return nil
	})
}

func nextPriority(categories []model.Category, typ model.CategoryType) int {
	prio := 0
	for _, c := range categories {
		if c.Type == typ && c.Priority > prio {
			prio = c.Priority
		}
	}
	return prio + 1
}

func runCategoriesDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	byPosition := cmd.Flags().Changed("position")
	if byPosition == (len(args) == 1) {
		return errors.New("give either a category name/ID or --position")
	}

	planner, st, err := openPlanner()
	if err != nil {
		return err
	}
	defer st.Close()

	var removed model.Category
	if byPosition {
		removed, err = planner.DeleteCategoryAt(ctx, flagCatPosition)
	} else {
		var c model.Category
		c, err = resolveCategory(cmd, st, args[0])
		if err != nil {
			return err
		}
		removed, err = planner.DeleteCategory(ctx, c.ID)
	}
	if err != nil {
		return err
	}

	fmt.Printf("  Deleted %s", removed.Name)
	if n := len(removed.Subcategories); n > 0 {
		fmt.Printf(" and %d subcategories", n)
	}
	fmt.Println()
	return nil
}

func runCategoriesUpdate(cmd *cobra.Command, args []string) error {
	return withStore(func(st *store.Store) error {
		c, err := resolveCategory(cmd, st, args[0])
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		if !flags.Changed("name") && !flags.Changed("type") && !flags.Changed("priority") {
			return errors.New("nothing to update: pass --name, --type or --priority")
		}
		if flags.Changed("name") {
			c.Name = flagCatName
		}
		if flags.Changed("type") {
			typ, err := model.ParseCategoryType(flagCatType)
			if err != nil {
				return err
			}
			c.Type = typ
			if typ != model.Debt {
				c.DueDate = nil
			}
		}
		if flags.Changed("priority") {
			c.Priority = flagCatPriority
		}

		if err := st.UpdateCategory(cmd.Context(), c); err != nil {
			return err
		}
		fmt.Printf("  Updated %s\n", c.Name)
		return nil
	})
}

func setSelected(cmd *cobra.Command, refs []string, selected bool) error {
	ctx := cmd.Context()
	return withStore(func(st *store.Store) error {
		categories, err := st.Categories(ctx)
		if err != nil {
			return err
		}
		for _, ref := range refs {
			it, err := catalog.ResolveItem(categories, ref)
			if err != nil {
				return err
			}
			if err := st.SetSelected(ctx, it.ItemID(), selected); err != nil {
				return err
			}
			verb := "Selected"
			if !selected {
				verb = "Deselected"
			}
			fmt.Printf("  %s %s\n", verb, it.Description())
		}
		return nil
	})
}

func runAmount(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	amount, err := cli.ParseOptionalAmount(args[1])
	if err != nil {
		return err
	}
	return withStore(func(st *store.Store) error {
		categories, err := st.Categories(ctx)
		if err != nil {
			return err
		}
		it, err := catalog.ResolveItem(categories, args[0])
		if err != nil {
			return err
		}
		if err := st.UpdateAmount(ctx, it.ItemID(), amount); err != nil {
			return err
		}
		fmt.Printf("  %s: %s\n", it.Description(), cli.FormatOptional(amount))
		return nil
	})
}

func runCategoriesDue(cmd *cobra.Command, args []string) error {
	due, err := cli.ParseDate(args[1])
	if err != nil {
		return err
	}
	return withStore(func(st *store.Store) error {
		c, err := resolveCategory(cmd, st, args[0])
		if err != nil {
			return err
		}
		if c.Type != model.Debt {
			return fmt.Errorf("%s is a %s category; only debts have due dates", c.Name, c.Type)
		}
		if err := st.UpdateDueDate(cmd.Context(), c.ID, due); err != nil {
			return err
		}
		fmt.Printf("  %s due %s\n", c.Name, cli.FormatDue(due, time.Now()))
		return nil
	})
}

func resolveCategory(cmd *cobra.Command, cat catalog.Catalog, ref string) (model.Category, error) {
	categories, err := cat.Categories(cmd.Context())
	if err != nil {
		return model.Category{}, err
	}
	return catalog.Resolve(categories, ref)
}
