package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/paysplit/internal/catalog"
	"github.com/theirongolddev/paysplit/internal/store"
)

var (
	flagExportOut     string
	flagImportReplace bool
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Export, import or seed the category catalog",
}

var catalogExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the catalog as TOML",
	Args:  cobra.NoArgs,
	RunE:  runCatalogExport,
}

var catalogImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Load categories from a TOML file (\"-\" reads stdin)",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogImport,
}

var catalogSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Add the built-in categories that are missing",
	Args:  cobra.NoArgs,
	RunE:  runCatalogSeed,
}

func init() {
	catalogExportCmd.Flags().StringVarP(&flagExportOut, "out", "o", "-", "Output file (\"-\" for stdout)")
	catalogImportCmd.Flags().BoolVar(&flagImportReplace, "replace", false, "Replace categories that already exist by name")

	catalogCmd.AddCommand(catalogExportCmd, catalogImportCmd, catalogSeedCmd)
	rootCmd.AddCommand(catalogCmd)
}

func runCatalogExport(cmd *cobra.Command, _ []string) error {
	return withStore(func(st *store.Store) error {
		var w io.Writer = os.Stdout
		if flagExportOut != "-" {
			f, err := os.Create(flagExportOut)
			if err != nil {
				return fmt.Errorf("creating %s: %w", flagExportOut, err)
			}
			defer f.Close()
			w = f
		}
		if err := catalog.Export(cmd.Context(), st, w); err != nil {
			return err
		}
		if flagExportOut != "-" {
			hint("  Wrote %s\n", flagExportOut)
		}
		return nil
	})
}

func runCatalogImport(cmd *cobra.Command, args []string) error {
	var r io.Reader = os.Stdin
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening %s: %w", args[0], err)
		}
		defer f.Close()
		r = f
	}

	return withStore(func(st *store.Store) error {
		res, err := catalog.Import(cmd.Context(), st, r, flagImportReplace)
		if err != nil {
			return err
		}
		fmt.Printf("  Imported: %d added, %d replaced, %d skipped\n", res.Added, res.Replaced, res.Skipped)
		return nil
	})
}

func runCatalogSeed(cmd *cobra.Command, _ []string) error {
	return withStore(func(st *store.Store) error {
		n, err := catalog.Seed(cmd.Context(), st)
		if err != nil {
			return err
		}
		if n == 0 {
			fmt.Println("  Every built-in category is already in the catalog.")
			return nil
		}
		fmt.Printf("  Added %d categories. Select the ones that apply with `paysplit categories select`.\n", n)
		return nil
	})
}
