package tui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/paysplit/internal/budget"
	"github.com/theirongolddev/paysplit/internal/catalog"
	"github.com/theirongolddev/paysplit/internal/cli"
	"github.com/theirongolddev/paysplit/internal/config"
	"github.com/theirongolddev/paysplit/internal/model"
	"github.com/theirongolddev/paysplit/internal/tui/theme"
)

// SetupValues holds the onboarding answers bound to the setup form.
type SetupValues struct {
	Paycheck   string
	Cadence    string
	Types      []string
	Categories []string
	Theme      string
}

// DefaultSetupValues pre-fills the form from cfg and the catalog's current
// selection.
func DefaultSetupValues(cfg config.Config, categories []model.Category) SetupValues {
	vals := SetupValues{
		Cadence: cfg.Budget.Cadence,
		Theme:   cfg.Appearance.Theme,
		Types:   cfg.Onboarding.Types,
	}
	if cfg.Budget.Paycheck > 0 {
		vals.Paycheck = strconv.FormatFloat(cfg.Budget.Paycheck, 'f', 2, 64)
	}
	if len(vals.Types) == 0 {
		for _, t := range model.CategoryTypes {
			vals.Types = append(vals.Types, string(t))
		}
	}
	for _, c := range categories {
		if c.Selected {
			vals.Categories = append(vals.Categories, c.Name)
		}
	}
	return vals
}

// NewSetupForm builds the onboarding form. categories are offered for
// selection; an empty slice falls back to the built-in defaults.
func NewSetupForm(vals *SetupValues, categories []model.Category) *huh.Form {
	if len(categories) == 0 {
		categories = catalog.Defaults()
	}

	cadenceOpts := make([]huh.Option[string], 0, len(budget.Cadences))
	for _, c := range budget.Cadences {
		cadenceOpts = append(cadenceOpts, huh.NewOption(c.Label(), string(c)))
	}

	typeOpts := make([]huh.Option[string], 0, len(model.CategoryTypes))
	for _, t := range model.CategoryTypes {
		typeOpts = append(typeOpts, huh.NewOption(t.Label(), string(t)))
	}

	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, name := range theme.Names() {
		themeOpts = append(themeOpts, huh.NewOption(name, name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to paysplit").
				Description("A few questions to set up your budget.\nYou can change every answer later with `paysplit setup`."),
			huh.NewInput().
				Title("How much is each paycheck?").
				Placeholder("2,000.00").
				Value(&vals.Paycheck).
				Validate(func(s string) error {
					_, err := cli.ParseAmount(s)
					return err
				}),
			huh.NewSelect[string]().
				Title("How often are you paid?").
				Options(cadenceOpts...).
				Value(&vals.Cadence),
		),
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("What do you want to budget for?").
				Options(typeOpts...).
				Value(&vals.Types).
				Validate(func(v []string) error {
					if len(v) == 0 {
						return errors.New("pick at least one")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Which categories apply to you?").
				OptionsFunc(func() []huh.Option[string] {
					return categoryOptions(categories, vals.Types, vals.Categories)
				}, &vals.Types).
				Value(&vals.Categories).
				Height(16),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&vals.Theme),
		),
	).WithTheme(huh.ThemeCharm())
}

func categoryOptions(categories []model.Category, types, chosen []string) []huh.Option[string] {
	var opts []huh.Option[string]
	for _, c := range categories {
		if !slices.Contains(types, string(c.Type)) {
			continue
		}
		label := fmt.Sprintf("%s (%s)", c.Name, c.Type.Label())
		opts = append(opts, huh.NewOption(label, c.Name).Selected(containsName(chosen, c.Name)))
	}
	return opts
}

// ApplySetup writes the answers into the catalog and returns the updated
// config. The catalog is seeded first so every offered category exists. The
// caller persists the config.
func ApplySetup(ctx context.Context, cat catalog.Catalog, cfg config.Config, vals SetupValues, now time.Time) (config.Config, error) {
	paycheck, err := cli.ParseAmount(vals.Paycheck)
	if err != nil {
		return cfg, fmt.Errorf("paycheck: %w", err)
	}
	cadence, err := budget.ParseCadence(vals.Cadence)
	if err != nil {
		return cfg, err
	}

	if _, err := catalog.Seed(ctx, cat); err != nil {
		return cfg, err
	}
	categories, err := cat.Categories(ctx)
	if err != nil {
		return cfg, err
	}

	var chosen []string
	for _, c := range categories {
		want := slices.Contains(vals.Types, string(c.Type)) && containsName(vals.Categories, c.Name)
		if want {
			chosen = append(chosen, c.Name)
		}
		if c.Selected == want {
			continue
		}
		if err := cat.SetSelected(ctx, c.ID, want); err != nil {
			return cfg, fmt.Errorf("selecting %s: %w", c.Name, err)
		}
	}

	cfg.Budget.Paycheck = paycheck
	cfg.Budget.Cadence = string(cadence)
	cfg.Onboarding = config.OnboardingConfig{
		Completed:   true,
		CompletedAt: now,
		Types:       vals.Types,
		Categories:  chosen,
	}
	if theme.Valid(vals.Theme) {
		cfg.Appearance.Theme = vals.Theme
	}
	return cfg, nil
}

func containsName(list []string, name string) bool {
	for _, s := range list {
		if catalog.SameName(s, name) {
			return true
		}
	}
	return false
}
