// Package config loads and saves the paysplit TOML configuration.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/theirongolddev/paysplit/internal/budget"
)

// Config holds all paysplit configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Budget     BudgetConfig     `toml:"budget"`
	Onboarding OnboardingConfig `toml:"onboarding"`
	Appearance AppearanceConfig `toml:"appearance"`
	Daemon     DaemonConfig     `toml:"daemon"`
	Events     EventsConfig     `toml:"events"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	DBPath string `toml:"db_path,omitempty"`
	Quiet  bool   `toml:"quiet"`
}

// BudgetConfig holds the income the engine budgets against.
type BudgetConfig struct {
	Paycheck float64 `toml:"paycheck"`
	Cadence  string  `toml:"cadence"`
}

// OnboardingConfig records the setup answers.
type OnboardingConfig struct {
	Completed   bool      `toml:"completed"`
	CompletedAt time.Time `toml:"completed_at,omitempty"`
	Types       []string  `toml:"types,omitempty"`
	Categories  []string  `toml:"categories,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// DaemonConfig holds the background daemon settings.
type DaemonConfig struct {
	Addr         string `toml:"addr"`
	IntervalSecs int    `toml:"interval_secs"`
	EventsBuffer int    `toml:"events_buffer"`
}

// Interval returns the poll interval.
func (d DaemonConfig) Interval() time.Duration {
	return time.Duration(d.IntervalSecs) * time.Second
}

// EventsConfig holds the optional AMQP event sink.
type EventsConfig struct {
	AMQPURL    string `toml:"amqp_url,omitempty"`
	Exchange   string `toml:"exchange,omitempty"`
	RoutingKey string `toml:"routing_key,omitempty"`
}

// Enabled reports whether events should be published to AMQP.
func (e EventsConfig) Enabled() bool { return e.AMQPURL != "" }

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Budget: BudgetConfig{
			Cadence: string(budget.BiWeekly),
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Daemon: DaemonConfig{
			Addr:         "127.0.0.1:8787",
			IntervalSecs: 10,
			EventsBuffer: 200,
		},
		Events: EventsConfig{
			Exchange:   "paysplit",
			RoutingKey: "budget.events",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "paysplit")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "paysplit")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DataDir returns the directory holding the catalog database.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "paysplit")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "paysplit")
}

// DBPath returns the configured catalog path or the default one.
func (c Config) DBPath() string {
	if c.General.DBPath != "" {
		return c.General.DBPath
	}
	return filepath.Join(DataDir(), "paysplit.db")
}

// Cadence parses the configured cadence.
func (c Config) Cadence() (budget.Cadence, error) {
	return budget.ParseCadence(c.Budget.Cadence)
}

// Load reads the config file, returning defaults if it doesn't exist. A .env
// file in the working directory and PAYSPLIT_* variables override the file.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	case !os.IsNotExist(err):
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	_ = godotenv.Load()
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("PAYSPLIT_DB"); v != "" {
		cfg.General.DBPath = v
	}
	if v := os.Getenv("PAYSPLIT_PAYCHECK"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("PAYSPLIT_PAYCHECK: %w", err)
		}
		cfg.Budget.Paycheck = f
	}
	if v := os.Getenv("PAYSPLIT_CADENCE"); v != "" {
		cfg.Budget.Cadence = v
	}
	if v := os.Getenv("PAYSPLIT_THEME"); v != "" {
		cfg.Appearance.Theme = v
	}
	if v := os.Getenv("PAYSPLIT_DAEMON_ADDR"); v != "" {
		cfg.Daemon.Addr = v
	}
	if v := os.Getenv("PAYSPLIT_AMQP_URL"); v != "" {
		cfg.Events.AMQPURL = v
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var problems []string

	if c.Budget.Paycheck < 0 {
		problems = append(problems, fmt.Sprintf("paycheck %.2f must not be negative", c.Budget.Paycheck))
	}
	if _, err := budget.ParseCadence(c.Budget.Cadence); err != nil {
		problems = append(problems, err.Error())
	}
	if c.Daemon.IntervalSecs < 1 {
		problems = append(problems, fmt.Sprintf("daemon interval %ds must be at least 1", c.Daemon.IntervalSecs))
	}
	if c.Daemon.EventsBuffer < 1 {
		problems = append(problems, fmt.Sprintf("daemon events buffer %d must be at least 1", c.Daemon.EventsBuffer))
	}
	if c.Events.AMQPURL != "" {
		u, err := url.Parse(c.Events.AMQPURL)
		switch {
		case err != nil:
			problems = append(problems, fmt.Sprintf("invalid AMQP URL: %v", err))
		case u.Scheme != "amqp" && u.Scheme != "amqps":
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme %q: must be amqp or amqps", u.Scheme))
		}
		if c.Events.Exchange == "" {
			problems = append(problems, "AMQP exchange is required when amqp_url is set")
		}
	}

	if len(problems) > 0 {
		return errors.New("invalid config: " + strings.Join(problems, "; "))
	}
	return nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
