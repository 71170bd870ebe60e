package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/paysplit/internal/amqp"
	"github.com/theirongolddev/paysplit/internal/cli"
	"github.com/theirongolddev/paysplit/internal/config"
	"github.com/theirongolddev/paysplit/internal/daemon"
)

// daemonProcess is what a running daemon writes to its state file. The file
// exists exactly as long as the daemon runs, so it also keeps a second daemon
// from starting against the same catalog.
type daemonProcess struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
	DBPath    string    `json:"db_path"`
}

var (
	flagDaemonAddr         string
	flagDaemonInterval     time.Duration
	flagDaemonDetach       bool
	flagDaemonStateFile    string
	flagDaemonLogFile      string
	flagDaemonEventsBuffer int
	flagDaemonChild        bool
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Watch the catalog and serve the budget over HTTP/SSE",
	RunE:  runDaemon,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running daemon and its latest budget snapshot",
	RunE:  runDaemonStatus,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	RunE:  runDaemonStop,
}

func init() {
	pf := daemonCmd.PersistentFlags()
	pf.StringVar(&flagDaemonAddr, "addr", "", "HTTP listen address (default from config)")
	pf.DurationVar(&flagDaemonInterval, "interval", 0, "Catalog poll interval (default from config)")
	pf.StringVar(&flagDaemonStateFile, "state-file", filepath.Join(config.DataDir(), "paysplitd.json"), "Where the running daemon records its pid and address")
	pf.StringVar(&flagDaemonLogFile, "log-file", filepath.Join(config.DataDir(), "paysplitd.log"), "Log file when detached")
	pf.IntVar(&flagDaemonEventsBuffer, "events-buffer", 0, "Events kept for /v1/events (default from config)")

	daemonCmd.Flags().BoolVar(&flagDaemonDetach, "detach", false, "Run in the background")
	daemonCmd.Flags().BoolVar(&flagDaemonChild, "child", false, "Internal: set on the detached process")
	_ = daemonCmd.Flags().MarkHidden("child")

	daemonCmd.AddCommand(daemonStatusCmd, daemonStopCmd)
	rootCmd.AddCommand(daemonCmd)
}

// daemonSettings fills unset daemon flags from the config.
func daemonSettings() {
	if flagDaemonAddr == "" {
		flagDaemonAddr = cfg.Daemon.Addr
	}
	if flagDaemonInterval <= 0 {
		flagDaemonInterval = cfg.Daemon.Interval()
	}
	if flagDaemonEventsBuffer <= 0 {
		flagDaemonEventsBuffer = cfg.Daemon.EventsBuffer
	}
}

func runDaemon(_ *cobra.Command, _ []string) error {
	daemonSettings()
	if _, running := liveDaemon(flagDaemonStateFile); running {
		return fmt.Errorf("daemon already running (see %s)", flagDaemonStateFile)
	}
	if flagDaemonDetach && !flagDaemonChild {
		return detachDaemon()
	}
	return serveDaemon()
}

// childArgs rebuilds the command line for the detached process from the
// resolved settings, so the child never sees --detach.
func childArgs() []string {
	args := []string{
		"daemon", "--child",
		"--addr", flagDaemonAddr,
		"--interval", flagDaemonInterval.String(),
		"--events-buffer", strconv.Itoa(flagDaemonEventsBuffer),
		"--state-file", flagDaemonStateFile,
		"--db", cfg.DBPath(),
		"--log-level", flagLogLevel,
		"--log-format", flagLogFormat,
	}
	if flagPaycheck != "" {
		args = append(args, "--paycheck", flagPaycheck)
	}
	if flagCadence != "" {
		args = append(args, "--cadence", flagCadence)
	}
	return args
}

func detachDaemon() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(flagDaemonLogFile), 0o750); err != nil {
		return err
	}
	//nolint:gosec // log path is configured by the local user
	logf, err := os.OpenFile(flagDaemonLogFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open daemon log: %w", err)
	}
	defer func() { _ = logf.Close() }()

	child := exec.Command(exe, childArgs()...) //nolint:gosec // re-executes this binary
	child.Stdout, child.Stderr = logf, logf
	if err := child.Start(); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	fmt.Printf("  Started daemon (pid %d) on http://%s\n", child.Process.Pid, flagDaemonAddr)
	fmt.Printf("  Log: %s\n", flagDaemonLogFile)
	return nil
}

func serveDaemon() error {
	planner, st, err := openPlanner()
	if err != nil {
		return err
	}
	defer st.Close()

	var opts []daemon.Option
	if cfg.Events.Enabled() {
		pub, err := amqp.Dial(cfg.Events.AMQPURL, cfg.Events.Exchange, cfg.Events.RoutingKey)
		if err != nil {
			return fmt.Errorf("events sink: %w", err)
		}
		defer func() { _ = pub.Close() }()
		opts = append(opts, daemon.WithSink(pub))
		fmt.Printf("  Publishing events to exchange %q\n", cfg.Events.Exchange)
	}

	svc := daemon.New(daemon.Config{
		DBPath:       cfg.DBPath(),
		Interval:     flagDaemonInterval,
		Addr:         flagDaemonAddr,
		EventsBuffer: flagDaemonEventsBuffer,
	}, planner, opts...)

	proc := daemonProcess{PID: os.Getpid(), Addr: flagDaemonAddr, StartedAt: time.Now(), DBPath: cfg.DBPath()}
	if err := writeDaemonState(flagDaemonStateFile, proc); err != nil {
		return err
	}
	defer func() { _ = os.Remove(flagDaemonStateFile) }()

	fmt.Printf("  Budget API on http://%s, polling %s every %s\n", flagDaemonAddr, cfg.DBPath(), flagDaemonInterval)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runDaemonStatus(_ *cobra.Command, _ []string) error {
	daemonSettings()
	proc, running := liveDaemon(flagDaemonStateFile)
	if !running {
		fmt.Println("  Daemon: not running")
		return nil
	}
	fmt.Printf("  Daemon: pid %d, up since %s\n", proc.PID, proc.StartedAt.Local().Format(time.RFC3339))
	fmt.Printf("  API: http://%s\n", proc.Addr)

	st, err := fetchDaemonStatus(proc.Addr)
	if err != nil {
		fmt.Printf("  API status: %v\n", err)
		return nil
	}

	lastPoll := "pending"
	if !st.LastPollAt.IsZero() {
		lastPoll = st.LastPollAt.Local().Format(time.RFC3339)
	}
	fmt.Printf("  Last poll: %s (%d total)\n", lastPoll, st.PollCount)
	fmt.Printf("  Catalog: %s\n", st.DBPath)
	fmt.Printf("  Paycheck: %s %s\n", cli.FormatMoney(st.Summary.Paycheck), st.Summary.Cadence.Label())
	fmt.Printf("  Categories: %d (%d selected)\n", st.Summary.Categories, st.Summary.Selected)
	fmt.Printf("  Balance: %s\n", cli.FormatDelta(st.Summary.Balance))
	fmt.Printf("  Events: %d (%d subscribers)\n", st.EventCount, st.SubscriberCount)
	if st.LastError != "" {
		fmt.Printf("  Last error: %s\n", st.LastError)
	}
	return nil
}

func fetchDaemonStatus(addr string) (daemon.Status, error) {
	var st daemon.Status
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + addr + "/v1/status") //nolint:noctx // one-shot CLI request
	if err != nil {
		return st, fmt.Errorf("unreachable (%w)", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return st, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return st, fmt.Errorf("malformed response (%w)", err)
	}
	return st, nil
}

func runDaemonStop(_ *cobra.Command, _ []string) error {
	proc, running := liveDaemon(flagDaemonStateFile)
	if !running {
		return errors.New("daemon is not running")
	}
	if err := syscall.Kill(proc.PID, syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal daemon: %w", err)
	}

	for deadline := time.Now().Add(8 * time.Second); time.Now().Before(deadline); time.Sleep(150 * time.Millisecond) {
		if !processAlive(proc.PID) {
			_ = os.Remove(flagDaemonStateFile)
			fmt.Printf("  Stopped daemon (pid %d)\n", proc.PID)
			return nil
		}
	}
	return fmt.Errorf("daemon (pid %d) did not exit in time", proc.PID)
}

// liveDaemon reads the state file and reports whether its process is still
// alive. A state file left behind by a crashed daemon is removed.
func liveDaemon(path string) (daemonProcess, bool) {
	proc, err := readDaemonState(path)
	if err != nil {
		return daemonProcess{}, false
	}
	if !processAlive(proc.PID) {
		_ = os.Remove(path)
		return daemonProcess{}, false
	}
	return proc, true
}

func processAlive(pid int) bool {
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}

func writeDaemonState(path string, proc daemonProcess) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	data, err := json.MarshalIndent(proc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

func readDaemonState(path string) (daemonProcess, error) {
	var proc daemonProcess
	data, err := os.ReadFile(path) //nolint:gosec // state path is configured by the local user
	if err != nil {
		return proc, err
	}
	if err := json.Unmarshal(data, &proc); err != nil {
		return proc, fmt.Errorf("reading %s: %w", path, err)
	}
	if proc.PID <= 0 {
		return proc, fmt.Errorf("reading %s: invalid pid %d", path, proc.PID)
	}
	return proc, nil
}
