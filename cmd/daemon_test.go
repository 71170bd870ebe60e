package cmd

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func TestChildArgsDropDetach(t *testing.T) {
	flagDaemonAddr = "127.0.0.1:9999"
	flagDaemonInterval = 30 * time.Second
	flagDaemonEventsBuffer = 10
	flagDaemonStateFile = "/tmp/paysplitd.json"
	flagPaycheck = "1500"
	flagCadence = ""
	cfg.General.DBPath = "/tmp/paysplit.db"
	t.Cleanup(func() {
		flagDaemonAddr, flagPaycheck, cfg.General.DBPath = "", "", ""
	})

	args := childArgs()
	if slices.Contains(args, "--detach") {
		t.Fatalf("child args %v contain --detach", args)
	}
	for _, want := range [][2]string{
		{"--addr", "127.0.0.1:9999"},
		{"--interval", "30s"},
		{"--events-buffer", "10"},
		{"--db", "/tmp/paysplit.db"},
		{"--paycheck", "1500"},
	} {
		i := slices.Index(args, want[0])
		if i < 0 || i+1 >= len(args) || args[i+1] != want[1] {
			t.Errorf("child args %v: want %s %s", args, want[0], want[1])
		}
	}
	if slices.Contains(args, "--cadence") {
		t.Errorf("unset --cadence passed to child: %v", args)
	}
}

func TestDaemonStateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "paysplitd.json")

	if _, running := liveDaemon(path); running {
		t.Fatal("missing state file reported a running daemon")
	}

	proc := daemonProcess{PID: os.Getpid(), Addr: "127.0.0.1:8787", StartedAt: time.Now().Truncate(time.Second), DBPath: "budget.db"}
	if err := writeDaemonState(path, proc); err != nil {
		t.Fatalf("writeDaemonState: %v", err)
	}
	got, running := liveDaemon(path)
	if !running {
		t.Fatal("state file for this process not reported as running")
	}
	if got.PID != proc.PID || got.Addr != proc.Addr || !got.StartedAt.Equal(proc.StartedAt) {
		t.Fatalf("state = %+v, want %+v", got, proc)
	}

	if err := os.WriteFile(path, []byte(`{"pid": 0}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := readDaemonState(path); err == nil {
		t.Fatal("pid 0 accepted")
	}
}
