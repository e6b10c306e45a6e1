package board

import (
	"flag"
	"slices"
	"testing"
	"time"
)

func TestParseConfigStopsAtCommand(t *testing.T) {
	t.Setenv("BOARDKIT_SESSION_FILE", "/tmp/board-session.json")

	args := []string{"-backend", "http://flag-backend", "-wait", "list", "leads", "-q", "an"}
	cfg, err := ParseConfig(flag.NewFlagSet("board", flag.ContinueOnError), args)
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.BackendURL != "http://flag-backend" || !cfg.Wait {
		t.Fatalf("cfg = %+v", cfg)
	}
	if want := []string{"list", "leads", "-q", "an"}; !slices.Equal(cfg.Args, want) {
		t.Fatalf("args = %v, want %v", cfg.Args, want)
	}
	if cfg.SessionFile != "/tmp/board-session.json" {
		t.Fatalf("session file = %q", cfg.SessionFile)
	}
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig(flag.NewFlagSet("board", flag.ContinueOnError), []string{"dashboard"})
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.WaitTimeout != 30*time.Second || cfg.Timeout != 10*time.Second {
		t.Fatalf("timeouts = %v, %v", cfg.WaitTimeout, cfg.Timeout)
	}
	if cfg.SessionFile == "" {
		t.Fatal("expected a default session file")
	}
}
