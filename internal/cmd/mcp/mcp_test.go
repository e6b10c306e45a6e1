package mcp

import (
	"flag"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig(flag.NewFlagSet("mcp", flag.ContinueOnError), nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.BackendURL != "http://127.0.0.1:8090" {
		t.Fatalf("expected default backend, got %q", cfg.BackendURL)
	}
	if cfg.Locale != "en-US" {
		t.Fatalf("expected default locale, got %q", cfg.Locale)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	t.Setenv("BOARDKIT_BACKEND_URL", "http://env-backend")
	t.Setenv("BOARDKIT_TOKEN", "env-token")
	t.Setenv("BOARDKIT_USER_ID", "env-user")

	args := []string{"-backend", "http://flag-backend", "-user", "flag-user", "-locale", "pt-BR"}
	cfg, err := ParseConfig(flag.NewFlagSet("mcp", flag.ContinueOnError), args)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.BackendURL != "http://flag-backend" {
		t.Fatalf("expected flag backend, got %q", cfg.BackendURL)
	}
	if cfg.UserID != "flag-user" || cfg.Token != "env-token" {
		t.Fatalf("credentials = %q, %q", cfg.UserID, cfg.Token)
	}
	if cfg.Locale != "pt-BR" {
		t.Fatalf("expected locale pt-BR, got %q", cfg.Locale)
	}
}
