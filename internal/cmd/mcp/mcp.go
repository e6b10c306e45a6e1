// Package mcp parses MCP command flags and launches the stdio server.
package mcp

import (
	"context"
	"flag"

	entrypoint "github.com/louisbranch/boardkit/internal/platform/cmd"
	"github.com/louisbranch/boardkit/internal/services/mcp/service"
)

// Config holds MCP command configuration.
type Config struct {
	BackendURL string `env:"BOARDKIT_BACKEND_URL" envDefault:"http://127.0.0.1:8090"`
	Token      string `env:"BOARDKIT_TOKEN"`
	APIKey     string `env:"BOARDKIT_BACKEND_API_KEY"`
	UserID     string `env:"BOARDKIT_USER_ID"`
	Locale     string `env:"BOARDKIT_LOCALE" envDefault:"en-US"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.BackendURL, "backend", cfg.BackendURL, "backend base URL")
	fs.StringVar(&cfg.UserID, "user", cfg.UserID, "user to sign in as when no token is set")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "locale for notice messages")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the MCP protocol adapter.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMCP, func(ctx context.Context) error {
		return service.Run(ctx, service.Config{
			BackendURL: cfg.BackendURL,
			Token:      cfg.Token,
			APIKey:     cfg.APIKey,
			UserID:     cfg.UserID,
			Locale:     cfg.Locale,
		})
	})
}
