// Package backend parses backend flags and launches the REST service.
package backend

import (
	"context"
	"flag"
	"time"

	entrypoint "github.com/louisbranch/boardkit/internal/platform/cmd"
	"github.com/louisbranch/boardkit/internal/platform/timeouts"
	server "github.com/louisbranch/boardkit/internal/services/backend/app"
)

// Config holds backend command configuration.
type Config struct {
	HTTPAddr   string        `env:"BOARDKIT_BACKEND_ADDR" envDefault:"127.0.0.1:8090"`
	GRPCAddr   string        `env:"BOARDKIT_BACKEND_GRPC_ADDR" envDefault:"127.0.0.1:8091"`
	DBPath     string        `env:"BOARDKIT_BACKEND_DB_PATH" envDefault:"data/backend.db"`
	APIKey     string        `env:"BOARDKIT_BACKEND_API_KEY"`
	JWTSecret  string        `env:"BOARDKIT_BACKEND_JWT_SECRET"`
	SessionTTL time.Duration `env:"BOARDKIT_BACKEND_SESSION_TTL"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = timeouts.SessionTTL
	}
	fs.StringVar(&cfg.HTTPAddr, "addr", cfg.HTTPAddr, "The REST API listen address")
	fs.StringVar(&cfg.GRPCAddr, "grpc-addr", cfg.GRPCAddr, "The gRPC health listen address")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "The sqlite database path")
	fs.DurationVar(&cfg.SessionTTL, "session-ttl", cfg.SessionTTL, "How long issued session tokens stay valid")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the backend service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceBackend, func(ctx context.Context) error {
		return server.Run(ctx, server.Config{
			HTTPAddr:   cfg.HTTPAddr,
			GRPCAddr:   cfg.GRPCAddr,
			DBPath:     cfg.DBPath,
			APIKey:     cfg.APIKey,
			JWTSecret:  cfg.JWTSecret,
			SessionTTL: cfg.SessionTTL,
		})
	})
}
