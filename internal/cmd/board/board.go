// Package board parses terminal client flags and runs one command.
package board

import (
	"context"
	"flag"
	"io"
	"time"

	entrypoint "github.com/louisbranch/boardkit/internal/platform/cmd"
	"github.com/louisbranch/boardkit/internal/platform/timeouts"
	boardapp "github.com/louisbranch/boardkit/internal/services/board"
)

// Config holds board command configuration.
type Config struct {
	BackendURL  string        `env:"BOARDKIT_BACKEND_URL" envDefault:"http://127.0.0.1:8090"`
	GRPCAddr    string        `env:"BOARDKIT_BACKEND_GRPC_ADDR" envDefault:"127.0.0.1:8091"`
	Token       string        `env:"BOARDKIT_TOKEN"`
	APIKey      string        `env:"BOARDKIT_BACKEND_API_KEY"`
	UserID      string        `env:"BOARDKIT_USER_ID"`
	Locale      string        `env:"BOARDKIT_LOCALE" envDefault:"en-US"`
	SessionFile string        `env:"BOARDKIT_SESSION_FILE"`
	Wait        bool          `env:"BOARDKIT_BOARD_WAIT"`
	WaitTimeout time.Duration `env:"BOARDKIT_BOARD_WAIT_TIMEOUT" envDefault:"30s"`
	Timeout     time.Duration `env:"BOARDKIT_BOARD_TIMEOUT"`

	// Args is the command and its arguments.
	Args []string
}

// ParseConfig parses environment and flags into Config. Flags stop at the
// command name.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.SessionFile == "" {
		cfg.SessionFile = boardapp.DefaultSessionFile()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = timeouts.BackendRequest
	}
	fs.StringVar(&cfg.BackendURL, "backend", cfg.BackendURL, "The backend base URL")
	fs.StringVar(&cfg.GRPCAddr, "grpc-addr", cfg.GRPCAddr, "The backend gRPC health address used by -wait")
	fs.StringVar(&cfg.UserID, "user", cfg.UserID, "The user to sign in as")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "The locale for notices and numbers")
	fs.StringVar(&cfg.SessionFile, "session-file", cfg.SessionFile, "Where the signed-in session is kept")
	fs.BoolVar(&cfg.Wait, "wait", cfg.Wait, "Wait for the backend health check before running")
	fs.DurationVar(&cfg.WaitTimeout, "wait-timeout", cfg.WaitTimeout, "How long -wait blocks")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "The per-request timeout")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	cfg.Args = fs.Args()
	return cfg, nil
}

// Run executes the configured command.
func Run(ctx context.Context, cfg Config, out, errOut io.Writer) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceBoard, func(ctx context.Context) error {
		return boardapp.Run(ctx, boardapp.Config{
			BackendURL:  cfg.BackendURL,
			GRPCAddr:    cfg.GRPCAddr,
			Token:       cfg.Token,
			APIKey:      cfg.APIKey,
			UserID:      cfg.UserID,
			Locale:      cfg.Locale,
			SessionFile: cfg.SessionFile,
			Wait:        cfg.Wait,
			WaitTimeout: cfg.WaitTimeout,
			Timeout:     cfg.Timeout,
		}, cfg.Args, out, errOut)
	})
}
