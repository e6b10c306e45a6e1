// Package board is the terminal client: it drives one list page per command
// against the backend and renders the result as a table.
package board

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/louisbranch/boardkit/internal/backend/client"
	"github.com/louisbranch/boardkit/internal/listview/notice"
	platformgrpc "github.com/louisbranch/boardkit/internal/platform/grpc"
	"github.com/louisbranch/boardkit/internal/platform/i18n"
	"github.com/louisbranch/boardkit/internal/platform/session"
)

// Config holds terminal client settings.
type Config struct {
	BackendURL  string
	GRPCAddr    string
	Token       string
	APIKey      string
	UserID      string
	Locale      string
	SessionFile string
	Wait        bool
	WaitTimeout time.Duration
	Timeout     time.Duration
}

// ErrUsage reports a malformed command line.
var ErrUsage = errors.New("usage")

const usage = `usage: board [flags] <command> [args]

commands:
  login                                  exchange the API key for a session
  logout                                 forget the saved session
  list <resource> [-q text] [-filter expr] [-<enum> value] [-limit n]
  create <resource> key=value...
  update <resource> <id> key=value...
  delete <resource> <id>
  move <deal-id> <stage>                 move a deal to another pipeline stage
  vote <post-id> <option>                vote on a post's poll option (0-based)
  read <notification-id>                 mark a notification as read
  dashboard                              summarize leads, customers, deals and campaigns
`

type app struct {
	cfg       Config
	client    *client.Client
	sessions  *sessionFile
	localizer i18n.Localizer
	out       io.Writer
	errOut    io.Writer
}

// Run executes one command.
func Run(ctx context.Context, cfg Config, args []string, out, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	if len(args) == 0 {
		fmt.Fprint(errOut, usage)
		return ErrUsage
	}
	if cfg.Wait {
		logf := func(format string, args ...any) {
			log.Printf("backend %s", fmt.Sprintf(format, args...))
		}
		if err := platformgrpc.WaitReady(ctx, cfg.GRPCAddr, cfg.WaitTimeout, logf); err != nil {
			return fmt.Errorf("wait for backend: %w", err)
		}
	}

	var opts []client.Option
	if cfg.Timeout > 0 {
		opts = append(opts, client.WithTimeout(cfg.Timeout))
	}
	c, err := client.New(cfg.BackendURL, session.NewHolder(session.Session{}), opts...)
	if err != nil {
		return err
	}
	a := &app{
		cfg:       cfg,
		client:    c,
		sessions:  &sessionFile{path: cfg.SessionFile},
		localizer: i18n.NewLocalizer(cfg.Locale),
		out:       out,
		errOut:    errOut,
	}

	command, rest := strings.ToLower(args[0]), args[1:]
	switch command {
	case "login":
		return a.login(ctx)
	case "logout":
		return a.logout()
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
		return nil
	}

	commands := map[string]func(context.Context, []string) error{
		"list":      a.list,
		"create":    a.create,
		"update":    a.update,
		"delete":    a.delete,
		"move":      a.move,
		"vote":      a.vote,
		"read":      a.read,
		"dashboard": func(ctx context.Context, _ []string) error { return a.dashboard(ctx) },
	}
	run, ok := commands[command]
	if !ok {
		fmt.Fprint(errOut, usage)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, command)
	}
	if err := a.authenticate(ctx); err != nil {
		return err
	}
	return run(ctx, rest)
}

func (a *app) login(ctx context.Context) error {
	s, err := a.client.Login(ctx, a.cfg.APIKey, a.cfg.UserID)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if err := a.sessions.save(s); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "signed in as %s until %s\n", s.UserID, s.ExpiresAt.Local().Format(time.DateTime))
	return nil
}

func (a *app) logout() error {
	a.client.Logout()
	if err := a.sessions.remove(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "signed out")
	return nil
}

// authenticate prefers an explicit token, then the saved session, then an
// API key login.
func (a *app) authenticate(ctx context.Context) error {
	if strings.TrimSpace(a.cfg.Token) == "" {
		saved, ok, err := a.sessions.load()
		if err != nil {
			return err
		}
		if ok && saved.Valid(time.Now()) {
			a.client.Sessions().Set(saved)
			return nil
		}
	}
	err := a.client.Authenticate(ctx, client.Credentials{Token: a.cfg.Token, APIKey: a.cfg.APIKey, UserID: a.cfg.UserID})
	if err != nil {
		return fmt.Errorf("not signed in; run board login: %w", err)
	}
	return nil
}

// report writes queued notices to errOut.
func (a *app) report(notices []notice.Notice) {
	for _, n := range notices {
		fmt.Fprintf(a.errOut, "[%s] %s\n", n.Kind, n.Message)
	}
}
