package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/boardkit/internal/backend/client"
	"github.com/louisbranch/boardkit/internal/listview/page"
	"github.com/louisbranch/boardkit/internal/listview/record"
	"github.com/louisbranch/boardkit/internal/platform/i18n"
	"github.com/louisbranch/boardkit/internal/platform/session"
	"github.com/louisbranch/boardkit/internal/platform/timeouts"
	"github.com/louisbranch/boardkit/internal/services/mcp/domain"
)

const (
	serverName = "boardkit"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"
)

// Config holds MCP runtime settings.
type Config struct {
	BackendURL string
	Token      string
	APIKey     string
	UserID     string
	Locale     string
}

// Server is an MCP server exposing the record tools.
type Server struct {
	mcpServer *mcp.Server
}

// New registers every tool against deps.
func New(deps domain.Deps) (*Server, error) {
	if deps.Backends == nil {
		return nil, errors.New("record backends are required")
	}
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, &mcp.ServerOptions{
		Instructions: "Dashboard records: call list_resources first, then list, create, update or delete records by collection name.",
	})
	mcp.AddTool(mcpServer, domain.ResourceListTool(), domain.ResourceListHandler())
	mcp.AddTool(mcpServer, domain.RecordListTool(), domain.RecordListHandler(deps))
	mcp.AddTool(mcpServer, domain.RecordCreateTool(), domain.RecordCreateHandler(deps))
	mcp.AddTool(mcpServer, domain.RecordUpdateTool(), domain.RecordUpdateHandler(deps))
	mcp.AddTool(mcpServer, domain.RecordDeleteTool(), domain.RecordDeleteHandler(deps))
	return &Server{mcpServer: mcpServer}, nil
}

// Run authenticates against the backend and serves MCP over stdio until ctx
// ends.
func Run(ctx context.Context, cfg Config) error {
	deps, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	server, err := New(deps)
	if err != nil {
		return err
	}
	log.Printf("mcp server serving stdio backend=%s", cfg.BackendURL)
	return server.Serve(ctx)
}

// Serve runs the server on stdio.
func (s *Server) Serve(ctx context.Context) error {
	return s.serveWithTransport(ctx, &mcp.StdioTransport{})
}

func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}

func connect(ctx context.Context, cfg Config) (domain.Deps, error) {
	c, err := client.New(strings.TrimSpace(cfg.BackendURL), session.NewHolder(session.Session{}), client.WithTimeout(timeouts.BackendRequest))
	if err != nil {
		return domain.Deps{}, err
	}
	if err := c.Authenticate(ctx, client.Credentials{Token: cfg.Token, APIKey: cfg.APIKey, UserID: cfg.UserID}); err != nil {
		return domain.Deps{}, fmt.Errorf("authenticate: %w", err)
	}
	return domain.Deps{
		Backends: domain.BackendsFunc(func(resource string) page.Backend[record.Document] {
			return client.NewResource[record.Document](c, resource)
		}),
		Localizer: i18n.NewLocalizer(cfg.Locale),
	}, nil
}
