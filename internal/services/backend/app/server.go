// Package server wires the backend HTTP API, its sqlite store and the gRPC
// health endpoint.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	platformgrpc "github.com/louisbranch/boardkit/internal/platform/grpc"
	"github.com/louisbranch/boardkit/internal/platform/timeouts"
	"github.com/louisbranch/boardkit/internal/services/backend/api/httpapi"
	"github.com/louisbranch/boardkit/internal/services/backend/auth"
	"github.com/louisbranch/boardkit/internal/services/backend/storage/sqlite"
)

// HealthService is the gRPC health service name reported by the backend.
const HealthService = "boardkit.backend"

// Config holds backend runtime settings.
type Config struct {
	HTTPAddr   string
	GRPCAddr   string
	DBPath     string
	APIKey     string
	JWTSecret  string
	SessionTTL time.Duration
}

// Server hosts the REST API, the health endpoint and the storage lifecycle.
type Server struct {
	httpListener net.Listener
	grpcListener net.Listener
	http         *http.Server
	health       *platformgrpc.HealthServer
	store        *sqlite.Store
}

// New opens storage and binds both listeners.
func New(cfg Config) (*Server, error) {
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = filepath.Join("data", "backend.db")
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = timeouts.SessionTTL
	}
	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.APIKey, cfg.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("configure sessions: %w", err)
	}
	store, err := openStore(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	handler, err := httpapi.New(store, issuer)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	httpListener, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("listen on %s: %w", cfg.HTTPAddr, err)
	}
	grpcListener, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		_ = httpListener.Close()
		_ = store.Close()
		return nil, fmt.Errorf("listen on %s: %w", cfg.GRPCAddr, err)
	}
	return &Server{
		httpListener: httpListener,
		grpcListener: grpcListener,
		http: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: timeouts.ReadHeader,
		},
		health: platformgrpc.NewHealthServer(),
		store:  store,
	}, nil
}

// HTTPAddr returns the bound REST address.
func (s *Server) HTTPAddr() string {
	if s == nil || s.httpListener == nil {
		return ""
	}
	return s.httpListener.Addr().String()
}

// GRPCAddr returns the bound health address.
func (s *Server) GRPCAddr() string {
	if s == nil || s.grpcListener == nil {
		return ""
	}
	return s.grpcListener.Addr().String()
}

// Run creates and serves a backend until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	server, err := New(cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve runs both listeners until ctx ends or either fails, then shuts down.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	defer s.closeStore()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Printf("backend api listening at %v", s.httpListener.Addr())
		if err := s.http.Serve(s.httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		log.Printf("backend health listening at %v", s.grpcListener.Addr())
		if err := s.health.Server.Serve(s.grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve gRPC: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		s.health.Shutdown(shutdownCtx)
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http: %w", err)
		}
		return nil
	})
	s.health.MarkServing(HealthService)
	return group.Wait()
}

func (s *Server) closeStore() {
	if s.store == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		log.Printf("close backend store: %v", err)
	}
}

func openStore(path string) (*sqlite.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open backend sqlite store: %w", err)
	}
	return store, nil
}
