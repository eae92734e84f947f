package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackzampolin/outline/internal/alias"
	"github.com/jackzampolin/outline/internal/api"
	"github.com/jackzampolin/outline/internal/config"
	"github.com/jackzampolin/outline/internal/defra"
	"github.com/jackzampolin/outline/internal/home"
	"github.com/jackzampolin/outline/internal/schema"
	"github.com/jackzampolin/outline/internal/svcctx"
)

// Server is the main outline HTTP server.
// It manages the DefraDB container lifecycle - starting it on server start
// and stopping it on server shutdown - unless an external DefraDB URL is configured.
type Server struct {
	httpServer   *http.Server
	defraManager *defra.DockerManager // nil with an external DefraDB
	defraURL     string
	configMgr    *config.Manager
	home         *home.Dir
	logger       *slog.Logger

	// services holds all core services for context enrichment
	services atomic.Pointer[svcctx.Services]

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	// closers run on shutdown, after the run host has stopped
	closers []func() error

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 8080)
	Port string
	// Home is the outline home directory (default: ~/.outline)
	Home *home.Dir
	// DefraConfig holds DefraDB container settings. DataPath defaults to the home data dir.
	DefraConfig defra.DockerConfig
	// DefraURL uses an already running DefraDB; no container is managed.
	DefraURL string
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Home == nil {
		h, err := home.New("")
		if err != nil {
			return nil, err
		}
		cfg.Home = h
	}

	s := &Server{
		defraURL:  cfg.DefraURL,
		configMgr: cfg.ConfigManager,
		home:      cfg.Home,
		logger:    cfg.Logger,
	}

	if cfg.DefraURL == "" {
		if cfg.DefraConfig.DataPath == "" {
			cfg.DefraConfig.DataPath = cfg.Home.DataPath()
		}
		if cfg.DefraConfig.HomePath == "" {
			cfg.DefraConfig.HomePath = cfg.Home.Path()
		}
		mgr, err := defra.NewDockerManager(cfg.DefraConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create defra manager: %w", err)
		}
		s.defraManager = mgr
	}

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:      s.routes(s.defraManager),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Start starts DefraDB, the run host and the HTTP server.
// It blocks until the context is cancelled or an error occurs.
// Runs left unfinished by a previous server are resumed.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	pid := defra.PidFile(s.home.PidPath())
	if err := s.home.EnsureExists(); err != nil {
		s.setNotRunning()
		return err
	}
	if err := pid.Acquire(); err != nil {
		s.setNotRunning()
		return err
	}
	s.closers = append(s.closers, func() error { pid.Release(); return nil })

	client, err := s.startDefra(ctx)
	if err != nil {
		_ = s.shutdown()
		return err
	}

	applied, err := schema.Initialize(ctx, client, s.logger)
	if err != nil {
		_ = s.shutdown()
		return fmt.Errorf("schema initialization failed: %w", err)
	}
	s.logger.Info("schemas ready", "added", len(applied.Added), "existing", len(applied.Existing))

	aliases, err := s.openAliases()
	if err != nil {
		_ = s.shutdown()
		return err
	}

	services, err := NewServices(ctx, DefraBackends(client, aliases, s.logger), ServicesConfig{
		ConfigManager: s.configMgr,
		Home:          s.home,
		Logger:        s.logger,
	})
	if err != nil {
		_ = s.shutdown()
		return err
	}

	// shutdown stops the host and waits for its in-flight chunk
	hostCtx, stopHost := context.WithCancel(ctx)
	services.Host.Start(hostCtx)
	s.closers = append([]func() error{func() error {
		stopHost()
		services.Host.Wait()
		return nil
	}}, s.closers...)
	if n, err := services.Host.Resume(hostCtx); err != nil {
		s.logger.Warn("failed to resume runs", "error", err, "resumed", n)
	} else if n > 0 {
		s.logger.Info("resumed unfinished runs", "count", n)
	}
	s.services.Store(services)

	if s.configMgr != nil {
		s.configMgr.OnChange(func(c *config.Config) {
			s.logger.Info("configuration reloaded", "menu", c.Menu.MachineName, "books", c.BookCodes())
		})
	}

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			_ = s.shutdown()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// startDefra brings up the managed container, or checks the external instance.
func (s *Server) startDefra(ctx context.Context) (*defra.Client, error) {
	url := s.defraURL
	if s.defraManager != nil {
		// Validate any existing container matches our config
		if err := s.defraManager.ValidateExisting(ctx); err != nil {
			return nil, fmt.Errorf("existing DefraDB container incompatible: %w", err)
		}
		s.logger.Info("starting DefraDB", "container", s.defraManager.ContainerName())
		if err := s.defraManager.Start(ctx); err != nil {
			return nil, fmt.Errorf("failed to start DefraDB: %w", err)
		}
		url = s.defraManager.URL()
	}

	client := defra.NewClient(url)
	if err := client.HealthCheck(ctx); err != nil {
		return nil, fmt.Errorf("DefraDB health check failed: %w", err)
	}
	s.logger.Info("DefraDB is ready", "url", url)
	return client, nil
}

// openAliases opens the SQLite alias store when configured. nil selects DefraDB.
func (s *Server) openAliases() (alias.Store, error) {
	cfg := config.DefaultConfig()
	if s.configMgr != nil {
		cfg = s.configMgr.Get()
	}
	if cfg.Aliases.Backend != config.AliasBackendSQLite {
		return nil, nil
	}

	path := s.home.AliasDBPath(cfg.Aliases.SQLitePath)
	store, err := alias.OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, store.Close)
	s.logger.Info("using sqlite alias store", "path", path)
	return store, nil
}

// shutdown performs graceful shutdown of the HTTP server, the run host and DefraDB.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	// Shutdown HTTP server with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	// host first, so no chunk writes after its store is gone
	for _, closeFn := range s.closers {
		if err := closeFn(); err != nil {
			s.logger.Error("close error", "error", err)
		}
	}
	s.closers = nil

	if s.defraManager != nil {
		s.logger.Info("stopping DefraDB")
		if err := s.defraManager.Stop(shutdownCtx); err != nil {
			s.logger.Error("DefraDB stop error", "error", err)
		}
		if err := s.defraManager.Close(); err != nil {
			s.logger.Error("DefraDB manager close error", "error", err)
		}
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Services returns the wired services, or nil before Start has finished.
func (s *Server) Services() *svcctx.Services {
	return s.services.Load()
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Endpoints returns the endpoint registry, which also builds the CLI tree.
func (s *Server) Endpoints() *api.Registry {
	return s.endpointRegistry
}
