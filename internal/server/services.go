package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackzampolin/outline/internal/alias"
	"github.com/jackzampolin/outline/internal/batch"
	"github.com/jackzampolin/outline/internal/books"
	"github.com/jackzampolin/outline/internal/config"
	"github.com/jackzampolin/outline/internal/content"
	"github.com/jackzampolin/outline/internal/defra"
	"github.com/jackzampolin/outline/internal/home"
	"github.com/jackzampolin/outline/internal/jobs"
	"github.com/jackzampolin/outline/internal/nav"
	"github.com/jackzampolin/outline/internal/outline"
	"github.com/jackzampolin/outline/internal/structure"
	"github.com/jackzampolin/outline/internal/svcctx"
)

// planTimeout bounds the settings lookup behind each plan.
const planTimeout = 10 * time.Second

// Backends are the stores the services run against.
type Backends struct {
	Client   *defra.Client // nil for in-memory backends
	Items    content.Store
	Links    outline.Store
	Aliases  alias.Store
	Menu     nav.Store
	Runs     jobs.Store
	Settings config.Store
}

// DefraBackends returns stores backed by DefraDB. aliases overrides the DefraDB
// alias store when non-nil, e.g. with a SQLite export.
func DefraBackends(client *defra.Client, aliases alias.Store, logger *slog.Logger) Backends {
	if aliases == nil {
		aliases = alias.NewDefraStore(client)
	}
	return Backends{
		Client:   client,
		Items:    content.NewDefraStore(client),
		Links:    outline.NewDefraStore(client),
		Aliases:  aliases,
		Menu:     nav.NewDefraStore(client),
		Runs:     jobs.NewManager(client, logger),
		Settings: config.NewStore(client),
	}
}

// MemoryBackends returns empty in-memory stores.
func MemoryBackends() Backends {
	return Backends{
		Items:    content.NewMemoryStore(),
		Links:    outline.NewMemoryStore(),
		Aliases:  alias.NewMemoryStore(),
		Menu:     nav.NewMemoryStore(),
		Runs:     jobs.NewMemoryStore(),
		Settings: config.NewMemoryStore(),
	}
}

// ServicesConfig carries the non-store inputs of NewServices.
type ServicesConfig struct {
	ConfigManager *config.Manager
	Books         *books.Registry // nil = built-in book types
	Home          *home.Dir
	Logger        *slog.Logger
}

// NewServices wires the structure components, the batch runner and the run host
// over b. Plans read the effective configuration on every run, so a
// main_book_nid set through the settings API applies to the next run. Chunk size
// and menu name are fixed here and need a restart to change.
func NewServices(ctx context.Context, b Backends, cfg ServicesConfig) (*svcctx.Services, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	registry := cfg.Books
	if registry == nil {
		registry = books.DefaultRegistry()
	}

	s := &svcctx.Services{
		DefraClient:   b.Client,
		Books:         registry,
		Items:         b.Items,
		Links:         b.Links,
		Aliases:       b.Aliases,
		Menu:          b.Menu,
		Runs:          b.Runs,
		ConfigManager: cfg.ConfigManager,
		ConfigStore:   b.Settings,
		Logger:        logger,
		Home:          cfg.Home,
	}

	effective, err := s.Config(ctx)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	plans := func(bt books.BookType) (structure.Plan, error) {
		pctx, cancel := context.WithTimeout(context.Background(), planTimeout)
		defer cancel()
		c, err := s.Config(pctx)
		if err != nil {
			return structure.Plan{}, err
		}
		return c.Plan(bt)
	}

	runner := batch.NewRunner(batch.Config{
		Registry:  registry,
		Builder:   structure.NewBuilder(b.Items, b.Links, b.Aliases, logger),
		Assigner:  structure.NewAssigner(b.Items, b.Aliases, b.Links, logger),
		Destroyer: structure.NewDestroyer(b.Items, b.Links, b.Aliases, logger),
		Sync:      nav.NewSynchronizer(b.Items, b.Links, b.Menu, logger),
		Plans:     plans,
		ChunkSize: effective.Batch.ChunkSize,
		Menu:      effective.Menu.MachineName,
		Logger:    logger,
	})

	s.Host = jobs.NewHost(jobs.HostConfig{
		Store:  b.Runs,
		Runner: runner,
		Logger: logger,
	})
	return s, nil
}
