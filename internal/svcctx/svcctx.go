// Package svcctx provides service context for dependency injection via context.
// This package is separate from server to avoid import cycles with endpoints.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/jackzampolin/outline/internal/alias"
	"github.com/jackzampolin/outline/internal/books"
	"github.com/jackzampolin/outline/internal/config"
	"github.com/jackzampolin/outline/internal/content"
	"github.com/jackzampolin/outline/internal/defra"
	"github.com/jackzampolin/outline/internal/home"
	"github.com/jackzampolin/outline/internal/jobs"
	"github.com/jackzampolin/outline/internal/nav"
	"github.com/jackzampolin/outline/internal/outline"
)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	DefraClient *defra.Client // nil when running on in-memory stores
	Books       *books.Registry

	Items   content.Store
	Links   outline.Store
	Aliases alias.Store
	Menu    nav.Store

	Runs jobs.Store
	Host *jobs.Host

	ConfigManager *config.Manager
	ConfigStore   config.Store

	Logger *slog.Logger
	Home   *home.Dir
}

// Config returns the file configuration with runtime overrides applied.
func (s *Services) Config(ctx context.Context) (*config.Config, error) {
	return config.Effective(ctx, s.ConfigManager, s.ConfigStore)
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// DefraClientFrom extracts the DefraDB client from context.
func DefraClientFrom(ctx context.Context) *defra.Client {
	if s := ServicesFrom(ctx); s != nil {
		return s.DefraClient
	}
	return nil
}

// BooksFrom extracts the book type registry from context.
func BooksFrom(ctx context.Context) *books.Registry {
	if s := ServicesFrom(ctx); s != nil {
		return s.Books
	}
	return nil
}

// LinksFrom extracts the outline link store from context.
func LinksFrom(ctx context.Context) outline.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.Links
	}
	return nil
}

// MenuFrom extracts the menu link store from context.
func MenuFrom(ctx context.Context) nav.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.Menu
	}
	return nil
}

// RunsFrom extracts the run store from context.
func RunsFrom(ctx context.Context) jobs.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.Runs
	}
	return nil
}

// HostFrom extracts the run host from context.
func HostFrom(ctx context.Context) *jobs.Host {
	if s := ServicesFrom(ctx); s != nil {
		return s.Host
	}
	return nil
}

// LoggerFrom extracts the logger from context, falling back to slog.Default.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil && s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}

// ConfigStoreFrom extracts the config store from context.
func ConfigStoreFrom(ctx context.Context) config.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.ConfigStore
	}
	return nil
}
