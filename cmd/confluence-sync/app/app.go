// Package app provides the application context and dependency wiring for
// the confluence-sync CLI. It centralizes configuration, logging, and the
// lazily constructed sync engine so every subcommand shares one set of
// dependencies.
package app

import (
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	confluencesync "github.com/shouhanzen/confluence-sync"
	"github.com/shouhanzen/confluence-sync/internal/confluence"
	"github.com/shouhanzen/confluence-sync/internal/store"
	"github.com/shouhanzen/confluence-sync/pkg/constants"
	"github.com/shouhanzen/confluence-sync/pkg/errors"
	"github.com/shouhanzen/confluence-sync/pkg/pages"
)

// App represents the confluence-sync application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	// Configuration
	config *Config

	// Logger
	logger *zerolog.Logger

	// Lazy-initialized singletons
	mu      sync.Mutex
	service pages.Service
	syncer  confluencesync.Syncer
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.NewConfigError("app", "load configuration", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version string.
func (a *App) Version() string {
	return a.version
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// Service returns the page service, creating it on first use.
func (a *App) Service() (pages.Service, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.serviceLocked()
}

func (a *App) serviceLocked() (pages.Service, error) {
	if a.service != nil {
		return a.service, nil
	}

	if err := a.config.ValidateRemote(); err != nil {
		return nil, err
	}

	client, err := confluence.New(confluence.Config{
		BaseURL:    a.config.BaseURL,
		Username:   a.config.Username,
		APIToken:   a.config.APIToken,
		Timeout:    a.config.Timeout,
		MaxRetries: a.config.MaxRetries,
	})
	if err != nil {
		return nil, err
	}

	a.service = client
	return client, nil
}

// Syncer returns the sync engine, creating it on first use. The engine is
// wired with the page service, the metadata store under the sync directory,
// and the space configuration.
func (a *App) Syncer() (confluencesync.Syncer, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.syncer != nil {
		return a.syncer, nil
	}

	service, err := a.serviceLocked()
	if err != nil {
		return nil, err
	}

	st, err := store.Open(filepath.Join(a.config.Directory, constants.MetadataDir, constants.MetadataFile))
	if err != nil {
		return nil, err
	}

	syncer, err := confluencesync.New(
		confluencesync.WithService(service),
		confluencesync.WithStore(st),
		confluencesync.WithRoot(a.config.Directory),
		confluencesync.WithSpace(a.config.SpaceKey),
		confluencesync.WithParent(a.config.ParentID),
		confluencesync.WithIgnorePatterns(a.config.Ignore...),
		confluencesync.WithConcurrency(a.config.Concurrency),
	)
	if err != nil {
		return nil, err
	}

	a.syncer = syncer
	return syncer, nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithService sets a custom page service (useful for testing).
func WithService(service pages.Service) Option {
	return func(a *App) error {
		a.service = service
		return nil
	}
}

// WithSyncer sets a custom sync engine (useful for testing).
func WithSyncer(syncer confluencesync.Syncer) Option {
	return func(a *App) error {
		a.syncer = syncer
		return nil
	}
}
