package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/concord"
	"github.com/aretw0/concord/internal/config"
	"github.com/aretw0/concord/pkg/adapters/file"
	"github.com/aretw0/concord/pkg/adapters/loam"
	"github.com/aretw0/concord/pkg/adapters/memory"
	"github.com/aretw0/concord/pkg/adapters/redis"
	"github.com/aretw0/concord/pkg/domain"
	"github.com/aretw0/concord/pkg/observability"
	"github.com/aretw0/concord/pkg/persistence/middleware"
	"github.com/aretw0/concord/pkg/ports"
)

// Components is everything a long-running command needs, built from one
// configuration. Close releases whatever the store opened.
type Components struct {
	Catalog ports.CatalogLoader
	// Watcher is nil unless the catalog source can report changes.
	Watcher ports.Watchable
	Store   ports.PreferenceStore
	Sink    ports.ResultSink
	Locker  ports.DistributedLocker
	Engine  *concord.Engine
	Metrics *observability.Metrics

	closers []func() error
}

// Build wires the catalog, the store chain and the engine described by cfg.
func Build(cfg *config.Config, logger *slog.Logger) (*Components, error) {
	c := &Components{Metrics: observability.NewMetrics()}

	catalog, watcher, err := OpenCatalog(cfg.Catalog)
	if err != nil {
		return nil, err
	}
	c.Catalog, c.Watcher = catalog, watcher

	if err := c.openStore(cfg.Store); err != nil {
		return nil, err
	}

	engine, err := NewEngine(cfg.Engine, logger, observability.Combine(
		c.Metrics.Hooks(),
		observability.AuditHooks(logger),
	))
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.Engine = engine

	logger.Debug("components ready",
		"catalog", cfg.Catalog.Source,
		"store", cfg.Store.Driver,
		"tie_break", engine.TieBreak(),
		"encrypted", cfg.Store.EncryptionKey != "",
	)
	return c, nil
}

// Close releases store connections in reverse order of opening.
func (c *Components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	c.closers = nil
	return errors.Join(errs...)
}

// OpenCatalog loads the template catalog. Only the loam source is watchable.
func OpenCatalog(cfg config.CatalogConfig) (ports.CatalogLoader, ports.Watchable, error) {
	switch cfg.Source {
	case "loam":
		loader, err := loam.Open(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open catalog %s: %w", cfg.Path, err)
		}
		return loader, loader, nil
	case "", "file":
		catalog, err := file.LoadCatalog(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return catalog, nil, nil
	}
	return nil, nil, fmt.Errorf("unknown catalog source %q", cfg.Source)
}

func (c *Components) openStore(cfg config.StoreConfig) error {
	var base ports.PreferenceStore
	switch cfg.Driver {
	case "redis":
		rs := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithTTL(cfg.Redis.TTL),
		)
		base, c.Sink = rs, rs
		c.Locker = redis.NewLocker(rs.Client(), cfg.Redis.Prefix)
		c.closers = append(c.closers, rs.Close)
	case "", "memory":
		base = memory.NewStore()
		if cfg.ResultsDir != "" {
			c.Sink = file.NewSink(cfg.ResultsDir)
		} else {
			c.Sink = memory.NewSink()
		}
	default:
		return fmt.Errorf("unknown store driver %q", cfg.Driver)
	}

	mws, err := StoreMiddleware(cfg)
	if err != nil {
		_ = c.Close()
		return err
	}
	c.Store = middleware.Chain(base, mws...)
	return nil
}

// StoreMiddleware returns the middleware configured for the store, outermost
// first: metadata redaction runs before the payload is sealed.
func StoreMiddleware(cfg config.StoreConfig) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(cfg.RedactMetadata) > 0 {
		mws = append(mws, middleware.NewPIIMiddleware(cfg.RedactMetadata))
	}
	if cfg.EncryptionKey != "" {
		key, err := middleware.ParseKey(cfg.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("store.encryption_key: %w", err)
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}))
	}
	return mws, nil
}

// NewEngine builds the reconciliation engine for cfg.
func NewEngine(cfg config.EngineConfig, logger *slog.Logger, hooks domain.LifecycleHooks) (*concord.Engine, error) {
	return concord.NewFromConfig(cfg.TieBreak, cfg.Seed,
		concord.WithWorkers(cfg.Workers),
		concord.WithLifecycleHooks(hooks),
		concord.WithLogger(logger),
	)
}
