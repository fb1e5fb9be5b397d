// Package catalog keeps the connector factory of every configured catalog
// and drives their lifecycle together with the shared datasource manager.
package catalog

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/metacat/pkg/config"
	"github.com/ajitpratap0/metacat/pkg/connector/factory"
	"github.com/ajitpratap0/metacat/pkg/connector/registry"
	"github.com/ajitpratap0/metacat/pkg/datasource"
	"github.com/ajitpratap0/metacat/pkg/errors"
	"github.com/ajitpratap0/metacat/pkg/logger"
	"github.com/ajitpratap0/metacat/pkg/metrics"
)

type entry struct {
	cfg     *config.CatalogConfig
	factory *factory.ConnectorFactory
}

// Manager maps catalog names to live connector factories
type Manager struct {
	catalogs  map[string]*entry
	pending   map[string]struct{}
	resources *datasource.Manager
	build     registry.ModuleSetBuilder
	stopped   bool
	mu        sync.RWMutex
	logger    *zap.Logger
	metrics   *metrics.Collector
}

// Option configures a Manager
type Option func(*Manager)

// WithResources sets the shared datasource manager
func WithResources(r *datasource.Manager) Option {
	return func(m *Manager) { m.resources = r }
}

// WithModuleSetBuilder replaces the connector type registry lookup
func WithModuleSetBuilder(b registry.ModuleSetBuilder) Option {
	return func(m *Manager) { m.build = b }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithMetrics sets the metrics collector shared with the factories
func WithMetrics(c *metrics.Collector) Option {
	return func(m *Manager) { m.metrics = c }
}

// NewManager creates an empty catalog manager
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		catalogs: make(map[string]*entry),
		pending:  make(map[string]struct{}),
		build:    registry.BuildModules,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.resources == nil {
		m.resources = datasource.NewManager()
	}
	if m.logger == nil {
		m.logger = logger.With(zap.String("component", "catalog_manager"))
	}
	if m.metrics == nil {
		m.metrics = metrics.NewCollector("catalog_manager")
	}
	return m
}

// Resources returns the shared datasource manager
func (m *Manager) Resources() *datasource.Manager {
	return m.resources
}

// Register builds the connector factory of cfg and makes it available under
// cfg.Name. A catalog whose factory fails to build is not registered and its
// shared resource, if one was opened, is released.
func (m *Manager) Register(ctx context.Context, cfg *config.CatalogConfig) error {
	if cfg == nil {
		return errors.New(errors.ErrorTypeConfig, "catalog config is required")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "invalid catalog config")
	}
	cfg.ApplyDefaults()

	if err := m.reserve(cfg.Name); err != nil {
		return err
	}

	f, err := m.construct(ctx, cfg)
	if err != nil {
		m.unreserve(cfg.Name)
		if relErr := m.resources.Release(ctx, cfg.Name); relErr != nil {
			m.logger.Warn("failed to release data source of rejected catalog",
				zap.String("catalog", cfg.Name), zap.Error(relErr))
		}
		return err
	}

	m.mu.Lock()
	delete(m.pending, cfg.Name)
	if m.stopped {
		m.mu.Unlock()
		_ = f.Stop()
		_ = m.resources.Release(ctx, cfg.Name)
		return errors.Newf(errors.ErrorTypeResolution, "catalog manager stopped while registering %s", cfg.Name)
	}
	m.catalogs[cfg.Name] = &entry{cfg: cfg, factory: f}
	m.metrics.SetActiveCatalogs(len(m.catalogs))
	m.mu.Unlock()

	m.logger.Info("catalog registered", zap.String("catalog", cfg.Name), zap.String("type", cfg.Type))
	return nil
}

// reserve claims name so that the factory can be built without holding the
// lock. Lookups do not see a reserved name until it is published.
func (m *Manager) reserve(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return errors.Newf(errors.ErrorTypeResolution, "catalog manager is stopped; cannot register %s", name)
	}
	if _, exists := m.catalogs[name]; exists {
		return errors.Newf(errors.ErrorTypeConfig, "catalog %s already registered", name)
	}
	if _, exists := m.pending[name]; exists {
		return errors.Newf(errors.ErrorTypeConfig, "catalog %s already registered", name)
	}
	m.pending[name] = struct{}{}
	return nil
}

func (m *Manager) unreserve(name string) {
	m.mu.Lock()
	delete(m.pending, name)
	m.mu.Unlock()
}

func (m *Manager) construct(ctx context.Context, cfg *config.CatalogConfig) (*factory.ConnectorFactory, error) {
	modules, err := m.build(cfg, m.resources)
	if err != nil {
		return nil, err
	}
	return factory.New(cfg.Name, modules,
		factory.WithContext(ctx),
		factory.WithLogger(m.logger),
		factory.WithMetrics(m.metrics))
}

// Load registers every catalog of cfgs. Catalogs that fail are skipped and
// their errors are returned joined; the others stay registered.
func (m *Manager) Load(ctx context.Context, cfgs []config.CatalogConfig) error {
	var errs []error
	for i := range cfgs {
		cfg := cfgs[i]
		if err := m.Register(ctx, &cfg); err != nil {
			m.logger.Error("catalog not loaded", zap.String("catalog", cfg.Name), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Get returns the connector factory of a catalog
func (m *Manager) Get(name string) (*factory.ConnectorFactory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.catalogs[name]
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeNotFound, "catalog not available: %s", name)
	}
	return e.factory, nil
}

// Config returns the configuration a catalog was registered with
func (m *Manager) Config(name string) (*config.CatalogConfig, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.catalogs[name]
	if !ok {
		return nil, false
	}
	return e.cfg, true
}

// Names returns the registered catalog names, sorted
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.catalogs))
	for name := range m.catalogs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Remove unregisters a catalog. Its factory is stopped before the shared
// resource is released.
func (m *Manager) Remove(ctx context.Context, name string) error {
	m.mu.Lock()
	e, ok := m.catalogs[name]
	delete(m.catalogs, name)
	m.metrics.SetActiveCatalogs(len(m.catalogs))
	m.mu.Unlock()

	if !ok {
		return errors.Newf(errors.ErrorTypeNotFound, "catalog not available: %s", name)
	}
	stopErr := e.factory.Stop()
	relErr := m.resources.Release(ctx, name)
	m.logger.Info("catalog removed", zap.String("catalog", name))
	return errors.Join(stopErr, relErr)
}

// Stop stops every factory, then closes the datasource manager. Later calls
// are no-ops.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return nil
	}
	m.stopped = true
	catalogs := m.catalogs
	m.catalogs = make(map[string]*entry)
	m.metrics.SetActiveCatalogs(0)
	m.mu.Unlock()

	names := make([]string, 0, len(catalogs))
	for name := range catalogs {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		if err := catalogs[name].factory.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := m.resources.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	m.logger.Info("catalog manager stopped", zap.Int("catalogs", len(names)))
	return errors.Join(errs...)
}
