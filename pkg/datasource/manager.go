// Package datasource owns the physical connections of every catalog.
//
// Connector factories never close what they obtain from here: a Manager is
// shared by the whole process, keyed by catalog name, and its Release and
// Close methods are the only teardown path for pooled connections. The
// catalog manager calls Release after the catalog's factory has stopped and
// Close once every factory is gone.
package datasource

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/metacat/pkg/errors"
	"github.com/ajitpratap0/metacat/pkg/logger"
	"github.com/ajitpratap0/metacat/pkg/metrics"
)

// Resource is a physical handle (connection pool, client) owned by a Manager
type Resource interface {
	Close(ctx context.Context) error
}

// Opener creates the resource of a catalog on first use
type Opener func(ctx context.Context) (Resource, error)

// Provider hands out the shared resource of a catalog, opening it on first
// use. Modules depend on this interface rather than on *Manager.
type Provider interface {
	Acquire(ctx context.Context, catalog string, open Opener) (Resource, error)
}

// Manager is the process-wide registry of catalog resources
type Manager struct {
	resources map[string]Resource
	closed    bool
	mu        sync.Mutex
	logger    *zap.Logger
	metrics   *metrics.Collector
}

var _ Provider = (*Manager)(nil)

// NewManager creates an empty resource manager
func NewManager() *Manager {
	return &Manager{
		resources: make(map[string]Resource),
		logger:    logger.With(zap.String("component", "datasource_manager")),
		metrics:   metrics.NewCollector("datasource_manager"),
	}
}

// Acquire returns the resource of catalog, opening it with open if the
// catalog has none yet. Opening happens under the manager lock so that
// concurrent callers never open two pools for one catalog.
func (m *Manager) Acquire(ctx context.Context, catalog string, open Opener) (Resource, error) {
	if catalog == "" {
		return nil, errors.New(errors.ErrorTypeValidation, "catalog name is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, errors.Newf(errors.ErrorTypeResolution, "datasource manager is closed; cannot acquire %s", catalog)
	}
	if r, ok := m.resources[catalog]; ok {
		return r, nil
	}
	if open == nil {
		return nil, errors.Newf(errors.ErrorTypeNotFound, "no data source for catalog %s", catalog)
	}

	r, err := open(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to open data source").
			WithDetail("catalog", catalog)
	}
	if r == nil {
		return nil, errors.Newf(errors.ErrorTypeConnection, "opener for catalog %s returned no resource", catalog)
	}

	m.resources[catalog] = r
	m.metrics.SetActiveResources(len(m.resources))
	m.logger.Info("data source opened", zap.String("catalog", catalog))
	return r, nil
}

// Get returns the resource of catalog if one is open
func (m *Manager) Get(catalog string) (Resource, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.resources[catalog]
	return r, ok
}

// Catalogs returns the catalogs holding an open resource, sorted
func (m *Manager) Catalogs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.resources))
	for name := range m.resources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Release closes and forgets the resource of one catalog. Releasing a
// catalog without a resource is a no-op.
func (m *Manager) Release(ctx context.Context, catalog string) error {
	m.mu.Lock()
	r, ok := m.resources[catalog]
	delete(m.resources, catalog)
	m.metrics.SetActiveResources(len(m.resources))
	m.mu.Unlock()

	if !ok {
		return nil
	}
	if err := r.Close(ctx); err != nil {
		m.logger.Warn("failed to close data source", zap.String("catalog", catalog), zap.Error(err))
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to close data source").
			WithDetail("catalog", catalog)
	}
	m.logger.Info("data source closed", zap.String("catalog", catalog))
	return nil
}

// Close closes every resource and rejects further Acquire calls. It is the
// shutdown hook of the manager and is safe to call more than once.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	resources := m.resources
	m.resources = make(map[string]Resource)
	m.metrics.SetActiveResources(0)
	m.mu.Unlock()

	names := make([]string, 0, len(resources))
	for name := range resources {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		if err := resources[name].Close(ctx); err != nil {
			m.logger.Warn("failed to close data source", zap.String("catalog", name), zap.Error(err))
			errs = append(errs, err)
		}
	}
	m.logger.Info("datasource manager closed", zap.Int("closed", len(names)))
	return errors.Join(errs...)
}
