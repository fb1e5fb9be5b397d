// Package factory builds the per-catalog connector factory: a catalog name
// bound to its own resolution scope and the service triad resolved from it.
//
//	f, err := factory.New("sales_db", []binding.Module{jdbcModule, overrides})
//	if err != nil {
//	    return err // configuration error, the catalog must not be registered
//	}
//	defer f.Stop()
//	tables, err := f.GetTableService()
package factory

import (
	"context"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ajitpratap0/metacat/pkg/connector/binding"
	"github.com/ajitpratap0/metacat/pkg/connector/core"
	"github.com/ajitpratap0/metacat/pkg/errors"
	"github.com/ajitpratap0/metacat/pkg/logger"
	"github.com/ajitpratap0/metacat/pkg/metrics"
	"github.com/ajitpratap0/metacat/pkg/observability"
)

// ConnectorFactory owns the binding container of one catalog. Services are
// resolved once during New and handed out without locking afterwards.
type ConnectorFactory struct {
	name      string
	container *binding.Container

	databaseService  core.DatabaseService
	tableService     core.TableService
	partitionService core.PartitionService

	stopped  atomic.Bool
	stopOnce sync.Once

	logger  *zap.Logger
	metrics *metrics.Collector
}

var _ core.ConnectorFactory = (*ConnectorFactory)(nil)

// Option configures a ConnectorFactory
type Option func(*options)

type options struct {
	ctx     context.Context
	logger  *zap.Logger
	metrics *metrics.Collector
}

// WithLogger sets the logger; the catalog name is added as a field
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics sets the metrics collector
func WithMetrics(c *metrics.Collector) Option {
	return func(o *options) { o.metrics = c }
}

// WithContext sets the parent context of the construction span
func WithContext(ctx context.Context) Option {
	return func(o *options) { o.ctx = ctx }
}

// New builds the binding container for catalog name from modules, applied in
// order, and resolves the three services. A nil factory and a configuration
// error are returned when the module set is empty, incomplete, circular or
// conflicting.
func New(name string, modules []binding.Module, opts ...Option) (*ConnectorFactory, error) {
	o := options{ctx: context.Background()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Get()
	}
	if o.metrics == nil {
		o.metrics = metrics.NewCollector("connector_factory")
	}

	if name == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "catalog name is required")
	}

	log := o.logger.With(zap.String("catalog", name))
	log.Info("Creating connector factory for catalog", zap.Int("modules", len(modules)))

	timer := metrics.NewTimer("construct")
	var f *ConnectorFactory
	err := observability.NewCatalogTracer(name).Trace(o.ctx, "connector.factory.construct", func(context.Context) error {
		var err error
		f, err = build(name, modules, log, o.metrics)
		return err
	})
	o.metrics.ObserveConstruction(name, timer.Stop(), err)
	if err != nil {
		log.Error("failed to create connector factory", zap.Error(err))
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to create connector factory").
			WithDetail("catalog", name)
	}

	for _, ov := range f.container.Overrides() {
		log.Debug("binding overridden",
			zap.String("key", ov.Key),
			zap.String("from", ov.From),
			zap.String("to", ov.To))
	}
	log.Info("connector factory created", zap.Strings("bindings", f.container.Keys()))
	return f, nil
}

func build(name string, modules []binding.Module, log *zap.Logger, m *metrics.Collector) (*ConnectorFactory, error) {
	container, err := binding.Build(modules, core.ServiceKeys()...)
	if err != nil {
		return nil, err
	}

	f := &ConnectorFactory{
		name:      name,
		container: container,
		logger:    log,
		metrics:   m,
	}
	if f.databaseService, err = binding.Get(container, core.DatabaseServiceKey); err == nil {
		if f.tableService, err = binding.Get(container, core.TableServiceKey); err == nil {
			f.partitionService, err = binding.Get(container, core.PartitionServiceKey)
		}
	}
	if err != nil {
		_ = container.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "module set binds a service key to the wrong type")
	}
	return f, nil
}

// GetName returns the catalog name
func (f *ConnectorFactory) GetName() string {
	return f.name
}

// GetDatabaseService returns the database service of the catalog
func (f *ConnectorFactory) GetDatabaseService() (core.DatabaseService, error) {
	if err := f.checkLive("database"); err != nil {
		return nil, err
	}
	return f.databaseService, nil
}

// GetTableService returns the table service of the catalog
func (f *ConnectorFactory) GetTableService() (core.TableService, error) {
	if err := f.checkLive("table"); err != nil {
		return nil, err
	}
	return f.tableService, nil
}

// GetPartitionService returns the partition service of the catalog
func (f *ConnectorFactory) GetPartitionService() (core.PartitionService, error) {
	if err := f.checkLive("partition"); err != nil {
		return nil, err
	}
	return f.partitionService, nil
}

func (f *ConnectorFactory) checkLive(service string) error {
	if f == nil || f.container == nil {
		return errors.Newf(errors.ErrorTypeResolution, "%s service requested from a connector factory that was never built", service)
	}
	if f.stopped.Load() {
		f.metrics.ResolutionFailed(f.name, service)
		return errors.Newf(errors.ErrorTypeResolution, "%s service requested after connector factory %s stopped", service, f.name).
			WithDetail("catalog", f.name)
	}
	return nil
}

// Bindings returns the bound keys in instantiation order
func (f *ConnectorFactory) Bindings() []string {
	return f.container.Keys()
}

// Stopped reports whether Stop has been called
func (f *ConnectorFactory) Stopped() bool {
	return f.stopped.Load()
}

// Stop closes the factory's binding container. Bound values implementing
// binding.Stopper are stopped; shared connection pools are left to the
// datasource manager. Teardown errors are logged and returned by the first
// call only; later calls are no-ops. Stopping a factory that was never
// built is a no-op as well.
func (f *ConnectorFactory) Stop() error {
	if f == nil || f.container == nil {
		return nil
	}
	var err error
	f.stopOnce.Do(func() {
		f.stopped.Store(true)
		_, span := observability.NewCatalogTracer(f.name).StartSpan(context.Background(), "connector.factory.stop",
			attribute.Int("bindings", len(f.container.Keys())))
		defer span.End()

		err = f.container.Close()
		observability.RecordError(span, err)
		f.metrics.FactoryStopped(f.name, err)
		if err != nil {
			f.logger.Warn("connector factory teardown failed", zap.Error(err))
			err = errors.Wrap(err, errors.ErrorTypeInternal, "connector factory teardown failed").
				WithDetail("catalog", f.name)
			return
		}
		f.logger.Info("connector factory stopped")
	})
	return err
}
