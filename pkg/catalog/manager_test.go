package catalog

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ajitpratap0/metacat/pkg/config"
	"github.com/ajitpratap0/metacat/pkg/connector/binding"
	"github.com/ajitpratap0/metacat/pkg/connector/core"
	_ "github.com/ajitpratap0/metacat/pkg/connector/jdbc"
	"github.com/ajitpratap0/metacat/pkg/datasource"
	"github.com/ajitpratap0/metacat/pkg/errors"
	"github.com/ajitpratap0/metacat/pkg/testutil"
)

// events records teardown order across factories and resources
type events struct {
	mu  sync.Mutex
	log []string
}

func (e *events) add(s string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.log = append(e.log, s)
}

type recordingResource struct {
	name string
	ev   *events
}

func (r *recordingResource) Close(context.Context) error {
	r.ev.add("release:" + r.name)
	return nil
}

type recordingStopper struct {
	name string
	ev   *events
}

func (s *recordingStopper) Stop() error {
	s.ev.add("stop:" + s.name)
	return nil
}

var (
	stopperKey = binding.NewKey[*recordingStopper]("recording_stopper")
	brokenKey  = binding.NewKey[string]("broken")
)

func recordingBuilder(ev *events, fail map[string]bool) func(*config.CatalogConfig, datasource.Provider) ([]binding.Module, error) {
	return func(cfg *config.CatalogConfig, resources datasource.Provider) ([]binding.Module, error) {
		return []binding.Module{binding.NewModule("recording", func(b *binding.Binder) error {
			binding.Bind(b, stopperKey, func(binding.Resolver) (*recordingStopper, error) {
				_, err := resources.Acquire(context.Background(), cfg.Name, func(context.Context) (datasource.Resource, error) {
					return &recordingResource{name: cfg.Name, ev: ev}, nil
				})
				if err != nil {
					return nil, err
				}
				return &recordingStopper{name: cfg.Name, ev: ev}, nil
			})
			if fail[cfg.Name] {
				binding.Bind(b, brokenKey, func(binding.Resolver) (string, error) {
					return "", stderrors.New("metastore unreachable")
				})
			}
			binding.BindInstance[core.DatabaseService](b, core.DatabaseServiceKey, core.UnsupportedDatabaseService{Backend: "test"})
			binding.BindInstance[core.TableService](b, core.TableServiceKey, core.UnsupportedTableService{Backend: "test"})
			binding.BindInstance[core.PartitionService](b, core.PartitionServiceKey, core.UnsupportedPartitionService{Backend: "test"})
			return nil
		})}, nil
	}
}

func sqliteCatalog(t *testing.T, name string) config.CatalogConfig {
	return *testutil.SQLiteCatalog(t, name, `CREATE TABLE orders (id INTEGER PRIMARY KEY)`)
}

func TestManager_LoadAndGet(t *testing.T) {
	ctx := context.Background()
	m := NewManager(WithLogger(testutil.TestLogger(t)))
	t.Cleanup(func() { _ = m.Stop(ctx) })

	bad := config.NewCatalogConfig("broken", "oracle")
	err := m.Load(ctx, []config.CatalogConfig{sqliteCatalog(t, "local"), sqliteCatalog(t, "archive"), *bad})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connector type oracle not found")
	assert.Equal(t, []string{"archive", "local"}, m.Names())

	f, err := m.Get("local")
	require.NoError(t, err)
	tables, err := f.GetTableService()
	require.NoError(t, err)
	ok, err := tables.Exists(ctx, core.NewTableName("local", "main", "orders"))
	require.NoError(t, err)
	assert.True(t, ok)

	cfg, ok := m.Config("local")
	require.True(t, ok)
	assert.Equal(t, "sqlite", cfg.JDBC.Dialect)

	_, err = m.Get("broken")
	assert.True(t, errors.IsNotFound(err))
	assert.Contains(t, err.Error(), "catalog not available")
}

func TestManager_RejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	m := NewManager(WithLogger(testutil.TestLogger(t)))
	t.Cleanup(func() { _ = m.Stop(ctx) })

	cfg := sqliteCatalog(t, "local")
	require.NoError(t, m.Register(ctx, &cfg))
	again := sqliteCatalog(t, "local")
	err := m.Register(ctx, &again)
	assert.True(t, errors.IsConfiguration(err))
	assert.Contains(t, err.Error(), "already registered")

	assert.True(t, errors.IsConfiguration(m.Register(ctx, &config.CatalogConfig{Type: "jdbc"})))
}

func TestManager_FailedConstructionReleasesResource(t *testing.T) {
	ctx := context.Background()
	ev := &events{}
	resources := datasource.NewManager()
	m := NewManager(WithLogger(zap.NewNop()), WithResources(resources),
		WithModuleSetBuilder(recordingBuilder(ev, map[string]bool{"partial": true})))

	err := m.Register(ctx, config.NewCatalogConfig("partial", "test"))
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
	assert.Contains(t, err.Error(), "metastore unreachable")
	assert.Empty(t, m.Names())
	assert.Empty(t, resources.Catalogs())
	assert.Equal(t, []string{"stop:partial", "release:partial"}, ev.log)
}

func TestManager_RemoveStopsBeforeRelease(t *testing.T) {
	ctx := context.Background()
	ev := &events{}
	m := NewManager(WithLogger(zap.NewNop()), WithModuleSetBuilder(recordingBuilder(ev, nil)))

	require.NoError(t, m.Register(ctx, config.NewCatalogConfig("a", "test")))
	require.NoError(t, m.Register(ctx, config.NewCatalogConfig("b", "test")))

	f, err := m.Get("a")
	require.NoError(t, err)
	require.NoError(t, m.Remove(ctx, "a"))
	assert.Equal(t, []string{"stop:a", "release:a"}, ev.log)
	assert.True(t, f.Stopped())
	assert.Equal(t, []string{"b"}, m.Resources().Catalogs())

	assert.True(t, errors.IsNotFound(m.Remove(ctx, "a")))

	require.NoError(t, m.Stop(ctx))
	assert.Equal(t, []string{"stop:a", "release:a", "stop:b", "release:b"}, ev.log)
	assert.NoError(t, m.Stop(ctx))

	err = m.Register(ctx, config.NewCatalogConfig("c", "test"))
	assert.True(t, errors.IsResolution(err))
}

func TestManager_RegisterDoesNotBlockLookups(t *testing.T) {
	ctx := context.Background()
	ev := &events{}
	entered := make(chan struct{})
	proceed := make(chan struct{})
	build := recordingBuilder(ev, nil)
	m := NewManager(WithLogger(zap.NewNop()), WithModuleSetBuilder(
		func(cfg *config.CatalogConfig, resources datasource.Provider) ([]binding.Module, error) {
			if cfg.Name == "slow" {
				close(entered)
				<-proceed
			}
			return build(cfg, resources)
		}))
	t.Cleanup(func() { _ = m.Stop(ctx) })

	require.NoError(t, m.Register(ctx, config.NewCatalogConfig("fast", "test")))

	done := make(chan error, 1)
	go func() { done <- m.Register(ctx, config.NewCatalogConfig("slow", "test")) }()
	<-entered

	_, err := m.Get("fast")
	require.NoError(t, err, "lookups of other catalogs proceed while one is being built")
	assert.Equal(t, []string{"fast"}, m.Names())

	_, err = m.Get("slow")
	assert.True(t, errors.IsNotFound(err))
	err = m.Register(ctx, config.NewCatalogConfig("slow", "test"))
	assert.True(t, errors.IsConfiguration(err))
	assert.Contains(t, err.Error(), "already registered")

	close(proceed)
	require.NoError(t, <-done)
	assert.Equal(t, []string{"fast", "slow"}, m.Names())
}

func TestManager_FailedRegisterFreesName(t *testing.T) {
	ctx := context.Background()
	ev := &events{}
	fail := map[string]bool{"flaky": true}
	m := NewManager(WithLogger(zap.NewNop()), WithModuleSetBuilder(recordingBuilder(ev, fail)))
	t.Cleanup(func() { _ = m.Stop(ctx) })

	require.Error(t, m.Register(ctx, config.NewCatalogConfig("flaky", "test")))
	delete(fail, "flaky")
	require.NoError(t, m.Register(ctx, config.NewCatalogConfig("flaky", "test")))
	assert.Equal(t, []string{"flaky"}, m.Names())
}
