package factory

import (
	"context"
	"database/sql"
	stderrors "errors"
	"path/filepath"
	"sync"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ajitpratap0/metacat/pkg/connector/binding"
	"github.com/ajitpratap0/metacat/pkg/connector/core"
	"github.com/ajitpratap0/metacat/pkg/errors"
	"github.com/ajitpratap0/metacat/pkg/metrics"
)

type fakeDatabases struct {
	core.UnsupportedDatabaseService
	impl string
}

type fakeTables struct {
	core.UnsupportedTableService
	impl string
}

type fakePartitions struct {
	core.UnsupportedPartitionService
	impl string
}

type scopeState struct {
	stops int
	err   error
}

func (s *scopeState) Stop() error {
	s.stops++
	return s.err
}

var scopeKey = binding.NewKey[*scopeState]("scope_state")

func triadModule(name, impl string) binding.Module {
	return binding.NewModule(name, func(b *binding.Binder) error {
		binding.Bind(b, core.DatabaseServiceKey, func(binding.Resolver) (core.DatabaseService, error) {
			return &fakeDatabases{impl: impl}, nil
		})
		binding.Bind(b, core.TableServiceKey, func(binding.Resolver) (core.TableService, error) {
			return &fakeTables{impl: impl}, nil
		})
		binding.Bind(b, core.PartitionServiceKey, func(binding.Resolver) (core.PartitionService, error) {
			return &fakePartitions{UnsupportedPartitionService: core.UnsupportedPartitionService{Backend: impl}, impl: impl}, nil
		})
		return nil
	})
}

func tableOverride(impl string) binding.Module {
	return binding.NewModule("test-override", func(b *binding.Binder) error {
		binding.BindInstance[core.TableService](b, core.TableServiceKey, &fakeTables{impl: impl})
		return nil
	})
}

func newFactory(t *testing.T, name string, modules ...binding.Module) *ConnectorFactory {
	t.Helper()
	f, err := New(name, modules, WithLogger(zap.NewNop()), WithMetrics(metrics.NewCollector("test")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Stop() })
	return f
}

func TestNew_CompleteModuleSet(t *testing.T) {
	f := newFactory(t, "cat_a", triadModule("base", "impl1"))

	assert.Equal(t, "cat_a", f.GetName())

	db, err := f.GetDatabaseService()
	require.NoError(t, err)
	assert.Equal(t, "impl1", db.(*fakeDatabases).impl)

	tables, err := f.GetTableService()
	require.NoError(t, err)
	assert.NotNil(t, tables)

	parts, err := f.GetPartitionService()
	require.NoError(t, err)
	_, err = parts.GetPartitionCount(context.Background(), core.NewTableName("cat_a", "d", "t"))
	assert.True(t, errors.IsUnsupported(err), "capability errors come from the service, not the factory")
}

func TestNew_LogsCatalogName(t *testing.T) {
	obs, logs := observer.New(zapcore.InfoLevel)
	f, err := New("sales_db", []binding.Module{triadModule("base", "x")}, WithLogger(zap.New(obs)))
	require.NoError(t, err)
	defer f.Stop()

	entries := logs.FilterMessage("Creating connector factory for catalog").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "sales_db", entries[0].ContextMap()["catalog"])
}

func TestNew_ConfigurationErrors(t *testing.T) {
	partial := binding.NewModule("partial", func(b *binding.Binder) error {
		binding.BindInstance[core.DatabaseService](b, core.DatabaseServiceKey, &fakeDatabases{})
		return nil
	})
	conflicting := binding.NewModule("conflicting", func(b *binding.Binder) error {
		binding.BindInstance[core.TableService](b, core.TableServiceKey, &fakeTables{impl: "a"})
		binding.BindInstance[core.TableService](b, core.TableServiceKey, &fakeTables{impl: "b"})
		return nil
	})
	wrongType := binding.NewModule("wrong-type", func(b *binding.Binder) error {
		binding.BindInstance(b, binding.NewKey[string]("table_service"), "not a service")
		return nil
	})

	tests := []struct {
		name     string
		catalog  string
		modules  []binding.Module
		contains string
	}{
		{"empty name", "", []binding.Module{triadModule("base", "x")}, "catalog name is required"},
		{"empty module set", "cat", nil, "module set is empty"},
		{"missing bindings", "cat", []binding.Module{partial}, "does not bind partition_service, table_service"},
		{"conflict", "cat", []binding.Module{triadModule("base", "x"), conflicting}, "conflicting binding for table_service"},
		{"wrong type", "cat", []binding.Module{triadModule("base", "x"), wrongType}, "wrong type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := New(tt.catalog, tt.modules, WithLogger(zap.NewNop()))
			require.Error(t, err)
			assert.Nil(t, f)
			assert.True(t, errors.IsConfiguration(err), "got %v", err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestNew_CircularBinding(t *testing.T) {
	wordKey := binding.NewKey[string]("dialect")
	cyclic := binding.NewModule("cyclic", func(b *binding.Binder) error {
		binding.Bind(b, wordKey, func(r binding.Resolver) (string, error) {
			_, err := binding.Get(r, core.TableServiceKey)
			return "pg", err
		})
		binding.Bind(b, core.TableServiceKey, func(r binding.Resolver) (core.TableService, error) {
			d, err := binding.Get(r, wordKey)
			return &fakeTables{impl: d}, err
		})
		return nil
	})

	_, err := New("cat", []binding.Module{triadModule("base", "x"), cyclic}, WithLogger(zap.NewNop()))
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
	assert.Contains(t, err.Error(), "circular binding")
}

func TestFactory_IdempotentResolution(t *testing.T) {
	f := newFactory(t, "cat_a", triadModule("base", "impl1"))

	d1, err := f.GetDatabaseService()
	require.NoError(t, err)
	d2, err := f.GetDatabaseService()
	require.NoError(t, err)
	assert.Same(t, d1.(*fakeDatabases), d2.(*fakeDatabases))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tbl, err := f.GetTableService()
			if assert.NoError(t, err) {
				tbl2, _ := f.GetTableService()
				assert.Same(t, tbl.(*fakeTables), tbl2.(*fakeTables))
			}
		}()
	}
	wg.Wait()
}

func TestFactory_Isolation(t *testing.T) {
	a := newFactory(t, "cat_a", triadModule("base", "impl_a"))
	b := newFactory(t, "cat_b", triadModule("base", "impl_b"), tableOverride("override_b"))

	ta, err := a.GetTableService()
	require.NoError(t, err)
	tb, err := b.GetTableService()
	require.NoError(t, err)

	assert.Equal(t, "impl_a", ta.(*fakeTables).impl)
	assert.Equal(t, "override_b", tb.(*fakeTables).impl)

	da, _ := a.GetDatabaseService()
	db, _ := b.GetDatabaseService()
	assert.NotSame(t, da.(*fakeDatabases), db.(*fakeDatabases))

	require.NoError(t, b.Stop())
	_, err = a.GetTableService()
	assert.NoError(t, err, "stopping cat_b leaves cat_a live")
}

func TestFactory_OverrideOrdering(t *testing.T) {
	f := newFactory(t, "cat", triadModule("m1", "impl1"), triadModule("m2", "impl2"))

	tables, err := f.GetTableService()
	require.NoError(t, err)
	assert.Equal(t, "impl2", tables.(*fakeTables).impl)

	partial := newFactory(t, "cat2", triadModule("base", "impl1"), tableOverride("impl2"))
	tables, _ = partial.GetTableService()
	dbs, _ := partial.GetDatabaseService()
	assert.Equal(t, "impl2", tables.(*fakeTables).impl)
	assert.Equal(t, "impl1", dbs.(*fakeDatabases).impl)
}

func TestFactory_StopIsIdempotent(t *testing.T) {
	state := &scopeState{}
	withState := binding.NewModule("state", func(b *binding.Binder) error {
		binding.BindInstance(b, scopeKey, state)
		return nil
	})
	f, err := New("cat", []binding.Module{triadModule("base", "x"), withState}, WithLogger(zap.NewNop()))
	require.NoError(t, err)

	require.NoError(t, f.Stop())
	require.NoError(t, f.Stop())
	assert.Equal(t, 1, state.stops)
	assert.True(t, f.Stopped())

	var zero ConnectorFactory
	assert.NotPanics(t, func() { assert.NoError(t, zero.Stop()) })
	_, err = zero.GetTableService()
	assert.True(t, errors.IsResolution(err))

	var never *ConnectorFactory
	assert.NoError(t, never.Stop())
}

func TestFactory_StopReportsTeardownErrorOnce(t *testing.T) {
	state := &scopeState{err: stderrors.New("flush failed")}
	withState := binding.NewModule("state", func(b *binding.Binder) error {
		binding.BindInstance(b, scopeKey, state)
		return nil
	})
	f, err := New("cat", []binding.Module{triadModule("base", "x"), withState}, WithLogger(zap.NewNop()))
	require.NoError(t, err)

	err = f.Stop()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flush failed")
	assert.NoError(t, f.Stop())
	assert.Equal(t, 1, state.stops)
}

func TestFactory_ResolutionAfterStop(t *testing.T) {
	f, err := New("cat", []binding.Module{triadModule("base", "x")}, WithLogger(zap.NewNop()))
	require.NoError(t, err)
	require.NoError(t, f.Stop())

	_, err = f.GetDatabaseService()
	assert.True(t, errors.IsResolution(err))
	_, err = f.GetTableService()
	assert.True(t, errors.IsResolution(err))
	_, err = f.GetPartitionService()
	assert.True(t, errors.IsResolution(err))
	assert.Equal(t, "cat", f.GetName())

	var never *ConnectorFactory
	_, err = never.GetTableService()
	assert.True(t, errors.IsResolution(err))
}

func TestFactory_StopLeavesSharedPoolOpen(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "shared.db"))
	require.NoError(t, err)
	defer db.Close()

	poolKey := binding.NewKey[*sql.DB]("shared_pool")
	withPool := binding.NewModule("pool", func(b *binding.Binder) error {
		binding.BindInstance(b, poolKey, db)
		return nil
	})

	f, err := New("cat", []binding.Module{withPool, triadModule("base", "x")}, WithLogger(zap.NewNop()))
	require.NoError(t, err)
	require.NoError(t, f.Stop())

	assert.NoError(t, db.PingContext(context.Background()), "the factory never closes shared pools")
}
