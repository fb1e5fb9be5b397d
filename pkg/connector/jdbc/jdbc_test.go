package jdbc

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ajitpratap0/metacat/pkg/config"
	"github.com/ajitpratap0/metacat/pkg/connector/binding"
	"github.com/ajitpratap0/metacat/pkg/connector/core"
	"github.com/ajitpratap0/metacat/pkg/connector/factory"
	"github.com/ajitpratap0/metacat/pkg/connector/registry"
	"github.com/ajitpratap0/metacat/pkg/datasource"
	"github.com/ajitpratap0/metacat/pkg/errors"
)

func sqliteCatalog(t *testing.T, name string) *config.CatalogConfig {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.db")

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()
	for _, ddl := range []string{
		`CREATE TABLE orders (id INTEGER PRIMARY KEY, region TEXT NOT NULL DEFAULT 'emea', amount REAL)`,
		`CREATE TABLE customers (id INTEGER PRIMARY KEY, email TEXT)`,
		`CREATE VIEW big_orders AS SELECT * FROM orders WHERE amount > 100`,
	} {
		_, err := db.Exec(ddl)
		require.NoError(t, err)
	}

	cfg := config.NewCatalogConfig(name, ConnectorType)
	cfg.JDBC = config.JDBCConfig{Dialect: "sqlite", Database: path}
	return cfg
}

func newSQLiteFactory(t *testing.T, cfg *config.CatalogConfig, resources datasource.Provider) *factory.ConnectorFactory {
	t.Helper()
	modules, err := BuildModules(cfg, resources)
	require.NoError(t, err)
	f, err := factory.New(cfg.Name, modules, factory.WithLogger(zap.NewNop()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Stop() })
	return f
}

func TestSQLiteCatalog_Introspection(t *testing.T) {
	ctx := context.Background()
	manager := datasource.NewManager()
	t.Cleanup(func() { _ = manager.Close(ctx) })

	f := newSQLiteFactory(t, sqliteCatalog(t, "local"), manager)
	mainDB := core.NewDatabaseName("local", "main")

	dbs, err := f.GetDatabaseService()
	require.NoError(t, err)
	ok, err := dbs.Exists(ctx, mainDB)
	require.NoError(t, err)
	assert.True(t, ok)
	info, err := dbs.Get(ctx, mainDB)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", info.Metadata["dialect"])
	_, err = dbs.Get(ctx, core.NewDatabaseName("local", "missing"))
	assert.True(t, errors.IsNotFound(err))

	tables, err := f.GetTableService()
	require.NoError(t, err)
	names, err := tables.ListNames(ctx, mainDB, nil)
	require.NoError(t, err)
	assert.Equal(t, []core.QualifiedName{
		core.NewTableName("local", "main", "big_orders"),
		core.NewTableName("local", "main", "customers"),
		core.NewTableName("local", "main", "orders"),
	}, names)

	names, err = tables.ListNames(ctx, mainDB, &core.ListRequest{Prefix: "c"})
	require.NoError(t, err)
	assert.Len(t, names, 1)

	orders, err := tables.Get(ctx, core.NewTableName("local", "main", "orders"))
	require.NoError(t, err)
	require.Len(t, orders.Fields, 3)
	assert.Equal(t, core.FieldInfo{Name: "id", Type: "INTEGER", Nullable: true, Position: 1}, orders.Fields[0])
	assert.Equal(t, "region", orders.Fields[1].Name)
	assert.False(t, orders.Fields[1].Nullable)
	assert.Equal(t, "'emea'", orders.Fields[1].DefaultValue)
	assert.Empty(t, orders.PartitionKeys())

	_, err = tables.Get(ctx, core.NewTableName("local", "main", "missing"))
	assert.True(t, errors.IsNotFound(err))

	listed, err := tables.List(ctx, mainDB, &core.ListRequest{Page: &core.Pageable{Limit: 2}})
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}

func TestSQLiteCatalog_UnsupportedCapabilities(t *testing.T) {
	ctx := context.Background()
	manager := datasource.NewManager()
	t.Cleanup(func() { _ = manager.Close(ctx) })

	f := newSQLiteFactory(t, sqliteCatalog(t, "local"), manager)

	parts, err := f.GetPartitionService()
	require.NoError(t, err)
	_, err = parts.GetPartitions(ctx, core.NewTableName("local", "main", "orders"), nil)
	assert.True(t, errors.IsUnsupported(err))

	dbs, err := f.GetDatabaseService()
	require.NoError(t, err)
	err = dbs.Create(ctx, &core.DatabaseInfo{Name: core.NewDatabaseName("local", "extra")})
	assert.True(t, errors.IsUnsupported(err))
}

func TestSQLiteCatalog_RenameAndDelete(t *testing.T) {
	ctx := context.Background()
	manager := datasource.NewManager()
	t.Cleanup(func() { _ = manager.Close(ctx) })

	f := newSQLiteFactory(t, sqliteCatalog(t, "local"), manager)
	tables, err := f.GetTableService()
	require.NoError(t, err)

	from := core.NewTableName("local", "main", "customers")
	to := core.NewTableName("local", "main", "clients")
	require.NoError(t, tables.Rename(ctx, from, to))

	ok, err := tables.Exists(ctx, to)
	require.NoError(t, err)
	assert.True(t, ok)

	err = tables.Rename(ctx, from, to)
	assert.True(t, errors.IsNotFound(err))
	err = tables.Rename(ctx, to, core.NewTableName("local", "temp", "clients"))
	assert.True(t, errors.IsUnsupported(err))

	require.NoError(t, tables.Delete(ctx, to))
	ok, err = tables.Exists(ctx, to)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteCatalog_StopKeepsSharedPool(t *testing.T) {
	ctx := context.Background()
	manager := datasource.NewManager()
	t.Cleanup(func() { _ = manager.Close(ctx) })

	cfg := sqliteCatalog(t, "local")
	modules, err := BuildModules(cfg, manager)
	require.NoError(t, err)
	f, err := factory.New(cfg.Name, modules, factory.WithLogger(zap.NewNop()))
	require.NoError(t, err)

	res, ok := manager.Get("local")
	require.True(t, ok)
	db, err := datasource.SQL(res)
	require.NoError(t, err)

	require.NoError(t, f.Stop())
	assert.NoError(t, db.PingContext(ctx), "pool stays open after the factory stops")

	again, err := factory.New(cfg.Name, modules, factory.WithLogger(zap.NewNop()))
	require.NoError(t, err)
	defer again.Stop()
	tables, err := again.GetTableService()
	require.NoError(t, err)
	_, err = tables.ListNames(ctx, core.NewDatabaseName("local", "main"), nil)
	assert.NoError(t, err, "a rebuilt factory reuses the shared pool")

	require.NoError(t, manager.Release(ctx, "local"))
	assert.Error(t, db.PingContext(ctx))
}

func TestCatalogs_AreIsolated(t *testing.T) {
	ctx := context.Background()
	manager := datasource.NewManager()
	t.Cleanup(func() { _ = manager.Close(ctx) })

	a := newSQLiteFactory(t, sqliteCatalog(t, "cat_a"), manager)
	cfgB := sqliteCatalog(t, "cat_b")
	fb := newSQLiteFactory(t, cfgB, manager)

	tb, err := fb.GetTableService()
	require.NoError(t, err)
	require.NoError(t, tb.Delete(ctx, core.NewTableName("cat_b", "main", "orders")))

	ta, err := a.GetTableService()
	require.NoError(t, err)
	ok, err := ta.Exists(ctx, core.NewTableName("cat_a", "main", "orders"))
	require.NoError(t, err)
	assert.True(t, ok, "cat_a does not see cat_b's pool")

	assert.Equal(t, []string{"cat_a", "cat_b"}, manager.Catalogs())
}

func TestCredentialsOverride(t *testing.T) {
	ctx := context.Background()
	manager := datasource.NewManager()
	t.Cleanup(func() { _ = manager.Close(ctx) })

	cfg := sqliteCatalog(t, "local")
	cfg.Properties = map[string]string{"credentials.env.username": "METACAT_TEST_UNSET_USER"}

	modules, err := BuildModules(cfg, manager)
	require.NoError(t, err)
	require.Len(t, modules, 2)

	_, err = factory.New(cfg.Name, modules, factory.WithLogger(zap.NewNop()))
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
	assert.Contains(t, err.Error(), "METACAT_TEST_UNSET_USER")
	assert.Empty(t, manager.Catalogs(), "no pool is opened when credentials fail")

	t.Setenv("METACAT_TEST_USER", "reader")
	creds, err := EnvCredentials{UsernameVar: "METACAT_TEST_USER", PasswordVar: "METACAT_TEST_PASSWORD"}.Credentials()
	require.NoError(t, err)
	assert.Equal(t, Credentials{Username: "reader"}, creds)
}

func TestSalesDB_PostgresEndToEnd(t *testing.T) {
	manager := datasource.NewManager()
	t.Cleanup(func() { _ = manager.Close(context.Background()) })

	cfg := config.NewCatalogConfig("sales_db", ConnectorType)
	cfg.JDBC = config.JDBCConfig{
		Dialect:  "postgres",
		Host:     "sales.db.internal",
		Port:     5432,
		Database: "sales",
		Username: "metacat",
		Password: "secret",
		SSLMode:  "disable",
	}

	modules, err := registry.BuildModules(cfg, manager)
	require.NoError(t, err)
	f, err := factory.New(cfg.Name, modules, factory.WithLogger(zap.NewNop()))
	require.NoError(t, err)

	assert.Equal(t, "sales_db", f.GetName())
	tables, err := f.GetTableService()
	require.NoError(t, err)
	assert.NotNil(t, tables)

	parts, err := f.GetPartitionService()
	require.NoError(t, err)
	assert.IsType(t, &PartitionService{}, parts)

	require.NoError(t, f.Stop())
	_, err = f.GetTableService()
	assert.True(t, errors.IsResolution(err))
	assert.NoError(t, f.Stop())
}

func TestBuildModules_Errors(t *testing.T) {
	manager := datasource.NewManager()

	cfg := config.NewCatalogConfig("c", ConnectorType)
	_, err := BuildModules(cfg, manager)
	assert.True(t, errors.IsConfiguration(err))

	cfg.JDBC.Dialect = "oracle"
	modules, err := BuildModules(cfg, manager)
	require.NoError(t, err)
	_, err = factory.New("c", modules, factory.WithLogger(zap.NewNop()))
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
	assert.Contains(t, err.Error(), "unknown SQL dialect")

	_, err = factory.New("c", []binding.Module{&Module{Catalog: "c", JDBC: config.JDBCConfig{Dialect: "sqlite"}}}, factory.WithLogger(zap.NewNop()))
	assert.True(t, errors.IsConfiguration(err))
}

func TestRegistered(t *testing.T) {
	info, ok := registry.GetRegistry().Info(ConnectorType)
	require.True(t, ok)
	assert.Equal(t, []string{"mysql", "postgres", "snowflake", "sqlite"}, info.Variants)
}
