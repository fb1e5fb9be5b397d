// Package jdbc binds the service triad of relational catalogs. One Module
// covers every supported engine; the engine specific SQL lives in a Dialect
// selected by name from the connection descriptor.
//
// The connection pool is acquired from the shared datasource manager and is
// bound as an io.Closer, so stopping a connector factory never closes it.
package jdbc

import (
	"context"
	"database/sql"

	"github.com/ajitpratap0/metacat/pkg/config"
	"github.com/ajitpratap0/metacat/pkg/connector/binding"
	"github.com/ajitpratap0/metacat/pkg/connector/core"
	"github.com/ajitpratap0/metacat/pkg/connector/registry"
	"github.com/ajitpratap0/metacat/pkg/datasource"
	"github.com/ajitpratap0/metacat/pkg/errors"
)

// ConnectorType is the catalog type served by this package
const ConnectorType = "jdbc"

// Binding keys of the jdbc module. Override modules rebind these to swap a
// single collaborator, e.g. CredentialsKey in tests.
var (
	DialectKey     = binding.NewKey[Dialect]("jdbc.dialect")
	CredentialsKey = binding.NewKey[CredentialsProvider]("jdbc.credentials")
	DataSourceKey  = binding.NewKey[*sql.DB]("jdbc.data_source")
	TemplateKey    = binding.NewKey[*datasource.Template]("jdbc.template")
)

// Module binds a relational catalog
type Module struct {
	Catalog   string
	JDBC      config.JDBCConfig
	Pool      config.PoolConfig
	Timeouts  config.TimeoutConfig
	Resources datasource.Provider
}

var _ binding.Module = (*Module)(nil)

// NewModule creates the module of a catalog configuration
func NewModule(cfg *config.CatalogConfig, resources datasource.Provider) *Module {
	return &Module{
		Catalog:   cfg.Name,
		JDBC:      cfg.JDBC,
		Pool:      cfg.Pool,
		Timeouts:  cfg.Timeouts,
		Resources: resources,
	}
}

// Name returns the module name
func (m *Module) Name() string {
	return ConnectorType + ":" + m.JDBC.Dialect
}

// Configure validates the descriptor and binds the dialect, credentials,
// pool, query template and the three services.
func (m *Module) Configure(b *binding.Binder) error {
	if m.Catalog == "" {
		return errors.New(errors.ErrorTypeConfig, "jdbc module needs a catalog name")
	}
	if m.Resources == nil {
		return errors.New(errors.ErrorTypeConfig, "jdbc module needs a datasource provider")
	}
	dialect, err := LookupDialect(m.JDBC.Dialect)
	if err != nil {
		return err
	}

	binding.BindInstance(b, DialectKey, dialect)
	binding.BindInstance[CredentialsProvider](b, CredentialsKey, NewStaticCredentials(&m.JDBC))
	binding.Bind(b, DataSourceKey, m.provideDataSource)
	binding.Bind(b, TemplateKey, func(r binding.Resolver) (*datasource.Template, error) {
		db, err := binding.Get(r, DataSourceKey)
		if err != nil {
			return nil, err
		}
		return datasource.NewTemplate(db, m.Timeouts.Request), nil
	})

	binding.Bind(b, core.DatabaseServiceKey, func(r binding.Resolver) (core.DatabaseService, error) {
		d, t, err := resolveDeps(r)
		if err != nil {
			return nil, err
		}
		return NewDatabaseService(m.Catalog, d, t), nil
	})
	binding.Bind(b, core.TableServiceKey, func(r binding.Resolver) (core.TableService, error) {
		d, t, err := resolveDeps(r)
		if err != nil {
			return nil, err
		}
		return NewTableService(m.Catalog, d, t), nil
	})
	binding.Bind(b, core.PartitionServiceKey, func(r binding.Resolver) (core.PartitionService, error) {
		d, t, err := resolveDeps(r)
		if err != nil {
			return nil, err
		}
		if pd, ok := d.(PartitionDialect); ok {
			return NewPartitionService(m.Catalog, pd, t), nil
		}
		return core.UnsupportedPartitionService{Backend: d.Name()}, nil
	})
	return nil
}

func (m *Module) provideDataSource(r binding.Resolver) (*sql.DB, error) {
	dialect, err := binding.Get(r, DialectKey)
	if err != nil {
		return nil, err
	}
	credentials, err := binding.Get(r, CredentialsKey)
	if err != nil {
		return nil, err
	}
	creds, err := credentials.Credentials()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to resolve credentials")
	}

	res, err := m.Resources.Acquire(context.Background(), m.Catalog, func(context.Context) (datasource.Resource, error) {
		db, err := dialect.Open(&m.JDBC, creds, m.Timeouts.Connection)
		if err != nil {
			return nil, err
		}
		return datasource.NewSQLSource(db, m.Pool), nil
	})
	if err != nil {
		return nil, err
	}
	return datasource.SQL(res)
}

func resolveDeps(r binding.Resolver) (Dialect, *datasource.Template, error) {
	d, err := binding.Get(r, DialectKey)
	if err != nil {
		return nil, nil, err
	}
	t, err := binding.Get(r, TemplateKey)
	if err != nil {
		return nil, nil, err
	}
	return d, t, nil
}

// CredentialsModule returns an override module rebinding the credential source
func CredentialsModule(p CredentialsProvider) binding.Module {
	return binding.NewModule("jdbc-credentials", func(b *binding.Binder) error {
		binding.BindInstance(b, CredentialsKey, p)
		return nil
	})
}

// BuildModules is the module set builder registered for the jdbc type. The
// "credentials.env.username" and "credentials.env.password" properties add an
// override module reading credentials from the environment.
func BuildModules(cfg *config.CatalogConfig, resources datasource.Provider) ([]binding.Module, error) {
	if cfg.JDBC.Dialect == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "jdbc.dialect is required")
	}
	modules := []binding.Module{NewModule(cfg, resources)}
	if userVar := cfg.Property("credentials.env.username", ""); userVar != "" {
		modules = append(modules, CredentialsModule(EnvCredentials{
			UsernameVar: userVar,
			PasswordVar: cfg.Property("credentials.env.password", ""),
		}))
	}
	return modules, nil
}

func init() {
	_ = registry.Register(registry.ConnectorInfo{
		Type:         ConnectorType,
		Description:  "Relational databases reached through database/sql drivers",
		Capabilities: []string{"databases", "tables", "partitions"},
		Variants:     Dialects(),
	}, BuildModules)
}
