// Package mongodb binds MongoDB catalogs: databases map to databases and
// collections map to tables. MongoDB has no partitions.
package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ajitpratap0/metacat/pkg/config"
	"github.com/ajitpratap0/metacat/pkg/connector/binding"
	"github.com/ajitpratap0/metacat/pkg/connector/core"
	"github.com/ajitpratap0/metacat/pkg/connector/registry"
	"github.com/ajitpratap0/metacat/pkg/datasource"
	"github.com/ajitpratap0/metacat/pkg/errors"
)

// ConnectorType is the catalog type served by this package
const ConnectorType = "mongodb"

// ClientKey binds the shared client of the catalog
var ClientKey = binding.NewKey[*mongo.Client]("mongodb.client")

// clientSource lets the datasource manager disconnect the shared client
type clientSource struct {
	client *mongo.Client
}

func (c *clientSource) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// Module binds a MongoDB catalog
type Module struct {
	Catalog   string
	MongoDB   config.MongoDBConfig
	Pool      config.PoolConfig
	Timeouts  config.TimeoutConfig
	Resources datasource.Provider
}

var _ binding.Module = (*Module)(nil)

// NewModule creates the module of a catalog configuration
func NewModule(cfg *config.CatalogConfig, resources datasource.Provider) *Module {
	return &Module{
		Catalog:   cfg.Name,
		MongoDB:   cfg.MongoDB,
		Pool:      cfg.Pool,
		Timeouts:  cfg.Timeouts,
		Resources: resources,
	}
}

// Name returns the module name
func (m *Module) Name() string { return ConnectorType }

// Configure binds the client and the service triad
func (m *Module) Configure(b *binding.Binder) error {
	if m.Catalog == "" {
		return errors.New(errors.ErrorTypeConfig, "mongodb module needs a catalog name")
	}
	if m.MongoDB.URI == "" {
		return errors.New(errors.ErrorTypeConfig, "mongodb.uri is required")
	}
	if m.Resources == nil {
		return errors.New(errors.ErrorTypeConfig, "mongodb module needs a datasource provider")
	}

	binding.Bind(b, ClientKey, m.provideClient)
	binding.Bind(b, core.DatabaseServiceKey, func(r binding.Resolver) (core.DatabaseService, error) {
		client, err := binding.Get(r, ClientKey)
		if err != nil {
			return nil, err
		}
		return NewDatabaseService(m.Catalog, client, m.MongoDB.IncludeSystem, m.Timeouts.Request), nil
	})
	binding.Bind(b, core.TableServiceKey, func(r binding.Resolver) (core.TableService, error) {
		client, err := binding.Get(r, ClientKey)
		if err != nil {
			return nil, err
		}
		return NewTableService(m.Catalog, client, m.Timeouts.Request), nil
	})
	binding.BindInstance[core.PartitionService](b, core.PartitionServiceKey, core.UnsupportedPartitionService{Backend: ConnectorType})
	return nil
}

// clientOptions builds the driver options. Connect does not dial; servers
// are discovered in the background.
func (m *Module) clientOptions() *options.ClientOptions {
	opts := options.Client().ApplyURI(m.MongoDB.URI)
	if m.MongoDB.AppName != "" {
		opts.SetAppName(m.MongoDB.AppName)
	}
	if m.Pool.MaxOpenConns > 0 {
		opts.SetMaxPoolSize(uint64(m.Pool.MaxOpenConns))
	}
	if m.Pool.ConnMaxIdleTime > 0 {
		opts.SetMaxConnIdleTime(m.Pool.ConnMaxIdleTime)
	}
	if m.Timeouts.Connection > 0 {
		opts.SetConnectTimeout(m.Timeouts.Connection)
		opts.SetServerSelectionTimeout(m.Timeouts.Connection)
	}
	return opts
}

func (m *Module) provideClient(binding.Resolver) (*mongo.Client, error) {
	res, err := m.Resources.Acquire(context.Background(), m.Catalog, func(ctx context.Context) (datasource.Resource, error) {
		client, err := mongo.Connect(ctx, m.clientOptions())
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid MongoDB connection descriptor")
		}
		return &clientSource{client: client}, nil
	})
	if err != nil {
		return nil, err
	}
	src, ok := res.(*clientSource)
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeConfig, "data source of catalog %s is %T, not a MongoDB client", m.Catalog, res)
	}
	return src.client, nil
}

// BuildModules is the module set builder registered for the mongodb type
func BuildModules(cfg *config.CatalogConfig, resources datasource.Provider) ([]binding.Module, error) {
	return []binding.Module{NewModule(cfg, resources)}, nil
}

func init() {
	_ = registry.Register(registry.ConnectorInfo{
		Type:         ConnectorType,
		Description:  "MongoDB databases and collections",
		Capabilities: []string{"databases", "tables"},
	}, BuildModules)
}
