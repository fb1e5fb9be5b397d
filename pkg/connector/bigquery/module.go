// Package bigquery binds BigQuery catalogs: datasets map to databases,
// tables to tables, and table partitions are read from
// INFORMATION_SCHEMA.PARTITIONS.
package bigquery

import (
	"context"

	"cloud.google.com/go/bigquery"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"

	"github.com/ajitpratap0/metacat/pkg/config"
	"github.com/ajitpratap0/metacat/pkg/connector/binding"
	"github.com/ajitpratap0/metacat/pkg/connector/core"
	"github.com/ajitpratap0/metacat/pkg/connector/registry"
	"github.com/ajitpratap0/metacat/pkg/datasource"
	"github.com/ajitpratap0/metacat/pkg/errors"
)

// ConnectorType is the catalog type served by this package
const ConnectorType = "bigquery"

// ClientKey binds the shared client of the catalog
var ClientKey = binding.NewKey[*bigquery.Client]("bigquery.client")

type clientSource struct {
	client *bigquery.Client
}

func (c *clientSource) Close(context.Context) error {
	return c.client.Close()
}

// Module binds a BigQuery catalog
type Module struct {
	Catalog   string
	BigQuery  config.BigQueryConfig
	Timeouts  config.TimeoutConfig
	Resources datasource.Provider
}

var _ binding.Module = (*Module)(nil)

// NewModule creates the module of a catalog configuration
func NewModule(cfg *config.CatalogConfig, resources datasource.Provider) *Module {
	return &Module{
		Catalog:   cfg.Name,
		BigQuery:  cfg.BigQuery,
		Timeouts:  cfg.Timeouts,
		Resources: resources,
	}
}

// Name returns the module name
func (m *Module) Name() string { return ConnectorType }

// Configure binds the client and the service triad
func (m *Module) Configure(b *binding.Binder) error {
	if m.Catalog == "" {
		return errors.New(errors.ErrorTypeConfig, "bigquery module needs a catalog name")
	}
	if m.BigQuery.ProjectID == "" {
		return errors.New(errors.ErrorTypeConfig, "bigquery.project_id is required")
	}
	if m.Resources == nil {
		return errors.New(errors.ErrorTypeConfig, "bigquery module needs a datasource provider")
	}

	binding.Bind(b, ClientKey, m.provideClient)
	binding.Bind(b, core.DatabaseServiceKey, func(r binding.Resolver) (core.DatabaseService, error) {
		client, err := binding.Get(r, ClientKey)
		if err != nil {
			return nil, err
		}
		return NewDatabaseService(m.Catalog, client, m.BigQuery.Location, m.Timeouts.Request), nil
	})
	binding.Bind(b, core.TableServiceKey, func(r binding.Resolver) (core.TableService, error) {
		client, err := binding.Get(r, ClientKey)
		if err != nil {
			return nil, err
		}
		return NewTableService(m.Catalog, client, m.BigQuery.Location, m.Timeouts.Request), nil
	})
	binding.Bind(b, core.PartitionServiceKey, func(r binding.Resolver) (core.PartitionService, error) {
		client, err := binding.Get(r, ClientKey)
		if err != nil {
			return nil, err
		}
		return NewPartitionService(m.Catalog, client, m.BigQuery.Location, m.Timeouts.Request), nil
	})
	return nil
}

func (m *Module) clientOptions() []option.ClientOption {
	var opts []option.ClientOption
	if m.BigQuery.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(m.BigQuery.Endpoint), option.WithoutAuthentication())
	} else if m.BigQuery.AccessToken != "" {
		opts = append(opts, option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: m.BigQuery.AccessToken,
			TokenType:   "Bearer",
		})))
	} else if m.BigQuery.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(m.BigQuery.CredentialsFile))
	}
	return opts
}

func (m *Module) provideClient(binding.Resolver) (*bigquery.Client, error) {
	res, err := m.Resources.Acquire(context.Background(), m.Catalog, func(ctx context.Context) (datasource.Resource, error) {
		client, err := bigquery.NewClient(ctx, m.BigQuery.ProjectID, m.clientOptions()...)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to create BigQuery client")
		}
		if m.BigQuery.Location != "" {
			client.Location = m.BigQuery.Location
		}
		return &clientSource{client: client}, nil
	})
	if err != nil {
		return nil, err
	}
	src, ok := res.(*clientSource)
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeConfig, "data source of catalog %s is %T, not a BigQuery client", m.Catalog, res)
	}
	return src.client, nil
}

// BuildModules is the module set builder registered for the bigquery type
func BuildModules(cfg *config.CatalogConfig, resources datasource.Provider) ([]binding.Module, error) {
	return []binding.Module{NewModule(cfg, resources)}, nil
}

func init() {
	_ = registry.Register(registry.ConnectorInfo{
		Type:         ConnectorType,
		Description:  "BigQuery datasets, tables and partitions",
		Capabilities: []string{"databases", "tables", "partitions"},
	}, BuildModules)
}
