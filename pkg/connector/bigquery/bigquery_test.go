package bigquery

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"cloud.google.com/go/bigquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"

	"github.com/ajitpratap0/metacat/pkg/config"
	"github.com/ajitpratap0/metacat/pkg/connector/core"
	"github.com/ajitpratap0/metacat/pkg/connector/factory"
	"github.com/ajitpratap0/metacat/pkg/connector/registry"
	"github.com/ajitpratap0/metacat/pkg/datasource"
	"github.com/ajitpratap0/metacat/pkg/errors"
)

func TestPartitionColumn(t *testing.T) {
	assert.Equal(t, "", partitionColumn(&bigquery.TableMetadata{}))
	assert.Equal(t, "event_date", partitionColumn(&bigquery.TableMetadata{
		TimePartitioning: &bigquery.TimePartitioning{Field: "event_date"},
	}))
	assert.Equal(t, "_PARTITIONTIME", partitionColumn(&bigquery.TableMetadata{
		TimePartitioning: &bigquery.TimePartitioning{},
	}))
	assert.Equal(t, "customer_id", partitionColumn(&bigquery.TableMetadata{
		RangePartitioning: &bigquery.RangePartitioning{Field: "customer_id"},
	}))
}

func TestTableInfoFromMetadata(t *testing.T) {
	md := &bigquery.TableMetadata{
		Type: bigquery.RegularTable,
		Schema: bigquery.Schema{
			{Name: "id", Type: bigquery.IntegerFieldType, Required: true},
			{Name: "event_date", Type: bigquery.DateFieldType},
			{Name: "tags", Type: bigquery.StringFieldType, Repeated: true, Description: "free form"},
		},
		TimePartitioning: &bigquery.TimePartitioning{Field: "event_date"},
		NumRows:          42,
	}
	name := core.NewTableName("analytics", "events", "clicks")

	info := tableInfo(name, md)
	assert.Equal(t, name, info.Name)
	assert.Equal(t, "TABLE", info.Type)
	require.Len(t, info.Fields, 3)
	assert.Equal(t, core.FieldInfo{Name: "id", Type: "INTEGER", Nullable: false, Position: 1}, info.Fields[0])
	assert.Equal(t, "ARRAY<STRING>", info.Fields[2].Type)
	assert.Equal(t, "free form", info.Fields[2].Comment)
	assert.Equal(t, []string{"event_date"}, info.PartitionKeys())
	assert.Equal(t, "42", info.Metadata["num_rows"])
	assert.Equal(t, "event_date", info.Metadata["partition_column"])
}

func TestQueries(t *testing.T) {
	assert.Equal(t,
		"ALTER TABLE `events.clicks` RENAME TO `clicks_v2`",
		renameStatement(core.NewTableName("a", "events", "clicks"), core.NewTableName("a", "events", "clicks_v2")))

	q := partitionsQuery("my-project", "events")
	assert.Contains(t, q, "`my-project.events.INFORMATION_SCHEMA.PARTITIONS`")
	assert.Contains(t, q, "table_name = @table")
}

func TestAPIErrors(t *testing.T) {
	name := core.NewTableName("a", "events", "missing")
	notFound := &googleapi.Error{Code: http.StatusNotFound, Message: "Not found: Table"}

	assert.True(t, isNotFound(fmt.Errorf("wrapped: %w", notFound)))
	assert.True(t, errors.IsNotFound(apiError(notFound, name, "read")))
	assert.True(t, errors.IsType(apiError(&googleapi.Error{Code: http.StatusForbidden}, name, "read"), errors.ErrorTypeQuery))
}

func TestModule_BuildsWithoutCalls(t *testing.T) {
	ctx := context.Background()
	manager := datasource.NewManager()
	t.Cleanup(func() { _ = manager.Close(ctx) })

	cfg := config.NewCatalogConfig("analytics", ConnectorType)
	cfg.BigQuery = config.BigQueryConfig{ProjectID: "demo-project", Endpoint: "http://127.0.0.1:1", Location: "EU"}

	modules, err := registry.BuildModules(cfg, manager)
	require.NoError(t, err)
	f, err := factory.New(cfg.Name, modules, factory.WithLogger(zap.NewNop()))
	require.NoError(t, err)

	parts, err := f.GetPartitionService()
	require.NoError(t, err)
	assert.IsType(t, &PartitionService{}, parts)

	tables, err := f.GetTableService()
	require.NoError(t, err)
	err = tables.Rename(ctx, core.NewTableName("analytics", "a", "t"), core.NewTableName("analytics", "b", "t"))
	assert.True(t, errors.IsUnsupported(err))

	require.NoError(t, f.Stop())
	assert.Equal(t, []string{"analytics"}, manager.Catalogs(), "the client stays with the datasource manager")
}

func TestModule_ClientOptions(t *testing.T) {
	m := &Module{BigQuery: config.BigQueryConfig{ProjectID: "p"}}
	assert.Empty(t, m.clientOptions(), "application default credentials")

	m.BigQuery.CredentialsFile = "/etc/metacat/sa.json"
	assert.Len(t, m.clientOptions(), 1)

	m.BigQuery.AccessToken = "ya29.token"
	assert.Len(t, m.clientOptions(), 1)

	m.BigQuery.Endpoint = "http://localhost:9050"
	assert.Len(t, m.clientOptions(), 2, "emulator endpoint without authentication")
}

func TestModule_RequiresProject(t *testing.T) {
	cfg := config.NewCatalogConfig("analytics", ConnectorType)
	modules, err := BuildModules(cfg, datasource.NewManager())
	require.NoError(t, err)

	_, err = factory.New(cfg.Name, modules, factory.WithLogger(zap.NewNop()))
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
	assert.Contains(t, err.Error(), "bigquery.project_id is required")
}
