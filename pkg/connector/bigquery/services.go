package bigquery

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"

	"github.com/ajitpratap0/metacat/pkg/connector/core"
	"github.com/ajitpratap0/metacat/pkg/errors"
)

// ingestionTimeColumn is the pseudo column of ingestion-time partitioned tables
const ingestionTimeColumn = "_PARTITIONTIME"

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return stderrors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}

// apiError maps a 404 to not_found and everything else to a query error
func apiError(err error, name core.QualifiedName, msg string) error {
	if isNotFound(err) {
		return errors.Wrap(err, errors.ErrorTypeNotFound, fmt.Sprintf("%s not found", name))
	}
	return errors.Wrap(err, errors.ErrorTypeQuery, msg)
}

func collect[T any](next func() (T, error)) ([]T, error) {
	var out []T
	for {
		v, err := next()
		if err == iterator.Done {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}

// DatabaseService maps datasets to databases
type DatabaseService struct {
	catalog  string
	client   *bigquery.Client
	location string
	timeout  time.Duration
}

var _ core.DatabaseService = (*DatabaseService)(nil)

// NewDatabaseService creates the database service of catalog
func NewDatabaseService(catalog string, client *bigquery.Client, location string, timeout time.Duration) *DatabaseService {
	return &DatabaseService{catalog: catalog, client: client, location: location, timeout: timeout}
}

func (s *DatabaseService) names(ctx context.Context) ([]string, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	it := s.client.Datasets(ctx)
	names, err := collect(func() (string, error) {
		ds, err := it.Next()
		if err != nil {
			return "", err
		}
		return ds.DatasetID, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeQuery, "failed to list BigQuery datasets")
	}
	return names, nil
}

// Create creates a dataset in the configured location
func (s *DatabaseService) Create(ctx context.Context, info *core.DatabaseInfo) error {
	if info == nil || info.Name.Database == "" {
		return errors.New(errors.ErrorTypeValidation, "dataset name is required")
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	md := &bigquery.DatasetMetadata{Location: s.location, Description: info.Metadata["description"]}
	if err := s.client.Dataset(info.Name.Database).Create(ctx, md); err != nil {
		return errors.Wrap(err, errors.ErrorTypeQuery, "failed to create BigQuery dataset")
	}
	return nil
}

// Delete deletes an empty dataset
func (s *DatabaseService) Delete(ctx context.Context, name core.QualifiedName) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.client.Dataset(name.Database).Delete(ctx); err != nil {
		return apiError(err, name, "failed to delete BigQuery dataset")
	}
	return nil
}

// Get returns dataset metadata
func (s *DatabaseService) Get(ctx context.Context, name core.QualifiedName) (*core.DatabaseInfo, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	md, err := s.client.Dataset(name.Database).Metadata(ctx)
	if err != nil {
		return nil, apiError(err, name, "failed to read BigQuery dataset")
	}
	return datasetInfo(core.NewDatabaseName(s.catalog, name.Database), md), nil
}

func datasetInfo(name core.QualifiedName, md *bigquery.DatasetMetadata) *core.DatabaseInfo {
	info := &core.DatabaseInfo{
		Name: name,
		URI:  md.FullID,
		Audit: core.AuditInfo{
			CreatedDate:  md.CreationTime,
			LastModified: md.LastModifiedTime,
		},
		Metadata: map[string]string{"location": md.Location},
	}
	if md.Description != "" {
		info.Metadata["description"] = md.Description
	}
	return info
}

// Exists reports whether the dataset exists
func (s *DatabaseService) Exists(ctx context.Context, name core.QualifiedName) (bool, error) {
	_, err := s.Get(ctx, name)
	if errors.IsNotFound(err) {
		return false, nil
	}
	return err == nil, err
}

// List returns the datasets of the project
func (s *DatabaseService) List(ctx context.Context, name core.QualifiedName, req *core.ListRequest) ([]*core.DatabaseInfo, error) {
	names, err := s.ListNames(ctx, name, req)
	if err != nil {
		return nil, err
	}
	out := make([]*core.DatabaseInfo, len(names))
	for i, n := range names {
		out[i] = &core.DatabaseInfo{Name: n}
	}
	return out, nil
}

// ListNames returns the dataset names of the project
func (s *DatabaseService) ListNames(ctx context.Context, _ core.QualifiedName, req *core.ListRequest) ([]core.QualifiedName, error) {
	names, err := s.names(ctx)
	if err != nil {
		return nil, err
	}
	return core.DatabaseNames(s.catalog, core.ApplyListRequest(names, req)), nil
}

// TableService introspects BigQuery tables
type TableService struct {
	catalog  string
	client   *bigquery.Client
	location string
	timeout  time.Duration
}

var _ core.TableService = (*TableService)(nil)

// NewTableService creates the table service of catalog
func NewTableService(catalog string, client *bigquery.Client, location string, timeout time.Duration) *TableService {
	return &TableService{catalog: catalog, client: client, location: location, timeout: timeout}
}

func (s *TableService) names(ctx context.Context, dataset string) ([]string, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	it := s.client.Dataset(dataset).Tables(ctx)
	names, err := collect(func() (string, error) {
		t, err := it.Next()
		if err != nil {
			return "", err
		}
		return t.TableID, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeQuery, "failed to list BigQuery tables")
	}
	return names, nil
}

// partitionColumn returns the partitioning column of a table, if any
func partitionColumn(md *bigquery.TableMetadata) string {
	switch {
	case md.TimePartitioning != nil && md.TimePartitioning.Field != "":
		return md.TimePartitioning.Field
	case md.TimePartitioning != nil:
		return ingestionTimeColumn
	case md.RangePartitioning != nil:
		return md.RangePartitioning.Field
	}
	return ""
}

// fieldsFromSchema flattens the top-level schema into fields
func fieldsFromSchema(schema bigquery.Schema, partitionCol string) []core.FieldInfo {
	fields := make([]core.FieldInfo, 0, len(schema))
	for i, f := range schema {
		typ := string(f.Type)
		if f.Repeated {
			typ = "ARRAY<" + typ + ">"
		}
		fields = append(fields, core.FieldInfo{
			Name:         f.Name,
			Type:         typ,
			Comment:      f.Description,
			Nullable:     !f.Required,
			DefaultValue: f.DefaultValueExpression,
			Position:     i + 1,
			PartitionKey: f.Name == partitionCol,
		})
	}
	return fields
}

func tableInfo(name core.QualifiedName, md *bigquery.TableMetadata) *core.TableInfo {
	info := &core.TableInfo{
		Name:   name,
		Type:   string(md.Type),
		Fields: fieldsFromSchema(md.Schema, partitionColumn(md)),
		Audit: core.AuditInfo{
			CreatedDate:  md.CreationTime,
			LastModified: md.LastModifiedTime,
		},
		Metadata: map[string]string{"num_rows": fmt.Sprint(md.NumRows)},
	}
	if col := partitionColumn(md); col != "" {
		info.Metadata["partition_column"] = col
	}
	if md.Description != "" {
		info.Metadata["description"] = md.Description
	}
	return info
}

// Get returns a table with its schema
func (s *TableService) Get(ctx context.Context, name core.QualifiedName) (*core.TableInfo, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	md, err := s.client.Dataset(name.Database).Table(name.Table).Metadata(ctx)
	if err != nil {
		return nil, apiError(err, name, "failed to read BigQuery table")
	}
	return tableInfo(name, md), nil
}

// Exists reports whether the table exists
func (s *TableService) Exists(ctx context.Context, name core.QualifiedName) (bool, error) {
	_, err := s.Get(ctx, name)
	if errors.IsNotFound(err) {
		return false, nil
	}
	return err == nil, err
}

// List returns the tables of a dataset with their schemas
func (s *TableService) List(ctx context.Context, name core.QualifiedName, req *core.ListRequest) ([]*core.TableInfo, error) {
	names, err := s.ListNames(ctx, name, req)
	if err != nil {
		return nil, err
	}
	out := make([]*core.TableInfo, 0, len(names))
	for _, n := range names {
		t, err := s.Get(ctx, n)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// ListNames returns the table names of a dataset
func (s *TableService) ListNames(ctx context.Context, name core.QualifiedName, req *core.ListRequest) ([]core.QualifiedName, error) {
	names, err := s.names(ctx, name.Database)
	if err != nil {
		return nil, err
	}
	return core.TableNames(core.NewDatabaseName(s.catalog, name.Database), core.ApplyListRequest(names, req)), nil
}

// Delete deletes a table
func (s *TableService) Delete(ctx context.Context, name core.QualifiedName) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.client.Dataset(name.Database).Table(name.Table).Delete(ctx); err != nil {
		return apiError(err, name, "failed to delete BigQuery table")
	}
	return nil
}

func quoteTable(dataset, table string) string {
	return "`" + strings.ReplaceAll(dataset+"."+table, "`", "") + "`"
}

// renameStatement builds the DDL renaming a table inside its dataset
func renameStatement(oldName, newName core.QualifiedName) string {
	return fmt.Sprintf("ALTER TABLE %s RENAME TO `%s`", quoteTable(oldName.Database, oldName.Table),
		strings.ReplaceAll(newName.Table, "`", ""))
}

// Rename renames a table with an ALTER TABLE job
func (s *TableService) Rename(ctx context.Context, oldName, newName core.QualifiedName) error {
	if oldName.Database != newName.Database {
		return core.Unsupported(ConnectorType, "table rename across datasets")
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	q := s.client.Query(renameStatement(oldName, newName))
	q.Location = s.location
	job, err := q.Run(ctx)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeQuery, "failed to start BigQuery rename")
	}
	status, err := job.Wait(ctx)
	if err == nil {
		err = status.Err()
	}
	if err != nil {
		return apiError(err, oldName, "BigQuery rename failed")
	}
	return nil
}

// PartitionService reads partitions from INFORMATION_SCHEMA.PARTITIONS
type PartitionService struct {
	catalog  string
	client   *bigquery.Client
	location string
	timeout  time.Duration
}

var _ core.PartitionService = (*PartitionService)(nil)

// NewPartitionService creates the partition service of catalog
func NewPartitionService(catalog string, client *bigquery.Client, location string, timeout time.Duration) *PartitionService {
	return &PartitionService{catalog: catalog, client: client, location: location, timeout: timeout}
}

// partitionsQuery selects the partitions of one table in a dataset
func partitionsQuery(project, dataset string) string {
	return fmt.Sprintf("SELECT partition_id, IFNULL(CAST(total_rows AS STRING), '') FROM `%s.%s.INFORMATION_SCHEMA.PARTITIONS` "+
		"WHERE table_name = @table AND partition_id IS NOT NULL ORDER BY partition_id",
		strings.ReplaceAll(project, "`", ""), strings.ReplaceAll(dataset, "`", ""))
}

type partitionRow struct {
	id   string
	rows string
}

func (s *PartitionService) rows(ctx context.Context, table core.QualifiedName) ([]partitionRow, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	q := s.client.Query(partitionsQuery(s.client.Project(), table.Database))
	q.Location = s.location
	q.Parameters = []bigquery.QueryParameter{{Name: "table", Value: table.Table}}
	it, err := q.Read(ctx)
	if err != nil {
		return nil, apiError(err, table, "failed to query BigQuery partitions")
	}
	out, err := collect(func() (partitionRow, error) {
		var values []bigquery.Value
		if err := it.Next(&values); err != nil {
			return partitionRow{}, err
		}
		return partitionRow{id: fmt.Sprint(values[0]), rows: fmt.Sprint(values[1])}, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeQuery, "failed to read BigQuery partitions")
	}
	return out, nil
}

func (s *PartitionService) filtered(ctx context.Context, table core.QualifiedName, req *core.PartitionListRequest) ([]string, map[string]string, error) {
	rows, err := s.rows(ctx, table)
	if err != nil {
		return nil, nil, err
	}
	counts := make(map[string]string, len(rows))
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		if req != nil && len(req.Names) > 0 && !core.ContainsName(req.Names, r.id) {
			continue
		}
		counts[r.id] = r.rows
		names = append(names, r.id)
	}
	var lr *core.ListRequest
	if req != nil {
		lr = &req.ListRequest
	}
	return core.ApplyListRequest(names, lr), counts, nil
}

// GetPartitions returns the partitions of a table with their row counts
func (s *PartitionService) GetPartitions(ctx context.Context, table core.QualifiedName, req *core.PartitionListRequest) ([]*core.PartitionInfo, error) {
	names, counts, err := s.filtered(ctx, table, req)
	if err != nil {
		return nil, err
	}
	out := make([]*core.PartitionInfo, len(names))
	for i, n := range names {
		name := table
		name.Partition = n
		out[i] = &core.PartitionInfo{Name: name, Values: n, Metadata: map[string]string{"total_rows": counts[n]}}
	}
	return out, nil
}

// GetPartitionNames returns the partition ids of a table
func (s *PartitionService) GetPartitionNames(ctx context.Context, table core.QualifiedName, req *core.PartitionListRequest) ([]core.QualifiedName, error) {
	names, _, err := s.filtered(ctx, table, req)
	if err != nil {
		return nil, err
	}
	out := make([]core.QualifiedName, len(names))
	for i, n := range names {
		out[i] = table
		out[i].Partition = n
	}
	return out, nil
}

// GetPartitionKeys returns the partitioning column of a table
func (s *PartitionService) GetPartitionKeys(ctx context.Context, table core.QualifiedName) ([]string, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	md, err := s.client.Dataset(table.Database).Table(table.Table).Metadata(ctx)
	if err != nil {
		return nil, apiError(err, table, "failed to read BigQuery table")
	}
	if col := partitionColumn(md); col != "" {
		return []string{col}, nil
	}
	return []string{}, nil
}

// GetPartitionCount returns the number of partitions of a table
func (s *PartitionService) GetPartitionCount(ctx context.Context, table core.QualifiedName) (int, error) {
	rows, err := s.rows(ctx, table)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}
