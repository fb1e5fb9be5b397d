package jdbc

import (
	"context"
	"database/sql"
	"strings"

	"github.com/ajitpratap0/metacat/pkg/connector/core"
	"github.com/ajitpratap0/metacat/pkg/datasource"
)

// PartitionService enumerates native partitions of engines that have them
type PartitionService struct {
	catalog  string
	dialect  PartitionDialect
	template *datasource.Template
}

var _ core.PartitionService = (*PartitionService)(nil)

// NewPartitionService creates the partition service of catalog
func NewPartitionService(catalog string, dialect PartitionDialect, template *datasource.Template) *PartitionService {
	return &PartitionService{catalog: catalog, dialect: dialect, template: template}
}

type partitionRow struct {
	name   string
	values string
}

func (s *PartitionService) rows(ctx context.Context, table core.QualifiedName) ([]partitionRow, error) {
	q := s.dialect.Partitions(table.Database, table.Table)
	return datasource.Query(ctx, s.template, func(rows *sql.Rows) (partitionRow, error) {
		var r partitionRow
		err := rows.Scan(&r.name, &r.values)
		return r, err
	}, q.Query, q.Args...)
}

func (s *PartitionService) filtered(ctx context.Context, table core.QualifiedName, req *core.PartitionListRequest) ([]string, map[string]string, error) {
	rows, err := s.rows(ctx, table)
	if err != nil {
		return nil, nil, err
	}
	values := make(map[string]string, len(rows))
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		if req != nil && len(req.Names) > 0 && !core.ContainsName(req.Names, r.name) {
			continue
		}
		values[r.name] = r.values
		names = append(names, r.name)
	}
	var lr *core.ListRequest
	if req != nil {
		lr = &req.ListRequest
	}
	return core.ApplyListRequest(names, lr), values, nil
}

func partitionName(table core.QualifiedName, partition string) core.QualifiedName {
	table.Partition = partition
	return table
}

// GetPartitions returns the partitions of a table with their bound expressions
func (s *PartitionService) GetPartitions(ctx context.Context, table core.QualifiedName, req *core.PartitionListRequest) ([]*core.PartitionInfo, error) {
	names, values, err := s.filtered(ctx, table, req)
	if err != nil {
		return nil, err
	}
	out := make([]*core.PartitionInfo, len(names))
	for i, n := range names {
		out[i] = &core.PartitionInfo{Name: partitionName(table, n), Values: values[n]}
	}
	return out, nil
}

// GetPartitionNames returns the partition names of a table
func (s *PartitionService) GetPartitionNames(ctx context.Context, table core.QualifiedName, req *core.PartitionListRequest) ([]core.QualifiedName, error) {
	names, _, err := s.filtered(ctx, table, req)
	if err != nil {
		return nil, err
	}
	out := make([]core.QualifiedName, len(names))
	for i, n := range names {
		out[i] = partitionName(table, n)
	}
	return out, nil
}

// GetPartitionKeys returns the partition key columns of a table
func (s *PartitionService) GetPartitionKeys(ctx context.Context, table core.QualifiedName) ([]string, error) {
	return partitionKeys(ctx, s.template, s.dialect, table)
}

// GetPartitionCount returns the number of partitions of a table
func (s *PartitionService) GetPartitionCount(ctx context.Context, table core.QualifiedName) (int, error) {
	rows, err := s.rows(ctx, table)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func partitionKeys(ctx context.Context, t *datasource.Template, d PartitionDialect, table core.QualifiedName) ([]string, error) {
	q := d.PartitionKeys(table.Database, table.Table)
	exprs, err := t.QueryStrings(ctx, q.Query, q.Args...)
	if err != nil {
		return nil, err
	}
	return splitKeyExpressions(exprs), nil
}

// splitKeyExpressions turns "`region`,`day`" style expressions into column names
func splitKeyExpressions(exprs []string) []string {
	var keys []string
	for _, e := range exprs {
		for _, part := range strings.Split(e, ",") {
			k := strings.Trim(strings.TrimSpace(part), "`\"")
			if k != "" && !core.ContainsName(keys, k) {
				keys = append(keys, k)
			}
		}
	}
	return keys
}
