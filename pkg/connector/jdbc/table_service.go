package jdbc

import (
	"context"
	"database/sql"

	"github.com/ajitpratap0/metacat/pkg/connector/core"
	"github.com/ajitpratap0/metacat/pkg/datasource"
	"github.com/ajitpratap0/metacat/pkg/errors"
)

// TableService introspects tables through the dialect's column views
type TableService struct {
	catalog  string
	dialect  Dialect
	template *datasource.Template
}

var _ core.TableService = (*TableService)(nil)

// NewTableService creates the table service of catalog
func NewTableService(catalog string, dialect Dialect, template *datasource.Template) *TableService {
	return &TableService{catalog: catalog, dialect: dialect, template: template}
}

func (s *TableService) names(ctx context.Context, database string) ([]string, error) {
	q := s.dialect.Tables(database)
	return s.template.QueryStrings(ctx, q.Query, q.Args...)
}

func scanField(rows *sql.Rows) (core.FieldInfo, error) {
	var (
		f        core.FieldInfo
		nullable string
	)
	if err := rows.Scan(&f.Name, &f.Type, &nullable, &f.DefaultValue, &f.Position); err != nil {
		return f, err
	}
	f.Nullable = nullable == "YES"
	return f, nil
}

// Get returns a table with its columns. Partition key columns are flagged
// when the dialect supports partitioning.
func (s *TableService) Get(ctx context.Context, name core.QualifiedName) (*core.TableInfo, error) {
	q := s.dialect.Columns(name.Database, name.Table)
	fields, err := datasource.Query(ctx, s.template, scanField, q.Query, q.Args...)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errors.Newf(errors.ErrorTypeNotFound, "table %s not found", name)
	}

	if pd, ok := s.dialect.(PartitionDialect); ok {
		keys, err := partitionKeys(ctx, s.template, pd, name)
		if err != nil {
			return nil, err
		}
		for i := range fields {
			fields[i].PartitionKey = core.ContainsName(keys, fields[i].Name)
		}
	}

	return &core.TableInfo{
		Name:     name,
		Fields:   fields,
		Metadata: map[string]string{"dialect": s.dialect.Name()},
	}, nil
}

// Exists reports whether the table exists
func (s *TableService) Exists(ctx context.Context, name core.QualifiedName) (bool, error) {
	names, err := s.names(ctx, name.Database)
	if err != nil {
		return false, err
	}
	return core.ContainsName(names, name.Table), nil
}

// List returns the tables of a database with their columns
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

// ListNames returns the table names of a database
func (s *TableService) ListNames(ctx context.Context, name core.QualifiedName, req *core.ListRequest) ([]core.QualifiedName, error) {
	names, err := s.names(ctx, name.Database)
	if err != nil {
		return nil, err
	}
	return core.TableNames(core.NewDatabaseName(s.catalog, name.Database), core.ApplyListRequest(names, req)), nil
}

// Delete drops a table
func (s *TableService) Delete(ctx context.Context, name core.QualifiedName) error {
	q := s.dialect.DropTable(name.Database, name.Table)
	return s.template.Exec(ctx, q.Query, q.Args...)
}

// Rename renames a table within its database
func (s *TableService) Rename(ctx context.Context, oldName, newName core.QualifiedName) error {
	if oldName.Database != newName.Database {
		return core.Unsupported(s.dialect.Name(), "table rename across databases")
	}
	ok, err := s.Exists(ctx, oldName)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Newf(errors.ErrorTypeNotFound, "table %s not found", oldName)
	}
	q := s.dialect.RenameTable(oldName.Database, oldName.Table, newName.Table)
	return s.template.Exec(ctx, q.Query, q.Args...)
}
