package jdbc

import (
	"context"

	"github.com/ajitpratap0/metacat/pkg/connector/core"
	"github.com/ajitpratap0/metacat/pkg/datasource"
	"github.com/ajitpratap0/metacat/pkg/errors"
)

// DatabaseService maps the schemas of a relational catalog to databases
type DatabaseService struct {
	catalog  string
	dialect  Dialect
	template *datasource.Template
}

var _ core.DatabaseService = (*DatabaseService)(nil)

// NewDatabaseService creates the database service of catalog
func NewDatabaseService(catalog string, dialect Dialect, template *datasource.Template) *DatabaseService {
	return &DatabaseService{catalog: catalog, dialect: dialect, template: template}
}

func (s *DatabaseService) names(ctx context.Context) ([]string, error) {
	q := s.dialect.Databases()
	return s.template.QueryStrings(ctx, q.Query, q.Args...)
}

// Create creates a schema
func (s *DatabaseService) Create(ctx context.Context, info *core.DatabaseInfo) error {
	if info == nil || info.Name.Database == "" {
		return errors.New(errors.ErrorTypeValidation, "database name is required")
	}
	q := s.dialect.CreateDatabase(info.Name.Database)
	if q.Query == "" {
		return core.Unsupported(s.dialect.Name(), "database create")
	}
	return s.template.Exec(ctx, q.Query, q.Args...)
}

// Delete drops a schema
func (s *DatabaseService) Delete(ctx context.Context, name core.QualifiedName) error {
	q := s.dialect.DropDatabase(name.Database)
	if q.Query == "" {
		return core.Unsupported(s.dialect.Name(), "database delete")
	}
	return s.template.Exec(ctx, q.Query, q.Args...)
}

// Get returns a database or a not_found error
func (s *DatabaseService) Get(ctx context.Context, name core.QualifiedName) (*core.DatabaseInfo, error) {
	ok, err := s.Exists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeNotFound, "database %s not found", name)
	}
	return s.info(name.Database), nil
}

// Exists reports whether the schema exists
func (s *DatabaseService) Exists(ctx context.Context, name core.QualifiedName) (bool, error) {
	names, err := s.names(ctx)
	if err != nil {
		return false, err
	}
	return core.ContainsName(names, name.Database), nil
}

// List returns the schemas of the catalog
func (s *DatabaseService) List(ctx context.Context, _ core.QualifiedName, req *core.ListRequest) ([]*core.DatabaseInfo, error) {
	names, err := s.names(ctx)
	if err != nil {
		return nil, err
	}
	names = core.ApplyListRequest(names, req)
	out := make([]*core.DatabaseInfo, len(names))
	for i, n := range names {
		out[i] = s.info(n)
	}
	return out, nil
}

// ListNames returns the schema names of the catalog
func (s *DatabaseService) ListNames(ctx context.Context, _ core.QualifiedName, req *core.ListRequest) ([]core.QualifiedName, error) {
	names, err := s.names(ctx)
	if err != nil {
		return nil, err
	}
	return core.DatabaseNames(s.catalog, core.ApplyListRequest(names, req)), nil
}

func (s *DatabaseService) info(database string) *core.DatabaseInfo {
	return &core.DatabaseInfo{
		Name:     core.NewDatabaseName(s.catalog, database),
		Metadata: map[string]string{"dialect": s.dialect.Name()},
	}
}
