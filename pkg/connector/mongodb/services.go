package mongodb

import (
	"context"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ajitpratap0/metacat/pkg/connector/core"
	"github.com/ajitpratap0/metacat/pkg/errors"
)

var systemDatabases = []string{"admin", "config", "local"}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

func queryError(err error, msg string) error {
	return errors.Wrap(err, errors.ErrorTypeQuery, msg)
}

// visibleDatabases drops admin, config and local unless includeSystem is set
func visibleDatabases(names []string, includeSystem bool) []string {
	if includeSystem {
		return names
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !core.ContainsName(systemDatabases, n) {
			out = append(out, n)
		}
	}
	return out
}

// DatabaseService lists the databases of a deployment. MongoDB creates
// databases implicitly, so Create is unsupported.
type DatabaseService struct {
	core.UnsupportedDatabaseService
	catalog       string
	client        *mongo.Client
	includeSystem bool
	timeout       time.Duration
}

var _ core.DatabaseService = (*DatabaseService)(nil)

// NewDatabaseService creates the database service of catalog
func NewDatabaseService(catalog string, client *mongo.Client, includeSystem bool, timeout time.Duration) *DatabaseService {
	return &DatabaseService{
		UnsupportedDatabaseService: core.UnsupportedDatabaseService{Backend: ConnectorType},
		catalog:                    catalog,
		client:                     client,
		includeSystem:              includeSystem,
		timeout:                    timeout,
	}
}

func (s *DatabaseService) names(ctx context.Context) ([]string, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	names, err := s.client.ListDatabaseNames(ctx, bson.D{})
	if err != nil {
		return nil, queryError(err, "failed to list MongoDB databases")
	}
	return visibleDatabases(names, s.includeSystem), nil
}

// Exists reports whether the database exists
func (s *DatabaseService) Exists(ctx context.Context, name core.QualifiedName) (bool, error) {
	names, err := s.names(ctx)
	if err != nil {
		return false, err
	}
	return core.ContainsName(names, name.Database), nil
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
	return &core.DatabaseInfo{Name: core.NewDatabaseName(s.catalog, name.Database)}, nil
}

// List returns the databases of the deployment
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

// ListNames returns the database names of the deployment
func (s *DatabaseService) ListNames(ctx context.Context, _ core.QualifiedName, req *core.ListRequest) ([]core.QualifiedName, error) {
	names, err := s.names(ctx)
	if err != nil {
		return nil, err
	}
	return core.DatabaseNames(s.catalog, core.ApplyListRequest(names, req)), nil
}

// Delete drops a database
func (s *DatabaseService) Delete(ctx context.Context, name core.QualifiedName) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.client.Database(name.Database).Drop(ctx); err != nil {
		return queryError(err, "failed to drop MongoDB database")
	}
	return nil
}

// TableService maps collections to tables. Collections carry no schema; the
// estimated document count is reported as metadata.
type TableService struct {
	catalog string
	client  *mongo.Client
	timeout time.Duration
}

var _ core.TableService = (*TableService)(nil)

// NewTableService creates the table service of catalog
func NewTableService(catalog string, client *mongo.Client, timeout time.Duration) *TableService {
	return &TableService{catalog: catalog, client: client, timeout: timeout}
}

func (s *TableService) names(ctx context.Context, database string) ([]string, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	names, err := s.client.Database(database).ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, queryError(err, "failed to list MongoDB collections")
	}
	return names, nil
}

// Exists reports whether the collection exists
func (s *TableService) Exists(ctx context.Context, name core.QualifiedName) (bool, error) {
	names, err := s.names(ctx, name.Database)
	if err != nil {
		return false, err
	}
	return core.ContainsName(names, name.Table), nil
}

// Get returns a collection with its estimated document count
func (s *TableService) Get(ctx context.Context, name core.QualifiedName) (*core.TableInfo, error) {
	ok, err := s.Exists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeNotFound, "collection %s not found", name)
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	count, err := s.client.Database(name.Database).Collection(name.Table).EstimatedDocumentCount(ctx)
	if err != nil {
		return nil, queryError(err, "failed to count MongoDB documents")
	}
	return &core.TableInfo{
		Name:     name,
		Type:     "collection",
		Metadata: map[string]string{"estimated_document_count": strconv.FormatInt(count, 10)},
	}, nil
}

// List returns the collections of a database
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

// ListNames returns the collection names of a database
func (s *TableService) ListNames(ctx context.Context, name core.QualifiedName, req *core.ListRequest) ([]core.QualifiedName, error) {
	names, err := s.names(ctx, name.Database)
	if err != nil {
		return nil, err
	}
	return core.TableNames(core.NewDatabaseName(s.catalog, name.Database), core.ApplyListRequest(names, req)), nil
}

// Delete drops a collection
func (s *TableService) Delete(ctx context.Context, name core.QualifiedName) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.client.Database(name.Database).Collection(name.Table).Drop(ctx); err != nil {
		return queryError(err, "failed to drop MongoDB collection")
	}
	return nil
}

// renameCommand builds the admin command renaming a collection
func renameCommand(oldName, newName core.QualifiedName) bson.D {
	return bson.D{
		{Key: "renameCollection", Value: oldName.Database + "." + oldName.Table},
		{Key: "to", Value: newName.Database + "." + newName.Table},
	}
}

// Rename renames a collection, possibly across databases
func (s *TableService) Rename(ctx context.Context, oldName, newName core.QualifiedName) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.client.Database("admin").RunCommand(ctx, renameCommand(oldName, newName)).Err(); err != nil {
		return queryError(err, "failed to rename MongoDB collection")
	}
	return nil
}
