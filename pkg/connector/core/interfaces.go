// Package core defines the service triad every catalog backend provides and
// the connector factory contract that hands those services out.
package core

import (
	"context"
)

// DatabaseService lists and describes the databases of one catalog
type DatabaseService interface {
	// Create creates a database
	Create(ctx context.Context, info *DatabaseInfo) error
	// Delete drops a database
	Delete(ctx context.Context, name QualifiedName) error
	// Get returns a database or a not_found error
	Get(ctx context.Context, name QualifiedName) (*DatabaseInfo, error)
	// Exists reports whether the database exists
	Exists(ctx context.Context, name QualifiedName) (bool, error)
	// List returns the databases of the catalog named by name.Catalog
	List(ctx context.Context, name QualifiedName, req *ListRequest) ([]*DatabaseInfo, error)
	// ListNames returns the database names of the catalog
	ListNames(ctx context.Context, name QualifiedName, req *ListRequest) ([]QualifiedName, error)
}

// TableService introspects the tables of one catalog
type TableService interface {
	// Get returns a table with its fields or a not_found error
	Get(ctx context.Context, name QualifiedName) (*TableInfo, error)
	// Exists reports whether the table exists
	Exists(ctx context.Context, name QualifiedName) (bool, error)
	// List returns the tables of the database named by name
	List(ctx context.Context, name QualifiedName, req *ListRequest) ([]*TableInfo, error)
	// ListNames returns the table names of the database named by name
	ListNames(ctx context.Context, name QualifiedName, req *ListRequest) ([]QualifiedName, error)
	// Delete drops a table
	Delete(ctx context.Context, name QualifiedName) error
	// Rename renames a table inside its database
	Rename(ctx context.Context, oldName, newName QualifiedName) error
}

// PartitionService enumerates partitions of tables in one catalog
type PartitionService interface {
	// GetPartitions returns the partitions of a table
	GetPartitions(ctx context.Context, table QualifiedName, req *PartitionListRequest) ([]*PartitionInfo, error)
	// GetPartitionNames returns the partition names of a table
	GetPartitionNames(ctx context.Context, table QualifiedName, req *PartitionListRequest) ([]QualifiedName, error)
	// GetPartitionKeys returns the partition key columns of a table
	GetPartitionKeys(ctx context.Context, table QualifiedName) ([]string, error)
	// GetPartitionCount returns the number of partitions of a table
	GetPartitionCount(ctx context.Context, table QualifiedName) (int, error)
}

// ConnectorFactory binds a catalog name to an isolated set of services.
// Accessors return the same instances for the lifetime of the factory and
// fail with a resolution error once Stop has been called.
type ConnectorFactory interface {
	GetDatabaseService() (DatabaseService, error)
	GetTableService() (TableService, error)
	GetPartitionService() (PartitionService, error)
	GetName() string
	// Stop releases the factory-owned scope. Shared connection pools are not
	// closed. Calling Stop more than once is a no-op.
	Stop() error
}
