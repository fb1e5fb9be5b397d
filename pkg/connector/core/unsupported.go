package core

import (
	"context"

	"github.com/ajitpratap0/metacat/pkg/errors"
)

// Unsupported returns the capability error a service raises for an operation
// its backend does not offer
func Unsupported(backend, operation string) error {
	return errors.Newf(errors.ErrorTypeCapability, "%s is not supported by %s", operation, backend).
		WithDetail("backend", backend).
		WithDetail("operation", operation)
}

// UnsupportedDatabaseService implements DatabaseService by failing every call.
// Backends embed it and override the operations they support.
type UnsupportedDatabaseService struct {
	Backend string
}

var _ DatabaseService = UnsupportedDatabaseService{}

func (s UnsupportedDatabaseService) Create(context.Context, *DatabaseInfo) error {
	return Unsupported(s.Backend, "database create")
}

func (s UnsupportedDatabaseService) Delete(context.Context, QualifiedName) error {
	return Unsupported(s.Backend, "database delete")
}

func (s UnsupportedDatabaseService) Get(context.Context, QualifiedName) (*DatabaseInfo, error) {
	return nil, Unsupported(s.Backend, "database get")
}

func (s UnsupportedDatabaseService) Exists(context.Context, QualifiedName) (bool, error) {
	return false, Unsupported(s.Backend, "database exists")
}

func (s UnsupportedDatabaseService) List(context.Context, QualifiedName, *ListRequest) ([]*DatabaseInfo, error) {
	return nil, Unsupported(s.Backend, "database list")
}

func (s UnsupportedDatabaseService) ListNames(context.Context, QualifiedName, *ListRequest) ([]QualifiedName, error) {
	return nil, Unsupported(s.Backend, "database list names")
}

// UnsupportedTableService implements TableService by failing every call
type UnsupportedTableService struct {
	Backend string
}

var _ TableService = UnsupportedTableService{}

func (s UnsupportedTableService) Get(context.Context, QualifiedName) (*TableInfo, error) {
	return nil, Unsupported(s.Backend, "table get")
}

func (s UnsupportedTableService) Exists(context.Context, QualifiedName) (bool, error) {
	return false, Unsupported(s.Backend, "table exists")
}

func (s UnsupportedTableService) List(context.Context, QualifiedName, *ListRequest) ([]*TableInfo, error) {
	return nil, Unsupported(s.Backend, "table list")
}

func (s UnsupportedTableService) ListNames(context.Context, QualifiedName, *ListRequest) ([]QualifiedName, error) {
	return nil, Unsupported(s.Backend, "table list names")
}

func (s UnsupportedTableService) Delete(context.Context, QualifiedName) error {
	return Unsupported(s.Backend, "table delete")
}

func (s UnsupportedTableService) Rename(context.Context, QualifiedName, QualifiedName) error {
	return Unsupported(s.Backend, "table rename")
}

// UnsupportedPartitionService implements PartitionService for backends with no
// partition concept
type UnsupportedPartitionService struct {
	Backend string
}

var _ PartitionService = UnsupportedPartitionService{}

func (s UnsupportedPartitionService) GetPartitions(context.Context, QualifiedName, *PartitionListRequest) ([]*PartitionInfo, error) {
	return nil, Unsupported(s.Backend, "partitions")
}

func (s UnsupportedPartitionService) GetPartitionNames(context.Context, QualifiedName, *PartitionListRequest) ([]QualifiedName, error) {
	return nil, Unsupported(s.Backend, "partitions")
}

func (s UnsupportedPartitionService) GetPartitionKeys(context.Context, QualifiedName) ([]string, error) {
	return nil, Unsupported(s.Backend, "partitions")
}

func (s UnsupportedPartitionService) GetPartitionCount(context.Context, QualifiedName) (int, error) {
	return 0, Unsupported(s.Backend, "partitions")
}
