package core

import "github.com/ajitpratap0/metacat/pkg/connector/binding"

// Binding keys of the service triad. A module set is complete when, after
// every module has been applied, all three are bound.
var (
	DatabaseServiceKey  = binding.NewKey[DatabaseService]("database_service")
	TableServiceKey     = binding.NewKey[TableService]("table_service")
	PartitionServiceKey = binding.NewKey[PartitionService]("partition_service")
)

// ServiceKeys returns the keys a connector factory requires
func ServiceKeys() []binding.Named {
	return []binding.Named{DatabaseServiceKey, TableServiceKey, PartitionServiceKey}
}
