package core

import (
	"strings"
	"time"
)

// QualifiedName identifies a catalog object. Database, Table and Partition are
// filled from left to right; a database name has an empty Table.
type QualifiedName struct {
	Catalog   string `json:"catalog"`
	Database  string `json:"database,omitempty"`
	Table     string `json:"table,omitempty"`
	Partition string `json:"partition,omitempty"`
}

// NewDatabaseName returns the qualified name of a database
func NewDatabaseName(catalog, database string) QualifiedName {
	return QualifiedName{Catalog: catalog, Database: database}
}

// NewTableName returns the qualified name of a table
func NewTableName(catalog, database, table string) QualifiedName {
	return QualifiedName{Catalog: catalog, Database: database, Table: table}
}

// IsDatabase reports whether the name points at a database
func (q QualifiedName) IsDatabase() bool {
	return q.Database != "" && q.Table == ""
}

// IsTable reports whether the name points at a table
func (q QualifiedName) IsTable() bool {
	return q.Table != "" && q.Partition == ""
}

// String renders the name as catalog/database/table/partition
func (q QualifiedName) String() string {
	parts := []string{q.Catalog}
	for _, p := range []string{q.Database, q.Table, q.Partition} {
		if p == "" {
			break
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, "/")
}

// AuditInfo records who created or last touched an object, when known
type AuditInfo struct {
	CreatedBy    string    `json:"created_by,omitempty"`
	CreatedDate  time.Time `json:"created_date,omitempty"`
	LastModified time.Time `json:"last_modified,omitempty"`
}

// DatabaseInfo describes a database (schema, dataset, mongo database...)
type DatabaseInfo struct {
	Name     QualifiedName     `json:"name"`
	URI      string            `json:"uri,omitempty"`
	Audit    AuditInfo         `json:"audit"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// FieldInfo describes a column of a table
type FieldInfo struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Comment      string `json:"comment,omitempty"`
	Nullable     bool   `json:"nullable"`
	DefaultValue string `json:"default_value,omitempty"`
	Position     int    `json:"position"`
	PartitionKey bool   `json:"partition_key"`
}

// TableInfo describes a table and its columns
type TableInfo struct {
	Name     QualifiedName     `json:"name"`
	Type     string            `json:"type,omitempty"`
	Fields   []FieldInfo       `json:"fields,omitempty"`
	Audit    AuditInfo         `json:"audit"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// PartitionKeys returns the names of the partition key columns
func (t *TableInfo) PartitionKeys() []string {
	var keys []string
	for _, f := range t.Fields {
		if f.PartitionKey {
			keys = append(keys, f.Name)
		}
	}
	return keys
}

// PartitionInfo describes one partition of a table
type PartitionInfo struct {
	Name     QualifiedName     `json:"name"`
	Values   string            `json:"values,omitempty"`
	Audit    AuditInfo         `json:"audit"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// SortOrder is the direction of a Sort
type SortOrder string

const (
	SortAscending  SortOrder = "asc"
	SortDescending SortOrder = "desc"
)

// Sort orders a listing. Only sorting by name is supported by the generic helpers.
type Sort struct {
	By    string    `json:"by"`
	Order SortOrder `json:"order"`
}

// Pageable limits a listing. A zero Limit means no limit.
type Pageable struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// ListRequest carries the optional listing controls shared by every service
type ListRequest struct {
	// Prefix filters names by prefix
	Prefix string
	Sort   *Sort
	Page   *Pageable
}

// PartitionListRequest controls partition listing
type PartitionListRequest struct {
	ListRequest
	// Names restricts the result to these partition names
	Names []string
}
