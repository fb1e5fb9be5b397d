package jdbc

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ajitpratap0/metacat/pkg/config"
	"github.com/ajitpratap0/metacat/pkg/errors"
)

// Statement is a query with its positional arguments
type Statement struct {
	Query string
	Args  []any
}

func stmt(query string, args ...any) Statement {
	return Statement{Query: query, Args: args}
}

// Dialect adapts the relational services to one database engine. Catalog
// introspection goes through information_schema or the engine's own system
// views; an empty Statement means the engine has no such capability.
type Dialect interface {
	Name() string

	// Open returns a pool for the descriptor. It must not dial the server.
	Open(cfg *config.JDBCConfig, creds Credentials, connectTimeout time.Duration) (*sql.DB, error)

	// Databases lists schema names
	Databases() Statement
	// Tables lists table names of a schema
	Tables(database string) Statement
	// Columns returns name, type, is_nullable (YES/NO), default and position
	// for each column of a table
	Columns(database, table string) Statement
	// CreateDatabase returns an empty Statement when the engine cannot
	// create schemas through SQL
	CreateDatabase(name string) Statement
	DropDatabase(name string) Statement
	DropTable(database, table string) Statement
	RenameTable(database, from, to string) Statement
}

// PartitionDialect is implemented by engines with native table partitioning
type PartitionDialect interface {
	Dialect
	// PartitionKeys returns the partition key expressions of a table
	PartitionKeys(database, table string) Statement
	// Partitions returns the name and bound expression of each partition
	Partitions(database, table string) Statement
}

var (
	dialectsMu sync.RWMutex
	dialects   = map[string]Dialect{
		"postgres":  postgresDialect{},
		"mysql":     mysqlDialect{},
		"sqlite":    sqliteDialect{},
		"snowflake": snowflakeDialect{},
	}
)

// RegisterDialect makes a dialect available by name
func RegisterDialect(d Dialect) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	dialects[d.Name()] = d
}

// LookupDialect returns the dialect registered under name
func LookupDialect(name string) (Dialect, error) {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	d, ok := dialects[strings.ToLower(name)]
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeConfig, "unknown SQL dialect %q (available: %s)", name, strings.Join(dialectNames(), ", "))
	}
	return d, nil
}

// Dialects returns the registered dialect names, sorted
func Dialects() []string {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	return dialectNames()
}

func dialectNames() []string {
	names := make([]string, 0, len(dialects))
	for n := range dialects {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func quoteDouble(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteBacktick(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func hostPort(host string, port, defaultPort int) string {
	if host == "" {
		host = "localhost"
	}
	if port == 0 {
		port = defaultPort
	}
	return fmt.Sprintf("%s:%d", host, port)
}
