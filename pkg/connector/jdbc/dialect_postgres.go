package jdbc

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/ajitpratap0/metacat/pkg/config"
	"github.com/ajitpratap0/metacat/pkg/errors"
)

type postgresDialect struct{}

var _ PartitionDialect = postgresDialect{}

func (postgresDialect) Name() string { return "postgres" }

func (postgresDialect) Open(cfg *config.JDBCConfig, creds Credentials, connectTimeout time.Duration) (*sql.DB, error) {
	dsn := cfg.DSN
	if dsn == "" {
		dsn = postgresKeywordDSN(cfg)
	}
	connConfig, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse PostgreSQL connection descriptor")
	}
	if creds.Username != "" {
		connConfig.User = creds.Username
		connConfig.Password = creds.Password
	}
	if connectTimeout > 0 {
		connConfig.ConnectTimeout = connectTimeout
	}
	return stdlib.OpenDB(*connConfig), nil
}

func postgresKeywordDSN(cfg *config.JDBCConfig) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	parts := []string{
		"host=" + pgQuote(host),
		fmt.Sprintf("port=%d", port),
	}
	if cfg.Database != "" {
		parts = append(parts, "dbname="+pgQuote(cfg.Database))
	}
	if cfg.SSLMode != "" {
		parts = append(parts, "sslmode="+pgQuote(cfg.SSLMode))
	}
	keys := make([]string, 0, len(cfg.Params))
	for k := range cfg.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, k+"="+pgQuote(cfg.Params[k]))
	}
	return strings.Join(parts, " ")
}

func pgQuote(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

func (postgresDialect) Databases() Statement {
	return stmt(`SELECT schema_name FROM information_schema.schemata
		WHERE left(schema_name, 3) <> 'pg_' AND schema_name <> 'information_schema'
		ORDER BY schema_name`)
}

func (postgresDialect) Tables(database string) Statement {
	return stmt(`SELECT table_name FROM information_schema.tables
		WHERE table_schema = $1 AND table_type IN ('BASE TABLE', 'VIEW')
		ORDER BY table_name`, database)
}

func (postgresDialect) Columns(database, table string) Statement {
	return stmt(`SELECT column_name, data_type, is_nullable, COALESCE(column_default, ''), ordinal_position
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`, database, table)
}

func (postgresDialect) PartitionKeys(database, table string) Statement {
	return stmt(`SELECT a.attname
		FROM pg_partitioned_table pt
		JOIN pg_class c ON c.oid = pt.partrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		JOIN LATERAL unnest(pt.partattrs::int2[]) WITH ORDINALITY AS k(attnum, ord) ON true
		JOIN pg_attribute a ON a.attrelid = c.oid AND a.attnum = k.attnum
		WHERE n.nspname = $1 AND c.relname = $2
		ORDER BY k.ord`, database, table)
}

func (postgresDialect) Partitions(database, table string) Statement {
	return stmt(`SELECT child.relname, COALESCE(pg_get_expr(child.relpartbound, child.oid), '')
		FROM pg_inherits i
		JOIN pg_class parent ON i.inhparent = parent.oid
		JOIN pg_class child ON i.inhrelid = child.oid
		JOIN pg_namespace n ON parent.relnamespace = n.oid
		WHERE n.nspname = $1 AND parent.relname = $2
		ORDER BY child.relname`, database, table)
}

func (postgresDialect) CreateDatabase(name string) Statement {
	return stmt("CREATE SCHEMA " + quoteDouble(name))
}

func (postgresDialect) DropDatabase(name string) Statement {
	return stmt("DROP SCHEMA " + quoteDouble(name))
}

func (postgresDialect) DropTable(database, table string) Statement {
	return stmt("DROP TABLE " + quoteDouble(database) + "." + quoteDouble(table))
}

func (postgresDialect) RenameTable(database, from, to string) Statement {
	return stmt("ALTER TABLE " + quoteDouble(database) + "." + quoteDouble(from) + " RENAME TO " + quoteDouble(to))
}
