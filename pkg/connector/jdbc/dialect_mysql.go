package jdbc

import (
	"database/sql"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/ajitpratap0/metacat/pkg/config"
	"github.com/ajitpratap0/metacat/pkg/errors"
)

type mysqlDialect struct{}

var _ PartitionDialect = mysqlDialect{}

func (mysqlDialect) Name() string { return "mysql" }

func (mysqlDialect) Open(cfg *config.JDBCConfig, creds Credentials, connectTimeout time.Duration) (*sql.DB, error) {
	mc := mysql.NewConfig()
	if cfg.DSN != "" {
		parsed, err := mysql.ParseDSN(cfg.DSN)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse MySQL connection descriptor")
		}
		mc = parsed
	} else {
		mc.Net = "tcp"
		mc.Addr = hostPort(cfg.Host, cfg.Port, 3306)
		mc.DBName = cfg.Database
		if cfg.SSLMode != "" {
			mc.TLSConfig = cfg.SSLMode
		}
		if len(cfg.Params) > 0 {
			mc.Params = make(map[string]string, len(cfg.Params))
			for k, v := range cfg.Params {
				mc.Params[k] = v
			}
		}
	}
	if creds.Username != "" {
		mc.User = creds.Username
		mc.Passwd = creds.Password
	}
	if connectTimeout > 0 {
		mc.Timeout = connectTimeout
	}

	connector, err := mysql.NewConnector(mc)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid MySQL connection descriptor")
	}
	return sql.OpenDB(connector), nil
}

func (mysqlDialect) Databases() Statement {
	return stmt(`SELECT schema_name FROM information_schema.schemata
		WHERE schema_name NOT IN ('mysql', 'information_schema', 'performance_schema', 'sys')
		ORDER BY schema_name`)
}

func (mysqlDialect) Tables(database string) Statement {
	return stmt(`SELECT table_name FROM information_schema.tables
		WHERE table_schema = ? ORDER BY table_name`, database)
}

func (mysqlDialect) Columns(database, table string) Statement {
	return stmt(`SELECT column_name, column_type, is_nullable, COALESCE(column_default, ''), ordinal_position
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position`, database, table)
}

func (mysqlDialect) PartitionKeys(database, table string) Statement {
	return stmt(`SELECT DISTINCT partition_expression FROM information_schema.partitions
		WHERE table_schema = ? AND table_name = ? AND partition_expression IS NOT NULL`, database, table)
}

func (mysqlDialect) Partitions(database, table string) Statement {
	return stmt(`SELECT partition_name, COALESCE(partition_description, '')
		FROM information_schema.partitions
		WHERE table_schema = ? AND table_name = ? AND partition_name IS NOT NULL
		ORDER BY partition_ordinal_position`, database, table)
}

func (mysqlDialect) CreateDatabase(name string) Statement {
	return stmt("CREATE DATABASE " + quoteBacktick(name))
}

func (mysqlDialect) DropDatabase(name string) Statement {
	return stmt("DROP DATABASE " + quoteBacktick(name))
}

func (mysqlDialect) DropTable(database, table string) Statement {
	return stmt("DROP TABLE " + quoteBacktick(database) + "." + quoteBacktick(table))
}

func (mysqlDialect) RenameTable(database, from, to string) Statement {
	return stmt("RENAME TABLE " + quoteBacktick(database) + "." + quoteBacktick(from) +
		" TO " + quoteBacktick(database) + "." + quoteBacktick(to))
}
