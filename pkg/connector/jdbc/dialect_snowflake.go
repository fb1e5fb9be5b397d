package jdbc

import (
	"database/sql"
	"time"

	"github.com/snowflakedb/gosnowflake"

	"github.com/ajitpratap0/metacat/pkg/config"
	"github.com/ajitpratap0/metacat/pkg/errors"
)

// snowflakeDialect lists the schemas of the configured Snowflake database
type snowflakeDialect struct{}

func (snowflakeDialect) Name() string { return "snowflake" }

func (snowflakeDialect) Open(cfg *config.JDBCConfig, creds Credentials, connectTimeout time.Duration) (*sql.DB, error) {
	sc := &gosnowflake.Config{}
	if cfg.DSN != "" {
		parsed, err := gosnowflake.ParseDSN(cfg.DSN)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse Snowflake connection descriptor")
		}
		sc = parsed
	} else {
		if cfg.Account == "" {
			return nil, errors.New(errors.ErrorTypeConfig, "snowflake catalog needs an account")
		}
		sc.Account = cfg.Account
		sc.Database = cfg.Database
		sc.Warehouse = cfg.Warehouse
		sc.Role = cfg.Role
		if len(cfg.Params) > 0 {
			sc.Params = make(map[string]*string, len(cfg.Params))
			for k, v := range cfg.Params {
				v := v
				sc.Params[k] = &v
			}
		}
	}
	if creds.Username != "" {
		sc.User = creds.Username
		sc.Password = creds.Password
	}
	if connectTimeout > 0 {
		sc.LoginTimeout = connectTimeout
	}

	dsn, err := gosnowflake.DSN(sc)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid Snowflake connection descriptor")
	}
	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to open Snowflake pool")
	}
	return db, nil
}

func (snowflakeDialect) Databases() Statement {
	return stmt(`SELECT schema_name FROM information_schema.schemata
		WHERE schema_name <> 'INFORMATION_SCHEMA' ORDER BY schema_name`)
}

func (snowflakeDialect) Tables(database string) Statement {
	return stmt(`SELECT table_name FROM information_schema.tables
		WHERE table_schema = ? ORDER BY table_name`, database)
}

func (snowflakeDialect) Columns(database, table string) Statement {
	return stmt(`SELECT column_name, data_type, is_nullable, COALESCE(column_default, ''), ordinal_position
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position`, database, table)
}

func (snowflakeDialect) CreateDatabase(name string) Statement {
	return stmt("CREATE SCHEMA " + quoteDouble(name))
}

func (snowflakeDialect) DropDatabase(name string) Statement {
	return stmt("DROP SCHEMA " + quoteDouble(name))
}

func (snowflakeDialect) DropTable(database, table string) Statement {
	return stmt("DROP TABLE " + quoteDouble(database) + "." + quoteDouble(table))
}

func (snowflakeDialect) RenameTable(database, from, to string) Statement {
	return stmt("ALTER TABLE " + quoteDouble(database) + "." + quoteDouble(from) +
		" RENAME TO " + quoteDouble(database) + "." + quoteDouble(to))
}
