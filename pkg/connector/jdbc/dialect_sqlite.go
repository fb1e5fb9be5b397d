package jdbc

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ajitpratap0/metacat/pkg/config"
	"github.com/ajitpratap0/metacat/pkg/errors"
)

// sqliteDialect maps attached databases (main, temp, ...) to catalog databases
type sqliteDialect struct{}

func (sqliteDialect) Name() string { return "sqlite" }

func (sqliteDialect) Open(cfg *config.JDBCConfig, _ Credentials, _ time.Duration) (*sql.DB, error) {
	path := cfg.DSN
	if path == "" {
		path = cfg.Database
	}
	if path == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "sqlite catalog needs a dsn or database file")
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to open sqlite database")
	}
	return db, nil
}

func (sqliteDialect) Databases() Statement {
	return stmt(`SELECT name FROM pragma_database_list ORDER BY seq`)
}

func (sqliteDialect) Tables(database string) Statement {
	return stmt(`SELECT name FROM pragma_table_list
		WHERE schema = ? AND type IN ('table', 'view') AND name NOT LIKE 'sqlite_%'
		ORDER BY name`, database)
}

func (sqliteDialect) Columns(database, table string) Statement {
	return stmt(`SELECT name, type, CASE WHEN "notnull" = 1 THEN 'NO' ELSE 'YES' END, COALESCE(dflt_value, ''), cid + 1
		FROM pragma_table_info(?, ?)
		ORDER BY cid`, table, database)
}

func (sqliteDialect) CreateDatabase(string) Statement { return Statement{} }

func (sqliteDialect) DropDatabase(string) Statement { return Statement{} }

func (sqliteDialect) DropTable(database, table string) Statement {
	return stmt("DROP TABLE " + quoteDouble(database) + "." + quoteDouble(table))
}

func (sqliteDialect) RenameTable(database, from, to string) Statement {
	return stmt("ALTER TABLE " + quoteDouble(database) + "." + quoteDouble(from) + " RENAME TO " + quoteDouble(to))
}
