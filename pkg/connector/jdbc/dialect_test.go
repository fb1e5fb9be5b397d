package jdbc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/metacat/pkg/config"
	"github.com/ajitpratap0/metacat/pkg/errors"
)

func TestLookupDialect(t *testing.T) {
	d, err := LookupDialect("Postgres")
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	_, ok := d.(PartitionDialect)
	assert.True(t, ok)
	sqlite, _ := LookupDialect("sqlite")
	_, ok = sqlite.(PartitionDialect)
	assert.False(t, ok)

	_, err = LookupDialect("db2")
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
	assert.Contains(t, err.Error(), "mysql, postgres, snowflake, sqlite")
}

func TestPostgresKeywordDSN(t *testing.T) {
	dsn := postgresKeywordDSN(&config.JDBCConfig{
		Host:     "db.internal",
		Database: "sales",
		SSLMode:  "require",
		Params:   map[string]string{"search_path": "public", "application_name": "meta cat"},
	})
	assert.Equal(t, `host='db.internal' port=5432 dbname='sales' sslmode='require' application_name='meta cat' search_path='public'`, dsn)
	assert.Equal(t, `'it\'s'`, pgQuote("it's"))
}

func TestDialects_OpenWithoutDialing(t *testing.T) {
	creds := Credentials{Username: "reader", Password: "secret"}

	tests := []struct {
		dialect string
		cfg     config.JDBCConfig
	}{
		{"postgres", config.JDBCConfig{Host: "pg.internal", Database: "sales"}},
		{"postgres", config.JDBCConfig{DSN: "postgres://pg.internal:5433/sales?sslmode=disable"}},
		{"mysql", config.JDBCConfig{Host: "mysql.internal", Database: "shop", Params: map[string]string{"autocommit": "true"}}},
		{"mysql", config.JDBCConfig{DSN: "root@tcp(mysql.internal:3306)/shop"}},
		{"snowflake", config.JDBCConfig{Account: "acme-xy12345", Database: "ANALYTICS", Warehouse: "WH"}},
	}

	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			d, err := LookupDialect(tt.dialect)
			require.NoError(t, err)
			db, err := d.Open(&tt.cfg, creds, 5*time.Second)
			require.NoError(t, err)
			require.NotNil(t, db)
			assert.NoError(t, db.Close())
		})
	}
}

func TestDialects_OpenRejectsBadDescriptors(t *testing.T) {
	tests := []struct {
		dialect string
		cfg     config.JDBCConfig
	}{
		{"postgres", config.JDBCConfig{DSN: "postgres://[bad"}},
		{"mysql", config.JDBCConfig{DSN: "not a dsn"}},
		{"snowflake", config.JDBCConfig{Database: "ANALYTICS"}},
		{"sqlite", config.JDBCConfig{}},
	}

	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			d, err := LookupDialect(tt.dialect)
			require.NoError(t, err)
			_, err = d.Open(&tt.cfg, Credentials{Username: "u", Password: "p"}, 0)
			require.Error(t, err)
			assert.True(t, errors.IsConfiguration(err))
		})
	}
}

func TestDDLQuoting(t *testing.T) {
	assert.Equal(t, `ALTER TABLE "public"."or""ders" RENAME TO "orders_v2"`,
		postgresDialect{}.RenameTable("public", `or"ders`, "orders_v2").Query)
	assert.Equal(t, "RENAME TABLE `shop`.`a` TO `shop`.`b`", mysqlDialect{}.RenameTable("shop", "a", "b").Query)
	assert.Equal(t, "DROP DATABASE `we``ird`", mysqlDialect{}.DropDatabase("we`ird").Query)
	assert.Empty(t, sqliteDialect{}.CreateDatabase("x").Query)
}

func TestSplitKeyExpressions(t *testing.T) {
	assert.Equal(t, []string{"region", "day"}, splitKeyExpressions([]string{"`region`,`day`", "region"}))
	assert.Nil(t, splitKeyExpressions(nil))
}
