// Package testutil provides testing utilities for Metacat
package testutil

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/metacat/pkg/config"
)

// TestLogger creates a test logger that writes to the test output.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// TestContext creates a test context with a 30-second timeout, cancelled
// when the test completes.
func TestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// SQLiteFile creates a sqlite database in a temporary directory, runs ddl
// against it and returns its path.
func SQLiteFile(t *testing.T, name string, ddl ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name+".db")

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()
	for _, stmt := range ddl {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
	return path
}

// SQLiteCatalog returns the configuration of a jdbc catalog backed by a fresh
// sqlite database holding ddl.
func SQLiteCatalog(t *testing.T, name string, ddl ...string) *config.CatalogConfig {
	t.Helper()
	cfg := config.NewCatalogConfig(name, "jdbc")
	cfg.JDBC = config.JDBCConfig{Dialect: "sqlite", Database: SQLiteFile(t, name, ddl...)}
	return cfg
}

// WriteFile writes content to a file in a temporary directory and returns its path
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}
