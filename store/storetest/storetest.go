// Package storetest opens migrated gorm stores for tests.
package storetest

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"citysnap-be/store/gormstore"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// PostgresEnv names the DSN of a scratch Postgres database.
const PostgresEnv = "POSTGRES_TEST_URL"

func quiet() *gorm.Config {
	return &gorm.Config{Logger: gormlogger.Discard}
}

// SQLite returns a store over a private in-memory database.
func SQLite(t *testing.T) *gormstore.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), quiet())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error)

	s := gormstore.New(db)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// Postgres returns a store in a fresh schema of the database at
// POSTGRES_TEST_URL, skipping the test when it is unset. The schema is
// dropped on cleanup.
func Postgres(t *testing.T) *gormstore.Store {
	t.Helper()
	dsn := os.Getenv(PostgresEnv)
	if dsn == "" {
		t.Skip(PostgresEnv + " not set")
	}
	schema := fmt.Sprintf("citysnap_test_%d", time.Now().UnixNano())

	admin, err := gorm.Open(postgres.Open(dsn), quiet())
	require.NoError(t, err)
	require.NoError(t, admin.Exec("CREATE SCHEMA "+schema).Error)

	db, err := gorm.Open(postgres.Open(withSearchPath(dsn, schema)), quiet())
	require.NoError(t, err)
	s := gormstore.New(db)
	require.NoError(t, s.Migrate(context.Background()))

	t.Cleanup(func() {
		_ = s.Close()
		_ = admin.Exec("DROP SCHEMA " + schema + " CASCADE").Error
		if sqlDB, err := admin.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return s
}

func withSearchPath(dsn, schema string) string {
	if !strings.Contains(dsn, "://") {
		return dsn + " search_path=" + schema
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&search_path=" + schema
	}
	return dsn + "?search_path=" + schema
}
