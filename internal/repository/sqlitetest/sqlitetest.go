// Package sqlitetest opens migrated in-memory shards for tests.
package sqlitetest

import (
	"database/sql"
	"testing"

	_ "github.com/glebarez/go-sqlite"
	"github.com/stretchr/testify/require"

	"rmc-erp/migrations"
)

// Open returns n independent in-memory databases with every table migrated. They
// are closed when the test ends.
func Open(t testing.TB, n int) []*sql.DB {
	t.Helper()
	dbs := make([]*sql.DB, 0, n)
	for i := 0; i < n; i++ {
		db, err := sql.Open("sqlite", ":memory:")
		require.NoError(t, err)
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
		t.Cleanup(func() { db.Close() })
		dbs = append(dbs, db)
	}
	require.NoError(t, migrations.AutoMigrate(0, dbs...))
	return dbs
}
