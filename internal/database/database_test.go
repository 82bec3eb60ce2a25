package database

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socialwatch/searchagent/internal/logger"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Connect(context.Background(), Options{
		DSN:          filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns: 1,
		Logger:       logger.Discard(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestEmbeddedMigrationsAreIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	migrator := NewSQLMigrator(db.DB, MigrationsFS(), MigrationsDir, logger.Discard())

	require.NoError(t, db.RunMigrations(ctx, migrator))
	require.NoError(t, db.RunMigrations(ctx, migrator))

	var applied int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&applied))
	assert.Equal(t, 1, applied)

	var table string
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'query_history'`).Scan(&table))
	assert.Equal(t, "query_history", table)
}

func TestMigratorAppliesInOrderAndSkipsDown(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	fsys := fstest.MapFS{
		"m/0002_b.up.sql":     {Data: []byte("INSERT INTO t (v) VALUES ('second');")},
		"m/0001_a.up.sql":     {Data: []byte("CREATE TABLE t (v TEXT); INSERT INTO t (v) VALUES ('first');")},
		"m/0001_a.down.sql":   {Data: []byte("DROP TABLE t;")},
		"m/0003_empty.up.sql": {Data: []byte("  ;  ")},
	}

	require.NoError(t, NewSQLMigrator(db.DB, fsys, "m", logger.Discard()).Up(ctx))

	rows, err := db.QueryContext(ctx, `SELECT v FROM t ORDER BY rowid`)
	require.NoError(t, err)
	defer rows.Close()
	var got []string
	for rows.Next() {
		var v string
		require.NoError(t, rows.Scan(&v))
		got = append(got, v)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"first", "second"}, got)
}

func TestMigratorRollsBackFailedFile(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	fsys := fstest.MapFS{
		"m/0001_bad.up.sql": {Data: []byte("CREATE TABLE ok (v TEXT); NOT SQL AT ALL;")},
	}

	err := NewSQLMigrator(db.DB, fsys, "m", logger.Discard()).Up(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0001_bad.up.sql [2]")

	var n int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&n))
	assert.Zero(t, n)
}

func TestMigratorValidates(t *testing.T) {
	var m *SQLMigrator
	assert.Error(t, m.Up(context.Background()))
	assert.Error(t, (&SQLMigrator{}).Up(context.Background()))
}

func TestConnectRequiresDSN(t *testing.T) {
	_, err := Connect(context.Background(), Options{})
	assert.Error(t, err)
}

func TestSplitSQLStatements(t *testing.T) {
	got := splitSQLStatements("CREATE TABLE a (x INT);\n\n  ;INSERT INTO a VALUES (1);  ")
	assert.Equal(t, []string{"CREATE TABLE a (x INT)", "INSERT INTO a VALUES (1)"}, got)
}
