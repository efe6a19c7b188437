package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T, name string) *DB {
	t.Helper()
	db, err := New(Config{
		Path:    filepath.Join(t.TempDir(), name+".db"),
		Profile: ProfileCache,
		Name:    name,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrateCreatesSweepTables(t *testing.T) {
	db := newTestDB(t, "sweeps")
	require.NoError(t, db.Migrate())
	// Idempotent.
	require.NoError(t, db.Migrate())

	for _, table := range []string{"sweeps", "sweep_grids", "sweep_failures"} {
		var name string
		err := db.Conn().QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, table)
		assert.Equal(t, table, name)
	}

	require.NoError(t, db.HealthCheck(context.Background()))
}

func TestMigrateUnknownSchema(t *testing.T) {
	db := newTestDB(t, "scratch")
	assert.NoError(t, db.Migrate())
	assert.Equal(t, "scratch", db.Name())
	assert.True(t, filepath.IsAbs(db.Path()))
}

func TestWithTransactionRollsBack(t *testing.T) {
	db := newTestDB(t, "scratch")
	_, err := db.Conn().Exec("CREATE TABLE t (v INTEGER)")
	require.NoError(t, err)

	boom := errors.New("boom")
	err = WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		if _, err := tx.Exec("INSERT INTO t (v) VALUES (1)"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	err = WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		_, _ = tx.Exec("INSERT INTO t (v) VALUES (2)")
		panic("bad")
	})
	assert.Error(t, err)

	require.NoError(t, WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		_, err := tx.Exec("INSERT INTO t (v) VALUES (3)")
		return err
	}))

	var count, sum int
	require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*), COALESCE(SUM(v), 0) FROM t").Scan(&count, &sum))
	assert.Equal(t, 1, count)
	assert.Equal(t, 3, sum)

	assert.Error(t, WithTransaction(nil, func(*sql.Tx) error { return nil }))
}
