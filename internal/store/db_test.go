package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_CreatesDatabaseAndMigrates(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "attendance.db")

	db, err := Open(ctx, DriverSQLite, path)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, db.Migrate(ctx), "migrate must be idempotent")

	_, err = os.Stat(path)
	assert.NoError(t, err)

	var count int
	require.NoError(t, db.Client.QueryRowContext(ctx, `SELECT COUNT(*) FROM attendance_records`).Scan(&count))
	assert.Zero(t, count)
	assert.True(t, db.Healthy(ctx))
}

func TestSchema_RejectsUnknownStatus(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, DriverSQLite, filepath.Join(t.TempDir(), "a.db"))
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate(ctx))

	_, err = db.Client.ExecContext(ctx, `
		INSERT INTO attendance_records (owner_id, owner_display_name, subject, status, created_at)
		VALUES ('u', 'U', 'Math', 'late', CURRENT_TIMESTAMP)`)
	assert.Error(t, err)
}

func TestSchema_RejectsHalfProof(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, DriverSQLite, filepath.Join(t.TempDir(), "a.db"))
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate(ctx))

	_, err = db.Client.ExecContext(ctx, `
		INSERT INTO attendance_records (owner_id, owner_display_name, subject, status, proof_url, created_at)
		VALUES ('u', 'U', 'Math', 'present', 'https://cdn/x.png', CURRENT_TIMESTAMP)`)
	assert.Error(t, err)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "whatever")
	assert.ErrorContains(t, err, "unsupported")
}

func TestClose_NilSafe(t *testing.T) {
	var db *DB
	assert.NoError(t, db.Close())
	assert.False(t, db.Healthy(context.Background()))

	var r *Redis
	assert.NoError(t, r.Close())
	assert.False(t, r.Healthy(context.Background()))
}

// Set ATTEND_TEST_POSTGRES_URL to run the schema against a real server.
func TestOpen_Postgres(t *testing.T) {
	dsn := os.Getenv("ATTEND_TEST_POSTGRES_URL")
	if dsn == "" {
		t.Skip("ATTEND_TEST_POSTGRES_URL not set")
	}
	ctx := context.Background()
	db, err := Open(ctx, DriverPostgres, dsn)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, db.Migrate(ctx))
	assert.True(t, db.Healthy(ctx))
}
