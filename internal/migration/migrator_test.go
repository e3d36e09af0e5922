package migration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/storefront/internal/config"
	"github.com/Additional-Code/storefront/internal/database"
)

func TestGooseDialect(t *testing.T) {
	cases := map[string][2]string{
		"postgres": {"postgres", "postgres"},
		"pgx":      {"postgres", "postgres"},
		"mysql":    {"mysql", "mysql"},
		"sqlite":   {"sqlite3", "sqlite"},
	}
	for driver, want := range cases {
		dialect, dir, err := gooseDialect(driver)
		require.NoError(t, err, driver)
		assert.Equal(t, want[0], dialect)
		assert.Equal(t, want[1], dir)
	}

	_, _, err := gooseDialect("oracle")
	assert.Error(t, err)
}

func TestMigratorUpDownSQLite(t *testing.T) {
	dbCfg := config.Database{
		Driver:       "sqlite",
		WriterDSN:    "file:migration_test?mode=memory&cache=shared",
		ReaderDSN:    "file:migration_test?mode=memory&cache=shared",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}
	conns, err := database.Open(dbCfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conns.Close() })

	mig, err := New(config.Config{Database: dbCfg}, conns, zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, mig.Up(ctx))

	version, err := mig.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), version)

	_, err = conns.Writer.ExecContext(ctx, "INSERT INTO users (email, password_hash) VALUES ('a@example.com', 'x')")
	require.NoError(t, err)
	_, err = conns.Writer.ExecContext(ctx, "INSERT INTO orders (number, user_id, assigned_sales_id) VALUES ('ORD-1', 1, 1)")
	require.NoError(t, err)

	require.NoError(t, mig.Up(ctx))

	require.NoError(t, mig.Down(ctx, 0, true))
	version, err = mig.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), version)

	_, err = conns.Writer.ExecContext(ctx, "SELECT 1 FROM orders")
	assert.Error(t, err)
}
