// Package databasetest provides in-memory sqlite connections for tests.
package databasetest

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/storefront/internal/config"
	"github.com/Additional-Code/storefront/internal/database"
	"github.com/Additional-Code/storefront/internal/entity"
)

var seq atomic.Int64

// Open returns connections to a fresh shared-cache in-memory database with the
// users and orders tables created. The pools are closed when the test ends.
func Open(t testing.TB) *database.Connections {
	t.Helper()

	dsn := fmt.Sprintf("file:storefront_test_%d?mode=memory&cache=shared", seq.Add(1))
	conns, err := database.Open(config.Database{
		Driver:       "sqlite",
		WriterDSN:    dsn,
		ReaderDSN:    dsn,
		MaxOpenConns: 4,
		MaxIdleConns: 4,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conns.Close() })

	ctx := context.Background()
	require.NoError(t, conns.Ping(ctx))

	for _, model := range []any{(*entity.User)(nil), (*entity.Order)(nil)} {
		_, err := conns.Writer.NewCreateTable().Model(model).IfNotExists().Exec(ctx)
		require.NoError(t, err)
	}

	return conns
}

// InsertUser persists a user and returns it with its assigned id.
func InsertUser(t testing.TB, conns *database.Connections, user entity.User) *entity.User {
	t.Helper()

	if user.Role == "" {
		user.Role = entity.RoleCustomer
	}
	if user.PasswordHash == "" {
		user.PasswordHash = "unused"
	}
	stamp(&user.CreatedAt, &user.UpdatedAt)
	_, err := conns.Writer.NewInsert().Model(&user).Exec(context.Background())
	require.NoError(t, err)
	return &user
}

// InsertOrder persists an order and returns it with its assigned id.
func InsertOrder(t testing.TB, conns *database.Connections, order entity.Order) *entity.Order {
	t.Helper()

	if order.Number == "" {
		order.Number = fmt.Sprintf("ORD-T%d", seq.Add(1))
	}
	if order.Status == "" {
		order.Status = entity.OrderStatusPending
	}
	stamp(&order.CreatedAt, &order.UpdatedAt)
	_, err := conns.Writer.NewInsert().Model(&order).Exec(context.Background())
	require.NoError(t, err)
	return &order
}

func stamp(created, updated *time.Time) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	if created.IsZero() {
		*created = now
	}
	if updated.IsZero() {
		*updated = *created
	}
}
