package seeder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/storefront/internal/auth"
	"github.com/Additional-Code/storefront/internal/database/databasetest"
	"github.com/Additional-Code/storefront/internal/entity"
)

func TestRunIsIdempotent(t *testing.T) {
	conns := databasetest.Open(t)
	s := New(conns, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, s.Run(ctx))
	require.NoError(t, s.Run(ctx))

	users, err := conns.Reader.NewSelect().Model((*entity.User)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, users)

	var orders []entity.Order
	require.NoError(t, conns.Reader.NewSelect().Model(&orders).OrderExpr("id ASC").Scan(ctx))
	require.Len(t, orders, 3)

	var alice entity.User
	require.NoError(t, conns.Reader.NewSelect().Model(&alice).Where("email = ?", "alice@example.com").Scan(ctx))
	assert.Equal(t, alice.ID, orders[0].UserID)
	assert.Equal(t, alice.ID, orders[1].UserID)
	assert.NotEqual(t, alice.ID, orders[2].UserID)

	var sam entity.User
	require.NoError(t, conns.Reader.NewSelect().Model(&sam).Where("email = ?", "sam@example.com").Scan(ctx))
	assert.Equal(t, entity.RoleSales, sam.Role)
	assert.Equal(t, sam.ID, orders[1].AssignedSalesID)
	assert.Zero(t, orders[0].AssignedSalesID)

	ok, err := auth.VerifyPassword(alice.PasswordHash, DefaultPassword)
	require.NoError(t, err)
	assert.True(t, ok)
}
