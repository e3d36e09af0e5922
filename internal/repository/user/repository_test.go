package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/storefront/internal/database/databasetest"
	"github.com/Additional-Code/storefront/internal/entity"
	"github.com/Additional-Code/storefront/internal/repository/user"
)

func TestRepositoryCreateAndGet(t *testing.T) {
	conns := databasetest.Open(t)
	repo := user.NewRepository(conns)
	ctx := context.Background()

	u := &entity.User{Email: "  Alice@Example.com ", Name: "Alice", Role: entity.RoleCustomer, PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, u))
	require.NotZero(t, u.ID)
	assert.Equal(t, "alice@example.com", u.Email)

	byID, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", byID.Name)

	byEmail, err := repo.GetByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
	assert.Equal(t, "hash", byEmail.PasswordHash)
}

func TestRepositoryNotFound(t *testing.T) {
	conns := databasetest.Open(t)
	repo := user.NewRepository(conns)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, 42)
	assert.ErrorIs(t, err, user.ErrNotFound)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestRepositoryDuplicateEmail(t *testing.T) {
	conns := databasetest.Open(t)
	repo := user.NewRepository(conns)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &entity.User{Email: "bob@example.com", Role: entity.RoleCustomer, PasswordHash: "h"}))
	assert.Error(t, repo.Create(ctx, &entity.User{Email: "BOB@example.com", Role: entity.RoleCustomer, PasswordHash: "h"}))
}
