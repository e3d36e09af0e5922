package order_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/Additional-Code/storefront/internal/database/databasetest"
	"github.com/Additional-Code/storefront/internal/entity"
	"github.com/Additional-Code/storefront/internal/repository/order"
)

func TestListByUserFiltersByOwner(t *testing.T) {
	conns := databasetest.Open(t)
	repo := order.NewRepository(conns)
	ctx := context.Background()

	alice := databasetest.InsertUser(t, conns, entity.User{ID: 1, Email: "alice@example.com"})
	bob := databasetest.InsertUser(t, conns, entity.User{ID: 2, Email: "bob@example.com"})
	carol := databasetest.InsertUser(t, conns, entity.User{ID: 3, Email: "carol@example.com"})
	databasetest.InsertOrder(t, conns, entity.Order{ID: 10, UserID: alice.ID})
	databasetest.InsertOrder(t, conns, entity.Order{ID: 11, UserID: alice.ID})
	databasetest.InsertOrder(t, conns, entity.Order{ID: 12, UserID: bob.ID})

	list := func(userID int64) []entity.Order {
		var out []entity.Order
		err := conns.ReadSession(ctx, func(ctx context.Context, sess bun.IDB) error {
			var err error
			out, err = repo.ListByUser(ctx, sess, userID)
			return err
		})
		require.NoError(t, err)
		return out
	}

	ids := func(orders []entity.Order) []int64 {
		out := make([]int64, 0, len(orders))
		for _, o := range orders {
			out = append(out, o.ID)
		}
		return out
	}

	assert.Equal(t, []int64{10, 11}, ids(list(alice.ID)))
	assert.Equal(t, []int64{12}, ids(list(bob.ID)))

	empty := list(carol.ID)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestListByUserPropagatesQueryFailure(t *testing.T) {
	conns := databasetest.Open(t)
	repo := order.NewRepository(conns)
	ctx := context.Background()

	_, err := conns.Writer.NewDropTable().Model((*entity.Order)(nil)).Exec(ctx)
	require.NoError(t, err)

	err = conns.ReadSession(ctx, func(ctx context.Context, sess bun.IDB) error {
		_, err := repo.ListByUser(ctx, sess, 1)
		return err
	})
	assert.Error(t, err)
	assert.Equal(t, 0, conns.Reader.Stats().InUse)
}

func TestGetByID(t *testing.T) {
	conns := databasetest.Open(t)
	repo := order.NewRepository(conns)
	ctx := context.Background()

	u := databasetest.InsertUser(t, conns, entity.User{Email: "alice@example.com"})
	o := databasetest.InsertOrder(t, conns, entity.Order{UserID: u.ID, Number: "ORD-1", ShippingCity: "Osaka"})

	got, err := repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "ORD-1", got.Number)
	assert.Equal(t, "Osaka", got.ShippingCity)

	_, err = repo.GetByID(ctx, o.ID+100)
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestCreate(t *testing.T) {
	conns := databasetest.Open(t)
	repo := order.NewRepository(conns)
	ctx := context.Background()

	now := time.Now().UTC()
	o := &entity.Order{Number: "ORD-NEW", UserID: 1, Status: entity.OrderStatusPending, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.Create(ctx, o))
	assert.NotZero(t, o.ID)

	assert.Error(t, repo.Create(ctx, nil))
}

func TestCancel(t *testing.T) {
	conns := databasetest.Open(t)
	repo := order.NewRepository(conns)
	ctx := context.Background()
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	pending := databasetest.InsertOrder(t, conns, entity.Order{UserID: 1, Status: entity.OrderStatusPending})
	shipped := databasetest.InsertOrder(t, conns, entity.Order{UserID: 1, Status: entity.OrderStatusShipped})

	got, err := repo.Cancel(ctx, pending.ID, 1, at)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusCancelled, got.Status)
	assert.Equal(t, int64(1), got.CancelledBy)
	assert.True(t, at.Equal(got.CancelledAt))

	_, err = repo.Cancel(ctx, pending.ID, 1, at)
	assert.ErrorIs(t, err, order.ErrNotCancellable)

	got, err = repo.Cancel(ctx, shipped.ID, 1, at)
	assert.ErrorIs(t, err, order.ErrNotCancellable)
	assert.Equal(t, entity.OrderStatusShipped, got.Status)

	_, err = repo.Cancel(ctx, 9999, 1, at)
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestUpdateStatus(t *testing.T) {
	conns := databasetest.Open(t)
	repo := order.NewRepository(conns)
	ctx := context.Background()
	at := time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)

	pending := databasetest.InsertOrder(t, conns, entity.Order{UserID: 1})
	cancelled := databasetest.InsertOrder(t, conns, entity.Order{UserID: 1, Status: entity.OrderStatusCancelled})

	got, err := repo.UpdateStatus(ctx, pending.ID, entity.OrderStatusProcessing, 0, at)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusProcessing, got.Status)
	assert.Zero(t, got.AssignedSalesID)
	assert.True(t, at.Equal(got.UpdatedAt))

	got, err = repo.UpdateStatus(ctx, pending.ID, entity.OrderStatusShipped, 7, at)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusShipped, got.Status)
	assert.Equal(t, int64(7), got.AssignedSalesID)

	got, err = repo.UpdateStatus(ctx, pending.ID, entity.OrderStatusDelivered, 0, at)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.AssignedSalesID, "zero keeps the current assignee")

	got, err = repo.UpdateStatus(ctx, cancelled.ID, entity.OrderStatusPending, 0, at)
	assert.ErrorIs(t, err, order.ErrCancelled)
	assert.Equal(t, entity.OrderStatusCancelled, got.Status)

	_, err = repo.UpdateStatus(ctx, 9999, entity.OrderStatusPending, 0, at)
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestAdminListings(t *testing.T) {
	conns := databasetest.Open(t)
	repo := order.NewRepository(conns)
	ctx := context.Background()
	base := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	databasetest.InsertOrder(t, conns, entity.Order{ID: 1, UserID: 1, CreatedAt: base})
	databasetest.InsertOrder(t, conns, entity.Order{ID: 2, UserID: 2, CreatedAt: base.Add(2 * time.Hour), Status: entity.OrderStatusShipped})
	databasetest.InsertOrder(t, conns, entity.Order{ID: 3, UserID: 1, CreatedAt: base.Add(time.Hour),
		Status: entity.OrderStatusCancelled, CancelledAt: base.Add(5 * time.Hour), CancelledBy: 1})
	databasetest.InsertOrder(t, conns, entity.Order{ID: 4, UserID: 2, CreatedAt: base.Add(3 * time.Hour),
		Status: entity.OrderStatusCancelled, CancelledAt: base.Add(4 * time.Hour), CancelledBy: 2})

	ids := func(orders []entity.Order) []int64 {
		out := make([]int64, 0, len(orders))
		for _, o := range orders {
			out = append(out, o.ID)
		}
		return out
	}
	var all, shipped, cancelled []entity.Order
	err := conns.ReadSession(ctx, func(ctx context.Context, sess bun.IDB) error {
		var err error
		if all, err = repo.ListAll(ctx, sess, ""); err != nil {
			return err
		}
		if shipped, err = repo.ListAll(ctx, sess, entity.OrderStatusShipped); err != nil {
			return err
		}
		cancelled, err = repo.ListCancelled(ctx, sess)
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, []int64{4, 2, 3, 1}, ids(all))
	assert.Equal(t, []int64{2}, ids(shipped))
	assert.Equal(t, []int64{3, 4}, ids(cancelled))
}
