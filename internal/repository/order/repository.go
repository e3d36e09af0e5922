package order

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/storefront/internal/database"
	"github.com/Additional-Code/storefront/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/storefront/repository/order")

// ErrNotFound is returned when an order is missing.
var ErrNotFound = errors.New("order not found")

// ErrNotCancellable is returned when the order status no longer allows cancellation.
var ErrNotCancellable = errors.New("order cannot be cancelled")

// ErrCancelled is returned when a status update targets a cancelled order.
var ErrCancelled = errors.New("order is cancelled")

// Repository encapsulates read/write access for orders.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// Create persists a new order using the write connection.
func (r *Repository) Create(ctx context.Context, order *entity.Order) error {
	if order == nil {
		return errors.New("nil order")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Create", trace.WithAttributes(attribute.String("order.number", order.Number)))
	defer span.End()

	_, err := r.writer.NewInsert().Model(order).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// GetByID fetches an order by primary key using the read replica when available.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order := new(entity.Order)
	err := r.reader.NewSelect().Model(order).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return order, nil
}

// ListByUser returns every order owned by userID through the supplied session.
// No limit is applied.
func (r *Repository) ListByUser(ctx context.Context, sess bun.IDB, userID int64) ([]entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.ListByUser", trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer span.End()

	orders := make([]entity.Order, 0)
	err := sess.NewSelect().
		Model(&orders).
		Where("user_id = ?", userID).
		OrderExpr("id ASC").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("orders.count", len(orders)))
	return orders, nil
}

// ListAll returns every order, newest first, optionally narrowed to status.
func (r *Repository) ListAll(ctx context.Context, sess bun.IDB, status string) ([]entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.ListAll", trace.WithAttributes(attribute.String("order.status", status)))
	defer span.End()

	orders := make([]entity.Order, 0)
	q := sess.NewSelect().Model(&orders).OrderExpr("created_at DESC, id DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("orders.count", len(orders)))
	return orders, nil
}

// ListCancelled returns cancelled orders, most recently cancelled first.
func (r *Repository) ListCancelled(ctx context.Context, sess bun.IDB) ([]entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.ListCancelled")
	defer span.End()

	orders := make([]entity.Order, 0)
	err := sess.NewSelect().
		Model(&orders).
		Where("status = ?", entity.OrderStatusCancelled).
		OrderExpr("cancelled_at DESC, id DESC").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("orders.count", len(orders)))
	return orders, nil
}

// UpdateStatus sets the status of an order that is not cancelled. A non-zero
// assignedSalesID also reassigns the order. The cancelled check and the update
// happen in a single statement.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status string, assignedSalesID int64, at time.Time) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.UpdateStatus", trace.WithAttributes(
		attribute.Int64("order.id", id),
		attribute.String("order.status", status),
	))
	defer span.End()

	q := r.writer.NewUpdate().
		Model((*entity.Order)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", at).
		Where("id = ?", id).
		Where("status <> ?", entity.OrderStatusCancelled)
	if assignedSalesID != 0 {
		q = q.Set("assigned_sales_id = ?", assignedSalesID)
	}
	res, err := q.Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return nil, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	order, err := r.reload(ctx, span, id)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		span.SetStatus(codes.Error, "cancelled")
		return order, ErrCancelled
	}
	return order, nil
}

// Cancel marks the order cancelled when its current status still allows it.
// The status check and the update happen in a single statement.
func (r *Repository) Cancel(ctx context.Context, id, cancelledBy int64, at time.Time) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Cancel", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	res, err := r.writer.NewUpdate().
		Model((*entity.Order)(nil)).
		Set("status = ?", entity.OrderStatusCancelled).
		Set("cancelled_at = ?", at).
		Set("cancelled_by = ?", cancelledBy).
		Set("updated_at = ?", at).
		Where("id = ?", id).
		Where("status NOT IN (?)", bun.In([]string{
			entity.OrderStatusCancelled,
			entity.OrderStatusShipped,
			entity.OrderStatusDelivered,
		})).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return nil, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	order, err := r.reload(ctx, span, id)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		span.SetStatus(codes.Error, "not cancellable")
		return order, ErrNotCancellable
	}
	return order, nil
}

// reload reads an order back from the writer after a conditional update.
func (r *Repository) reload(ctx context.Context, span trace.Span, id int64) (*entity.Order, error) {
	order := new(entity.Order)
	if err := r.writer.NewSelect().Model(order).Where("id = ?", id).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, ErrNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return order, nil
}
