package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/storefront/internal/cache"
	"github.com/Additional-Code/storefront/internal/config"
	"github.com/Additional-Code/storefront/internal/database"
	"github.com/Additional-Code/storefront/internal/entity"
	"github.com/Additional-Code/storefront/internal/messaging"
	repo "github.com/Additional-Code/storefront/internal/repository/order"
	userrepo "github.com/Additional-Code/storefront/internal/repository/user"
	"github.com/Additional-Code/storefront/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/storefront/service/order")

// Service encapsulates business logic around orders.
type Service struct {
	repo      *repo.Repository
	users     *userrepo.Repository
	sessions  *database.Connections
	cache     cache.Store
	cacheTTL  time.Duration
	logger    *zap.Logger
	publisher messaging.Client
	messaging messagingConfig
	now       func() time.Time
}

// messagingConfig contains messaging specific knobs we care about.
type messagingConfig struct {
	enabled bool
	topic   string
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository  *repo.Repository
	Users       *userrepo.Repository
	Connections *database.Connections
	Cache       cache.Store
	Config      config.Config
	Logger      *zap.Logger
	Publisher   messaging.Client
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		repo:      p.Repository,
		users:     p.Users,
		sessions:  p.Connections,
		cache:     p.Cache,
		cacheTTL:  p.Config.Cache.DefaultTTL,
		logger:    p.Logger,
		publisher: p.Publisher,
		messaging: messagingConfig{
			enabled: p.Config.Messaging.Enabled,
			topic:   p.Config.Messaging.Kafka.Topic,
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

// CreateInput carries the caller supplied fields of a new order.
type CreateInput struct {
	ShippingName       string
	ShippingEmail      string
	ShippingPhone      string
	ShippingPostalCode string
	ShippingPrefecture string
	ShippingCity       string
	ShippingAddress    string
	Notes              string
}

// UpdateStatusInput carries a staff status change. AssignedSalesID is optional.
type UpdateStatusInput struct {
	Status          string
	AssignedSalesID *int64
}

// List returns every order owned by user, read through a dedicated session.
// Persistence failures are returned as-is.
func (s *Service) List(ctx context.Context, user *entity.User) ([]entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.List", trace.WithAttributes(attribute.Int64("user.id", user.ID)))
	defer span.End()

	var orders []entity.Order
	err := s.sessions.ReadSession(ctx, func(ctx context.Context, sess bun.IDB) error {
		var err error
		orders, err = s.repo.ListByUser(ctx, sess, user.ID)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list failed")
		return nil, err
	}
	return orders, nil
}

// Get retrieves an order visible to user, consulting cache when available.
// Orders owned by someone else are reported as missing unless user is an admin.
func (s *Service) Get(ctx context.Context, user *entity.User, id int64) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := s.load(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("order not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}

	if order.UserID != user.ID && !user.IsAdmin() {
		return nil, errorbank.NotFound("order not found")
	}
	return order, nil
}

// Create places a new pending order owned by user.
func (s *Service) Create(ctx context.Context, user *entity.User, in CreateInput) (*entity.Order, error) {
	if missing := in.missingFields(); len(missing) > 0 {
		return nil, errorbank.BadRequest("missing required fields", errorbank.WithDetail("fields", missing))
	}

	now := s.now()
	order := &entity.Order{
		Number:             newOrderNumber(),
		UserID:             user.ID,
		Status:             entity.OrderStatusPending,
		ShippingName:       strings.TrimSpace(in.ShippingName),
		ShippingEmail:      strings.TrimSpace(in.ShippingEmail),
		ShippingPhone:      strings.TrimSpace(in.ShippingPhone),
		ShippingPostalCode: strings.TrimSpace(in.ShippingPostalCode),
		ShippingPrefecture: strings.TrimSpace(in.ShippingPrefecture),
		ShippingCity:       strings.TrimSpace(in.ShippingCity),
		ShippingAddress:    strings.TrimSpace(in.ShippingAddress),
		Notes:              strings.TrimSpace(in.Notes),
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	ctx, span := serviceTracer.Start(ctx, "OrderService.Create", trace.WithAttributes(attribute.String("order.number", order.Number)))
	defer span.End()

	if err := s.repo.Create(ctx, order); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to create order", errorbank.WithCause(err))
	}

	s.refreshCache(ctx, order)
	s.publish(ctx, EventOrderCreated, order)
	return order, nil
}

// Cancel cancels an order on behalf of its owner or an admin.
func (s *Service) Cancel(ctx context.Context, user *entity.User, id int64) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Cancel", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("order not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}
	if current.UserID != user.ID && !user.IsAdmin() {
		return nil, errorbank.Forbidden("not allowed to cancel this order")
	}
	if !current.Cancellable() {
		return nil, errorbank.BadRequest("order cannot be cancelled", errorbank.WithDetail("status", current.Status))
	}

	order, err := s.repo.Cancel(ctx, id, user.ID, s.now())
	switch {
	case errors.Is(err, repo.ErrNotCancellable):
		return nil, errorbank.BadRequest("order cannot be cancelled", errorbank.WithDetail("status", order.Status))
	case errors.Is(err, repo.ErrNotFound):
		return nil, errorbank.NotFound("order not found")
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to cancel order", errorbank.WithCause(err))
	}

	s.refreshCache(ctx, order)
	s.publish(ctx, EventOrderCancelled, order)
	return order, nil
}

// ListAll returns every order, newest first, optionally narrowed to status.
// Only staff may call it.
func (s *Service) ListAll(ctx context.Context, user *entity.User, status string) ([]entity.Order, error) {
	if !user.IsStaff() {
		return nil, errorbank.Forbidden("staff only")
	}
	if status != "" && status != entity.OrderStatusCancelled && !entity.IsFulfilmentStatus(status) {
		return nil, errorbank.BadRequest("unknown status", errorbank.WithDetail("status", status))
	}

	ctx, span := serviceTracer.Start(ctx, "OrderService.ListAll", trace.WithAttributes(attribute.String("order.status", status)))
	defer span.End()

	var orders []entity.Order
	err := s.sessions.ReadSession(ctx, func(ctx context.Context, sess bun.IDB) error {
		var err error
		orders, err = s.repo.ListAll(ctx, sess, status)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list failed")
		return nil, errorbank.Internal("failed to list orders", errorbank.WithCause(err))
	}
	return orders, nil
}

// ListCancelled returns cancelled orders, most recently cancelled first.
// Only staff may call it.
func (s *Service) ListCancelled(ctx context.Context, user *entity.User) ([]entity.Order, error) {
	if !user.IsStaff() {
		return nil, errorbank.Forbidden("staff only")
	}

	ctx, span := serviceTracer.Start(ctx, "OrderService.ListCancelled")
	defer span.End()

	var orders []entity.Order
	err := s.sessions.ReadSession(ctx, func(ctx context.Context, sess bun.IDB) error {
		var err error
		orders, err = s.repo.ListCancelled(ctx, sess)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list failed")
		return nil, errorbank.Internal("failed to list cancelled orders", errorbank.WithCause(err))
	}
	return orders, nil
}

// UpdateStatus moves an order between fulfilment statuses on behalf of staff.
// Cancelled orders are final. An event is published only when the status
// actually changes.
func (s *Service) UpdateStatus(ctx context.Context, user *entity.User, id int64, in UpdateStatusInput) (*entity.Order, error) {
	if !user.IsStaff() {
		return nil, errorbank.Forbidden("staff only")
	}
	if !entity.IsFulfilmentStatus(in.Status) {
		return nil, errorbank.BadRequest("unknown status",
			errorbank.WithDetail("status", in.Status),
			errorbank.WithDetail("allowed", entity.FulfilmentStatuses),
		)
	}

	ctx, span := serviceTracer.Start(ctx, "OrderService.UpdateStatus", trace.WithAttributes(
		attribute.Int64("order.id", id),
		attribute.String("order.status", in.Status),
	))
	defer span.End()

	var assignee int64
	if in.AssignedSalesID != nil {
		if err := s.checkAssignee(ctx, *in.AssignedSalesID); err != nil {
			return nil, err
		}
		assignee = *in.AssignedSalesID
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("order not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}

	order, err := s.repo.UpdateStatus(ctx, id, in.Status, assignee, s.now())
	switch {
	case errors.Is(err, repo.ErrCancelled):
		return nil, errorbank.BadRequest("order is cancelled", errorbank.WithDetail("status", order.Status))
	case errors.Is(err, repo.ErrNotFound):
		return nil, errorbank.NotFound("order not found")
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to update order", errorbank.WithCause(err))
	}

	s.refreshCache(ctx, order)
	if current.Status != order.Status {
		s.publish(ctx, EventOrderStatusChanged, order)
	}
	return order, nil
}

func (s *Service) checkAssignee(ctx context.Context, id int64) error {
	invalid := errorbank.BadRequest("assigned_sales_id must reference a sales user", errorbank.WithDetail("assigned_sales_id", id))
	if id <= 0 || s.users == nil {
		return invalid
	}
	assignee, err := s.users.GetByID(ctx, id)
	switch {
	case errors.Is(err, userrepo.ErrNotFound):
		return invalid
	case err != nil:
		return errorbank.Internal("failed to load assignee", errorbank.WithCause(err))
	case assignee.Role != entity.RoleSales:
		return invalid
	}
	return nil
}

func (in CreateInput) missingFields() []string {
	required := []struct {
		name  string
		value string
	}{
		{"shipping_name", in.ShippingName},
		{"shipping_email", in.ShippingEmail},
		{"shipping_postal_code", in.ShippingPostalCode},
		{"shipping_prefecture", in.ShippingPrefecture},
		{"shipping_city", in.ShippingCity},
		{"shipping_address", in.ShippingAddress},
	}
	var missing []string
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

func newOrderNumber() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "ORD-" + id[:12]
}

func (s *Service) load(ctx context.Context, id int64) (*entity.Order, error) {
	if order, err := s.getFromCache(ctx, id); err == nil {
		return order, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) && s.logger != nil {
		s.logger.Warn("orders cache read failed", zap.Int64("id", id), zap.Error(err))
	}

	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.refreshCache(ctx, order)
	return order, nil
}

func (s *Service) refreshCache(ctx context.Context, order *entity.Order) {
	if err := s.storeInCache(ctx, order); err != nil && s.logger != nil {
		s.logger.Warn("orders cache write failed", zap.Int64("id", order.ID), zap.Error(err))
	}
}

func (s *Service) cacheKey(id int64) string {
	return fmt.Sprintf("orders:%d", id)
}

func (s *Service) getFromCache(ctx context.Context, id int64) (*entity.Order, error) {
	return cache.GetJSON[entity.Order](ctx, s.cache, s.cacheKey(id))
}

func (s *Service) storeInCache(ctx context.Context, order *entity.Order) error {
	if order == nil {
		return nil
	}
	return cache.SetJSON(ctx, s.cache, s.cacheKey(order.ID), order, s.cacheTTL)
}
