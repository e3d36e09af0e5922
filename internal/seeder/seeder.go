package seeder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/storefront/internal/auth"
	"github.com/Additional-Code/storefront/internal/database"
	"github.com/Additional-Code/storefront/internal/entity"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "storefront"

// Module provides the Seeder to Fx.
var Module = fx.Provide(New)

// Seeder performs database seeding for local/dev setups.
type Seeder struct {
	db     *bun.DB
	logger *zap.Logger
	now    func() time.Time
}

// New constructs a Seeder backed by the primary database connection.
func New(conns *database.Connections, logger *zap.Logger) *Seeder {
	return &Seeder{db: conns.Writer, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

type sampleOrder struct {
	number string
	owner  string
	status string
	city   string
	sales  string
}

// Run seeds users and then their orders. Existing rows are left untouched.
func (s *Seeder) Run(ctx context.Context) error {
	users, err := s.Users(ctx)
	if err != nil {
		return err
	}
	return s.Orders(ctx, users)
}

// Users seeds example accounts if they are missing and returns them keyed by email.
func (s *Seeder) Users(ctx context.Context) (map[string]*entity.User, error) {
	samples := []entity.User{
		{Email: "alice@example.com", Name: "Alice", Role: entity.RoleCustomer},
		{Email: "bob@example.com", Name: "Bob", Role: entity.RoleCustomer},
		{Email: "admin@example.com", Name: "Admin", Role: entity.RoleAdmin},
		{Email: "sam@example.com", Name: "Sam", Role: entity.RoleSales},
	}

	hash, err := auth.HashPassword(DefaultPassword)
	if err != nil {
		return nil, err
	}

	out := make(map[string]*entity.User, len(samples))
	created := 0
	for _, sample := range samples {
		user := sample
		err := s.db.NewSelect().Model(&user).Where("email = ?", user.Email).Limit(1).Scan(ctx)
		if err == nil {
			out[user.Email] = &user
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}

		user = sample
		now := s.now()
		user.PasswordHash = hash
		user.CreatedAt, user.UpdatedAt = now, now
		if _, err := s.db.NewInsert().Model(&user).Exec(ctx); err != nil {
			return nil, fmt.Errorf("seed user %s: %w", user.Email, err)
		}
		out[user.Email] = &user
		created++
	}

	if s.logger != nil {
		s.logger.Info("seeded users", zap.Int("created", created), zap.Int("total", len(samples)))
	}
	return out, nil
}

// Orders seeds example orders for the given users if they are missing.
func (s *Seeder) Orders(ctx context.Context, users map[string]*entity.User) error {
	samples := []sampleOrder{
		{number: "ORDER-1000", owner: "alice@example.com", status: entity.OrderStatusPending, city: "Chiyoda"},
		{number: "ORDER-1001", owner: "alice@example.com", status: entity.OrderStatusProcessing, city: "Chiyoda", sales: "sam@example.com"},
		{number: "ORDER-1002", owner: "bob@example.com", status: entity.OrderStatusShipped, city: "Kita"},
	}

	created := 0
	for _, sample := range samples {
		owner, ok := users[sample.owner]
		if !ok {
			return fmt.Errorf("seed order %s: unknown owner %s", sample.number, sample.owner)
		}

		exists, err := s.db.NewSelect().Model((*entity.Order)(nil)).Where("number = ?", sample.number).Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		var salesID int64
		if sample.sales != "" {
			sales, ok := users[sample.sales]
			if !ok {
				return fmt.Errorf("seed order %s: unknown sales user %s", sample.number, sample.sales)
			}
			salesID = sales.ID
		}

		now := s.now()
		order := entity.Order{
			Number:             sample.number,
			UserID:             owner.ID,
			Status:             sample.status,
			ShippingName:       owner.Name,
			ShippingEmail:      owner.Email,
			ShippingPostalCode: "100-0001",
			ShippingPrefecture: "Tokyo",
			ShippingCity:       sample.city,
			ShippingAddress:    "1-1-1",
			AssignedSalesID:    salesID,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if _, err := s.db.NewInsert().Model(&order).Exec(ctx); err != nil {
			return fmt.Errorf("seed order %s: %w", sample.number, err)
		}
		created++
	}

	if s.logger != nil {
		s.logger.Info("seeded orders", zap.Int("created", created), zap.Int("total", len(samples)))
	}
	return nil
}
