package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/storefront/internal/cache"
	"github.com/Additional-Code/storefront/internal/config"
	"github.com/Additional-Code/storefront/internal/entity"
	userrepo "github.com/Additional-Code/storefront/internal/repository/user"
	"github.com/Additional-Code/storefront/pkg/errorbank"
)

var authTracer = otel.Tracer("github.com/Additional-Code/storefront/auth")

const invalidCredentials = "invalid email or password"

// Authenticator logs users in and resolves the caller behind a token.
type Authenticator struct {
	users    *userrepo.Repository
	tokens   *Tokens
	cache    cache.Store
	cacheTTL time.Duration
	logger   *zap.Logger
}

// Params defines dependencies for constructing Authenticator.
type Params struct {
	fx.In

	Users  *userrepo.Repository
	Tokens *Tokens
	Cache  cache.Store
	Config config.Config
	Logger *zap.Logger
}

// NewAuthenticator wires a new Authenticator instance.
func NewAuthenticator(p Params) *Authenticator {
	return &Authenticator{
		users:    p.Users,
		tokens:   p.Tokens,
		cache:    p.Cache,
		cacheTTL: p.Config.Cache.DefaultTTL,
		logger:   p.Logger,
	}
}

// Register creates an account with a hashed password.
func (a *Authenticator) Register(ctx context.Context, email, password, name, role string) (*entity.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, errorbank.BadRequest("email and password are required")
	}
	if role == "" {
		role = entity.RoleCustomer
	}
	switch role {
	case entity.RoleCustomer, entity.RoleSales, entity.RoleAdmin:
	default:
		return nil, errorbank.BadRequest("unknown role", errorbank.WithDetail("role", role))
	}

	if _, err := a.users.GetByEmail(ctx, email); err == nil {
		return nil, errorbank.Conflict("email already registered")
	} else if !errors.Is(err, userrepo.ErrNotFound) {
		return nil, errorbank.Internal("failed to load user", errorbank.WithCause(err))
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, errorbank.Internal("failed to hash password", errorbank.WithCause(err))
	}

	now := time.Now().UTC()
	user := &entity.User{
		Email:        email,
		Name:         name,
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.users.Create(ctx, user); err != nil {
		return nil, errorbank.Internal("failed to create user", errorbank.WithCause(err))
	}
	return user, nil
}

// Login checks credentials and issues an access token.
func (a *Authenticator) Login(ctx context.Context, email, password string) (*entity.User, string, time.Time, error) {
	ctx, span := authTracer.Start(ctx, "Authenticator.Login")
	defer span.End()

	user, err := a.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return nil, "", time.Time{}, errorbank.Unauthorized(invalidCredentials)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, "", time.Time{}, errorbank.Internal("failed to load user", errorbank.WithCause(err))
	}

	ok, err := VerifyPassword(user.PasswordHash, password)
	if err != nil || !ok {
		return nil, "", time.Time{}, errorbank.Unauthorized(invalidCredentials)
	}

	return a.IssueToken(ctx, user)
}

// IssueToken signs a token for an already loaded user.
func (a *Authenticator) IssueToken(ctx context.Context, user *entity.User) (*entity.User, string, time.Time, error) {
	token, expiresAt, err := a.tokens.Issue(user)
	if err != nil {
		return nil, "", time.Time{}, errorbank.Internal("failed to issue token", errorbank.WithCause(err))
	}
	if a.logger != nil {
		a.logger.Info("token issued", zap.Int64("user_id", user.ID))
	}
	return user, token, expiresAt, nil
}

// Resolve returns the user a token was issued to.
func (a *Authenticator) Resolve(ctx context.Context, token string) (*entity.User, error) {
	ctx, span := authTracer.Start(ctx, "Authenticator.Resolve")
	defer span.End()

	claims, err := a.tokens.Parse(token)
	if err != nil {
		span.SetStatus(codes.Error, "invalid token")
		return nil, errorbank.Unauthorized("invalid or expired token", errorbank.WithCause(err))
	}
	id, err := claims.UserID()
	if err != nil {
		return nil, errorbank.Unauthorized("invalid or expired token", errorbank.WithCause(err))
	}
	span.SetAttributes(attribute.Int64("user.id", id))

	if user, err := a.getFromCache(ctx, id); err == nil {
		return user, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) && a.logger != nil {
		a.logger.Warn("users cache read failed", zap.Int64("id", id), zap.Error(err))
	}

	user, err := a.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return nil, errorbank.Unauthorized("unknown user")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load user", errorbank.WithCause(err))
	}

	if err := a.storeInCache(ctx, user); err != nil && a.logger != nil {
		a.logger.Warn("users cache write failed", zap.Int64("id", id), zap.Error(err))
	}
	return user, nil
}

func cacheKey(id int64) string {
	return fmt.Sprintf("users:%d", id)
}

func (a *Authenticator) getFromCache(ctx context.Context, id int64) (*entity.User, error) {
	return cache.GetJSON[entity.User](ctx, a.cache, cacheKey(id))
}

func (a *Authenticator) storeInCache(ctx context.Context, user *entity.User) error {
	return cache.SetJSON(ctx, a.cache, cacheKey(user.ID), user, a.cacheTTL)
}
