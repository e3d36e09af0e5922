package grpc

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/Additional-Code/storefront/internal/config"
	"github.com/Additional-Code/storefront/internal/database"
)

// OrdersService is the health service name that tracks database reachability.
const OrdersService = "storefront.orders"

const healthInterval = 10 * time.Second

// Module exposes the gRPC server and lifecycle hooks to Fx.
var Module = fx.Module("grpc_server",
	fx.Provide(NewServer, NewHealth),
	fx.Invoke(Run),
)

// NewHealth registers the standard health service on server.
func NewHealth(server *grpc.Server) *health.Server {
	hs := health.NewServer()
	healthpb.RegisterHealthServer(server, hs)
	return hs
}

// NewServer builds a gRPC server with logging and panic recovery interceptors.
func NewServer(logger *zap.Logger) *grpc.Server {
	return grpc.NewServer(
		grpc.ChainUnaryInterceptor(unaryInterceptor(logger)),
		grpc.ChainStreamInterceptor(streamInterceptor(logger)),
	)
}

func unaryInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				logger.Error("grpc handler panicked", zap.String("method", info.FullMethod), zap.Any("panic", r))
				resp, err = nil, status.Error(codes.Internal, "internal error")
			}
			logCall(logger, "grpc unary call finished", info.FullMethod, time.Since(start), err)
		}()
		return handler(ctx, req)
	}
}

func streamInterceptor(logger *zap.Logger) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				logger.Error("grpc stream panicked", zap.String("method", info.FullMethod), zap.Any("panic", r))
				err = status.Error(codes.Internal, "internal error")
			}
			logCall(logger, "grpc stream call finished", info.FullMethod, time.Since(start), err)
		}()
		return handler(srv, ss)
	}
}

// logCall keeps health checks at debug so health polling does not flood the logs.
func logCall(logger *zap.Logger, msg, method string, duration time.Duration, err error) {
	level := zapcore.InfoLevel
	if strings.HasPrefix(method, "/grpc.health.v1.Health/") {
		level = zapcore.DebugLevel
	}
	fields := []zap.Field{zap.String("method", method), zap.Duration("duration", duration)}
	if err != nil {
		level = zapcore.WarnLevel
		fields = append(fields, zap.String("code", status.Code(err).String()), zap.Error(err))
	}
	if ce := logger.Check(level, msg); ce != nil {
		ce.Write(fields...)
	}
}

// Pinger reports whether the order store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// watchDatabase updates the OrdersService status from db every interval until ctx is done.
func watchDatabase(ctx context.Context, hs *health.Server, db Pinger, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := healthpb.HealthCheckResponse_UNKNOWN
	for {
		current := healthpb.HealthCheckResponse_SERVING
		pingCtx, cancel := context.WithTimeout(ctx, interval)
		err := db.Ping(pingCtx)
		cancel()
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			current = healthpb.HealthCheckResponse_NOT_SERVING
		}
		if current != last {
			logger.Info("orders health changed", zap.String("status", current.String()), zap.Error(err))
			hs.SetServingStatus(OrdersService, current)
			last = current
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunParams collects the gRPC server lifecycle dependencies.
type RunParams struct {
	fx.In

	Lifecycle   fx.Lifecycle
	Config      config.Config
	Server      *grpc.Server
	Health      *health.Server
	Connections *database.Connections `optional:"true"`
	Logger      *zap.Logger
}

// Run binds the gRPC server to the configured host/port and manages lifecycle.
func Run(p RunParams) {
	addr := fmt.Sprintf("%s:%d", p.Config.GRPC.Host, p.Config.GRPC.Port)
	logger := p.Logger
	var (
		listener    net.Listener
		stopProbing context.CancelFunc = func() {}
	)

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen grpc: %w", err)
			}
			listener = ln
			p.Health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
			if p.Connections != nil {
				watchCtx, cancel := context.WithCancel(context.Background())
				stopProbing = cancel
				go watchDatabase(watchCtx, p.Health, p.Connections, healthInterval, logger)
			}
			logger.Info("starting gRPC server", zap.String("addr", addr))
			go func() {
				if err := p.Server.Serve(listener); err != nil {
					logger.Fatal("grpc server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping gRPC server")
			stopProbing()
			p.Health.Shutdown()
			stopped := make(chan struct{})
			go func() {
				p.Server.GracefulStop()
				close(stopped)
			}()

			select {
			case <-ctx.Done():
				p.Server.Stop()
				return ctx.Err()
			case <-stopped:
				if listener != nil {
					_ = listener.Close()
				}
				return nil
			}
		},
	})
}
