package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"event-management-api/internal/auth"
	"event-management-api/internal/config"
	"event-management-api/internal/handler"
	"event-management-api/internal/health"
	"event-management-api/internal/middleware"
	"event-management-api/internal/service"
	"event-management-api/internal/store"
	"event-management-api/internal/store/postgres"
	"event-management-api/internal/store/sqlite"
	"event-management-api/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the gRPC health endpoint",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServer(cmd.Context())
	},
}

func runServer(parent context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := config.NewLogger(cfg.Logging)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn().Err(err).Msg("tracing shutdown")
		}
	}()

	st, err := openStore(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, cfg.Auth.JWTIssuer)
	reporter := health.NewReporter(st, logger)
	if err := reporter.Check(ctx); err != nil {
		return fmt.Errorf("db ping: %w", err)
	}

	h := handler.New(
		service.NewAuthService(st, tokens, logger),
		service.NewEventService(st, logger),
		tokens,
		reporter,
		middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		logger,
	)

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	grpcSrv := reporter.NewGRPCServer()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", httpSrv.Addr).Str("env", cfg.Environment).Msg("http listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		lis, err := net.Listen("tcp", ":"+cfg.Server.GRPCPort)
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		logger.Info().Str("addr", lis.Addr().String()).Msg("grpc health listening")
		if err := grpcSrv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")
		reporter.Shutdown()

		sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		grpcSrv.GracefulStop()
		return httpSrv.Shutdown(sctx)
	})

	return g.Wait()
}

func openStore(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (store.Store, error) {
	if cfg.IsSQLite() {
		st, err := sqlite.Open(ctx, cfg.SQLiteDSN())
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		logger.Info().Msg("using sqlite store")
		return st, nil
	}

	if cfg.MigrateOnStart {
		if err := postgres.MigrateUp(cfg.URL); err != nil {
			return nil, err
		}
		logger.Info().Msg("migrations applied")
	}
	st, err := postgres.Open(ctx, cfg.URL, cfg.MaxConnections)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	logger.Info().Int("max_conns", cfg.MaxConnections).Msg("connected to postgres")
	return st, nil
}
