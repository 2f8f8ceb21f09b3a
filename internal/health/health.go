// Package health reports liveness and database readiness over HTTP and the
// standard gRPC health protocol.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

const pingTimeout = 2 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

// Reporter pings the database and mirrors the result into the gRPC health
// service so both surfaces agree.
type Reporter struct {
	db     Pinger
	grpc   *grpchealth.Server
	logger zerolog.Logger
}

func NewReporter(db Pinger, logger zerolog.Logger) *Reporter {
	return &Reporter{
		db:     db,
		grpc:   grpchealth.NewServer(),
		logger: logger.With().Str("component", "health").Logger(),
	}
}

// Check pings the database and updates the serving status.
func (r *Reporter) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := r.db.Ping(ctx); err != nil {
		r.grpc.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
		return err
	}
	r.grpc.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	return nil
}

// Shutdown flips every service to NOT_SERVING ahead of the listener closing.
func (r *Reporter) Shutdown() { r.grpc.Shutdown() }

// NewGRPCServer builds a gRPC server exposing grpc.health.v1.Health.
func (r *Reporter) NewGRPCServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(unaryLogging(r.logger)))
	healthpb.RegisterHealthServer(srv, r.grpc)
	return srv
}

func unaryLogging(logger zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := next(ctx, req)
		logger.Debug().
			Str("method", info.FullMethod).
			Str("code", status.Code(err).String()).
			Dur("duration", time.Since(start)).
			Msg("grpc")
		return resp, err
	}
}

func Liveness() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

func (r *Reporter) Readiness() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if err := r.Check(req.Context()); err != nil {
			r.logger.Warn().Err(err).Msg("readiness check failed")
			writeStatus(w, http.StatusServiceUnavailable, map[string]string{"error": "database unavailable"})
			return
		}
		writeStatus(w, http.StatusOK, map[string]string{"status": "ready"})
	})
}

func writeStatus(w http.ResponseWriter, code int, body map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
