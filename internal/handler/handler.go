package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"event-management-api/internal/auth"
	"event-management-api/internal/health"
	"event-management-api/internal/metrics"
	"event-management-api/internal/middleware"
	"event-management-api/internal/service"
)

type Handler struct {
	auth    *service.AuthService
	events  *service.EventService
	tokens  *auth.TokenIssuer
	health  *health.Reporter
	limiter *middleware.RateLimiter
	logger  zerolog.Logger
}

func New(
	authSvc *service.AuthService,
	events *service.EventService,
	tokens *auth.TokenIssuer,
	reporter *health.Reporter,
	limiter *middleware.RateLimiter,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		auth:    authSvc,
		events:  events,
		tokens:  tokens,
		health:  reporter,
		limiter: limiter,
		logger:  logger,
	}
}

// Routes wires every endpoint behind the shared middleware chain.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	protect := middleware.Auth(h.tokens)
	limit := middleware.RateLimit(h.limiter)

	handle := func(pattern string, hf http.Handler) {
		mux.Handle(pattern, metrics.Instrument(pattern, hf))
	}

	handle("GET /{$}", http.HandlerFunc(h.Index))
	handle("GET /healthz", health.Liveness())
	handle("GET /readyz", h.health.Readiness())
	mux.Handle("GET /metrics", metrics.Handler())

	handle("POST /auth/register", limit(http.HandlerFunc(h.Register)))
	handle("POST /auth/login", limit(http.HandlerFunc(h.Login)))

	handle("POST /events/createEvent", protect(http.HandlerFunc(h.CreateEvent)))
	handle("GET /events/upcoming", http.HandlerFunc(h.ListUpcoming))
	handle("GET /events/{id}", http.HandlerFunc(h.GetEventDetails))
	handle("POST /events/{id}/register", protect(http.HandlerFunc(h.RegisterForEvent)))
	handle("DELETE /events/{id}/cancel/{userId}", protect(http.HandlerFunc(h.CancelRegistration)))
	handle("GET /events/{id}/stats", http.HandlerFunc(h.GetEventStats))

	var root http.Handler = mux
	root = middleware.RequestLogging(root)
	root = middleware.Tracing(root)
	root = middleware.Recover(root)
	root = middleware.CorrelationID(h.logger)(root)
	return root
}

func (h *Handler) Index(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Event Management API is running"))
}
