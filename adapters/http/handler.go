// Package http exposes the gymdesk JSON API over chi.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/artpar/gymdesk/adapters/metrics"
	"github.com/artpar/gymdesk/app"
	_ "github.com/artpar/gymdesk/docs/swagger" // swagger docs
	"github.com/artpar/gymdesk/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag"
)

// ErrorResponseBody represents an error response body for swagger docs.
type ErrorResponseBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details for swagger docs.
type ErrorDetail struct {
	Code    string            `json:"code" example:"validation_failed"`
	Message string            `json:"message" example:"validation failed: phone: Phone must have 10 or 11 digits"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// VersionResponse represents the version endpoint response.
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
	Service string `json:"service" example:"gymdesk"`
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

// HealthChecker reports whether a dependency is usable.
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	db HealthChecker
}

// NewHealthHandler creates a new health handler. db may be nil.
func NewHealthHandler(db HealthChecker) *HealthHandler {
	return &HealthHandler{db: db}
}

// Liveness returns a simple liveness check.
//
//	@Summary		Liveness check
//	@Description	Returns OK if the service is running
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Router			/health [get]
//	@Router			/health/live [get]
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Readiness checks that the database answers.
//
//	@Summary		Readiness check
//	@Description	Checks if the database is reachable
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Failure		503	{object}	map[string]string	"status: unhealthy, error: message"
//	@Router			/health/ready [get]
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// VersionHandler returns the service version.
//
//	@Summary		Get service version
//	@Tags			System
//	@Produce		json
//	@Success		200	{object}	VersionResponse
//	@Router			/version [get]
func VersionHandler(version string) http.HandlerFunc {
	if version == "" {
		version = "dev"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, VersionResponse{Version: version, Service: "gymdesk"})
	}
}

// RouterConfig holds the handlers and options of the router.
type RouterConfig struct {
	Health    *HealthHandler
	Auth      *AuthHandler
	Members   *MemberHandler
	Reports   *ReportHandler
	Staff     *StaffHandler
	Metrics   *metrics.Collector
	Version   string

	// MetricsPath defaults to /metrics. MetricsHandler defaults to the
	// handler of the default Prometheus registry.
	MetricsPath    string
	MetricsHandler http.Handler

	OpenAPI   bool
	Logger    zerolog.Logger
	RequestTO time.Duration // per-request timeout, default 60s
}

// NewRouter creates the main HTTP router.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	timeout := cfg.RequestTO
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	if cfg.Metrics != nil {
		r.Use(NewMetricsMiddleware(cfg.Metrics))
	}

	health := cfg.Health
	if health == nil {
		health = NewHealthHandler(nil)
	}
	r.Get("/health", health.Liveness)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Get("/version", VersionHandler(cfg.Version))

	if cfg.Metrics != nil {
		path, handler := cfg.MetricsPath, cfg.MetricsHandler
		if path == "" {
			path = "/metrics"
		}
		if handler == nil {
			handler = promhttp.Handler()
		}
		r.Handle(path, handler)
	}

	if cfg.OpenAPI {
		r.Get("/.well-known/openapi.json", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Access-Control-Allow-Origin", "*")
			doc, err := swag.ReadDoc()
			if err != nil {
				writeError(w, http.StatusInternalServerError, "internal_error", "OpenAPI document unavailable")
				return
			}
			w.Write([]byte(doc))
		})
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/.well-known/openapi.json"),
		))
	}

	if cfg.Auth == nil {
		return r
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", cfg.Auth.Login)
		r.Post("/logout", cfg.Auth.Logout)

		r.Group(func(r chi.Router) {
			r.Use(cfg.Auth.RequireSession)
			r.Get("/me", cfg.Auth.Me)
			r.Post("/password", cfg.Auth.ChangePassword)
		})
	})

	// Everything below needs a session whose password is not pending reset.
	r.Group(func(r chi.Router) {
		r.Use(cfg.Auth.RequireSession)
		r.Use(RequirePasswordSet)

		if cfg.Members != nil {
			r.Route("/members", cfg.Members.Routes)
		}
		if cfg.Reports != nil {
			r.Get("/reports/delinquents", cfg.Reports.Delinquents)
			r.With(RequireAdmin).Get("/dashboard", cfg.Reports.Dashboard)
		}
		if cfg.Staff != nil {
			r.With(RequireAdmin).Route("/staff", cfg.Staff.Routes)
		}
	})

	return r
}

// NewMetricsMiddleware creates a middleware that records request metrics.
func NewMetricsMiddleware(m *metrics.Collector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipInstrumentation(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			m.RequestsInFlight.Inc()
			defer m.RequestsInFlight.Dec()

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := metrics.NormalizePath(r.URL.Path)
			m.RequestsTotal.WithLabelValues(r.Method, route, statusLabel(ww.Status())).Inc()
			m.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}

func skipInstrumentation(path string) bool {
	return strings.HasPrefix(path, "/health") ||
		path == "/metrics" ||
		strings.HasPrefix(path, "/swagger") ||
		strings.HasPrefix(path, "/.well-known")
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

// NewLoggingMiddleware creates a new logging middleware.
func NewLoggingMiddleware(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			if strings.HasPrefix(r.URL.Path, "/health") || r.URL.Path == "/metrics" {
				return
			}

			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}

// -----------------------------------------------------------------------------
// Response helpers
// -----------------------------------------------------------------------------

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponseBody{Error: ErrorDetail{Code: code, Message: message}})
}

// writeServiceError maps an application error to its HTTP status.
func writeServiceError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	var verr *app.ValidationError
	var lerr *app.LockedError

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponseBody{Error: ErrorDetail{
			Code:    "validation_failed",
			Message: verr.Error(),
			Fields:  verr.Fields,
		}})
	case errors.As(err, &lerr):
		w.Header().Set("Retry-After", strconv.Itoa(int(lerr.Wait.Seconds())+1))
		writeError(w, http.StatusTooManyRequests, "locked", lerr.Error())
	case errors.Is(err, ports.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "Resource not found")
	case errors.Is(err, app.ErrDuplicatePhone):
		writeError(w, http.StatusConflict, "duplicate_phone", err.Error())
	case errors.Is(err, app.ErrDuplicateUsername):
		writeError(w, http.StatusConflict, "duplicate_username", err.Error())
	case errors.Is(err, app.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, "duplicate_email", err.Error())
	case errors.Is(err, app.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", err.Error())
	case errors.Is(err, app.ErrSessionInvalid):
		writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, app.ErrInactiveAccount):
		writeError(w, http.StatusForbidden, "account_inactive", err.Error())
	case errors.Is(err, app.ErrSelfDeactivation):
		writeError(w, http.StatusBadRequest, "self_deactivation", err.Error())
	default:
		logger.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

// decodeJSON reads a JSON request body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// clientIP returns the caller address. RealIP has already applied
// X-Forwarded-For and X-Real-IP to RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
