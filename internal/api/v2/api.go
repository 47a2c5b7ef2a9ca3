// internal/api/v2/api.go
package api

import (
	"context"
	"crypto/rand"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/patrickmn/go-cache"

	"github.com/campusworks/eventhub/internal/conf"
	"github.com/campusworks/eventhub/internal/datastore"
	"github.com/campusworks/eventhub/internal/dedup"
	"github.com/campusworks/eventhub/internal/errors"
	"github.com/campusworks/eventhub/internal/logging"
	"github.com/campusworks/eventhub/internal/notification"
	"github.com/campusworks/eventhub/internal/observability"
	"github.com/campusworks/eventhub/internal/payment"
	"github.com/campusworks/eventhub/internal/security"
)

// Thresholds for the two duplicate-detector call sites. The advisory check
// runs before the user confirms creation; the gate runs at create/update.
const (
	advisoryThreshold = 0.7
	gateThreshold     = 0.8
)

// Controller manages the API routes and handlers
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	DS       datastore.Interface
	Settings *conf.Settings

	Sessions *security.SessionManager
	Detector *dedup.Service
	Payments *payment.Processor
	Notifier *notification.Service

	dedupCache *cache.Cache // short-lived cache for advisory duplicate checks
	metrics    *observability.Metrics
	apiLogger  *slog.Logger
	apiLevel   *slog.LevelVar
	loggerDone func() error

	ctx    context.Context
	cancel context.CancelFunc
}

// Option is a functional option for configuring the Controller.
type Option func(*Controller)

// WithMetrics attaches a metrics set and enables the /metrics endpoint.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithLogger overrides the structured API logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.apiLogger = logger
	}
}

// New creates a controller and registers all routes under /api/v2.
func New(e *echo.Echo, ds datastore.Interface, settings *conf.Settings,
	sessions *security.SessionManager, detector *dedup.Service,
	payments *payment.Processor, notifier *notification.Service,
	options ...Option) *Controller {

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		Echo:       e,
		DS:         ds,
		Settings:   settings,
		Sessions:   sessions,
		Detector:   detector,
		Payments:   payments,
		Notifier:   notifier,
		dedupCache: cache.New(30*time.Second, time.Minute),
		apiLevel:   new(slog.LevelVar),
		ctx:        ctx,
		cancel:     cancel,
	}

	if settings.WebServer.Debug {
		c.apiLevel.Set(slog.LevelDebug)
	} else {
		c.apiLevel.Set(slog.LevelInfo)
	}

	for _, opt := range options {
		opt(c)
	}

	// the file logger is only a fallback; a logger injected through an
	// option must suppress it entirely, not just replace it
	if c.apiLogger == nil {
		logger, closeFunc, err := logging.NewFileLogger("logs/api.log", "api", c.apiLevel)
		if err != nil {
			logging.Warn("failed to initialize API file logger, using default", "error", err)
			logger = slog.Default().With("service", "api")
			closeFunc = func() error { return nil }
		}
		c.apiLogger = logger
		c.loggerDone = closeFunc
	}

	c.Group = e.Group("/api/v2")
	c.initRoutes()
	return c
}

// initRoutes wires every endpoint. Route groups share middleware: all
// authenticated routes go through AuthMiddleware, admin routes additionally
// through RequireRole.
func (c *Controller) initRoutes() {
	g := c.Group
	g.Use(middleware.Recover())
	if c.metrics != nil {
		g.Use(c.metricsMiddleware)
	}

	g.GET("/health", c.Health)
	if c.metrics != nil && c.Settings.WebServer.Metrics {
		c.Echo.GET("/metrics", echo.WrapHandler(c.metrics.Handler()))
	}

	// auth
	g.POST("/auth/register", c.Register)
	g.POST("/auth/login", c.Login)
	g.POST("/auth/logout", c.Logout, c.AuthMiddleware)
	g.GET("/auth/me", c.Me, c.AuthMiddleware)

	// events
	g.GET("/events", c.ListEvents)
	g.GET("/events/:id", c.GetEvent)
	g.POST("/events/check-duplicates", c.CheckDuplicates, c.AuthMiddleware)
	g.POST("/events", c.CreateEvent, c.AuthMiddleware, c.RequireRole(datastore.RoleOrganizer, datastore.RoleAdmin))
	g.PUT("/events/:id", c.UpdateEvent, c.AuthMiddleware, c.RequireRole(datastore.RoleOrganizer, datastore.RoleAdmin))
	g.DELETE("/events/:id", c.DeleteEvent, c.AuthMiddleware, c.RequireRole(datastore.RoleOrganizer, datastore.RoleAdmin))

	// registrations
	g.POST("/events/:id/register", c.RegisterForEvent, c.AuthMiddleware)
	g.DELETE("/events/:id/register", c.CancelEventRegistration, c.AuthMiddleware)
	g.GET("/registrations", c.ListRegistrations, c.AuthMiddleware)
	g.POST("/registrations/:id/pay", c.PayRegistration, c.AuthMiddleware)

	// notifications
	g.GET("/notifications", c.ListNotifications, c.AuthMiddleware)
	g.POST("/notifications/:id/read", c.MarkNotificationRead, c.AuthMiddleware)

	// admin
	g.GET("/admin/dashboard", c.Dashboard, c.AuthMiddleware, c.RequireRole(datastore.RoleAdmin))
}

// Shutdown releases controller resources.
func (c *Controller) Shutdown() {
	c.cancel()
	if c.loggerDone != nil {
		if err := c.loggerDone(); err != nil {
			logging.Warn("failed to close API logger", "error", err)
		}
	}
}

// Health reports liveness.
func (c *Controller) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// ErrorResponse is the JSON body returned for every failed request.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"`
}

// NewErrorResponse creates a new API error response
func NewErrorResponse(err error, message string, code int) *ErrorResponse {
	var errorStr string
	if err != nil {
		errorStr = err.Error()
	} else {
		errorStr = message
	}
	return &ErrorResponse{
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: generateCorrelationID(),
	}
}

// generateCorrelationID creates a short random identifier for error tracking.
func generateCorrelationID() string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "unknown"
	}
	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}
	return string(b)
}

// HandleError logs the error and writes the standard error body.
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	errorResp := NewErrorResponse(err, message, code)

	var errorStr string
	if err != nil {
		errorStr = err.Error()
	} else {
		errorStr = message
	}
	c.apiLogger.Error("API Error",
		"correlation_id", errorResp.CorrelationID,
		"message", message,
		"error", errorStr,
		"code", code,
		"path", ctx.Request().URL.Path,
		"method", ctx.Request().Method,
		"ip", ctx.RealIP(),
	)

	return ctx.JSON(code, errorResp)
}

// mapError translates datastore/domain errors to an HTTP status.
func mapErrorStatus(err error) int {
	switch {
	case errors.HasCategory(err, errors.CategoryNotFound):
		return http.StatusNotFound
	case errors.HasCategory(err, errors.CategoryValidation):
		return http.StatusBadRequest
	case errors.HasCategory(err, errors.CategoryConflict):
		return http.StatusConflict
	case errors.HasCategory(err, errors.CategoryAuth):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
