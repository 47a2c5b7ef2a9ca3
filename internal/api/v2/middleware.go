package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/campusworks/eventhub/internal/security"
)

const sessionContextKey = "eventhub_session"

// AuthMiddleware resolves the bearer token and stashes the session on the
// echo context. Requests without a valid token get a 401.
func (c *Controller) AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		header := ctx.Request().Header.Get(echo.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return ctx.JSON(http.StatusUnauthorized,
				NewErrorResponse(nil, "Authentication required", http.StatusUnauthorized))
		}

		session, ok := c.Sessions.Resolve(token)
		if !ok {
			return ctx.JSON(http.StatusUnauthorized,
				NewErrorResponse(nil, "Invalid or expired session", http.StatusUnauthorized))
		}

		ctx.Set(sessionContextKey, session)
		return next(ctx)
	}
}

// RequireRole restricts a route to the named roles. It must run after
// AuthMiddleware.
func (c *Controller) RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			session, ok := currentSession(ctx)
			if !ok {
				return ctx.JSON(http.StatusUnauthorized,
					NewErrorResponse(nil, "Authentication required", http.StatusUnauthorized))
			}
			for _, role := range roles {
				if session.Role == role {
					return next(ctx)
				}
			}
			return ctx.JSON(http.StatusForbidden,
				NewErrorResponse(nil, "Insufficient permissions", http.StatusForbidden))
		}
	}
}

// currentSession fetches the session AuthMiddleware stored on the context.
func currentSession(ctx echo.Context) (security.Session, bool) {
	session, ok := ctx.Get(sessionContextKey).(security.Session)
	return session, ok
}

// metricsMiddleware records request counts and latency per route. The route
// path template is used rather than the raw URL so cardinality stays bounded.
func (c *Controller) metricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		start := time.Now()
		err := next(ctx)

		path := ctx.Path()
		method := ctx.Request().Method
		status := ctx.Response().Status
		if err != nil {
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
		}

		c.metrics.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		c.metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		return err
	}
}
