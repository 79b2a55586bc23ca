package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog/internal/domain"
	"github.com/Skotchmaster/blog/internal/logging"
	"github.com/Skotchmaster/blog/internal/metrics"
)

// Authenticate runs s and, on success, threads the identity through the
// request context. Failures stop the chain before the handler.
func Authenticate(s Strategy) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := req.Context()
			l := logging.FromContext(ctx).With("mw", "auth", "strategy", s.Name())

			id, err := s.Authenticate(ctx, req)
			if err != nil {
				metrics.AuthFailures.WithLabelValues(s.Name()).Inc()
				return reject(l, err)
			}

			c.SetRequest(req.WithContext(WithIdentity(ctx, id)))
			return next(c)
		}
	}
}

// RequireRoleMiddleware must be mounted after Authenticate.
func RequireRoleMiddleware(role domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			if err := RequireRole(FromContext(ctx), role); err != nil {
				return reject(logging.FromContext(ctx).With("mw", "require_role", "role", role), err)
			}
			return next(c)
		}
	}
}

func reject(l *slog.Logger, err error) error {
	code := domain.HTTPStatus(err)
	var pe *domain.PublicError
	if code >= http.StatusInternalServerError || !errors.As(err, &pe) {
		l.Error("auth_error", "status", http.StatusInternalServerError, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	l.Warn("auth_rejected", "status", code, "reason", pe.Msg)
	return echo.NewHTTPError(code, pe.Msg)
}
