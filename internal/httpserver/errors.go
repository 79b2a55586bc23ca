package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog/internal/domain"
)

// fail logs err under event and converts it into the HTTP error the caller sees.
// Only public messages reach the client; everything else is "internal error".
func fail(l *slog.Logger, event string, err error) error {
	code := domain.HTTPStatus(err)
	if code >= http.StatusInternalServerError && code != http.StatusServiceUnavailable {
		l.Error(event, "status", code, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	msg := domain.Message(err, http.StatusText(code))
	l.Warn(event, "status", code, "reason", msg)
	return echo.NewHTTPError(code, msg)
}

func badRequest(l *slog.Logger, event, reason string, err error) error {
	l.Warn(event, "status", http.StatusBadRequest, "reason", reason, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, reason)
}

// pathID parses a uuid path parameter.
func pathID(c echo.Context, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Param(name))
}
