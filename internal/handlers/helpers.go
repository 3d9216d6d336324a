package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/arefin-dev/cliply/backend/internal/engine"
	"github.com/arefin-dev/cliply/backend/internal/models"
)

// getUserIDFromContext returns the authenticated user's ID, or 0 when
// the request carries no valid claims.
func getUserIDFromContext(c echo.Context) uint {
	claims, ok := c.Get("user").(*models.JwtCustomClaims)
	if !ok || claims == nil {
		return 0
	}
	return claims.UserID
}

// optionalUserID returns the authenticated user's ID or nil for
// anonymous requests.
func optionalUserID(c echo.Context) *uint {
	id := getUserIDFromContext(c)
	if id == 0 {
		return nil
	}
	return &id
}

// engineHTTPError maps the engine error taxonomy onto HTTP statuses:
// not-found 404, self-reference 400, conflict 409, timeout 503.
func engineHTTPError(err error) error {
	var nf *engine.NotFoundError
	if errors.As(err, &nf) {
		return echo.NewHTTPError(http.StatusNotFound, nf.Error())
	}
	var sr *engine.SelfReferenceError
	if errors.As(err, &sr) {
		return echo.NewHTTPError(http.StatusBadRequest, sr.Error())
	}
	var cf *engine.ConflictError
	if errors.As(err, &cf) {
		return echo.NewHTTPError(http.StatusConflict, "Concurrent update, please retry")
	}
	var to *engine.TimeoutError
	if errors.As(err, &to) {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Storage timed out, safe to retry")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

// pageParams reads page/limit query parameters with the usual bounds.
func pageParams(c echo.Context) (page, limit int) {
	page = atoiDefault(c.QueryParam("page"), 1)
	limit = atoiDefault(c.QueryParam("limit"), 10)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 10
	}
	return page, limit
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
