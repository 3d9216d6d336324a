package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/arefin-dev/cliply/backend/internal/models"
)

// UserReader is the read-side user lookup the profile endpoints need.
type UserReader interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// UserHandler handles user profile reads. The aggregate counters on the
// returned profile are maintained by the engine, not by these handlers.
type UserHandler struct {
	users UserReader
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users UserReader) *UserHandler {
	return &UserHandler{users: users}
}

// RegisterProfileRoutes registers user profile routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/users/:id", h.GetUser)
}

// GetUser returns a user profile with its aggregate counters.
func (h *UserHandler) GetUser(c echo.Context) error {
	param := c.Param("id")
	if id, err := strconv.ParseUint(param, 10, 32); err == nil {
		user, err := h.users.GetByID(c.Request().Context(), uint(id))
		if err != nil {
			return engineHTTPError(err)
		}
		return c.JSON(http.StatusOK, echo.Map{"success": true, "data": user})
	}

	user, err := h.users.GetByUsername(c.Request().Context(), param)
	if err != nil {
		return engineHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": user})
}
