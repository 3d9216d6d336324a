package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/arefin-dev/cliply/backend/internal/engine"
	"github.com/arefin-dev/cliply/backend/internal/models"
)

// CommentHandler handles comment HTTP requests. Comment creation goes
// through the engine so the comment counter and the fan-out stay
// consistent with the stored comment.
type CommentHandler struct {
	engine *engine.Engine
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(eng *engine.Engine) *CommentHandler {
	return &CommentHandler{engine: eng}
}

// RegisterCommentRoutes registers comment routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/videos/:id/comments", h.CreateComment)
}

// RegisterPublicCommentRoutes registers the read-only comment routes
func (h *CommentHandler) RegisterPublicCommentRoutes(g *echo.Group) {
	g.GET("/videos/:id/comments", h.GetComments)
}

// CreateComment adds a comment or reply to a video.
func (h *CommentHandler) CreateComment(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	req := new(models.CreateCommentRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	comment, err := h.engine.AddComment(c.Request().Context(), currentUserID, c.Param("id"), req)
	if err != nil {
		return engineHTTPError(err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": comment})
}

// GetComments returns one page of a video's comments, newest first.
func (h *CommentHandler) GetComments(c echo.Context) error {
	page, limit := pageParams(c)

	comments, total, err := h.engine.ListComments(c.Request().Context(), c.Param("id"), page, limit)
	if err != nil {
		return engineHTTPError(err)
	}
	return paginatedJSON(c, "comments", comments, page, limit, total)
}
