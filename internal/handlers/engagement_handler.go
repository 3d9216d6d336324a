package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/arefin-dev/cliply/backend/internal/engine"
	"github.com/arefin-dev/cliply/backend/internal/models"
)

// EngagementHandler exposes the relationship ledger's toggle operations.
// Toggles are idempotent per call, so clients doing optimistic UI can
// safely retry a whole request after a transient failure.
type EngagementHandler struct {
	ledger *engine.Ledger
}

// NewEngagementHandler creates a new EngagementHandler
func NewEngagementHandler(ledger *engine.Ledger) *EngagementHandler {
	return &EngagementHandler{ledger: ledger}
}

// RegisterEngagementRoutes registers follow/like routes
func (h *EngagementHandler) RegisterEngagementRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.ToggleFollow)
	g.GET("/users/:id/follow/status", h.GetFollowStatus)
	g.POST("/videos/:id/like", h.ToggleVideoLike)
	g.GET("/videos/:id/like/status", h.GetVideoLikeStatus)
	g.POST("/comments/:id/like", h.ToggleCommentLike)
}

// ToggleFollow flips the follow state toward the target user.
func (h *EngagementHandler) ToggleFollow(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	targetID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	nowFollowing, err := h.ledger.ToggleFollow(c.Request().Context(), currentUserID, uint(targetID))
	if err != nil {
		return engineHTTPError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"following": nowFollowing}})
}

// GetFollowStatus reports whether the current user follows the target.
func (h *EngagementHandler) GetFollowStatus(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	targetID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	following, err := h.ledger.IsFollowing(c.Request().Context(), currentUserID, uint(targetID))
	if err != nil {
		return engineHTTPError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"following": following}})
}

// ToggleVideoLike flips the like state on a video.
func (h *EngagementHandler) ToggleVideoLike(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	nowLiked, err := h.ledger.ToggleLike(c.Request().Context(), currentUserID, models.LikeTargetContent, c.Param("id"))
	if err != nil {
		return engineHTTPError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"liked": nowLiked}})
}

// GetVideoLikeStatus reports whether the current user likes the video.
func (h *EngagementHandler) GetVideoLikeStatus(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	liked, err := h.ledger.HasLiked(c.Request().Context(), currentUserID, models.LikeTargetContent, c.Param("id"))
	if err != nil {
		return engineHTTPError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"liked": liked}})
}

// ToggleCommentLike flips the like state on a comment.
func (h *EngagementHandler) ToggleCommentLike(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	nowLiked, err := h.ledger.ToggleLike(c.Request().Context(), currentUserID, models.LikeTargetComment, c.Param("id"))
	if err != nil {
		return engineHTTPError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"liked": nowLiked}})
}
