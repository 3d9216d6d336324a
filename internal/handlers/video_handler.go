package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/arefin-dev/cliply/backend/internal/engine"
	"github.com/arefin-dev/cliply/backend/internal/models"
)

// VideoHandler handles video lifecycle and playback-reporting requests.
type VideoHandler struct {
	engine *engine.Engine
}

// NewVideoHandler creates a new VideoHandler
func NewVideoHandler(eng *engine.Engine) *VideoHandler {
	return &VideoHandler{engine: eng}
}

// RegisterVideoRoutes registers the protected video routes
func (h *VideoHandler) RegisterVideoRoutes(g *echo.Group) {
	g.POST("/videos", h.CreateVideo)
	g.DELETE("/videos/:id", h.DeleteVideo)
	g.POST("/videos/:id/share", h.ShareVideo)
}

// RegisterPublicVideoRoutes registers the optional-auth video routes
func (h *VideoHandler) RegisterPublicVideoRoutes(g *echo.Group) {
	g.GET("/videos/:id", h.GetVideo)
	g.GET("/users/:id/videos", h.GetUserVideos)
	g.POST("/videos/:id/views", h.RecordView)
}

// CreateVideo publishes a video record; the media files are already in
// blob storage at this point.
func (h *VideoHandler) CreateVideo(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	req := new(models.CreateVideoRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	video, err := h.engine.PublishVideo(c.Request().Context(), currentUserID, req)
	if err != nil {
		return engineHTTPError(err)
	}

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": video})
}

// GetVideo returns one video with its derived metrics.
func (h *VideoHandler) GetVideo(c echo.Context) error {
	video, completionRate, err := h.engine.GetVideo(c.Request().Context(), c.Param("id"))
	if err != nil {
		return engineHTTPError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"video":           video,
			"completion_rate": completionRate,
		},
	})
}

// DeleteVideo removes one of the caller's videos; the engine compensates
// the owner aggregates and removes the video's facts.
func (h *VideoHandler) DeleteVideo(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	if err := h.engine.RemoveVideo(c.Request().Context(), currentUserID, c.Param("id")); err != nil {
		return engineHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetUserVideos returns one page of a user's videos, newest first.
func (h *VideoHandler) GetUserVideos(c echo.Context) error {
	ownerID := atoiDefault(c.Param("id"), 0)
	if ownerID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}
	page, limit := pageParams(c)

	videos, total, err := h.engine.ListVideosByOwner(c.Request().Context(), uint(ownerID), page, limit)
	if err != nil {
		return engineHTTPError(err)
	}
	return paginatedJSON(c, "videos", videos, page, limit, total)
}

// RecordView reports one playback; anonymous playback counts too.
func (h *VideoHandler) RecordView(c echo.Context) error {
	req := new(models.RecordViewRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.engine.RecordView(c.Request().Context(), optionalUserID(c), c.Param("id"), req); err != nil {
		return engineHTTPError(err)
	}
	return c.JSON(http.StatusAccepted, echo.Map{"success": true})
}

// ShareVideo records a share of the video by the current user.
func (h *VideoHandler) ShareVideo(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	if err := h.engine.ShareVideo(c.Request().Context(), currentUserID, c.Param("id")); err != nil {
		return engineHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
