package handlers

import (
	"math"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/arefin-dev/cliply/backend/internal/engine"
)

// FeedHandler handles feed-related HTTP requests
type FeedHandler struct {
	feed *engine.FeedAssembler
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(feed *engine.FeedAssembler) *FeedHandler {
	return &FeedHandler{feed: feed}
}

// RegisterFeedRoutes registers the optional-auth feed routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
	g.GET("/feed/trending", h.GetTrending)
}

// RegisterProtectedFeedRoutes registers feed routes that need a viewer
func (h *FeedHandler) RegisterProtectedFeedRoutes(g *echo.Group) {
	g.GET("/feed/following", h.GetFollowingFeed)
}

// GetFeed returns the main feed page for the current viewer, anonymous
// or authenticated.
func (h *FeedHandler) GetFeed(c echo.Context) error {
	page, limit := pageParams(c)
	category := c.QueryParam("category")

	videos, total, err := h.feed.GetFeed(c.Request().Context(), optionalUserID(c), category, page, limit)
	if err != nil {
		return engineHTTPError(err)
	}
	return paginatedJSON(c, "videos", videos, page, limit, total)
}

// GetFollowingFeed returns videos from accounts the viewer follows.
// A viewer following nobody gets an empty page.
func (h *FeedHandler) GetFollowingFeed(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	page, limit := pageParams(c)

	videos, total, err := h.feed.GetFollowingFeed(c.Request().Context(), currentUserID, page, limit)
	if err != nil {
		return engineHTTPError(err)
	}
	return paginatedJSON(c, "videos", videos, page, limit, total)
}

// GetTrending returns the most viewed recent videos.
func (h *FeedHandler) GetTrending(c echo.Context) error {
	limit := atoiDefault(c.QueryParam("limit"), 20)
	category := c.QueryParam("category")

	videos, err := h.feed.GetTrending(c.Request().Context(), category, limit)
	if err != nil {
		return engineHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"videos": videos},
	})
}

// paginatedJSON writes the standard paginated envelope.
func paginatedJSON(c echo.Context, key string, items interface{}, page, limit int, total int64) error {
	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{key: items},
		"meta": echo.Map{
			"currentPage":     page,
			"totalPages":      totalPages,
			"totalItems":      total,
			"itemsPerPage":    limit,
			"hasNextPage":     page < totalPages,
			"hasPreviousPage": page > 1,
		},
	})
}
