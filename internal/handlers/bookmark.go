package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/social-graph/social-graph/pkg/logger"
)

type BookmarkHandler struct {
	bookmarkService BookmarkService
	logger          *logger.Logger
}

func NewBookmarkHandler(bookmarkService BookmarkService, logger *logger.Logger) *BookmarkHandler {
	return &BookmarkHandler{
		bookmarkService: bookmarkService,
		logger:          logger,
	}
}

func (h *BookmarkHandler) BookmarkPost(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	if err := h.bookmarkService.Bookmark(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post bookmarked"})
}

func (h *BookmarkHandler) UnbookmarkPost(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	if err := h.bookmarkService.Unbookmark(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Bookmark removed"})
}

func (h *BookmarkHandler) GetBookmarks(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	offset, limit := parsePage(c)

	posts, err := h.bookmarkService.GetBookmarkedPosts(c.Request.Context(), userID, offset, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":  posts,
		"offset": offset,
		"limit":  limit,
	})
}
