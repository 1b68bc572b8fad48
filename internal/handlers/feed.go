package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/social-graph/social-graph/internal/services"
	"github.com/social-graph/social-graph/pkg/logger"
)

type FeedHandler struct {
	feedService       FeedService
	postService       PostService
	engagementService EngagementService
	logger            *logger.Logger
}

func NewFeedHandler(feedService FeedService, postService PostService, engagementService EngagementService, logger *logger.Logger) *FeedHandler {
	return &FeedHandler{
		feedService:       feedService,
		postService:       postService,
		engagementService: engagementService,
		logger:            logger,
	}
}

func (h *FeedHandler) CreatePost(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req services.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.postService.CreatePost(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Post created successfully",
		"post":    post,
	})
}

// GetFeed limit为空时使用默认值，超过上限由服务截断
func (h *FeedHandler) GetFeed(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	posts, err := h.feedService.GetFeed(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts": posts,
		"count": len(posts),
	})
}

func (h *FeedHandler) GetUserPosts(c *gin.Context) {
	offset, limit := parsePage(c)

	posts, err := h.postService.GetUserPosts(c.Request.Context(), c.Param("id"), offset, limit)
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

// GetPost 附带当前用户是否已点赞
func (h *FeedHandler) GetPost(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	post, err := h.postService.GetPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	liked, err := h.engagementService.IsLiked(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"post":  post,
		"liked": liked,
	})
}

func (h *FeedHandler) DeletePost(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	if err := h.postService.DeletePost(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

func (h *FeedHandler) SearchPosts(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query is required"})
		return
	}
	offset, limit := parsePage(c)

	posts, err := h.postService.SearchPosts(c.Request.Context(), query, offset, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":  posts,
		"query":  query,
		"offset": offset,
		"limit":  limit,
	})
}

func (h *FeedHandler) GetHashtagPosts(c *gin.Context) {
	offset, limit := parsePage(c)

	posts, err := h.postService.GetPostsByHashtag(c.Request.Context(), c.Param("tag"), offset, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":  posts,
		"tag":    c.Param("tag"),
		"offset": offset,
		"limit":  limit,
	})
}

func (h *FeedHandler) LikePost(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	post, err := h.engagementService.Like(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Post liked successfully",
		"like_count": post.LikeCount,
	})
}

func (h *FeedHandler) UnlikePost(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	post, err := h.engagementService.Unlike(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Post unliked successfully",
		"like_count": post.LikeCount,
	})
}

func (h *FeedHandler) GetPostLikes(c *gin.Context) {
	offset, limit := parsePage(c)

	likes, err := h.engagementService.GetPostLikes(c.Request.Context(), c.Param("id"), offset, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"likes":  likes,
		"offset": offset,
		"limit":  limit,
	})
}

func (h *FeedHandler) CreateComment(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req services.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := h.engagementService.AddComment(c.Request.Context(), c.Param("id"), userID, req.Content)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Comment created successfully",
		"comment": comment,
	})
}

func (h *FeedHandler) GetPostComments(c *gin.Context) {
	offset, limit := parsePage(c)

	comments, err := h.engagementService.GetPostComments(c.Request.Context(), c.Param("id"), offset, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"comments": comments,
		"offset":   offset,
		"limit":    limit,
	})
}

func (h *FeedHandler) GetComment(c *gin.Context) {
	comment, err := h.engagementService.GetComment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"comment": comment})
}
