package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/social-graph/social-graph/internal/middleware"
	"github.com/social-graph/social-graph/internal/services"
	"github.com/social-graph/social-graph/pkg/logger"
)

type UserHandler struct {
	userService  UserService
	graphService GraphService
	jwtSecret    string
	jwtExpire    time.Duration
	logger       *logger.Logger
}

func NewUserHandler(userService UserService, graphService GraphService, jwtSecret string, jwtExpire time.Duration, logger *logger.Logger) *UserHandler {
	return &UserHandler{
		userService:  userService,
		graphService: graphService,
		jwtSecret:    jwtSecret,
		jwtExpire:    jwtExpire,
		logger:       logger,
	}
}

func (h *UserHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    user,
	})
}

func (h *UserHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	// 生成JWT token
	token, err := middleware.GenerateToken(user.ID.String(), user.Username, h.jwtSecret, h.jwtExpire)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

// GetProfile 登录用户查看他人资料时附带is_following
func (h *UserHandler) GetProfile(c *gin.Context) {
	user, err := h.userService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	resp := gin.H{"user": user}
	if viewerID := middleware.GetUserID(c); viewerID != "" && viewerID != user.ID.String() {
		following, err := h.graphService.IsFollowing(c.Request.Context(), viewerID, user.ID.String())
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		resp["is_following"] = following
	}

	c.JSON(http.StatusOK, resp)
}

func (h *UserHandler) GetMe(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req services.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.Update(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    user,
	})
}

func (h *UserHandler) Follow(c *gin.Context) {
	followerID, ok := requireUserID(c)
	if !ok {
		return
	}

	view, err := h.graphService.Follow(c.Request.Context(), followerID, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Followed successfully",
		"result":  view,
	})
}

func (h *UserHandler) Unfollow(c *gin.Context) {
	followerID, ok := requireUserID(c)
	if !ok {
		return
	}

	view, err := h.graphService.Unfollow(c.Request.Context(), followerID, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Unfollowed successfully",
		"result":  view,
	})
}

func (h *UserHandler) GetFollowRequests(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	offset, limit := parsePage(c)

	requests, err := h.graphService.GetPendingRequests(c.Request.Context(), userID, offset, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requests": requests,
		"offset":   offset,
		"limit":    limit,
	})
}

func (h *UserHandler) AcceptFollowRequest(c *gin.Context) {
	ownerID, ok := requireUserID(c)
	if !ok {
		return
	}

	view, err := h.graphService.AcceptRequest(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Follow request accepted",
		"result":  view,
	})
}

func (h *UserHandler) RejectFollowRequest(c *gin.Context) {
	ownerID, ok := requireUserID(c)
	if !ok {
		return
	}

	view, err := h.graphService.RejectRequest(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Follow request rejected",
		"result":  view,
	})
}

func (h *UserHandler) GetFollowers(c *gin.Context) {
	offset, limit := parsePage(c)

	followers, err := h.graphService.GetFollowers(c.Request.Context(), c.Param("id"), offset, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"followers": followers,
		"offset":    offset,
		"limit":     limit,
	})
}

func (h *UserHandler) GetFollowing(c *gin.Context) {
	offset, limit := parsePage(c)

	following, err := h.graphService.GetFollowing(c.Request.Context(), c.Param("id"), offset, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"following": following,
		"offset":    offset,
		"limit":     limit,
	})
}

func (h *UserHandler) SearchUsers(c *gin.Context) {
	query := c.Query("q")
	offset, limit := parsePage(c)

	users, err := h.userService.Search(c.Request.Context(), query, offset, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users":  users,
		"query":  query,
		"offset": offset,
		"limit":  limit,
	})
}
