package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/social-graph/social-graph/internal/services"
	"github.com/social-graph/social-graph/pkg/logger"
)

type MessagingHandler struct {
	messagingService MessagingService
	logger           *logger.Logger
}

func NewMessagingHandler(messagingService MessagingService, logger *logger.Logger) *MessagingHandler {
	return &MessagingHandler{
		messagingService: messagingService,
		logger:           logger,
	}
}

func (h *MessagingHandler) ListConversations(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	offset, limit := parsePage(c)

	convs, err := h.messagingService.ListConversations(c.Request.Context(), userID, offset, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"conversations": convs,
		"offset":        offset,
		"limit":         limit,
	})
}

// OpenConversation :id为对方用户id
func (h *MessagingHandler) OpenConversation(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	conv, err := h.messagingService.GetOrCreateConversation(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversation": conv})
}

func (h *MessagingHandler) ListMessages(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	offset, limit := parsePage(c)

	messages, err := h.messagingService.ListMessages(c.Request.Context(), c.Param("id"), userID, offset, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": messages,
		"offset":   offset,
		"limit":    limit,
	})
}

func (h *MessagingHandler) SendMessage(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req services.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.messagingService.SendMessage(c.Request.Context(), c.Param("id"), userID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": msg})
}
