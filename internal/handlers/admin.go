package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/social-graph/social-graph/pkg/logger"
)

type AdminHandler struct {
	recovery CounterRecovery
	logger   *logger.Logger
}

func NewAdminHandler(recovery CounterRecovery, logger *logger.Logger) *AdminHandler {
	return &AdminHandler{
		recovery: recovery,
		logger:   logger,
	}
}

// Recount 立即执行一次计数校正
func (h *AdminHandler) Recount(c *gin.Context) {
	report, err := h.recovery.RecountAll(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Counters reconciled",
		"report":  report,
	})
}
