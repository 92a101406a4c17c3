package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"billdue-backend-go/internal/gateway"
)

// NotificationHandler exposes a read-only view of the pending
// notification set for debugging and client display.
type NotificationHandler struct {
	gateway gateway.Gateway
	logger  *zap.Logger
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(gw gateway.Gateway, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{gateway: gw, logger: logger}
}

// ListPending handles GET /notifications/pending.
func (h *NotificationHandler) ListPending(c *gin.Context) {
	if !h.gateway.IsAvailable() {
		c.JSON(http.StatusOK, gin.H{"available": false, "pending": []any{}})
		return
	}
	pending, err := h.gateway.ListPending(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list pending notifications", zap.Error(err))
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "Notification gateway unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": true, "pending": pending})
}
