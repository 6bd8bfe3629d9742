package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rentables/lease-notification-service/internal/domain"
	"github.com/rentables/lease-notification-service/internal/shared/logger"
	"github.com/rentables/lease-notification-service/internal/webhook"
)

// WebhookHandler receives provider delivery-status callbacks.
type WebhookHandler struct {
	processor *webhook.StatusProcessor
	logger    *logger.Logger
}

// NewWebhookHandler creates a webhook handler.
func NewWebhookHandler(processor *webhook.StatusProcessor, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{processor: processor, logger: log}
}

// DeliveryStatus applies one provider callback.
func (h *WebhookHandler) DeliveryStatus(c *gin.Context) {
	var event domain.DeliveryStatusEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	if err := h.processor.Process(c.Request.Context(), &event); err != nil {
		h.logger.Warn("delivery status callback rejected",
			"provider_id", event.ProviderID,
			"error", err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "delivery status recorded"})
}
