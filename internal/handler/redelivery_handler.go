package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rentables/lease-notification-service/internal/middleware"
	"github.com/rentables/lease-notification-service/internal/redelivery"
	"github.com/rentables/lease-notification-service/internal/shared/logger"
)

// RedeliveryHandler exposes failed-delivery inspection and manual
// redelivery.
type RedeliveryHandler struct {
	service *redelivery.Service
	logger  *logger.Logger
}

// NewRedeliveryHandler creates a redelivery handler.
func NewRedeliveryHandler(service *redelivery.Service, log *logger.Logger) *RedeliveryHandler {
	return &RedeliveryHandler{service: service, logger: log}
}

// ListFailed returns a company's failed deliveries.
func (h *RedeliveryHandler) ListFailed(c *gin.Context) {
	companyID := middleware.CompanyID(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	logs, total, err := h.service.ListFailed(c.Request.Context(), companyID, page, pageSize)
	if err != nil {
		h.logger.Error("failed to list failed deliveries", "company_id", companyID, "error", err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"failed": logs,
		"total":  total,
	})
}

// Redeliver re-attempts one failed delivery.
func (h *RedeliveryHandler) Redeliver(c *gin.Context) {
	companyID := middleware.CompanyID(c)

	outcome, err := h.service.Redeliver(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"channel_log_id": outcome.LogID.Hex(),
		"status":         outcome.Status,
		"error":          outcome.Error,
	})
}
