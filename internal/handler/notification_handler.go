package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rentables/lease-notification-service/internal/domain"
	"github.com/rentables/lease-notification-service/internal/middleware"
	"github.com/rentables/lease-notification-service/internal/service"
	"github.com/rentables/lease-notification-service/internal/shared/logger"
)

// NotificationHandler handles HTTP requests for notifications.
type NotificationHandler struct {
	service *service.NotificationService
	logger  *logger.Logger
}

// NewNotificationHandler creates a notification handler.
func NewNotificationHandler(service *service.NotificationService, log *logger.Logger) *NotificationHandler {
	return &NotificationHandler{service: service, logger: log}
}

// Send handles ad-hoc notification sends.
func (h *NotificationHandler) Send(c *gin.Context) {
	companyID := middleware.CompanyID(c)

	var req domain.SendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	result, err := h.service.Send(c.Request.Context(), companyID, &req)
	if err != nil {
		h.logger.Error("ad-hoc send failed", "company_id", companyID, "error", err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// Evaluate triggers one rule evaluation pass.
func (h *NotificationHandler) Evaluate(c *gin.Context) {
	report, err := h.service.RunEvaluation(c.Request.Context(), time.Now().UTC())
	if err != nil {
		h.logger.Error("manual rule evaluation failed", "error", err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// List returns a company's notifications.
func (h *NotificationHandler) List(c *gin.Context) {
	companyID := middleware.CompanyID(c)

	var req domain.GetNotificationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query: " + err.Error()})
		return
	}

	notifications, total, err := h.service.GetNotifications(c.Request.Context(), companyID, &req)
	if err != nil {
		h.logger.Error("failed to list notifications", "company_id", companyID, "error", err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"total":         total,
	})
}

// Get returns one notification with its channel logs.
func (h *NotificationHandler) Get(c *gin.Context) {
	companyID := middleware.CompanyID(c)

	notification, logs, err := h.service.GetNotification(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"notification": notification,
		"channel_logs": logs,
	})
}

// MarkRead marks one notification as read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	companyID := middleware.CompanyID(c)

	if err := h.service.MarkRead(c.Request.Context(), companyID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "notification marked as read"})
}

// MarkAllRead marks every unread notification as read.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	companyID := middleware.CompanyID(c)

	count, err := h.service.MarkAllRead(c.Request.Context(), companyID)
	if err != nil {
		h.logger.Error("failed to mark all read", "company_id", companyID, "error", err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": count})
}

// Stats returns notification counters.
func (h *NotificationHandler) Stats(c *gin.Context) {
	companyID := middleware.CompanyID(c)

	stats, err := h.service.GetStats(c.Request.Context(), companyID)
	if err != nil {
		h.logger.Error("failed to load stats", "company_id", companyID, "error", err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
