package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rentables/lease-notification-service/internal/domain"
	"github.com/rentables/lease-notification-service/internal/middleware"
	"github.com/rentables/lease-notification-service/internal/repository"
	"github.com/rentables/lease-notification-service/internal/shared/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RuleHandler manages notification rules and templates.
type RuleHandler struct {
	rules  *repository.RuleRepository
	logger *logger.Logger
}

// NewRuleHandler creates a rule handler.
func NewRuleHandler(rules *repository.RuleRepository, log *logger.Logger) *RuleHandler {
	return &RuleHandler{rules: rules, logger: log}
}

// ListRules returns a company's rules.
func (h *RuleHandler) ListRules(c *gin.Context) {
	companyID := middleware.CompanyID(c)

	rules, err := h.rules.FindRules(c.Request.Context(), companyID)
	if err != nil {
		h.logger.Error("failed to list rules", "company_id", companyID, "error", err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": rules})
}

// CreateRule creates a notification rule.
func (h *RuleHandler) CreateRule(c *gin.Context) {
	companyID := middleware.CompanyID(c)

	var rule domain.NotificationRule
	if err := c.ShouldBindJSON(&rule); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if rule.TriggerEvent == "" || rule.TemplateID.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "trigger_event and template_id are required"})
		return
	}
	rule.CompanyID = companyID

	if err := h.rules.CreateRule(c.Request.Context(), &rule); err != nil {
		h.logger.Error("failed to create rule", "company_id", companyID, "error", err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rule)
}

// SetRuleActive enables or disables a rule.
func (h *RuleHandler) SetRuleActive(c *gin.Context) {
	companyID := middleware.CompanyID(c)

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rule id"})
		return
	}

	var req struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	if err := h.rules.SetRuleActive(c.Request.Context(), id, companyID, *req.IsActive); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "rule updated"})
}

// ListTemplates returns a company's templates.
func (h *RuleHandler) ListTemplates(c *gin.Context) {
	companyID := middleware.CompanyID(c)

	templates, err := h.rules.FindTemplates(c.Request.Context(), companyID)
	if err != nil {
		h.logger.Error("failed to list templates", "company_id", companyID, "error", err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": templates})
}

// CreateTemplate creates a notification template.
func (h *RuleHandler) CreateTemplate(c *gin.Context) {
	companyID := middleware.CompanyID(c)

	var template domain.NotificationTemplate
	if err := c.ShouldBindJSON(&template); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if template.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	template.CompanyID = companyID

	if err := h.rules.CreateTemplate(c.Request.Context(), &template); err != nil {
		h.logger.Error("failed to create template", "company_id", companyID, "error", err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, template)
}
