package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rentables/lease-notification-service/internal/domain"
	"github.com/rentables/lease-notification-service/internal/middleware"
	"github.com/rentables/lease-notification-service/internal/service"
	"github.com/rentables/lease-notification-service/internal/shared/logger"
)

// ContractHandler handles contract intake over HTTP.
type ContractHandler struct {
	service *service.ContractService
	logger  *logger.Logger
}

// NewContractHandler creates a contract handler.
func NewContractHandler(service *service.ContractService, log *logger.Logger) *ContractHandler {
	return &ContractHandler{service: service, logger: log}
}

// Create registers a contract and generates its payment schedule.
func (h *ContractHandler) Create(c *gin.Context) {
	companyID := middleware.CompanyID(c)

	var req domain.CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	contract, obligations, err := h.service.CreateContract(c.Request.Context(), companyID, &req)
	if err != nil {
		h.logger.Error("contract creation failed",
			"company_id", companyID,
			"contract_number", req.ContractNumber,
			"error", err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"contract":    contract,
		"obligations": obligations,
	})
}

// Get returns one contract with its payment schedule.
func (h *ContractHandler) Get(c *gin.Context) {
	companyID := middleware.CompanyID(c)

	contract, obligations, err := h.service.GetContract(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"contract":    contract,
		"obligations": obligations,
	})
}
