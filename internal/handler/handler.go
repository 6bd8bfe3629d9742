package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rentables/lease-notification-service/internal/shared/errors"
	"go.mongodb.org/mongo-driver/mongo"
)

// respondError maps service errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.HasCode(err, errors.CodeValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.HasCode(err, errors.CodeNotFound) || err == mongo.ErrNoDocuments:
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.HasCode(err, errors.CodeConfiguration):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
