package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"groomly/models"
)

// ListServicesHandler returns the bookable-service catalog.
func (hb *HandlerBundle) ListServicesHandler(c *gin.Context) {
	services, err := hb.Services.List()
	if err != nil {
		hb.Logger.Error("Failed to list services", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list services"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": services})
}

// CreateServiceHandler adds a service to the catalog.
func (hb *HandlerBundle) CreateServiceHandler(c *gin.Context) {
	var input struct {
		Name      string  `json:"name" binding:"required"`
		Icon      string  `json:"icon"`
		BasePrice float64 `json:"basePrice" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if input.BasePrice <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Base price must be positive"})
		return
	}

	service := &models.Service{
		ID:        uuid.New().String(),
		Name:      input.Name,
		Icon:      input.Icon,
		BasePrice: input.BasePrice,
	}
	if err := hb.Services.Create(service); err != nil {
		hb.Logger.Error("Failed to create service", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create service"})
		return
	}
	c.JSON(http.StatusCreated, service)
}
