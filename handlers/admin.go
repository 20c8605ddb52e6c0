package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"groomly/models"
	"groomly/utils"
)

// RegisterGroomerHandler onboards a groomer. They start active but
// offline; the first ON text brings them into the pool.
func (hb *HandlerBundle) RegisterGroomerHandler(c *gin.Context) {
	var input struct {
		Name     string   `json:"name" binding:"required"`
		Phone    string   `json:"phone" binding:"required"`
		Services []string `json:"services" binding:"required"`
		Zones    []string `json:"zones"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	phone := utils.NormalizePhone(input.Phone)
	if existing, err := hb.Groomers.GetByPhone(phone); err == nil && existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "A groomer with this phone already exists"})
		return
	}

	now := time.Now()
	groomer := &models.Groomer{
		ID:           uuid.New().String(),
		Name:         input.Name,
		Phone:        phone,
		Status:       models.GroomerActive,
		Availability: models.AvailabilityOffline,
		Services:     input.Services,
		Zones:        input.Zones,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := hb.Groomers.Create(groomer); err != nil {
		hb.Logger.Error("Failed to register groomer", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register groomer"})
		return
	}
	c.JSON(http.StatusCreated, groomer)
}

// RegisterCustomerHandler onboards a customer.
func (hb *HandlerBundle) RegisterCustomerHandler(c *gin.Context) {
	var input struct {
		Name     string `json:"name" binding:"required"`
		Phone    string `json:"phone" binding:"required"`
		FCMToken string `json:"fcmToken"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	now := time.Now()
	customer := &models.Customer{
		ID:        uuid.New().String(),
		Name:      input.Name,
		Phone:     utils.NormalizePhone(input.Phone),
		FCMToken:  input.FCMToken,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := hb.Customers.Create(customer); err != nil {
		hb.Logger.Error("Failed to register customer", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register customer"})
		return
	}
	c.JSON(http.StatusCreated, customer)
}

// SetSquadHandler replaces a customer's preferred-groomer list.
func (hb *HandlerBundle) SetSquadHandler(c *gin.Context) {
	var input struct {
		Squad []string `json:"squad"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if len(input.Squad) > models.MaxSquadSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Squad holds at most 3 groomers"})
		return
	}

	if err := hb.Customers.SetSquad(c.Param("id"), input.Squad); err != nil {
		hb.Logger.Error("Failed to set squad", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to set squad"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"squad": input.Squad})
}

// GetSettingsHandler dumps the raw settings store.
func (hb *HandlerBundle) GetSettingsHandler(c *gin.Context) {
	values, err := hb.SettingsStore.GetAll()
	if err != nil {
		hb.Logger.Error("Failed to load settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load settings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": values})
}

// SetSettingHandler writes one setting and drops the cache so the new
// value takes effect immediately instead of after the TTL.
func (hb *HandlerBundle) SetSettingHandler(c *gin.Context) {
	var input struct {
		Key   string `json:"key" binding:"required"`
		Value string `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	if err := hb.SettingsStore.Set(input.Key, input.Value); err != nil {
		hb.Logger.Error("Failed to store setting", zap.String("key", input.Key), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store setting"})
		return
	}
	hb.SettingsCache.Invalidate()

	c.JSON(http.StatusOK, gin.H{"key": input.Key, "value": input.Value})
}

// TriggerSweepsHandler runs both lifecycle sweeps on demand. The cron
// schedule covers normal operation; this exists for ops.
func (hb *HandlerBundle) TriggerSweepsHandler(c *gin.Context) {
	hb.Lifecycle.AutoConfirmSweep()
	hb.Lifecycle.StaleDispatchSweep()
	c.JSON(http.StatusOK, gin.H{"status": "sweeps completed"})
}

// HealthHandler reports process and dependency liveness.
func (hb *HandlerBundle) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, utils.GetHealthStatus())
}
