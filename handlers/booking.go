package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	bookingRepo "groomly/database/repository/booking"
	serviceRepo "groomly/database/repository/service"
	"groomly/services/lifecycle"
)

// CreateBookingHandler prices a booking request, persists it at
// pending-payment and returns the reference plus the payment URL. The
// base price comes from the service catalog, never from the client.
func (hb *HandlerBundle) CreateBookingHandler(c *gin.Context) {
	var input struct {
		CustomerID  string     `json:"customerId" binding:"required"`
		ServiceID   string     `json:"serviceId" binding:"required"`
		Address     string     `json:"address" binding:"required"`
		Zone        string     `json:"zone"`
		Notes       string     `json:"notes"`
		Immediate   bool       `json:"immediate"`
		ScheduledAt *time.Time `json:"scheduledAt"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	service, err := hb.Services.GetByID(input.ServiceID)
	if err != nil {
		if errors.Is(err, serviceRepo.ErrNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown service"})
			return
		}
		hb.Logger.Error("Failed to fetch service", zap.String("serviceId", input.ServiceID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch service"})
		return
	}

	booking, paymentURL, err := hb.Lifecycle.CreateBooking(lifecycle.CreateBookingInput{
		CustomerID:  input.CustomerID,
		ServiceID:   service.ID,
		ServiceName: service.Name,
		BasePrice:   service.BasePrice,
		Address:     input.Address,
		Zone:        input.Zone,
		Notes:       input.Notes,
		Immediate:   input.Immediate,
		ScheduledAt: input.ScheduledAt,
	})
	if err != nil {
		hb.Logger.Error("Failed to create booking", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create booking"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"booking":    booking,
		"paymentUrl": paymentURL,
	})
}

// GetBookingHandler returns a booking by reference with its coarse
// customer-facing label.
func (hb *HandlerBundle) GetBookingHandler(c *gin.Context) {
	booking, err := hb.Bookings.GetByReference(c.Param("reference"))
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
			return
		}
		hb.Logger.Error("Failed to fetch booking", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch booking"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"booking":     booking,
		"statusLabel": booking.Status.Label(),
	})
}

// ConfirmBookingHandler finalizes a completed booking on the customer's
// explicit confirmation.
func (hb *HandlerBundle) ConfirmBookingHandler(c *gin.Context) {
	reference := c.Param("reference")
	if err := hb.Lifecycle.ConfirmByCustomer(reference); err != nil {
		if errors.Is(err, lifecycle.ErrInvalidTransition) {
			c.JSON(http.StatusConflict, gin.H{"error": "Booking is not awaiting confirmation"})
			return
		}
		hb.Logger.Error("Failed to confirm booking", zap.String("reference", reference), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to confirm booking"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "confirmed"})
}

// CancelBookingHandler cancels the booking for the customer and reports
// the refund tier applied.
func (hb *HandlerBundle) CancelBookingHandler(c *gin.Context) {
	var input struct {
		CustomerID string `json:"customerId" binding:"required"`
		Reason     string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	reference := c.Param("reference")
	booking, err := hb.Lifecycle.CancelByCustomer(reference, input.CustomerID, input.Reason)
	if err != nil {
		if errors.Is(err, lifecycle.ErrCancelNotPermitted) {
			c.JSON(http.StatusConflict, gin.H{"error": "Booking can no longer be cancelled. Open a dispute instead."})
			return
		}
		hb.Logger.Error("Failed to cancel booking", zap.String("reference", reference), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel booking"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       booking.Status,
		"refundRate":   booking.RefundRate,
		"refundAmount": booking.RefundAmount,
	})
}

// DisputeBookingHandler flags a settled booking for review.
func (hb *HandlerBundle) DisputeBookingHandler(c *gin.Context) {
	var input struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	reference := c.Param("reference")
	if err := hb.Lifecycle.Dispute(reference, input.Reason); err != nil {
		if errors.Is(err, lifecycle.ErrInvalidTransition) {
			c.JSON(http.StatusConflict, gin.H{"error": "Booking cannot be disputed from its current state"})
			return
		}
		hb.Logger.Error("Failed to dispute booking", zap.String("reference", reference), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to dispute booking"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "disputed"})
}

// StartServiceHandler records the start of the service itself. There is
// no inbound text token for this stage, so it is exposed as an admin
// action keyed by groomer.
func (hb *HandlerBundle) StartServiceHandler(c *gin.Context) {
	booking, err := hb.Lifecycle.MarkInService(c.Param("groomerId"))
	if err != nil {
		if errors.Is(err, lifecycle.ErrNoActiveBooking) || errors.Is(err, lifecycle.ErrInvalidTransition) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		hb.Logger.Error("Failed to start service", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start service"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": booking.Status})
}
