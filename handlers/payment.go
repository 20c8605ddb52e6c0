package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	bookingRepo "groomly/database/repository/booking"
)

// PaymentCallbackHandler is where the gateway redirects the customer
// after checkout. It verifies the charge against the gateway before
// moving the booking anywhere; a forged callback with an unpaid session
// changes nothing.
func (hb *HandlerBundle) PaymentCallbackHandler(c *gin.Context) {
	reference := c.Query("reference")
	if reference == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing reference"})
		return
	}
	if c.Query("cancelled") == "1" {
		c.JSON(http.StatusOK, gin.H{"status": "payment_cancelled", "reference": reference})
		return
	}

	booking, err := hb.Bookings.GetByReference(reference)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
			return
		}
		hb.Logger.Error("Failed to fetch booking for payment callback", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch booking"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	paid, err := hb.Gateway.Verify(ctx, booking.PaymentRef)
	if err != nil {
		hb.Logger.Error("Payment verification failed", zap.String("reference", reference), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Could not verify payment, try again"})
		return
	}
	if !paid {
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "Payment not completed", "reference": reference})
		return
	}

	if err := hb.Lifecycle.PaymentConfirmed(reference); err != nil {
		hb.Logger.Error("Failed to start dispatch after payment", zap.String("reference", reference), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Payment received but dispatch failed; support has been notified"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "paid", "reference": reference})
}
