package dispatch

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"groomly/models"
	"groomly/services/messaging"
)

// offer sends one offer to one candidate. The DispatchAttempt is
// persisted before the deadline is armed so a timeout firing can always
// find the attempt it is timing out. The booking stays "dispatching";
// only a response (or timeout) moves it.
func (e *Engine) offer(booking *models.Booking, groomer models.Groomer) error {
	timeout := e.offerTimeout()

	attempt := &models.DispatchAttempt{
		ID:        uuid.New().String(),
		BookingID: booking.ID,
		GroomerID: groomer.ID,
		Outcome:   models.AttemptPending,
		OfferedAt: e.now(),
	}
	if err := e.Attempts.Create(attempt); err != nil {
		return fmt.Errorf("failed to record dispatch attempt: %w", err)
	}

	// Send failure is not fatal: the attempt stands and the deadline
	// will expire it through the normal timeout path.
	err := e.Messenger.SendOffer(groomer.Phone, messaging.Offer{
		BookingRef:  booking.Reference,
		ServiceName: booking.ServiceName,
		Address:     booking.Address,
		Zone:        booking.Zone,
		ScheduledAt: booking.ScheduledAt,
		Fee:         booking.GroomerEarning,
		Notes:       booking.Notes,
		ExpiresIn:   timeout,
	})
	if err != nil {
		e.Logger.Warn("offer delivery failed",
			zap.String("bookingId", booking.ID),
			zap.String("groomerId", groomer.ID),
			zap.Error(err),
		)
	}

	if err := e.Deadlines.ScheduleOfferTimeout(attempt.ID, timeout); err != nil {
		return fmt.Errorf("failed to arm offer deadline: %w", err)
	}

	e.Logger.Info("offer dispatched",
		zap.String("bookingId", booking.ID),
		zap.String("reference", booking.Reference),
		zap.String("groomerId", groomer.ID),
		zap.Int("attempt", booking.DispatchAttempts),
		zap.Duration("timeout", timeout),
	)
	return nil
}
