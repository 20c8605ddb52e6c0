package dispatch

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"groomly/models"
)

// TryNextCandidate runs one step of the bounded offer loop. It is the
// single funnel for initial dispatch after payment, declines, fired
// deadlines and provider cancels, so the escalation policy lives in one
// place. If the attempt budget is spent or no candidate remains, the
// booking fails over to no-groomer-found and the customer is told they
// have not been charged.
func (e *Engine) TryNextCandidate(bookingID string) error {
	booking, err := e.Bookings.GetByID(bookingID)
	if err != nil {
		return fmt.Errorf("retry loop: %w", err)
	}
	if booking.Status != models.StatusDispatching {
		// Resolved (or cancelled) while this event was in flight.
		return nil
	}

	if booking.DispatchAttempts >= e.maxAttempts() {
		return e.failNoGroomer(booking, "attempt budget exhausted")
	}

	// Each pass through the loop burns one attempt, whether or not an
	// offer goes out. An empty pool therefore terminates at counter 1,
	// never 0.
	attempts, err := e.Bookings.IncrementAttempts(bookingID)
	if err != nil {
		return fmt.Errorf("retry loop: %w", err)
	}
	booking.DispatchAttempts = attempts

	tried, err := e.Attempts.TriedGroomerIDs(bookingID)
	if err != nil {
		return fmt.Errorf("retry loop: %w", err)
	}

	candidates, err := e.FindCandidates(booking, tried)
	if err != nil {
		return fmt.Errorf("retry loop: %w", err)
	}
	if len(candidates) == 0 {
		return e.failNoGroomer(booking, "no eligible candidate remains")
	}

	return e.offer(booking, candidates[0])
}

// FailNoGroomer closes a booking still in dispatching as
// no-groomer-found. It is the entry point for callers outside the
// retry loop, like the sweep that force-fails bookings whose dispatch
// window elapsed.
func (e *Engine) FailNoGroomer(bookingID, why string) error {
	booking, err := e.Bookings.GetByID(bookingID)
	if err != nil {
		return fmt.Errorf("fail-over: %w", err)
	}
	if booking.Status != models.StatusDispatching {
		return nil
	}
	return e.failNoGroomer(booking, why)
}

// failNoGroomer is a terminal, not an error: the customer keeps their
// money and is told so explicitly. The captured payment is returned in
// full.
func (e *Engine) failNoGroomer(booking *models.Booking, why string) error {
	set := bson.M{}
	var refund float64
	if booking.PaymentCaptured {
		refund = booking.TotalPrice
		set["refundRate"] = 1.0
		set["refundAmount"] = refund
	}

	ok, err := e.Bookings.Transition(booking.ID, models.StatusNoGroomerFound, set, models.StatusDispatching)
	if err != nil {
		return fmt.Errorf("failed to close booking %s as no-groomer-found: %w", booking.ID, err)
	}
	if !ok {
		// Someone else resolved the booking first.
		return nil
	}

	e.Logger.Info("no groomer found",
		zap.String("bookingId", booking.ID),
		zap.String("reference", booking.Reference),
		zap.Int("attempts", booking.DispatchAttempts),
		zap.String("why", why),
	)

	// The refund runs after the status commit and is never rolled back;
	// a gateway failure queues it for reconciliation instead.
	if refund > 0 {
		reason := fmt.Sprintf("no groomer found for %s", booking.Reference)
		if rerr := e.Gateway.Refund(context.Background(), booking.PaymentRef, refund, reason); rerr != nil {
			e.Logger.Error("refund failed, queueing for reconciliation",
				zap.String("bookingId", booking.ID),
				zap.Float64("amount", refund),
				zap.Error(rerr),
			)
			if qerr := e.Reconciler.QueueRefund(booking.PaymentRef, refund, reason); qerr != nil {
				e.Logger.Error("failed to queue refund reconciliation", zap.String("bookingId", booking.ID), zap.Error(qerr))
			}
		}
	}

	if err := e.Notifier.NotifyCustomer(context.Background(), booking.CustomerID,
		"No groomer found",
		"We could not find an available groomer for your booking. You have not been charged.",
		map[string]string{"reference": booking.Reference, "status": string(models.StatusNoGroomerFound)},
	); err != nil {
		e.Logger.Warn("no-groomer notification failed", zap.String("bookingId", booking.ID), zap.Error(err))
	}
	return nil
}
