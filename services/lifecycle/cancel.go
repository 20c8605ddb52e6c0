package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"groomly/models"
)

// ErrCancelNotPermitted rejects customer cancellation once the groomer
// has arrived; from that point disputes are the only recourse.
var ErrCancelNotPermitted = errors.New("booking can no longer be cancelled")

// RefundRateFor maps the booking's phase at cancellation time to the
// fraction of the total refunded. The further along the job, the more of
// the payment is kept to compensate the groomer's committed time.
func RefundRateFor(status models.BookingStatus) (float64, error) {
	switch status {
	case models.StatusPendingPayment, models.StatusDispatching:
		return 1.0, nil
	case models.StatusAccepted:
		return 0.9, nil
	case models.StatusEnRoute:
		return 0.7, nil
	}
	return 0, ErrCancelNotPermitted
}

// CancelByCustomer cancels the booking and issues the phase-tiered
// refund. The status write commits first; the refund call happens after
// and is never rolled back — a failed refund is queued for
// reconciliation instead.
func (s *Service) CancelByCustomer(reference, customerID, reason string) (*models.Booking, error) {
	booking, err := s.Bookings.GetByReference(reference)
	if err != nil {
		return nil, err
	}
	if booking.CustomerID != customerID {
		return nil, fmt.Errorf("booking %s does not belong to this customer", reference)
	}

	// The status can move under us (an accept landing mid-cancel changes
	// the refund tier), so compute the tier against the status we win the
	// guard from and retry on a lost race.
	var rate float64
	for tries := 0; ; tries++ {
		rate, err = RefundRateFor(booking.Status)
		if err != nil {
			return nil, err
		}

		now := s.now()
		won, terr := s.Bookings.Transition(booking.ID, models.StatusCancelled,
			bson.M{
				"cancelledAt":  now,
				"cancelReason": reason,
				"refundRate":   rate,
				"refundAmount": booking.TotalPrice * rate,
			},
			booking.Status,
		)
		if terr != nil {
			return nil, terr
		}
		if won {
			break
		}
		if tries >= 2 {
			return nil, fmt.Errorf("booking %s changed state during cancellation, try again", reference)
		}
		if booking, err = s.Bookings.GetByID(booking.ID); err != nil {
			return nil, err
		}
	}

	refundAmount := booking.TotalPrice * rate
	s.Logger.Info("booking cancelled by customer",
		zap.String("bookingId", booking.ID),
		zap.String("reference", booking.Reference),
		zap.String("from", string(booking.Status)),
		zap.Float64("refundRate", rate),
		zap.Float64("refundAmount", refundAmount),
	)

	// Preempt any in-flight offer so its timeout finds nothing to do.
	if attempt, aerr := s.Attempts.PendingByBooking(booking.ID); aerr == nil && attempt != nil {
		if _, rerr := s.Attempts.Resolve(attempt.ID, models.AttemptDeclined, s.now()); rerr != nil {
			s.Logger.Warn("failed to resolve open offer on cancel", zap.String("attemptId", attempt.ID), zap.Error(rerr))
		}
	}

	if booking.GroomerID != "" {
		if _, rerr := s.Groomers.Release(booking.GroomerID, booking.ID); rerr != nil {
			s.Logger.Warn("failed to release groomer on cancel", zap.String("groomerId", booking.GroomerID), zap.Error(rerr))
		}
		if groomer, gerr := s.Groomers.GetByID(booking.GroomerID); gerr == nil {
			body := fmt.Sprintf("Booking %s was cancelled by the customer. You are back online.", booking.Reference)
			if serr := s.Messenger.SendText(groomer.Phone, body); serr != nil {
				s.Logger.Warn("cancel text failed", zap.String("groomerId", groomer.ID), zap.Error(serr))
			}
		}
	}

	if booking.PaymentCaptured && refundAmount > 0 {
		reasonTag := fmt.Sprintf("cancellation of %s at %s", booking.Reference, booking.Status)
		if rerr := s.Gateway.Refund(context.Background(), booking.PaymentRef, refundAmount, reasonTag); rerr != nil {
			s.Logger.Error("refund failed, queueing for reconciliation",
				zap.String("bookingId", booking.ID),
				zap.Float64("amount", refundAmount),
				zap.Error(rerr),
			)
			if qerr := s.Reconciler.QueueRefund(booking.PaymentRef, refundAmount, reasonTag); qerr != nil {
				s.Logger.Error("failed to queue refund reconciliation", zap.String("bookingId", booking.ID), zap.Error(qerr))
			}
		}
	}

	if nerr := s.Notifier.NotifyCustomer(context.Background(), booking.CustomerID,
		"Booking cancelled",
		fmt.Sprintf("Booking %s was cancelled. %.0f%% of your payment will be refunded.", booking.Reference, rate*100),
		map[string]string{"reference": booking.Reference, "status": string(models.StatusCancelled)},
	); nerr != nil {
		s.Logger.Warn("cancel notification failed", zap.String("bookingId", booking.ID), zap.Error(nerr))
	}

	updated, err := s.Bookings.GetByID(booking.ID)
	if err != nil {
		return booking, nil
	}
	return updated, nil
}

// CancelByGroomer sends the booking back to dispatching, strikes the
// groomer, and immediately re-enters the offer loop excluding them.
// Legal only before arrival; after that the groomer is expected to
// finish or no-show through support.
func (s *Service) CancelByGroomer(groomerID string) (*models.Booking, error) {
	groomer, err := s.Groomers.GetByID(groomerID)
	if err != nil {
		return nil, err
	}
	if groomer.CurrentBookingID == "" {
		return nil, ErrNoActiveBooking
	}

	booking, err := s.Bookings.GetByID(groomer.CurrentBookingID)
	if err != nil {
		return nil, err
	}

	// The guard that wins decides the strike tier; a booking moving to
	// en-route between our read and the write must not soften the
	// penalty, so each phase gets its own conditional write.
	set := bson.M{"groomerId": "", "acceptedAt": nil, "enRouteAt": nil}
	reason := models.StrikeCancelledEnRoute
	won, err := s.Bookings.Transition(booking.ID, models.StatusDispatching, set, models.StatusEnRoute)
	if err != nil {
		return nil, err
	}
	if !won {
		reason = models.StrikeCancelledAccept
		won, err = s.Bookings.Transition(booking.ID, models.StatusDispatching, set, models.StatusAccepted)
		if err != nil {
			return nil, err
		}
	}
	if !won {
		return nil, ErrInvalidTransition
	}

	s.Logger.Info("booking returned to dispatch by groomer",
		zap.String("bookingId", booking.ID),
		zap.String("groomerId", groomerID),
		zap.String("strikeReason", reason),
	)

	if _, rerr := s.Groomers.Release(groomerID, booking.ID); rerr != nil {
		s.Logger.Warn("failed to release cancelling groomer", zap.String("groomerId", groomerID), zap.Error(rerr))
	}
	if serr := s.Strikes.IssueStrike(groomerID, booking.ID, reason); serr != nil {
		s.Logger.Error("failed to strike cancelling groomer", zap.String("groomerId", groomerID), zap.Error(serr))
	}

	if nerr := s.Notifier.NotifyCustomer(context.Background(), booking.CustomerID,
		"Finding you a new groomer",
		fmt.Sprintf("Your groomer had to cancel booking %s. We are finding a replacement.", booking.Reference),
		map[string]string{"reference": booking.Reference, "status": string(models.StatusDispatching)},
	); nerr != nil {
		s.Logger.Warn("re-dispatch notification failed", zap.String("bookingId", booking.ID), zap.Error(nerr))
	}

	if derr := s.Dispatch.TryNextCandidate(booking.ID); derr != nil {
		s.Logger.Error("re-dispatch failed", zap.String("bookingId", booking.ID), zap.Error(derr))
	}

	updated, err := s.Bookings.GetByID(booking.ID)
	if err != nil {
		return booking, nil
	}
	return updated, nil
}
