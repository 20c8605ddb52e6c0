package dispatch

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	attemptRepo "groomly/database/repository/attempt"
	"groomly/models"
)

// HandleResponse applies a groomer's accept or decline. When bookingID
// is empty it resolves the groomer's open offer — a groomer only ever
// has one at a time by construction.
//
// Accepts are idempotent: if the booking already left "dispatching"
// (a fired deadline, a cancel, or an earlier accept won), the call
// reports Accepted=false and changes nothing.
func (e *Engine) HandleResponse(groomerID string, accept bool, bookingID string) (Response, error) {
	attempt, err := e.openAttempt(groomerID, bookingID)
	if err != nil {
		return Response{}, err
	}

	if accept {
		return e.handleAccept(attempt)
	}
	return e.handleDecline(attempt)
}

func (e *Engine) openAttempt(groomerID, bookingID string) (*models.DispatchAttempt, error) {
	var attempt *models.DispatchAttempt
	var err error
	if bookingID == "" {
		attempt, err = e.Attempts.PendingByGroomer(groomerID)
	} else {
		attempt, err = e.Attempts.PendingByBooking(bookingID)
	}
	if err != nil {
		if errors.Is(err, attemptRepo.ErrNotFound) {
			return nil, ErrNoOpenOffer
		}
		return nil, fmt.Errorf("failed to resolve open offer: %w", err)
	}
	if attempt.GroomerID != groomerID {
		// A stale or spoofed response for someone else's offer.
		return nil, ErrNoOpenOffer
	}
	return attempt, nil
}

func (e *Engine) handleAccept(attempt *models.DispatchAttempt) (Response, error) {
	now := e.now()

	// The booking-status conditional write is the single authority on
	// who wins; everything after it is follow-up.
	won, err := e.Bookings.Transition(attempt.BookingID, models.StatusAccepted,
		bson.M{"groomerId": attempt.GroomerID, "acceptedAt": now},
		models.StatusDispatching,
	)
	if err != nil {
		return Response{}, fmt.Errorf("accept failed: %w", err)
	}
	if !won {
		return Response{Accepted: false, BookingID: attempt.BookingID}, nil
	}

	if _, err := e.Attempts.Resolve(attempt.ID, models.AttemptAccepted, now); err != nil {
		e.Logger.Warn("failed to mark attempt accepted", zap.String("attemptId", attempt.ID), zap.Error(err))
	}
	if err := e.Groomers.Assign(attempt.GroomerID, attempt.BookingID); err != nil {
		e.Logger.Error("failed to mark groomer busy", zap.String("groomerId", attempt.GroomerID), zap.Error(err))
	}

	booking, err := e.Bookings.GetByID(attempt.BookingID)
	if err != nil {
		return Response{Accepted: true, BookingID: attempt.BookingID}, nil
	}

	if groomer, gerr := e.Groomers.GetByID(attempt.GroomerID); gerr == nil {
		if serr := e.Messenger.SendStatusAck(groomer.Phone, booking.Reference, "yours — head over when ready"); serr != nil {
			e.Logger.Warn("accept ack failed", zap.String("groomerId", groomer.ID), zap.Error(serr))
		}
	}
	if nerr := e.Notifier.NotifyCustomer(context.Background(), booking.CustomerID,
		"Groomer assigned",
		fmt.Sprintf("Good news! A groomer accepted your booking %s.", booking.Reference),
		map[string]string{"reference": booking.Reference, "status": string(models.StatusAccepted)},
	); nerr != nil {
		e.Logger.Warn("accept notification failed", zap.String("bookingId", booking.ID), zap.Error(nerr))
	}

	e.Logger.Info("offer accepted",
		zap.String("bookingId", attempt.BookingID),
		zap.String("groomerId", attempt.GroomerID),
	)
	return Response{Accepted: true, BookingID: attempt.BookingID}, nil
}

func (e *Engine) handleDecline(attempt *models.DispatchAttempt) (Response, error) {
	won, err := e.Attempts.Resolve(attempt.ID, models.AttemptDeclined, e.now())
	if err != nil {
		return Response{}, fmt.Errorf("decline failed: %w", err)
	}
	if !won {
		// The deadline fired first; the timeout path owns the retry.
		return Response{Accepted: false, BookingID: attempt.BookingID}, nil
	}

	e.Logger.Info("offer declined",
		zap.String("bookingId", attempt.BookingID),
		zap.String("groomerId", attempt.GroomerID),
	)

	if err := e.TryNextCandidate(attempt.BookingID); err != nil {
		return Response{}, err
	}
	return Response{Accepted: false, BookingID: attempt.BookingID}, nil
}

// HandleOfferTimeout runs when an offer's response deadline fires. It
// checks the persisted booking status first — if the booking already
// left "dispatching", the deadline is a silent no-op. Winning the
// attempt resolution is what licenses the retry, so a late decline
// arriving concurrently cannot double-dispatch.
func (e *Engine) HandleOfferTimeout(attemptID string) error {
	attempt, err := e.Attempts.GetByID(attemptID)
	if err != nil {
		if errors.Is(err, attemptRepo.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("timeout handler: %w", err)
	}
	if attempt.Outcome != models.AttemptPending {
		return nil
	}

	booking, err := e.Bookings.GetByID(attempt.BookingID)
	if err != nil {
		return fmt.Errorf("timeout handler: %w", err)
	}
	if booking.Status != models.StatusDispatching {
		return nil
	}

	won, err := e.Attempts.Resolve(attempt.ID, models.AttemptTimedOut, e.now())
	if err != nil {
		return fmt.Errorf("timeout handler: %w", err)
	}
	if !won {
		return nil
	}

	e.Logger.Info("offer timed out",
		zap.String("bookingId", attempt.BookingID),
		zap.String("groomerId", attempt.GroomerID),
	)

	if err := e.Strikes.IssueStrike(attempt.GroomerID, attempt.BookingID, models.StrikeNoResponse); err != nil {
		e.Logger.Warn("failed to issue no-response strike", zap.String("groomerId", attempt.GroomerID), zap.Error(err))
	}
	if groomer, gerr := e.Groomers.GetByID(attempt.GroomerID); gerr == nil {
		if serr := e.Messenger.SendText(groomer.Phone, fmt.Sprintf("The offer for booking %s expired.", booking.Reference)); serr != nil {
			e.Logger.Warn("timeout text failed", zap.String("groomerId", groomer.ID), zap.Error(serr))
		}
	}

	return e.TryNextCandidate(attempt.BookingID)
}
