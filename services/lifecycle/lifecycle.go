package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	attemptRepo "groomly/database/repository/attempt"
	bookingRepo "groomly/database/repository/booking"
	earningsRepo "groomly/database/repository/earnings"
	groomerRepo "groomly/database/repository/groomer"
	"groomly/models"
	"groomly/services/messaging"
	"groomly/services/notification"
	"groomly/services/payment"
	"groomly/services/pricing"
	"groomly/services/settings"
	"groomly/services/strike"
	"groomly/utils"
)

// Fallback defaults for the lifecycle tunables.
const (
	defaultAutoConfirmDelay   = 2 * time.Hour
	defaultStaleDispatchGrace = 15 * time.Minute
)

var (
	// ErrInvalidTransition rejects an action attempted from a status
	// that does not permit it; the booking is left unchanged.
	ErrInvalidTransition = errors.New("action not permitted from current booking status")
	// ErrNoActiveBooking is returned when a groomer progress signal
	// arrives with no assigned booking to apply it to.
	ErrNoActiveBooking = errors.New("groomer has no active booking")
)

// Dispatcher is the slice of the dispatch engine the lifecycle needs:
// (re-)entering the offer loop, and force-failing a booking whose
// dispatch window elapsed.
type Dispatcher interface {
	TryNextCandidate(bookingID string) error
	FailNoGroomer(bookingID, why string) error
}

// Service owns the booking status field and every legal transition.
// All writes are conditional on the expected prior status; a failed
// guard means another actor moved first and is reported as a rejected
// operation, never retried blindly.
type Service struct {
	Bookings bookingRepo.BookingRepository
	Groomers groomerRepo.GroomerRepository
	Attempts attemptRepo.AttemptRepository
	Earnings earningsRepo.EarningsRepository

	Pricing    *pricing.Engine
	Dispatch   Dispatcher
	Gateway    payment.Gateway
	Reconciler payment.Reconciler
	Strikes    strike.Service
	Notifier   notification.Service
	Messenger  messaging.Messenger
	Settings   *settings.Cache
	Logger     *zap.Logger

	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// CreateBookingInput is what a customer submits.
type CreateBookingInput struct {
	CustomerID  string
	ServiceID   string
	ServiceName string
	BasePrice   float64
	Address     string
	Zone        string
	Notes       string
	Immediate   bool
	ScheduledAt *time.Time
}

// CreateBooking prices the request, persists it at pending-payment and
// initiates payment. The returned URL is where the customer authorizes
// the charge.
func (s *Service) CreateBooking(in CreateBookingInput) (*models.Booking, string, error) {
	if in.CustomerID == "" || in.ServiceID == "" || in.Address == "" {
		return nil, "", fmt.Errorf("customerId, serviceId and address are required")
	}
	if in.BasePrice <= 0 {
		return nil, "", fmt.Errorf("base price must be positive")
	}

	scheduled := in.ScheduledAt
	if in.Immediate {
		scheduled = nil
	}

	surcharge := s.Pricing.ComputeSurcharge(scheduled, in.BasePrice)
	split := s.Pricing.ComputeEarningsSplit(in.BasePrice, surcharge.Amount)

	booking := &models.Booking{
		ID:              uuid.New().String(),
		Reference:       utils.NewBookingReference(),
		ServiceID:       in.ServiceID,
		ServiceName:     in.ServiceName,
		CustomerID:      in.CustomerID,
		Address:         in.Address,
		Zone:            in.Zone,
		Notes:           in.Notes,
		Immediate:       in.Immediate,
		ScheduledAt:     scheduled,
		BasePrice:       in.BasePrice,
		SurchargeType:   surcharge.Type,
		SurchargeAmount: surcharge.Amount,
		TotalPrice:      split.Total,
		PlatformFee:     split.PlatformFee,
		GroomerEarning:  split.GroomerEarning,
		Status:          models.StatusPendingPayment,
		CreatedAt:       s.now(),
	}

	init, err := s.Gateway.Initiate(context.Background(), booking.TotalPrice, booking.Reference)
	if err != nil {
		return nil, "", fmt.Errorf("failed to initiate payment: %w", err)
	}
	booking.PaymentRef = init.TransactionRef

	if err := s.Bookings.Create(booking); err != nil {
		return nil, "", err
	}

	s.Logger.Info("booking created",
		zap.String("bookingId", booking.ID),
		zap.String("reference", booking.Reference),
		zap.Float64("total", booking.TotalPrice),
		zap.String("surcharge", booking.SurchargeType),
	)
	return booking, init.AuthorizationURL, nil
}

// PaymentConfirmed moves the booking into dispatching and kicks off the
// offer loop. Safe to call twice: the second call loses the guard and
// no-ops.
func (s *Service) PaymentConfirmed(reference string) error {
	booking, err := s.Bookings.GetByReference(reference)
	if err != nil {
		return err
	}

	now := s.now()
	won, err := s.Bookings.Transition(booking.ID, models.StatusDispatching,
		bson.M{"paymentCaptured": true, "dispatchedAt": now},
		models.StatusPendingPayment,
	)
	if err != nil {
		return err
	}
	if !won {
		return nil
	}

	s.Logger.Info("payment confirmed, dispatching",
		zap.String("bookingId", booking.ID),
		zap.String("reference", booking.Reference),
	)

	if err := s.Notifier.NotifyCustomer(context.Background(), booking.CustomerID,
		"Payment received",
		fmt.Sprintf("We are finding a groomer for booking %s.", booking.Reference),
		map[string]string{"reference": booking.Reference, "status": string(models.StatusDispatching)},
	); err != nil {
		s.Logger.Warn("payment notification failed", zap.String("bookingId", booking.ID), zap.Error(err))
	}

	return s.Dispatch.TryNextCandidate(booking.ID)
}

// progress applies a groomer signal to their active booking through a
// guarded transition from the statuses that permit it.
func (s *Service) progress(groomerID string, to models.BookingStatus, set bson.M, from ...models.BookingStatus) (*models.Booking, error) {
	groomer, err := s.Groomers.GetByID(groomerID)
	if err != nil {
		return nil, err
	}
	if groomer.CurrentBookingID == "" {
		return nil, ErrNoActiveBooking
	}

	won, err := s.Bookings.Transition(groomer.CurrentBookingID, to, set, from...)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, ErrInvalidTransition
	}

	booking, err := s.Bookings.GetByID(groomer.CurrentBookingID)
	if err != nil {
		return nil, err
	}

	s.Logger.Info("booking progressed",
		zap.String("bookingId", booking.ID),
		zap.String("groomerId", groomerID),
		zap.String("status", string(to)),
	)

	if nerr := s.Notifier.NotifyCustomer(context.Background(), booking.CustomerID,
		to.Label(),
		fmt.Sprintf("Update on booking %s: %s.", booking.Reference, to.Label()),
		map[string]string{"reference": booking.Reference, "status": string(to)},
	); nerr != nil {
		s.Logger.Warn("progress notification failed", zap.String("bookingId", booking.ID), zap.Error(nerr))
	}
	return booking, nil
}

// MarkEnRoute applies the groomer's "on my way" signal. Only legal from
// accepted.
func (s *Service) MarkEnRoute(groomerID string) (*models.Booking, error) {
	return s.progress(groomerID, models.StatusEnRoute,
		bson.M{"enRouteAt": s.now()},
		models.StatusAccepted,
	)
}

// MarkArrived is legal from en-route or directly from accepted, since
// groomers may skip the explicit en-route signal.
func (s *Service) MarkArrived(groomerID string) (*models.Booking, error) {
	return s.progress(groomerID, models.StatusArrived,
		bson.M{"arrivedAt": s.now()},
		models.StatusEnRoute, models.StatusAccepted,
	)
}

// MarkInService records the start of the service itself.
func (s *Service) MarkInService(groomerID string) (*models.Booking, error) {
	return s.progress(groomerID, models.StatusInService,
		bson.M{"startedAt": s.now()},
		models.StatusArrived,
	)
}

// MarkDone is tolerant the same way arrived is: legal from arrived,
// in-service, or en-route.
func (s *Service) MarkDone(groomerID string) (*models.Booking, error) {
	return s.progress(groomerID, models.StatusCompleted,
		bson.M{"completedAt": s.now()},
		models.StatusArrived, models.StatusInService, models.StatusEnRoute,
	)
}

// ConfirmByCustomer finalizes a completed booking on the customer's
// explicit confirmation.
func (s *Service) ConfirmByCustomer(reference string) error {
	booking, err := s.Bookings.GetByReference(reference)
	if err != nil {
		return err
	}
	return s.confirm(booking)
}

// confirm is shared by customer confirmation and the auto-confirm
// sweep: guard completed→confirmed, credit the earning ledger, bump the
// groomer's completed-job count, and release them back to online.
// Re-running against an already-confirmed booking is a no-op.
func (s *Service) confirm(booking *models.Booking) error {
	now := s.now()
	won, err := s.Bookings.Transition(booking.ID, models.StatusConfirmed,
		bson.M{"confirmedAt": now},
		models.StatusCompleted,
	)
	if err != nil {
		return err
	}
	if !won {
		// Already confirmed (a repeat tap, or the sweep racing the
		// customer) is fine; anything else is a bad request.
		if current, gerr := s.Bookings.GetByID(booking.ID); gerr == nil && current.Status == models.StatusConfirmed {
			return nil
		}
		return ErrInvalidTransition
	}

	if booking.GroomerID != "" {
		if err := s.Earnings.CreateEarning(&models.Earning{
			ID:        uuid.New().String(),
			GroomerID: booking.GroomerID,
			BookingID: booking.ID,
			Amount:    booking.GroomerEarning,
			CreatedAt: now,
		}); err != nil {
			s.Logger.Error("failed to credit earning", zap.String("bookingId", booking.ID), zap.Error(err))
		}
		if err := s.Groomers.IncrementCompletedJobs(booking.GroomerID); err != nil {
			s.Logger.Warn("failed to bump completed jobs", zap.String("groomerId", booking.GroomerID), zap.Error(err))
		}
		if _, err := s.Groomers.Release(booking.GroomerID, booking.ID); err != nil {
			s.Logger.Warn("failed to release groomer", zap.String("groomerId", booking.GroomerID), zap.Error(err))
		}
		if groomer, gerr := s.Groomers.GetByID(booking.GroomerID); gerr == nil {
			body := fmt.Sprintf("Booking %s confirmed. %.0f has been credited to your balance.", booking.Reference, booking.GroomerEarning)
			if serr := s.Messenger.SendText(groomer.Phone, body); serr != nil {
				s.Logger.Warn("confirm text failed", zap.String("groomerId", groomer.ID), zap.Error(serr))
			}
		}
	}

	s.Logger.Info("booking confirmed",
		zap.String("bookingId", booking.ID),
		zap.String("reference", booking.Reference),
		zap.Float64("earning", booking.GroomerEarning),
	)

	if err := s.Notifier.NotifyCustomer(context.Background(), booking.CustomerID,
		"Booking completed",
		fmt.Sprintf("Booking %s is all done. Thank you!", booking.Reference),
		map[string]string{"reference": booking.Reference, "status": string(models.StatusConfirmed)},
	); err != nil {
		s.Logger.Warn("confirm notification failed", zap.String("bookingId", booking.ID), zap.Error(err))
	}
	return nil
}

// Dispute flags a settled booking for administrative review. Resolving
// it back to a terminal outcome is an admin action outside this engine.
func (s *Service) Dispute(reference, reason string) error {
	booking, err := s.Bookings.GetByReference(reference)
	if err != nil {
		return err
	}

	won, err := s.Bookings.Transition(booking.ID, models.StatusDisputed,
		bson.M{"cancelReason": reason},
		models.StatusCompleted, models.StatusConfirmed, models.StatusCancelled,
	)
	if err != nil {
		return err
	}
	if !won {
		return ErrInvalidTransition
	}

	s.Logger.Info("booking disputed", zap.String("bookingId", booking.ID), zap.String("reason", reason))
	return nil
}
