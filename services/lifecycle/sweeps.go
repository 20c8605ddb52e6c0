package lifecycle

import (
	"time"

	"go.uber.org/zap"

	"groomly/models"
	"groomly/services/settings"
)

// AutoConfirmSweep finalizes completed bookings the customer never
// confirmed. Silence past the delay counts as confirmation so groomer
// earnings are not held hostage by an inattentive customer.
func (s *Service) AutoConfirmSweep() {
	delay := time.Duration(s.Settings.GetInt(settings.KeyAutoConfirmHours, 2)) * time.Hour
	cutoff := s.now().Add(-delay)

	stale, err := s.Bookings.FindUnconfirmedCompleted(cutoff)
	if err != nil {
		s.Logger.Error("auto-confirm sweep query failed", zap.Error(err))
		return
	}

	for i := range stale {
		b := stale[i]
		if err := s.confirm(&b); err != nil {
			s.Logger.Error("auto-confirm failed",
				zap.String("bookingId", b.ID),
				zap.Error(err),
			)
			continue
		}
		s.Logger.Info("booking auto-confirmed",
			zap.String("bookingId", b.ID),
			zap.String("reference", b.Reference),
		)
	}
}

// StaleDispatchSweep force-fails bookings still in dispatching past the
// grace period. Whatever stranded them there — a lost deadline task, a
// crash mid-loop, a pool that never answers — the customer has waited
// long enough: the booking closes as no-groomer-found and the captured
// payment goes back in full.
func (s *Service) StaleDispatchSweep() {
	grace := time.Duration(s.Settings.GetInt(settings.KeyStaleDispatchMin, 15)) * time.Minute
	cutoff := s.now().Add(-grace)

	stuck, err := s.Bookings.FindStaleDispatching(cutoff)
	if err != nil {
		s.Logger.Error("stale-dispatch sweep query failed", zap.Error(err))
		return
	}

	for i := range stuck {
		b := stuck[i]
		// Settle any open offer so the attempt ledger agrees with the
		// closure; a late response loses the booking guard either way.
		if attempt, aerr := s.Attempts.PendingByBooking(b.ID); aerr == nil && attempt != nil {
			if _, rerr := s.Attempts.Resolve(attempt.ID, models.AttemptTimedOut, s.now()); rerr != nil {
				s.Logger.Warn("failed to expire stale offer", zap.String("attemptId", attempt.ID), zap.Error(rerr))
			}
		}

		s.Logger.Warn("force-failing stale dispatch",
			zap.String("bookingId", b.ID),
			zap.String("reference", b.Reference),
		)
		if derr := s.Dispatch.FailNoGroomer(b.ID, "dispatch window elapsed"); derr != nil {
			s.Logger.Error("stale dispatch fail-over failed", zap.String("bookingId", b.ID), zap.Error(derr))
		}
	}
}
