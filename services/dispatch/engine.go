package dispatch

import (
	"errors"
	"time"

	"go.uber.org/zap"

	attemptRepo "groomly/database/repository/attempt"
	bookingRepo "groomly/database/repository/booking"
	customerRepo "groomly/database/repository/customer"
	groomerRepo "groomly/database/repository/groomer"
	"groomly/services/messaging"
	"groomly/services/notification"
	"groomly/services/payment"
	"groomly/services/settings"
	"groomly/services/strike"
)

// Fallback defaults for the dispatch tunables.
const (
	defaultOfferTimeout = 180 * time.Second
	defaultMaxAttempts  = 5
)

// ErrNoOpenOffer is returned when a groomer responds but has no pending
// offer to respond to.
var ErrNoOpenOffer = errors.New("no open offer for groomer")

// DeadlineScheduler arms the durable response deadline for an offer.
// The deadline must survive a process restart, so the implementation is
// a delayed task queue, not an in-process timer.
type DeadlineScheduler interface {
	ScheduleOfferTimeout(attemptID string, d time.Duration) error
}

// Response reports what a provider action resolved to.
type Response struct {
	Accepted  bool   `json:"accepted"`
	BookingID string `json:"bookingId,omitempty"`
}

// Engine owns the offer/acceptance protocol: candidate selection, offer
// delivery, the bounded retry loop, and response handling.
//
// Per booking, retries are serialized without a lock: every path into
// TryNextCandidate first wins a conditional update (the pending
// attempt's resolution, or a booking status transition), so at most one
// actor per booking is ever inside the loop.
type Engine struct {
	Bookings  bookingRepo.BookingRepository
	Groomers  groomerRepo.GroomerRepository
	Attempts  attemptRepo.AttemptRepository
	Customers customerRepo.CustomerRepository

	Messenger  messaging.Messenger
	Deadlines  DeadlineScheduler
	Strikes    strike.Service
	Notifier   notification.Service
	Gateway    payment.Gateway
	Reconciler payment.Reconciler
	Settings   *settings.Cache
	Logger     *zap.Logger

	// Now is the clock; tests inject a fixed one.
	Now func() time.Time
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Engine) offerTimeout() time.Duration {
	secs := e.Settings.GetInt(settings.KeyDispatchTimeoutSec, int(defaultOfferTimeout/time.Second))
	return time.Duration(secs) * time.Second
}

func (e *Engine) maxAttempts() int {
	return e.Settings.GetInt(settings.KeyMaxDispatchTries, defaultMaxAttempts)
}
