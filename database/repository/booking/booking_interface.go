package bookingRepo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"groomly/models"
)

// BookingRepository defines the data access surface for bookings.
//
// Transition is the only way status moves: it performs a conditional
// update guarded by the expected prior status(es) and reports false when
// the guard did not match. Callers treat false as the benign race-lost
// signal, never as an error.
type BookingRepository interface {
	Create(b *models.Booking) error
	GetByID(id string) (*models.Booking, error)
	GetByReference(ref string) (*models.Booking, error)

	// Transition sets status to `to` and applies `set` iff the current
	// status is one of `from`. Returns (false, nil) when the guard fails.
	Transition(id string, to models.BookingStatus, set bson.M, from ...models.BookingStatus) (bool, error)

	// IncrementAttempts bumps the dispatch-attempt counter and returns
	// the new value. The counter never resets.
	IncrementAttempts(id string) (int, error)

	// FindStaleDispatching returns bookings still dispatching whose
	// dispatch started before the cutoff (stale-dispatch sweep input).
	FindStaleDispatching(before time.Time) ([]models.Booking, error)

	// FindUnconfirmedCompleted returns completed bookings whose service
	// finished before the cutoff (auto-confirm sweep input).
	FindUnconfirmedCompleted(before time.Time) ([]models.Booking, error)
}
