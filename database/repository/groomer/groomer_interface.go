package groomerRepo

import (
	"groomly/models"
)

// EligibilityQuery describes the relational filter the candidate
// selector runs: active, online, offers the service, covers the zone
// (when the booking has one), and not already tried for this booking.
type EligibilityQuery struct {
	ServiceID  string
	Zone       string   // empty means no zone constraint
	ExcludeIDs []string // groomers already offered this booking
}

// GroomerRepository defines the data access surface for groomers.
// Availability mutations use conditional updates keyed on the current
// value so racing actors (a strike-triggered release, the groomer's own
// toggle) resolve to exactly one winner.
type GroomerRepository interface {
	Create(g *models.Groomer) error
	GetByID(id string) (*models.Groomer, error)
	GetByPhone(phone string) (*models.Groomer, error)

	// FindEligible returns eligible groomers ordered by rating
	// descending, then completed-job count descending.
	FindEligible(q EligibilityQuery) ([]models.Groomer, error)

	// SetAvailability flips availability iff the current value matches
	// `from`. Returns (false, nil) when the guard fails.
	SetAvailability(id, from, to string) (bool, error)

	// Assign marks the groomer busy on the given booking.
	Assign(id, bookingID string) error

	// Release returns the groomer to online iff they are still assigned
	// to the given booking. Returns (false, nil) otherwise.
	Release(id, bookingID string) (bool, error)

	// IncrementStrikes bumps the strike counter and returns the new value.
	IncrementStrikes(id string) (int, error)

	// Suspend forces status=suspended and availability=offline in one write.
	Suspend(id string) error

	IncrementCompletedJobs(id string) error
}
