package models

import "time"

// Activation status of a groomer account.
const (
	GroomerActive    = "active"
	GroomerSuspended = "suspended"
	GroomerRemoved   = "removed"
)

// Live availability of a groomer. Busy iff CurrentBookingID is set.
const (
	AvailabilityOnline  = "online"
	AvailabilityBusy    = "busy"
	AvailabilityOffline = "offline"
)

// Groomer is an independent service-delivery actor. Status and
// availability are mutated through conditional updates so a
// strike-triggered release can race safely with the groomer's own
// online/offline toggle.
type Groomer struct {
	ID    string `bson:"id" json:"id"`
	Name  string `bson:"name" json:"name"`
	Phone string `bson:"phone" json:"phone"` // normalized, canonical "+<digits>" form

	Status       string `bson:"status" json:"status"`
	Availability string `bson:"availability" json:"availability"`

	Services []string `bson:"services" json:"services"` // service ids offered
	Zones    []string `bson:"zones" json:"zones"`       // coverage zones

	Rating        float64 `bson:"rating" json:"rating"`
	CompletedJobs int     `bson:"completedJobs" json:"completedJobs"`
	Strikes       int     `bson:"strikes" json:"strikes"`

	CurrentBookingID string `bson:"currentBookingId,omitempty" json:"currentBookingId,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Eligible reports whether the groomer can receive new offers at all.
func (g *Groomer) Eligible() bool {
	return g.Status == GroomerActive && g.Availability == AvailabilityOnline
}
