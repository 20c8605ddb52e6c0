package models

import "time"

// Strike reasons. Cancelling after travel started weighs the same as a
// plain post-accept cancel today but is recorded separately.
const (
	StrikeNoResponse       = "no_response"
	StrikeCancelledAccept  = "cancelled_after_accept"
	StrikeCancelledEnRoute = "cancelled_en_route"
	StrikeNoShow           = "no_show"
)

// SuspensionThreshold is the strike count at which a groomer is
// auto-suspended and forced offline.
const SuspensionThreshold = 3

// Strike is a punitive record against a groomer. Strikes accumulate
// monotonically here; clearing them is an administrative action.
type Strike struct {
	ID        string    `bson:"id" json:"id"`
	GroomerID string    `bson:"groomerId" json:"groomerId"`
	BookingID string    `bson:"bookingId,omitempty" json:"bookingId,omitempty"`
	Reason    string    `bson:"reason" json:"reason"`
	IssuedAt  time.Time `bson:"issuedAt" json:"issuedAt"`
}
