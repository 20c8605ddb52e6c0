package models

import "time"

// Outcome of a single offer to a single groomer.
const (
	AttemptPending  = "pending"
	AttemptAccepted = "accepted"
	AttemptDeclined = "declined"
	AttemptTimedOut = "timed_out"
)

// DispatchAttempt records one offer of one booking to one candidate.
// At most one attempt per booking may be pending at a time; attempts for
// a booking are used to exclude already-tried candidates on retries.
type DispatchAttempt struct {
	ID        string `bson:"id" json:"id"`
	BookingID string `bson:"bookingId" json:"bookingId"`
	GroomerID string `bson:"groomerId" json:"groomerId"`

	Outcome     string     `bson:"outcome" json:"outcome"`
	OfferedAt   time.Time  `bson:"offeredAt" json:"offeredAt"`
	RespondedAt *time.Time `bson:"respondedAt,omitempty" json:"respondedAt,omitempty"`
}
