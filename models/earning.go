package models

import "time"

// Earning is one credit to a groomer's ledger, written when the booking
// it belongs to is confirmed (by the customer or the auto-confirm sweep).
type Earning struct {
	ID        string    `bson:"id" json:"id"`
	GroomerID string    `bson:"groomerId" json:"groomerId"`
	BookingID string    `bson:"bookingId" json:"bookingId"`
	Amount    float64   `bson:"amount" json:"amount"`
	Paid      bool      `bson:"paid" json:"paid"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// AdvanceRequest is a salary-advance request a groomer submits over the
// messaging channel. Granting it is a back-office action.
type AdvanceRequest struct {
	ID          string    `bson:"id" json:"id"`
	GroomerID   string    `bson:"groomerId" json:"groomerId"`
	Amount      float64   `bson:"amount" json:"amount"`
	Status      string    `bson:"status" json:"status"` // "pending" until reviewed
	RequestedAt time.Time `bson:"requestedAt" json:"requestedAt"`
}
