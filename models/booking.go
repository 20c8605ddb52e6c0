package models

import "time"

// BookingStatus is the lifecycle state of a booking. All mutations go
// through the lifecycle service using conditional (status-guarded) updates.
type BookingStatus string

const (
	StatusPendingPayment BookingStatus = "pending_payment"
	StatusDispatching    BookingStatus = "dispatching"
	StatusAccepted       BookingStatus = "accepted"
	StatusEnRoute        BookingStatus = "en_route"
	StatusArrived        BookingStatus = "arrived"
	StatusInService      BookingStatus = "in_service"
	StatusCompleted      BookingStatus = "completed"
	StatusConfirmed      BookingStatus = "confirmed"
	StatusNoGroomerFound BookingStatus = "no_groomer_found"
	StatusCancelled      BookingStatus = "cancelled"
	StatusDisputed       BookingStatus = "disputed"
)

// Terminal reports whether no further provider-driven transitions are
// possible from this status. Disputed bookings are resolved by admin action.
func (s BookingStatus) Terminal() bool {
	switch s {
	case StatusConfirmed, StatusNoGroomerFound, StatusCancelled:
		return true
	}
	return false
}

// Assigned reports whether the status implies a groomer is attached.
func (s BookingStatus) Assigned() bool {
	switch s {
	case StatusAccepted, StatusEnRoute, StatusArrived, StatusInService, StatusCompleted, StatusConfirmed:
		return true
	}
	return false
}

// Label returns the coarse customer-facing label for a status.
func (s BookingStatus) Label() string {
	switch s {
	case StatusPendingPayment:
		return "Awaiting payment"
	case StatusDispatching:
		return "Finding you a groomer"
	case StatusAccepted:
		return "Groomer assigned"
	case StatusEnRoute:
		return "Groomer on the way"
	case StatusArrived:
		return "Groomer has arrived"
	case StatusInService:
		return "Service in progress"
	case StatusCompleted:
		return "Service completed"
	case StatusConfirmed:
		return "Completed"
	case StatusNoGroomerFound:
		return "No groomer found"
	case StatusCancelled:
		return "Cancelled"
	case StatusDisputed:
		return "Under review"
	}
	return string(s)
}

// Booking is one requested, paid service instance. It is never deleted;
// terminal bookings are retained as historical records.
type Booking struct {
	ID        string `bson:"id" json:"id"`
	Reference string `bson:"reference" json:"reference"` // human-shareable code, e.g. "GRM-7F3K2D"

	ServiceID   string `bson:"serviceId" json:"serviceId"`
	ServiceName string `bson:"serviceName" json:"serviceName"`
	CustomerID  string `bson:"customerId" json:"customerId"`
	GroomerID   string `bson:"groomerId,omitempty" json:"groomerId,omitempty"` // empty until accepted

	Address string `bson:"address" json:"address"`
	Zone    string `bson:"zone,omitempty" json:"zone,omitempty"`
	Notes   string `bson:"notes,omitempty" json:"notes,omitempty"`

	Immediate   bool       `bson:"immediate" json:"immediate"`
	ScheduledAt *time.Time `bson:"scheduledAt,omitempty" json:"scheduledAt,omitempty"`

	BasePrice       float64 `bson:"basePrice" json:"basePrice"`
	SurchargeType   string  `bson:"surchargeType,omitempty" json:"surchargeType,omitempty"`
	SurchargeAmount float64 `bson:"surchargeAmount" json:"surchargeAmount"`
	TotalPrice      float64 `bson:"totalPrice" json:"totalPrice"`
	PlatformFee     float64 `bson:"platformFee" json:"platformFee"`
	GroomerEarning  float64 `bson:"groomerEarning" json:"groomerEarning"`

	// DispatchAttempts only ever increases; it is never reset on re-dispatch.
	DispatchAttempts int           `bson:"dispatchAttempts" json:"dispatchAttempts"`
	Status           BookingStatus `bson:"status" json:"status"`

	PaymentRef      string  `bson:"paymentRef,omitempty" json:"-"`
	PaymentCaptured bool    `bson:"paymentCaptured" json:"-"`
	RefundRate      float64 `bson:"refundRate,omitempty" json:"refundRate,omitempty"`
	RefundAmount    float64 `bson:"refundAmount,omitempty" json:"refundAmount,omitempty"`
	CancelReason    string  `bson:"cancelReason,omitempty" json:"cancelReason,omitempty"`

	CreatedAt    time.Time  `bson:"createdAt" json:"createdAt"`
	DispatchedAt *time.Time `bson:"dispatchedAt,omitempty" json:"dispatchedAt,omitempty"`
	AcceptedAt   *time.Time `bson:"acceptedAt,omitempty" json:"acceptedAt,omitempty"`
	EnRouteAt    *time.Time `bson:"enRouteAt,omitempty" json:"enRouteAt,omitempty"`
	ArrivedAt    *time.Time `bson:"arrivedAt,omitempty" json:"arrivedAt,omitempty"`
	StartedAt    *time.Time `bson:"startedAt,omitempty" json:"startedAt,omitempty"`
	CompletedAt  *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	ConfirmedAt  *time.Time `bson:"confirmedAt,omitempty" json:"confirmedAt,omitempty"`
	CancelledAt  *time.Time `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
}
