package models

import "time"

// MaxSquadSize caps a customer's preferred-groomer list.
const MaxSquadSize = 3

// Customer is the requesting side of a booking. Squad holds the
// customer's preferred groomers in priority order; squad members are
// tried before the general pool but never bypass eligibility checks.
type Customer struct {
	ID       string `bson:"id" json:"id"`
	Name     string `bson:"name" json:"name"`
	Phone    string `bson:"phone" json:"phone"`
	FCMToken string `bson:"fcmToken,omitempty" json:"-"`

	Squad []string `bson:"squad,omitempty" json:"squad,omitempty"` // groomer ids, max MaxSquadSize

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
