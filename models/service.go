package models

// Service is a bookable grooming service.
type Service struct {
	ID        string  `bson:"id" json:"id"`
	Name      string  `bson:"name" json:"name"`
	Icon      string  `bson:"icon,omitempty" json:"icon,omitempty"`
	BasePrice float64 `bson:"basePrice" json:"basePrice"`
}
