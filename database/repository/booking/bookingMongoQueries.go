package bookingRepo

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"groomly/models"
)

func (r *MongoBookingRepo) FindStaleDispatching(before time.Time) ([]models.Booking, error) {
	return r.find(bson.M{
		"status":       models.StatusDispatching,
		"dispatchedAt": bson.M{"$lte": before},
	})
}

func (r *MongoBookingRepo) FindUnconfirmedCompleted(before time.Time) ([]models.Booking, error) {
	return r.find(bson.M{
		"status":      models.StatusCompleted,
		"completedAt": bson.M{"$lte": before},
	})
}

func (r *MongoBookingRepo) find(filter bson.M) ([]models.Booking, error) {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	for cursor.Next(ctx) {
		var b models.Booking
		if err := cursor.Decode(&b); err != nil {
			return nil, fmt.Errorf("failed to decode booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, nil
}
