package groomerRepo

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"groomly/models"
)

// SetAvailability is a conditional flip: it only applies while the
// current availability still equals `from`. A zero match count means
// another actor moved the groomer first.
func (r *MongoGroomerRepo) SetAvailability(id, from, to string) (bool, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	filter := bson.M{"id": id, "availability": from}
	update := bson.M{"$set": bson.M{"availability": to, "updatedAt": time.Now()}}

	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to set availability for groomer %s: %w", id, err)
	}
	return result.MatchedCount > 0, nil
}

func (r *MongoGroomerRepo) Assign(id, bookingID string) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"availability":     models.AvailabilityBusy,
		"currentBookingId": bookingID,
		"updatedAt":        time.Now(),
	}}
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to assign groomer %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Release only applies while the groomer is still held by the given
// booking, so a late release cannot clobber a newer assignment.
func (r *MongoGroomerRepo) Release(id, bookingID string) (bool, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	filter := bson.M{"id": id, "currentBookingId": bookingID}
	update := bson.M{
		"$set":   bson.M{"availability": models.AvailabilityOnline, "updatedAt": time.Now()},
		"$unset": bson.M{"currentBookingId": ""},
	}
	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to release groomer %s: %w", id, err)
	}
	return result.MatchedCount > 0, nil
}

func (r *MongoGroomerRepo) IncrementStrikes(id string) (int, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{
		"$inc": bson.M{"strikes": 1},
		"$set": bson.M{"updatedAt": time.Now()},
	}

	var g models.Groomer
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"id": id}, update, opts).Decode(&g); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("failed to increment strikes for groomer %s: %w", id, err)
	}
	return g.Strikes, nil
}

func (r *MongoGroomerRepo) Suspend(id string) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"status":       models.GroomerSuspended,
		"availability": models.AvailabilityOffline,
		"updatedAt":    time.Now(),
	}}
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to suspend groomer %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoGroomerRepo) IncrementCompletedJobs(id string) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	update := bson.M{
		"$inc": bson.M{"completedJobs": 1},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	if _, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update); err != nil {
		return fmt.Errorf("failed to increment completed jobs for groomer %s: %w", id, err)
	}
	return nil
}
