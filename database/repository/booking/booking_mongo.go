package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"groomly/database"
	"groomly/models"
)

// ErrNotFound is returned when a booking does not exist.
var ErrNotFound = errors.New("booking not found")

// MongoBookingRepo implements BookingRepository using MongoDB.
type MongoBookingRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRepo creates a new BookingRepository backed by the
// "bookings" collection.
func NewMongoBookingRepo() BookingRepository {
	return &MongoBookingRepo{coll: database.Collection("bookings")}
}

func newContext(d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d)
}

func (r *MongoBookingRepo) Create(b *models.Booking) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, b); err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *MongoBookingRepo) GetByID(id string) (*models.Booking, error) {
	return r.findOne(bson.M{"id": id})
}

func (r *MongoBookingRepo) GetByReference(ref string) (*models.Booking, error) {
	return r.findOne(bson.M{"reference": ref})
}

func (r *MongoBookingRepo) findOne(filter bson.M) (*models.Booking, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var b models.Booking
	if err := r.coll.FindOne(ctx, filter).Decode(&b); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch booking: %w", err)
	}
	return &b, nil
}

// Transition applies a compare-and-swap status update: the write only
// matches while the current status is still one of the expected prior
// statuses. MatchedCount == 0 means another actor won the race.
func (r *MongoBookingRepo) Transition(id string, to models.BookingStatus, set bson.M, from ...models.BookingStatus) (bool, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	filter := bson.M{"id": id}
	switch len(from) {
	case 0:
		return false, fmt.Errorf("transition to %s requires at least one expected prior status", to)
	case 1:
		filter["status"] = from[0]
	default:
		filter["status"] = bson.M{"$in": from}
	}

	if set == nil {
		set = bson.M{}
	}
	set["status"] = to

	result, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("failed to transition booking %s to %s: %w", id, to, err)
	}
	return result.MatchedCount > 0, nil
}

func (r *MongoBookingRepo) IncrementAttempts(id string) (int, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$inc": bson.M{"dispatchAttempts": 1}}

	var b models.Booking
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"id": id}, update, opts).Decode(&b); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("failed to increment attempts for booking %s: %w", id, err)
	}
	return b.DispatchAttempts, nil
}
