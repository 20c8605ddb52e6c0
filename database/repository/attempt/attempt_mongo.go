package attemptRepo

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

// ErrNotFound is returned when a dispatch attempt does not exist.
var ErrNotFound = errors.New("dispatch attempt not found")

// AttemptRepository records one row per offer made to one groomer for
// one booking. Resolve is a conditional update from "pending", so an
// accept racing a fired timeout settles to exactly one outcome.
type AttemptRepository interface {
	Create(a *models.DispatchAttempt) error
	GetByID(id string) (*models.DispatchAttempt, error)

	// Resolve sets the outcome iff the attempt is still pending.
	// Returns (false, nil) when the attempt was already resolved.
	Resolve(id, outcome string, at time.Time) (bool, error)

	// PendingByGroomer returns the groomer's open offer, if any. A
	// groomer has at most one open offer at a time by construction.
	PendingByGroomer(groomerID string) (*models.DispatchAttempt, error)

	// PendingByBooking returns the booking's open offer, if any.
	PendingByBooking(bookingID string) (*models.DispatchAttempt, error)

	// TriedGroomerIDs lists every groomer already offered this booking,
	// regardless of outcome.
	TriedGroomerIDs(bookingID string) ([]string, error)
}

// MongoAttemptRepo implements AttemptRepository using MongoDB.
type MongoAttemptRepo struct {
	coll *mongo.Collection
}

// NewMongoAttemptRepo creates a new AttemptRepository backed by the
// "dispatch_attempts" collection.
func NewMongoAttemptRepo() AttemptRepository {
	return &MongoAttemptRepo{coll: database.Collection("dispatch_attempts")}
}

func newContext(d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d)
}

func (r *MongoAttemptRepo) Create(a *models.DispatchAttempt) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, a); err != nil {
		return fmt.Errorf("failed to create dispatch attempt: %w", err)
	}
	return nil
}

func (r *MongoAttemptRepo) GetByID(id string) (*models.DispatchAttempt, error) {
	return r.findOne(bson.M{"id": id}, nil)
}

func (r *MongoAttemptRepo) Resolve(id, outcome string, at time.Time) (bool, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	filter := bson.M{"id": id, "outcome": models.AttemptPending}
	update := bson.M{"$set": bson.M{"outcome": outcome, "respondedAt": at}}

	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to resolve dispatch attempt %s: %w", id, err)
	}
	return result.MatchedCount > 0, nil
}

func (r *MongoAttemptRepo) PendingByGroomer(groomerID string) (*models.DispatchAttempt, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "offeredAt", Value: -1}})
	return r.findOne(bson.M{"groomerId": groomerID, "outcome": models.AttemptPending}, opts)
}

func (r *MongoAttemptRepo) PendingByBooking(bookingID string) (*models.DispatchAttempt, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "offeredAt", Value: -1}})
	return r.findOne(bson.M{"bookingId": bookingID, "outcome": models.AttemptPending}, opts)
}

func (r *MongoAttemptRepo) findOne(filter bson.M, opts *options.FindOneOptions) (*models.DispatchAttempt, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var a models.DispatchAttempt
	var err error
	if opts != nil {
		err = r.coll.FindOne(ctx, filter, opts).Decode(&a)
	} else {
		err = r.coll.FindOne(ctx, filter).Decode(&a)
	}
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch dispatch attempt: %w", err)
	}
	return &a, nil
}

func (r *MongoAttemptRepo) TriedGroomerIDs(bookingID string) ([]string, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	values, err := r.coll.Distinct(ctx, "groomerId", bson.M{"bookingId": bookingID})
	if err != nil {
		return nil, fmt.Errorf("failed to list tried groomers for booking %s: %w", bookingID, err)
	}

	ids := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			ids = append(ids, s)
		}
	}
	return ids, nil
}
