package strikeRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"groomly/database"
	"groomly/models"
)

// StrikeRepository persists punitive records against groomers. The
// authoritative counter lives on the groomer document; this collection
// is the audit trail.
type StrikeRepository interface {
	Create(s *models.Strike) error
	ListByGroomer(groomerID string) ([]models.Strike, error)
}

// MongoStrikeRepo implements StrikeRepository using MongoDB.
type MongoStrikeRepo struct {
	coll *mongo.Collection
}

// NewMongoStrikeRepo creates a new StrikeRepository backed by the
// "strikes" collection.
func NewMongoStrikeRepo() StrikeRepository {
	return &MongoStrikeRepo{coll: database.Collection("strikes")}
}

func newContext(d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d)
}

func (r *MongoStrikeRepo) Create(s *models.Strike) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, s); err != nil {
		return fmt.Errorf("failed to create strike: %w", err)
	}
	return nil
}

func (r *MongoStrikeRepo) ListByGroomer(groomerID string) ([]models.Strike, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, bson.M{"groomerId": groomerID})
	if err != nil {
		return nil, fmt.Errorf("failed to list strikes for groomer %s: %w", groomerID, err)
	}
	defer cursor.Close(ctx)

	var strikes []models.Strike
	for cursor.Next(ctx) {
		var s models.Strike
		if err := cursor.Decode(&s); err != nil {
			return nil, fmt.Errorf("failed to decode strike: %w", err)
		}
		strikes = append(strikes, s)
	}
	return strikes, nil
}
