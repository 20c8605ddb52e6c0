package groomerRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"groomly/database"
	"groomly/models"
)

// ErrNotFound is returned when a groomer does not exist.
var ErrNotFound = errors.New("groomer not found")

// MongoGroomerRepo implements GroomerRepository using MongoDB.
type MongoGroomerRepo struct {
	coll *mongo.Collection
}

// NewMongoGroomerRepo creates a new GroomerRepository backed by the
// "groomers" collection.
func NewMongoGroomerRepo() GroomerRepository {
	return &MongoGroomerRepo{coll: database.Collection("groomers")}
}

func newContext(d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d)
}

func (r *MongoGroomerRepo) Create(g *models.Groomer) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, g); err != nil {
		return fmt.Errorf("failed to create groomer: %w", err)
	}
	return nil
}

func (r *MongoGroomerRepo) GetByID(id string) (*models.Groomer, error) {
	return r.findOne(bson.M{"id": id})
}

func (r *MongoGroomerRepo) GetByPhone(phone string) (*models.Groomer, error) {
	return r.findOne(bson.M{"phone": phone})
}

func (r *MongoGroomerRepo) findOne(filter bson.M) (*models.Groomer, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var g models.Groomer
	if err := r.coll.FindOne(ctx, filter).Decode(&g); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch groomer: %w", err)
	}
	return &g, nil
}
