package customerRepo

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

// ErrNotFound is returned when a customer does not exist.
var ErrNotFound = errors.New("customer not found")

// CustomerRepository defines the data access surface for customers.
type CustomerRepository interface {
	Create(c *models.Customer) error
	GetByID(id string) (*models.Customer, error)

	// SetSquad replaces the preferred-groomer list (priority order,
	// capped at models.MaxSquadSize).
	SetSquad(id string, squad []string) error
}

// MongoCustomerRepo implements CustomerRepository using MongoDB.
type MongoCustomerRepo struct {
	coll *mongo.Collection
}

// NewMongoCustomerRepo creates a new CustomerRepository backed by the
// "customers" collection.
func NewMongoCustomerRepo() CustomerRepository {
	return &MongoCustomerRepo{coll: database.Collection("customers")}
}

func newContext(d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d)
}

func (r *MongoCustomerRepo) Create(c *models.Customer) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, c); err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

func (r *MongoCustomerRepo) GetByID(id string) (*models.Customer, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var c models.Customer
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch customer %s: %w", id, err)
	}
	return &c, nil
}

func (r *MongoCustomerRepo) SetSquad(id string, squad []string) error {
	if len(squad) > models.MaxSquadSize {
		return fmt.Errorf("squad exceeds maximum of %d groomers", models.MaxSquadSize)
	}

	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{"squad": squad, "updatedAt": time.Now()}}
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to set squad for customer %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
