package earningsRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"groomly/database"
	"groomly/models"
)

// EarningsRepository persists the groomer earning ledger and
// salary-advance requests.
type EarningsRepository interface {
	CreateEarning(e *models.Earning) error

	// UnpaidTotal sums credited but not yet paid-out earnings.
	UnpaidTotal(groomerID string) (float64, error)

	CreateAdvanceRequest(a *models.AdvanceRequest) error
}

// MongoEarningsRepo implements EarningsRepository using MongoDB.
type MongoEarningsRepo struct {
	earnings *mongo.Collection
	advances *mongo.Collection
}

// NewMongoEarningsRepo creates a new EarningsRepository backed by the
// "earnings" and "advance_requests" collections.
func NewMongoEarningsRepo() EarningsRepository {
	return &MongoEarningsRepo{
		earnings: database.Collection("earnings"),
		advances: database.Collection("advance_requests"),
	}
}

func newContext(d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d)
}

func (r *MongoEarningsRepo) CreateEarning(e *models.Earning) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	if _, err := r.earnings.InsertOne(ctx, e); err != nil {
		return fmt.Errorf("failed to create earning: %w", err)
	}
	return nil
}

func (r *MongoEarningsRepo) UnpaidTotal(groomerID string) (float64, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"groomerId": groomerID, "paid": false}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$amount"}}}},
	}
	cursor, err := r.earnings.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to sum earnings for groomer %s: %w", groomerID, err)
	}
	defer cursor.Close(ctx)

	var result struct {
		Total float64 `bson:"total"`
	}
	if cursor.Next(ctx) {
		if err := cursor.Decode(&result); err != nil {
			return 0, fmt.Errorf("failed to decode earnings total: %w", err)
		}
	}
	return result.Total, nil
}

func (r *MongoEarningsRepo) CreateAdvanceRequest(a *models.AdvanceRequest) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	if _, err := r.advances.InsertOne(ctx, a); err != nil {
		return fmt.Errorf("failed to create advance request: %w", err)
	}
	return nil
}
