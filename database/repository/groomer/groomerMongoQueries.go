package groomerRepo

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"groomly/models"
)

// FindEligible runs the eligibility join: activation, availability,
// capability, coverage and exclusion in one query. Ordering is rating
// descending, then completed-job count descending; squad preference is
// layered on top by the candidate selector, not here.
func (r *MongoGroomerRepo) FindEligible(q EligibilityQuery) ([]models.Groomer, error) {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	filter := bson.M{
		"status":       models.GroomerActive,
		"availability": models.AvailabilityOnline,
		"services":     q.ServiceID,
	}
	if q.Zone != "" {
		filter["zones"] = q.Zone
	}
	if len(q.ExcludeIDs) > 0 {
		filter["id"] = bson.M{"$nin": q.ExcludeIDs}
	}

	opts := options.Find().SetSort(bson.D{
		{Key: "rating", Value: -1},
		{Key: "completedJobs", Value: -1},
	})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("eligibility query failed: %w", err)
	}
	defer cursor.Close(ctx)

	var groomers []models.Groomer
	for cursor.Next(ctx) {
		var g models.Groomer
		if err := cursor.Decode(&g); err != nil {
			return nil, fmt.Errorf("failed to decode groomer: %w", err)
		}
		groomers = append(groomers, g)
	}
	return groomers, nil
}
