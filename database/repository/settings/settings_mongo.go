package settingsRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"groomly/database"
)

// SettingsRepository is the external store of runtime-tunable string
// key→value pairs (rates, windows, timeouts). Absent keys fall back to
// hard-coded defaults at the read site.
type SettingsRepository interface {
	GetAll() (map[string]string, error)
	Set(key, value string) error
}

type setting struct {
	Key   string `bson:"key"`
	Value string `bson:"value"`
}

// MongoSettingsRepo implements SettingsRepository using MongoDB.
type MongoSettingsRepo struct {
	coll *mongo.Collection
}

// NewMongoSettingsRepo creates a new SettingsRepository backed by the
// "settings" collection.
func NewMongoSettingsRepo() SettingsRepository {
	return &MongoSettingsRepo{coll: database.Collection("settings")}
}

func (r *MongoSettingsRepo) GetAll() (map[string]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	defer cursor.Close(ctx)

	values := make(map[string]string)
	for cursor.Next(ctx) {
		var s setting
		if err := cursor.Decode(&s); err != nil {
			return nil, fmt.Errorf("failed to decode setting: %w", err)
		}
		values[s.Key] = s.Value
	}
	return values, nil
}

func (r *MongoSettingsRepo) Set(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	opts := options.Update().SetUpsert(true)
	update := bson.M{"$set": bson.M{"key": key, "value": value}}
	if _, err := r.coll.UpdateOne(ctx, bson.M{"key": key}, update, opts); err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}
