package directory

import (
	"context"
	"fmt"
	"time"

	"callpilot/database"
	"callpilot/models"
	"callpilot/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoDirectory serves providers from a MongoDB collection. Searches sort by
// insertion order so repeated runs rank ties identically.
type MongoDirectory struct {
	coll *mongo.Collection
}

// NewMongoDirectory returns a directory over the "providers" collection.
// database.InitDB must have run first.
func NewMongoDirectory() *MongoDirectory {
	coll := database.MongoClient.Database("callpilot").Collection("providers")
	return &MongoDirectory{coll: coll}
}

// EnsureIndexes creates the query indexes. Safe to call on every startup.
func (d *MongoDirectory) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "specialty", Value: 1}, {Key: "distanceKm", Value: 1}}},
	}
	if _, err := d.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create provider indexes: %w", err)
	}
	return nil
}

// SeedFromFixture loads the fixture file into an empty collection. A
// populated collection is left untouched, so local edits survive restarts.
func (d *MongoDirectory) SeedFromFixture(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	count, err := d.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("failed to count providers: %w", err)
	}
	if count > 0 {
		return nil
	}

	providers, err := NewFixtureDirectory(path).load()
	if err != nil {
		return err
	}
	if len(providers) == 0 {
		return nil
	}
	docs := make([]interface{}, len(providers))
	for i, p := range providers {
		docs[i] = p
	}
	if _, err := d.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to seed providers: %w", err)
	}
	utils.GetLogger().Info("MongoDirectory: seeded providers from fixture",
		zap.Int("count", len(docs)), zap.String("path", path))
	return nil
}

// Search filters by exact specialty and the distance budget.
func (d *MongoDirectory) Search(ctx context.Context, specialty string, radiusKm float64, location string) ([]models.Provider, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"specialty":  specialty,
		"distanceKm": bson.M{"$lte": radiusKm},
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := d.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search providers: %w", err)
	}
	defer cursor.Close(ctx)

	var providers []models.Provider
	for cursor.Next(ctx) {
		var p models.Provider
		if err := cursor.Decode(&p); err != nil {
			return nil, fmt.Errorf("failed to decode provider: %w", err)
		}
		providers = append(providers, p)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("provider cursor failed: %w", err)
	}
	return providers, nil
}

// GetByID resolves a provider document by its id field.
func (d *MongoDirectory) GetByID(ctx context.Context, id string) (*models.Provider, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var provider models.Provider
	if err := d.coll.FindOne(ctx, bson.M{"id": id}).Decode(&provider); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch provider %s: %w", id, err)
	}
	return &provider, nil
}
