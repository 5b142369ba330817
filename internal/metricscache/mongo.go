package metricscache

import (
	"context"
	"fmt"
	"time"

	"github.com/insightboard/insightboard/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoRepository struct {
	col *mongo.Collection
}

// NewMongoRepository uses the metrics_cache collection of db. Nested metric
// documents decode as maps so they serialize back to plain JSON objects.
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	opts := options.Collection().SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})
	return &MongoRepository{col: db.Collection("metrics_cache", opts)}
}

func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "metricKey", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *MongoRepository) Upsert(ctx context.Context, userID int64, key string, value models.MetricValue, refreshedAt time.Time) error {
	filter := bson.M{"userId": userID, "metricKey": key}
	update := bson.M{"$set": bson.M{
		"metricValue":     value,
		"lastRefreshedAt": refreshedAt.UTC(),
	}}
	if _, err := r.col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("upsert metric %s: %w", key, err)
	}
	return nil
}

func (r *MongoRepository) ListByUser(ctx context.Context, userID int64) ([]models.Metric, error) {
	cur, err := r.col.Find(ctx, bson.M{"userId": userID}, options.Find().SetSort(bson.D{{Key: "metricKey", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list metrics: %w", err)
	}
	var out []models.Metric
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("list metrics: %w", err)
	}
	return out, nil
}
