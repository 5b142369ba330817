// Package metricscache stores per-user aggregates keyed by (user, metric key).
// Writers always replace value and refresh time together.
package metricscache

import (
	"context"
	"time"

	"github.com/insightboard/insightboard/internal/models"
)

// Repository is the Metrics Cache persistence contract.
type Repository interface {
	Upsert(ctx context.Context, userID int64, key string, value models.MetricValue, refreshedAt time.Time) error
	ListByUser(ctx context.Context, userID int64) ([]models.Metric, error)
}
