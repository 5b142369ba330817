package metricscache

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/insightboard/insightboard/internal/models"
)

type cacheKey struct {
	userID int64
	key    string
}

type MemoryRepository struct {
	mu   sync.RWMutex
	rows map[cacheKey]models.Metric
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{rows: map[cacheKey]models.Metric{}}
}

func (r *MemoryRepository) Upsert(_ context.Context, userID int64, key string, value models.MetricValue, refreshedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[cacheKey{userID, key}] = models.Metric{UserID: userID, Key: key, Value: maps.Clone(value), LastRefreshedAt: refreshedAt.UTC()}
	return nil
}

func (r *MemoryRepository) ListByUser(_ context.Context, userID int64) ([]models.Metric, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Metric
	for k, m := range r.rows {
		if k.userID == userID {
			m.Value = maps.Clone(m.Value)
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}
